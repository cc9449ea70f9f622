package ledger

import (
	"time"
)

// Collection is the singleton configuration record of one ledger
// instance. Every field is fixed at initialization except TotalSupply
// and TxCount, the only counters a committed operation may advance.
type Collection struct {
	Name        string
	Symbol      string
	Description string
	Logo        string

	MintingAuthority Account
	SupplyCap        uint64 // zero means uncapped

	MaxQueryBatchSize   int
	MaxUpdateBatchSize  int
	DefaultTakeValue    int
	MaxTakeValue        int
	MaxMemoSize         int
	AtomicBatchTransfer bool

	TxWindow       time.Duration
	PermittedDrift time.Duration

	TotalSupply uint64
	TxCount     uint64
}

func DefaultCollection() *Collection {
	return &Collection{
		Name:                "Collectible Token",
		Symbol:              "CLT",
		MaxQueryBatchSize:   256,
		MaxUpdateBatchSize:  256,
		DefaultTakeValue:    32,
		MaxTakeValue:        256,
		MaxMemoSize:         32,
		AtomicBatchTransfer: true,
		TxWindow:            24 * time.Hour,
		PermittedDrift:      2 * time.Minute,
	}
}

func (c *Collection) BurnAccount() Account {
	return BurnAccountFor(c.Symbol)
}

func (c *Collection) validMemo(memo []byte) bool {
	return len(memo) <= c.MaxMemoSize
}

func (c *Collection) validBatch(ids []uint64) bool {
	return len(ids) <= c.MaxUpdateBatchSize
}

// take clamps a requested page size to the configured bounds.
func (c *Collection) take(requested int) int {
	if requested <= 0 {
		requested = c.DefaultTakeValue
	}
	if requested > c.MaxTakeValue {
		return c.MaxTakeValue
	}
	return requested
}

func (c *Collection) Metadata() map[string]string {
	meta := map[string]string{
		"Name":   c.Name,
		"Symbol": c.Symbol,
	}
	if c.Description != "" {
		meta["Description"] = c.Description
	}
	if c.Logo != "" {
		meta["Logo"] = c.Logo
	}
	return meta
}
