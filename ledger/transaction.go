package ledger

import (
	"bytes"
)

const (
	TransactionKindMint     = "MINT"
	TransactionKindTransfer = "TRANSFER"
	TransactionKindBurn     = "BURN"
	TransactionKindApproval = "APPROVAL"
)

// Transaction is one committed ledger mutation. Records are immutable
// once appended, the log is the audit trail and the sole input to
// request deduplication. Sequence ids start at 1.
//
// Timestamp is the commit instant from the ledger clock. CreatedAt is
// the request time the caller supplied, zero when absent; duplicates
// are matched on it, the dedup window is bounded on Timestamp.
type Transaction struct {
	ID        uint64
	Kind      string
	TokenIDs  []uint64
	From      Account
	Spender   Account
	To        Account
	Memo      []byte
	CreatedAt int64
	Timestamp int64
}

func (t *Transaction) matches(o *Transaction) bool {
	if t.Kind != o.Kind || t.CreatedAt != o.CreatedAt {
		return false
	}
	if t.From != o.From || t.Spender != o.Spender || t.To != o.To {
		return false
	}
	if !bytes.Equal(t.Memo, o.Memo) {
		return false
	}
	if len(t.TokenIDs) != len(o.TokenIDs) {
		return false
	}
	for i := range t.TokenIDs {
		if t.TokenIDs[i] != o.TokenIDs[i] {
			return false
		}
	}
	return true
}
