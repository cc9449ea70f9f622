package ledger

import (
	"io/ioutil"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

type Configuration struct {
	Collection struct {
		Name                string `toml:"name"`
		Symbol              string `toml:"symbol"`
		Description         string `toml:"description"`
		Logo                string `toml:"logo"`
		Authority           string `toml:"authority"`
		SupplyCap           uint64 `toml:"supply-cap"`
		MaxQueryBatchSize   int    `toml:"max-query-batch-size"`
		MaxUpdateBatchSize  int    `toml:"max-update-batch-size"`
		DefaultTakeValue    int    `toml:"default-take-value"`
		MaxTakeValue        int    `toml:"max-take-value"`
		MaxMemoSize         int    `toml:"max-memo-size"`
		AtomicBatchTransfer *bool  `toml:"atomic-batch-transfer"`
		TxWindow            string `toml:"tx-window"`
		PermittedDrift      string `toml:"permitted-drift"`
	} `toml:"collection"`
	Registry struct {
		Deployer string `toml:"deployer"`
	} `toml:"registry"`
}

func Setup(path string) (*Configuration, error) {
	f, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	var conf Configuration
	err = toml.Unmarshal(f, &conf)
	if err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	return &conf, nil
}

// Genesis builds the collection record for a first boot. Unset fields
// keep the collection defaults, the minting authority must be present.
func (conf *Configuration) Genesis() (*Collection, error) {
	cc := conf.Collection
	if cc.Authority == "" {
		return nil, errors.New("missing collection authority")
	}
	c := DefaultCollection()
	c.MintingAuthority = NormalizeAccount(cc.Authority, nil)
	if cc.Name != "" {
		c.Name = cc.Name
	}
	if cc.Symbol != "" {
		c.Symbol = cc.Symbol
	}
	c.Description = cc.Description
	c.Logo = cc.Logo
	c.SupplyCap = cc.SupplyCap
	if cc.MaxQueryBatchSize > 0 {
		c.MaxQueryBatchSize = cc.MaxQueryBatchSize
	}
	if cc.MaxUpdateBatchSize > 0 {
		c.MaxUpdateBatchSize = cc.MaxUpdateBatchSize
	}
	if cc.DefaultTakeValue > 0 {
		c.DefaultTakeValue = cc.DefaultTakeValue
	}
	if cc.MaxTakeValue > 0 {
		c.MaxTakeValue = cc.MaxTakeValue
	}
	if cc.MaxMemoSize > 0 {
		c.MaxMemoSize = cc.MaxMemoSize
	}
	if cc.AtomicBatchTransfer != nil {
		c.AtomicBatchTransfer = *cc.AtomicBatchTransfer
	}
	if cc.TxWindow != "" {
		d, err := time.ParseDuration(cc.TxWindow)
		if err != nil {
			return nil, errors.Wrap(err, "parse tx-window")
		}
		c.TxWindow = d
	}
	if cc.PermittedDrift != "" {
		d, err := time.ParseDuration(cc.PermittedDrift)
		if err != nil {
			return nil, errors.Wrap(err, "parse permitted-drift")
		}
		c.PermittedDrift = d
	}
	return c, nil
}
