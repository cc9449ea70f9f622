package ledger

import (
	"github.com/pkg/errors"
)

// Read-only queries. They run against store snapshots and are not
// serialized with mutations, a caller sees either the pre- or the
// post-state of any operation, never an intermediate one.

func (l *Ledger) CollectionMetadata() (*Collection, error) {
	return l.readCollection()
}

func (l *Ledger) Name() (string, error) {
	c, err := l.readCollection()
	if err != nil {
		return "", err
	}
	return c.Name, nil
}

func (l *Ledger) Symbol() (string, error) {
	c, err := l.readCollection()
	if err != nil {
		return "", err
	}
	return c.Symbol, nil
}

func (l *Ledger) Description() (string, error) {
	c, err := l.readCollection()
	if err != nil {
		return "", err
	}
	return c.Description, nil
}

func (l *Ledger) Logo() (string, error) {
	c, err := l.readCollection()
	if err != nil {
		return "", err
	}
	return c.Logo, nil
}

func (l *Ledger) TotalSupply() (uint64, error) {
	c, err := l.readCollection()
	if err != nil {
		return 0, err
	}
	return c.TotalSupply, nil
}

func (l *Ledger) SupplyCap() (uint64, error) {
	c, err := l.readCollection()
	if err != nil {
		return 0, err
	}
	return c.SupplyCap, nil
}

// OwnerOf returns nil for an id that was never minted.
func (l *Ledger) OwnerOf(id uint64) (*Account, error) {
	token, err := l.store.ReadToken(id)
	if err != nil {
		return nil, errors.Wrap(err, "read token")
	}
	if token == nil {
		return nil, nil
	}
	owner := token.Owner
	return &owner, nil
}

func (l *Ledger) TokenMetadata(id uint64) (map[string]string, error) {
	token, err := l.store.ReadToken(id)
	if err != nil {
		return nil, errors.Wrap(err, "read token")
	}
	if token == nil {
		return nil, ErrorNotFound(id)
	}
	return token.Metadata(), nil
}

func (l *Ledger) BalanceOf(account Account) (uint64, error) {
	tokens, err := l.ownedTokens(account)
	if err != nil {
		return 0, err
	}
	return uint64(len(tokens)), nil
}

// ListTokens enumerates token ids in ascending order, strictly greater
// than after when it is set, capped at the configured take bounds. A
// cursor that matches no existing id is a filter threshold, not a
// lookup failure.
func (l *Ledger) ListTokens(after *uint64, take int) ([]uint64, error) {
	c, err := l.readCollection()
	if err != nil {
		return nil, err
	}
	tokens, err := l.store.ListTokens(cursorFrom(after), c.take(take))
	if err != nil {
		return nil, errors.Wrap(err, "list tokens")
	}
	ids := make([]uint64, len(tokens))
	for i, token := range tokens {
		ids[i] = token.ID
	}
	return ids, nil
}

// TokensOf applies the same cursor rule after filtering by the current
// owner. This scans the registry, there is no secondary owner index.
func (l *Ledger) TokensOf(account Account, after *uint64, take int) ([]uint64, error) {
	c, err := l.readCollection()
	if err != nil {
		return nil, err
	}
	tokens, err := l.store.ListTokens(cursorFrom(after), 0)
	if err != nil {
		return nil, errors.Wrap(err, "list tokens")
	}
	limit := c.take(take)
	var ids []uint64
	for _, token := range tokens {
		if token.Owner != account {
			continue
		}
		ids = append(ids, token.ID)
		if len(ids) == limit {
			break
		}
	}
	return ids, nil
}

func (l *Ledger) Transaction(id uint64) (*Transaction, error) {
	tx, err := l.store.ReadTransaction(id)
	if err != nil {
		return nil, errors.Wrap(err, "read transaction")
	}
	return tx, nil
}

func cursorFrom(after *uint64) uint64 {
	if after == nil {
		return 0
	}
	return *after + 1
}
