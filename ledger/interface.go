package ledger

import (
	"time"
)

// Store is the durable ordered-map backend of one ledger instance.
// Keys are totally ordered ascending, iteration is deterministic, and a
// successful write is never silently lost before the operation that
// issued it returns.
type Store interface {
	WriteProperty(key, val []byte) error
	ReadProperty(key []byte) ([]byte, error)

	ReadCollection() (*Collection, error)
	WriteCollection(c *Collection) error

	ReadToken(id uint64) (*Token, error)
	// ListTokens returns tokens with id >= from in ascending order,
	// capped at limit when limit is positive. The whole listing reads
	// from one store snapshot.
	ListTokens(from uint64, limit int) ([]*Token, error)
	CountTokens() (uint64, error)

	ReadTransaction(id uint64) (*Transaction, error)

	// WriteLedgerEntry commits one completed operation: the mutated
	// token rows, the appended transaction and the updated collection
	// record, all in a single store transaction.
	WriteLedgerEntry(tokens []*Token, tx *Transaction, c *Collection) error
}

type Timer interface {
	Now() time.Time
}
