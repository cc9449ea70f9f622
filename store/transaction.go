package store

import (
	"fmt"

	"nftledger/ledger"

	"github.com/dgraph-io/badger/v3"
)

const prefixTransactionPayload = "LEDGER:TRANSACTION:PAYLOAD:"

func transactionKey(id uint64) []byte {
	return append([]byte(prefixTransactionPayload), idToBytes(id)...)
}

func (bs *BadgerStore) ReadTransaction(id uint64) (*ledger.Transaction, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	return readTransaction(txn, id)
}

// WriteLedgerEntry commits one ledger operation: the mutated token
// rows, the appended transaction and the updated collection record in
// a single badger update, so a failed batch never applies partially.
func (bs *BadgerStore) WriteLedgerEntry(tokens []*ledger.Token, tx *ledger.Transaction, c *ledger.Collection) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		for _, token := range tokens {
			err := writeToken(txn, token)
			if err != nil {
				return err
			}
		}
		old, err := readTransaction(txn, tx.ID)
		if err != nil {
			return err
		}
		if old != nil {
			// the log is append-only
			panic(fmt.Sprint(tx.ID))
		}
		err = txn.Set(transactionKey(tx.ID), ledger.MsgpackMarshalPanic(tx))
		if err != nil {
			return err
		}
		return writeCollection(txn, c)
	})
}

func readTransaction(txn *badger.Txn, id uint64) (*ledger.Transaction, error) {
	item, err := txn.Get(transactionKey(id))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	var tx ledger.Transaction
	err = ledger.MsgpackUnmarshal(val, &tx)
	return &tx, err
}
