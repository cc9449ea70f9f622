package store

import (
	"nftledger/ledger"

	"github.com/dgraph-io/badger/v3"
)

const prefixTokenPayload = "LEDGER:TOKEN:PAYLOAD:"

func tokenKey(id uint64) []byte {
	return append([]byte(prefixTokenPayload), idToBytes(id)...)
}

func (bs *BadgerStore) ReadToken(id uint64) (*ledger.Token, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	return readToken(txn, id)
}

// ListTokens returns tokens with id >= from in ascending id order, the
// big-endian keys make the badger iteration order the numeric order.
// A non-positive limit lists to the end, in one snapshot.
func (bs *BadgerStore) ListTokens(from uint64, limit int) ([]*ledger.Token, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefixTokenPayload)
	it := txn.NewIterator(opts)
	defer it.Close()

	var tokens []*ledger.Token
	for it.Seek(tokenKey(from)); it.Valid(); it.Next() {
		val, err := it.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		var token ledger.Token
		err = ledger.MsgpackUnmarshal(val, &token)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, &token)
		if len(tokens) == limit {
			break
		}
	}
	return tokens, nil
}

func (bs *BadgerStore) CountTokens() (uint64, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(prefixTokenPayload)
	it := txn.NewIterator(opts)
	defer it.Close()

	var count uint64
	for it.Seek(opts.Prefix); it.Valid(); it.Next() {
		count += 1
	}
	return count, nil
}

func readToken(txn *badger.Txn, id uint64) (*ledger.Token, error) {
	item, err := txn.Get(tokenKey(id))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	var token ledger.Token
	err = ledger.MsgpackUnmarshal(val, &token)
	return &token, err
}

func writeToken(txn *badger.Txn, token *ledger.Token) error {
	val := ledger.MsgpackMarshalPanic(token)
	return txn.Set(tokenKey(token.ID), val)
}
