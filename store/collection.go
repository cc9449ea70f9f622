package store

import (
	"encoding/binary"

	"nftledger/ledger"

	"github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
)

const (
	propertyCollectionRecord = "LEDGER:COLLECTION:RECORD"

	// record layout: 1-byte version, u32 little-endian payload length,
	// msgpack payload; versioned so schema evolution never corrupts
	// state written by an older build.
	collectionRecordVersion = byte(1)
)

func (bs *BadgerStore) ReadCollection() (*ledger.Collection, error) {
	val, err := bs.ReadProperty([]byte(propertyCollectionRecord))
	if err != nil || val == nil {
		return nil, err
	}
	return decodeCollectionRecord(val)
}

func (bs *BadgerStore) WriteCollection(c *ledger.Collection) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		return writeCollection(txn, c)
	})
}

func writeCollection(txn *badger.Txn, c *ledger.Collection) error {
	return txn.Set([]byte(propertyCollectionRecord), encodeCollectionRecord(c))
}

func encodeCollectionRecord(c *ledger.Collection) []byte {
	payload := ledger.MsgpackMarshalPanic(c)
	val := make([]byte, 5, 5+len(payload))
	val[0] = collectionRecordVersion
	binary.LittleEndian.PutUint32(val[1:], uint32(len(payload)))
	return append(val, payload...)
}

func decodeCollectionRecord(val []byte) (*ledger.Collection, error) {
	if len(val) < 5 {
		return nil, errors.Errorf("malformed collection record size %d", len(val))
	}
	if val[0] != collectionRecordVersion {
		return nil, errors.Errorf("unknown collection record version %d", val[0])
	}
	length := binary.LittleEndian.Uint32(val[1:5])
	if int(length) != len(val)-5 {
		return nil, errors.Errorf("malformed collection record length %d != %d", length, len(val)-5)
	}
	var c ledger.Collection
	err := ledger.MsgpackUnmarshal(val[5:], &c)
	if err != nil {
		return nil, errors.Wrap(err, "decode collection record")
	}
	return &c, nil
}
