package store

import (
	"encoding/binary"
)

func idToBytes(id uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, id)
	return buf
}

func bytesToId(buf []byte) uint64 {
	return binary.BigEndian.Uint64(buf)
}
