package changelog

import (
	"encoding/binary"
)

// Keyspace helpers for Pebble keys.
//
// Layout (byte-wise, lexicographically sortable):
// - cl/{class}/m            meta: last assigned event id (be8)
// - cl/{class}/e/{id_be8}   one encoded change event
// - cl/{class}/ckpt         checkpoint: last confirmed id (be8) + updated-at ms (be8)

var (
	clPrefix   = []byte("cl/")
	metaSuffix = []byte("/m")
	entrySeg   = []byte("/e/")
	ckptSuffix = []byte("/ckpt")
)

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

// KeyMeta builds the per-class metadata key.
func KeyMeta(class string) []byte {
	k := make([]byte, 0, len(clPrefix)+len(class)+len(metaSuffix))
	k = append(k, clPrefix...)
	k = append(k, class...)
	k = append(k, metaSuffix...)
	return k
}

// KeyEntry builds the event key with a big-endian id for proper ordering.
func KeyEntry(class string, id uint64) []byte {
	k := make([]byte, 0, len(clPrefix)+len(class)+len(entrySeg)+8)
	k = append(k, clPrefix...)
	k = append(k, class...)
	k = append(k, entrySeg...)
	k = appendBE8(k, id)
	return k
}

// KeyCheckpoint builds the per-class checkpoint key.
func KeyCheckpoint(class string) []byte {
	k := make([]byte, 0, len(clPrefix)+len(class)+len(ckptSuffix))
	k = append(k, clPrefix...)
	k = append(k, class...)
	k = append(k, ckptSuffix...)
	return k
}

// entryBounds returns the [low, high) iterator bounds covering all entries of
// a class with id > after.
func entryBounds(class string, after uint64) (low, high []byte) {
	low = KeyEntry(class, after+1)
	high = append(KeyEntry(class, ^uint64(0)), 0x00)
	return low, high
}

// entryID extracts the event id from an entry key.
func entryID(key []byte) uint64 {
	return binary.BigEndian.Uint64(key[len(key)-8:])
}
