package ledger

import (
	"encoding/binary"
)

// Keyspace helpers for Pebble keys.
//
// Layout (byte-wise, lexicographically sortable):
// - lg/{kind}/m            meta: last assigned entity id (be8)
// - lg/{kind}/e/{id_be8}   one JSON-encoded entity
// - lg/a/n/{name}          account name index -> id (be8)
// - lg/a/b                 billing account pointer -> id (be8)
//
// kind is one of a (accounts), t (transactions), i (invoices), f (frequents).

var (
	lgPrefix    = []byte("lg/")
	metaSuffix  = []byte("/m")
	entrySeg    = []byte("/e/")
	acctNameSeg = []byte("lg/a/n/")
	acctBilling = []byte("lg/a/b")
)

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

func keyMeta(kind string) []byte {
	k := make([]byte, 0, len(lgPrefix)+len(kind)+len(metaSuffix))
	k = append(k, lgPrefix...)
	k = append(k, kind...)
	k = append(k, metaSuffix...)
	return k
}

func keyEntry(kind string, id uint64) []byte {
	k := make([]byte, 0, len(lgPrefix)+len(kind)+len(entrySeg)+8)
	k = append(k, lgPrefix...)
	k = append(k, kind...)
	k = append(k, entrySeg...)
	k = appendBE8(k, id)
	return k
}

func keyAccountName(name string) []byte {
	k := make([]byte, 0, len(acctNameSeg)+len(name))
	k = append(k, acctNameSeg...)
	k = append(k, name...)
	return k
}

// entryBounds returns the [low, high) iterator bounds covering all entities
// of a kind.
func entryBounds(kind string) (low, high []byte) {
	low = keyEntry(kind, 0)
	high = append(keyEntry(kind, ^uint64(0)), 0x00)
	return low, high
}

func entryID(key []byte) uint64 {
	return binary.BigEndian.Uint64(key[len(key)-8:])
}
