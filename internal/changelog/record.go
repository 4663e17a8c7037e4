package changelog

import (
	"encoding/binary"
	"hash/crc32"
)

// Kind classifies a change event.
type Kind string

// Event kinds
const (
	KindCreated Kind = "created"
	KindUpdated Kind = "updated"
	KindDeleted Kind = "deleted"
)

func (k Kind) valid() bool {
	switch k {
	case KindCreated, KindUpdated, KindDeleted:
		return true
	}
	return false
}

func (k Kind) code() byte {
	switch k {
	case KindCreated:
		return 1
	case KindUpdated:
		return 2
	case KindDeleted:
		return 3
	}
	return 0
}

func kindFromCode(c byte) (Kind, bool) {
	switch c {
	case 1:
		return KindCreated, true
	case 2:
		return KindUpdated, true
	case 3:
		return KindDeleted, true
	}
	return "", false
}

// Record encoding: varint headerLen | header | payload | crc32c(header|payload)
//
// The header is fixed-size: occurred-at ms (be8) | kind code (1) | entity id (be8).

const headerLen = 8 + 1 + 8

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

func encodeHeader(occurredAtMs int64, kind Kind, entityID uint64) []byte {
	h := make([]byte, headerLen)
	binary.BigEndian.PutUint64(h[0:8], uint64(occurredAtMs))
	h[8] = kind.code()
	binary.BigEndian.PutUint64(h[9:17], entityID)
	return h
}

// EncodeRecord frames a header and payload with a length prefix and checksum.
func EncodeRecord(header, payload []byte) []byte {
	out := make([]byte, 0, 10+len(header)+len(payload)+4)
	var tmp [10]byte
	n := binary.PutUvarint(tmp[:], uint64(len(header)))
	out = append(out, tmp[:n]...)
	out = append(out, header...)
	out = append(out, payload...)

	crc := crc32.Update(0, castagnoli, header)
	crc = crc32.Update(crc, castagnoli, payload)
	var crcb [4]byte
	binary.BigEndian.PutUint32(crcb[:], crc)
	out = append(out, crcb[:]...)
	return out
}

// Decoded is the result of decoding a stored record.
type Decoded struct {
	OccurredAtMs int64
	Kind         Kind
	EntityID     uint64
	Payload      []byte
}

// DecodeRecord parses a framed record, verifying its checksum. Returns false
// on any corruption.
func DecodeRecord(b []byte) (Decoded, bool) {
	if len(b) < 1+4 {
		return Decoded{}, false
	}
	hlen, n := binary.Uvarint(b)
	if n <= 0 || hlen != headerLen {
		return Decoded{}, false
	}
	if n+int(hlen)+4 > len(b) {
		return Decoded{}, false
	}
	header := b[n : n+int(hlen)]
	payload := b[n+int(hlen) : len(b)-4]
	expect := binary.BigEndian.Uint32(b[len(b)-4:])
	crc := crc32.Update(0, castagnoli, header)
	crc = crc32.Update(crc, castagnoli, payload)
	if crc != expect {
		return Decoded{}, false
	}
	kind, ok := kindFromCode(header[8])
	if !ok {
		return Decoded{}, false
	}
	return Decoded{
		OccurredAtMs: int64(binary.BigEndian.Uint64(header[0:8])),
		Kind:         kind,
		EntityID:     binary.BigEndian.Uint64(header[9:17]),
		Payload:      append([]byte(nil), payload...),
	}, true
}
