package changelog

import (
	"encoding/binary"
	"time"

	pebblestore "github.com/tallyhq/tally/internal/storage/pebble"
)

// Checkpoint is the persisted confirmation state for one entity class: the
// highest event id the consumer has acknowledged. It starts at zero and only
// moves forward.
type Checkpoint struct {
	LastConfirmedID uint64
	UpdatedAt       time.Time
}

func encodeCheckpoint(c Checkpoint) []byte {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[0:8], c.LastConfirmedID)
	binary.BigEndian.PutUint64(b[8:16], uint64(c.UpdatedAt.UnixMilli()))
	return b
}

func decodeCheckpoint(b []byte) (Checkpoint, bool) {
	if len(b) < 16 {
		return Checkpoint{}, false
	}
	return Checkpoint{
		LastConfirmedID: binary.BigEndian.Uint64(b[0:8]),
		UpdatedAt:       time.UnixMilli(int64(binary.BigEndian.Uint64(b[8:16]))),
	}, true
}

// Checkpoint loads the current confirmation state. A class that was never
// acked reports a zero checkpoint.
func (l *Log) Checkpoint() (Checkpoint, error) {
	raw, err := l.db.Get(KeyCheckpoint(l.class))
	if err != nil {
		if pebblestore.IsNotFound(err) {
			return Checkpoint{}, nil
		}
		return Checkpoint{}, storageErr("load checkpoint", err)
	}
	c, ok := decodeCheckpoint(raw)
	if !ok {
		return Checkpoint{}, storageErr("load checkpoint", errCorruptCheckpoint)
	}
	return c, nil
}

var errCorruptCheckpoint = corruptError("corrupt checkpoint record")

type corruptError string

func (e corruptError) Error() string { return string(e) }
