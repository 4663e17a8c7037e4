package changelog

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	pebblestore "github.com/tallyhq/tally/internal/storage/pebble"
)

// Now returns the current time; overridable in tests.
var Now = time.Now

// Log is the append-only change ledger for one entity class.
type Log struct {
	db    *pebblestore.DB
	class string

	// mu serializes appends and acks so id assignment is gap-free and the
	// ack validation never runs against stale checkpoint state. Reads take
	// no lock.
	mu     sync.Mutex
	lastID uint64
}

// OpenLog initializes a Log and loads the last assigned id from metadata (if any).
func OpenLog(db *pebblestore.DB, class string) (*Log, error) {
	if class == "" {
		return nil, errors.New("changelog: class is required")
	}
	l := &Log{db: db, class: class}
	meta, err := db.Get(KeyMeta(class))
	if err == nil && len(meta) >= 8 {
		l.lastID = binary.BigEndian.Uint64(meta[:8])
	} else if err != nil && !pebblestore.IsNotFound(err) {
		return nil, storageErr("load meta", err)
	}
	return l, nil
}

// Class returns the entity class this log tracks.
func (l *Log) Class() string { return l.class }

// Append assigns the next id and stores one change event. The mutate callback
// receives the same batch and adds the entity mutation the event records, so
// entity state and change feed commit together or not at all. mutate may be
// nil for events with no accompanying entity mutation.
//
// Assigned ids are gap-free: the cached last id only advances after a
// successful commit.
func (l *Log) Append(ctx context.Context, entityID uint64, kind Kind, payload []byte, mutate func(b *pebble.Batch) error) (Change, error) {
	if !kind.valid() {
		return Change{}, errors.New("changelog: invalid event kind")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.lastID + 1
	occurredAt := Now()

	b := l.db.NewBatch()
	defer b.Close()

	header := encodeHeader(occurredAt.UnixMilli(), kind, entityID)
	if err := b.Set(KeyEntry(l.class, id), EncodeRecord(header, payload), nil); err != nil {
		return Change{}, storageErr("append", err)
	}
	var meta [8]byte
	binary.BigEndian.PutUint64(meta[:], id)
	if err := b.Set(KeyMeta(l.class), meta[:], nil); err != nil {
		return Change{}, storageErr("append", err)
	}
	if mutate != nil {
		if err := mutate(b); err != nil {
			return Change{}, err
		}
	}
	if err := l.db.CommitBatch(ctx, b); err != nil {
		return Change{}, storageErr("commit append", err)
	}
	l.lastID = id

	return Change{
		ID:         id,
		EntityID:   entityID,
		Kind:       kind,
		OccurredAt: occurredAt,
		Payload:    append([]byte(nil), payload...),
	}, nil
}

// LastID returns the highest id ever assigned (survives purges).
func (l *Log) LastID() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastID
}

// MaxID returns the highest stored event id, or 0 if the log is empty. Purged
// events do not count; MaxID bounds the checkpoints a consumer may ack.
func (l *Log) MaxID() (uint64, error) {
	low, high := entryBounds(l.class, 0)
	iter, err := l.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: high})
	if err != nil {
		return 0, storageErr("max id", err)
	}
	defer iter.Close()
	if !iter.Last() {
		return 0, nil
	}
	return entryID(iter.Key()), nil
}
