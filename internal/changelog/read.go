package changelog

import (
	"encoding/json"
	"time"

	"github.com/cockroachdb/pebble"
)

// Paging bounds for List.
const (
	DefaultPageSize = 100
	MaxPageSize     = 500
)

// Change is one decoded change event.
type Change struct {
	ID         uint64          `json:"id"`
	EntityID   uint64          `json:"entity_id"`
	Kind       Kind            `json:"event"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// ListOptions selects a page of pending events.
type ListOptions struct {
	// Since reads events with id > Since. When nil, the confirmed checkpoint
	// is used, i.e. "everything I have not acked yet".
	Since *uint64
	// Limit caps the page size; clamped to [1, MaxLimit], default
	// DefaultLimit when zero.
	Limit int
	// DefaultLimit and MaxLimit override the package paging constants when
	// positive. Feed owners set them from configuration.
	DefaultLimit int
	MaxLimit     int
}

// Page is one page of the change feed.
type Page struct {
	// LastConfirmedID is the current checkpoint, informational.
	LastConfirmedID uint64 `json:"last_confirmed_id"`
	// CheckpointID is the id of the last event in this page; for an empty
	// page it equals the effective since, so acking it is always valid.
	CheckpointID uint64 `json:"checkpoint_id"`
	// HasMore reports whether events beyond this page exist.
	HasMore bool `json:"has_more"`
	// Changes is the page of events in ascending id order.
	Changes []Change `json:"changes"`
}

// List returns a page of events after the given position. It is a pure read:
// repeated calls with the same options return identical pages until new
// mutations occur or confirmed events are purged. There is no supported path
// to re-read history behind the confirmed checkpoint; a purge may already
// have removed it.
func (l *Log) List(opts ListOptions) (Page, error) {
	def := opts.DefaultLimit
	if def <= 0 {
		def = DefaultPageSize
	}
	max := opts.MaxLimit
	if max <= 0 {
		max = MaxPageSize
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}

	ckpt, err := l.Checkpoint()
	if err != nil {
		return Page{}, err
	}
	since := ckpt.LastConfirmedID
	if opts.Since != nil {
		since = *opts.Since
	}

	low, high := entryBounds(l.class, since)
	iter, err := l.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: high})
	if err != nil {
		return Page{}, storageErr("list", err)
	}
	defer iter.Close()

	// Over-fetch one row to detect has_more without a second query.
	changes := make([]Change, 0, limit)
	hasMore := false
	for ok := iter.First(); ok; ok = iter.Next() {
		if len(changes) == limit {
			hasMore = true
			break
		}
		dec, okDec := DecodeRecord(iter.Value())
		if !okDec {
			return Page{}, storageErr("list", corruptError("corrupt change record"))
		}
		changes = append(changes, Change{
			ID:         entryID(iter.Key()),
			EntityID:   dec.EntityID,
			Kind:       dec.Kind,
			OccurredAt: time.UnixMilli(dec.OccurredAtMs),
			Payload:    dec.Payload,
		})
	}

	checkpointID := since
	if len(changes) > 0 {
		checkpointID = changes[len(changes)-1].ID
	}
	return Page{
		LastConfirmedID: ckpt.LastConfirmedID,
		CheckpointID:    checkpointID,
		HasMore:         hasMore,
		Changes:         changes,
	}, nil
}
