package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/cockroachdb/pebble"

	pebblestore "github.com/tallyhq/tally/internal/storage/pebble"
)

const freqKind = "f"

// FrequentStore persists recurring-transaction templates.
type FrequentStore struct {
	db *pebblestore.DB

	mu     sync.Mutex
	lastID uint64
}

// OpenFrequents initializes a FrequentStore and loads the id counter.
func OpenFrequents(db *pebblestore.DB) (*FrequentStore, error) {
	s := &FrequentStore{db: db}
	last, err := loadSeq(db, freqKind)
	if err != nil {
		return nil, err
	}
	s.lastID = last
	return s, nil
}

// Create stores a new template.
func (s *FrequentStore) Create(ctx context.Context, description string) (FrequentTransaction, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return FrequentTransaction{}, &ValidationError{Msg: "description is required"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.lastID + 1
	ft := FrequentTransaction{ID: id, Description: description, CreatedAtMs: Now().UnixMilli()}
	b := s.db.NewBatch()
	defer b.Close()
	if err := putJSON(b, keyEntry(freqKind, id), ft, "frequent"); err != nil {
		return FrequentTransaction{}, err
	}
	if err := b.Set(keyMeta(freqKind), be8(id), nil); err != nil {
		return FrequentTransaction{}, fmt.Errorf("ledger: store meta: %w", err)
	}
	if err := s.db.CommitBatch(ctx, b); err != nil {
		return FrequentTransaction{}, fmt.Errorf("ledger: commit frequent: %w", err)
	}
	s.lastID = id
	return ft, nil
}

// Delete removes a template.
func (s *FrequentStore) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Get(keyEntry(freqKind, id)); err != nil {
		if pebblestore.IsNotFound(err) {
			return fmt.Errorf("frequent %d: %w", id, ErrNotFound)
		}
		return fmt.Errorf("ledger: get frequent: %w", err)
	}
	if err := s.db.Delete(keyEntry(freqKind, id)); err != nil {
		return fmt.Errorf("ledger: delete frequent: %w", err)
	}
	return nil
}

// List returns templates in id order.
func (s *FrequentStore) List() ([]FrequentTransaction, error) {
	low, high := entryBounds(freqKind)
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: high})
	if err != nil {
		return nil, fmt.Errorf("ledger: list frequents: %w", err)
	}
	defer iter.Close()

	var out []FrequentTransaction
	for iter.First(); iter.Valid(); iter.Next() {
		var ft FrequentTransaction
		if err := json.Unmarshal(iter.Value(), &ft); err != nil {
			return nil, fmt.Errorf("ledger: decode frequent %d: %w", entryID(iter.Key()), err)
		}
		out = append(out, ft)
	}
	return out, iter.Error()
}
