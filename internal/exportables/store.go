package exportables

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/tallyhq/tally/internal/changelog"
	"github.com/tallyhq/tally/internal/config"
	"github.com/tallyhq/tally/internal/ledger"
	pebblestore "github.com/tallyhq/tally/internal/storage/pebble"
)

// Class is the change-log entity class for exportable movements.
const Class = "exportable_movements"

// Movement is one exportable billing entry.
type Movement struct {
	ID          uint64 `json:"id"`
	Description string `json:"description"`
	CreatedAtMs int64  `json:"createdAtMs"`
}

// Keyspace: xm/m holds the last assigned id (be8), xm/e/{id_be8} one movement.
var (
	keyMovMeta  = []byte("xm/m")
	movEntrySeg = []byte("xm/e/")
)

func keyMovement(id uint64) []byte {
	k := make([]byte, 0, len(movEntrySeg)+8)
	k = append(k, movEntrySeg...)
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], id)
	return append(k, b[:]...)
}

// Store persists movements and records their mutations in the change log.
type Store struct {
	db   *pebblestore.DB
	log  *changelog.Log
	feed config.ChangeFeed

	mu     sync.Mutex
	lastID uint64
}

// Open initializes the store and its change log. feed sets the paging bounds
// of ListChanges; zero values fall back to the changelog defaults.
func Open(db *pebblestore.DB, feed config.ChangeFeed) (*Store, error) {
	log, err := changelog.OpenLog(db, Class)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, log: log, feed: feed}
	meta, err := db.Get(keyMovMeta)
	if err == nil && len(meta) >= 8 {
		s.lastID = binary.BigEndian.Uint64(meta[:8])
	} else if err != nil && !pebblestore.IsNotFound(err) {
		return nil, fmt.Errorf("exportables: load meta: %w", err)
	}
	return s, nil
}

// Log exposes the underlying change log (for the combined billing endpoint).
func (s *Store) Log() *changelog.Log { return s.log }

// createdPayload and friends shape the event payload per kind.
type createdPayload struct {
	ID          uint64 `json:"id"`
	Description string `json:"description"`
}

type updatedPayload struct {
	ID                  uint64 `json:"id"`
	Description         string `json:"description"`
	PreviousDescription string `json:"previous_description"`
}

type deletedPayload struct {
	ID          uint64 `json:"id"`
	Description string `json:"description"`
	Deleted     bool   `json:"deleted"`
}

// Create stores a movement and appends its created event in one batch.
func (s *Store) Create(ctx context.Context, description string) (Movement, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return Movement{}, &ledger.ValidationError{Msg: "movement description is required"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.lastID + 1
	m := Movement{ID: id, Description: description, CreatedAtMs: changelog.Now().UnixMilli()}
	payload, err := json.Marshal(createdPayload{ID: id, Description: description})
	if err != nil {
		return Movement{}, fmt.Errorf("exportables: encode payload: %w", err)
	}
	_, err = s.log.Append(ctx, id, changelog.KindCreated, payload, func(b *pebble.Batch) error {
		if err := s.putMovement(b, m); err != nil {
			return err
		}
		return b.Set(keyMovMeta, be8(id), nil)
	})
	if err != nil {
		return Movement{}, err
	}
	s.lastID = id
	return m, nil
}

// Update rewrites a movement's description, recording the previous one in the
// event payload so consumers can audit the delta.
func (s *Store) Update(ctx context.Context, id uint64, description string) (Movement, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return Movement{}, &ledger.ValidationError{Msg: "movement description is required"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, err := s.Get(id)
	if err != nil {
		return Movement{}, err
	}
	m := prev
	m.Description = description
	payload, err := json.Marshal(updatedPayload{ID: id, Description: description, PreviousDescription: prev.Description})
	if err != nil {
		return Movement{}, fmt.Errorf("exportables: encode payload: %w", err)
	}
	_, err = s.log.Append(ctx, id, changelog.KindUpdated, payload, func(b *pebble.Batch) error {
		return s.putMovement(b, m)
	})
	if err != nil {
		return Movement{}, err
	}
	return m, nil
}

// Delete removes a movement, leaving a deleted event carrying its last-known
// description.
func (s *Store) Delete(ctx context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, err := s.Get(id)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(deletedPayload{ID: id, Description: prev.Description, Deleted: true})
	if err != nil {
		return fmt.Errorf("exportables: encode payload: %w", err)
	}
	_, err = s.log.Append(ctx, id, changelog.KindDeleted, payload, func(b *pebble.Batch) error {
		return b.Delete(keyMovement(id), nil)
	})
	return err
}

// Get returns the movement with the given id.
func (s *Store) Get(id uint64) (Movement, error) {
	v, err := s.db.Get(keyMovement(id))
	if err != nil {
		if pebblestore.IsNotFound(err) {
			return Movement{}, fmt.Errorf("movement %d: %w", id, ledger.ErrNotFound)
		}
		return Movement{}, fmt.Errorf("exportables: get movement: %w", err)
	}
	var m Movement
	if err := json.Unmarshal(v, &m); err != nil {
		return Movement{}, fmt.Errorf("exportables: decode movement %d: %w", id, err)
	}
	return m, nil
}

// List returns movements in id order.
func (s *Store) List() ([]Movement, error) {
	low := keyMovement(0)
	high := append(keyMovement(^uint64(0)), 0x00)
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: high})
	if err != nil {
		return nil, fmt.Errorf("exportables: list movements: %w", err)
	}
	defer iter.Close()

	var out []Movement
	for iter.First(); iter.Valid(); iter.Next() {
		var m Movement
		if err := json.Unmarshal(iter.Value(), &m); err != nil {
			return nil, fmt.Errorf("exportables: decode movement: %w", err)
		}
		out = append(out, m)
	}
	return out, iter.Error()
}

// MovementDescription satisfies ledger.MovementLookup for linked transactions.
func (s *Store) MovementDescription(id uint64) (string, error) {
	m, err := s.Get(id)
	if err != nil {
		return "", err
	}
	return m.Description, nil
}

// ListChanges returns a page of pending movement events. filter is an
// optional CEL expression applied to the returned page only; paging and
// checkpoint fields are computed before filtering, so acking the returned
// checkpoint stays safe.
func (s *Store) ListChanges(since *uint64, limit int, filter string) (changelog.Page, error) {
	f, err := newCELFilter(filter)
	if err != nil {
		return changelog.Page{}, &ledger.ValidationError{Msg: fmt.Sprintf("invalid filter: %v", err)}
	}
	page, err := s.log.List(changelog.ListOptions{
		Since:        since,
		Limit:        limit,
		DefaultLimit: s.feed.DefaultPageSize,
		MaxLimit:     s.feed.MaxPageSize,
	})
	if err != nil {
		return changelog.Page{}, err
	}
	if f.enabled {
		kept := page.Changes[:0]
		for _, c := range page.Changes {
			if f.Eval(c) {
				kept = append(kept, c)
			}
		}
		page.Changes = kept
	}
	return page, nil
}

// Ack confirms processed events up to checkpointID and purges them.
func (s *Store) Ack(ctx context.Context, checkpointID uint64) (changelog.Checkpoint, error) {
	return s.log.Ack(ctx, checkpointID, changelog.AckOptions{})
}

func (s *Store) putMovement(b *pebble.Batch, m Movement) error {
	v, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("exportables: encode movement: %w", err)
	}
	if err := b.Set(keyMovement(m.ID), v, nil); err != nil {
		return fmt.Errorf("exportables: store movement: %w", err)
	}
	return nil
}

func be8(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}
