package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tallyhq/tally/internal/changelog"
	"github.com/tallyhq/tally/internal/config"
	"github.com/tallyhq/tally/internal/exportables"
	"github.com/tallyhq/tally/internal/ledger"
	pebblestore "github.com/tallyhq/tally/internal/storage/pebble"
)

// Class is the change-log entity class for billing transaction events.
const Class = "billing_transactions"

// TransactionEvent is one entry of the authoritative billing feed. For
// deletions Transaction is null and TransactionID identifies the removed
// entity.
type TransactionEvent struct {
	ID            uint64              `json:"id"`
	Event         changelog.Kind      `json:"event"`
	OccurredAt    time.Time           `json:"occurred_at"`
	Transaction   *ledger.Transaction `json:"transaction"`
	TransactionID uint64              `json:"transaction_id"`
}

// Movements is the combined billing sync response. TransactionEvents is the
// replayable source; Transactions and ActiveTransactionsInBatch are
// projections of the same scan that never contain deletions.
type Movements struct {
	LastConfirmedID           uint64               `json:"last_confirmed_id"`
	CheckpointID              uint64               `json:"checkpoint_id"`
	HasMore                   bool                 `json:"has_more"`
	TransactionEvents         []TransactionEvent   `json:"transaction_events"`
	Transactions              []ledger.Transaction `json:"transactions"`
	ActiveTransactionsInBatch []ledger.Transaction `json:"active_transactions_in_batch"`

	Changes changelog.Page `json:"changes"`
}

// AckResult reports the advanced checkpoints.
type AckResult struct {
	LastMovementID uint64     `json:"last_movement_id"`
	LastChangeID   *uint64    `json:"last_change_id,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
	ChangesAckedAt *time.Time `json:"changes_acked_at,omitempty"`
}

// Service reads the billing feed and coordinates its acks with the
// exportable-movement feed.
type Service struct {
	log       *changelog.Log
	movements *exportables.Store
	feed      config.ChangeFeed
}

// Open initializes the service, opening the billing event log. feed sets the
// paging bounds of Movements; zero values fall back to the changelog defaults.
func Open(db *pebblestore.DB, movements *exportables.Store, feed config.ChangeFeed) (*Service, error) {
	log, err := changelog.OpenLog(db, Class)
	if err != nil {
		return nil, err
	}
	return &Service{log: log, movements: movements, feed: feed}, nil
}

// Log exposes the billing event log (the transaction store appends to it).
func (s *Service) Log() *changelog.Log { return s.log }

// MovementsOptions selects the windows of the combined response.
type MovementsOptions struct {
	Since        *uint64
	Limit        int
	ChangesSince *uint64
	ChangesLimit int
}

// Movements returns the pending billing transaction events together with the
// pending exportable-movement changes.
func (s *Service) Movements(opts MovementsOptions) (Movements, error) {
	page, err := s.log.List(changelog.ListOptions{
		Since:        opts.Since,
		Limit:        opts.Limit,
		DefaultLimit: s.feed.DefaultPageSize,
		MaxLimit:     s.feed.MaxPageSize,
	})
	if err != nil {
		return Movements{}, err
	}
	out := Movements{
		LastConfirmedID:           page.LastConfirmedID,
		CheckpointID:              page.CheckpointID,
		HasMore:                   page.HasMore,
		TransactionEvents:         make([]TransactionEvent, 0, len(page.Changes)),
		Transactions:              []ledger.Transaction{},
		ActiveTransactionsInBatch: []ledger.Transaction{},
	}

	// One pass over the batch builds all three views. latest tracks the most
	// recent state per transaction so the active view drops entities deleted
	// later in the same batch.
	latest := map[uint64]*ledger.Transaction{}
	order := []uint64{}
	for _, c := range page.Changes {
		ev := TransactionEvent{
			ID:            c.ID,
			Event:         c.Kind,
			OccurredAt:    c.OccurredAt,
			TransactionID: c.EntityID,
		}
		if c.Kind != changelog.KindDeleted {
			var tx ledger.Transaction
			if err := json.Unmarshal(c.Payload, &tx); err != nil {
				return Movements{}, fmt.Errorf("billing: decode event %d: %w", c.ID, err)
			}
			ev.Transaction = &tx
			out.Transactions = append(out.Transactions, tx)
			if _, seen := latest[c.EntityID]; !seen {
				order = append(order, c.EntityID)
			}
			latest[c.EntityID] = &tx
		} else {
			if _, seen := latest[c.EntityID]; !seen {
				order = append(order, c.EntityID)
			}
			latest[c.EntityID] = nil
		}
		out.TransactionEvents = append(out.TransactionEvents, ev)
	}
	for _, id := range order {
		if tx := latest[id]; tx != nil {
			out.ActiveTransactionsInBatch = append(out.ActiveTransactionsInBatch, *tx)
		}
	}

	changes, err := s.movements.ListChanges(opts.ChangesSince, opts.ChangesLimit, "")
	if err != nil {
		return Movements{}, err
	}
	out.Changes = changes
	return out, nil
}

// Ack confirms the billing window up to movementCheckpoint and, when
// changeCheckpoint is set, the exportable-movement feed as well. Billing
// events are retained after the ack (the window only advances); exportable
// events are purged.
func (s *Service) Ack(ctx context.Context, movementCheckpoint uint64, changeCheckpoint *uint64) (AckResult, error) {
	// Both checkpoints are validated before either log moves: a request
	// rejected for one feed must not advance the other.
	if changeCheckpoint != nil {
		if err := s.movements.Log().ValidateCheckpoint(*changeCheckpoint); err != nil {
			return AckResult{}, err
		}
	}
	ck, err := s.log.Ack(ctx, movementCheckpoint, changelog.AckOptions{KeepEvents: true})
	if err != nil {
		return AckResult{}, err
	}
	res := AckResult{LastMovementID: ck.LastConfirmedID, UpdatedAt: ck.UpdatedAt}
	if changeCheckpoint != nil {
		cck, err := s.movements.Ack(ctx, *changeCheckpoint)
		if err != nil {
			return AckResult{}, err
		}
		res.LastChangeID = &cck.LastConfirmedID
		at := cck.UpdatedAt
		res.ChangesAckedAt = &at
	}
	return res, nil
}

// Trim drops retained billing events at or below the confirmed checkpoint.
// Maintenance; safe to run at any time.
func (s *Service) Trim(ctx context.Context) (uint64, error) {
	return s.log.TrimBefore(ctx)
}
