package changelog

import (
	"context"
)

// AckOptions tunes checkpoint confirmation.
type AckOptions struct {
	// KeepEvents leaves confirmed events in the log instead of purging them.
	// The billing transaction feed uses this: its window advances but events
	// are retained for later trimming.
	KeepEvents bool
}

// Ack validates and commits the consumer's confirmation of processed events.
//
// Rules:
//   - a checkpoint below the last confirmed one is rejected;
//   - re-acking the current checkpoint is an idempotent no-op;
//   - a checkpoint above the highest stored event id is rejected;
//   - otherwise the checkpoint advance and the purge of events with
//     id <= checkpointID commit in one batch: a retried or concurrent call
//     can never observe the purge without the advance.
func (l *Log) Ack(ctx context.Context, checkpointID uint64, opts AckOptions) (Checkpoint, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cur, err := l.validateLocked(checkpointID)
	if err != nil {
		return Checkpoint{}, err
	}
	if checkpointID == cur.LastConfirmedID {
		// Idempotent re-ack: nothing deleted, nothing advanced.
		return cur, nil
	}

	next := Checkpoint{LastConfirmedID: checkpointID, UpdatedAt: Now()}
	b := l.db.NewBatch()
	defer b.Close()
	if err := b.Set(KeyCheckpoint(l.class), encodeCheckpoint(next), nil); err != nil {
		return Checkpoint{}, storageErr("ack", err)
	}
	if !opts.KeepEvents {
		low, _ := entryBounds(l.class, 0)
		if err := b.DeleteRange(low, KeyEntry(l.class, checkpointID+1), nil); err != nil {
			return Checkpoint{}, storageErr("ack", err)
		}
	}
	if err := l.db.CommitBatch(ctx, b); err != nil {
		return Checkpoint{}, storageErr("commit ack", err)
	}
	return next, nil
}

// ValidateCheckpoint applies Ack's rejection rules without committing
// anything. Callers coordinating acks across several feeds use it to reject
// a combined request wholesale before any log mutates.
func (l *Log) ValidateCheckpoint(checkpointID uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.validateLocked(checkpointID)
	return err
}

// validateLocked checks checkpointID against the current checkpoint and the
// highest stored event id. Caller holds l.mu.
func (l *Log) validateLocked(checkpointID uint64) (Checkpoint, error) {
	cur, err := l.Checkpoint()
	if err != nil {
		return Checkpoint{}, err
	}
	if checkpointID < cur.LastConfirmedID {
		return Checkpoint{}, &InvalidCheckpointError{CheckpointID: checkpointID, Reason: ReasonBelowConfirmed}
	}
	if checkpointID == cur.LastConfirmedID {
		return cur, nil
	}
	maxID, err := l.MaxID()
	if err != nil {
		return Checkpoint{}, err
	}
	if checkpointID > maxID {
		return Checkpoint{}, &InvalidCheckpointError{CheckpointID: checkpointID, Reason: ReasonNotFound}
	}
	return cur, nil
}

// TrimBefore deletes retained events with id <= the confirmed checkpoint.
// Maintenance for KeepEvents feeds; idempotent. Returns the exclusive upper
// bound that was applied.
func (l *Log) TrimBefore(ctx context.Context) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cur, err := l.Checkpoint()
	if err != nil {
		return 0, err
	}
	if cur.LastConfirmedID == 0 {
		return 0, nil
	}
	low, _ := entryBounds(l.class, 0)
	if err := l.db.DeleteRange(low, KeyEntry(l.class, cur.LastConfirmedID+1)); err != nil {
		return 0, storageErr("trim", err)
	}
	return cur.LastConfirmedID, nil
}
