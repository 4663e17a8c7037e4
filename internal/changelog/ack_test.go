package changelog

import (
	"context"
	"errors"
	"testing"
)

func TestAckAdvancesAndPurges(t *testing.T) {
	l := newTestLog(t)
	appendN(t, l, 5)
	ctx := context.Background()

	ckpt, err := l.Ack(ctx, 3, AckOptions{})
	if err != nil {
		t.Fatalf("ack: %v", err)
	}
	if ckpt.LastConfirmedID != 3 {
		t.Fatalf("confirmed: want 3, got %d", ckpt.LastConfirmedID)
	}
	if ckpt.UpdatedAt.IsZero() {
		t.Fatalf("updated_at not set")
	}

	page, err := l.List(ListOptions{Since: uptr(0)})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := ids(page.Changes); len(got) != 2 || got[0] != 4 || got[1] != 5 {
		t.Fatalf("surviving ids after ack(3): %v", got)
	}
}

func TestAckIdempotentReack(t *testing.T) {
	l := newTestLog(t)
	appendN(t, l, 4)
	ctx := context.Background()
	if _, err := l.Ack(ctx, 2, AckOptions{}); err != nil {
		t.Fatalf("ack: %v", err)
	}
	before, err := l.List(ListOptions{Since: uptr(0)})
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	ckpt, err := l.Ack(ctx, 2, AckOptions{})
	if err != nil {
		t.Fatalf("re-ack: %v", err)
	}
	if ckpt.LastConfirmedID != 2 {
		t.Fatalf("re-ack confirmed: want 2, got %d", ckpt.LastConfirmedID)
	}

	after, err := l.List(ListOptions{Since: uptr(0)})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(after.Changes) != len(before.Changes) {
		t.Fatalf("re-ack mutated the log: %d -> %d events", len(before.Changes), len(after.Changes))
	}
}

func TestAckBelowConfirmedRejected(t *testing.T) {
	l := newTestLog(t)
	appendN(t, l, 5)
	ctx := context.Background()
	if _, err := l.Ack(ctx, 4, AckOptions{}); err != nil {
		t.Fatalf("ack: %v", err)
	}

	_, err := l.Ack(ctx, 2, AckOptions{})
	var ice *InvalidCheckpointError
	if !errors.As(err, &ice) {
		t.Fatalf("want InvalidCheckpointError, got %v", err)
	}
	if ice.Reason != ReasonBelowConfirmed {
		t.Fatalf("reason: %q", ice.Reason)
	}
	// state unchanged
	ckpt, err := l.Checkpoint()
	if err != nil {
		t.Fatalf("checkpoint: %v", err)
	}
	if ckpt.LastConfirmedID != 4 {
		t.Fatalf("checkpoint moved: %d", ckpt.LastConfirmedID)
	}
}

func TestAckBeyondMaxRejected(t *testing.T) {
	l := newTestLog(t)
	appendN(t, l, 3)
	ctx := context.Background()

	_, err := l.Ack(ctx, 5, AckOptions{})
	var ice *InvalidCheckpointError
	if !errors.As(err, &ice) {
		t.Fatalf("want InvalidCheckpointError, got %v", err)
	}
	if ice.Reason != ReasonNotFound {
		t.Fatalf("reason: %q", ice.Reason)
	}
	ckpt, err := l.Checkpoint()
	if err != nil {
		t.Fatalf("checkpoint: %v", err)
	}
	if ckpt.LastConfirmedID != 0 {
		t.Fatalf("checkpoint moved on rejected ack: %d", ckpt.LastConfirmedID)
	}
	maxID, err := l.MaxID()
	if err != nil {
		t.Fatalf("max id: %v", err)
	}
	if maxID != 3 {
		t.Fatalf("events purged on rejected ack: max %d", maxID)
	}
}

func TestAckZeroOnEmptyLogIsNoop(t *testing.T) {
	l := newTestLog(t)
	ckpt, err := l.Ack(context.Background(), 0, AckOptions{})
	if err != nil {
		t.Fatalf("ack(0): %v", err)
	}
	if ckpt.LastConfirmedID != 0 {
		t.Fatalf("want 0, got %d", ckpt.LastConfirmedID)
	}
}

func TestAckKeepEventsRetainsLog(t *testing.T) {
	l := newTestLog(t)
	appendN(t, l, 4)
	ctx := context.Background()
	if _, err := l.Ack(ctx, 3, AckOptions{KeepEvents: true}); err != nil {
		t.Fatalf("ack: %v", err)
	}
	page, err := l.List(ListOptions{Since: uptr(0)})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Changes) != 4 {
		t.Fatalf("keep-events ack purged the log: %d events left", len(page.Changes))
	}
	if page.LastConfirmedID != 3 {
		t.Fatalf("checkpoint: want 3, got %d", page.LastConfirmedID)
	}
}

func TestTrimBeforeDropsConfirmedPrefix(t *testing.T) {
	l := newTestLog(t)
	appendN(t, l, 4)
	ctx := context.Background()
	if _, err := l.Ack(ctx, 3, AckOptions{KeepEvents: true}); err != nil {
		t.Fatalf("ack: %v", err)
	}
	upTo, err := l.TrimBefore(ctx)
	if err != nil {
		t.Fatalf("trim: %v", err)
	}
	if upTo != 3 {
		t.Fatalf("trim bound: want 3, got %d", upTo)
	}
	page, err := l.List(ListOptions{Since: uptr(0)})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := ids(page.Changes); len(got) != 1 || got[0] != 4 {
		t.Fatalf("surviving ids after trim: %v", got)
	}
	// trimming again is a no-op
	if _, err := l.TrimBefore(ctx); err != nil {
		t.Fatalf("second trim: %v", err)
	}
}

func TestCheckpointPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	db := mustOpenDB(t, dir)
	l, err := OpenLog(db, "movements")
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	appendN(t, l, 3)
	if _, err := l.Ack(context.Background(), 2, AckOptions{}); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db2 := mustOpenDB(t, dir)
	t.Cleanup(func() { _ = db2.Close() })
	l2, err := OpenLog(db2, "movements")
	if err != nil {
		t.Fatalf("reopen log: %v", err)
	}
	ckpt, err := l2.Checkpoint()
	if err != nil {
		t.Fatalf("checkpoint: %v", err)
	}
	if ckpt.LastConfirmedID != 2 {
		t.Fatalf("checkpoint after reopen: want 2, got %d", ckpt.LastConfirmedID)
	}
}
