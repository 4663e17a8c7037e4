package runtime

import (
	"context"
	"testing"

	"github.com/tallyhq/tally/internal/billing"
	cfgpkg "github.com/tallyhq/tally/internal/config"
	"github.com/tallyhq/tally/internal/ledger"
	pebblestore "github.com/tallyhq/tally/internal/storage/pebble"
)

func TestOpenCloseHealth(t *testing.T) {
	dir := t.TempDir()
	rt, err := Open(Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	defer rt.Close()
	if err := rt.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
}

func TestStoresAreWired(t *testing.T) {
	dir := t.TempDir()
	rt, err := Open(Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rt.Close()

	ctx := context.Background()
	if _, err := rt.Accounts().Create(ctx, ledger.AccountParams{Name: "Billing", Currency: ledger.CurrencyARS, IsBilling: true}); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if _, err := rt.Exportables().Create(ctx, "factura 0001"); err != nil {
		t.Fatalf("create movement: %v", err)
	}
	mv, err := rt.Billing().Movements(billing.MovementsOptions{})
	if err != nil {
		t.Fatalf("movements: %v", err)
	}
	if len(mv.Changes.Changes) != 1 {
		t.Fatalf("expected the movement change to surface, got %d", len(mv.Changes.Changes))
	}
	if rt.Inkwell() == nil {
		t.Fatalf("inkwell client should be wired")
	}
	if _, err := rt.Frequents().Create(ctx, "rent"); err != nil {
		t.Fatalf("create frequent: %v", err)
	}
}
