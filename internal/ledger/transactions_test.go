package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/changelog"
	pebblestore "github.com/tallyhq/tally/internal/storage/pebble"
)

type fakeMovements map[uint64]string

func (f fakeMovements) MovementDescription(id uint64) (string, error) {
	desc, ok := f[id]
	if !ok {
		return "", &ValidationError{Msg: "movement not found"}
	}
	return desc, nil
}

type txFixture struct {
	db       *pebblestore.DB
	accounts *AccountStore
	log      *changelog.Log
	txs      *TransactionStore
	billing  Account
	cash     Account
}

func newTxFixture(t *testing.T, movements MovementLookup) *txFixture {
	t.Helper()
	db := newTestDB(t)
	accounts, err := OpenAccounts(db)
	if err != nil {
		t.Fatalf("open accounts: %v", err)
	}
	log, err := changelog.OpenLog(db, "billing_transactions")
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	txs, err := OpenTransactions(db, accounts, log, movements)
	if err != nil {
		t.Fatalf("open transactions: %v", err)
	}
	f := &txFixture{db: db, accounts: accounts, log: log, txs: txs}
	f.billing = mustCreateAccount(t, accounts, AccountParams{Name: "Billing", Currency: CurrencyARS, IsBilling: true})
	f.cash = mustCreateAccount(t, accounts, AccountParams{Name: "Cash", Currency: CurrencyARS})
	return f
}

func yesterday() Date {
	y, m, d := time.Now().AddDate(0, 0, -1).Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (f *txFixture) params(accountID uint64, amount int64) TransactionParams {
	return TransactionParams{
		Date:        yesterday(),
		Description: "groceries",
		Amount:      decimal.NewFromInt(amount),
		AccountID:   accountID,
	}
}

func TestTransactionCreate(t *testing.T) {
	f := newTxFixture(t, nil)
	tx, err := f.txs.Create(context.Background(), f.params(f.cash.ID, -50))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tx.ID != 1 {
		t.Fatalf("expected id 1, got %d", tx.ID)
	}
	got, err := f.txs.Get(tx.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Description != "groceries" || !got.Amount.Equal(decimal.NewFromInt(-50)) {
		t.Fatalf("unexpected transaction %+v", got)
	}
	// Cash account activity does not touch the billing feed.
	if max, _ := f.log.MaxID(); max != 0 {
		t.Fatalf("expected empty billing log, got max id %d", max)
	}
}

func TestTransactionValidation(t *testing.T) {
	f := newTxFixture(t, nil)
	ctx := context.Background()

	p := f.params(f.cash.ID, 10)
	p.Date = Date{time.Now().AddDate(0, 0, 2)}
	if _, err := f.txs.Create(ctx, p); !IsValidation(err) {
		t.Fatalf("future date: expected validation error, got %v", err)
	}

	p = f.params(f.cash.ID, 10)
	p.Amount = decimal.Zero
	if _, err := f.txs.Create(ctx, p); !IsValidation(err) {
		t.Fatalf("zero amount: expected validation error, got %v", err)
	}

	p = f.params(f.cash.ID, 10)
	p.Description = ""
	if _, err := f.txs.Create(ctx, p); !IsValidation(err) {
		t.Fatalf("empty description: expected validation error, got %v", err)
	}
}

func TestExportableLinkOnlyOnBillingAccount(t *testing.T) {
	movements := fakeMovements{7: "invoice 0001"}
	f := newTxFixture(t, movements)
	ctx := context.Background()

	p := f.params(f.cash.ID, 10)
	p.ExportableMovementID = 7
	if _, err := f.txs.Create(ctx, p); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	p = f.params(f.billing.ID, 10)
	p.ExportableMovementID = 7
	tx, err := f.txs.Create(ctx, p)
	if err != nil {
		t.Fatalf("create linked: %v", err)
	}
	if tx.Description != "invoice 0001" {
		t.Fatalf("description should mirror the movement, got %q", tx.Description)
	}
}

func TestBillingTransactionsFeedEvents(t *testing.T) {
	f := newTxFixture(t, nil)
	ctx := context.Background()

	tx, err := f.txs.Create(ctx, f.params(f.billing.ID, 100))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	p := f.params(f.billing.ID, 120)
	if _, err := f.txs.Update(ctx, tx.ID, p); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := f.txs.Delete(ctx, tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	page, err := f.log.List(changelog.ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Changes) != 3 {
		t.Fatalf("expected 3 events, got %d", len(page.Changes))
	}
	kinds := []changelog.Kind{changelog.KindCreated, changelog.KindUpdated, changelog.KindDeleted}
	for i, want := range kinds {
		if page.Changes[i].Kind != want {
			t.Fatalf("event %d: expected %s, got %s", i, want, page.Changes[i].Kind)
		}
		if page.Changes[i].EntityID != tx.ID {
			t.Fatalf("event %d: entity %d", i, page.Changes[i].EntityID)
		}
	}
	if len(page.Changes[2].Payload) != 0 {
		t.Fatalf("deleted event should carry no payload")
	}
	if _, err := f.txs.Get(tx.ID); err == nil {
		t.Fatalf("transaction should be gone")
	}
}

func TestMovingTransactionOffBillingRecordsDeletion(t *testing.T) {
	f := newTxFixture(t, nil)
	ctx := context.Background()

	tx, err := f.txs.Create(ctx, f.params(f.billing.ID, 100))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.txs.Update(ctx, tx.ID, f.params(f.cash.ID, 100)); err != nil {
		t.Fatalf("update: %v", err)
	}

	page, err := f.log.List(changelog.ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Changes) != 2 {
		t.Fatalf("expected 2 events, got %d", len(page.Changes))
	}
	if page.Changes[1].Kind != changelog.KindDeleted {
		t.Fatalf("expected deleted event, got %s", page.Changes[1].Kind)
	}
	got, err := f.txs.Get(tx.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.AccountID != f.cash.ID {
		t.Fatalf("transaction should live on the cash account")
	}
}

func TestTransactionListNewestFirst(t *testing.T) {
	f := newTxFixture(t, nil)
	ctx := context.Background()

	old := f.params(f.cash.ID, 10)
	old.Date = Date{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	if _, err := f.txs.Create(ctx, old); err != nil {
		t.Fatalf("create: %v", err)
	}
	recent := f.params(f.cash.ID, 20)
	if _, err := f.txs.Create(ctx, recent); err != nil {
		t.Fatalf("create: %v", err)
	}

	list, err := f.txs.List(0, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2, got %d", len(list))
	}
	if !list[0].Date.After(list[1].Date.Time) {
		t.Fatalf("expected newest first")
	}

	page, err := f.txs.List(0, 1, 1)
	if err != nil {
		t.Fatalf("list paged: %v", err)
	}
	if len(page) != 1 || !page[0].Date.Equal(old.Date.Time) {
		t.Fatalf("expected the older transaction on the second page")
	}
}

func TestUpdateWithoutBillingLog(t *testing.T) {
	db := newTestDB(t)
	accounts, err := OpenAccounts(db)
	if err != nil {
		t.Fatalf("open accounts: %v", err)
	}
	txs, err := OpenTransactions(db, accounts, nil, nil)
	if err != nil {
		t.Fatalf("open transactions: %v", err)
	}
	billing := mustCreateAccount(t, accounts, AccountParams{Name: "Billing", Currency: CurrencyARS, IsBilling: true})
	cash := mustCreateAccount(t, accounts, AccountParams{Name: "Cash", Currency: CurrencyARS})

	ctx := context.Background()
	tx, err := txs.Create(ctx, TransactionParams{
		Date: yesterday(), Description: "moved", Amount: decimal.NewFromInt(30), AccountID: billing.ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Moving off the billing account must be a plain update when no billing
	// log is wired.
	updated, err := txs.Update(ctx, tx.ID, TransactionParams{
		Date: yesterday(), Description: "moved", Amount: decimal.NewFromInt(30), AccountID: cash.ID,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.AccountID != cash.ID {
		t.Fatalf("account %d", updated.AccountID)
	}
}
