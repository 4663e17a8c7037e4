package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/shopspring/decimal"

	pebblestore "github.com/tallyhq/tally/internal/storage/pebble"
)

const invKind = "i"

var hundred = decimal.NewFromInt(100)

// ComputeIva returns amount * ivaPercent/100 rounded to cents.
func ComputeIva(amount, ivaPercent decimal.Decimal) decimal.Decimal {
	return amount.Mul(ivaPercent).Div(hundred).Round(2)
}

// ComputeIibb returns the gross-income tax for an invoice: sales pay
// (amount + iva) * iibbPercent/100 rounded to cents, purchases pay nothing.
func ComputeIibb(amount, ivaAmount, iibbPercent decimal.Decimal, typ InvoiceType) decimal.Decimal {
	if typ != InvoiceSale {
		return decimal.Zero
	}
	return amount.Add(ivaAmount).Mul(iibbPercent).Div(hundred).Round(2)
}

// InvoiceStore persists purchase and sale invoices.
type InvoiceStore struct {
	db       *pebblestore.DB
	accounts *AccountStore

	mu     sync.Mutex
	lastID uint64
}

// OpenInvoices initializes an InvoiceStore and loads the id counter.
func OpenInvoices(db *pebblestore.DB, accounts *AccountStore) (*InvoiceStore, error) {
	s := &InvoiceStore{db: db, accounts: accounts}
	last, err := loadSeq(db, invKind)
	if err != nil {
		return nil, err
	}
	s.lastID = last
	return s, nil
}

// InvoiceParams carries the mutable fields of an invoice. Tax amounts are
// derived, never supplied.
type InvoiceParams struct {
	Date        Date
	Description string
	Number      string
	Amount      decimal.Decimal
	IvaPercent  decimal.Decimal
	IibbPercent decimal.Decimal
	Type        InvoiceType
	AccountID   uint64
}

func (s *InvoiceStore) validate(p *InvoiceParams) error {
	if p.Date.IsZero() {
		return &ValidationError{Msg: "invoice date is required"}
	}
	if p.Date.InFuture() {
		return &ValidationError{Msg: "invoice date cannot be in the future"}
	}
	if p.Amount.IsZero() {
		return &ValidationError{Msg: "invoice amount cannot be zero"}
	}
	if _, err := ParseInvoiceType(string(p.Type)); err != nil {
		return err
	}
	if p.Description == "" {
		return &ValidationError{Msg: "invoice description is required"}
	}
	if _, err := s.accounts.Get(p.AccountID); err != nil {
		return err
	}
	return nil
}

func (p InvoiceParams) build(id uint64, createdAtMs int64) Invoice {
	iva := ComputeIva(p.Amount, p.IvaPercent)
	iibbPercent := p.IibbPercent
	if p.Type != InvoiceSale {
		// Purchases carry no gross-income tax; the stored percent is zeroed
		// with the amount.
		iibbPercent = decimal.Zero
	}
	return Invoice{
		ID:          id,
		Date:        p.Date,
		Description: p.Description,
		Number:      p.Number,
		Amount:      p.Amount,
		IvaPercent:  p.IvaPercent,
		IvaAmount:   iva,
		IibbPercent: iibbPercent,
		IibbAmount:  ComputeIibb(p.Amount, iva, iibbPercent, p.Type),
		Type:        p.Type,
		AccountID:   p.AccountID,
		CreatedAtMs: createdAtMs,
	}
}

// Create stores a new invoice with derived tax amounts.
func (s *InvoiceStore) Create(ctx context.Context, p InvoiceParams) (Invoice, error) {
	if err := s.validate(&p); err != nil {
		return Invoice{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.lastID + 1
	inv := p.build(id, Now().UnixMilli())
	b := s.db.NewBatch()
	defer b.Close()
	if err := putJSON(b, keyEntry(invKind, id), inv, "invoice"); err != nil {
		return Invoice{}, err
	}
	if err := b.Set(keyMeta(invKind), be8(id), nil); err != nil {
		return Invoice{}, fmt.Errorf("ledger: store meta: %w", err)
	}
	if err := s.db.CommitBatch(ctx, b); err != nil {
		return Invoice{}, fmt.Errorf("ledger: commit invoice: %w", err)
	}
	s.lastID = id
	return inv, nil
}

// Update rewrites an invoice, recomputing taxes.
func (s *InvoiceStore) Update(ctx context.Context, id uint64, p InvoiceParams) (Invoice, error) {
	if err := s.validate(&p); err != nil {
		return Invoice{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, err := s.Get(id)
	if err != nil {
		return Invoice{}, err
	}
	inv := p.build(id, prev.CreatedAtMs)
	v, err := json.Marshal(inv)
	if err != nil {
		return Invoice{}, fmt.Errorf("ledger: encode invoice: %w", err)
	}
	if err := s.db.Set(keyEntry(invKind, id), v); err != nil {
		return Invoice{}, fmt.Errorf("ledger: store invoice: %w", err)
	}
	return inv, nil
}

// Delete removes an invoice.
func (s *InvoiceStore) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.Get(id); err != nil {
		return err
	}
	if err := s.db.Delete(keyEntry(invKind, id)); err != nil {
		return fmt.Errorf("ledger: delete invoice: %w", err)
	}
	return nil
}

// Get returns the invoice with the given id.
func (s *InvoiceStore) Get(id uint64) (Invoice, error) {
	v, err := s.db.Get(keyEntry(invKind, id))
	if err != nil {
		if pebblestore.IsNotFound(err) {
			return Invoice{}, fmt.Errorf("invoice %d: %w", id, ErrNotFound)
		}
		return Invoice{}, fmt.Errorf("ledger: get invoice: %w", err)
	}
	var inv Invoice
	if err := json.Unmarshal(v, &inv); err != nil {
		return Invoice{}, fmt.Errorf("ledger: decode invoice %d: %w", id, err)
	}
	return inv, nil
}

// List returns invoices newest first (date, then id). accountID filters to
// one account when nonzero.
func (s *InvoiceStore) List(accountID uint64) ([]Invoice, error) {
	low, high := entryBounds(invKind)
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: high})
	if err != nil {
		return nil, fmt.Errorf("ledger: list invoices: %w", err)
	}
	defer iter.Close()

	var out []Invoice
	for iter.First(); iter.Valid(); iter.Next() {
		var inv Invoice
		if err := json.Unmarshal(iter.Value(), &inv); err != nil {
			return nil, fmt.Errorf("ledger: decode invoice %d: %w", entryID(iter.Key()), err)
		}
		if accountID != 0 && inv.AccountID != accountID {
			continue
		}
		out = append(out, inv)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func putJSON(b *pebble.Batch, key []byte, v any, what string) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("ledger: encode %s: %w", what, err)
	}
	if err := b.Set(key, raw, nil); err != nil {
		return fmt.Errorf("ledger: store %s: %w", what, err)
	}
	return nil
}
