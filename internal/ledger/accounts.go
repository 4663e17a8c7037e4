package ledger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/shopspring/decimal"

	pebblestore "github.com/tallyhq/tally/internal/storage/pebble"
)

const acctKind = "a"

// AccountStore persists accounts with a unique-name index and an at-most-one
// billing account pointer.
type AccountStore struct {
	db *pebblestore.DB

	mu     sync.Mutex
	lastID uint64
}

// OpenAccounts initializes an AccountStore and loads the id counter.
func OpenAccounts(db *pebblestore.DB) (*AccountStore, error) {
	s := &AccountStore{db: db}
	last, err := loadSeq(db, acctKind)
	if err != nil {
		return nil, err
	}
	s.lastID = last
	return s, nil
}

// AccountParams carries the mutable fields of an account.
type AccountParams struct {
	Name           string
	OpeningBalance decimal.Decimal
	Currency       Currency
	Color          string
	IsBilling      bool

	// ReplaceBilling allows taking over the billing role from the account
	// currently holding it. Without it, marking a second account as billing
	// is rejected.
	ReplaceBilling bool
}

func (p *AccountParams) validate() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return &ValidationError{Msg: "account name is required"}
	}
	if _, err := ParseCurrency(string(p.Currency)); err != nil {
		return err
	}
	return nil
}

// Create stores a new active account.
func (s *AccountStore) Create(ctx context.Context, p AccountParams) (Account, error) {
	if err := p.validate(); err != nil {
		return Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Get(keyAccountName(p.Name)); err == nil {
		return Account{}, &ValidationError{Msg: fmt.Sprintf("account name %q already in use", p.Name)}
	} else if !pebblestore.IsNotFound(err) {
		return Account{}, fmt.Errorf("ledger: name lookup: %w", err)
	}

	id := s.lastID + 1
	acct := Account{
		ID:             id,
		Name:           p.Name,
		OpeningBalance: p.OpeningBalance,
		Currency:       p.Currency,
		Color:          p.Color,
		IsActive:       true,
		IsBilling:      p.IsBilling,
		CreatedAtMs:    Now().UnixMilli(),
	}

	b := s.db.NewBatch()
	defer b.Close()
	if acct.IsBilling {
		if err := s.claimBilling(b, id, p.ReplaceBilling); err != nil {
			return Account{}, err
		}
	}
	if err := s.putLocked(b, acct); err != nil {
		return Account{}, err
	}
	if err := b.Set(keyAccountName(acct.Name), be8(id), nil); err != nil {
		return Account{}, fmt.Errorf("ledger: index account: %w", err)
	}
	if err := b.Set(keyMeta(acctKind), be8(id), nil); err != nil {
		return Account{}, fmt.Errorf("ledger: store meta: %w", err)
	}
	if err := s.db.CommitBatch(ctx, b); err != nil {
		return Account{}, fmt.Errorf("ledger: commit account: %w", err)
	}
	s.lastID = id
	return acct, nil
}

// Update rewrites an existing account's fields.
func (s *AccountStore) Update(ctx context.Context, id uint64, p AccountParams) (Account, error) {
	if err := p.validate(); err != nil {
		return Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, err := s.Get(id)
	if err != nil {
		return Account{}, err
	}

	if p.Name != acct.Name {
		if _, err := s.db.Get(keyAccountName(p.Name)); err == nil {
			return Account{}, &ValidationError{Msg: fmt.Sprintf("account name %q already in use", p.Name)}
		} else if !pebblestore.IsNotFound(err) {
			return Account{}, fmt.Errorf("ledger: name lookup: %w", err)
		}
	}

	b := s.db.NewBatch()
	defer b.Close()
	if p.IsBilling && !acct.IsBilling {
		if err := s.claimBilling(b, id, p.ReplaceBilling); err != nil {
			return Account{}, err
		}
	}
	if !p.IsBilling && acct.IsBilling {
		if err := b.Delete(acctBilling, nil); err != nil {
			return Account{}, fmt.Errorf("ledger: clear billing: %w", err)
		}
	}
	if p.Name != acct.Name {
		if err := b.Delete(keyAccountName(acct.Name), nil); err != nil {
			return Account{}, fmt.Errorf("ledger: reindex account: %w", err)
		}
		if err := b.Set(keyAccountName(p.Name), be8(id), nil); err != nil {
			return Account{}, fmt.Errorf("ledger: reindex account: %w", err)
		}
	}

	acct.Name = p.Name
	acct.OpeningBalance = p.OpeningBalance
	acct.Currency = p.Currency
	acct.Color = p.Color
	acct.IsBilling = p.IsBilling
	if err := s.putLocked(b, acct); err != nil {
		return Account{}, err
	}
	if err := s.db.CommitBatch(ctx, b); err != nil {
		return Account{}, fmt.Errorf("ledger: commit account: %w", err)
	}
	return acct, nil
}

// Deactivate marks an account inactive. Historic transactions keep referring
// to it, so accounts are never hard-deleted.
func (s *AccountStore) Deactivate(ctx context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, err := s.Get(id)
	if err != nil {
		return err
	}
	acct.IsActive = false
	b := s.db.NewBatch()
	defer b.Close()
	if acct.IsBilling {
		acct.IsBilling = false
		if err := b.Delete(acctBilling, nil); err != nil {
			return fmt.Errorf("ledger: clear billing: %w", err)
		}
	}
	if err := s.putLocked(b, acct); err != nil {
		return err
	}
	if err := s.db.CommitBatch(ctx, b); err != nil {
		return fmt.Errorf("ledger: commit account: %w", err)
	}
	return nil
}

// Get returns the account with the given id.
func (s *AccountStore) Get(id uint64) (Account, error) {
	v, err := s.db.Get(keyEntry(acctKind, id))
	if err != nil {
		if pebblestore.IsNotFound(err) {
			return Account{}, fmt.Errorf("account %d: %w", id, ErrNotFound)
		}
		return Account{}, fmt.Errorf("ledger: get account: %w", err)
	}
	var acct Account
	if err := json.Unmarshal(v, &acct); err != nil {
		return Account{}, fmt.Errorf("ledger: decode account %d: %w", id, err)
	}
	return acct, nil
}

// List returns accounts in id order. Inactive accounts are included only when
// includeInactive is set.
func (s *AccountStore) List(includeInactive bool) ([]Account, error) {
	low, high := entryBounds(acctKind)
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: high})
	if err != nil {
		return nil, fmt.Errorf("ledger: list accounts: %w", err)
	}
	defer iter.Close()

	var out []Account
	for iter.First(); iter.Valid(); iter.Next() {
		var acct Account
		if err := json.Unmarshal(iter.Value(), &acct); err != nil {
			return nil, fmt.Errorf("ledger: decode account %d: %w", entryID(iter.Key()), err)
		}
		if !acct.IsActive && !includeInactive {
			continue
		}
		out = append(out, acct)
	}
	return out, iter.Error()
}

// Billing returns the current billing account, if one is configured.
func (s *AccountStore) Billing() (Account, bool, error) {
	v, err := s.db.Get(acctBilling)
	if err != nil {
		if pebblestore.IsNotFound(err) {
			return Account{}, false, nil
		}
		return Account{}, false, fmt.Errorf("ledger: billing lookup: %w", err)
	}
	acct, err := s.Get(binary.BigEndian.Uint64(v))
	if err != nil {
		return Account{}, false, err
	}
	return acct, true, nil
}

// claimBilling points the billing role at id, demoting the current holder
// when replace is set.
func (s *AccountStore) claimBilling(b *pebble.Batch, id uint64, replace bool) error {
	v, err := s.db.Get(acctBilling)
	if err != nil {
		if !pebblestore.IsNotFound(err) {
			return fmt.Errorf("ledger: billing lookup: %w", err)
		}
	} else {
		current := binary.BigEndian.Uint64(v)
		if current != id {
			if !replace {
				return &ValidationError{Msg: "another account is already the billing account"}
			}
			prev, err := s.Get(current)
			if err != nil {
				return err
			}
			prev.IsBilling = false
			if err := s.putLocked(b, prev); err != nil {
				return err
			}
		}
	}
	if err := b.Set(acctBilling, be8(id), nil); err != nil {
		return fmt.Errorf("ledger: set billing: %w", err)
	}
	return nil
}

func (s *AccountStore) putLocked(b *pebble.Batch, acct Account) error {
	v, err := json.Marshal(acct)
	if err != nil {
		return fmt.Errorf("ledger: encode account: %w", err)
	}
	if err := b.Set(keyEntry(acctKind, acct.ID), v, nil); err != nil {
		return fmt.Errorf("ledger: store account: %w", err)
	}
	return nil
}

func be8(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

// loadSeq reads the last assigned id for an entity kind, 0 when absent.
func loadSeq(db *pebblestore.DB, kind string) (uint64, error) {
	v, err := db.Get(keyMeta(kind))
	if err != nil {
		if pebblestore.IsNotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("ledger: load %s meta: %w", kind, err)
	}
	if len(v) < 8 {
		return 0, nil
	}
	return binary.BigEndian.Uint64(v[:8]), nil
}
