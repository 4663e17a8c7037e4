package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/changelog"
	pebblestore "github.com/tallyhq/tally/internal/storage/pebble"
)

const txKind = "t"

// MovementLookup resolves an exportable movement's description so linked
// transactions can mirror it.
type MovementLookup interface {
	MovementDescription(id uint64) (string, error)
}

// TransactionStore persists transactions. Mutations touching the billing
// account append a snapshot event to the billing change log in the same
// batch as the entity write.
type TransactionStore struct {
	db         *pebblestore.DB
	accounts   *AccountStore
	billingLog *changelog.Log
	movements  MovementLookup

	mu     sync.Mutex
	lastID uint64
}

// OpenTransactions initializes a TransactionStore and loads the id counter.
// movements may be nil when exportable links are not in use.
func OpenTransactions(db *pebblestore.DB, accounts *AccountStore, billingLog *changelog.Log, movements MovementLookup) (*TransactionStore, error) {
	s := &TransactionStore{db: db, accounts: accounts, billingLog: billingLog, movements: movements}
	last, err := loadSeq(db, txKind)
	if err != nil {
		return nil, err
	}
	s.lastID = last
	return s, nil
}

// TransactionParams carries the mutable fields of a transaction.
type TransactionParams struct {
	Date                 Date
	Description          string
	Amount               decimal.Decimal
	Notes                string
	AccountID            uint64
	ExportableMovementID uint64
}

// resolve validates params against the referenced account and, for linked
// transactions, copies the movement description. Returns the account.
func (s *TransactionStore) resolve(p *TransactionParams) (Account, error) {
	if p.Date.IsZero() {
		return Account{}, &ValidationError{Msg: "transaction date is required"}
	}
	if p.Date.InFuture() {
		return Account{}, &ValidationError{Msg: "transaction date cannot be in the future"}
	}
	if p.Amount.IsZero() {
		return Account{}, &ValidationError{Msg: "transaction amount cannot be zero"}
	}
	acct, err := s.accounts.Get(p.AccountID)
	if err != nil {
		return Account{}, err
	}
	if !acct.IsActive {
		return Account{}, &ValidationError{Msg: fmt.Sprintf("account %d is inactive", acct.ID)}
	}
	if p.ExportableMovementID != 0 {
		if !acct.IsBilling {
			return Account{}, &ValidationError{Msg: "exportable movements can only be linked on the billing account"}
		}
		if s.movements == nil {
			return Account{}, &ValidationError{Msg: "exportable movement links are not available"}
		}
		desc, err := s.movements.MovementDescription(p.ExportableMovementID)
		if err != nil {
			return Account{}, err
		}
		p.Description = desc
	}
	if p.Description == "" {
		return Account{}, &ValidationError{Msg: "transaction description is required"}
	}
	return acct, nil
}

// Create stores a new transaction.
func (s *TransactionStore) Create(ctx context.Context, p TransactionParams) (Transaction, error) {
	acct, err := s.resolve(&p)
	if err != nil {
		return Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.lastID + 1
	tx := Transaction{
		ID:                   id,
		Date:                 p.Date,
		Description:          p.Description,
		Amount:               p.Amount,
		Notes:                p.Notes,
		AccountID:            p.AccountID,
		ExportableMovementID: p.ExportableMovementID,
		CreatedAtMs:          Now().UnixMilli(),
	}
	if err := s.commit(ctx, tx, acct.IsBilling, changelog.KindCreated); err != nil {
		return Transaction{}, err
	}
	s.lastID = id
	return tx, nil
}

// Update rewrites an existing transaction. Moving a transaction onto or off
// the billing account is recorded in the billing feed as a create or delete
// respectively.
func (s *TransactionStore) Update(ctx context.Context, id uint64, p TransactionParams) (Transaction, error) {
	acct, err := s.resolve(&p)
	if err != nil {
		return Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, err := s.Get(id)
	if err != nil {
		return Transaction{}, err
	}
	prevAcct, err := s.accounts.Get(prev.AccountID)
	if err != nil {
		return Transaction{}, err
	}

	tx := Transaction{
		ID:                   id,
		Date:                 p.Date,
		Description:          p.Description,
		Amount:               p.Amount,
		Notes:                p.Notes,
		AccountID:            p.AccountID,
		ExportableMovementID: p.ExportableMovementID,
		CreatedAtMs:          prev.CreatedAtMs,
	}

	switch {
	case acct.IsBilling && prevAcct.IsBilling:
		err = s.commit(ctx, tx, true, changelog.KindUpdated)
	case acct.IsBilling:
		err = s.commit(ctx, tx, true, changelog.KindCreated)
	case prevAcct.IsBilling && s.billingLog != nil:
		// Left the billing account: the feed sees a deletion, the entity
		// write still happens in the same batch.
		_, err = s.billingLog.Append(ctx, id, changelog.KindDeleted, nil, func(b *pebble.Batch) error {
			return s.putTx(b, tx)
		})
	default:
		err = s.commit(ctx, tx, false, changelog.KindUpdated)
	}
	if err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// Delete removes a transaction. Billing-account transactions leave a deleted
// event in the billing feed.
func (s *TransactionStore) Delete(ctx context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.Get(id)
	if err != nil {
		return err
	}
	acct, err := s.accounts.Get(tx.AccountID)
	if err != nil {
		return err
	}
	if acct.IsBilling && s.billingLog != nil {
		_, err = s.billingLog.Append(ctx, id, changelog.KindDeleted, nil, func(b *pebble.Batch) error {
			return b.Delete(keyEntry(txKind, id), nil)
		})
		if err != nil {
			return err
		}
		return nil
	}
	if err := s.db.Delete(keyEntry(txKind, id)); err != nil {
		return fmt.Errorf("ledger: delete transaction: %w", err)
	}
	return nil
}

// Get returns the transaction with the given id.
func (s *TransactionStore) Get(id uint64) (Transaction, error) {
	v, err := s.db.Get(keyEntry(txKind, id))
	if err != nil {
		if pebblestore.IsNotFound(err) {
			return Transaction{}, fmt.Errorf("transaction %d: %w", id, ErrNotFound)
		}
		return Transaction{}, fmt.Errorf("ledger: get transaction: %w", err)
	}
	var tx Transaction
	if err := json.Unmarshal(v, &tx); err != nil {
		return Transaction{}, fmt.Errorf("ledger: decode transaction %d: %w", id, err)
	}
	return tx, nil
}

// List returns transactions newest first (date, then id), paged by limit and
// offset. accountID filters to one account when nonzero; limit <= 0 means no
// bound.
func (s *TransactionStore) List(accountID uint64, limit, offset int) ([]Transaction, error) {
	low, high := entryBounds(txKind)
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: high})
	if err != nil {
		return nil, fmt.Errorf("ledger: list transactions: %w", err)
	}
	defer iter.Close()

	var all []Transaction
	for iter.First(); iter.Valid(); iter.Next() {
		var tx Transaction
		if err := json.Unmarshal(iter.Value(), &tx); err != nil {
			return nil, fmt.Errorf("ledger: decode transaction %d: %w", entryID(iter.Key()), err)
		}
		if accountID != 0 && tx.AccountID != accountID {
			continue
		}
		all = append(all, tx)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].Date.Equal(all[j].Date.Time) {
			return all[i].Date.After(all[j].Date.Time)
		}
		return all[i].ID > all[j].ID
	})
	if offset > 0 {
		if offset >= len(all) {
			return nil, nil
		}
		all = all[offset:]
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// commit writes the transaction, appending a billing feed event when the
// account is the billing one.
func (s *TransactionStore) commit(ctx context.Context, tx Transaction, billing bool, kind changelog.Kind) error {
	if billing && s.billingLog != nil {
		payload, err := json.Marshal(tx)
		if err != nil {
			return fmt.Errorf("ledger: encode transaction: %w", err)
		}
		_, err = s.billingLog.Append(ctx, tx.ID, kind, payload, func(b *pebble.Batch) error {
			return s.putTx(b, tx)
		})
		return err
	}
	b := s.db.NewBatch()
	defer b.Close()
	if err := s.putTx(b, tx); err != nil {
		return err
	}
	if err := s.db.CommitBatch(ctx, b); err != nil {
		return fmt.Errorf("ledger: commit transaction: %w", err)
	}
	return nil
}

// putTx writes the entity and keeps the id counter key current.
func (s *TransactionStore) putTx(b *pebble.Batch, tx Transaction) error {
	v, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("ledger: encode transaction: %w", err)
	}
	if err := b.Set(keyEntry(txKind, tx.ID), v, nil); err != nil {
		return fmt.Errorf("ledger: store transaction: %w", err)
	}
	if tx.ID > s.lastID {
		if err := b.Set(keyMeta(txKind), be8(tx.ID), nil); err != nil {
			return fmt.Errorf("ledger: store meta: %w", err)
		}
	}
	return nil
}
