package runtime

import (
	"context"
	"errors"
	"time"

	"github.com/tallyhq/tally/internal/billing"
	cfgpkg "github.com/tallyhq/tally/internal/config"
	"github.com/tallyhq/tally/internal/exportables"
	"github.com/tallyhq/tally/internal/inkwell"
	"github.com/tallyhq/tally/internal/ledger"
	pebblestore "github.com/tallyhq/tally/internal/storage/pebble"
)

// Options for building the Runtime.
type Options struct {
	DataDir       string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config
}

// Runtime wires storage, config, and the domain stores for a single-node
// instance.
type Runtime struct {
	db     *pebblestore.DB
	config cfgpkg.Config

	accounts    *ledger.AccountStore
	txs         *ledger.TransactionStore
	invoices    *ledger.InvoiceStore
	frequents   *ledger.FrequentStore
	exportables *exportables.Store
	billing     *billing.Service
	inkwell     *inkwell.Client
}

// Open initializes the underlying storage and every store on top of it.
func (o Options) open() (*Runtime, error) {
	db, err := pebblestore.Open(pebblestore.Options{DataDir: o.DataDir, Fsync: o.Fsync, FsyncInterval: o.FsyncInterval})
	if err != nil {
		return nil, err
	}
	rt := &Runtime{db: db, config: o.Config}

	if rt.accounts, err = ledger.OpenAccounts(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if rt.exportables, err = exportables.Open(db, o.Config.ChangeFeed); err != nil {
		_ = db.Close()
		return nil, err
	}
	if rt.billing, err = billing.Open(db, rt.exportables, o.Config.ChangeFeed); err != nil {
		_ = db.Close()
		return nil, err
	}
	if rt.txs, err = ledger.OpenTransactions(db, rt.accounts, rt.billing.Log(), rt.exportables); err != nil {
		_ = db.Close()
		return nil, err
	}
	if rt.invoices, err = ledger.OpenInvoices(db, rt.accounts); err != nil {
		_ = db.Close()
		return nil, err
	}
	if rt.frequents, err = ledger.OpenFrequents(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	rt.inkwell = inkwell.New(o.Config.Inkwell)
	return rt, nil
}

// Open initializes the underlying storage and returns a Runtime.
func Open(opts Options) (*Runtime, error) {
	return opts.open()
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CheckHealth performs a simple health check.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not open")
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	it.Close()
	return nil
}

// Accounts returns the account store.
func (r *Runtime) Accounts() *ledger.AccountStore { return r.accounts }

// Transactions returns the transaction store.
func (r *Runtime) Transactions() *ledger.TransactionStore { return r.txs }

// Invoices returns the invoice store.
func (r *Runtime) Invoices() *ledger.InvoiceStore { return r.invoices }

// Frequents returns the frequent-transaction store.
func (r *Runtime) Frequents() *ledger.FrequentStore { return r.frequents }

// Exportables returns the exportable-movement store and its change feed.
func (r *Runtime) Exportables() *exportables.Store { return r.exportables }

// Billing returns the billing feed service.
func (r *Runtime) Billing() *billing.Service { return r.billing }

// Inkwell returns the external bookkeeping client.
func (r *Runtime) Inkwell() *inkwell.Client { return r.inkwell }

// DB exposes the underlying DB for advanced operations (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }
