package controllers

import (
	"net/http"

	"github.com/tallyhq/tally/internal/runtime"
)

// ControllerRegistry manages all HTTP controllers.
//
// It provides a centralized way to register all controller routes
// and manages the lifecycle of individual controllers.
type ControllerRegistry struct {
	general      *GeneralController
	accounts     *AccountsController
	transactions *TransactionsController
	invoices     *InvoicesController
	frequents    *FrequentsController
	exportables  *ExportablesController
	billing      *BillingController
	inkwell      *InkwellController
}

// NewControllerRegistry creates a new controller registry.
//
// It initializes all controllers with the provided runtime.
func NewControllerRegistry(rt *runtime.Runtime) *ControllerRegistry {
	return &ControllerRegistry{
		general:      NewGeneralController(rt),
		accounts:     NewAccountsController(rt),
		transactions: NewTransactionsController(rt),
		invoices:     NewInvoicesController(rt),
		frequents:    NewFrequentsController(rt),
		exportables:  NewExportablesController(rt),
		billing:      NewBillingController(rt),
		inkwell:      NewInkwellController(rt),
	}
}

// RegisterAllRoutes registers all controller routes with the given mux.
//
// This method sets up all HTTP endpoints for the Tally service: general
// endpoints (health), ledger CRUD, the exportable change feed, the billing
// feed, and the Inkwell proxy.
func (r *ControllerRegistry) RegisterAllRoutes(mux *http.ServeMux) {
	r.general.RegisterRoutes(mux)
	r.accounts.RegisterRoutes(mux)
	r.transactions.RegisterRoutes(mux)
	r.invoices.RegisterRoutes(mux)
	r.frequents.RegisterRoutes(mux)
	r.exportables.RegisterRoutes(mux)
	r.billing.RegisterRoutes(mux)
	r.inkwell.RegisterRoutes(mux)
}
