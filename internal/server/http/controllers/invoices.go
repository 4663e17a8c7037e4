package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/runtime"
)

// InvoicesController handles invoice CRUD.
type InvoicesController struct {
	rt *runtime.Runtime
}

// NewInvoicesController creates a new invoices controller.
func NewInvoicesController(rt *runtime.Runtime) *InvoicesController {
	return &InvoicesController{rt: rt}
}

// RegisterRoutes registers invoice routes with the given mux.
func (c *InvoicesController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/invoices", c.handleList)
	mux.HandleFunc("/v1/invoices/create", c.handleCreate)
	mux.HandleFunc("/v1/invoices/update", c.handleUpdate)
	mux.HandleFunc("/v1/invoices/delete", c.handleDelete)
}

// params converts a request to store params, falling back to the configured
// default tax percentages when omitted.
func (c *InvoicesController) params(req invoiceReq) (ledger.InvoiceParams, error) {
	date, err := ledger.ParseDate(req.Date)
	if err != nil {
		return ledger.InvoiceParams{}, err
	}
	defaults := c.rt.Config().InvoiceDefaults
	iva := req.IvaPercent
	if iva == nil {
		d, err := decimal.NewFromString(defaults.IvaPercent)
		if err != nil {
			return ledger.InvoiceParams{}, err
		}
		iva = &d
	}
	iibb := req.IibbPercent
	if iibb == nil {
		d, err := decimal.NewFromString(defaults.IibbPercent)
		if err != nil {
			return ledger.InvoiceParams{}, err
		}
		iibb = &d
	}
	return ledger.InvoiceParams{
		Date:        date,
		Description: req.Description,
		Number:      req.Number,
		Amount:      req.Amount,
		IvaPercent:  *iva,
		IibbPercent: *iibb,
		Type:        ledger.InvoiceType(req.Type),
		AccountID:   req.AccountID,
	}, nil
}

func (c *InvoicesController) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := c.rt.Invoices().List(parseUint(r.URL.Query().Get("account_id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, map[string]any{"invoices": list})
}

func (c *InvoicesController) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req invoiceReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	params, err := c.params(req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	inv, err := c.rt.Invoices().Create(r.Context(), params)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, inv)
}

func (c *InvoicesController) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req invoiceReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	params, err := c.params(req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	inv, err := c.rt.Invoices().Update(r.Context(), req.ID, params)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, inv)
}

func (c *InvoicesController) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req idReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := c.rt.Invoices().Delete(r.Context(), req.ID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeNoContent(w)
}
