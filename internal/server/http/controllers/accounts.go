package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/runtime"
)

// AccountsController handles account CRUD, balances and summaries.
type AccountsController struct {
	rt *runtime.Runtime
}

// NewAccountsController creates a new accounts controller.
func NewAccountsController(rt *runtime.Runtime) *AccountsController {
	return &AccountsController{rt: rt}
}

// RegisterRoutes registers account routes with the given mux.
func (c *AccountsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/accounts", c.handleList)
	mux.HandleFunc("/v1/accounts/create", c.handleCreate)
	mux.HandleFunc("/v1/accounts/update", c.handleUpdate)
	mux.HandleFunc("/v1/accounts/delete", c.handleDelete)
	mux.HandleFunc("/v1/accounts/balances", c.handleBalances)
	mux.HandleFunc("/v1/accounts/summary", c.handleSummary)
}

func (c *AccountsController) handleList(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") == "true"
	list, err := c.rt.Accounts().List(includeInactive)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, map[string]any{"accounts": list})
}

func (c *AccountsController) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req accountCreateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Currency == "" {
		req.Currency = c.rt.Config().DefaultCurrency
	}
	acct, err := c.rt.Accounts().Create(r.Context(), ledger.AccountParams{
		Name:           req.Name,
		OpeningBalance: req.OpeningBalance,
		Currency:       ledger.Currency(req.Currency),
		Color:          req.Color,
		IsBilling:      req.IsBilling,
		ReplaceBilling: req.ReplaceBilling,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, acct)
}

func (c *AccountsController) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req accountUpdateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	acct, err := c.rt.Accounts().Update(r.Context(), req.ID, ledger.AccountParams{
		Name:           req.Name,
		OpeningBalance: req.OpeningBalance,
		Currency:       ledger.Currency(req.Currency),
		Color:          req.Color,
		IsBilling:      req.IsBilling,
		ReplaceBilling: req.ReplaceBilling,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, acct)
}

func (c *AccountsController) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req idReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := c.rt.Accounts().Deactivate(r.Context(), req.ID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeNoContent(w)
}

func (c *AccountsController) handleBalances(w http.ResponseWriter, r *http.Request) {
	var asOf ledger.Date
	if s := r.URL.Query().Get("as_of"); s != "" {
		d, err := ledger.ParseDate(s)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		asOf = d
	}
	balances, err := ledger.Balances(c.rt.Accounts(), c.rt.Transactions(), asOf)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, map[string]any{"balances": balances})
}

func (c *AccountsController) handleSummary(w http.ResponseWriter, r *http.Request) {
	id := parseUint(r.URL.Query().Get("id"))
	if id == 0 {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	sum, err := ledger.Summary(c.rt.Accounts(), c.rt.Transactions(), c.rt.Invoices(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, sum)
}
