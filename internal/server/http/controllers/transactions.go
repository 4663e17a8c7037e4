package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/runtime"
)

// TransactionsController handles transaction CRUD and listing.
type TransactionsController struct {
	rt *runtime.Runtime
}

// NewTransactionsController creates a new transactions controller.
func NewTransactionsController(rt *runtime.Runtime) *TransactionsController {
	return &TransactionsController{rt: rt}
}

// RegisterRoutes registers transaction routes with the given mux.
func (c *TransactionsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/transactions", c.handleList)
	mux.HandleFunc("/v1/transactions/create", c.handleCreate)
	mux.HandleFunc("/v1/transactions/update", c.handleUpdate)
	mux.HandleFunc("/v1/transactions/delete", c.handleDelete)
}

func (r transactionReq) params() (ledger.TransactionParams, error) {
	date, err := ledger.ParseDate(r.Date)
	if err != nil {
		return ledger.TransactionParams{}, err
	}
	return ledger.TransactionParams{
		Date:                 date,
		Description:          r.Description,
		Amount:               r.Amount,
		Notes:                r.Notes,
		AccountID:            r.AccountID,
		ExportableMovementID: r.ExportableMovementID,
	}, nil
}

func (c *TransactionsController) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := parseLimit(q.Get("limit"))
	offset := 0
	if s := q.Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			offset = v
		}
	}
	list, err := c.rt.Transactions().List(parseUint(q.Get("account_id")), limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, map[string]any{"transactions": list})
}

func (c *TransactionsController) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req transactionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	params, err := req.params()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	tx, err := c.rt.Transactions().Create(r.Context(), params)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, tx)
}

func (c *TransactionsController) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req transactionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	params, err := req.params()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	tx, err := c.rt.Transactions().Update(r.Context(), req.ID, params)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, tx)
}

func (c *TransactionsController) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req idReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := c.rt.Transactions().Delete(r.Context(), req.ID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeNoContent(w)
}
