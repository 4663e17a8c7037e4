package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/tallyhq/tally/internal/billing"
	"github.com/tallyhq/tally/internal/runtime"
)

// BillingController serves the combined billing synchronization feed.
type BillingController struct {
	rt *runtime.Runtime
}

// NewBillingController creates a new billing controller.
func NewBillingController(rt *runtime.Runtime) *BillingController {
	return &BillingController{rt: rt}
}

// RegisterRoutes registers billing feed routes with the given mux.
func (c *BillingController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/billing/movements", c.handleMovements)
	mux.HandleFunc("/v1/billing/movements/ack", c.handleAck)
	mux.HandleFunc("/v1/billing/movements/trim", c.handleTrim)
}

// handleMovements returns the pending billing transaction events (with their
// projected convenience views) plus the pending exportable changes.
func (c *BillingController) handleMovements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	since, err := parseSince(q.Get("since"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	changesSince, err := parseSince(q.Get("changes_since"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	mv, err := c.rt.Billing().Movements(billing.MovementsOptions{
		Since:        since,
		Limit:        parseLimit(q.Get("limit")),
		ChangesSince: changesSince,
		ChangesLimit: parseLimit(q.Get("changes_limit")),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, mv)
}

// handleAck advances the billing window and, when the request carries a
// changes checkpoint, acks the exportable feed too.
func (c *BillingController) handleAck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req billingAckReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	res, err := c.rt.Billing().Ack(r.Context(), req.CheckpointID, req.ChangesCheckpointID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, res)
}

// handleTrim drops retained events at or below the confirmed window.
func (c *BillingController) handleTrim(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	bound, err := c.rt.Billing().Trim(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, map[string]uint64{"trimmed_up_to": bound})
}
