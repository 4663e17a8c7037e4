package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/tallyhq/tally/internal/runtime"
)

// ExportablesController handles exportable movements and their change feed:
// the incremental sync surface an external bookkeeping consumer polls and
// acks.
type ExportablesController struct {
	rt *runtime.Runtime
}

// NewExportablesController creates a new exportables controller.
func NewExportablesController(rt *runtime.Runtime) *ExportablesController {
	return &ExportablesController{rt: rt}
}

// RegisterRoutes registers exportable-movement routes with the given mux.
func (c *ExportablesController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/exportables", c.handleList)
	mux.HandleFunc("/v1/exportables/create", c.handleCreate)
	mux.HandleFunc("/v1/exportables/update", c.handleUpdate)
	mux.HandleFunc("/v1/exportables/delete", c.handleDelete)
	mux.HandleFunc("/v1/exportables/changes", c.handleChanges)
	mux.HandleFunc("/v1/exportables/changes/ack", c.handleAck)
}

func (c *ExportablesController) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := c.rt.Exportables().List()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, map[string]any{"movements": list})
}

func (c *ExportablesController) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req descriptionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	m, err := c.rt.Exportables().Create(r.Context(), req.Description)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, m)
}

func (c *ExportablesController) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req descriptionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	m, err := c.rt.Exportables().Update(r.Context(), req.ID, req.Description)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, m)
}

func (c *ExportablesController) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req idReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := c.rt.Exportables().Delete(r.Context(), req.ID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeNoContent(w)
}

// handleChanges serves one page of pending movement events.
//
// Query parameters: since (defaults to the confirmed checkpoint), limit
// (clamped to the feed bounds), filter (optional CEL expression).
func (c *ExportablesController) handleChanges(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	since, err := parseSince(q.Get("since"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, err := c.rt.Exportables().ListChanges(since, parseLimit(q.Get("limit")), q.Get("filter"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, page)
}

// handleAck confirms processed events and purges them. Stale and nonexistent
// checkpoints come back as 400 with the reason.
func (c *ExportablesController) handleAck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req ackReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	ck, err := c.rt.Exportables().Ack(r.Context(), req.CheckpointID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, ackResp{LastChangeID: ck.LastConfirmedID, UpdatedAt: ck.UpdatedAt.UTC().Format(time.RFC3339)})
}
