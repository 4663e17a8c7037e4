package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/tallyhq/tally/internal/runtime"
)

// FrequentsController handles recurring-transaction templates.
type FrequentsController struct {
	rt *runtime.Runtime
}

// NewFrequentsController creates a new frequents controller.
func NewFrequentsController(rt *runtime.Runtime) *FrequentsController {
	return &FrequentsController{rt: rt}
}

// RegisterRoutes registers frequent-template routes with the given mux.
func (c *FrequentsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/frequents", c.handleList)
	mux.HandleFunc("/v1/frequents/create", c.handleCreate)
	mux.HandleFunc("/v1/frequents/delete", c.handleDelete)
}

func (c *FrequentsController) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := c.rt.Frequents().List()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, map[string]any{"frequents": list})
}

func (c *FrequentsController) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req descriptionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	ft, err := c.rt.Frequents().Create(r.Context(), req.Description)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, ft)
}

func (c *FrequentsController) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req idReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := c.rt.Frequents().Delete(r.Context(), req.ID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeNoContent(w)
}
