package controllers

import (
	"net/http"

	"github.com/tallyhq/tally/internal/runtime"
)

// InkwellController proxies billing data from the external Inkwell service.
type InkwellController struct {
	rt *runtime.Runtime
}

// NewInkwellController creates a new inkwell controller.
func NewInkwellController(rt *runtime.Runtime) *InkwellController {
	return &InkwellController{rt: rt}
}

// RegisterRoutes registers inkwell routes with the given mux.
func (c *InkwellController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/inkwell/billing-data", c.handleBillingData)
}

func (c *InkwellController) handleBillingData(w http.ResponseWriter, r *http.Request) {
	data, err := c.rt.Inkwell().FetchBillingData(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, data)
}
