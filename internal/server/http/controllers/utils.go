package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/tallyhq/tally/internal/changelog"
	"github.com/tallyhq/tally/internal/inkwell"
	"github.com/tallyhq/tally/internal/ledger"
)

// Helper functions for common HTTP responses

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeJSON writes a JSON response with the given data.
func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

// writeNoContent writes a 204 No Content response.
func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// writeDomainError maps a domain error onto an HTTP status.
//
// Invalid checkpoints and validation failures are caller errors (400),
// missing entities are 404, upstream Inkwell failures are 502, anything else
// is a storage-level 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case changelog.IsInvalidCheckpoint(err), ledger.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case inkwell.IsError(err):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// parseLimit parses a limit string and returns a valid limit value.
//
// Returns 0 for empty strings or invalid values.
func parseLimit(limitStr string) int {
	if limitStr == "" {
		return 0
	}
	if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
		return limit
	}
	return 0
}

// parseUint parses an unsigned integer query value, 0 when absent or invalid.
func parseUint(s string) uint64 {
	if s == "" {
		return 0
	}
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return v
	}
	return 0
}

// parseSince parses an optional since value. Returns nil when the parameter
// is absent so the feed defaults to the confirmed checkpoint; an
// unparseable value is an error, not a silent zero.
func parseSince(s string) (*uint64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, errors.New("since must be a non-negative integer")
	}
	return &v, nil
}
