package inkwell

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tallyhq/tally/internal/config"
)

func newTestClient(url string) *Client {
	return New(config.Inkwell{Endpoint: url, APIKey: "test-key", TimeoutSeconds: 2})
}

func TestFetchBillingData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"invoices": [{"id": 1, "date": "2026-01-15", "number": "0001-00000001", "amount": "1000", "iva_amount": "210", "type": "sale"}],
			"retentions": [{"id": 7, "date": "2026-01-20", "tax_type": "IIBB", "amount": "36.30"}]
		}`))
	}))
	defer srv.Close()

	data, err := newTestClient(srv.URL).FetchBillingData(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(data.Invoices) != 1 || data.Invoices[0].Number != "0001-00000001" {
		t.Fatalf("unexpected invoices %+v", data.Invoices)
	}
	if len(data.Retentions) != 1 || data.Retentions[0].TaxType != "IIBB" {
		t.Fatalf("unexpected retentions %+v", data.Retentions)
	}
}

func TestFetchNotConfigured(t *testing.T) {
	c := New(config.Inkwell{})
	_, err := c.FetchBillingData(context.Background())
	var ie *Error
	if !errors.As(err, &ie) || ie.Kind != KindNotConfigured {
		t.Fatalf("expected not_configured, got %v", err)
	}
}

func TestFetchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchBillingData(context.Background())
	var ie *Error
	if !errors.As(err, &ie) || ie.Kind != KindBadStatus || ie.Status != http.StatusForbidden {
		t.Fatalf("expected bad_status 403, got %v", err)
	}
}

func TestFetchInvalidPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"invoices": "nope"`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchBillingData(context.Background())
	var ie *Error
	if !errors.As(err, &ie) || ie.Kind != KindBadPayload {
		t.Fatalf("expected bad_payload, got %v", err)
	}
}

func TestFetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := newTestClient(srv.URL).FetchBillingData(context.Background())
	var ie *Error
	if !errors.As(err, &ie) || ie.Kind != KindUnreachable {
		t.Fatalf("expected unreachable, got %v", err)
	}
}
