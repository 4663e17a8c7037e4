package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	cfgpkg "github.com/tallyhq/tally/internal/config"
	"github.com/tallyhq/tally/internal/runtime"
	pebblestore "github.com/tallyhq/tally/internal/storage/pebble"
	logpkg "github.com/tallyhq/tally/pkg/log"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	rt, err := runtime.Open(runtime.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("rt open: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	logger, _ := logpkg.ApplyConfig(&logpkg.Config{Level: "error", Format: "text"})
	return New(rt, logger)
}

func (s *Server) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, req)
	return w
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/v1/healthz", "")
	if w.Code != 200 {
		t.Fatalf("status: %d", w.Code)
	}
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatalf("missing request id header")
	}
}

func TestAccountCreateHandler(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/v1/accounts/create", `{"name":"Billing","currency":"ARS","is_billing":true}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status: %d body: %s", w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodPost, "/v1/accounts/create", `{"name":"Other","currency":"XXX"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid currency should be 400, got %d", w.Code)
	}

	// Omitting currency falls back to the configured default.
	w = s.do(t, http.MethodPost, "/v1/accounts/create", `{"name":"Cash"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status: %d body: %s", w.Code, w.Body.String())
	}
	var acct struct {
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &acct); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if acct.Currency != "ARS" {
		t.Fatalf("expected default currency ARS, got %q", acct.Currency)
	}
}

type changesResp struct {
	LastConfirmedID uint64 `json:"last_confirmed_id"`
	CheckpointID    uint64 `json:"checkpoint_id"`
	HasMore         bool   `json:"has_more"`
	Changes         []struct {
		ID       uint64          `json:"id"`
		EntityID uint64          `json:"entity_id"`
		Event    string          `json:"event"`
		Payload  json.RawMessage `json:"payload"`
	} `json:"changes"`
}

func TestChangesFeedFlow(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 5; i++ {
		w := s.do(t, http.MethodPost, "/v1/exportables/create", fmt.Sprintf(`{"description":"mov %d"}`, i))
		if w.Code != http.StatusCreated {
			t.Fatalf("create: %d", w.Code)
		}
	}

	w := s.do(t, http.MethodGet, "/v1/exportables/changes?limit=2", "")
	if w.Code != 200 {
		t.Fatalf("changes: %d", w.Code)
	}
	var page changesResp
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Changes) != 2 || !page.HasMore || page.CheckpointID != 2 {
		t.Fatalf("unexpected page %+v", page)
	}
	if page.Changes[0].Event != "created" {
		t.Fatalf("event %q", page.Changes[0].Event)
	}

	w = s.do(t, http.MethodPost, "/v1/exportables/changes/ack", `{"checkpoint_id":2}`)
	if w.Code != 200 {
		t.Fatalf("ack: %d body: %s", w.Code, w.Body.String())
	}
	var ack struct {
		LastChangeID uint64 `json:"last_change_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.LastChangeID != 2 {
		t.Fatalf("last_change_id %d", ack.LastChangeID)
	}

	w = s.do(t, http.MethodGet, "/v1/exportables/changes", "")
	var rest changesResp
	if err := json.Unmarshal(w.Body.Bytes(), &rest); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rest.Changes) != 3 || rest.HasMore || rest.LastConfirmedID != 2 {
		t.Fatalf("unexpected remainder %+v", rest)
	}
}

func TestAckRejections(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 3; i++ {
		s.do(t, http.MethodPost, "/v1/exportables/create", `{"description":"m"}`)
	}
	if w := s.do(t, http.MethodPost, "/v1/exportables/changes/ack", `{"checkpoint_id":2}`); w.Code != 200 {
		t.Fatalf("ack: %d", w.Code)
	}

	w := s.do(t, http.MethodPost, "/v1/exportables/changes/ack", `{"checkpoint_id":1}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("stale ack should be 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "below the last confirmed") {
		t.Fatalf("missing reason: %s", w.Body.String())
	}

	w = s.do(t, http.MethodPost, "/v1/exportables/changes/ack", `{"checkpoint_id":99}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("nonexistent ack should be 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "does not exist") {
		t.Fatalf("missing reason: %s", w.Body.String())
	}
}

func TestEmptyFeedAckZero(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/v1/exportables/changes", "")
	var page changesResp
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Changes) != 0 || page.CheckpointID != 0 || page.HasMore {
		t.Fatalf("unexpected page %+v", page)
	}
	if w := s.do(t, http.MethodPost, "/v1/exportables/changes/ack", `{"checkpoint_id":0}`); w.Code != 200 {
		t.Fatalf("ack(0) should succeed, got %d: %s", w.Code, w.Body.String())
	}
}

func TestBillingMovementsHandler(t *testing.T) {
	s := newTestServer(t)
	if w := s.do(t, http.MethodPost, "/v1/accounts/create", `{"name":"Billing","currency":"ARS","is_billing":true}`); w.Code != http.StatusCreated {
		t.Fatalf("account: %d", w.Code)
	}
	body := `{"date":"2026-08-01","description":"venta","amount":"150.00","account_id":1}`
	if w := s.do(t, http.MethodPost, "/v1/transactions/create", body); w.Code != http.StatusCreated {
		t.Fatalf("tx: %d body: %s", w.Code, w.Body.String())
	}

	w := s.do(t, http.MethodGet, "/v1/billing/movements", "")
	if w.Code != 200 {
		t.Fatalf("movements: %d", w.Code)
	}
	var mv struct {
		TransactionEvents []json.RawMessage `json:"transaction_events"`
		Transactions      []json.RawMessage `json:"transactions"`
		Active            []json.RawMessage `json:"active_transactions_in_batch"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &mv); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(mv.TransactionEvents) != 1 || len(mv.Transactions) != 1 || len(mv.Active) != 1 {
		t.Fatalf("unexpected views %d/%d/%d", len(mv.TransactionEvents), len(mv.Transactions), len(mv.Active))
	}

	if w := s.do(t, http.MethodPost, "/v1/billing/movements/ack", `{"checkpoint_id":1}`); w.Code != 200 {
		t.Fatalf("ack: %d body: %s", w.Code, w.Body.String())
	}
}

func TestFutureTransactionRejected(t *testing.T) {
	s := newTestServer(t)
	if w := s.do(t, http.MethodPost, "/v1/accounts/create", `{"name":"Cash","currency":"ARS"}`); w.Code != http.StatusCreated {
		t.Fatalf("account: %d", w.Code)
	}
	body := `{"date":"2100-01-01","description":"time travel","amount":"10","account_id":1}`
	w := s.do(t, http.MethodPost, "/v1/transactions/create", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("future date should be 400, got %d", w.Code)
	}
}
