package client

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func startAPIStub(t *testing.T, routes map[string]func(w http.ResponseWriter, r *http.Request)) (BaseURLFunc, func()) {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, h := range routes {
		mux.HandleFunc(pattern, h)
	}
	srv := httptest.NewServer(mux)
	return func() string { return srv.URL }, srv.Close
}

func TestNewRootRegistersGroups(t *testing.T) {
	root := NewRoot(func() string { return "http://127.0.0.1:8080" })
	for _, name := range []string{"changes", "billing", "account"} {
		found := false
		for _, c := range root.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("root is missing the %s command group", name)
		}
	}
}

func TestChangesListPrintsPage(t *testing.T) {
	var gotQuery string
	baseURL, stop := startAPIStub(t, map[string]func(http.ResponseWriter, *http.Request){
		"/v1/exportables/changes": func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			_ = json.NewEncoder(w).Encode(map[string]any{
				"last_confirmed_id": 0,
				"checkpoint_id":     2,
				"has_more":          false,
				"changes": []map[string]any{
					{"id": 1, "entity_id": 10, "event": "created"},
					{"id": 2, "entity_id": 10, "event": "updated"},
				},
			})
		},
	})
	defer stop()

	cmd := newChangesListCommand(baseURL)
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--limit", "2", "--filter", `event == "created"`})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(gotQuery, "limit=2") || !strings.Contains(gotQuery, "filter=") {
		t.Fatalf("expected limit and filter in query, got %s", gotQuery)
	}
	if strings.Contains(gotQuery, "since=") {
		t.Fatalf("since should be omitted when unset, got %s", gotQuery)
	}
	if !strings.Contains(buf.String(), `"checkpoint_id": 2`) {
		t.Fatalf("expected checkpoint in output, got: %s", buf.String())
	}
}

func TestChangesAckPostsCheckpoint(t *testing.T) {
	var gotBody map[string]uint64
	baseURL, stop := startAPIStub(t, map[string]func(http.ResponseWriter, *http.Request){
		"/v1/exportables/changes/ack": func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			_ = json.NewEncoder(w).Encode(map[string]any{"last_change_id": gotBody["checkpoint_id"], "updated_at": "2026-08-29T00:00:00Z"})
		},
	})
	defer stop()

	cmd := newChangesAckCommand(baseURL)
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--checkpoint", "42"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if gotBody["checkpoint_id"] != 42 {
		t.Fatalf("expected checkpoint_id 42, got %v", gotBody)
	}
	if !strings.Contains(buf.String(), `"last_change_id": 42`) {
		t.Fatalf("expected last_change_id in output, got: %s", buf.String())
	}
}

func TestChangesAckSurfacesServerError(t *testing.T) {
	baseURL, stop := startAPIStub(t, map[string]func(http.ResponseWriter, *http.Request){
		"/v1/exportables/changes/ack": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "checkpoint is below the last confirmed checkpoint"})
		},
	})
	defer stop()

	cmd := newChangesAckCommand(baseURL)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--checkpoint", "1"})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "below the last confirmed") {
		t.Fatalf("expected checkpoint error, got %v", err)
	}
}

func TestBillingAckOmitsChangesCheckpointWhenUnset(t *testing.T) {
	var gotBody map[string]any
	baseURL, stop := startAPIStub(t, map[string]func(http.ResponseWriter, *http.Request){
		"/v1/billing/movements/ack": func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			_ = json.NewEncoder(w).Encode(map[string]any{"last_movement_id": 7})
		},
	})
	defer stop()

	cmd := newBillingAckCommand(baseURL)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--checkpoint", "7"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if _, ok := gotBody["changes_checkpoint_id"]; ok {
		t.Fatalf("changes_checkpoint_id should be omitted, got %v", gotBody)
	}
	if gotBody["checkpoint_id"] != float64(7) {
		t.Fatalf("expected checkpoint_id 7, got %v", gotBody)
	}
}

func TestBillingMovementsQuery(t *testing.T) {
	var gotQuery string
	baseURL, stop := startAPIStub(t, map[string]func(http.ResponseWriter, *http.Request){
		"/v1/billing/movements": func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			_ = json.NewEncoder(w).Encode(map[string]any{"has_more": false})
		},
	})
	defer stop()

	cmd := newBillingMovementsCommand(baseURL)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--since", "5", "--limit", "10", "--changes-limit", "3"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	for _, want := range []string{"since=5", "limit=10", "changes_limit=3"} {
		if !strings.Contains(gotQuery, want) {
			t.Fatalf("expected %s in query, got %s", want, gotQuery)
		}
	}
}

func TestAccountBalancesPrintsRows(t *testing.T) {
	baseURL, stop := startAPIStub(t, map[string]func(http.ResponseWriter, *http.Request){
		"/v1/accounts/balances": func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"balances": []map[string]any{
					{"account_id": 1, "name": "Caja", "currency": "ARS", "formatted": "$1,234.50"},
				},
			})
		},
	})
	defer stop()

	cmd := newAccountBalancesCommand(baseURL)
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(buf.String(), "Caja") || !strings.Contains(buf.String(), "$1,234.50") {
		t.Fatalf("expected formatted balance row, got: %s", buf.String())
	}
}
