package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"replikv/internal/logging"
	"replikv/internal/replication"
	"replikv/internal/storage"
)

// stubCoordinator implements WriteCoordinator for testing.
type stubCoordinator struct {
	result   replication.Result
	gotKey   string
	gotValue string
}

func (c *stubCoordinator) Write(_ context.Context, key, value string) replication.Result {
	c.gotKey, c.gotValue = key, value
	return c.result
}

func newTestLogger(t *testing.T) *logging.Logger {
	t.Helper()
	logger, err := logging.NewLogger(logging.WithWriter(io.Discard))
	if err != nil {
		t.Fatal(err)
	}
	return logger
}

func setupLeader(t *testing.T, store storage.Store, coord WriteCoordinator) *httptest.Server {
	t.Helper()
	srv := NewLeader(store, coord, 2, newTestLogger(t))
	return httptest.NewServer(srv.Handler())
}

func setupFollower(t *testing.T, store storage.Store, id string) *httptest.Server {
	t.Helper()
	srv := NewFollower(store, id, newTestLogger(t))
	return httptest.NewServer(srv.Handler())
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	return body
}

func TestHTTPAPI_Health_Leader(t *testing.T) {
	ts := setupLeader(t, storage.NewMemoryStore(), &stubCoordinator{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["status"] != "healthy" || body["role"] != "leader" {
		t.Fatalf("unexpected health body: %v", body)
	}
	if body["quorum"].(float64) != 2 {
		t.Fatalf("expected quorum 2, got %v", body["quorum"])
	}
	if _, exists := body["follower_id"]; exists {
		t.Fatal("leader health should not carry follower_id")
	}
}

func TestHTTPAPI_Health_Follower(t *testing.T) {
	ts := setupFollower(t, storage.NewMemoryStore(), "follower1")
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	body := decodeBody(t, resp)
	if body["status"] != "healthy" || body["role"] != "follower" {
		t.Fatalf("unexpected health body: %v", body)
	}
	if body["follower_id"] != "follower1" {
		t.Fatalf("expected follower_id follower1, got %v", body["follower_id"])
	}
	if _, exists := body["quorum"]; exists {
		t.Fatal("follower health should not carry quorum")
	}
}

func TestHTTPAPI_Write_Success(t *testing.T) {
	coord := &stubCoordinator{
		result: replication.Result{Outcome: replication.Success, Acks: 2, Required: 2, Replicas: 3},
	}
	ts := setupLeader(t, storage.NewMemoryStore(), coord)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/write", `{"key":"alpha","value":"1"}`)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["status"] != "success" || body["key"] != "alpha" {
		t.Fatalf("unexpected write body: %v", body)
	}
	if _, ok := body["latency"].(float64); !ok {
		t.Fatalf("expected numeric latency, got %v", body["latency"])
	}
	if coord.gotKey != "alpha" || coord.gotValue != "1" {
		t.Fatalf("coordinator got key=%q value=%q", coord.gotKey, coord.gotValue)
	}
}

func TestHTTPAPI_Write_QuorumNotReached(t *testing.T) {
	coord := &stubCoordinator{
		result: replication.Result{Outcome: replication.QuorumNotReached, Acks: 1, Required: 2, Replicas: 2},
	}
	ts := setupLeader(t, storage.NewMemoryStore(), coord)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/write", `{"key":"alpha","value":"1"}`)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["status"] != "quorum_not_reached" {
		t.Fatalf("unexpected status: %v", body["status"])
	}
	if body["message"] != "Not enough followers confirmed" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
}

func TestHTTPAPI_Write_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing key", body: `{"value":"1"}`},
		{name: "missing value", body: `{"key":"alpha"}`},
		{name: "empty key", body: `{"key":"","value":"1"}`},
		{name: "empty object", body: `{}`},
		{name: "invalid JSON", body: `{"key":`},
		{name: "empty body", body: ``},
	}

	coord := &stubCoordinator{result: replication.Result{Outcome: replication.Success}}
	ts := setupLeader(t, storage.NewMemoryStore(), coord)
	defer ts.Close()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/write", tt.body)
			if resp.StatusCode != 400 {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
			body := decodeBody(t, resp)
			if body["error"] != "Missing key or value" {
				t.Fatalf("unexpected error: %v", body["error"])
			}
		})
	}
}

func TestHTTPAPI_Write_EmptyValueAllowed(t *testing.T) {
	coord := &stubCoordinator{result: replication.Result{Outcome: replication.Success}}
	ts := setupLeader(t, storage.NewMemoryStore(), coord)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/write", `{"key":"alpha","value":""}`)
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if coord.gotKey != "alpha" || coord.gotValue != "" {
		t.Fatalf("coordinator got key=%q value=%q", coord.gotKey, coord.gotValue)
	}
}

func TestHTTPAPI_Read(t *testing.T) {
	store := storage.NewMemoryStore()
	store.Put("alpha", "1")
	ts := setupLeader(t, store, &stubCoordinator{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/read?key=alpha")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["key"] != "alpha" || body["value"] != "1" {
		t.Fatalf("unexpected read body: %v", body)
	}
	if _, exists := body["follower_id"]; exists {
		t.Fatal("leader read should not carry follower_id")
	}
}

func TestHTTPAPI_Read_MissingParam(t *testing.T) {
	ts := setupLeader(t, storage.NewMemoryStore(), &stubCoordinator{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/read")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["error"] != "Missing key parameter" {
		t.Fatalf("unexpected error: %v", body["error"])
	}
}

func TestHTTPAPI_Read_NotFound(t *testing.T) {
	ts := setupLeader(t, storage.NewMemoryStore(), &stubCoordinator{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/read?key=ghost")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["error"] != "Key not found" {
		t.Fatalf("unexpected error: %v", body["error"])
	}
}

func TestHTTPAPI_Read_FollowerIncludesID(t *testing.T) {
	store := storage.NewMemoryStore()
	store.Put("alpha", "1")
	ts := setupFollower(t, store, "follower2")
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/read?key=alpha")
	if err != nil {
		t.Fatal(err)
	}
	body := decodeBody(t, resp)
	if body["value"] != "1" || body["follower_id"] != "follower2" {
		t.Fatalf("unexpected read body: %v", body)
	}
}

func TestHTTPAPI_Dump(t *testing.T) {
	store := storage.NewMemoryStore()
	store.Put("alpha", "1")
	store.Put("beta", "2")
	ts := setupFollower(t, store, "follower1")
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/dump")
	if err != nil {
		t.Fatal(err)
	}
	body := decodeBody(t, resp)
	if body["count"].(float64) != 2 {
		t.Fatalf("expected count 2, got %v", body["count"])
	}
	data := body["data"].(map[string]interface{})
	if data["alpha"] != "1" || data["beta"] != "2" {
		t.Fatalf("unexpected dump data: %v", data)
	}
	if body["follower_id"] != "follower1" {
		t.Fatalf("expected follower_id, got %v", body)
	}
}

func TestHTTPAPI_Reset(t *testing.T) {
	store := storage.NewMemoryStore()
	store.Put("alpha", "1")
	ts := setupLeader(t, store, &stubCoordinator{})
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/reset", "")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["status"] != "cleared" || body["role"] != "leader" {
		t.Fatalf("unexpected reset body: %v", body)
	}

	if _, ok := store.Get("alpha"); ok {
		t.Fatal("store should be empty after reset")
	}
}

func TestHTTPAPI_Replicate(t *testing.T) {
	store := storage.NewMemoryStore()
	ts := setupFollower(t, store, "follower1")
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/replicate", `{"key":"alpha","value":"1"}`)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["status"] != "success" {
		t.Fatalf("unexpected replicate body: %v", body)
	}

	got, ok := store.Get("alpha")
	if !ok || got != "1" {
		t.Fatalf("replicated value not applied: %q, %v", got, ok)
	}
}

func TestHTTPAPI_Replicate_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing key", body: `{"value":"1"}`},
		{name: "missing value", body: `{"key":"alpha"}`},
		{name: "empty key", body: `{"key":"","value":"1"}`},
		{name: "invalid JSON", body: `not json`},
	}

	ts := setupFollower(t, storage.NewMemoryStore(), "follower1")
	defer ts.Close()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/replicate", tt.body)
			if resp.StatusCode != 400 {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
			body := decodeBody(t, resp)
			if body["error"] != "Missing key or value" {
				t.Fatalf("unexpected error: %v", body["error"])
			}
		})
	}
}

func TestHTTPAPI_Replicate_Overwrites(t *testing.T) {
	store := storage.NewMemoryStore()
	store.Put("alpha", "1")
	ts := setupFollower(t, store, "follower1")
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/replicate", `{"key":"alpha","value":"2"}`)
	resp.Body.Close()

	got, _ := store.Get("alpha")
	if got != "2" {
		t.Fatalf("expected overwrite to 2, got %q", got)
	}
}

func TestHTTPAPI_RoleRouting(t *testing.T) {
	leader := setupLeader(t, storage.NewMemoryStore(), &stubCoordinator{})
	defer leader.Close()
	follower := setupFollower(t, storage.NewMemoryStore(), "follower1")
	defer follower.Close()

	resp := postJSON(t, leader.URL+"/replicate", `{"key":"a","value":"1"}`)
	resp.Body.Close()
	if resp.StatusCode != 404 {
		t.Fatalf("leader /replicate: expected 404, got %d", resp.StatusCode)
	}

	resp = postJSON(t, follower.URL+"/write", `{"key":"a","value":"1"}`)
	resp.Body.Close()
	if resp.StatusCode != 404 {
		t.Fatalf("follower /write: expected 404, got %d", resp.StatusCode)
	}
}
