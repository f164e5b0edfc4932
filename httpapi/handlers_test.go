package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tomikazi/play9/config"
	"github.com/tomikazi/play9/game"
	"github.com/tomikazi/play9/leaderboard"
	"github.com/tomikazi/play9/registry"
	"github.com/tomikazi/play9/ws"
)

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Defaults()
	cfg.SnapshotDir = t.TempDir()

	hub := ws.NewHub(nil)
	reg := registry.New(cfg, hub, nil, nil)
	hub.SetRegistry(reg)

	mux := http.NewServeMux()
	NewServer(reg, hub, nil, nil).Register(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	return resp
}

func TestJoinCreatesTableAndSeatsPlayer(t *testing.T) {
	server := setupTestServer(t)

	resp := postJSON(t, server.URL+"/play9/join", joinRequest{TableName: "alice-table", PlayerName: "Alice"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out joinResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.PlayerID == "" {
		t.Fatal("expected a player id to be assigned")
	}
}

func TestJoinRejectsInvalidTableName(t *testing.T) {
	server := setupTestServer(t)

	resp := postJSON(t, server.URL+"/play9/join", joinRequest{TableName: "Not Valid!", PlayerName: "Alice"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestJoinWithoutPlayerNameJustEnsuresTable(t *testing.T) {
	server := setupTestServer(t)

	resp := postJSON(t, server.URL+"/play9/join", joinRequest{TableName: "spec-table"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out joinResponse
	json.NewDecoder(resp.Body).Decode(&out)
	if out.PlayerID != "" {
		t.Fatalf("expected no player id for a spectator-only join, got %q", out.PlayerID)
	}
}

func TestAPITableReturnsSnapshotAfterJoin(t *testing.T) {
	server := setupTestServer(t)
	postJSON(t, server.URL+"/play9/join", joinRequest{TableName: "snap-table", PlayerName: "Alice"}).Body.Close()

	resp, err := http.Get(server.URL + "/play9/api/table/snap-table")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var snap game.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap.Players) != 1 || snap.Players[0].Name != "Alice" {
		t.Fatalf("expected Alice seated, got %+v", snap.Players)
	}
}

func TestAPITableNotFound(t *testing.T) {
	server := setupTestServer(t)

	resp, err := http.Get(server.URL + "/play9/api/table/does-not-exist")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestLeaveIsIdempotentForUnknownTable(t *testing.T) {
	server := setupTestServer(t)

	resp := postJSON(t, server.URL+"/play9/leave", leaveRequest{TableName: "ghost-table", PlayerID: "p1"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
}

func TestLeaveRemovesSeatedPlayer(t *testing.T) {
	server := setupTestServer(t)
	var joined joinResponse
	resp := postJSON(t, server.URL+"/play9/join", joinRequest{TableName: "leave-table", PlayerName: "Alice"})
	json.NewDecoder(resp.Body).Decode(&joined)
	resp.Body.Close()

	leaveResp := postJSON(t, server.URL+"/play9/leave", leaveRequest{TableName: "leave-table", PlayerID: joined.PlayerID})
	leaveResp.Body.Close()
	if leaveResp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", leaveResp.StatusCode)
	}
}

func TestAPILeaderboardWithNoStoreReturnsEmptyList(t *testing.T) {
	server := setupTestServer(t)

	resp, err := http.Get(server.URL + "/play9/api/leaderboard")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var list []leaderboard.Entry
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected an empty leaderboard, got %d entries", len(list))
	}
}
