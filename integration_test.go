package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tomikazi/play9/config"
	"github.com/tomikazi/play9/game"
	"github.com/tomikazi/play9/httpapi"
	"github.com/tomikazi/play9/registry"
	"github.com/tomikazi/play9/ws"
)

// setupTestServer wires the registry, hub, and HTTP surface together the
// same way main() does, minus persistence and the leaderboard store.
func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Defaults()
	cfg.SnapshotDir = t.TempDir()
	cfg.IdleTurnTimeoutSec = 60

	hub := ws.NewHub(nil)
	reg := registry.New(cfg, hub, nil, nil)
	hub.SetRegistry(reg)

	mux := http.NewServeMux()
	httpapi.NewServer(reg, hub, nil, nil).Register(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func connectWS(t *testing.T, server *httptest.Server, table, playerID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/play9/ws/" + table
	if playerID != "" {
		wsURL += "?id=" + playerID
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	return conn
}

func readSnapshot(t *testing.T, conn *websocket.Conn) game.Snapshot {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read message: %v", err)
	}
	var snap game.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("failed to unmarshal snapshot: %v\ndata: %s", err, string(data))
	}
	return snap
}

func sendIntent(t *testing.T, conn *websocket.Conn, msg any) {
	t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
}

func joinTable(t *testing.T, server *httptest.Server, table, name string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"table_name": table, "player_name": name})
	resp, err := http.Post(server.URL+"/play9/join", "application/json", strings.NewReader(string(body)))
	if err != nil {
		t.Fatalf("join post: %v", err)
	}
	defer resp.Body.Close()
	var out struct {
		PlayerID string `json:"player_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("join decode: %v", err)
	}
	return out.PlayerID
}

func TestIntegration_JoinAndWebSocketSeesSnapshot(t *testing.T) {
	server := setupTestServer(t)

	aliceID := joinTable(t, server, "game1", "Alice")
	conn := connectWS(t, server, "game1", aliceID)
	defer conn.Close()

	snap := readSnapshot(t, conn)
	if len(snap.Players) != 1 || snap.Players[0].Name != "Alice" {
		t.Fatalf("expected Alice seated in the initial snapshot, got %+v", snap.Players)
	}
	if snap.Phase != game.PhaseWaiting {
		t.Fatalf("expected the table to start in waiting phase, got %v", snap.Phase)
	}
}

func TestIntegration_SpectatorCannotAct(t *testing.T) {
	server := setupTestServer(t)
	joinTable(t, server, "game2", "Alice")

	spectator := connectWS(t, server, "game2", "")
	defer spectator.Close()
	readSnapshot(t, spectator) // initial snapshot

	sendIntent(t, spectator, map[string]string{"type": "draw_from_draw"})

	spectator.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := spectator.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var errMsg struct {
		Type  string `json:"type"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &errMsg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if errMsg.Type != "error" || errMsg.Error != string(game.ErrNotAPlayer) {
		t.Fatalf("expected a not_a_player error, got %+v", errMsg)
	}
}

func TestIntegration_TwoPlayersStartAndDealReveal(t *testing.T) {
	server := setupTestServer(t)

	aliceID := joinTable(t, server, "game3", "Alice")
	bobID := joinTable(t, server, "game3", "Bob")

	connA := connectWS(t, server, "game3", aliceID)
	defer connA.Close()
	connB := connectWS(t, server, "game3", bobID)
	defer connB.Close()

	readSnapshot(t, connA) // initial snapshot sent directly to Alice's connection
	readSnapshot(t, connA) // bob's reconnect-presence broadcast
	readSnapshot(t, connB) // initial snapshot sent directly to Bob's connection

	sendIntent(t, connA, map[string]string{"type": "start"})

	snapA := readSnapshot(t, connA)
	readSnapshot(t, connB)

	if snapA.Phase != game.PhaseReveal {
		t.Fatalf("expected reveal phase after start, got %v", snapA.Phase)
	}
	if len(snapA.Players) != 2 {
		t.Fatalf("expected 2 players dealt in, got %d", len(snapA.Players))
	}
	for _, p := range snapA.Players {
		for _, c := range p.Hand {
			if c.FaceUp {
				t.Fatalf("expected every card face-down immediately after deal, got a face-up card for %s", p.Name)
			}
			if c.Value != game.HiddenValue {
				t.Fatalf("expected a redacted hidden value, got %d", c.Value)
			}
		}
	}
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func TestIntegration_ReconnectRestoresPresenceForRestartVote(t *testing.T) {
	server := setupTestServer(t)

	aliceID := joinTable(t, server, "game4", "Alice")
	bobID := joinTable(t, server, "game4", "Bob")

	connA := connectWS(t, server, "game4", aliceID)
	readSnapshot(t, connA) // alice's own initial snapshot

	connB := connectWS(t, server, "game4", bobID)
	readSnapshot(t, connA) // bob's reconnect-presence broadcast
	readSnapshot(t, connB) // bob's own initial snapshot

	connA.Close()
	readSnapshot(t, connB) // alice's disconnect broadcast

	connA2 := connectWS(t, server, "game4", aliceID)
	defer connA2.Close()
	snap := readSnapshot(t, connA2) // alice's own initial snapshot, post-reconnect
	if !containsString(snap.ActivePlayerIDs, aliceID) {
		t.Fatalf("expected alice to be marked active again after reconnecting, got %v", snap.ActivePlayerIDs)
	}
	readSnapshot(t, connB) // alice's reconnect-presence broadcast

	sendIntent(t, connB, map[string]string{"type": "request_restart"})
	readSnapshot(t, connB)      // request_restart broadcast
	snap = readSnapshot(t, connA2) // request_restart broadcast

	if snap.RestartRequestedBy != bobID {
		t.Fatalf("expected a pending restart request from bob, got %+v", snap)
	}
	if !containsString(snap.RestartYesVotes, bobID) {
		t.Fatalf("expected bob's own yes vote recorded")
	}
	if containsString(snap.RestartYesVotes, aliceID) {
		t.Fatalf("alice must not be counted as voting until she actually votes")
	}
}

func TestIntegration_RejectedJoinOnInvalidTableName(t *testing.T) {
	server := setupTestServer(t)

	body, _ := json.Marshal(map[string]string{"table_name": "Invalid Name!", "player_name": "Alice"})
	resp, err := http.Post(server.URL+"/play9/join", "application/json", strings.NewReader(string(body)))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for an invalid table name, got %d", resp.StatusCode)
	}
}
