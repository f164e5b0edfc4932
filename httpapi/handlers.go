// Package httpapi implements the thin HTTP boundary described by the
// external interface surface: join/leave/state endpoints and the
// WebSocket upgrade. Page rendering is deliberately minimal — the actual
// HTML/CSS/JS client is an external collaborator.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tomikazi/play9/game"
	"github.com/tomikazi/play9/leaderboard"
	"github.com/tomikazi/play9/registry"
	"github.com/tomikazi/play9/ws"
)

// Server wires the registry, ws hub, and leaderboard store to the
// /play9 HTTP surface.
type Server struct {
	reg   *registry.Registry
	hub   *ws.Hub
	board *leaderboard.Store
	log   *slog.Logger
}

// NewServer constructs a Server.
func NewServer(reg *registry.Registry, hub *ws.Hub, board *leaderboard.Store, logger *slog.Logger) *Server {
	return &Server{reg: reg, hub: hub, board: board, log: logger}
}

// Register attaches every /play9 route to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/play9", s.handleLobby)
	mux.HandleFunc("/play9/table/", s.handleTablePage)
	mux.HandleFunc("/play9/player/", s.handlePlayerPage)
	mux.HandleFunc("/play9/join", s.handleJoin)
	mux.HandleFunc("/play9/leave", s.handleLeave)
	mux.HandleFunc("/play9/api/table/", s.handleAPITable)
	mux.HandleFunc("/play9/api/leaderboard", s.handleAPILeaderboard)
	mux.HandleFunc("/play9/ws/", s.handleWS)
}

func (s *Server) handleLobby(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(`<!doctype html><title>play9</title><p>play9 lobby.</p>`))
}

func (s *Server) handleTablePage(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/play9/table/")
	if !registry.ValidTableName(name) {
		http.Error(w, "invalid table name", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(`<!doctype html><title>play9 - ` + name + `</title><p>spectating ` + name + `</p>`))
}

func (s *Server) handlePlayerPage(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/play9/player/")
	if !registry.ValidTableName(name) {
		http.Error(w, "invalid table name", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(`<!doctype html><title>play9 - ` + name + `</title><p>playing ` + name + `</p>`))
}

type joinRequest struct {
	TableName  string `json:"table_name"`
	PlayerName string `json:"player_name,omitempty"`
}

type joinResponse struct {
	TableName string `json:"table_name"`
	PlayerID  string `json:"player_id,omitempty"`
}

type errResponse struct {
	Detail string `json:"detail"`
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errResponse{Detail: detail})
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if !registry.ValidTableName(req.TableName) {
		writeError(w, http.StatusBadRequest, "invalid table name")
		return
	}
	sess := s.reg.GetOrCreate(context.Background(), req.TableName)

	if req.PlayerName == "" {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(joinResponse{TableName: req.TableName})
		return
	}
	if !registry.ValidPlayerName(req.PlayerName) {
		writeError(w, http.StatusBadRequest, "invalid player name")
		return
	}

	id := game.PlayerID(uuid.NewString())
	ev, rej := sess.Submit(game.Intent{
		Type:     game.IntentJoin,
		Actor:    id,
		Name:     req.PlayerName,
		NowEpoch: nowUnix(),
	})
	if rej != nil {
		writeError(w, rejectionStatus(rej.Kind), rej.Message)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(joinResponse{TableName: req.TableName, PlayerID: string(ev.PlayerID)})
}

type leaveRequest struct {
	TableName string `json:"table_name"`
	PlayerID  string `json:"player_id"`
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req leaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	sess := s.reg.Get(req.TableName)
	if sess == nil {
		// Idempotent: leaving a table that no longer exists is not an error.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	sess.Submit(game.Intent{Type: game.IntentLeave, Actor: game.PlayerID(req.PlayerID)})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAPITable(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/play9/api/table/")
	sess := s.reg.Get(name)
	if sess == nil {
		writeError(w, http.StatusNotFound, "table not found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(sess.Snapshot())
}

func (s *Server) handleAPILeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	list, err := s.board.ListLeaderboard(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/play9/ws/")
	if !registry.ValidTableName(name) {
		http.Error(w, "invalid table name", http.StatusBadRequest)
		return
	}
	playerID := game.PlayerID(r.URL.Query().Get("id"))
	s.hub.ServeWS(w, r, r.Context(), name, playerID)
}

func nowUnix() int64 { return time.Now().Unix() }

func rejectionStatus(kind game.ErrorKind) int {
	switch kind {
	case game.ErrTableFull, game.ErrGameAlreadyStarted:
		return http.StatusConflict
	case game.ErrInvalidName, game.ErrInvalidInput:
		return http.StatusBadRequest
	case game.ErrNotAPlayer:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}
