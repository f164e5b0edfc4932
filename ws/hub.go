package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tomikazi/play9/game"
	"github.com/tomikazi/play9/registry"
	"github.com/tomikazi/play9/table"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub maintains, per table, the set of player and spectator connections
// and routes their inbound intents to the table's Session.
type Hub struct {
	mu       sync.Mutex
	tables   map[string]map[*Client]bool
	registry *registry.Registry
	log      *slog.Logger
}

// NewHub creates a Hub. Call SetRegistry before serving any connection;
// the two are constructed separately to break the Hub<->Registry
// construction cycle (the registry needs a Broadcaster, which the Hub
// implements).
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		tables: make(map[string]map[*Client]bool),
		log:    logger,
	}
}

// SetRegistry attaches the registry this Hub routes intents and presence
// notifications to.
func (h *Hub) SetRegistry(reg *registry.Registry) {
	h.registry = reg
}

// Broadcast implements table.Broadcaster: fan a table's snapshot out to
// every subscriber of that table. No per-subscriber redaction is needed
// since Snapshot already carries none.
func (h *Hub) Broadcast(tableName string, snap *game.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		if h.log != nil {
			h.log.Error("snapshot marshal failed", "tag", "ws", "table", tableName, "err", err)
		}
		return
	}
	h.mu.Lock()
	subs := h.tables[tableName]
	clients := make([]*Client, 0, len(subs))
	for c := range subs {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	for _, c := range clients {
		safeSend(c.Send, data)
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.tables[c.TableName]
	if !ok {
		set = make(map[*Client]bool)
		h.tables[c.TableName] = set
	}
	set[c] = true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	set, ok := h.tables[c.TableName]
	if ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.tables, c.TableName)
		}
	}
	h.mu.Unlock()
	close(c.Send)

	sess := h.registry.Get(c.TableName)
	if sess == nil {
		return
	}
	if c.IsSpectator {
		sess.NotifySpectator(-1)
		return
	}
	sess.Submit(game.Intent{Type: game.IntentDisconnect, Actor: c.PlayerID})
}

// hasLivePlayer reports whether any registered, non-spectator connection
// on tableName is already bound to playerID.
func (h *Hub) hasLivePlayer(tableName string, playerID game.PlayerID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.tables[tableName] {
		if !c.IsSpectator && c.PlayerID == playerID {
			return true
		}
	}
	return false
}

// ServeWS upgrades the request and attaches a Client to tableName. When
// playerID is empty the connection is a spectator and may only send
// heartbeat.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, ctx context.Context, tableName string, playerID game.PlayerID) {
	isSpectator := playerID == ""
	if !isSpectator && h.hasLivePlayer(tableName, playerID) {
		http.Error(w, "already_connected", http.StatusConflict)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		if h.log != nil {
			h.log.Error("websocket upgrade failed", "tag", "ws", "err", err)
		}
		return
	}

	sess := h.registry.GetOrCreate(ctx, tableName)
	if !isSpectator {
		// Restore presence on every (re)connection, not just the first
		// join: applyDisconnect drops ActivePlayerIDs on every closed
		// connection, and nothing else sets it back short of replaying
		// IntentJoin, which a reconnecting client has no reason to do.
		sess.Submit(game.Intent{Type: game.IntentReconnect, Actor: playerID, NowEpoch: time.Now().Unix()})
	} else {
		sess.NotifySpectator(1)
	}

	c := &Client{
		Hub:         h,
		Conn:        conn,
		Send:        make(chan []byte, 256),
		TableName:   tableName,
		PlayerID:    playerID,
		IsSpectator: isSpectator,
		session:     sess,
	}
	h.register(c)
	safeSend(c.Send, marshalSnapshot(sess))

	go c.writePump()
	go c.readPump()
}

func marshalSnapshot(sess *table.Session) []byte {
	data, _ := json.Marshal(sess.Snapshot())
	return data
}
