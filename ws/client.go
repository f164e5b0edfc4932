package ws

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tomikazi/play9/game"
	"github.com/tomikazi/play9/table"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client is a middleman between one websocket connection and the Hub. A
// connection with PlayerID == "" is a read-only spectator.
type Client struct {
	Hub         *Hub
	Conn        *websocket.Conn
	Send        chan []byte
	TableName   string
	PlayerID    game.PlayerID
	IsSpectator bool

	session *table.Session
}

// readPump pumps messages from the websocket connection to the session.
// It runs in its own goroutine per connection.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws read error: %v", err)
			}
			break
		}
		c.handleMessage(message)
	}
}

// writePump pumps messages from the send channel to the websocket
// connection. It runs in its own goroutine per connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var intentTypes = map[string]game.IntentType{
	"start":                   game.IntentStart,
	"reveal":                  game.IntentReveal,
	"draw_from_draw":          game.IntentDrawFromDraw,
	"draw_from_discard":       game.IntentDrawFromDiscard,
	"play_replace":            game.IntentPlayReplace,
	"play_discard_only":       game.IntentPlayDiscardOnly,
	"play_flip_after_discard": game.IntentPlayFlipAfterDiscard,
	"play_put_back":           game.IntentPlayPutBack,
	"advance_scoring":         game.IntentAdvanceScoring,
	"request_restart":         game.IntentRequestRestart,
	"vote_restart":            game.IntentVoteRestart,
	"vote_restart_no":         game.IntentVoteRestartNo,
	"heartbeat":               game.IntentHeartbeat,
}

func (c *Client) handleMessage(data []byte) {
	var env InboundEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		safeSend(c.Send, marshalError(string(game.ErrInvalidInput), "malformed message"))
		return
	}

	it, ok := intentTypes[env.Type]
	if !ok {
		safeSend(c.Send, marshalError(string(game.ErrInvalidInput), "unknown intent type: "+env.Type))
		return
	}

	if c.IsSpectator && it != game.IntentHeartbeat {
		safeSend(c.Send, marshalError(string(game.ErrNotAPlayer), "spectators may only send heartbeat"))
		return
	}

	_, rej := c.session.Submit(game.Intent{
		Type:      it,
		Actor:     c.PlayerID,
		CardIndex: env.CardIndex,
		NowEpoch:  time.Now().Unix(),
	})
	if rej != nil {
		safeSend(c.Send, marshalError(string(rej.Kind), rej.Message))
	}
}
