// Copyright 2026 The scripture-sync Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tiwa-codes/scripture-sync/core"
)

const (
	// writeWait bounds a single client write; a connection that cannot
	// accept a frame within this window is considered dead.
	writeWait = 5 * time.Second

	// sendBuffer is the per-client queue of outbound frames. A client this
	// far behind is disconnected rather than allowed to stall broadcasts.
	sendBuffer = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The operator console is served from a different origin.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Hub fans broadcast frames out to connected WebSocket clients and owns
// the display lock an operator can engage to keep the projected verse
// from changing. All methods are safe for concurrent use.
type Hub struct {
	logger *slog.Logger

	mu            sync.RWMutex
	clients       map[string]*client
	locked        bool
	lockedVerseId core.ID
}

// client is one WebSocket connection. Frames flow through the buffered
// send channel so one slow client never blocks the broadcaster.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a hub with no connected clients and the lock released.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:  logger.With("component", "hub"),
		clients: make(map[string]*client),
	}
}

// HandleWS upgrades the request and serves the connection until the
// client disconnects. It is mounted on GET /ws.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("error upgrading connection", "err", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	h.logger.Debug("client connected", "client_id", c.id)

	go c.writePump()
	c.readPump(h)
}

// readPump consumes inbound frames until the connection fails. Client
// frames carry no protocol meaning; reading only detects disconnects.
func (c *client) readPump(h *Hub) {
	defer h.unregister(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump moves frames from the send channel to the connection. It
// exits when the channel closes or a write fails; unregister follows via
// the read side noticing the dead connection.
func (c *client) writePump() {
	for frame := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			break
		}
	}
	_ = c.conn.Close()
}

// unregister removes a client and closes its connection. Safe to call
// more than once per client; only the call that finds the client still
// registered closes the send channel.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, registered := h.clients[c.id]
	if registered {
		delete(h.clients, c.id)
		// Closed under the write lock, so Broadcast (which sends under the
		// read lock) can never hit a closed channel.
		close(c.send)
	}
	h.mu.Unlock()

	_ = c.conn.Close()
	if registered {
		h.logger.Debug("client disconnected", "client_id", c.id)
	}
}

// Broadcast encodes message once and queues it for every connected
// client. Clients whose send buffer is full are dropped.
func (h *Hub) Broadcast(message any) {
	frame, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("error encoding broadcast frame", "err", err)
		return
	}

	var stalled []*client
	h.mu.RLock()
	for _, c := range h.clients {
		select {
		case c.send <- frame:
		default:
			stalled = append(stalled, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stalled {
		h.logger.Warn("client not keeping up, dropping connection", "client_id", c.id)
		h.unregister(c)
	}
}

// BroadcastMatch publishes a resolved live transcription as a
// verse_match frame. Its signature matches live.Broadcaster so the
// pipeline can be wired straight to the hub.
func (h *Hub) BroadcastMatch(text string, result *core.MatchResult) {
	h.Broadcast(verseMatchMessage{
		Type:      msgTypeVerseMatch,
		Text:      text,
		Verse:     newVersePayload(result.Verse),
		Score:     result.Score,
		LatencyMS: result.ElapsedMS,
	})
}

// SetLock updates the display lock and returns the applied state. The
// verse ID is recorded only while locking; unlocking always clears it.
func (h *Hub) SetLock(locked bool, verseId core.ID) (bool, core.ID) {
	if !locked {
		verseId = 0
	}
	h.mu.Lock()
	h.locked = locked
	h.lockedVerseId = verseId
	h.mu.Unlock()
	return locked, verseId
}

// Locked reports whether an operator has locked the display.
func (h *Hub) Locked() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.locked
}

// LockedVerse returns the pinned verse ID, zero while unlocked.
func (h *Hub) LockedVerse() core.ID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lockedVerseId
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client. The hub remains usable; new clients
// may connect afterwards.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		_ = c.conn.Close()
	}
}
