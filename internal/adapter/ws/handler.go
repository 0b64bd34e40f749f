// Package ws implements the WebSocket adapter that pushes live invoice
// changes to the preview page.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// writeTimeout bounds each write so one stalled client cannot hold up a
// broadcast.
const writeTimeout = 5 * time.Second

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// conn wraps a single WebSocket connection.
type conn struct {
	ws     *websocket.Conn
	cancel context.CancelFunc
}

// Hub manages all active WebSocket connections and broadcasts messages.
type Hub struct {
	originPatterns []string
	onConnect      func(ctx context.Context) (Message, bool)

	mu    sync.RWMutex
	conns map[*conn]struct{}
}

// NewHub creates a hub that accepts connections from the given origin host
// patterns (see websocket.AcceptOptions.OriginPatterns). Same-origin
// requests are always accepted.
func NewHub(originPatterns []string) *Hub {
	return &Hub{
		originPatterns: originPatterns,
		conns:          make(map[*conn]struct{}),
	}
}

// OnConnect registers fn to produce the first message sent to each new
// client, typically the current invoice state.
func (h *Hub) OnConnect(fn func(ctx context.Context) (Message, bool)) {
	h.onConnect = fn
}

// HandleWS upgrades the request to a WebSocket and keeps it registered
// until the client goes away.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		slog.WarnContext(r.Context(), "websocket accept failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &conn{ws: ws, cancel: cancel}

	if h.onConnect != nil {
		if msg, ok := h.onConnect(r.Context()); ok {
			h.write(ctx, c, msg)
		}
	}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	slog.InfoContext(r.Context(), "websocket connected", "remote", r.RemoteAddr)

	// Read loop (to detect disconnects and consume pings)
	go func() {
		defer func() {
			h.remove(c)
			_ = ws.Close(websocket.StatusNormalClosure, "")
		}()
		for {
			if _, _, err := ws.Read(ctx); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(ctx context.Context, msg Message) {
	h.mu.RLock()
	targets := make([]*conn, 0, len(h.conns))
	for c := range h.conns {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.write(ctx, c, msg)
	}
}

func (h *Hub) write(ctx context.Context, c *conn, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("websocket marshal failed", "type", msg.Type, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()
	if err := c.ws.Write(ctx, websocket.MessageText, data); err != nil {
		slog.Debug("websocket write failed", "error", err)
		h.remove(c)
	}
}

// ConnectionCount returns the number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := h.conns
	h.conns = make(map[*conn]struct{})
	h.mu.Unlock()

	var wg sync.WaitGroup
	for c := range conns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.ws.Close(websocket.StatusGoingAway, "server shutting down")
			c.cancel()
		}()
	}
	wg.Wait()
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c]; ok {
		c.cancel()
		delete(h.conns, c)
		slog.Info("websocket disconnected")
	}
}
