package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultHeartbeat is how often idle stream connections are pinged
const DefaultHeartbeat = 30 * time.Second

// DefaultReadLimit is the largest frame a stream client may send
const DefaultReadLimit int64 = 64 * 1024

// StreamManager tracks active stemming stream connections
type StreamManager struct {
	connections    map[string]*StreamConnection
	mu             sync.RWMutex
	nextID         atomic.Uint64
	heartbeat      time.Duration
	readLimit      int64
	allowedOrigins []string
	upgrader       websocket.Upgrader
	closed         bool
}

// StreamOption configures a StreamManager
type StreamOption func(*StreamManager)

// WithReadLimit caps the size of a client frame. Larger frames close the
// connection.
func WithReadLimit(n int64) StreamOption {
	return func(m *StreamManager) {
		if n > 0 {
			m.readLimit = n
		}
	}
}

// WithAllowedOrigins restricts the browser origins that may open a stream.
// An empty list or "*" allows every origin.
func WithAllowedOrigins(origins []string) StreamOption {
	return func(m *StreamManager) {
		m.allowedOrigins = origins
	}
}

// StreamConnection represents an active WebSocket connection
type StreamConnection struct {
	id         string
	conn       *websocket.Conn
	cancelFunc context.CancelFunc
	mu         sync.Mutex // serializes writes
}

// NewStreamManager creates a stream manager that sends a heartbeat every
// heartbeat interval (DefaultHeartbeat when zero)
func NewStreamManager(heartbeat time.Duration, opts ...StreamOption) *StreamManager {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	m := &StreamManager{
		connections: make(map[string]*StreamConnection),
		heartbeat:   heartbeat,
		readLimit:   DefaultReadLimit,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     m.checkOrigin,
	}
	return m
}

// checkOrigin accepts requests without an Origin header, same-host origins
// and origins on the allow list
func (m *StreamManager) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(m.allowedOrigins) == 0 {
		return true
	}
	for _, o := range m.allowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}

// Count returns the number of open connections
func (m *StreamManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

// Close closes all active connections and rejects new ones
func (m *StreamManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	for _, conn := range m.connections {
		conn.Close()
	}
	m.connections = make(map[string]*StreamConnection)
	return nil
}

// addConnection registers a new connection
func (m *StreamManager) addConnection(conn *StreamConnection) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	m.connections[conn.id] = conn
	return true
}

// removeConnection unregisters a connection
func (m *StreamManager) removeConnection(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.connections, id)
}

// Close closes a stream connection
func (c *StreamConnection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}

func (c *StreamConnection) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// StreamRequest is one frame sent by the client
type StreamRequest struct {
	ID        string `json:"id,omitempty"` // echoed back to correlate replies
	Algorithm string `json:"algorithm,omitempty"`
	Word      string `json:"word"`
}

// StreamResponse is one frame sent to the client
type StreamResponse struct {
	Type      string `json:"type"` // "connected", "stem", "error", "heartbeat"
	ID        string `json:"id,omitempty"`
	Algorithm string `json:"algorithm,omitempty"`
	Word      string `json:"word,omitempty"`
	Stem      string `json:"stem,omitempty"`
	Error     string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
}

// HandleStemStream handles WebSocket connections that stem one word per frame
func (h *Handlers) HandleStemStream(manager *StreamManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Upgrade HTTP connection to WebSocket
		conn, err := manager.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("Failed to upgrade connection",
				slog.String("origin", r.Header.Get("Origin")),
				slog.String("error", err.Error()))
			return
		}
		conn.SetReadLimit(manager.readLimit)

		connID := fmt.Sprintf("ws-%d", manager.nextID.Add(1))
		ctx, cancel := context.WithCancel(context.Background())

		wsConn := &StreamConnection{
			id:         connID,
			conn:       conn,
			cancelFunc: cancel,
		}

		if !manager.addConnection(wsConn) {
			wsConn.Close()
			return
		}
		defer func() {
			manager.removeConnection(connID)
			wsConn.Close()
		}()

		ack := StreamResponse{
			Type:    "connected",
			Message: "Send {\"word\": ..., \"algorithm\": ...} frames",
		}
		if err := wsConn.writeJSON(ack); err != nil {
			h.logger.Debug("Failed to send acknowledgment", slog.String("error", err.Error()))
			return
		}

		// Heartbeat keeps idle connections alive through proxies
		go func() {
			ticker := time.NewTicker(manager.heartbeat)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := wsConn.writeJSON(StreamResponse{Type: "heartbeat", Message: "keepalive"}); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					h.logger.Debug("Stream connection closed", slog.String("id", connID), slog.String("error", err.Error()))
				}
				return
			}

			var resp StreamResponse
			var req StreamRequest
			if err := json.Unmarshal(data, &req); err != nil {
				resp = StreamResponse{Type: "error", Error: "BadRequest", Message: "invalid JSON: " + err.Error()}
			} else {
				resp = h.stemFrame(req)
			}

			if err := wsConn.writeJSON(resp); err != nil {
				h.logger.Debug("Failed to send stem", slog.String("id", connID), slog.String("error", err.Error()))
				return
			}
		}
	}
}

// stemFrame answers one stream request. Errors are reported in the frame
// and leave the connection open.
func (h *Handlers) stemFrame(req StreamRequest) StreamResponse {
	algorithm := h.algorithm(req.Algorithm)
	stem, err := h.toolkit.Stem(req.Word, algorithm)
	if err != nil {
		_, errorType := Status(err)
		return StreamResponse{
			Type:      "error",
			ID:        req.ID,
			Algorithm: algorithm,
			Word:      req.Word,
			Error:     errorType,
			Message:   err.Error(),
		}
	}
	return StreamResponse{
		Type:      "stem",
		ID:        req.ID,
		Algorithm: algorithm,
		Word:      req.Word,
		Stem:      stem,
	}
}
