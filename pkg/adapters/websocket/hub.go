// Package websocket delivers conversations to browser chat widgets over WebSocket.
package websocket

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/aretw0/chatflow/internal/logging"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/ports"
	"github.com/aretw0/chatflow/pkg/runner"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 32
)

// Inbound envelope types.
const (
	TypeStart = "start"
	TypeInput = "input"
	TypeReset = "reset"
)

// Outbound envelope types.
const (
	TypeMessage = "message"
	TypeSession = "session"
	TypeError   = "error"
)

// Inbound is what a widget sends.
type Inbound struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Text      string `json:"text,omitempty"`
}

// Outbound is what the hub pushes to a widget.
type Outbound struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// SessionInfo is the payload of a "session" envelope.
type SessionInfo struct {
	Status        domain.Status   `json:"status"`
	CurrentNodeID string          `json:"currentNodeId,omitempty"`
	ActiveChoices []domain.Choice `json:"activeChoices"`
}

type emitterAttacher interface {
	AddEmitter(ports.Emitter)
}

var _ ports.Emitter = (*Hub)(nil)

// Hub upgrades connections, binds each one to a session and fans emissions out to them.
type Hub struct {
	engine       ports.Interpreter
	upgrader     websocket.Upgrader
	logger       *slog.Logger
	origins      []string
	maxInput     int
	pingInterval time.Duration
	readTimeout  time.Duration
	attached     bool

	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
}

// Option configures the Hub.
type Option func(*Hub)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		h.logger = logger
	}
}

// WithAllowedOrigins restricts which pages may open a socket. "*" or no origins allows any.
func WithAllowedOrigins(origins ...string) Option {
	return func(h *Hub) {
		h.origins = origins
	}
}

func WithMaxInputSize(n int) Option {
	return func(h *Hub) {
		h.maxInput = n
	}
}

// WithKeepalive sets the ping interval. The read deadline is extended on every pong.
func WithKeepalive(ping time.Duration) Option {
	return func(h *Hub) {
		h.pingInterval = ping
		h.readTimeout = ping * 10 / 9
	}
}

// NewHub creates a hub. If engine accepts emitters the hub attaches itself,
// so paced messages reach the socket after the triggering call returned.
func NewHub(engine ports.Interpreter, opts ...Option) *Hub {
	h := &Hub{
		engine:       engine,
		pingInterval: 54 * time.Second,
		readTimeout:  60 * time.Second,
		clients:      make(map[string]map[*client]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logging.NewNop()
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	if a, ok := engine.(emitterAttacher); ok {
		a.AddEmitter(h)
		h.attached = true
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.origins) == 0 || slices.Contains(h.origins, "*") {
		return true
	}
	return slices.Contains(h.origins, r.Header.Get("Origin"))
}

// Connections returns the number of sockets bound to sessionID.
func (h *Hub) Connections(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// Emit implements ports.Emitter.
func (h *Hub) Emit(_ context.Context, msg domain.Message) error {
	h.broadcast(msg.SessionID, Outbound{Type: TypeMessage, SessionID: msg.SessionID, Data: msg})
	return nil
}

func (h *Hub) broadcast(sessionID string, out Outbound) {
	out.Timestamp = time.Now().Unix()
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[sessionID] {
		c.enqueue(out)
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.sessionID] == nil {
		h.clients[c.sessionID] = make(map[*client]struct{})
	}
	h.clients[c.sessionID][c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.clients[c.sessionID]; ok {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.clients, c.sessionID)
		}
	}
	c.close()
}

// ServeHTTP upgrades the request. The session is taken from the "session" query
// parameter or generated.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	c := newClient(conn, sessionID)
	h.register(c)
	defer h.unregister(c)

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()
	go h.writeLoop(ctx, c)

	h.logger.Debug("websocket connected", "session_id", sessionID)
	h.sendSession(ctx, c)

	h.readLoop(ctx, c)
	h.logger.Debug("websocket disconnected", "session_id", sessionID)
}

func (h *Hub) readLoop(ctx context.Context, c *client) {
	_ = c.conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	})

	for {
		var in Inbound
		if err := c.conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read failed", "session_id", c.sessionID, "err", err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(h.readTimeout))

		if in.SessionID != "" && in.SessionID != c.sessionID {
			c.enqueue(errorEnvelope(c.sessionID, "session mismatch"))
			continue
		}
		h.handle(ctx, c, in)
	}
}

func (h *Hub) handle(ctx context.Context, c *client, in Inbound) {
	var (
		res *domain.StepResult
		err error
	)
	switch in.Type {
	case TypeStart:
		res, err = h.engine.Start(ctx, c.sessionID)
	case TypeReset:
		res, err = h.engine.Reset(ctx, c.sessionID)
	case TypeInput:
		text, serr := runner.SanitizeInputLimit(in.Text, h.maxInput)
		if serr != nil {
			c.enqueue(errorEnvelope(c.sessionID, serr.Error()))
			return
		}
		res, err = h.engine.HandleInput(ctx, c.sessionID, text)
	default:
		c.enqueue(errorEnvelope(c.sessionID, "unknown message type"))
		return
	}

	if err != nil {
		h.logger.Error("websocket step failed", "session_id", c.sessionID, "type", in.Type, "err", err)
		c.enqueue(errorEnvelope(c.sessionID, clientError(err)))
		return
	}
	if !h.attached {
		for _, m := range res.Messages {
			c.enqueue(Outbound{Type: TypeMessage, SessionID: c.sessionID, Data: m, Timestamp: time.Now().Unix()})
		}
	}
	h.broadcast(c.sessionID, sessionEnvelope(res.Session))
}

func (h *Hub) sendSession(ctx context.Context, c *client) {
	s, err := h.engine.Session(ctx, c.sessionID)
	if err != nil {
		s = domain.NewSession(c.sessionID)
	}
	out := sessionEnvelope(s)
	out.Timestamp = time.Now().Unix()
	c.enqueue(out)
}

func (h *Hub) writeLoop(ctx context.Context, c *client) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case out := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(out); err != nil {
				h.logger.Debug("websocket write failed", "session_id", c.sessionID, "err", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func sessionEnvelope(s *domain.Session) Outbound {
	return Outbound{
		Type:      TypeSession,
		SessionID: s.SessionID,
		Data: SessionInfo{
			Status:        s.Status(),
			CurrentNodeID: s.CurrentNodeID,
			ActiveChoices: s.ActiveChoices,
		},
	}
}

func errorEnvelope(sessionID, message string) Outbound {
	return Outbound{
		Type:      TypeError,
		SessionID: sessionID,
		Data:      map[string]string{"message": message},
		Timestamp: time.Now().Unix(),
	}
}

// clientError hides internals behind the sentinel the widget can act on.
func clientError(err error) string {
	for _, sentinel := range []error{domain.ErrStoreUnavailable, domain.ErrLockTimeout, domain.ErrNoGraph} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "internal error"
}

type client struct {
	conn      *websocket.Conn
	sessionID string
	send      chan Outbound
	done      chan struct{}
	once      sync.Once
}

func newClient(conn *websocket.Conn, sessionID string) *client {
	return &client{
		conn:      conn,
		sessionID: sessionID,
		send:      make(chan Outbound, sendBuffer),
		done:      make(chan struct{}),
	}
}

// enqueue drops the envelope when the client buffer is full.
func (c *client) enqueue(out Outbound) {
	select {
	case <-c.done:
	case c.send <- out:
	default:
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}
