package webhook

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Jeffail/gabs/v2"

	"github.com/aretw0/chatflow/internal/logging"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/ports"
	"github.com/aretw0/chatflow/pkg/runner"
)

const maxPayload = 1 << 20

// Handler receives channel callbacks and feeds them to the engine.
// A payload without text starts (or re-prompts) the session.
type Handler struct {
	engine      ports.Interpreter
	sessionPath string
	textPath    string
	maxInput    int
	logger      *slog.Logger
}

// HandlerOption configures the Handler.
type HandlerOption func(*Handler)

// WithPaths sets the dot paths of the session id and the text inside the payload,
// e.g. "message.chat.id" and "message.text".
func WithPaths(sessionPath, textPath string) HandlerOption {
	return func(h *Handler) {
		if sessionPath != "" {
			h.sessionPath = sessionPath
		}
		if textPath != "" {
			h.textPath = textPath
		}
	}
}

func WithHandlerLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

func WithMaxInputSize(n int) HandlerOption {
	return func(h *Handler) {
		h.maxInput = n
	}
}

func NewHandler(engine ports.Interpreter, opts ...HandlerOption) *Handler {
	h := &Handler{
		engine:      engine,
		sessionPath: "sessionId",
		textPath:    "text",
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logging.NewNop()
	}
	return h
}

// Reply is the synchronous answer to a callback.
type Reply struct {
	SessionID string           `json:"sessionId"`
	Status    domain.Status    `json:"status"`
	Messages  []domain.Message `json:"messages"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		reply(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxPayload))
	if err != nil {
		reply(w, http.StatusBadRequest, map[string]string{"error": "unreadable body"})
		return
	}
	payload, err := gabs.ParseJSON(data)
	if err != nil {
		reply(w, http.StatusBadRequest, map[string]string{"error": "payload is not JSON"})
		return
	}

	sessionID, ok := scalar(payload, h.sessionPath)
	if !ok || sessionID == "" {
		reply(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("no session id at %q", h.sessionPath)})
		return
	}

	var res *domain.StepResult
	if text, ok := scalar(payload, h.textPath); ok {
		clean, serr := runner.SanitizeInputLimit(text, h.maxInput)
		if serr != nil {
			reply(w, http.StatusBadRequest, map[string]string{"error": serr.Error()})
			return
		}
		res, err = h.engine.HandleInput(r.Context(), sessionID, clean)
	} else {
		res, err = h.engine.Start(r.Context(), sessionID)
	}
	if err != nil {
		h.logger.Error("webhook step failed", "session_id", sessionID, "err", err)
		reply(w, http.StatusServiceUnavailable, map[string]string{"error": "conversation unavailable"})
		return
	}

	reply(w, http.StatusOK, Reply{
		SessionID: sessionID,
		Status:    res.Session.Status(),
		Messages:  res.Messages,
	})
}

// scalar reads a string or number at path. Numbers are common for chat ids.
func scalar(c *gabs.Container, path string) (string, bool) {
	if !c.ExistsP(path) {
		return "", false
	}
	switch v := c.Path(path).Data().(type) {
	case string:
		return strings.TrimSpace(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case json.Number:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
