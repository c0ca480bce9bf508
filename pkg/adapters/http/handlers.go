package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/aretw0/chatflow/internal/presentation/diagram"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/graph"
	"github.com/aretw0/chatflow/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxGraphBody bounds PUT /graph uploads.
const maxGraphBody = 4 << 20

// StepResponse is the body returned by every call that advances a session.
type StepResponse struct {
	SessionID string              `json:"sessionId"`
	Status    domain.Status       `json:"status"`
	Session   *domain.Session     `json:"session"`
	Messages  []domain.Message    `json:"messages"`
	Diff      *domain.SessionDiff `json:"diff,omitempty"`
}

type inputRequest struct {
	Text string `json:"text"`
}

type createRequest struct {
	SessionID string `json:"sessionId"`
}

func (s *Server) respondStep(w http.ResponseWriter, status int, res *domain.StepResult) {
	s.streams.PublishDiff(res.Diff)
	messages := res.Messages
	if messages == nil {
		messages = []domain.Message{}
	}
	writeJSON(w, status, StepResponse{
		SessionID: res.Session.SessionID,
		Status:    res.Session.Status(),
		Session:   res.Session,
		Messages:  messages,
		Diff:      res.Diff,
	})
}

func (s *Server) getHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getInfo(w http.ResponseWriter, _ *http.Request) {
	info := map[string]any{
		"app":     "chatflow",
		"version": s.version,
	}
	if g := s.engine.Graph(); g != nil {
		info["graph"] = map[string]int{
			"nodes": g.Len(),
			"edges": len(g.Edges()),
		}
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) getGraph(w http.ResponseWriter, r *http.Request) {
	g := s.engine.Graph()
	if g == nil {
		s.writeError(w, r, domain.ErrNoGraph)
		return
	}
	writeJSON(w, http.StatusOK, g.Document())
}

func (s *Server) getMermaid(w http.ResponseWriter, r *http.Request) {
	g := s.engine.Graph()
	if g == nil {
		s.writeError(w, r, domain.ErrNoGraph)
		return
	}
	var overlay *diagram.Overlay
	if id := r.URL.Query().Get("session"); id != "" {
		sess, err := s.engine.Session(r.Context(), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		overlay = &diagram.Overlay{CurrentNode: sess.CurrentNodeID}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, diagram.GenerateMermaid(g, overlay))
}

// putGraph replaces the running graph. The body is JSON unless the content type says YAML.
func (s *Server) putGraph(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxGraphBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unreadable body"})
		return
	}

	g, err := graph.Parse(data, formatOf(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.engine.Replace(g); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.streams.BroadcastAll(Event{Name: "graph", Data: fmt.Sprintf(`{"nodes":%d}`, g.Len())})
	writeJSON(w, http.StatusOK, map[string]int{"nodes": g.Len(), "edges": len(g.Edges())})
}

func formatOf(r *http.Request) graph.Format {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.Contains(mt, "yaml") {
		return graph.FormatYAML
	}
	return graph.FormatJSON
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.engine.Sessions(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// createSession starts a conversation under a generated id, or the one given in the body.
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
	}
	id := strings.TrimSpace(req.SessionID)
	if id == "" {
		id = uuid.NewString()
	}

	res, err := s.engine.Start(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondStep(w, http.StatusCreated, res)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.Session(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		*domain.Session
		Status domain.Status `json:"status"`
	}{sess, sess.Status()})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Delete(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Start(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondStep(w, http.StatusOK, res)
}

func (s *Server) resetSession(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Reset(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondStep(w, http.StatusOK, res)
}

func (s *Server) sendInput(w http.ResponseWriter, r *http.Request) {
	var req inputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	text, err := runner.SanitizeInputLimit(req.Text, s.maxInput)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.engine.HandleInput(r.Context(), chi.URLParam(r, "sessionID"), text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondStep(w, http.StatusOK, res)
}

// subscribeEvents streams the session's emissions as server-sent events.
func (s *Server) subscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming not supported"})
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	ch, cancel := s.streams.Subscribe(sessionID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprint(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Debug("sse subscribed", "session_id", sessionID)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("sse client disconnected", "session_id", sessionID)
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, ev.Data)
			flusher.Flush()
		}
	}
}
