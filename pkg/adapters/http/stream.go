package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/ports"
)

// Event is one server-sent event.
type Event struct {
	Name string
	Data string
}

var _ ports.Emitter = (*StreamManager)(nil)

// StreamManager handles active SSE connections.
// Attached to the engine as an emitter, it pushes every message of a session
// to that session's subscribers, including paced ones emitted after the request returned.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{} // SessionID -> set of channels
	buffer      int
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan Event]struct{}),
		buffer:      16,
		logger:      logger,
	}
}

// Subscribe registers a channel for sessionID. The returned func unsubscribes and closes it.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan Event, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Event, sm.buffer)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan Event]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[sessionID]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(sm.subscribers, sessionID)
				}
			}
		})
	}
}

// Subscribers returns the number of open subscriptions for sessionID.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}

// Broadcast sends ev to every subscriber of sessionID. Slow clients drop events.
func (sm *StreamManager) Broadcast(sessionID string, ev Event) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- ev:
		default:
			sm.logger.Warn("sse client buffer full, dropping event", "session_id", sessionID, "event", ev.Name)
		}
	}
}

// BroadcastAll sends ev to every subscriber of every session.
func (sm *StreamManager) BroadcastAll(ev Event) {
	sm.mu.RLock()
	ids := make([]string, 0, len(sm.subscribers))
	for id := range sm.subscribers {
		ids = append(ids, id)
	}
	sm.mu.RUnlock()

	for _, id := range ids {
		sm.Broadcast(id, ev)
	}
}

// Emit implements ports.Emitter.
func (sm *StreamManager) Emit(_ context.Context, msg domain.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	sm.Broadcast(msg.SessionID, Event{Name: "message", Data: string(data)})
	return nil
}

// PublishDiff pushes a session diff produced by a synchronous call.
func (sm *StreamManager) PublishDiff(diff *domain.SessionDiff) {
	if diff == nil {
		return
	}
	data, err := json.Marshal(diff)
	if err != nil {
		return
	}
	sm.Broadcast(diff.SessionID, Event{Name: "session", Data: string(data)})
}
