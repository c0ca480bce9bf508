package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventSessionStart  EventType = "session_start"
	EventNodeEnter     EventType = "node_enter"
	EventInvalidChoice EventType = "invalid_choice"
	EventInertInput    EventType = "inert_input"
	EventTerminate     EventType = "terminate"
)

// TerminateReason explains why a session left the graph.
type TerminateReason string

const (
	ReasonFinalized  TerminateReason = "finalized"  // a finalize node was reached
	ReasonBranchEnd  TerminateReason = "branch_end" // a sendMessage node had no continuation
	ReasonUnresolved TerminateReason = "unresolved" // a choice had no edge or an edge led back to start
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// NodeEvent represents entry into a node.
type NodeEvent struct {
	EventBase
	NodeID string   `json:"node_id"`
	Kind   NodeKind `json:"kind"`
}

// InputEvent represents user input that did not move the session.
type InputEvent struct {
	EventBase
	NodeID string `json:"node_id,omitempty"`
	Input  string `json:"input"`
}

// SessionEvent represents a session starting or terminating.
type SessionEvent struct {
	EventBase
	NodeID string          `json:"node_id,omitempty"`
	Reason TerminateReason `json:"reason,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnSessionStart  func(context.Context, *SessionEvent)
	OnNodeEnter     func(context.Context, *NodeEvent)
	OnInvalidChoice func(context.Context, *InputEvent)
	OnInertInput    func(context.Context, *InputEvent)
	OnTerminate     func(context.Context, *SessionEvent)
}

// MergeHooks combines hooks so every non-nil callback of each set runs in order.
func MergeHooks(sets ...LifecycleHooks) LifecycleHooks {
	var out LifecycleHooks
	for _, h := range sets {
		out.OnSessionStart = chain(out.OnSessionStart, h.OnSessionStart)
		out.OnNodeEnter = chain(out.OnNodeEnter, h.OnNodeEnter)
		out.OnInvalidChoice = chain(out.OnInvalidChoice, h.OnInvalidChoice)
		out.OnInertInput = chain(out.OnInertInput, h.OnInertInput)
		out.OnTerminate = chain(out.OnTerminate, h.OnTerminate)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
