package domain

import (
	"slices"
	"time"
)

// Status is the interpreter state a session is in.
type Status string

const (
	StatusIdle       Status = "idle"       // Never started
	StatusAdvancing  Status = "advancing"  // Walking non-interactive nodes
	StatusAwaiting   Status = "awaiting"   // Parked on an options node
	StatusTerminated Status = "terminated" // Finalized or branch ended
)

// Session is the live state of one conversation.
// An empty CurrentNodeID means the flow has not started or has terminated.
type Session struct {
	SessionID     string    `json:"sessionId"`
	CurrentNodeID string    `json:"currentNodeId,omitempty"`
	AwaitingInput bool      `json:"awaitingInput"`
	ActiveChoices []Choice  `json:"activeChoices"`
	ActivePrompt  string    `json:"activePrompt"`
	Terminated    bool      `json:"terminated,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt,omitzero"`
}

// NewSession creates an idle session.
func NewSession(sessionID string) *Session {
	return &Session{
		SessionID:     sessionID,
		ActiveChoices: []Choice{},
	}
}

// Status derives the interpreter state from the persisted fields.
func (s *Session) Status() Status {
	switch {
	case s.CurrentNodeID == "" && s.Terminated:
		return StatusTerminated
	case s.CurrentNodeID == "":
		return StatusIdle
	case s.AwaitingInput:
		return StatusAwaiting
	default:
		return StatusAdvancing
	}
}

// Active reports whether the session is somewhere inside the graph.
func (s *Session) Active() bool {
	return s.CurrentNodeID != ""
}

// Advance parks the session on a non-interactive node.
func (s *Session) Advance(nodeID string) {
	s.CurrentNodeID = nodeID
	s.AwaitingInput = false
	s.ActiveChoices = []Choice{}
	s.ActivePrompt = ""
	s.Terminated = false
}

// Await parks the session on an options node.
func (s *Session) Await(node *Node) {
	s.CurrentNodeID = node.ID
	s.AwaitingInput = true
	s.ActiveChoices = slices.Clone(node.Choices)
	s.ActivePrompt = node.Prompt
	s.Terminated = false
}

// Terminate clears the position so the next interaction starts over.
func (s *Session) Terminate() {
	s.CurrentNodeID = ""
	s.AwaitingInput = false
	s.ActiveChoices = []Choice{}
	s.ActivePrompt = ""
	s.Terminated = true
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.ActiveChoices = slices.Clone(s.ActiveChoices)
	if c.ActiveChoices == nil {
		c.ActiveChoices = []Choice{}
	}
	return &c
}
