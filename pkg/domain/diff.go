package domain

import (
	"slices"
)

// SessionDiff represents the changes between two snapshots of a session.
// It is designed to be serialized to JSON for partial updates on the client.
type SessionDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"sessionId"`

	CurrentNodeID *string   `json:"currentNodeId,omitempty"`
	Status        *Status   `json:"status,omitempty"`
	AwaitingInput *bool     `json:"awaitingInput,omitempty"`
	ActivePrompt  *string   `json:"activePrompt,omitempty"`
	ActiveChoices *[]Choice `json:"activeChoices,omitempty"`
}

// Diff calculates the difference between oldSession and newSession.
// If oldSession is nil, it returns a diff representing the entire newSession (initial load).
// It returns nil when nothing changed.
func Diff(oldSession, newSession *Session) *SessionDiff {
	if newSession == nil {
		return nil
	}

	diff := &SessionDiff{SessionID: newSession.SessionID}

	if oldSession == nil || oldSession.CurrentNodeID != newSession.CurrentNodeID {
		id := newSession.CurrentNodeID
		diff.CurrentNodeID = &id
	}
	if status := newSession.Status(); oldSession == nil || oldSession.Status() != status {
		diff.Status = &status
	}
	if oldSession == nil || oldSession.AwaitingInput != newSession.AwaitingInput {
		awaiting := newSession.AwaitingInput
		diff.AwaitingInput = &awaiting
	}
	if oldSession == nil || oldSession.ActivePrompt != newSession.ActivePrompt {
		prompt := newSession.ActivePrompt
		diff.ActivePrompt = &prompt
	}
	if oldSession == nil || !slices.Equal(oldSession.ActiveChoices, newSession.ActiveChoices) {
		choices := slices.Clone(newSession.ActiveChoices)
		diff.ActiveChoices = &choices
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SessionDiff) IsEmpty() bool {
	return d.CurrentNodeID == nil &&
		d.Status == nil &&
		d.AwaitingInput == nil &&
		d.ActivePrompt == nil &&
		d.ActiveChoices == nil
}
