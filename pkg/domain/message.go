package domain

// MessageKind tells delivery adapters what produced an emission.
type MessageKind string

const (
	MessageText   MessageKind = "message" // sendMessage node
	MessagePrompt MessageKind = "prompt"  // options node, or its prompt again on Start
	MessageNotice MessageKind = "notice"  // re-prompt after invalid input
	MessageFinal  MessageKind = "final"   // finalize node
)

// Message is one outbound emission, produced once per visited node.
type Message struct {
	SessionID string      `json:"sessionId"`
	NodeID    string      `json:"nodeId,omitempty"`
	Kind      MessageKind `json:"kind"`
	Text      string      `json:"text"`
	Choices   []Choice    `json:"choices,omitempty"`
}

// StepResult is what one interpreter call produced.
// Messages holds only the emissions made synchronously inside the call.
type StepResult struct {
	Session  *Session     `json:"session"`
	Messages []Message    `json:"messages"`
	Diff     *SessionDiff `json:"diff,omitempty"`
}
