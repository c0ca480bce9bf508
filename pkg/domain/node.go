package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// NodeKind is the closed set of node variants understood by the interpreter.
type NodeKind string

const (
	// KindStart is the single entry point of a graph. It never emits.
	KindStart NodeKind = "start"
	// KindSendMessage emits text and continues automatically (soft step).
	KindSendMessage NodeKind = "sendMessage"
	// KindOptions emits a prompt with numbered choices and halts for input (hard step).
	KindOptions NodeKind = "options"
	// KindFinalize emits a closing text and terminates the conversation.
	KindFinalize NodeKind = "finalize"
)

// Kinds lists every valid NodeKind.
var Kinds = []NodeKind{KindStart, KindSendMessage, KindOptions, KindFinalize}

// ParseNodeKind normalizes editor spellings ("send_message", "Send-Message") into a NodeKind.
func ParseNodeKind(s string) (NodeKind, error) {
	norm := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(s))
	for _, k := range Kinds {
		if strings.ToLower(string(k)) == norm {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown node kind %q", s)
}

// Valid reports whether k is one of the known kinds.
func (k NodeKind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Node is a vertex of the workflow graph.
// Only the payload fields relevant to Kind are populated.
type Node struct {
	ID   string   `json:"id" yaml:"id"`
	Kind NodeKind `json:"kind" yaml:"kind"`

	// Text is the payload of sendMessage and finalize nodes.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`

	// Prompt and Choices are the payload of options nodes.
	Prompt  string   `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	Choices []Choice `json:"choices,omitempty" yaml:"choices,omitempty"`
}

// Clone returns a copy that shares no memory with n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Choices = slices.Clone(n.Choices)
	return &c
}

// Choice is one selectable branch of an options node.
type Choice struct {
	Label string `json:"label" yaml:"label"`
	// Digit is the explicit matching key. When empty the 1-based position is used.
	Digit string `json:"digit,omitempty" yaml:"digit,omitempty"`
}

// Key returns the matching key of the choice at the given 1-based position.
func (c Choice) Key(position int) string {
	if c.Digit != "" {
		return c.Digit
	}
	return strconv.Itoa(position)
}

// MatchChoice resolves raw user input against choices and returns the 1-based
// position of the selected choice. The input must be an integer literal once trimmed.
func MatchChoice(choices []Choice, raw string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	for i, c := range choices {
		key, err := strconv.Atoi(strings.TrimSpace(c.Key(i + 1)))
		if err != nil {
			continue
		}
		if key == n {
			return i + 1, true
		}
	}
	return 0, false
}

// RenderChoices formats a prompt followed by its enumerated choices, one per line.
func RenderChoices(prompt string, choices []Choice) string {
	var b strings.Builder
	b.WriteString(prompt)
	for i, c := range choices {
		b.WriteString("\n")
		b.WriteString(c.Key(i + 1))
		b.WriteString(". ")
		b.WriteString(c.Label)
	}
	return b.String()
}
