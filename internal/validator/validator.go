package validator

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/graph"
)

// Severity ranks a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is one problem found in a loaded graph.
type Finding struct {
	Severity Severity `json:"severity"`
	NodeID   string   `json:"nodeId,omitempty"`
	Message  string   `json:"message"`
}

func (f Finding) String() string {
	if f.NodeID == "" {
		return fmt.Sprintf("%s: %s", f.Severity, f.Message)
	}
	return fmt.Sprintf("%s: [%s] %s", f.Severity, f.NodeID, f.Message)
}

// Report is the result of linting a graph.
type Report struct {
	Findings []Finding `json:"findings"`
}

// HasErrors reports whether any finding is an error.
func (r Report) HasErrors() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Err summarizes the errors, or returns nil when there are none.
func (r Report) Err() error {
	var msgs []string
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			msgs = append(msgs, f.String())
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("found %d errors:\n- %s", len(msgs), strings.Join(msgs, "\n- "))
}

// ValidateGraph crawls a loaded graph from its start node and reports problems
// that loading allows but that make a conversation misbehave.
func ValidateGraph(g *graph.Graph) Report {
	var r Report
	add := func(sev Severity, nodeID, format string, args ...any) {
		r.Findings = append(r.Findings, Finding{Severity: sev, NodeID: nodeID, Message: fmt.Sprintf(format, args...)})
	}

	start := g.Start()
	visited := map[string]bool{start.ID: true}
	queue := []string{start.ID}
	finalReachable := false

	for len(queue) > 0 {
		currentID := queue[0]
		queue = queue[1:]
		node := g.Node(currentID)

		switch node.Kind {
		case domain.KindFinalize:
			finalReachable = true
		case domain.KindOptions:
			if len(node.Choices) == 0 {
				add(SeverityError, node.ID, "options node has no choices, the session can never leave it")
			}
			linked := make(map[int]bool)
			for _, e := range g.Outgoing(node.ID) {
				if e.ChoiceIndex == nil {
					add(SeverityWarning, node.ID, "unindexed edge to %q is never followed", e.Target)
					continue
				}
				if *e.ChoiceIndex < 1 || *e.ChoiceIndex > len(node.Choices) {
					add(SeverityWarning, node.ID, "edge to %q uses choice %d, which does not exist", e.Target, *e.ChoiceIndex)
				}
				linked[*e.ChoiceIndex] = true
			}
			keys := make(map[string]bool)
			for i, c := range node.Choices {
				if !linked[i+1] {
					add(SeverityWarning, node.ID, "choice %d (%q) has no edge and ends the conversation", i+1, c.Label)
				}
				key := c.Key(i + 1)
				if keys[key] {
					add(SeverityError, node.ID, "choice key %q is used twice", key)
				}
				keys[key] = true
				if !isInteger(key) {
					add(SeverityError, node.ID, "choice key %q is not a number and can never be typed", key)
				}
			}
		case domain.KindSendMessage:
			if node.Text == "" {
				add(SeverityWarning, node.ID, "message node has no text")
			}
		}

		for _, e := range g.Outgoing(currentID) {
			if e.Target == start.ID {
				add(SeverityWarning, currentID, "edge leads back to start and ends the conversation")
				continue
			}
			if !visited[e.Target] {
				visited[e.Target] = true
				queue = append(queue, e.Target)
			}
		}
	}

	if !finalReachable {
		add(SeverityWarning, "", "no finalize node is reachable from start")
	}
	for _, n := range g.Nodes() {
		if !visited[n.ID] {
			add(SeverityWarning, n.ID, "node is unreachable from start")
		}
	}
	for _, loop := range messageLoops(g) {
		add(SeverityError, loop[0], "message loop with no options node: %s", strings.Join(loop, " -> "))
	}

	return r
}

// messageLoops finds cycles made only of sendMessage nodes.
func messageLoops(g *graph.Graph) [][]string {
	var loops [][]string
	reported := make(map[string]bool)
	for _, n := range g.Nodes() {
		if n.Kind != domain.KindSendMessage || reported[n.ID] {
			continue
		}
		path := []string{n.ID}
		seen := map[string]bool{n.ID: true}
		for cur := g.Next(n.ID, nil); cur != nil && cur.Kind == domain.KindSendMessage; cur = g.Next(cur.ID, nil) {
			if cur.ID == n.ID {
				for _, id := range path {
					reported[id] = true
				}
				loops = append(loops, append(slices.Clone(path), n.ID))
				break
			}
			if seen[cur.ID] {
				break
			}
			seen[cur.ID] = true
			path = append(path, cur.ID)
		}
	}
	return loops
}

func isInteger(s string) bool {
	_, err := strconv.Atoi(strings.TrimSpace(s))
	return err == nil
}
