package diagram

import (
	"fmt"
	"strings"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/graph"
)

// Overlay contains session data to highlight on the diagram.
type Overlay struct {
	CurrentNode string
}

// GenerateMermaid produces a Mermaid flowchart from a graph.
// It applies semantic styling:
// - Start: ((Circle))
// - Options: [/Parallelogram/]
// - Finalize: ([Stadium])
// - SendMessage: [Rectangle]
// Choice edges are labelled with the key the user types and the choice label.
func GenerateMermaid(g *graph.Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range g.Nodes() {
		safeID := sanitizeID(node.ID)

		opener, closer := "[", "]"
		switch node.Kind {
		case domain.KindStart:
			opener, closer = "((", "))"
		case domain.KindOptions:
			opener, closer = "[/", "/]"
		case domain.KindFinalize:
			opener, closer = "([", "])"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(node.ID), closer)

		for _, e := range g.Outgoing(node.ID) {
			safeTo := sanitizeID(e.Target)
			if e.IsLinear() {
				fmt.Fprintf(&sb, "    %s --> %s\n", safeID, safeTo)
				continue
			}
			label := fmt.Sprintf("#%d", *e.ChoiceIndex)
			if pos := *e.ChoiceIndex; pos >= 1 && pos <= len(node.Choices) {
				c := node.Choices[pos-1]
				label = c.Key(pos) + ". " + c.Label
			}
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, escapeLabel(label), safeTo)
		}
	}

	if overlay != nil && overlay.CurrentNode != "" {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text for high contrast regardless of theme
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		fmt.Fprintf(&sb, "    class %s current;\n", sanitizeID(overlay.CurrentNode))
	}

	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
