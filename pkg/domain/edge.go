package domain

// Edge is a directed connection between two nodes.
// ChoiceIndex is set only when Source is an options node and holds the
// 1-based position of the choice that selects this edge.
type Edge struct {
	Source      string `json:"source" yaml:"source"`
	Target      string `json:"target" yaml:"target"`
	ChoiceIndex *int   `json:"choiceIndex,omitempty" yaml:"choiceIndex,omitempty"`
}

// IsLinear reports whether the edge is an unconditional continuation.
func (e Edge) IsLinear() bool {
	return e.ChoiceIndex == nil
}

// Clone returns a copy with its own ChoiceIndex.
func (e Edge) Clone() Edge {
	if e.ChoiceIndex != nil {
		idx := *e.ChoiceIndex
		e.ChoiceIndex = &idx
	}
	return e
}

// ChoiceEdge builds an edge selected by the choice at position.
func ChoiceEdge(source, target string, position int) Edge {
	return Edge{Source: source, Target: target, ChoiceIndex: &position}
}
