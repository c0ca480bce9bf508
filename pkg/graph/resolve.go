package graph

import "github.com/aretw0/chatflow/pkg/domain"

// Next returns the node reached from fromID.
//
// With a nil choiceIndex it follows the unindexed continuation edge. Otherwise it
// follows the edge tagged with that choice position. A nil result means the branch
// ends here, which is a normal outcome. Dangling targets also resolve to nil.
func (g *Graph) Next(fromID string, choiceIndex *int) *domain.Node {
	if g == nil {
		return nil
	}
	for _, e := range g.out[fromID] {
		if choiceIndex == nil {
			if e.ChoiceIndex == nil {
				return g.nodes[e.Target].Clone()
			}
			continue
		}
		if e.ChoiceIndex != nil && *e.ChoiceIndex == *choiceIndex {
			return g.nodes[e.Target].Clone()
		}
	}
	return nil
}

// NextChoice is Next for a selected choice position.
func (g *Graph) NextChoice(fromID string, position int) *domain.Node {
	return g.Next(fromID, &position)
}
