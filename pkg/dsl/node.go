package dsl

import "github.com/aretw0/chatflow/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node and its outgoing edges.
type NodeBuilder struct {
	node  domain.Node
	edges []domain.Edge
}

// Message makes the node a sendMessage node (soft step).
func (n *NodeBuilder) Message(text string) *NodeBuilder {
	n.node.Kind = domain.KindSendMessage
	n.node.Text = text
	return n
}

// Options makes the node an options node (hard step) with the given prompt.
// Add its branches with Choice.
func (n *NodeBuilder) Options(prompt string) *NodeBuilder {
	n.node.Kind = domain.KindOptions
	n.node.Prompt = prompt
	return n
}

// Choice appends a choice labelled label that leads to target.
// The user selects it by typing its 1-based position.
func (n *NodeBuilder) Choice(label, target string) *NodeBuilder {
	return n.ChoiceKey("", label, target)
}

// ChoiceKey is like Choice with an explicit key to type instead of the position.
func (n *NodeBuilder) ChoiceKey(digit, label, target string) *NodeBuilder {
	n.node.Choices = append(n.node.Choices, domain.Choice{Label: label, Digit: digit})
	n.edges = append(n.edges, domain.ChoiceEdge(n.node.ID, target, len(n.node.Choices)))
	return n
}

// Finalize makes the node a terminal node that sends text and ends the conversation.
func (n *NodeBuilder) Finalize(text string) *NodeBuilder {
	n.node.Kind = domain.KindFinalize
	n.node.Text = text
	n.edges = nil
	return n
}

// Go adds an unconditional transition to the target node.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	n.edges = append(n.edges, domain.Edge{Source: n.node.ID, Target: target})
	return n
}

// Node returns the underlying domain.Node.
func (n *NodeBuilder) Node() domain.Node {
	node := n.node
	node.Choices = append([]domain.Choice(nil), n.node.Choices...)
	return node
}
