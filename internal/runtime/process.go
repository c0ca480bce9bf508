package runtime

import (
	"context"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/graph"
)

// begin starts a fresh session at the graph's start node.
func (e *Engine) begin(ctx context.Context, r *step, g *graph.Graph) (*domain.Session, error) {
	s := domain.NewSession(r.sessionID)
	start := g.Start()
	e.logger.Debug("session start", "session_id", s.SessionID)
	if e.hooks.OnSessionStart != nil {
		e.hooks.OnSessionStart(ctx, &domain.SessionEvent{
			EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventSessionStart, SessionID: s.SessionID},
			NodeID:    start.ID,
		})
	}
	if err := e.continueFrom(ctx, r, g, s, start.ID, nil); err != nil {
		return nil, err
	}
	return s, nil
}

// continueFrom follows the unindexed edge out of fromID.
func (e *Engine) continueFrom(ctx context.Context, r *step, g *graph.Graph, s *domain.Session, fromID string, visited map[string]bool) error {
	next := g.Next(fromID, nil)
	if next == nil {
		return e.terminate(ctx, s, fromID, domain.ReasonBranchEnd)
	}
	return e.process(ctx, r, g, s, next, visited)
}

// process walks from node until the session parks on an options node, terminates,
// or hands the rest of the chain to a paced continuation.
//
// A chain that comes back to a node it already visited would never stop, so it
// is cut there. visited belongs to the chain: a paced continuation carries it
// forward, and nil starts a new one.
func (e *Engine) process(ctx context.Context, r *step, g *graph.Graph, s *domain.Session, node *domain.Node, visited map[string]bool) error {
	if visited == nil {
		visited = make(map[string]bool)
	}
	for node != nil {
		if node.Kind == domain.KindStart {
			e.logger.Warn("edge leads back to start", "session_id", s.SessionID, "from", s.CurrentNodeID)
			return e.terminate(ctx, s, s.CurrentNodeID, domain.ReasonUnresolved)
		}
		if visited[node.ID] {
			e.logger.Warn("message loop detected", "session_id", s.SessionID, "node_id", node.ID)
			return e.terminate(ctx, s, s.CurrentNodeID, domain.ReasonUnresolved)
		}
		visited[node.ID] = true

		e.logger.Debug("node enter", "session_id", s.SessionID, "node_id", node.ID, "kind", node.Kind)
		if e.hooks.OnNodeEnter != nil {
			e.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
				EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventNodeEnter, SessionID: s.SessionID},
				NodeID:    node.ID,
				Kind:      node.Kind,
			})
		}

		switch node.Kind {
		case domain.KindSendMessage:
			s.Advance(node.ID)
			if err := e.save(ctx, s); err != nil {
				return err
			}
			r.emit(ctx, domain.Message{NodeID: node.ID, Kind: domain.MessageText, Text: node.Text})

			next := g.Next(node.ID, nil)
			if next == nil {
				return e.terminate(ctx, s, node.ID, domain.ReasonBranchEnd)
			}
			if e.pacing > 0 {
				e.schedule(ctx, s.SessionID, node.ID, visited)
				return nil
			}
			node = next

		case domain.KindOptions:
			s.Await(node)
			if err := e.save(ctx, s); err != nil {
				return err
			}
			r.emit(ctx, domain.Message{
				NodeID:  node.ID,
				Kind:    domain.MessagePrompt,
				Text:    domain.RenderChoices(node.Prompt, node.Choices),
				Choices: s.ActiveChoices,
			})
			return nil

		case domain.KindFinalize:
			if err := e.terminate(ctx, s, node.ID, domain.ReasonFinalized); err != nil {
				return err
			}
			r.emit(ctx, domain.Message{NodeID: node.ID, Kind: domain.MessageFinal, Text: node.Text})
			return nil

		default:
			e.logger.Warn("unknown node kind", "session_id", s.SessionID, "node_id", node.ID, "kind", node.Kind)
			return e.terminate(ctx, s, node.ID, domain.ReasonUnresolved)
		}
	}
	return nil
}

// terminate takes the session out of the graph and persists it.
func (e *Engine) terminate(ctx context.Context, s *domain.Session, lastNodeID string, reason domain.TerminateReason) error {
	s.Terminate()
	if err := e.save(ctx, s); err != nil {
		return err
	}
	e.logger.Debug("session terminated", "session_id", s.SessionID, "node_id", lastNodeID, "reason", reason)
	if e.hooks.OnTerminate != nil {
		e.hooks.OnTerminate(ctx, &domain.SessionEvent{
			EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventTerminate, SessionID: s.SessionID},
			NodeID:    lastNodeID,
			Reason:    reason,
		})
	}
	return nil
}
