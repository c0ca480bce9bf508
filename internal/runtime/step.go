package runtime

import (
	"context"

	"github.com/aretw0/chatflow/pkg/domain"
)

// step collects the emissions of one interpreter call.
type step struct {
	e         *Engine
	sessionID string
	prev      *domain.Session
	messages  []domain.Message
}

func (e *Engine) newStep(sessionID string, prev *domain.Session) *step {
	return &step{e: e, sessionID: sessionID, prev: prev, messages: []domain.Message{}}
}

// emit delivers msg to the emitter and records it for the caller.
// Delivery failures are logged only: the user sees silence, never an internal error.
func (r *step) emit(ctx context.Context, msg domain.Message) {
	msg.SessionID = r.sessionID
	r.messages = append(r.messages, msg)
	if err := r.e.emitter.Emit(ctx, msg); err != nil {
		r.e.logger.Warn("delivery failed",
			"session_id", r.sessionID,
			"node_id", msg.NodeID,
			"err", err,
		)
	}
}

func (r *step) result(s *domain.Session) *domain.StepResult {
	return &domain.StepResult{
		Session:  s.Clone(),
		Messages: r.messages,
		Diff:     domain.Diff(r.prev, s),
	}
}
