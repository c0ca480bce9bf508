package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/chatflow/pkg/domain"
)

// LoggingHooks logs every lifecycle event at debug level.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSessionStart: func(ctx context.Context, e *domain.SessionEvent) {
			logger.DebugContext(ctx, "Session Start", "session_id", e.SessionID)
		},
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "Enter Node", "session_id", e.SessionID, "node_id", e.NodeID, "kind", e.Kind)
		},
		OnInvalidChoice: func(ctx context.Context, e *domain.InputEvent) {
			logger.DebugContext(ctx, "Invalid Choice", "session_id", e.SessionID, "node_id", e.NodeID, "input", e.Input)
		},
		OnInertInput: func(ctx context.Context, e *domain.InputEvent) {
			logger.DebugContext(ctx, "Inert Input", "session_id", e.SessionID, "node_id", e.NodeID)
		},
		OnTerminate: func(ctx context.Context, e *domain.SessionEvent) {
			logger.DebugContext(ctx, "Session Terminated", "session_id", e.SessionID, "node_id", e.NodeID, "reason", e.Reason)
		},
	}
}
