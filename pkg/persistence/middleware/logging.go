package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/ports"
)

type loggingMiddleware struct {
	next   ports.SessionStore
	logger *slog.Logger
	slow   time.Duration
}

// NewLoggingMiddleware logs failed store operations, and successful ones slower than slow.
// A missing session is a normal outcome and is not logged.
func NewLoggingMiddleware(logger *slog.Logger, slow time.Duration) Middleware {
	return func(next ports.SessionStore) ports.SessionStore {
		return &loggingMiddleware{next: next, logger: logger, slow: slow}
	}
}

func (m *loggingMiddleware) observe(op, sessionID string, started time.Time, err error) {
	elapsed := time.Since(started)
	switch {
	case err != nil && !errors.Is(err, domain.ErrSessionNotFound):
		m.logger.Error("Session store operation failed", "op", op, "session_id", sessionID, "duration", elapsed, "err", err)
	case m.slow > 0 && elapsed > m.slow:
		m.logger.Warn("Slow session store operation", "op", op, "session_id", sessionID, "duration", elapsed)
	}
}

func (m *loggingMiddleware) Save(ctx context.Context, session *domain.Session) error {
	started := time.Now()
	err := m.next.Save(ctx, session)
	m.observe("save", session.SessionID, started, err)
	return err
}

func (m *loggingMiddleware) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	started := time.Now()
	s, err := m.next.Load(ctx, sessionID)
	m.observe("load", sessionID, started, err)
	return s, err
}

func (m *loggingMiddleware) Delete(ctx context.Context, sessionID string) error {
	started := time.Now()
	err := m.next.Delete(ctx, sessionID)
	m.observe("delete", sessionID, started, err)
	return err
}

func (m *loggingMiddleware) List(ctx context.Context) ([]string, error) {
	started := time.Now()
	ids, err := m.next.List(ctx)
	m.observe("list", "", started, err)
	return ids, err
}
