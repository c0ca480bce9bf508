package middleware

import (
	"context"
	"time"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/ports"
)

type timeoutMiddleware struct {
	next    ports.SessionStore
	timeout time.Duration
}

// NewTimeoutMiddleware bounds every store call with a deadline so a stalled
// backend fails the step instead of holding the session lock forever.
func NewTimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next ports.SessionStore) ports.SessionStore {
		if timeout <= 0 {
			return next
		}
		return &timeoutMiddleware{next: next, timeout: timeout}
	}
}

func (m *timeoutMiddleware) Save(ctx context.Context, session *domain.Session) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.next.Save(ctx, session)
}

func (m *timeoutMiddleware) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.next.Load(ctx, sessionID)
}

func (m *timeoutMiddleware) Delete(ctx context.Context, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.next.Delete(ctx, sessionID)
}

func (m *timeoutMiddleware) List(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.next.List(ctx)
}
