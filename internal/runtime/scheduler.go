package runtime

import (
	"context"
	"time"

	"github.com/aretw0/chatflow/pkg/domain"
)

// Scheduler runs f once after d. Implementations must not block the caller.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

// TimerScheduler schedules with time.AfterFunc.
type TimerScheduler struct{}

func (TimerScheduler) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}

func (e *Engine) hasPending(sessionID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending[sessionID] > 0
}

// schedule queues the continuation of the chain after fromID, handing it the
// nodes the chain has already visited. Called with the session lock held.
func (e *Engine) schedule(ctx context.Context, sessionID, fromID string, visited map[string]bool) {
	e.mu.Lock()
	e.pending[sessionID]++
	e.mu.Unlock()

	e.wg.Add(1)
	bg := context.WithoutCancel(ctx)
	e.scheduler.AfterFunc(e.pacing, func() {
		defer e.wg.Done()
		e.resume(bg, sessionID, fromID, visited)
	})
}

// resume continues a paced chain. The chain is dropped if the session moved on
// (reset, restarted, or deleted) while the timer was pending.
func (e *Engine) resume(ctx context.Context, sessionID, fromID string, visited map[string]bool) {
	defer func() {
		e.mu.Lock()
		if e.pending[sessionID]--; e.pending[sessionID] <= 0 {
			delete(e.pending, sessionID)
		}
		e.mu.Unlock()
	}()

	err := e.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := e.load(ctx, sessionID)
		if err != nil {
			return err
		}
		if s == nil || s.CurrentNodeID != fromID || s.AwaitingInput {
			e.logger.Debug("stale continuation dropped", "session_id", sessionID, "from", fromID)
			return nil
		}

		g := e.source.Graph()
		if g == nil {
			return domain.ErrNoGraph
		}
		r := e.newStep(sessionID, s.Clone())
		return e.continueFrom(ctx, r, g, s, fromID, visited)
	})
	if err != nil {
		e.logger.Error("paced continuation failed", "session_id", sessionID, "from", fromID, "err", err)
	}
}
