package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/chatflow/internal/logging"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/ports"
	"github.com/aretw0/chatflow/pkg/session"
)

// DefaultInvalidNotice prefixes the re-prompt sent after unrecognized input.
const DefaultInvalidNotice = "Invalid option. Please choose one of the options below."

var _ ports.Interpreter = (*Engine)(nil)

// Engine is the flow interpreter. It walks the current graph on behalf of each
// session, persisting the session after every visited node.
type Engine struct {
	source    ports.GraphSource
	sessions  *session.Manager
	emitter   ports.Emitter
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	pacing    time.Duration
	scheduler Scheduler
	notice    string
	now       func() time.Time

	mu      sync.Mutex
	pending map[string]int // paced continuations queued per session
	wg      sync.WaitGroup
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithEmitter sets where emissions are delivered.
func WithEmitter(emitter ports.Emitter) Option {
	return func(e *Engine) {
		e.emitter = emitter
	}
}

// WithLifecycleHooks registers observability callbacks. Repeated use merges them.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = domain.MergeHooks(e.hooks, hooks)
	}
}

// WithPacing delays each automatic continuation after a sendMessage node.
// Zero chains synchronously inside the call.
func WithPacing(d time.Duration) Option {
	return func(e *Engine) {
		e.pacing = d
	}
}

// WithScheduler replaces the timer used for paced continuations.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) {
		e.scheduler = s
	}
}

// WithInvalidNotice sets the text shown before the re-prompt on invalid input.
func WithInvalidNotice(notice string) Option {
	return func(e *Engine) {
		if notice != "" {
			e.notice = notice
		}
	}
}

// WithClock overrides the time source used for hook events.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an interpreter over the given graph source and sessions.
func NewEngine(source ports.GraphSource, sessions *session.Manager, opts ...Option) *Engine {
	e := &Engine{
		source:    source,
		sessions:  sessions,
		emitter:   ports.NopEmitter,
		logger:    logging.NewNop(),
		scheduler: TimerScheduler{},
		notice:    DefaultInvalidNotice,
		now:       time.Now,
		pending:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start begins the conversation for sessionID.
// A session waiting for a choice gets its prompt again and is otherwise left alone.
func (e *Engine) Start(ctx context.Context, sessionID string) (*domain.StepResult, error) {
	var res *domain.StepResult
	err := e.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		g := e.source.Graph()
		if g == nil {
			return domain.ErrNoGraph
		}
		prev, err := e.load(ctx, sessionID)
		if err != nil {
			return err
		}

		r := e.newStep(sessionID, prev)
		if prev != nil {
			switch prev.Status() {
			case domain.StatusAwaiting:
				r.emit(ctx, domain.Message{
					NodeID:  prev.CurrentNodeID,
					Kind:    domain.MessagePrompt,
					Text:    domain.RenderChoices(prev.ActivePrompt, prev.ActiveChoices),
					Choices: prev.ActiveChoices,
				})
				res = r.result(prev)
				return nil
			case domain.StatusAdvancing:
				if e.hasPending(sessionID) {
					res = r.result(prev)
					return nil
				}
				e.logger.Debug("resuming interrupted chain", "session_id", sessionID, "node_id", prev.CurrentNodeID)
				s := prev.Clone()
				if err := e.continueFrom(ctx, r, g, s, prev.CurrentNodeID, nil); err != nil {
					return err
				}
				res = r.result(s)
				return nil
			}
		}

		s, err := e.begin(ctx, r, g)
		if err != nil {
			return err
		}
		res = r.result(s)
		return nil
	})
	return res, err
}

// HandleInput applies raw user text to the session.
// Sessions outside the graph restart and the text is ignored.
func (e *Engine) HandleInput(ctx context.Context, sessionID, text string) (*domain.StepResult, error) {
	var res *domain.StepResult
	err := e.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		g := e.source.Graph()
		if g == nil {
			return domain.ErrNoGraph
		}
		prev, err := e.load(ctx, sessionID)
		if err != nil {
			return err
		}
		r := e.newStep(sessionID, prev)

		if prev == nil || !prev.Active() {
			s, err := e.begin(ctx, r, g)
			if err != nil {
				return err
			}
			res = r.result(s)
			return nil
		}

		if !prev.AwaitingInput {
			e.logger.Debug("input ignored while advancing", "session_id", sessionID, "node_id", prev.CurrentNodeID)
			if e.hooks.OnInertInput != nil {
				e.hooks.OnInertInput(ctx, e.inputEvent(domain.EventInertInput, prev, text))
			}
			res = r.result(prev)
			return nil
		}

		pos, ok := domain.MatchChoice(prev.ActiveChoices, text)
		if !ok {
			e.logger.Debug("invalid choice", "session_id", sessionID, "node_id", prev.CurrentNodeID, "input", text)
			if e.hooks.OnInvalidChoice != nil {
				e.hooks.OnInvalidChoice(ctx, e.inputEvent(domain.EventInvalidChoice, prev, text))
			}
			r.emit(ctx, domain.Message{
				NodeID:  prev.CurrentNodeID,
				Kind:    domain.MessageNotice,
				Text:    e.notice + "\n" + domain.RenderChoices(prev.ActivePrompt, prev.ActiveChoices),
				Choices: prev.ActiveChoices,
			})
			res = r.result(prev)
			return nil
		}

		s := prev.Clone()
		s.AwaitingInput = false
		next := g.NextChoice(prev.CurrentNodeID, pos)
		if next == nil {
			err = e.terminate(ctx, s, prev.CurrentNodeID, domain.ReasonUnresolved)
		} else {
			err = e.process(ctx, r, g, s, next, nil)
		}
		if err != nil {
			return err
		}
		res = r.result(s)
		return nil
	})
	return res, err
}

// Reset clears the stored session and starts it over.
func (e *Engine) Reset(ctx context.Context, sessionID string) (*domain.StepResult, error) {
	var res *domain.StepResult
	err := e.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		g := e.source.Graph()
		if g == nil {
			return domain.ErrNoGraph
		}
		if err := e.sessions.Store().Delete(ctx, sessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return storeError("delete", sessionID, err)
		}
		r := e.newStep(sessionID, nil)
		s, err := e.begin(ctx, r, g)
		if err != nil {
			return err
		}
		res = r.result(s)
		return nil
	})
	return res, err
}

// Session returns the stored session.
func (e *Engine) Session(ctx context.Context, sessionID string) (*domain.Session, error) {
	s, err := e.sessions.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) || errors.Is(err, domain.ErrLockTimeout) {
			return nil, err
		}
		return nil, storeError("load", sessionID, err)
	}
	return s, nil
}

// Sessions lists stored session ids.
func (e *Engine) Sessions(ctx context.Context) ([]string, error) {
	ids, err := e.sessions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return ids, nil
}

// Wait blocks until every queued paced continuation has run.
func (e *Engine) Wait() {
	e.wg.Wait()
}

func (e *Engine) load(ctx context.Context, sessionID string) (*domain.Session, error) {
	s, err := e.sessions.Store().Load(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("load", sessionID, err)
	}
	return s, nil
}

func (e *Engine) save(ctx context.Context, s *domain.Session) error {
	if err := e.sessions.Store().Save(ctx, s); err != nil {
		return storeError("save", s.SessionID, err)
	}
	return nil
}

func storeError(op, sessionID string, err error) error {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return fmt.Errorf("%s session %s: %w", op, sessionID, err)
	}
	return fmt.Errorf("%s session %s: %w: %w", op, sessionID, domain.ErrStoreUnavailable, err)
}

func (e *Engine) inputEvent(t domain.EventType, s *domain.Session, text string) *domain.InputEvent {
	return &domain.InputEvent{
		EventBase: domain.EventBase{Timestamp: e.now(), Type: t, SessionID: s.SessionID},
		NodeID:    s.CurrentNodeID,
		Input:     text,
	}
}
