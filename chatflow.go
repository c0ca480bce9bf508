package chatflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/chatflow/internal/logging"
	"github.com/aretw0/chatflow/internal/runtime"
	"github.com/aretw0/chatflow/pkg/adapters/file"
	"github.com/aretw0/chatflow/pkg/adapters/memory"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/graph"
	"github.com/aretw0/chatflow/pkg/ports"
	"github.com/aretw0/chatflow/pkg/session"
)

// ErrNotReloadable is returned by Replace when the graph source cannot be swapped.
var ErrNotReloadable = errors.New("graph source is not reloadable")

var _ ports.Interpreter = (*Engine)(nil)

// Engine is the high-level entry point for the chatflow library.
// It wires a graph source, a session store and the interpreter together.
type Engine struct {
	runtime  *runtime.Engine
	source   ports.GraphSource
	store    ports.SessionStore
	sessions *session.Manager
	emitters *emitterSet
	logger   *slog.Logger

	hooks       domain.LifecycleHooks
	locker      ports.DistributedLocker
	lockTTL     time.Duration
	runtimeOpts []runtime.Option
	Name        string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithStore sets the session store. Defaults to an in-memory store.
func WithStore(store ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithSource injects a graph source, bypassing the file loader.
func WithSource(source ports.GraphSource) Option {
	return func(e *Engine) {
		e.source = source
	}
}

// WithGraph serves a fixed, already validated graph.
func WithGraph(g *graph.Graph) Option {
	return func(e *Engine) {
		e.source = memory.FromGraph(g)
	}
}

// WithEmitter adds a delivery target for emissions.
func WithEmitter(emitter ports.Emitter) Option {
	return func(e *Engine) {
		e.emitters.add(emitter)
	}
}

// WithLifecycleHooks registers observability hooks. Repeated use merges them.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = domain.MergeHooks(e.hooks, hooks)
	}
}

// WithPacing delays the automatic continuation after each sendMessage node.
func WithPacing(d time.Duration) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithPacing(d))
	}
}

// WithInvalidNotice sets the text shown before re-prompting after invalid input.
func WithInvalidNotice(notice string) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithInvalidNotice(notice))
	}
}

// WithLocker serializes sessions across processes sharing one store.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = locker
		e.lockTTL = ttl
	}
}

// New initializes a new Engine.
// By default the graph is read from graphPath (JSON or YAML).
// If WithSource or WithGraph is provided, graphPath is only used as a label.
func New(graphPath string, opts ...Option) (*Engine, error) {
	eng := &Engine{emitters: &emitterSet{}}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if graphPath != "" {
		base := filepath.Base(graphPath)
		eng.Name = strings.TrimSuffix(base, filepath.Ext(base))
		eng.logger = eng.logger.With("graph", eng.Name)
	}

	if eng.source == nil {
		if graphPath == "" {
			return nil, fmt.Errorf("graphPath is required when no custom source is provided")
		}
		src, err := file.NewGraphSource(graphPath, file.WithSourceLogger(eng.logger))
		if err != nil {
			return nil, err
		}
		eng.source = src
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}

	managerOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(eng.locker))
		if eng.lockTTL > 0 {
			managerOpts = append(managerOpts, session.WithLockTTL(eng.lockTTL))
		}
	}
	eng.sessions = session.NewManager(eng.store, managerOpts...)

	runtimeOpts := []runtime.Option{
		runtime.WithLogger(eng.logger),
		runtime.WithEmitter(eng.emitters),
		runtime.WithLifecycleHooks(eng.hooks),
	}
	runtimeOpts = append(runtimeOpts, eng.runtimeOpts...)
	eng.runtime = runtime.NewEngine(eng.source, eng.sessions, runtimeOpts...)

	return eng, nil
}

// Start begins the conversation for sessionID, or re-shows its pending prompt.
func (e *Engine) Start(ctx context.Context, sessionID string) (*domain.StepResult, error) {
	return e.runtime.Start(ctx, sessionID)
}

// HandleInput applies user text to the session.
func (e *Engine) HandleInput(ctx context.Context, sessionID, text string) (*domain.StepResult, error) {
	return e.runtime.HandleInput(ctx, sessionID, text)
}

// Reset clears the session and starts it over.
func (e *Engine) Reset(ctx context.Context, sessionID string) (*domain.StepResult, error) {
	return e.runtime.Reset(ctx, sessionID)
}

// Session returns the stored session.
func (e *Engine) Session(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.runtime.Session(ctx, sessionID)
}

// Sessions lists stored session ids.
func (e *Engine) Sessions(ctx context.Context) ([]string, error) {
	return e.runtime.Sessions(ctx)
}

// Delete removes a session without restarting it.
func (e *Engine) Delete(ctx context.Context, sessionID string) error {
	if err := e.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return fmt.Errorf("delete session %s: %w: %w", sessionID, domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Graph returns the graph currently in use.
func (e *Engine) Graph() *graph.Graph {
	return e.source.Graph()
}

// Replace swaps the graph when the source supports it. In-flight sessions
// continue against the new graph.
func (e *Engine) Replace(g *graph.Graph) error {
	r, ok := e.source.(ports.ReloadableSource)
	if !ok {
		return ErrNotReloadable
	}
	r.Replace(g)
	e.logger.Info("graph replaced", "nodes", g.Len())
	return nil
}

// Watch reloads the graph whenever its file changes.
// Returns error if the source does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan error, error) {
	if w, ok := e.source.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, fmt.Errorf("current source does not support watching")
}

// AddEmitter attaches a delivery target after construction, e.g. a server hub.
func (e *Engine) AddEmitter(emitter ports.Emitter) {
	e.emitters.add(emitter)
}

// Source returns the graph source.
func (e *Engine) Source() ports.GraphSource {
	return e.source
}

// Store returns the session store.
func (e *Engine) Store() ports.SessionStore {
	return e.store
}

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}

// Wait blocks until pending paced continuations have run.
func (e *Engine) Wait() {
	e.runtime.Wait()
}

// emitterSet fans emissions out to emitters that may be attached at any time.
type emitterSet struct {
	mu   sync.RWMutex
	list ports.MultiEmitter
}

func (s *emitterSet) add(e ports.Emitter) {
	if e == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = append(s.list, e)
}

func (s *emitterSet) Emit(ctx context.Context, msg domain.Message) error {
	s.mu.RLock()
	list := s.list
	s.mu.RUnlock()
	return list.Emit(ctx, msg)
}
