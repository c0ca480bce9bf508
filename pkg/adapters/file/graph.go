package file

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/chatflow/internal/logging"
	"github.com/aretw0/chatflow/pkg/graph"
	"github.com/fsnotify/fsnotify"
)

// GraphSource loads a graph document from disk and can keep it current.
type GraphSource struct {
	*graph.Holder
	path     string
	logger   *slog.Logger
	debounce time.Duration
	onReload func(*graph.Graph)
}

// SourceOption configures a GraphSource.
type SourceOption func(*GraphSource)

// WithSourceLogger sets the logger used for reload events.
func WithSourceLogger(l *slog.Logger) SourceOption {
	return func(s *GraphSource) {
		s.logger = l
	}
}

// WithDebounce coalesces bursts of file events (editors write in several steps).
func WithDebounce(d time.Duration) SourceOption {
	return func(s *GraphSource) {
		s.debounce = d
	}
}

// WithReloadCallback is invoked after every successful reload.
func WithReloadCallback(fn func(*graph.Graph)) SourceOption {
	return func(s *GraphSource) {
		s.onReload = fn
	}
}

// NewGraphSource loads path once. An invalid document is a hard error here.
func NewGraphSource(path string, opts ...SourceOption) (*GraphSource, error) {
	g, err := graph.LoadFile(path)
	if err != nil {
		return nil, err
	}
	s := &GraphSource{
		Holder:   graph.NewHolder(g),
		path:     path,
		logger:   logging.NewNop(),
		debounce: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the watched file.
func (s *GraphSource) Path() string {
	return s.path
}

// Reload re-reads the file. On failure the current graph is kept.
func (s *GraphSource) Reload() error {
	g, err := graph.LoadFile(s.path)
	if err != nil {
		return err
	}
	s.Replace(g)
	s.logger.Info("Graph reloaded", "path", s.path, "nodes", g.Len())
	if s.onReload != nil {
		s.onReload(g)
	}
	return nil
}

// Watch reloads the graph whenever the file changes until ctx is done.
// It watches the parent directory so atomic save-by-rename is picked up.
func (s *GraphSource) Watch(ctx context.Context) (<-chan error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	errs := make(chan error, 1)
	target := filepath.Clean(s.path)

	go func() {
		defer close(errs)
		defer watcher.Close()

		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(s.debounce)
				} else {
					timer.Reset(s.debounce)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				if err := s.Reload(); err != nil {
					s.logger.Warn("Graph reload rejected, keeping previous graph", "path", s.path, "err", err)
					select {
					case errs <- err:
					default:
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("Watcher error", "err", err)
			}
		}
	}()

	return errs, nil
}
