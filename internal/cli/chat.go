package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/chatflow"
	"github.com/aretw0/chatflow/internal/presentation/tui"
	"github.com/aretw0/chatflow/pkg/runner"
)

// ChatOptions configures an interactive terminal conversation.
type ChatOptions struct {
	SessionID string
	JSON      bool
	Headless  bool
	Watch     bool
	MaxInput  int
	In        io.Reader
	Out       io.Writer
}

// RunChat drives one session over stdin/stdout until input ends or ctx is done.
func RunChat(ctx context.Context, eng *chatflow.Engine, logger *slog.Logger, opts ChatOptions) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	var handler runner.IOHandler
	if opts.JSON {
		handler = runner.NewJSONHandler(opts.In, opts.Out)
	} else {
		hOpts := []runner.TextHandlerOption{runner.WithTextHandlerMaxSize(opts.MaxInput)}
		if !opts.Headless && runner.IsTerminal(opts.Out) {
			tui.PrintBanner(opts.Out, chatflow.Version)
			hOpts = append(hOpts, runner.WithTextHandlerRenderer(tui.NewRenderer()))
		}
		handler = runner.NewTextHandler(opts.In, opts.Out, hOpts...)
	}

	if opts.Watch {
		if err := watchGraph(ctx, eng, logger); err != nil {
			return err
		}
	}

	r := runner.NewRunner(
		runner.WithEngine(eng),
		runner.WithLogger(logger),
		runner.WithInputHandler(handler),
		runner.WithHeadless(opts.Headless),
		runner.WithSessionID(opts.SessionID),
	)
	logger.Debug("chat started", "session_id", r.SessionID)

	err := r.Run(ctx)
	eng.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// watchGraph reloads the graph on file changes in the background until ctx is done.
func watchGraph(ctx context.Context, eng *chatflow.Engine, logger *slog.Logger) error {
	errs, err := eng.Watch(ctx)
	if err != nil {
		return err
	}
	logger.Info("watching graph for changes")
	go func() {
		for err := range errs {
			logger.Error("graph reload failed, keeping previous graph", "err", err)
		}
	}()
	return nil
}
