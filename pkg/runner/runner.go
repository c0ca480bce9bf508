package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/aretw0/chatflow/internal/logging"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/ports"
)

// Runner handles the chat loop for one session using the provided IOHandler.
type Runner struct {
	Handler   IOHandler
	Logger    *slog.Logger
	SessionID string
	Headless  bool

	engine   ports.Interpreter
	attached bool
}

// emitterAttacher is implemented by engines that accept emitters after construction.
type emitterAttacher interface {
	AddEmitter(ports.Emitter)
}

// NewRunner creates a Runner. Without a session id a random one is used.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	if r.SessionID == "" {
		r.SessionID = uuid.NewString()
	}
	return r
}

// Emit prints messages of this runner's session. Attached to the engine, it also
// delivers paced messages that arrive after a call has returned.
func (r *Runner) Emit(ctx context.Context, msg domain.Message) error {
	if msg.SessionID != r.SessionID {
		return nil
	}
	return r.Handler.Output(ctx, []domain.Message{msg})
}

// Run executes the chat loop until input ends, the user quits or ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	if r.engine == nil {
		return errors.New("runner: engine is required")
	}
	if a, ok := r.engine.(emitterAttacher); ok && !r.attached {
		a.AddEmitter(r)
		r.attached = true
	}

	res, err := r.engine.Start(ctx, r.SessionID)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if err := r.show(ctx, res); err != nil {
		return err
	}

	for {
		if res.Session.Status() == domain.StatusTerminated {
			if r.Headless {
				return nil
			}
			_ = r.Handler.SystemOutput(ctx, "Conversation finished. Send anything to start over, /quit to leave")
		}

		text, err := r.Handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("input error: %w", err)
		}

		switch strings.ToLower(strings.TrimSpace(text)) {
		case "/quit", "/exit":
			return nil
		case "/reset":
			r.Logger.Debug("session reset by user", "session_id", r.SessionID)
			res, err = r.engine.Reset(ctx, r.SessionID)
		default:
			res, err = r.engine.HandleInput(ctx, r.SessionID, text)
		}
		if err != nil {
			return err
		}
		if err := r.show(ctx, res); err != nil {
			return err
		}
	}
}

func (r *Runner) show(ctx context.Context, res *domain.StepResult) error {
	if r.attached || len(res.Messages) == 0 {
		return nil
	}
	if err := r.Handler.Output(ctx, res.Messages); err != nil {
		return fmt.Errorf("output error: %w", err)
	}
	return nil
}
