package runner

import (
	"log/slog"

	"github.com/aretw0/chatflow/pkg/ports"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithEngine configures the interpreter to drive.
func WithEngine(engine ports.Interpreter) Option {
	return func(r *Runner) {
		r.engine = engine
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithHeadless makes Run return as soon as the conversation terminates.
func WithHeadless(headless bool) Option {
	return func(r *Runner) {
		r.Headless = headless
	}
}

// WithSessionID sets the session to chat in. Reusing an id resumes that conversation.
func WithSessionID(id string) Option {
	return func(r *Runner) {
		r.SessionID = id
	}
}
