package runner

import (
	"context"

	"github.com/aretw0/chatflow/pkg/domain"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents emitted messages to the user.
	Output(ctx context.Context, msgs []domain.Message) error

	// Input reads a response from the user. It returns io.EOF when input ends.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (status, errors), distinct from flow content.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms text before it is printed, e.g. markdown to ANSI.
type ContentRenderer func(string) (string, error)
