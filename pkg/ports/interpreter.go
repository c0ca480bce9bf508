package ports

import (
	"context"

	"github.com/aretw0/chatflow/pkg/domain"
)

// Interpreter is the inbound API that delivery adapters drive.
type Interpreter interface {
	// Start begins a conversation, or re-shows the pending prompt of one in progress.
	Start(ctx context.Context, sessionID string) (*domain.StepResult, error)

	// HandleInput applies raw user text to the session.
	HandleInput(ctx context.Context, sessionID, text string) (*domain.StepResult, error)

	// Reset clears the session and starts over.
	Reset(ctx context.Context, sessionID string) (*domain.StepResult, error)

	// Session returns the stored session or domain.ErrSessionNotFound.
	Session(ctx context.Context, sessionID string) (*domain.Session, error)

	// Sessions lists stored session ids.
	Sessions(ctx context.Context) ([]string, error)
}
