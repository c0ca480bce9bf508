package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/chatflow/pkg/domain"
)

type pruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// Prune deletes sessions last updated before the cutoff and returns how many went.
// Stores that can filter natively do it in one statement; the rest are scanned.
func Prune(ctx context.Context, b *Backend, before time.Time) (int64, error) {
	if p, ok := b.raw.(pruner); ok {
		return p.Prune(ctx, before)
	}

	ids, err := b.Store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}
	var n int64
	for _, id := range ids {
		s, err := b.Store.Load(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				continue
			}
			return n, fmt.Errorf("load session %s: %w", id, err)
		}
		if s.UpdatedAt.IsZero() || !s.UpdatedAt.Before(before) {
			continue
		}
		if err := b.Store.Delete(ctx, id); err != nil {
			return n, fmt.Errorf("delete session %s: %w", id, err)
		}
		n++
	}
	return n, nil
}
