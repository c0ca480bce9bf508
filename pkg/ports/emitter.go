package ports

import (
	"context"
	"errors"

	"github.com/aretw0/chatflow/pkg/domain"
)

// Emitter accepts outbound messages on behalf of a delivery adapter.
type Emitter interface {
	Emit(ctx context.Context, msg domain.Message) error
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(ctx context.Context, msg domain.Message) error

func (f EmitterFunc) Emit(ctx context.Context, msg domain.Message) error {
	return f(ctx, msg)
}

// MultiEmitter fans a message out to every emitter and joins their errors.
type MultiEmitter []Emitter

func (m MultiEmitter) Emit(ctx context.Context, msg domain.Message) error {
	var errs []error
	for _, e := range m {
		if e == nil {
			continue
		}
		if err := e.Emit(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NopEmitter discards every message.
var NopEmitter Emitter = EmitterFunc(func(context.Context, domain.Message) error { return nil })
