package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/aretw0/chatflow/internal/runtime"
	"github.com/aretw0/chatflow/pkg/domain"
	mock_ports "github.com/aretw0/chatflow/pkg/ports/mocks"
)

func TestEngine_StoreUnavailable(t *testing.T) {
	ctx := context.Background()

	t.Run("Load Failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mock_ports.NewMockSessionStore(ctrl)
		store.EXPECT().Load(gomock.Any(), "s").Return(nil, errors.New("connection refused"))

		f := newFixture(t, nil)
		engine := f.newEngine(store)

		res, err := engine.HandleInput(ctx, "s", "1")
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
		assert.Nil(t, res)
		assert.Empty(t, f.out.texts())
	})

	t.Run("Save Failure Emits Nothing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mock_ports.NewMockSessionStore(ctrl)
		store.EXPECT().Load(gomock.Any(), "s").Return(nil, domain.ErrSessionNotFound)
		store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

		f := newFixture(t, nil)
		engine := f.newEngine(store)

		_, err := engine.Start(ctx, "s")
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
		assert.ErrorContains(t, err, "disk full")
		assert.Empty(t, f.out.texts(), "nothing is shown for a state that was not persisted")
	})

	t.Run("Failure Mid Chain", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mock_ports.NewMockSessionStore(ctrl)
		store.EXPECT().Load(gomock.Any(), "s").Return(nil, domain.ErrSessionNotFound)
		gomock.InOrder(
			store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil),
			store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("timeout")),
		)

		f := newFixture(t, nil)
		engine := f.newEngine(store)

		_, err := engine.Start(ctx, "s")
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
		assert.Equal(t, []string{"Oi!"}, f.out.texts())
	})

	t.Run("Reset Delete Failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mock_ports.NewMockSessionStore(ctrl)
		store.EXPECT().Delete(gomock.Any(), "s").Return(errors.New("read only"))

		f := newFixture(t, nil)
		_, err := f.newEngine(store).Reset(ctx, "s")
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	})

	t.Run("Not Found Is Not Unavailable", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.engine.Session(ctx, "ghost")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
		assert.NotErrorIs(t, err, domain.ErrStoreUnavailable)
	})
}

func TestEngine_EmitterFailureIsSwallowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	emitter := mock_ports.NewMockEmitter(ctrl)
	emitter.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("adapter down")).Times(2)

	f := newFixture(t, nil)
	engine := f.newEngine(f.store, runtime.WithEmitter(emitter))

	res, err := engine.Start(context.Background(), "s")
	require.NoError(t, err)
	assert.Len(t, res.Messages, 2, "caller still gets the messages")

	stored, err := engine.Session(context.Background(), "s")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAwaiting, stored.Status())
}

func TestEngine_NoGraph(t *testing.T) {
	f := newFixture(t, nil)
	f.source.Replace(nil)

	_, err := f.engine.Start(context.Background(), "s")
	assert.ErrorIs(t, err, domain.ErrNoGraph)
}
