package runtime_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/chatflow/pkg/domain"
)

func TestEngine_SameSessionIsSerialized(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.engine.Start(ctx, "c")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.engine.HandleInput(ctx, "c", "9")
			assert.NoError(t, err)
			assert.Len(t, res.Messages, 1)
		}()
	}
	wg.Wait()

	s, err := f.engine.Session(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAwaiting, s.Status())
	assert.Equal(t, "menu", s.CurrentNodeID)
}

func TestEngine_ConcurrentValidInputsAdvanceOnce(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.engine.Start(ctx, "c")
	require.NoError(t, err)
	f.out.reset()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.HandleInput(ctx, "c", "1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	finals := 0
	for _, text := range f.out.texts() {
		if text == "Obrigado!" {
			finals++
		}
	}
	// Each finalize is followed by a restart, which parks on the menu again,
	// so the calls alternate between finishing and restarting.
	assert.Equal(t, 5, finals)
}

func TestEngine_IndependentSessionsInParallel(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.engine.Start(ctx, id)
			assert.NoError(t, err)
			res, err := f.engine.HandleInput(ctx, id, "2")
			assert.NoError(t, err)
			assert.Equal(t, []string{"Até logo!"}, texts(res))
		}(fmt.Sprintf("user-%d", i))
	}
	wg.Wait()

	ids, err := f.engine.Sessions(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 20)
}
