package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/chatflow/pkg/adapters/memory"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSessionStoreContract(t, store)
}

func TestMemoryStore_StampsUpdatedAt(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.NewSession("a")))
	loaded, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.False(t, loaded.UpdatedAt.IsZero())
	assert.Equal(t, 1, store.Len())
}

func TestSource(t *testing.T) {
	src, err := memory.NewFromNodes(
		[]domain.Node{
			{ID: "start", Kind: domain.KindStart},
			{ID: "end", Kind: domain.KindFinalize, Text: "bye"},
		},
		domain.Edge{Source: "start", Target: "end"},
	)
	require.NoError(t, err)
	assert.Equal(t, "end", src.Graph().Next("start", nil).ID)

	var _ ports.ReloadableSource = src

	_, err = memory.NewFromNodes([]domain.Node{{ID: "end", Kind: domain.KindFinalize}})
	assert.Error(t, err)
}
