package redis_test

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/chatflow/pkg/adapters/redis"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/persistence/codec"
	"github.com/aretw0/chatflow/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := setup(t)
	ports.RunSessionStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_EncryptedContract(t *testing.T) {
	_, client := setup(t)
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	c, err := codec.NewEncrypted(codec.EncryptionConfig{ActiveKey: key}, nil)
	require.NoError(t, err)

	ports.RunSessionStoreContract(t, redis.NewFromClient(client, redis.WithCodec(c)))
}

func TestRedisStore_PrefixAndIndex(t *testing.T) {
	mr, client := setup(t)
	store := redis.NewFromClient(client, redis.WithPrefix("test:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.NewSession("abc")))
	assert.True(t, mr.Exists("test:s:abc"))
	assert.True(t, mr.Exists("test:index"))

	require.NoError(t, store.Delete(ctx, "abc"))
	assert.False(t, mr.Exists("test:s:abc"))
}

func TestRedisStore_IndexIDDoesNotCollide(t *testing.T) {
	_, client := setup(t)
	store := redis.NewFromClient(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.NewSession("alice")))
	require.NoError(t, store.Save(ctx, domain.NewSession("index")))
	require.NoError(t, store.Save(ctx, domain.NewSession("bob")))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob", "index"}, ids)

	got, err := store.Load(ctx, "index")
	require.NoError(t, err)
	assert.Equal(t, "index", got.SessionID)
}

func TestRedisStore_TTL(t *testing.T) {
	mr, client := setup(t)
	store := redis.NewFromClient(client, redis.WithTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.NewSession("idle")))
	_, err := store.Load(ctx, "idle")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = store.Load(ctx, "idle")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestRedisStore_NoTTLByDefault(t *testing.T) {
	mr, client := setup(t)
	store := redis.NewFromClient(client)
	require.NoError(t, store.Save(context.Background(), domain.NewSession("forever")))
	assert.Equal(t, time.Duration(0), mr.TTL(redis.DefaultPrefix+"s:forever"))
}

func TestRedisStore_Unavailable(t *testing.T) {
	mr, client := setup(t)
	store := redis.NewFromClient(client)
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := store.Load(ctx, "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestNew_ParsesURL(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := redis.New("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	defer store.Close()
	assert.NoError(t, store.Ping(context.Background()))

	_, err = redis.New("::not a url")
	assert.Error(t, err)
}
