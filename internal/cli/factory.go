package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/chatflow"
	"github.com/aretw0/chatflow/internal/config"
	"github.com/aretw0/chatflow/pkg/adapters/file"
	"github.com/aretw0/chatflow/pkg/adapters/memory"
	"github.com/aretw0/chatflow/pkg/adapters/redis"
	"github.com/aretw0/chatflow/pkg/adapters/sqlite"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/persistence/codec"
	"github.com/aretw0/chatflow/pkg/persistence/middleware"
	"github.com/aretw0/chatflow/pkg/ports"
)

const (
	lockPrefix    = "chatflow:"
	slowStoreWarn = 250 * time.Millisecond
)

// Backend is an opened session store plus what it needs released on exit.
type Backend struct {
	Store  ports.SessionStore
	Locker ports.DistributedLocker
	Driver string
	raw    ports.SessionStore
	closer io.Closer
}

// Close releases the connection or file handle behind the store.
func (b *Backend) Close() error {
	if b == nil || b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

// OpenBackend builds the configured session store. Records are encrypted when a key
// is configured, and every store is wrapped with logging and timeout middleware.
func OpenBackend(cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	c, err := buildCodec(cfg.Store)
	if err != nil {
		return nil, err
	}

	b := &Backend{Driver: cfg.Store.Driver}
	var raw ports.SessionStore

	switch cfg.Store.Driver {
	case config.DriverMemory:
		if c != nil {
			logger.Warn("store.encryption_key has no effect on the memory store")
		}
		raw = memory.NewStore()
	case config.DriverFile:
		var opts []file.Option
		if c != nil {
			opts = append(opts, file.WithCodec(c))
		}
		raw = file.New(cfg.Store.Dir, opts...)
	case config.DriverRedis:
		opts := []redis.Option{redis.WithPrefix(cfg.Store.Prefix), redis.WithTTL(cfg.Store.TTL)}
		if c != nil {
			opts = append(opts, redis.WithCodec(c))
		}
		rs, err := redis.New(cfg.Store.RedisURL, opts...)
		if err != nil {
			return nil, err
		}
		raw, b.closer = rs, rs
		if cfg.Lock.Distributed {
			b.Locker = redis.NewLocker(rs.Client(), lockPrefix)
		}
	case config.DriverSQLite:
		var opts []sqlite.Option
		if c != nil {
			opts = append(opts, sqlite.WithCodec(c))
		}
		ss, err := sqlite.Open(cfg.Store.SQLitePath, opts...)
		if err != nil {
			return nil, err
		}
		raw, b.closer = ss, ss
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	b.raw = raw
	b.Store = middleware.Chain(raw,
		middleware.NewLoggingMiddleware(logger, slowStoreWarn),
		middleware.NewTimeoutMiddleware(cfg.Store.Timeout),
	)
	logger.Debug("session store ready", "driver", b.Driver, "encrypted", c != nil, "distributed_lock", b.Locker != nil)
	return b, nil
}

func buildCodec(sc config.StoreConfig) (codec.Codec, error) {
	if sc.EncryptionKey == "" {
		if len(sc.EncryptionFallbackKeys) > 0 {
			return nil, errors.New("store.encryption_fallback_keys requires store.encryption_key")
		}
		return nil, nil
	}
	active, err := codec.ParseKey(sc.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("store.encryption_key: %w", err)
	}
	conf := codec.EncryptionConfig{ActiveKey: active}
	for i, k := range sc.EncryptionFallbackKeys {
		key, err := codec.ParseKey(k)
		if err != nil {
			return nil, fmt.Errorf("store.encryption_fallback_keys[%d]: %w", i, err)
		}
		conf.FallbackKeys = append(conf.FallbackKeys, key)
	}
	return codec.NewEncrypted(conf, codec.JSON())
}

// EngineOptions gathers what the commands add on top of the config.
type EngineOptions struct {
	Backend *Backend
	Hooks   []domain.LifecycleHooks
	Emitter []ports.Emitter
}

// NewEngine initializes the facade with standard CLI conventions.
func NewEngine(cfg *config.Config, logger *slog.Logger, eo EngineOptions) (*chatflow.Engine, error) {
	if cfg.Graph.Path == "" {
		return nil, errors.New("no graph given: pass a path or set graph.path / CHATFLOW_GRAPH_PATH")
	}

	opts := []chatflow.Option{
		chatflow.WithLogger(logger),
		chatflow.WithPacing(cfg.Engine.Pacing),
		chatflow.WithInvalidNotice(cfg.Engine.InvalidNotice),
	}
	if eo.Backend != nil {
		opts = append(opts, chatflow.WithStore(eo.Backend.Store))
		if eo.Backend.Locker != nil {
			opts = append(opts, chatflow.WithLocker(eo.Backend.Locker, cfg.Lock.TTL))
		}
	}
	for _, h := range eo.Hooks {
		opts = append(opts, chatflow.WithLifecycleHooks(h))
	}
	for _, e := range eo.Emitter {
		opts = append(opts, chatflow.WithEmitter(e))
	}

	eng, err := chatflow.New(cfg.Graph.Path, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return eng, nil
}
