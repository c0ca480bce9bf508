// Package config loads chatflow settings from a config file, the environment and .env.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	appName   = "chatflow"
	envPrefix = "CHATFLOW"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

// Config is the fully resolved application configuration.
type Config struct {
	Graph   GraphConfig   `mapstructure:"graph"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Store   StoreConfig   `mapstructure:"store"`
	Lock    LockConfig    `mapstructure:"lock"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Webhook WebhookConfig `mapstructure:"webhook"`
	Input   InputConfig   `mapstructure:"input"`
	Log     LogConfig     `mapstructure:"log"`
}

type GraphConfig struct {
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"`
}

type EngineConfig struct {
	Pacing        time.Duration `mapstructure:"pacing"`
	InvalidNotice string        `mapstructure:"invalid_notice"`
}

// StoreConfig selects and configures the session store.
type StoreConfig struct {
	Driver                 string        `mapstructure:"driver"`
	Dir                    string        `mapstructure:"dir"`
	RedisURL               string        `mapstructure:"redis_url"`
	Prefix                 string        `mapstructure:"prefix"`
	TTL                    time.Duration `mapstructure:"ttl"`
	SQLitePath             string        `mapstructure:"sqlite_path"`
	Timeout                time.Duration `mapstructure:"timeout"`
	EncryptionKey          string        `mapstructure:"encryption_key"`
	EncryptionFallbackKeys []string      `mapstructure:"encryption_fallback_keys"`
}

type LockConfig struct {
	Distributed bool          `mapstructure:"distributed"`
	TTL         time.Duration `mapstructure:"ttl"`
}

type HTTPConfig struct {
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// WebhookConfig configures the messaging channel bridge.
// An empty URL disables outbound delivery.
type WebhookConfig struct {
	URL         string        `mapstructure:"url"`
	SessionPath string        `mapstructure:"session_path"`
	TextPath    string        `mapstructure:"text_path"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type InputConfig struct {
	MaxSize int `mapstructure:"max_size"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// New returns a viper instance with defaults, env binding and config search paths set.
// Callers may bind flags onto it before calling Decode.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigName(appName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", appName))
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("graph.path", "")
	v.SetDefault("graph.watch", false)

	v.SetDefault("engine.pacing", time.Duration(0))
	v.SetDefault("engine.invalid_notice", "Invalid option. Please choose one of the options below.")

	v.SetDefault("store.driver", DriverMemory)
	v.SetDefault("store.dir", filepath.Join(".chatflow", "sessions"))
	v.SetDefault("store.redis_url", "redis://localhost:6379/0")
	v.SetDefault("store.prefix", "chatflow:session:")
	v.SetDefault("store.ttl", time.Duration(0))
	v.SetDefault("store.sqlite_path", filepath.Join(".chatflow", "sessions.db"))
	v.SetDefault("store.timeout", 5*time.Second)
	v.SetDefault("store.encryption_key", "")
	v.SetDefault("store.encryption_fallback_keys", []string{})

	v.SetDefault("lock.distributed", false)
	v.SetDefault("lock.ttl", 30*time.Second)

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.cors_origins", []string{"*"})

	v.SetDefault("webhook.url", "")
	v.SetDefault("webhook.session_path", "sessionId")
	v.SetDefault("webhook.text_path", "text")
	v.SetDefault("webhook.timeout", 10*time.Second)

	v.SetDefault("input.max_size", 4096)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// LoadDotEnv reads .env files into the process environment. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// Decode reads the config file (explicit path, or the search paths when empty) and
// unmarshals the merged settings. A missing search-path file is not an error.
func Decode(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is LoadDotEnv followed by Decode on a fresh instance.
func Load(file string) (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	return Decode(New(), file)
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case DriverMemory, DriverFile, DriverRedis, DriverSQLite:
	default:
		return fmt.Errorf("unknown store driver %q (want memory, file, redis or sqlite)", c.Store.Driver)
	}
	if c.Lock.Distributed && c.Store.Driver != DriverRedis {
		return errors.New("lock.distributed requires store.driver=redis")
	}
	if c.Engine.Pacing < 0 {
		return fmt.Errorf("engine.pacing must not be negative, got %s", c.Engine.Pacing)
	}
	if c.Input.MaxSize <= 0 {
		return fmt.Errorf("input.max_size must be positive, got %d", c.Input.MaxSize)
	}
	return nil
}
