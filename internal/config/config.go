package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/cerberus/pkg/domain"
	"github.com/aretw0/cerberus/pkg/persistence/middleware"
	"github.com/spf13/viper"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config holds process configuration.
type Config struct {
	Service  ServiceConfig
	Refresh  RefreshConfig
	Share    ShareConfig
	Store    StoreConfig
	Log      LogConfig
	Catalog  CatalogConfig
	Defaults DefaultsConfig
}

// ServiceConfig locates the semantics service and the example files it serves.
type ServiceConfig struct {
	URL      string
	Endpoint string
	Timeout  time.Duration
}

// RefreshConfig tunes the auto-refresh ticker.
type RefreshConfig struct {
	Interval time.Duration
}

// ShareConfig controls share links.
type ShareConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Short   bool
}

// StoreConfig selects where short-link snapshots and saved sessions live.
type StoreConfig struct {
	Backend  string
	Path     string
	RedisURL string `mapstructure:"redis_url"`
	TTL      time.Duration
	// EncryptionKey is a base64 AES-256 key. When set, snapshots are encrypted at rest.
	EncryptionKey string `mapstructure:"encryption_key"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string
	File  string
}

// CatalogConfig points at an example catalog file. Empty means the bundled one.
// Dir, when set, is a local directory holding the example files (buffer.c, defacto/,
// demo/); otherwise they are downloaded from service.url.
type CatalogConfig struct {
	Path string
	Dir  string
}

// DefaultsConfig seeds the initial settings.
type DefaultsConfig struct {
	Model         string
	Rewrite       bool
	Sequentialise bool
	AutoRefresh   bool `mapstructure:"auto_refresh"`
}

// Load reads configuration from file and env. Env var overrides use prefix CERBERUS_.
// An explicit path (or CERBERUS_CONFIG) must exist; otherwise cerberus.yaml is looked
// up in the working directory and in ~/.config/cerberus, and may be absent.
func Load(path string) (Config, error) {
	v := viper.New()

	defaults := domain.DefaultSettings()
	v.SetDefault("service.url", "http://localhost:8080")
	v.SetDefault("service.endpoint", domain.DefaultEndpoint)
	v.SetDefault("service.timeout", 30*time.Second)
	v.SetDefault("refresh.interval", 2*time.Second)
	v.SetDefault("share.base_url", "http://localhost:8080/")
	v.SetDefault("share.short", defaults.ShortShare)
	v.SetDefault("store.backend", StoreMemory)
	v.SetDefault("store.path", filepath.Join(".cerberus", "sessions"))
	v.SetDefault("store.redis_url", "redis://localhost:6379/0")
	v.SetDefault("store.ttl", time.Duration(0))
	v.SetDefault("store.encryption_key", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("catalog.path", "")
	v.SetDefault("catalog.dir", "")
	v.SetDefault("defaults.model", string(defaults.Model))
	v.SetDefault("defaults.rewrite", defaults.Rewrite)
	v.SetDefault("defaults.sequentialise", defaults.Sequentialise)
	v.SetDefault("defaults.auto_refresh", defaults.AutoRefresh)

	if path == "" {
		path = os.Getenv("CERBERUS_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("cerberus")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "cerberus"))
		}
	}

	v.SetEnvPrefix("CERBERUS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the enumerated values.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		return fmt.Errorf("invalid store.backend %q: want memory, file or redis", c.Store.Backend)
	}
	if c.Store.EncryptionKey != "" {
		if _, err := middleware.ParseKey(c.Store.EncryptionKey); err != nil {
			return fmt.Errorf("invalid store.encryption_key: %w", err)
		}
	}
	if _, err := domain.ParseModel(c.Defaults.Model); err != nil {
		return fmt.Errorf("invalid defaults.model: %w", err)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Settings yields the initial user settings.
func (c Config) Settings() domain.Settings {
	s := domain.DefaultSettings()
	if m, err := domain.ParseModel(c.Defaults.Model); err == nil {
		s.Model = m
	}
	s.Rewrite = c.Defaults.Rewrite
	s.Sequentialise = c.Defaults.Sequentialise
	s.AutoRefresh = c.Defaults.AutoRefresh
	s.ShortShare = c.Share.Short
	return s
}

// LogLevel is the parsed log.level, Info when invalid.
func (c Config) LogLevel() slog.Level {
	level, err := ParseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseLevel accepts debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log.level %q: %w", s, err)
	}
	return level, nil
}
