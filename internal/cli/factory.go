package cli

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/cerberus"
	"github.com/aretw0/cerberus/internal/config"
	"github.com/aretw0/cerberus/pkg/adapters/file"
	httpAdapter "github.com/aretw0/cerberus/pkg/adapters/http"
	"github.com/aretw0/cerberus/pkg/adapters/memory"
	"github.com/aretw0/cerberus/pkg/adapters/redis"
	"github.com/aretw0/cerberus/pkg/persistence/middleware"
	"github.com/aretw0/cerberus/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// OpenStore creates the snapshot store selected by cfg.Store.Backend, encrypted when
// cfg.Store.EncryptionKey is set. The returned function releases it.
func OpenStore(cfg config.Config) (ports.SnapshotStore, func() error, error) {
	store, closeStore, err := openBackend(cfg)
	if err != nil || cfg.Store.EncryptionKey == "" {
		return store, closeStore, err
	}

	key, err := middleware.ParseKey(cfg.Store.EncryptionKey)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return middleware.Chain(store, mw), closeStore, nil
}

func openBackend(cfg config.Config) (ports.SnapshotStore, func() error, error) {
	switch cfg.Store.Backend {
	case config.StoreMemory:
		return memory.NewStore(), func() error { return nil }, nil
	case config.StoreFile:
		return file.New(cfg.Store.Path), func() error { return nil }, nil
	case config.StoreRedis:
		store, err := redis.New(cfg.Store.RedisURL, redis.WithTTL(cfg.Store.TTL))
		if err != nil {
			return nil, nil, fmt.Errorf("error opening redis store: %w", err)
		}
		return store, store.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// NewService creates the semantics service client for cfg.
func NewService(cfg config.Config, logger *slog.Logger) *httpAdapter.Client {
	return httpAdapter.NewClient(cfg.Service.URL,
		httpAdapter.WithEndpoint(cfg.Service.Endpoint),
		httpAdapter.WithTimeout(cfg.Service.Timeout),
		httpAdapter.WithClientLogger(logger),
	)
}

// NewFetcher reads example files from catalog.dir when set, else from service.url.
func NewFetcher(cfg config.Config) ports.SourceFetcher {
	if cfg.Catalog.Dir != "" {
		return file.NewFetcher(cfg.Catalog.Dir)
	}
	return httpAdapter.NewFetcher(cfg.Service.URL, nil)
}

// NewClient wires a cerberus client with standard CLI conventions: the service and
// its example files live at service.url, snapshots go to the configured store.
// A nil registerer leaves metrics unregistered.
func NewClient(cfg config.Config, logger *slog.Logger, reg prometheus.Registerer) (*cerberus.Client, func() error, error) {
	store, closeStore, err := OpenStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	client := cerberus.New(NewService(cfg, logger),
		cerberus.WithLogger(logger),
		cerberus.WithFetcher(NewFetcher(cfg)),
		cerberus.WithStore(store),
		cerberus.WithSettings(cfg.Settings()),
		cerberus.WithShareBaseURL(cfg.Share.BaseURL),
		cerberus.WithMetrics(reg),
	)
	return client, closeStore, nil
}
