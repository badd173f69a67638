package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gastos/internal/amqp"
	"gastos/internal/cache"
	"gastos/internal/log"
	"gastos/internal/storage"
	"gastos/internal/storage/memory"
)

// cacheCleanupInterval is how often expired LRU entries are swept.
const cacheCleanupInterval = time.Minute

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger.With(log.FieldComponent, log.ComponentBackend),
	}
}

// CreateBackend builds every dependency in order. On failure the ones
// already built are released.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	res := &BackendResult{Checks: make(map[string]ReadinessCheck)}
	var cleanups []CleanupFunc
	res.Cleanup = func() error {
		var errs []error
		for i := len(cleanups) - 1; i >= 0; i-- {
			if err := cleanups[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	fail := func(err error) (*BackendResult, error) {
		if cerr := res.Cleanup(); cerr != nil {
			f.logger.Warn("Cleanup after failed backend creation", log.FieldError, cerr)
		}
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return fail(fmt.Errorf("failed to initialize SQLite repository: %w", err))
		}
		res.Repository = repo
		res.Checks["storage"] = repo.Ping
		cleanups = append(cleanups, repo.Close)
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		store := memory.New()
		res.Repository = store
		cleanups = append(cleanups, store.Close)
		f.logger.Info("Initialized memory backend")
	}

	switch config.CacheType {
	case LRUCache:
		local := cache.NewLocal(config.CacheSize, config.CacheTTL)
		manager := cache.NewManager(f.logger)
		manager.Register(local)
		manager.StartCleanup(cacheCleanupInterval)
		res.Cache = local
		cleanups = append(cleanups, func() error { manager.Stop(); return nil })
		f.logger.Info("Initialized LRU report cache", "size", config.CacheSize, "ttl", config.CacheTTL)
	case RedisCache:
		rc, err := cache.DialRedis(ctx, config.RedisURL, config.CacheTTL)
		if err != nil {
			return fail(err)
		}
		res.Cache = rc
		res.Checks["cache"] = rc.Ping
		cleanups = append(cleanups, rc.Close)
		f.logger.Info("Initialized Redis report cache", "ttl", config.CacheTTL)
	}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			// events are best effort; the API keeps serving without them
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		} else {
			res.Publisher = client
			cleanups = append(cleanups, client.Close)
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	return res, nil
}
