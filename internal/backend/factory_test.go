package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gastos/internal/cache"
	"gastos/internal/config"
	"gastos/internal/core"
	"gastos/internal/storage"
	"gastos/internal/storage/memory"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory without cache", Config{Type: MemoryBackend, CacheType: NoCache}, false},
		{"sqlite with lru", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db", CacheType: LRUCache, CacheSize: 10}, false},
		{"unknown backend", Config{Type: "sheets", CacheType: NoCache}, true},
		{"sqlite without path", Config{Type: SQLiteBackend, CacheType: NoCache}, true},
		{"lru without size", Config{Type: MemoryBackend, CacheType: LRUCache}, true},
		{"redis without url", Config{Type: MemoryBackend, CacheType: RedisCache}, true},
		{"unknown cache", Config{Type: MemoryBackend, CacheType: "memcached"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	app := &config.Config{DataBackend: "memory", CacheBackend: "lru", CacheSize: 5, CacheTTL: time.Minute}
	cfg, err := FromAppConfig(app)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != MemoryBackend || cfg.CacheType != LRUCache || cfg.CacheSize != 5 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend, CacheType: LRUCache, CacheSize: 10, CacheTTL: time.Minute})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Cleanup()

	if _, ok := res.Repository.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", res.Repository)
	}
	if _, ok := res.Cache.(*cache.Local); !ok {
		t.Fatalf("expected local cache, got %T", res.Cache)
	}
	if res.Publisher != nil {
		t.Fatal("publisher must be nil without AMQP")
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "gastos.db")
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: dbPath, CacheType: NoCache})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Cleanup()

	if _, ok := res.Repository.(*storage.SQLiteRepository); !ok {
		t.Fatalf("expected sqlite repository, got %T", res.Repository)
	}
	if res.Cache != nil {
		t.Fatal("cache must be nil when disabled")
	}
	check, ok := res.Checks["storage"]
	if !ok {
		t.Fatal("missing storage readiness check")
	}
	if err := check(context.Background()); err != nil {
		t.Fatalf("storage check: %v", err)
	}

	ctx := context.Background()
	if err := res.Repository.AddCategory(ctx, "u1", core.Category{Name: "Vivienda"}); err != nil {
		t.Fatalf("add category: %v", err)
	}
}
