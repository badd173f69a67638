// Package backend assembles the ledger's infrastructure from configuration:
// the record store, the report cache and the optional event publisher.
package backend

import (
	"context"
	"time"

	"gastos/internal/amqp"
	"gastos/internal/cache"
	"gastos/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// ReadinessCheck probes one dependency.
type ReadinessCheck func(ctx context.Context) error

// BackendResult contains the assembled dependencies and their cleanup.
type BackendResult struct {
	Repository storage.Repository
	Cache      cache.Store
	// Publisher is nil when AMQP is not configured or unreachable.
	Publisher *amqp.Client
	Checks    map[string]ReadinessCheck
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type         BackendType
	SQLiteDBPath string

	CacheType CacheType
	CacheTTL  time.Duration
	CacheSize int
	RedisURL  string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of record store
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// CacheType selects the report cache.
type CacheType string

const (
	NoCache    CacheType = "none"
	LRUCache   CacheType = "lru"
	RedisCache CacheType = "redis"
)

func (ct CacheType) IsValid() bool {
	switch ct {
	case NoCache, LRUCache, RedisCache:
		return true
	default:
		return false
	}
}
