package smapi

import (
	"errors"
	"fmt"
)

// CacheType represents the type of cache backend.
type CacheType string

const (
	// CacheTypeMemory represents in-memory cache.
	CacheTypeMemory CacheType = "memory"

	// CacheTypeNATS represents NATS KV cache.
	CacheTypeNATS CacheType = "nats"

	// CacheTypeNone represents no caching.
	CacheTypeNone CacheType = "none"
)

// Static errors for cache construction.
var (
	ErrNATSConfigRequired   = errors.New("NATS configuration required for NATS cache")
	ErrUnsupportedCacheType = errors.New("unsupported cache type")
)

// CacheConfig configures the cache backend.
type CacheConfig struct {
	// Type is the cache backend type.
	Type CacheType

	// Memory cache configuration.
	Memory *MemoryCacheConfig

	// NATS KV cache configuration.
	NATS *NATSKVConfig

	// Common options applied to any backend. If nil, DefaultCacheOptions() is used.
	Options *CacheOptions
}

// MemoryCacheConfig configures memory cache.
type MemoryCacheConfig struct {
	// MaxSize is the maximum number of items in the cache.
	MaxSize int
}

// DefaultCacheConfig returns default cache configuration.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Type:    CacheTypeMemory,
		Memory:  &MemoryCacheConfig{MaxSize: 1000},
		Options: DefaultCacheOptions(),
	}
}

// NewCacheFromConfig creates a cache backend from configuration.
func NewCacheFromConfig(config *CacheConfig) (Cache, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}

	switch config.Type {
	case CacheTypeMemory, "":
		maxSize := 0
		if config.Memory != nil {
			maxSize = config.Memory.MaxSize
		}

		return NewMemoryCache(maxSize), nil

	case CacheTypeNATS:
		if config.NATS == nil {
			return nil, ErrNATSConfigRequired
		}

		return NewNATSKVCache(config.NATS)

	case CacheTypeNone:
		return NewNoOpCache(), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCacheType, config.Type)
	}
}
