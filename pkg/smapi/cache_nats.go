package smapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSKVConfig configures a NATS JetStream key-value cache backend. It is
// useful when several processes share one management endpoint and want to
// share read results.
type NATSKVConfig struct {
	// URL is the NATS server URL, e.g. "nats://localhost:4222".
	URL string

	// Bucket is the KV bucket name. Created if it does not exist.
	Bucket string

	// TTL applied to the bucket at creation time.
	TTL time.Duration
}

// NATSKVCache stores cache entries in a NATS JetStream KV bucket.
type NATSKVCache struct {
	conn   *nats.Conn
	bucket nats.KeyValue
}

var natsKeySanitizer = regexp.MustCompile(`[^-/_=.a-zA-Z0-9]`)

// NewNATSKVCache connects to NATS and binds (or creates) the KV bucket.
func NewNATSKVCache(config *NATSKVConfig) (*NATSKVCache, error) {
	conn, err := nats.Connect(config.URL)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("getting JetStream context: %w", err)
	}

	bucket, err := js.KeyValue(config.Bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		bucket, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket: config.Bucket,
			TTL:    config.TTL,
		})
	}

	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("binding KV bucket %q: %w", config.Bucket, err)
	}

	return &NATSKVCache{conn: conn, bucket: bucket}, nil
}

// Get retrieves an entry from the bucket.
func (c *NATSKVCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	kvEntry, err := c.bucket.Get(sanitizeNATSKey(key))
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) {
			return nil, ErrCacheMiss
		}

		return nil, fmt.Errorf("getting cache entry: %w", err)
	}

	var entry CacheEntry

	err = json.Unmarshal(kvEntry.Value(), &entry)
	if err != nil {
		return nil, fmt.Errorf("decoding cache entry: %w", err)
	}

	if entry.Expired() {
		_ = c.bucket.Delete(sanitizeNATSKey(key))

		return nil, ErrCacheMiss
	}

	return &entry, nil
}

// Set stores an entry in the bucket.
func (c *NATSKVCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	_, err = c.bucket.Put(sanitizeNATSKey(key), data)
	if err != nil {
		return fmt.Errorf("storing cache entry: %w", err)
	}

	return nil
}

// Delete removes an entry from the bucket.
func (c *NATSKVCache) Delete(ctx context.Context, key string) error {
	err := c.bucket.Delete(sanitizeNATSKey(key))
	if err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return fmt.Errorf("deleting cache entry: %w", err)
	}

	return nil
}

// Clear removes all entries from the bucket.
func (c *NATSKVCache) Clear(ctx context.Context) error {
	keys, err := c.bucket.Keys()
	if err != nil {
		if errors.Is(err, nats.ErrNoKeysFound) {
			return nil
		}

		return fmt.Errorf("listing cache keys: %w", err)
	}

	for _, key := range keys {
		err := c.bucket.Delete(key)
		if err != nil {
			return fmt.Errorf("deleting cache entry %q: %w", key, err)
		}
	}

	return nil
}

// Has checks if a non-expired entry exists.
func (c *NATSKVCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// Close releases the NATS connection.
func (c *NATSKVCache) Close() {
	c.conn.Close()
}

// sanitizeNATSKey maps arbitrary cache keys (URLs) onto the character set NATS
// allows for KV keys.
func sanitizeNATSKey(key string) string {
	return natsKeySanitizer.ReplaceAllString(key, "_")
}
