package cache

import (
	"context"
	"errors"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultTimeout bounds how long one result generation may run.
const DefaultTimeout = 20 * time.Second

var (
	// ErrInvalidRange marks a height range whose bounds are reversed.
	ErrInvalidRange = errors.New("invalid height range")
	// ErrRangeNotSynced marks a range that reaches past the synced frontier.
	ErrRangeNotSynced = errors.New("height range not yet synced")
)

// Cache memoizes query results over closed height ranges. A result keyed by a
// range that ends at or below the synced frontier can never change, so it is
// stored without expiry. Concurrent requests for the same key share a single
// generation; failed generations are not stored.
type Cache[V any] struct {
	logger  *zap.Logger
	entries *xsync.Map[string, V]
	group   singleflight.Group
	timeout time.Duration
}

// New creates a cache. A non-positive timeout falls back to DefaultTimeout.
func New[V any](logger *zap.Logger, timeout time.Duration) *Cache[V] {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Cache[V]{
		logger:  logger.Named("cache"),
		entries: xsync.NewMap[string, V](),
		timeout: timeout,
	}
}

// Get returns the cached value for key, generating and storing it on a miss.
// The (fromHeight, toHeight] range is validated against the synced frontier
// first: a reversed range and a range past the frontier are client errors,
// and a zero-width range short-circuits to the zero value without running
// the generator.
func (c *Cache[V]) Get(ctx context.Context, key string, fromHeight, toHeight, syncedHeight uint64, generate func(ctx context.Context) (V, error)) (V, error) {
	var zero V
	if toHeight < fromHeight {
		return zero, ErrInvalidRange
	}
	if toHeight > syncedHeight {
		return zero, ErrRangeNotSynced
	}
	if fromHeight == toHeight {
		return zero, nil
	}

	if v, ok := c.entries.Load(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		genCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		return generate(genCtx)
	})
	if err != nil {
		c.logger.Debug("result generation failed", zap.String("key", key), zap.Error(err))
		return zero, err
	}

	value := v.(V)
	c.entries.Store(key, value)
	return value, nil
}

// Len returns the number of stored results.
func (c *Cache[V]) Len() int {
	return c.entries.Size()
}
