// Package answercache memoizes model answers in a key-value store.
package answercache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/localaid/localaid/internal/db"
)

const cacheKeyPrefix = "answer:"

// Completer is the decorated inference client.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// store is the consumer interface for the answer cache.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedCompleter caches answers per model and prompt.
type CachedCompleter struct {
	inner      Completer
	store      store
	model      string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator. ttl <= 0 keeps entries without expiry.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner Completer,
	s store,
	model string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedCompleter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedCompleter{
		inner:      inner,
		store:      s,
		model:      model,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Complete returns a cached answer or calls the inner completer.
// Empty answers are not cached. Cache failures never fail the call.
func (c *CachedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	key := c.cacheKey(prompt)

	if answer, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return answer, nil
	}

	c.incCache("miss")

	answer, err := c.inner.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("complete prompt: %w", err)
	}

	if answer != "" {
		c.putToCache(ctx, key, answer)
	}
	return answer, nil
}

func (c *CachedCompleter) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedCompleter) cacheKey(prompt string) string {
	h := sha256.New()
	h.Write([]byte(c.model))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

func (c *CachedCompleter) getFromCache(ctx context.Context, key string) (string, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached answer", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	if len(data) == 0 {
		return "", false
	}
	return string(data), true
}

func (c *CachedCompleter) putToCache(ctx context.Context, key, answer string) {
	if err := c.store.Put(ctx, key, []byte(answer), c.ttl); err != nil {
		c.logger.Warn("Failed to cache answer", zap.String("key", key), zap.Error(err))
	}
}
