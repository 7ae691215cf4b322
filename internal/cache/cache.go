package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ddalkkak/course-service/internal/domain"
	"github.com/ddalkkak/course-service/internal/observability"
)

// keyPrefix namespaces generation entries in the shared store.
const keyPrefix = "course:"

// ResponseCache maps a canonicalized generation request to a previously
// computed result. It is a pure optimization: a nil store, a store error,
// or a disabled cache all behave exactly like a miss.
type ResponseCache struct {
	store   Store
	ttl     time.Duration
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// New creates a ResponseCache over the given store. A nil store disables the
// cache without changing caller behavior.
func New(store Store, ttl time.Duration, logger zerolog.Logger, metrics *observability.Metrics) *ResponseCache {
	return &ResponseCache{
		store:   store,
		ttl:     ttl,
		logger:  logger.With().Str("component", "cache").Logger(),
		metrics: metrics,
	}
}

// Key derives the deterministic cache key for a request. Requests with equal
// region, date type, and budget always map to the same key.
func Key(req domain.GenerationRequest) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%d", req.Region, req.DateType, req.Budget)))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Get looks up the cached result for req. The second return value reports
// whether a usable entry was found; store failures count as misses.
func (c *ResponseCache) Get(req domain.GenerationRequest) (*domain.GenerationResult, bool) {
	if c == nil || c.store == nil {
		return nil, false
	}

	key := Key(req)
	data, err := c.store.Get(key)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed, treating as miss")
		}
		c.metrics.RecordCacheMiss()
		return nil, false
	}

	var result domain.GenerationResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache entry corrupt, treating as miss")
		c.metrics.RecordCacheMiss()
		return nil, false
	}

	c.metrics.RecordCacheHit()
	return &result, true
}

// Put stores the result for req with the configured TTL. Failures are logged
// and swallowed; the cache never fails a generation.
func (c *ResponseCache) Put(req domain.GenerationRequest, result *domain.GenerationResult) {
	if c == nil || c.store == nil || result == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to marshal result for cache")
		return
	}

	key := Key(req)
	if err := c.store.SetWithTTL(key, data, c.ttl); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// Evict removes the entry for req, if present.
func (c *ResponseCache) Evict(req domain.GenerationRequest) {
	if c == nil || c.store == nil {
		return
	}

	key := Key(req)
	if err := c.store.Delete(key); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache evict failed")
	}
}
