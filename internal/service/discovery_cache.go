package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/placement-api/internal/models"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
)

const (
	discoveryPrefix = "discovery:"
	generationKey   = "discovery-generation"
	defaultCacheTTL = 5 * time.Minute
	cacheDayLayout  = "2006-01-02"
)

// CacheStore is a JSON key/value store with pattern deletes and counters.
// Get must return appErrors.ErrCacheMiss for absent keys.
type CacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	DeleteByPattern(ctx context.Context, pattern string) error
}

// DiscoveryCache memoises discovery listings per student, mode and day.
// Entries are keyed by a purge generation: Purge bumps it, and a listing
// computed under an older generation is written where no lookup reads it.
// A nil *DiscoveryCache is disabled.
type DiscoveryCache struct {
	store   CacheStore
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
}

// NewDiscoveryCache returns nil when store is nil.
func NewDiscoveryCache(store CacheStore, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *DiscoveryCache {
	if store == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiscoveryCache{store: store, metrics: metrics, ttl: ttl, logger: logger}
}

func discoveryKey(generation int64, studentID string, openOnly bool, day time.Time) string {
	mode := "all"
	if openOnly {
		mode = "open"
	}
	return discoveryPrefix + strconv.FormatInt(generation, 10) + ":" + studentID + ":" + mode + ":" + day.Format(cacheDayLayout)
}

func (c *DiscoveryCache) generation(ctx context.Context) (int64, error) {
	var gen int64
	err := c.store.Get(ctx, generationKey, &gen)
	if errors.Is(err, appErrors.ErrCacheMiss) {
		return 0, nil
	}
	return gen, err
}

// Lookup returns the cached listing and the generation it was looked up
// under. Pass that generation to Fill. A negative generation means the cache
// is unusable for this request; store failures count as misses.
func (c *DiscoveryCache) Lookup(ctx context.Context, studentID string, openOnly bool, day time.Time) ([]models.Internship, int64, bool) {
	if c == nil {
		return nil, -1, false
	}
	start := time.Now()
	gen, err := c.generation(ctx)
	if err != nil {
		c.metrics.ObserveCacheLookup(false, time.Since(start))
		c.logger.Warn("discovery cache generation read failed", zap.Error(err))
		return nil, -1, false
	}
	key := discoveryKey(gen, studentID, openOnly, day)
	var items []models.Internship
	err = c.store.Get(ctx, key, &items)
	c.metrics.ObserveCacheLookup(err == nil, time.Since(start))
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		c.logger.Warn("discovery cache read failed", zap.String("key", key), zap.Error(err))
	}
	return items, gen, err == nil
}

// Fill stores a listing computed after Lookup returned generation. Failures
// are logged and otherwise ignored.
func (c *DiscoveryCache) Fill(ctx context.Context, generation int64, studentID string, openOnly bool, day time.Time, items []models.Internship) {
	if c == nil || generation < 0 {
		return
	}
	key := discoveryKey(generation, studentID, openOnly, day)
	start := time.Now()
	if err := c.store.Set(ctx, key, items, c.ttl); err != nil {
		c.logger.Warn("discovery cache write failed", zap.String("key", key), zap.Error(err))
	}
	c.metrics.ObserveCacheWrite(time.Since(start))
}

// Purge retires every cached listing. It must run after the store change is
// visible so a lookup under the new generation recomputes from fresh state.
func (c *DiscoveryCache) Purge(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if _, err := c.store.Incr(ctx, generationKey); err != nil {
		return err
	}
	return c.store.DeleteByPattern(ctx, discoveryPrefix+"*")
}
