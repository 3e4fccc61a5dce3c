package store

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/voyagen/iptvhub/internal/cache"
	"github.com/voyagen/iptvhub/internal/models"
)

const (
	ttlSources = 2 * time.Minute
	ttlSource  = 5 * time.Minute
	ttlRuns    = 30 * time.Second

	keySources = cache.Prefix + "sources:all"
)

func sourceKey(id int64) string { return cache.Prefix + "source:" + strconv.FormatInt(id, 10) }
func runsKey(id int64) string   { return cache.Prefix + "runs:" + strconv.FormatInt(id, 10) }

// CachedStore serves source reads from Redis and invalidates on writes.
// Cache failures are logged and fall through to the inner store.
type CachedStore struct {
	inner  Store
	cache  *cache.Redis
	logger *slog.Logger
}

var _ Store = (*CachedStore)(nil)

// NewCachedStore wraps inner with Redis caching.
func NewCachedStore(inner Store, c *cache.Redis, logger *slog.Logger) *CachedStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedStore{inner: inner, cache: c, logger: logger}
}

func (c *CachedStore) ListSources(ctx context.Context) ([]models.SavedSource, error) {
	if v, err := cache.Get[[]models.SavedSource](ctx, c.cache, keySources); err == nil {
		return v, nil
	}
	sources, err := c.inner.ListSources(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, keySources, sources, ttlSources)
	return sources, nil
}

func (c *CachedStore) GetSource(ctx context.Context, id int64) (*models.SavedSource, error) {
	key := sourceKey(id)
	if v, err := cache.Get[models.SavedSource](ctx, c.cache, key); err == nil {
		return &v, nil
	}
	src, err := c.inner.GetSource(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, src, ttlSource)
	return src, nil
}

func (c *CachedStore) ListRuns(ctx context.Context, sourceID int64, limit int) ([]models.CatalogRun, error) {
	// Only the default page is cached.
	if limit > 0 && limit != DefaultRunsLimit {
		return c.inner.ListRuns(ctx, sourceID, limit)
	}
	key := runsKey(sourceID)
	if v, err := cache.Get[[]models.CatalogRun](ctx, c.cache, key); err == nil {
		return v, nil
	}
	runs, err := c.inner.ListRuns(ctx, sourceID, limit)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, runs, ttlRuns)
	return runs, nil
}

func (c *CachedStore) CreateSource(ctx context.Context, s *models.SavedSource) (int64, error) {
	id, err := c.inner.CreateSource(ctx, s)
	if err != nil {
		return 0, err
	}
	c.invalidate(ctx, keySources)
	return id, nil
}

func (c *CachedStore) DeleteSource(ctx context.Context, id int64) error {
	if err := c.inner.DeleteSource(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, keySources, sourceKey(id), runsKey(id))
	return nil
}

func (c *CachedStore) MarkRefreshed(ctx context.Context, id int64, at time.Time) error {
	if err := c.inner.MarkRefreshed(ctx, id, at); err != nil {
		return err
	}
	c.invalidate(ctx, keySources, sourceKey(id))
	return nil
}

func (c *CachedStore) RecordRun(ctx context.Context, run *models.CatalogRun) error {
	if err := c.inner.RecordRun(ctx, run); err != nil {
		return err
	}
	c.invalidate(ctx, runsKey(run.SourceID))
	return nil
}

// Reset drops every cached source, list and run page. It runs after
// migrations so rows cached under an older schema are not served.
func (c *CachedStore) Reset(ctx context.Context) error {
	for _, pattern := range []string{"source*", "runs:*"} {
		if err := cache.DelPattern(ctx, c.cache, pattern); err != nil {
			return err
		}
	}
	return nil
}

func (c *CachedStore) set(ctx context.Context, key string, v any, ttl time.Duration) {
	if err := cache.Set(ctx, c.cache, key, v, ttl); err != nil {
		c.logger.Warn("cache set failed", slog.String("key", key), slog.Any("error", err))
	}
}

func (c *CachedStore) invalidate(ctx context.Context, keys ...string) {
	if err := cache.Del(ctx, c.cache, keys...); err != nil && !cache.IsMiss(err) {
		c.logger.Warn("cache del failed", slog.Any("keys", keys), slog.Any("error", err))
	}
}
