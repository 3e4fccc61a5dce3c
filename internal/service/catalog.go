// Package service is the boundary between HTTP callers and the resolver. It
// caches resolved catalogs in Redis, coalesces identical concurrent requests
// and manages saved sources.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/voyagen/iptvhub/internal/cache"
	"github.com/voyagen/iptvhub/internal/metrics"
	"github.com/voyagen/iptvhub/internal/models"
	"github.com/voyagen/iptvhub/internal/source"
	"github.com/voyagen/iptvhub/internal/store"
)

// DefaultCacheTTL is how long a resolved catalog stays in Redis.
const DefaultCacheTTL = 10 * time.Minute

// ErrNoStore is returned by saved-source operations when no database is configured.
var ErrNoStore = errors.New("no database configured")

// Resolver is the orchestrator dependency. source.Resolver satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, req source.Request) (*source.Result, error)
	Diagnose(ctx context.Context, src models.SourceConfig) *source.Report
}

// Catalog serves catalog requests. Cache and store are optional.
type Catalog struct {
	resolver Resolver
	cache    *cache.Redis
	store    store.Store
	ttl      time.Duration
	logger   *slog.Logger

	group singleflight.Group
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithCache enables the Redis catalog cache, refresh lock and job queue.
func WithCache(r *cache.Redis) Option { return func(c *Catalog) { c.cache = r } }

// WithStore enables saved sources.
func WithStore(s store.Store) Option { return func(c *Catalog) { c.store = s } }

// WithTTL sets the catalog cache TTL. Zero disables caching.
func WithTTL(d time.Duration) Option { return func(c *Catalog) { c.ttl = d } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(c *Catalog) { c.logger = l } }

// New creates a Catalog around r.
func New(r Resolver, opts ...Option) *Catalog {
	c := &Catalog{resolver: r, ttl: DefaultCacheTTL, logger: slog.Default()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// HasStore reports whether saved sources are available.
func (c *Catalog) HasStore() bool { return c.store != nil }

// Get returns the catalog for req, from cache when possible. Sample catalogs
// served as fallback are never cached.
func (c *Catalog) Get(ctx context.Context, req source.Request) (*models.CatalogResult, error) {
	key := catalogKey(req)
	if c.cacheEnabled() {
		cat, err := cache.Get[models.CatalogResult](ctx, c.cache, key)
		switch {
		case err == nil:
			metrics.ObserveCache("hit")
			return &cat, nil
		case cache.IsMiss(err):
			metrics.ObserveCache("miss")
		default:
			metrics.ObserveCache("error")
			c.logger.Warn("catalog cache read failed", slog.Any("error", err))
		}
	}

	// The shared resolution must not die with whichever caller started it.
	v, err, shared := c.group.Do(key, func() (any, error) {
		return c.resolve(context.WithoutCancel(ctx), req, key)
	})
	if shared {
		c.logger.Debug("coalesced catalog request", slog.String("kind", string(req.Kind)))
	}
	if err != nil {
		return nil, err
	}
	return v.(*models.CatalogResult), nil
}

// Diagnose runs the source diagnostic.
func (c *Catalog) Diagnose(ctx context.Context, src models.SourceConfig) *source.Report {
	return c.resolver.Diagnose(ctx, src)
}

func (c *Catalog) resolve(ctx context.Context, req source.Request, key string) (*models.CatalogResult, error) {
	res, err := c.resolver.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	cat := res.Catalog
	if cat.Source != models.OriginFallback && c.cacheEnabled() {
		if err := cache.Set(ctx, c.cache, key, cat, c.ttl); err != nil {
			c.logger.Warn("catalog cache write failed", slog.Any("error", err))
		}
	}
	return cat, nil
}

func (c *Catalog) cacheEnabled() bool { return c.cache != nil && c.ttl > 0 }

func catalogKey(req source.Request) string {
	s := req.Source
	return cache.Key("catalog", s.BaseURL, s.Username, s.Password, string(s.Portal), string(req.Kind), req.ID)
}

// InvalidateSource drops every cached catalog of src.
func (c *Catalog) InvalidateSource(ctx context.Context, src models.SourceConfig) error {
	if c.cache == nil {
		return nil
	}
	var errs []error
	for _, kind := range refreshKinds {
		key := catalogKey(source.Request{Source: src, Kind: kind})
		if err := cache.Del(ctx, c.cache, key); err != nil {
			errs = append(errs, fmt.Errorf("invalidate %s: %w", kind, err))
		}
	}
	return errors.Join(errs...)
}
