package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/voyagen/iptvhub/internal/cache"
	"github.com/voyagen/iptvhub/internal/fetcher"
	"github.com/voyagen/iptvhub/internal/models"
	"github.com/voyagen/iptvhub/internal/source"
	"github.com/voyagen/iptvhub/internal/store"
)

const (
	refreshLockTTL   = 10 * time.Minute
	dequeueTimeout   = 5 * time.Second
	workerRetryDelay = time.Second
)

var (
	// ErrInvalidSource wraps validation failures of a saved source.
	ErrInvalidSource = errors.New("invalid source")
	// ErrSourceDisabled is returned when refreshing a disabled source.
	ErrSourceDisabled = errors.New("source is disabled")
)

// refreshKinds are the collections warmed by a refresh.
var refreshKinds = []models.ResourceKind{models.ResourceLive, models.ResourceMovies, models.ResourceSeries}

// CreateSource validates and stores a saved source.
func (c *Catalog) CreateSource(ctx context.Context, s *models.SavedSource) (int64, error) {
	if c.store == nil {
		return 0, ErrNoStore
	}
	s.Name = strings.TrimSpace(s.Name)
	s.BaseURL = strings.TrimSpace(s.BaseURL)
	if s.Name == "" {
		return 0, fmt.Errorf("%w: name is required", ErrInvalidSource)
	}
	if u, err := url.ParseRequestURI(s.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return 0, fmt.Errorf("%w: baseUrl must be a valid http or https URL", ErrInvalidSource)
	}
	s.Portal = models.ParsePortalKind(string(s.Portal))
	id, err := c.store.CreateSource(ctx, s)
	if err != nil {
		return 0, fmt.Errorf("create source: %w", err)
	}
	s.ID = id
	return id, nil
}

func (c *Catalog) ListSources(ctx context.Context) ([]models.SavedSource, error) {
	if c.store == nil {
		return nil, ErrNoStore
	}
	return c.store.ListSources(ctx)
}

func (c *Catalog) GetSource(ctx context.Context, id int64) (*models.SavedSource, error) {
	if c.store == nil {
		return nil, ErrNoStore
	}
	return c.store.GetSource(ctx, id)
}

// DeleteSource removes a saved source, its run history and its cached catalogs.
func (c *Catalog) DeleteSource(ctx context.Context, id int64) error {
	if c.store == nil {
		return ErrNoStore
	}
	src, err := c.store.GetSource(ctx, id)
	if err != nil {
		return err
	}
	if err := c.store.DeleteSource(ctx, id); err != nil {
		return err
	}
	if err := c.InvalidateSource(ctx, src.Config()); err != nil {
		c.logger.Warn("invalidate deleted source", slog.Int64("source_id", id), slog.Any("error", err))
	}
	return nil
}

// SourceCatalog resolves kind for a saved source.
func (c *Catalog) SourceCatalog(ctx context.Context, id int64, kind models.ResourceKind, itemID string) (*models.CatalogResult, error) {
	src, err := c.GetSource(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.Get(ctx, source.Request{Source: src.Config(), Kind: kind, ID: itemID})
}

func (c *Catalog) ListRuns(ctx context.Context, sourceID int64, limit int) ([]models.CatalogRun, error) {
	if c.store == nil {
		return nil, ErrNoStore
	}
	if _, err := c.store.GetSource(ctx, sourceID); err != nil {
		return nil, err
	}
	return c.store.ListRuns(ctx, sourceID, limit)
}

// Refresh re-resolves live, movies and series for a saved source, bypassing
// the cache read but writing fresh results to it. One run is recorded per
// kind; a failing kind does not stop the others.
func (c *Catalog) Refresh(ctx context.Context, id int64) ([]models.CatalogRun, error) {
	if c.store == nil {
		return nil, ErrNoStore
	}
	src, err := c.store.GetSource(ctx, id)
	if err != nil {
		return nil, err
	}
	if !src.Enabled {
		return nil, fmt.Errorf("refresh source %d: %w", id, ErrSourceDisabled)
	}
	if c.cache != nil {
		unlock, err := cache.TryLock(ctx, c.cache, cache.RefreshLockKey(id), refreshLockTTL)
		if err != nil {
			return nil, fmt.Errorf("refresh source %d: %w", id, err)
		}
		defer unlock()
	}

	log := c.logger.With(slog.Int64("source_id", id), slog.String("source", src.Name))
	log.Info("refreshing source", slog.String("url", fetcher.RedactURL(src.BaseURL)))

	runs := make([]models.CatalogRun, 0, len(refreshKinds))
	for _, kind := range refreshKinds {
		if err := ctx.Err(); err != nil {
			return runs, fmt.Errorf("refresh cancelled: %w", err)
		}
		req := source.Request{Source: src.Config(), Kind: kind}
		run := models.CatalogRun{ID: store.NewRunID(), SourceID: id, Resource: kind, StartedAt: time.Now().UTC()}
		cat, err := c.resolve(ctx, req, catalogKey(req))
		run.DurationMs = time.Since(run.StartedAt).Milliseconds()
		if err != nil {
			run.Error = err.Error()
			log.Warn("refresh failed", slog.String("kind", string(kind)), slog.Any("error", err))
		} else {
			run.Origin = cat.Source
			run.ItemCount = cat.Len(kind)
		}
		if err := c.store.RecordRun(ctx, &run); err != nil {
			log.Error("record run", slog.Any("error", err))
		}
		runs = append(runs, run)
	}

	if err := c.store.MarkRefreshed(ctx, id, time.Now().UTC()); err != nil {
		return runs, fmt.Errorf("mark refreshed: %w", err)
	}
	log.Info("source refreshed", slog.Int("runs", len(runs)))
	return runs, nil
}

// EnqueueRefresh queues a refresh for the worker. Without Redis the refresh
// runs inline and its runs are returned with queued=false.
func (c *Catalog) EnqueueRefresh(ctx context.Context, id int64, reason string) (runs []models.CatalogRun, queued bool, err error) {
	if c.store == nil {
		return nil, false, ErrNoStore
	}
	if c.cache == nil {
		runs, err = c.Refresh(ctx, id)
		return runs, false, err
	}
	src, err := c.store.GetSource(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if !src.Enabled {
		return nil, false, fmt.Errorf("refresh source %d: %w", id, ErrSourceDisabled)
	}
	if cache.IsLocked(ctx, c.cache, cache.RefreshLockKey(id)) {
		return nil, false, fmt.Errorf("refresh source %d: %w", id, cache.ErrLocked)
	}
	if err := cache.Enqueue(ctx, c.cache, cache.RefreshQueue, cache.RefreshJob{SourceID: id, Reason: reason}); err != nil {
		return nil, false, fmt.Errorf("enqueue refresh: %w", err)
	}
	return nil, true, nil
}

// RunWorker consumes refresh jobs until ctx is done. It returns immediately
// when no Redis is configured.
func (c *Catalog) RunWorker(ctx context.Context) {
	if c.cache == nil || c.store == nil {
		return
	}
	c.logger.Info("refresh worker started")
	defer c.logger.Info("refresh worker stopped")
	for ctx.Err() == nil {
		job, err := cache.Dequeue(ctx, c.cache, cache.RefreshQueue, dequeueTimeout)
		if err != nil {
			c.logger.Error("dequeue refresh job", slog.Any("error", err))
			select {
			case <-ctx.Done():
			case <-time.After(workerRetryDelay):
			}
			continue
		}
		if job == nil {
			continue
		}
		c.logger.Debug("refresh job", slog.Int64("source_id", job.SourceID), slog.String("reason", job.Reason))
		if _, err := c.Refresh(ctx, job.SourceID); err != nil {
			if errors.Is(err, cache.ErrLocked) {
				c.logger.Debug("refresh already running", slog.Int64("source_id", job.SourceID))
				continue
			}
			c.logger.Error("refresh job failed", slog.Int64("source_id", job.SourceID), slog.Any("error", err))
		}
	}
}
