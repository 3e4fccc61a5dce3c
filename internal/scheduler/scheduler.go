// Package scheduler enqueues refreshes of saved sources on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/voyagen/iptvhub/internal/models"
)

// Refresher is the part of the service the scheduler drives.
type Refresher interface {
	ListSources(ctx context.Context) ([]models.SavedSource, error)
	EnqueueRefresh(ctx context.Context, id int64, reason string) ([]models.CatalogRun, bool, error)
}

// Scheduler runs one cron job that refreshes every enabled source.
type Scheduler struct {
	mu sync.Mutex

	refresher Refresher
	schedule  string
	logger    *slog.Logger

	cron *cron.Cron
	ctx  context.Context
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate reports whether schedule is a usable cron expression. Empty is valid and
// disables the scheduler.
func Validate(schedule string) error {
	if schedule == "" {
		return nil
	}
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}
	return nil
}

// New creates a Scheduler for schedule (five-field cron or @every/@hourly style).
func New(r Refresher, schedule string, logger *slog.Logger) (*Scheduler, error) {
	if err := Validate(schedule); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{refresher: r, schedule: schedule, logger: logger}, nil
}

// Start registers the job and starts the cron loop. It is a no-op for an
// empty schedule.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("refresh schedule disabled")
		return nil
	}
	if s.cron != nil {
		return fmt.Errorf("scheduler already started")
	}

	s.ctx = ctx
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(s.schedule, func() { s.RunOnce(s.ctx) }); err != nil {
		return fmt.Errorf("schedule refresh: %w", err)
	}
	c.Start()
	s.cron = c

	s.logger.Info("scheduler started", slog.String("schedule", s.schedule))
	return nil
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunOnce enqueues a refresh for every enabled source and returns how many
// were enqueued.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	sources, err := s.refresher.ListSources(ctx)
	if err != nil {
		s.logger.Error("failed to list sources for scheduling", slog.Any("error", err))
		return 0
	}

	n := 0
	for _, src := range sources {
		if !src.Enabled {
			continue
		}
		if ctx.Err() != nil {
			return n
		}
		if _, _, err := s.refresher.EnqueueRefresh(ctx, src.ID, "schedule"); err != nil {
			s.logger.Error("failed to enqueue scheduled refresh",
				slog.Int64("source_id", src.ID),
				slog.String("source", src.Name),
				slog.Any("error", err))
			continue
		}
		n++
	}
	s.logger.Debug("scheduled refreshes enqueued", slog.Int("count", n))
	return n
}
