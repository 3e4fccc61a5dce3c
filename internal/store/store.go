// Package store persists saved sources and their refresh history.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/voyagen/iptvhub/internal/models"
)

// ErrNotFound is returned when a saved source does not exist.
var ErrNotFound = errors.New("not found")

// DefaultRunsLimit bounds ListRuns when no limit is given.
const DefaultRunsLimit = 50

// Store defines persistence for saved sources and catalog runs.
type Store interface {
	// CreateSource inserts s and returns its id. Names are unique.
	CreateSource(ctx context.Context, s *models.SavedSource) (int64, error)
	ListSources(ctx context.Context) ([]models.SavedSource, error)
	// GetSource returns ErrNotFound for unknown ids.
	GetSource(ctx context.Context, id int64) (*models.SavedSource, error)
	// DeleteSource removes the source and its runs.
	DeleteSource(ctx context.Context, id int64) error
	// MarkRefreshed sets last_refreshed.
	MarkRefreshed(ctx context.Context, id int64, at time.Time) error

	// RecordRun stores run, assigning an id when it has none.
	RecordRun(ctx context.Context, run *models.CatalogRun) error
	// ListRuns returns the newest runs of a source first.
	ListRuns(ctx context.Context, sourceID int64, limit int) ([]models.CatalogRun, error)
}

// NewRunID returns a time-ordered run id.
func NewRunID() string {
	return ulid.Make().String()
}
