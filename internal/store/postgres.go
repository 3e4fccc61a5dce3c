package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voyagen/iptvhub/internal/models"
)

// Postgres implements Store on a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ Store = (*Postgres)(nil)

// NewPostgres connects to dsn and pings it. Call Close when done.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

const sourceColumns = `id, name, base_url, username, password, portal, enabled, last_refreshed, created_at`

func (p *Postgres) CreateSource(ctx context.Context, s *models.SavedSource) (int64, error) {
	portal := s.Portal
	if portal == "" {
		portal = models.PortalUnknown
	}
	var id int64
	err := p.pool.QueryRow(ctx,
		`INSERT INTO sources (name, base_url, username, password, portal, enabled)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		s.Name, s.BaseURL, s.Username, s.Password, string(portal), s.Enabled,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("CreateSource: %w", err)
	}
	return id, nil
}

func (p *Postgres) ListSources(ctx context.Context) ([]models.SavedSource, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+sourceColumns+` FROM sources ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ListSources: %w", err)
	}
	defer rows.Close()

	var out []models.SavedSource
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("ListSources: %w", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListSources: %w", err)
	}
	return out, nil
}

func (p *Postgres) GetSource(ctx context.Context, id int64) (*models.SavedSource, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+sourceColumns+` FROM sources WHERE id = $1`, id)
	s, err := scanSource(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetSource: %w", err)
	}
	return s, nil
}

func scanSource(row pgx.Row) (*models.SavedSource, error) {
	var (
		s      models.SavedSource
		portal string
	)
	err := row.Scan(&s.ID, &s.Name, &s.BaseURL, &s.Username, &s.Password, &portal, &s.Enabled, &s.LastRefreshed, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.Portal = models.ParsePortalKind(portal)
	return &s, nil
}

func (p *Postgres) DeleteSource(ctx context.Context, id int64) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM sources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeleteSource: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) MarkRefreshed(ctx context.Context, id int64, at time.Time) error {
	tag, err := p.pool.Exec(ctx, `UPDATE sources SET last_refreshed = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("MarkRefreshed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) RecordRun(ctx context.Context, run *models.CatalogRun) error {
	if run.ID == "" {
		run.ID = NewRunID()
	}
	_, err := p.pool.Exec(ctx,
		`INSERT INTO catalog_runs (id, source_id, resource, origin, item_count, error, started_at, duration_ms)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''), $7, $8)`,
		run.ID, run.SourceID, string(run.Resource), string(run.Origin), run.ItemCount, run.Error, run.StartedAt, run.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("RecordRun: %w", err)
	}
	return nil
}

func (p *Postgres) ListRuns(ctx context.Context, sourceID int64, limit int) ([]models.CatalogRun, error) {
	if limit <= 0 {
		limit = DefaultRunsLimit
	}
	rows, err := p.pool.Query(ctx,
		`SELECT id, source_id, resource, COALESCE(origin, ''), item_count, COALESCE(error, ''), started_at, duration_ms
		 FROM catalog_runs WHERE source_id = $1
		 ORDER BY started_at DESC, id DESC
		 LIMIT $2`,
		sourceID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ListRuns: %w", err)
	}
	defer rows.Close()

	var out []models.CatalogRun
	for rows.Next() {
		var (
			r                models.CatalogRun
			resource, origin string
		)
		if err := rows.Scan(&r.ID, &r.SourceID, &resource, &origin, &r.ItemCount, &r.Error, &r.StartedAt, &r.DurationMs); err != nil {
			return nil, fmt.Errorf("ListRuns: %w", err)
		}
		r.Resource = models.ResourceKind(resource)
		r.Origin = models.Origin(origin)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListRuns: %w", err)
	}
	return out, nil
}
