package store

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/iptvhub/internal/cache"
	"github.com/voyagen/iptvhub/internal/models"
)

// memStore is an in-memory Store that counts reads.
type memStore struct {
	sources map[int64]models.SavedSource
	runs    []models.CatalogRun
	reads   int
}

func (m *memStore) CreateSource(_ context.Context, s *models.SavedSource) (int64, error) {
	id := int64(len(m.sources) + 1)
	s.ID = id
	m.sources[id] = *s
	return id, nil
}

func (m *memStore) ListSources(context.Context) ([]models.SavedSource, error) {
	m.reads++
	out := make([]models.SavedSource, 0, len(m.sources))
	for _, s := range m.sources {
		out = append(out, s)
	}
	return out, nil
}

func (m *memStore) GetSource(_ context.Context, id int64) (*models.SavedSource, error) {
	m.reads++
	s, ok := m.sources[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *memStore) DeleteSource(_ context.Context, id int64) error {
	if _, ok := m.sources[id]; !ok {
		return ErrNotFound
	}
	delete(m.sources, id)
	return nil
}

func (m *memStore) MarkRefreshed(_ context.Context, id int64, at time.Time) error {
	s, ok := m.sources[id]
	if !ok {
		return ErrNotFound
	}
	s.LastRefreshed = &at
	m.sources[id] = s
	return nil
}

func (m *memStore) RecordRun(_ context.Context, run *models.CatalogRun) error {
	m.runs = append(m.runs, *run)
	return nil
}

func (m *memStore) ListRuns(_ context.Context, sourceID int64, _ int) ([]models.CatalogRun, error) {
	m.reads++
	var out []models.CatalogRun
	for _, r := range m.runs {
		if r.SourceID == sourceID {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestCachedStore(t *testing.T) {
	u := os.Getenv("REDIS_URL")
	if u == "" {
		t.Skip("REDIS_URL not set")
	}
	rdb, err := cache.New(u)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	inner := &memStore{sources: map[int64]models.SavedSource{}}
	cs := NewCachedStore(inner, rdb, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, cs.Reset(ctx))

	id, err := cs.CreateSource(ctx, &models.SavedSource{Name: "a", BaseURL: "http://a"})
	require.NoError(t, err)

	for range 3 {
		got, err := cs.GetSource(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "a", got.Name)
	}
	assert.Equal(t, 1, inner.reads)

	list, err := cs.ListSources(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	_, err = cs.ListSources(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.reads)

	// A write invalidates both the list and the single entry.
	require.NoError(t, cs.MarkRefreshed(ctx, id, time.Now().UTC()))
	got, err := cs.GetSource(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, got.LastRefreshed)
	assert.Equal(t, 3, inner.reads)

	require.NoError(t, cs.RecordRun(ctx, &models.CatalogRun{ID: NewRunID(), SourceID: id}))
	runs, err := cs.ListRuns(ctx, id, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	require.NoError(t, cs.DeleteSource(ctx, id))
	_, err = cs.GetSource(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachedStoreReset(t *testing.T) {
	u := os.Getenv("REDIS_URL")
	if u == "" {
		t.Skip("REDIS_URL not set")
	}
	rdb, err := cache.New(u)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	inner := &memStore{sources: map[int64]models.SavedSource{}}
	cs := NewCachedStore(inner, rdb, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, cs.Reset(ctx))

	id, err := cs.CreateSource(ctx, &models.SavedSource{Name: "a", BaseURL: "http://a"})
	require.NoError(t, err)
	_, err = cs.GetSource(ctx, id)
	require.NoError(t, err)
	_, err = cs.ListRuns(ctx, id, 0)
	require.NoError(t, err)
	_, err = cs.ListSources(ctx)
	require.NoError(t, err)
	unrelated := cache.Prefix + "catalog:keep"
	require.NoError(t, cache.Set(ctx, rdb, unrelated, "x", time.Minute))
	t.Cleanup(func() { _ = cache.Del(context.Background(), rdb, unrelated) })

	require.NoError(t, cs.Reset(ctx))
	for _, key := range []string{sourceKey(id), runsKey(id), keySources} {
		_, err := cache.Get[any](ctx, rdb, key)
		assert.True(t, cache.IsMiss(err), "%s should be gone: %v", key, err)
	}
	v, err := cache.Get[string](ctx, rdb, unrelated)
	require.NoError(t, err)
	assert.Equal(t, "x", v)
}
