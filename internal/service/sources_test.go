package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/iptvhub/internal/cache"
	"github.com/voyagen/iptvhub/internal/models"
	"github.com/voyagen/iptvhub/internal/source"
	"github.com/voyagen/iptvhub/internal/store"
)

func savedSource() *models.SavedSource {
	return &models.SavedSource{ID: 7, Name: "panel", BaseURL: "http://panel:8080", Username: "u", Password: "p", Portal: models.PortalXtream, Enabled: true}
}

func TestNoStore(t *testing.T) {
	c := New(new(mockResolver))
	ctx := context.Background()

	assert.False(t, c.HasStore())
	_, err := c.ListSources(ctx)
	assert.ErrorIs(t, err, ErrNoStore)
	_, err = c.Refresh(ctx, 1)
	assert.ErrorIs(t, err, ErrNoStore)
	_, _, err = c.EnqueueRefresh(ctx, 1, "manual")
	assert.ErrorIs(t, err, ErrNoStore)
	assert.ErrorIs(t, c.DeleteSource(ctx, 1), ErrNoStore)
}

func TestCreateSourceValidates(t *testing.T) {
	st := new(mockStore)
	c := New(new(mockResolver), WithStore(st))
	ctx := context.Background()

	_, err := c.CreateSource(ctx, &models.SavedSource{BaseURL: "http://x"})
	assert.ErrorIs(t, err, ErrInvalidSource)
	_, err = c.CreateSource(ctx, &models.SavedSource{Name: "x", BaseURL: "ftp://x"})
	assert.ErrorIs(t, err, ErrInvalidSource)

	st.On("CreateSource", mock.Anything, mock.MatchedBy(func(s *models.SavedSource) bool {
		return s.Name == "panel" && s.Portal == models.PortalUnknown
	})).Return(int64(3), nil)

	s := &models.SavedSource{Name: " panel ", BaseURL: "http://panel", Portal: "weird"}
	id, err := c.CreateSource(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
	assert.Equal(t, int64(3), s.ID)
	st.AssertExpectations(t)
}

func TestRefreshRecordsRunPerKind(t *testing.T) {
	st := new(mockStore)
	r := new(mockResolver)
	src := savedSource()
	ctx := context.Background()

	st.On("GetSource", mock.Anything, int64(7)).Return(src, nil)
	r.On("Resolve", mock.Anything, source.Request{Source: src.Config(), Kind: models.ResourceLive}).
		Return(liveResult(models.OriginXtream), nil)
	r.On("Resolve", mock.Anything, source.Request{Source: src.Config(), Kind: models.ResourceMovies}).
		Return(nil, errors.New("boom"))
	r.On("Resolve", mock.Anything, source.Request{Source: src.Config(), Kind: models.ResourceSeries}).
		Return(&source.Result{Catalog: &models.CatalogResult{Source: models.OriginFallback, Series: []models.Series{{ID: "s"}, {ID: "t"}}}}, nil)
	st.On("RecordRun", mock.Anything, mock.AnythingOfType("*models.CatalogRun")).Return(nil).Times(3)
	st.On("MarkRefreshed", mock.Anything, int64(7), mock.Anything).Return(nil).Once()

	runs, err := New(r, WithStore(st), WithLogger(discard)).Refresh(ctx, 7)
	require.NoError(t, err)
	require.Len(t, runs, 3)

	assert.Equal(t, models.ResourceLive, runs[0].Resource)
	assert.Equal(t, models.OriginXtream, runs[0].Origin)
	assert.Equal(t, 1, runs[0].ItemCount)

	assert.Equal(t, "boom", runs[1].Error)
	assert.Zero(t, runs[1].ItemCount)

	assert.Equal(t, models.OriginFallback, runs[2].Origin)
	assert.Equal(t, 2, runs[2].ItemCount)

	for _, run := range runs {
		assert.NotEmpty(t, run.ID)
		assert.Equal(t, int64(7), run.SourceID)
	}
	st.AssertExpectations(t)
	r.AssertExpectations(t)
}

func TestRefreshDisabledSource(t *testing.T) {
	st := new(mockStore)
	src := savedSource()
	src.Enabled = false
	st.On("GetSource", mock.Anything, int64(7)).Return(src, nil)

	_, err := New(new(mockResolver), WithStore(st)).Refresh(context.Background(), 7)
	assert.ErrorIs(t, err, ErrSourceDisabled)
}

func TestEnqueueRefreshRunsInlineWithoutRedis(t *testing.T) {
	st := new(mockStore)
	r := new(mockResolver)
	src := savedSource()
	st.On("GetSource", mock.Anything, int64(7)).Return(src, nil)
	r.On("Resolve", mock.Anything, mock.Anything).Return(liveResult(models.OriginXtream), nil)
	st.On("RecordRun", mock.Anything, mock.Anything).Return(nil)
	st.On("MarkRefreshed", mock.Anything, int64(7), mock.Anything).Return(nil)

	runs, queued, err := New(r, WithStore(st), WithLogger(discard)).EnqueueRefresh(context.Background(), 7, "manual")
	require.NoError(t, err)
	assert.False(t, queued)
	assert.Len(t, runs, 3)
}

func TestEnqueueRefreshRejectsRunningRefresh(t *testing.T) {
	rdb := newRedis(t)
	ctx := context.Background()
	st := new(mockStore)
	src := savedSource()
	src.ID = time.Now().UnixNano()
	st.On("GetSource", mock.Anything, src.ID).Return(src, nil)

	unlock, err := cache.TryLock(ctx, rdb, cache.RefreshLockKey(src.ID), time.Minute)
	require.NoError(t, err)
	defer unlock()

	before, err := cache.QueueLen(ctx, rdb, cache.RefreshQueue)
	require.NoError(t, err)

	c := New(new(mockResolver), WithStore(st), WithCache(rdb), WithLogger(discard))
	runs, queued, err := c.EnqueueRefresh(ctx, src.ID, "manual")
	assert.ErrorIs(t, err, cache.ErrLocked)
	assert.False(t, queued)
	assert.Nil(t, runs)

	after, err := cache.QueueLen(ctx, rdb, cache.RefreshQueue)
	require.NoError(t, err)
	assert.Equal(t, before, after, "a locked source must not be queued")
}

func TestSourceCatalogNotFound(t *testing.T) {
	st := new(mockStore)
	st.On("GetSource", mock.Anything, int64(9)).Return(nil, store.ErrNotFound)

	_, err := New(new(mockResolver), WithStore(st)).SourceCatalog(context.Background(), 9, models.ResourceLive, "")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteSource(t *testing.T) {
	st := new(mockStore)
	st.On("GetSource", mock.Anything, int64(7)).Return(savedSource(), nil)
	st.On("DeleteSource", mock.Anything, int64(7)).Return(nil).Once()

	require.NoError(t, New(new(mockResolver), WithStore(st)).DeleteSource(context.Background(), 7))
	st.AssertExpectations(t)
}

func TestListRunsChecksSource(t *testing.T) {
	st := new(mockStore)
	st.On("GetSource", mock.Anything, int64(7)).Return(savedSource(), nil)
	st.On("ListRuns", mock.Anything, int64(7), 10).Return([]models.CatalogRun{{ID: "r"}}, nil)

	runs, err := New(new(mockResolver), WithStore(st)).ListRuns(context.Background(), 7, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
