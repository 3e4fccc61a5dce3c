package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/voyagen/iptvhub/internal/models"
	"github.com/voyagen/iptvhub/internal/source"
)

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, req source.Request) (*source.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*source.Result), args.Error(1)
}

func (m *mockResolver) Diagnose(ctx context.Context, src models.SourceConfig) *source.Report {
	args := m.Called(ctx, src)
	return args.Get(0).(*source.Report)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateSource(ctx context.Context, s *models.SavedSource) (int64, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) ListSources(ctx context.Context) ([]models.SavedSource, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SavedSource), args.Error(1)
}

func (m *mockStore) GetSource(ctx context.Context, id int64) (*models.SavedSource, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SavedSource), args.Error(1)
}

func (m *mockStore) DeleteSource(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) MarkRefreshed(ctx context.Context, id int64, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *mockStore) RecordRun(ctx context.Context, run *models.CatalogRun) error {
	return m.Called(ctx, run).Error(0)
}

func (m *mockStore) ListRuns(ctx context.Context, sourceID int64, limit int) ([]models.CatalogRun, error) {
	args := m.Called(ctx, sourceID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CatalogRun), args.Error(1)
}
