package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/iptvhub/internal/models"
)

type mockRefresher struct {
	mock.Mock
}

func (m *mockRefresher) ListSources(ctx context.Context) ([]models.SavedSource, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SavedSource), args.Error(1)
}

func (m *mockRefresher) EnqueueRefresh(ctx context.Context, id int64, reason string) ([]models.CatalogRun, bool, error) {
	args := m.Called(ctx, id, reason)
	return nil, args.Bool(0), args.Error(1)
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(""))
	assert.NoError(t, Validate("*/15 * * * *"))
	assert.NoError(t, Validate("@every 1h"))
	assert.Error(t, Validate("every hour"))
	assert.Error(t, Validate("* * * * * *"))
}

func TestRunOnceSkipsDisabledSources(t *testing.T) {
	r := new(mockRefresher)
	r.On("ListSources", mock.Anything).Return([]models.SavedSource{
		{ID: 1, Name: "a", Enabled: true},
		{ID: 2, Name: "b", Enabled: false},
		{ID: 3, Name: "c", Enabled: true},
	}, nil)
	r.On("EnqueueRefresh", mock.Anything, int64(1), "schedule").Return(true, nil).Once()
	r.On("EnqueueRefresh", mock.Anything, int64(3), "schedule").Return(false, errors.New("redis down")).Once()

	s, err := New(r, "@hourly", discard)
	require.NoError(t, err)
	assert.Equal(t, 1, s.RunOnce(context.Background()))
	r.AssertExpectations(t)
	r.AssertNotCalled(t, "EnqueueRefresh", mock.Anything, int64(2), mock.Anything)
}

func TestRunOnceListError(t *testing.T) {
	r := new(mockRefresher)
	r.On("ListSources", mock.Anything).Return(nil, errors.New("db down"))

	s, err := New(r, "@hourly", discard)
	require.NoError(t, err)
	assert.Zero(t, s.RunOnce(context.Background()))
}

func TestStartFiresSchedule(t *testing.T) {
	r := new(mockRefresher)
	fired := make(chan struct{}, 1)
	r.On("ListSources", mock.Anything).Return([]models.SavedSource{}, nil).Run(func(mock.Arguments) {
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	s, err := New(r, "@every 1s", discard)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()
	assert.Error(t, s.Start(context.Background()))

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled job did not fire")
	}
}

func TestEmptyScheduleIsNoop(t *testing.T) {
	s, err := New(new(mockRefresher), "", discard)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	s.Stop()
}
