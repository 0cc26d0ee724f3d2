package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/depot/internal/health"
)

type fakeChecker struct {
	result *health.Result
	err    error
}

func (f *fakeChecker) HealthCheck(ctx context.Context) (*health.Result, error) {
	return f.result, f.err
}

type fakeEnqueuer struct {
	mu      sync.Mutex
	reasons []string
}

func (f *fakeEnqueuer) EnqueueRepair(reason string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reasons = append(f.reasons, reason)
	return "task-1", nil
}

func (f *fakeEnqueuer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reasons)
}

func unhealthy() *health.Result {
	return &health.Result{
		Issues: []health.Issue{{Type: health.IssueOrphanedRecords, Store: "bookings", Count: 1}},
	}
}

func TestHealthScheduler_StartStop(t *testing.T) {
	s := NewHealthScheduler(&fakeChecker{result: &health.Result{Healthy: true}}, nil, "0 * * * *")

	assert.False(t, s.IsRunning())
	assert.Nil(t, s.GetNextRunTime())

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	next := s.GetNextRunTime()
	require.NotNil(t, next)
	assert.True(t, next.After(time.Now()))

	require.NoError(t, s.Start(context.Background()), "second start is a no-op")

	s.Stop()
	assert.False(t, s.IsRunning())
	s.Stop()
}

func TestHealthScheduler_InvalidSchedule(t *testing.T) {
	s := NewHealthScheduler(&fakeChecker{}, nil, "every hour")
	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cron schedule")
	assert.False(t, s.IsRunning())
}

func TestHealthScheduler_StopsWithContext(t *testing.T) {
	s := NewHealthScheduler(&fakeChecker{result: &health.Result{Healthy: true}}, nil, "0 * * * *")
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))

	cancel()
	assert.Eventually(t, func() bool { return !s.IsRunning() }, time.Second, 10*time.Millisecond)
}

func TestHealthScheduler_RunCheck(t *testing.T) {
	t.Run("healthy result enqueues nothing", func(t *testing.T) {
		repairs := &fakeEnqueuer{}
		s := NewHealthScheduler(&fakeChecker{result: &health.Result{Healthy: true}}, repairs, "0 * * * *")

		s.runCheck()
		require.NotNil(t, s.LastResult())
		assert.True(t, s.LastResult().Healthy)
		assert.Zero(t, repairs.count())
	})

	t.Run("issues enqueue a repair", func(t *testing.T) {
		repairs := &fakeEnqueuer{}
		s := NewHealthScheduler(&fakeChecker{result: unhealthy()}, repairs, "0 * * * *")

		s.runCheck()
		assert.Equal(t, 1, repairs.count())
		assert.False(t, s.LastResult().Healthy)
	})

	t.Run("report only without enqueuer", func(t *testing.T) {
		s := NewHealthScheduler(&fakeChecker{result: unhealthy()}, nil, "0 * * * *")
		s.runCheck()
		assert.NotNil(t, s.LastResult())
	})

	t.Run("failed check keeps previous result", func(t *testing.T) {
		checker := &fakeChecker{result: &health.Result{Healthy: true}}
		s := NewHealthScheduler(checker, nil, "0 * * * *")
		s.runCheck()

		checker.result, checker.err = nil, errors.New("not connected")
		s.runCheck()
		require.NotNil(t, s.LastResult())
		assert.True(t, s.LastResult().Healthy)
	})
}

func TestHealthScheduler_RunNow(t *testing.T) {
	repairs := &fakeEnqueuer{}
	s := NewHealthScheduler(&fakeChecker{result: unhealthy()}, repairs, "0 * * * *")

	s.RunNow()
	assert.Eventually(t, func() bool { return repairs.count() == 1 }, time.Second, 10*time.Millisecond)
}
