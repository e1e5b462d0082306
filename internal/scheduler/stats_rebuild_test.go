package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (r *countingRefresher) RequestFullRefresh(context.Context) error {
	r.calls.Add(1)
	return r.err
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("0 3 * * *"))
	assert.NoError(t, ValidateSchedule("*/15 * * * *"))
	assert.Error(t, ValidateSchedule("every night"))
	assert.Error(t, ValidateSchedule("0 0 3 * * *"), "seconds field is not accepted")
}

func TestNextRun(t *testing.T) {
	from := time.Date(2024, 5, 1, 4, 0, 0, 0, time.UTC)

	next, err := NextRun("0 3 * * *", from)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 2, 3, 0, 0, 0, time.UTC), next)
}

func TestStatsRebuildScheduler_StartStop(t *testing.T) {
	refresher := &countingRefresher{}
	s := NewStatsRebuildScheduler(refresher, "")

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	require.NotNil(t, s.GetNextRunTime())

	// Second start is a no-op.
	require.NoError(t, s.Start(context.Background()))

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.GetNextRunTime())
}

func TestStatsRebuildScheduler_InvalidSchedule(t *testing.T) {
	s := NewStatsRebuildScheduler(&countingRefresher{}, "not a schedule")

	err := s.Start(context.Background())

	assert.ErrorContains(t, err, "invalid cron schedule")
	assert.False(t, s.IsRunning())
}

func TestStatsRebuildScheduler_StopsOnContextCancel(t *testing.T) {
	s := NewStatsRebuildScheduler(&countingRefresher{}, "0 3 * * *")
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, s.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool { return !s.IsRunning() }, 2*time.Second, 10*time.Millisecond)
}

func TestStatsRebuildScheduler_RunNow(t *testing.T) {
	refresher := &countingRefresher{}
	s := NewStatsRebuildScheduler(refresher, "0 3 * * *")

	s.RunNow()
	refresher.err = errors.New("queue closed")
	s.RunNow()

	assert.Equal(t, int32(2), refresher.calls.Load())
}
