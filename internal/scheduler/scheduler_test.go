package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func noop(ctx context.Context) error { return nil }

func TestNewInvalidTimezone(t *testing.T) {
	_, err := New("Mars/Olympus_Mons", zaptest.NewLogger(t).Sugar())
	assert.Error(t, err)
}

func TestAddJobInvalidSchedule(t *testing.T) {
	s, err := New("UTC", zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	assert.Error(t, s.AddJob("campaign", "every tuesday", noop))
	assert.Empty(t, s.ListJobs())
}

func TestAddAndList(t *testing.T) {
	// The cron goroutine may still log after the test returns
	s, err := New("", zap.NewNop().Sugar())
	require.NoError(t, err)

	require.NoError(t, s.AddJob("campaign", "0 */6 * * *", noop))
	s.Start()
	defer s.Stop()

	jobs := s.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "campaign", jobs[0].Name)
	assert.True(t, jobs[0].NextRun.After(time.Now()))
}

func TestRunNowUnknownJob(t *testing.T) {
	s, err := New("UTC", zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	assert.Error(t, s.RunNow("campaign"))
}

func TestRunNowRunsJob(t *testing.T) {
	s, err := New("UTC", zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	runs := 0
	require.NoError(t, s.AddJob("campaign", "0 */6 * * *", func(ctx context.Context) error {
		runs++
		return nil
	}))

	require.NoError(t, s.RunNow("campaign"))
	assert.Equal(t, 1, runs)
}

func TestRunNowSkipsWhileRunning(t *testing.T) {
	s, err := New("UTC", zap.NewNop().Sugar())
	require.NoError(t, err)

	var runs atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, s.AddJob("campaign", "0 */6 * * *", func(ctx context.Context) error {
		runs.Add(1)
		close(started)
		<-release
		return nil
	}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.RunNow("campaign")
	}()
	<-started

	require.NoError(t, s.RunNow("campaign"))
	close(release)
	<-done
	assert.Equal(t, int32(1), runs.Load())
}

func TestStopCancelsJobContext(t *testing.T) {
	s, err := New("UTC", zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	var jobErr error
	require.NoError(t, s.AddJob("campaign", "0 */6 * * *", func(ctx context.Context) error {
		jobErr = ctx.Err()
		return jobErr
	}))

	s.Stop()
	require.NoError(t, s.RunNow("campaign"))
	assert.ErrorIs(t, jobErr, context.Canceled)
}
