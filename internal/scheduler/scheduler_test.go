package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentroll/internal/log"
)

type countingJob struct {
	runs atomic.Int32
	err  error
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(context.Context) error {
	j.runs.Add(1)
	return j.err
}

// syncBuffer guards the log buffer against the cron goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestScheduler(ctx context.Context) (*Scheduler, *syncBuffer) {
	buf := &syncBuffer{}
	logger := log.New(log.Config{Level: slog.LevelDebug, Output: buf})
	return New(ctx, logger), buf
}

func TestAddJobRejectsBadSchedule(t *testing.T) {
	s, _ := newTestScheduler(context.Background())
	err := s.AddJob("every so often", &countingJob{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schedule counting")
}

func TestRunNow(t *testing.T) {
	s, buf := newTestScheduler(context.Background())
	job := &countingJob{err: errors.New("boom")}

	err := s.RunNow(job)
	assert.EqualError(t, err, "boom")
	assert.Equal(t, int32(1), job.runs.Load())
	assert.Contains(t, buf.String(), "Running job immediately")
}

func TestScheduledJobRuns(t *testing.T) {
	s, buf := newTestScheduler(context.Background())
	job := &countingJob{err: errors.New("sheet unavailable")}
	require.NoError(t, s.AddJob("@every 1s", job))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return job.runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
	assert.Eventually(t, func() bool {
		return bytes.Contains([]byte(buf.String()), []byte("Job failed"))
	}, time.Second, 20*time.Millisecond)
}

func TestCancelledContextSkipsRuns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, _ := newTestScheduler(ctx)
	job := &countingJob{}

	s.run(job)
	assert.Zero(t, job.runs.Load())
}
