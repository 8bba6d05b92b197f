package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	appinvoicing "github.com/invoicely/backend/internal/application/invoicing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubLocker struct {
	mu       sync.Mutex
	held     bool
	acquired int
	released int
	err      error
}

func (l *stubLocker) TryLock(_ context.Context, _ string, _ time.Duration) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, false, l.err
	}
	if l.held {
		return nil, false, nil
	}
	l.acquired++
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.released++
		return nil
	}, true, nil
}

func testConfig() SweepConfig {
	return SweepConfig{
		Name:     "test",
		Enabled:  true,
		Interval: time.Hour,
		Timeout:  time.Minute,
		LockTTL:  time.Minute,
	}
}

func countingSweep(calls *atomic.Int32) SweepFunc {
	return func(_ context.Context, now time.Time) (*appinvoicing.SweepResult, error) {
		calls.Add(1)
		return &appinvoicing.SweepResult{Sweep: "test", Selected: 2, Processed: 2}, nil
	}
}

func TestNextDailyRun(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		hour     int
		expected time.Time
	}{
		{
			name:     "before the hour runs today",
			now:      time.Date(2024, 3, 11, 6, 30, 0, 0, time.UTC),
			hour:     8,
			expected: time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC),
		},
		{
			name:     "after the hour runs tomorrow",
			now:      time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC),
			hour:     8,
			expected: time.Date(2024, 3, 12, 8, 0, 0, 0, time.UTC),
		},
		{
			name:     "exactly on the hour runs tomorrow",
			now:      time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC),
			hour:     8,
			expected: time.Date(2024, 3, 12, 8, 0, 0, 0, time.UTC),
		},
		{
			name:     "crosses month end",
			now:      time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC),
			hour:     0,
			expected: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "non-UTC input is normalized",
			now:      time.Date(2024, 3, 11, 7, 0, 0, 0, time.FixedZone("UTC+2", 2*3600)),
			hour:     8,
			expected: time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.expected.Equal(nextDailyRun(tt.now, tt.hour)), "got %s", nextDailyRun(tt.now, tt.hour))
		})
	}
}

func TestSweepConfig_Validate(t *testing.T) {
	assert.NoError(t, RecurringSweepConfig().Validate())
	assert.NoError(t, OverdueSweepConfig().Validate())

	cfg := testConfig()
	cfg.Name = ""
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = testConfig()
	cfg.Interval = 0
	cfg.DailyHour = 24
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	_, err := NewSweepScheduler(nil, zap.NewNop(), testConfig())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSweepScheduler_RunOnce(t *testing.T) {
	fixed := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)
	var seen time.Time
	s, err := NewSweepScheduler(func(_ context.Context, now time.Time) (*appinvoicing.SweepResult, error) {
		seen = now
		return &appinvoicing.SweepResult{Sweep: "test", Selected: 3, Processed: 3}, nil
	}, zap.NewNop(), testConfig(), WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)

	result, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Processed)
	assert.True(t, fixed.Equal(seen))

	st := s.Status()
	assert.Equal(t, "test", st.Name)
	assert.Equal(t, int64(1), st.Runs)
	assert.False(t, st.InProgress)
	require.NotNil(t, st.LastRunAt)
	assert.True(t, fixed.Equal(*st.LastRunAt))
	assert.Equal(t, 3, st.LastResult.Selected)
	assert.Empty(t, st.LastError)
}

func TestSweepScheduler_RunOnce_RecordsError(t *testing.T) {
	boom := errors.New("boom")
	s, err := NewSweepScheduler(func(context.Context, time.Time) (*appinvoicing.SweepResult, error) {
		return nil, boom
	}, zap.NewNop(), testConfig())
	require.NoError(t, err)

	_, err = s.RunOnce(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "boom", s.Status().LastError)
}

func TestSweepScheduler_RunGuard(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	s, err := NewSweepScheduler(func(ctx context.Context, _ time.Time) (*appinvoicing.SweepResult, error) {
		calls.Add(1)
		<-release
		return &appinvoicing.SweepResult{Sweep: "test"}, nil
	}, zap.NewNop(), testConfig())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := s.RunOnce(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool { return s.Status().InProgress }, time.Second, 5*time.Millisecond)

	_, err = s.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrSweepInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), calls.Load())

	// guard is released after the run
	_, err = s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSweepScheduler_DistributedLock(t *testing.T) {
	var calls atomic.Int32

	t.Run("acquires and releases the lock", func(t *testing.T) {
		locker := &stubLocker{}
		s, err := NewSweepScheduler(countingSweep(&calls), zap.NewNop(), testConfig(), WithLocker(locker))
		require.NoError(t, err)

		_, err = s.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, locker.acquired)
		assert.Equal(t, 1, locker.released)
	})

	t.Run("skips when another instance holds the lock", func(t *testing.T) {
		before := calls.Load()
		locker := &stubLocker{held: true}
		s, err := NewSweepScheduler(countingSweep(&calls), zap.NewNop(), testConfig(), WithLocker(locker))
		require.NoError(t, err)

		_, err = s.RunOnce(context.Background())
		assert.ErrorIs(t, err, ErrSweepLocked)
		assert.Equal(t, before, calls.Load())
	})

	t.Run("lock errors abort the run", func(t *testing.T) {
		before := calls.Load()
		locker := &stubLocker{err: errors.New("redis down")}
		s, err := NewSweepScheduler(countingSweep(&calls), zap.NewNop(), testConfig(), WithLocker(locker))
		require.NoError(t, err)

		_, err = s.RunOnce(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis down")
		assert.Equal(t, before, calls.Load())
	})
}

func TestSweepScheduler_StartStopTrigger(t *testing.T) {
	var calls atomic.Int32
	s, err := NewSweepScheduler(countingSweep(&calls), zap.NewNop(), testConfig())
	require.NoError(t, err)

	assert.ErrorIs(t, s.TriggerNow(context.Background()), ErrSchedulerNotRunning)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	require.NoError(t, s.Start(context.Background()))

	require.NoError(t, s.TriggerNow(context.Background()))
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return s.Status().NextRunAt != nil }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.False(t, s.IsRunning())
	require.NoError(t, s.Stop(ctx))
}

func TestSweepScheduler_StartupPass(t *testing.T) {
	var calls atomic.Int32
	cfg := testConfig()
	cfg.StartupDelay = 10 * time.Millisecond
	s, err := NewSweepScheduler(countingSweep(&calls), zap.NewNop(), cfg)
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))
}

func TestSweepScheduler_Disabled(t *testing.T) {
	var calls atomic.Int32
	cfg := testConfig()
	cfg.Enabled = false
	s, err := NewSweepScheduler(countingSweep(&calls), zap.NewNop(), cfg)
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())

	// manual runs still work
	_, err = s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestManager(t *testing.T) {
	var recurring, overdue atomic.Int32
	rcfg := testConfig()
	rcfg.Name = "recurring"
	ocfg := testConfig()
	ocfg.Name = "overdue"

	rs, err := NewSweepScheduler(countingSweep(&recurring), zap.NewNop(), rcfg)
	require.NoError(t, err)
	ovs, err := NewSweepScheduler(countingSweep(&overdue), zap.NewNop(), ocfg)
	require.NoError(t, err)

	m := NewManager(zap.NewNop(), rs, ovs)
	require.NoError(t, m.Start(context.Background()))

	require.NoError(t, m.Trigger(context.Background(), "overdue"))
	require.Eventually(t, func() bool { return overdue.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(0), recurring.Load())

	assert.ErrorIs(t, m.Trigger(context.Background(), "nightly"), ErrUnknownSweep)

	statuses := m.Statuses()
	require.Len(t, statuses, 2)
	assert.Equal(t, "overdue", statuses[0].Name)
	assert.Equal(t, "recurring", statuses[1].Name)

	got, ok := m.Get("recurring")
	require.True(t, ok)
	assert.Same(t, rs, got)

	require.NoError(t, m.Stop(context.Background()))
	assert.False(t, rs.IsRunning())
}
