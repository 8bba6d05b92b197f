package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	appinvoicing "github.com/invoicely/backend/internal/application/invoicing"
	"go.uber.org/zap"
)

// SweepFunc runs one pass of a background sweep as of now
type SweepFunc func(ctx context.Context, now time.Time) (*appinvoicing.SweepResult, error)

// Locker serializes sweeps across instances. TryLock returns ok=false when the key is held elsewhere.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

// SweepConfig holds configuration for one sweep scheduler
type SweepConfig struct {
	// Name identifies the sweep in logs and lock keys
	Name string

	// Enabled determines if the periodic loop starts
	Enabled bool

	// Interval runs the sweep periodically. When zero the sweep runs daily at DailyHour.
	Interval time.Duration

	// DailyHour is the hour (0-23, UTC) of the daily run
	DailyHour int

	// StartupDelay schedules one extra pass shortly after start. Zero disables it.
	StartupDelay time.Duration

	// Timeout is the maximum time for a single run
	Timeout time.Duration

	// LockTTL bounds how long a crashed instance can hold the distributed lock
	LockTTL time.Duration
}

// Validate checks the configuration
func (c SweepConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	if c.Interval < 0 {
		return fmt.Errorf("%w: interval cannot be negative", ErrInvalidConfig)
	}
	if c.Interval == 0 && (c.DailyHour < 0 || c.DailyHour > 23) {
		return fmt.Errorf("%w: daily hour must be between 0 and 23", ErrInvalidConfig)
	}
	return nil
}

// RecurringSweepConfig returns the default configuration of the recurring invoice sweep
func RecurringSweepConfig() SweepConfig {
	return SweepConfig{
		Name:         appinvoicing.SweepRecurring,
		Enabled:      true,
		Interval:     time.Hour,
		StartupDelay: 5 * time.Second,
		Timeout:      10 * time.Minute,
		LockTTL:      15 * time.Minute,
	}
}

// OverdueSweepConfig returns the default configuration of the overdue sweep
func OverdueSweepConfig() SweepConfig {
	return SweepConfig{
		Name:         appinvoicing.SweepOverdue,
		Enabled:      true,
		DailyHour:    8,
		StartupDelay: 8 * time.Second,
		Timeout:      10 * time.Minute,
		LockTTL:      15 * time.Minute,
	}
}

// SweepStatus is a snapshot of a scheduler's state
type SweepStatus struct {
	Name       string                    `json:"name"`
	Running    bool                      `json:"running"`
	InProgress bool                      `json:"in_progress"`
	Runs       int64                     `json:"runs"`
	LastRunAt  *time.Time                `json:"last_run_at,omitempty"`
	LastResult *appinvoicing.SweepResult `json:"last_result,omitempty"`
	LastError  string                    `json:"last_error,omitempty"`
	NextRunAt  *time.Time                `json:"next_run_at,omitempty"`
}

// SweepScheduler runs a sweep on a fixed interval or daily, never overlapping itself
type SweepScheduler struct {
	sweep  SweepFunc
	logger *zap.Logger
	config SweepConfig
	locker Locker
	clock  func() time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	inProgress atomic.Bool
	runs       atomic.Int64

	statusMu   sync.RWMutex
	lastRunAt  *time.Time
	lastResult *appinvoicing.SweepResult
	lastErr    error
	nextRunAt  *time.Time
}

// SweepOption configures a SweepScheduler
type SweepOption func(*SweepScheduler)

// WithLocker enables cross-instance locking
func WithLocker(l Locker) SweepOption {
	return func(s *SweepScheduler) {
		s.locker = l
	}
}

// WithClock replaces the time source
func WithClock(clock func() time.Time) SweepOption {
	return func(s *SweepScheduler) {
		s.clock = clock
	}
}

// NewSweepScheduler creates a new sweep scheduler
func NewSweepScheduler(sweep SweepFunc, logger *zap.Logger, config SweepConfig, opts ...SweepOption) (*SweepScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if sweep == nil {
		return nil, fmt.Errorf("%w: sweep func is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SweepScheduler{
		sweep:  sweep,
		logger: logger.With(zap.String("sweep", config.Name)),
		config: config,
		clock:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name returns the sweep name
func (s *SweepScheduler) Name() string {
	return s.config.Name
}

// Start starts the scheduler loop
func (s *SweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Sweep scheduler is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	if s.config.StartupDelay > 0 {
		s.wg.Add(1)
		go s.runStartupPass(ctx)
	}

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Sweep scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Int("daily_hour", s.config.DailyHour),
		zap.Duration("startup_delay", s.config.StartupDelay),
		zap.Bool("distributed_lock", s.locker != nil),
	)

	return nil
}

// Stop gracefully stops the scheduler and waits for an active run to finish
func (s *SweepScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Sweep scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Sweep scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *SweepScheduler) runStartupPass(ctx context.Context) {
	defer s.wg.Done()

	select {
	case <-ctx.Done():
		return
	case <-time.After(s.config.StartupDelay):
		s.execute(ctx)
	}
}

func (s *SweepScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		now := s.clock()
		next := s.nextRun(now)
		s.setNextRun(next)
		delay := next.Sub(now)

		s.logger.Debug("Sweep scheduled",
			zap.Time("next_run", next),
			zap.Duration("delay", delay),
		)

		select {
		case <-ctx.Done():
			s.logger.Debug("Sweep loop stopping")
			return
		case <-time.After(delay):
			s.execute(ctx)
		}
	}
}

func (s *SweepScheduler) nextRun(now time.Time) time.Time {
	if s.config.Interval > 0 {
		return now.Add(s.config.Interval)
	}
	return nextDailyRun(now, s.config.DailyHour)
}

// nextDailyRun returns the next occurrence of hour:00 UTC strictly after now
func nextDailyRun(now time.Time, hour int) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// execute runs one pass and logs the outcome. Skips are logged, not reported as failures.
func (s *SweepScheduler) execute(ctx context.Context) {
	result, err := s.RunOnce(ctx)
	switch {
	case errors.Is(err, ErrSweepInProgress), errors.Is(err, ErrSweepLocked):
		s.logger.Info("Sweep skipped", zap.Error(err))
	case err != nil:
		s.logger.Error("Sweep failed", zap.Error(err))
	case result != nil:
		s.logger.Info("Sweep completed",
			zap.Int("selected", result.Selected),
			zap.Int("processed", result.Processed),
			zap.Int("skipped", result.Skipped),
			zap.Int("failed", result.Failed),
			zap.Duration("duration", result.Duration),
		)
	}
}

// RunOnce runs the sweep synchronously. It returns ErrSweepInProgress when a run is
// already active in this process and ErrSweepLocked when another instance holds the lock.
func (s *SweepScheduler) RunOnce(ctx context.Context) (*appinvoicing.SweepResult, error) {
	if !s.inProgress.CompareAndSwap(false, true) {
		return nil, ErrSweepInProgress
	}
	defer s.inProgress.Store(false)

	if s.locker != nil {
		release, ok, err := s.locker.TryLock(ctx, s.lockKey(), s.config.LockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire sweep lock: %w", err)
		}
		if !ok {
			return nil, ErrSweepLocked
		}
		defer func() {
			// The run context may already be cancelled on shutdown.
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := release(releaseCtx); err != nil {
				s.logger.Warn("Failed to release sweep lock", zap.Error(err))
			}
		}()
	}

	runCtx := ctx
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	startedAt := s.clock()
	s.logger.Info("Starting sweep", zap.Time("started_at", startedAt))

	result, err := s.sweep(runCtx, startedAt)
	s.runs.Add(1)
	s.record(startedAt, result, err)
	return result, err
}

// TriggerNow starts an immediate run in the background
func (s *SweepScheduler) TriggerNow(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.Info("Triggering immediate sweep")

	go func() {
		defer s.wg.Done()
		s.execute(context.WithoutCancel(ctx))
	}()

	return nil
}

// IsRunning returns whether the scheduler loop is running
func (s *SweepScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// Status returns a snapshot of the scheduler state
func (s *SweepScheduler) Status() SweepStatus {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()

	st := SweepStatus{
		Name:       s.config.Name,
		Running:    s.IsRunning(),
		InProgress: s.inProgress.Load(),
		Runs:       s.runs.Load(),
		LastRunAt:  s.lastRunAt,
		LastResult: s.lastResult,
		NextRunAt:  s.nextRunAt,
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

func (s *SweepScheduler) record(at time.Time, result *appinvoicing.SweepResult, err error) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.lastRunAt = &at
	s.lastResult = result
	s.lastErr = err
}

func (s *SweepScheduler) setNextRun(at time.Time) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.nextRunAt = &at
}

func (s *SweepScheduler) lockKey() string {
	return "billing:sweep:" + s.config.Name
}
