package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// ErrUnknownSweep is returned when triggering a sweep that is not registered
var ErrUnknownSweep = errors.New("unknown sweep")

// Manager owns the sweep schedulers of one process
type Manager struct {
	schedulers map[string]*SweepScheduler
	logger     *zap.Logger
}

// NewManager creates a manager for the given schedulers
func NewManager(logger *zap.Logger, schedulers ...*SweepScheduler) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		schedulers: make(map[string]*SweepScheduler, len(schedulers)),
		logger:     logger,
	}
	for _, s := range schedulers {
		m.schedulers[s.Name()] = s
	}
	return m
}

// Start starts every scheduler
func (m *Manager) Start(ctx context.Context) error {
	for _, name := range m.names() {
		if err := m.schedulers[name].Start(ctx); err != nil {
			return fmt.Errorf("start %s scheduler: %w", name, err)
		}
	}
	return nil
}

// Stop stops every scheduler, returning the first error
func (m *Manager) Stop(ctx context.Context) error {
	var firstErr error
	for _, name := range m.names() {
		if err := m.schedulers[name].Stop(ctx); err != nil {
			m.logger.Warn("Failed to stop scheduler", zap.String("sweep", name), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Trigger starts an immediate run of the named sweep
func (m *Manager) Trigger(ctx context.Context, name string) error {
	s, ok := m.schedulers[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSweep, name)
	}
	return s.TriggerNow(ctx)
}

// Get returns the named scheduler
func (m *Manager) Get(name string) (*SweepScheduler, bool) {
	s, ok := m.schedulers[name]
	return s, ok
}

// Statuses returns the status of every scheduler ordered by name
func (m *Manager) Statuses() []SweepStatus {
	names := m.names()
	out := make([]SweepStatus, 0, len(names))
	for _, name := range names {
		out = append(out, m.schedulers[name].Status())
	}
	return out
}

func (m *Manager) names() []string {
	names := make([]string, 0, len(m.schedulers))
	for name := range m.schedulers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
