package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when triggering a sweep on a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrSweepInProgress is returned when a run of the same sweep is already active in this process
	ErrSweepInProgress = errors.New("sweep already in progress")

	// ErrSweepLocked is returned when another instance holds the sweep lock
	ErrSweepLocked = errors.New("sweep locked by another instance")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)
