package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when triggering a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrSchedulerAlreadyRunning is returned by Start on a running scheduler
	ErrSchedulerAlreadyRunning = errors.New("scheduler is already running")

	// ErrSweepInProgress is returned when a sweep is requested while one is running
	ErrSweepInProgress = errors.New("orphan sweep already in progress")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)
