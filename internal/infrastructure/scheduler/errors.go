package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when triggering a job on a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrJobNotFound is returned when a job is not registered
	ErrJobNotFound = errors.New("job not found")

	// ErrJobAlreadyRunning is returned when a job is triggered while its previous run is active
	ErrJobAlreadyRunning = errors.New("job already running")
)
