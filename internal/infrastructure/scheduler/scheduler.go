// Package scheduler runs the periodic stock jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/stockflow/backend/internal/domain/identity"
	"github.com/stockflow/backend/internal/infrastructure/config"
	"github.com/stockflow/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const claimTimeout = 5 * time.Second

// JobStatus represents the outcome of a job run
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Job is a unit of periodic work
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// JobState tracks the runs of one registered job
type JobState struct {
	Name        string     `json:"name"`
	Schedule    string     `json:"schedule"`
	Status      JobStatus  `json:"status"`
	Error       string     `json:"error,omitempty"`
	LastRunAt   *time.Time `json:"last_run_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	NextRunAt   *time.Time `json:"next_run_at,omitempty"`
	Runs        int        `json:"runs"`
}

// Config holds scheduler configuration
type Config struct {
	Enabled    bool
	JobTimeout time.Duration
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		JobTimeout: 10 * time.Minute,
	}
}

// ConfigFromApp maps the application scheduler section onto a Config
func ConfigFromApp(cfg config.SchedulerConfig) Config {
	out := DefaultConfig()
	out.Enabled = cfg.Enabled
	if cfg.JobTimeout > 0 {
		out.JobTimeout = cfg.JobTimeout
	}
	return out
}

// SystemActor returns the actor recorded on work done by scheduled jobs
func SystemActor(cfg config.SchedulerConfig) (identity.Actor, error) {
	id, err := uuid.Parse(cfg.SystemUserID)
	if err != nil {
		return identity.Actor{}, fmt.Errorf("%w: system user id: %v", ErrInvalidConfig, err)
	}
	return identity.NewActor(id, identity.RoleAdmin, "system"), nil
}

// RunClaims hands a scheduled tick to a single instance. Claim returns
// false when another holder already owns key.
type RunClaims interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type registration struct {
	job     Job
	entryID cron.EntryID
	state   JobState
	running bool
}

// Scheduler runs registered jobs on their cron schedule. Overlapping runs of
// the same job are skipped.
type Scheduler struct {
	config Config
	cron   *cron.Cron
	logger *zap.Logger

	claims RunClaims

	mu        sync.Mutex
	jobs      map[string]*registration
	isRunning bool
	wg        sync.WaitGroup
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg Config, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("scheduler")
	return &Scheduler{
		config: cfg,
		cron: cron.New(cron.WithChain(
			cron.Recover(newCronLogger(logger)),
		)),
		logger: logger,
		jobs:   make(map[string]*registration),
	}
}

// WithRunClaims makes scheduled ticks run on whichever instance claims them
// first. Manual triggers are never claimed.
func (s *Scheduler) WithRunClaims(claims RunClaims) *Scheduler {
	s.claims = claims
	return s
}

// Register schedules job with a five field cron expression
func (s *Scheduler) Register(schedule string, job Job) error {
	if schedule == "" {
		return fmt.Errorf("%w: empty schedule for %s", ErrInvalidConfig, job.Name())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.Name()]; exists {
		return fmt.Errorf("%w: job %s registered twice", ErrInvalidConfig, job.Name())
	}

	reg := &registration{
		job:   job,
		state: JobState{Name: job.Name(), Schedule: schedule, Status: JobStatusPending},
	}
	entryID, err := s.cron.AddFunc(schedule, func() { s.runTick(reg, time.Now()) })
	if err != nil {
		return fmt.Errorf("%w: schedule %q for %s: %v", ErrInvalidConfig, schedule, job.Name(), err)
	}
	reg.entryID = entryID
	s.jobs[job.Name()] = reg

	s.logger.Info("Job registered",
		zap.String("job", job.Name()),
		zap.String("schedule", schedule))
	return nil
}

// Start starts the cron loop. It does nothing when the scheduler is disabled.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return
	}
	if !s.config.Enabled {
		s.logger.Info("Scheduler disabled")
		return
	}
	s.cron.Start()
	s.isRunning = true
	s.logger.Info("Scheduler started",
		zap.Int("jobs", len(s.jobs)),
		zap.Duration("job_timeout", s.config.JobTimeout))
}

// Stop stops the cron loop and waits for running jobs until ctx expires
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	cronDone := s.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// Trigger runs the named job now, in the background
func (s *Scheduler) Trigger(name string) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	reg, ok := s.jobs[name]
	if !ok {
		s.mu.Unlock()
		return ErrJobNotFound
	}
	if reg.running {
		s.mu.Unlock()
		return ErrJobAlreadyRunning
	}
	s.mu.Unlock()

	go s.run(reg)
	return nil
}

// RunNow runs the named job synchronously, whether or not the cron loop is started
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	reg, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return ErrJobNotFound
	}
	return s.run(reg)
}

// Status returns the state of every registered job, sorted by name
func (s *Scheduler) Status() []JobState {
	s.mu.Lock()
	defer s.mu.Unlock()

	states := make([]JobState, 0, len(s.jobs))
	for _, reg := range s.jobs {
		state := reg.state
		if s.isRunning {
			if next := s.cron.Entry(reg.entryID).Next; !next.IsZero() {
				state.NextRunAt = &next
			}
		}
		states = append(states, state)
	}
	sort.Slice(states, func(i, j int) bool { return states[i].Name < states[j].Name })
	return states
}

// runTick runs a cron tick of reg once it holds the claim for that minute.
// A failing claim store does not block the run.
func (s *Scheduler) runTick(reg *registration, tick time.Time) {
	if s.claims == nil {
		_ = s.run(reg)
		return
	}
	name := reg.job.Name()
	key := fmt.Sprintf("job:%s:%d", name, tick.Truncate(time.Minute).Unix())

	ctx, cancel := context.WithTimeout(context.Background(), claimTimeout)
	won, err := s.claims.Claim(ctx, key, s.config.JobTimeout)
	cancel()
	switch {
	case err != nil:
		s.logger.Warn("Run claim failed, running anyway", zap.String("job", name), zap.Error(err))
	case !won:
		s.logger.Debug("Tick claimed by another instance", zap.String("job", name), zap.String("key", key))
		return
	}
	_ = s.run(reg)
}

// run executes one run of reg unless the previous one is still active
func (s *Scheduler) run(reg *registration) error {
	s.mu.Lock()
	if reg.running {
		s.mu.Unlock()
		s.logger.Warn("Skipping job run, previous run still active", zap.String("job", reg.job.Name()))
		return ErrJobAlreadyRunning
	}
	reg.running = true
	now := time.Now()
	reg.state.Status = JobStatusRunning
	reg.state.LastRunAt = &now
	reg.state.Error = ""
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.config.JobTimeout)
	defer cancel()
	ctx, span := telemetry.StartSpan(ctx, "scheduler."+reg.job.Name(),
		telemetry.WithAttribute("job", reg.job.Name()))
	defer span.End()

	log := s.logger.With(zap.String("job", reg.job.Name()))
	log.Info("Job started")

	err := safeRun(ctx, reg.job)

	completed := time.Now()
	s.mu.Lock()
	reg.running = false
	reg.state.Runs++
	reg.state.CompletedAt = &completed
	if err != nil {
		reg.state.Status = JobStatusFailed
		reg.state.Error = err.Error()
	} else {
		reg.state.Status = JobStatusSuccess
	}
	s.mu.Unlock()

	if err != nil {
		telemetry.RecordError(span, err)
		log.Error("Job failed", zap.Duration("duration", completed.Sub(now)), zap.Error(err))
		return err
	}
	telemetry.SetOK(span)
	log.Info("Job completed", zap.Duration("duration", completed.Sub(now)))
	return nil
}

func safeRun(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return job.Run(ctx)
}

// cronLogger adapts zap to the cron.Logger interface
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func newCronLogger(logger *zap.Logger) cron.Logger {
	return cronLogger{sugar: logger.Sugar()}
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
