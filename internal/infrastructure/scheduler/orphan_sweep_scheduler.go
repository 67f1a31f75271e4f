package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	mediaapp "github.com/uv/backend/internal/application/media"
	"go.uber.org/zap"
)

// Sweeper runs one orphan sweep
type Sweeper interface {
	Sweep(ctx context.Context) (*mediaapp.SweepResult, error)
}

// OrphanSweepSchedulerConfig holds configuration for the sweep scheduler
type OrphanSweepSchedulerConfig struct {
	// Schedule is a five-field cron expression or a descriptor such as @daily
	Schedule string
	// Timeout bounds a single sweep run
	Timeout time.Duration
}

// DefaultOrphanSweepSchedulerConfig runs once a day with a ten minute budget
func DefaultOrphanSweepSchedulerConfig() OrphanSweepSchedulerConfig {
	return OrphanSweepSchedulerConfig{
		Schedule: "@daily",
		Timeout:  10 * time.Minute,
	}
}

// SweepStatus is a snapshot of the scheduler state
type SweepStatus struct {
	Running    bool                  `json:"running"`
	Sweeping   bool                  `json:"sweeping"`
	Schedule   string                `json:"schedule"`
	LastRunAt  *time.Time            `json:"last_run_at,omitempty"`
	NextRunAt  *time.Time            `json:"next_run_at,omitempty"`
	LastResult *mediaapp.SweepResult `json:"last_result,omitempty"`
	LastError  string                `json:"last_error,omitempty"`
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// OrphanSweepScheduler runs the orphan sweep on a cron schedule.
// At most one sweep runs at a time; overlapping ticks are skipped.
type OrphanSweepScheduler struct {
	config   OrphanSweepSchedulerConfig
	schedule cron.Schedule
	sweeper  Sweeper
	logger   *zap.Logger

	mu        sync.Mutex
	cron      *cron.Cron
	entryID   cron.EntryID
	baseCtx   context.Context
	cancel    context.CancelFunc
	isRunning bool
	wg        sync.WaitGroup
	sweeping  atomic.Bool

	lastRunAt  *time.Time
	lastResult *mediaapp.SweepResult
	lastError  string
}

// NewOrphanSweepScheduler validates the schedule and creates a stopped scheduler
func NewOrphanSweepScheduler(config OrphanSweepSchedulerConfig, sweeper Sweeper, logger *zap.Logger) (*OrphanSweepScheduler, error) {
	if sweeper == nil {
		return nil, fmt.Errorf("%w: sweeper is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultOrphanSweepSchedulerConfig()
	if config.Schedule == "" {
		config.Schedule = defaults.Schedule
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}

	schedule, err := cronParser.Parse(config.Schedule)
	if err != nil {
		return nil, fmt.Errorf("%w: schedule %q: %v", ErrInvalidConfig, config.Schedule, err)
	}

	return &OrphanSweepScheduler{
		config:   config,
		schedule: schedule,
		sweeper:  sweeper,
		logger:   logger,
	}, nil
}

// Start begins running sweeps on the configured schedule
func (s *OrphanSweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return ErrSchedulerAlreadyRunning
	}

	s.baseCtx, s.cancel = context.WithCancel(ctx)
	s.cron = cron.New(cron.WithParser(cronParser), cron.WithLogger(cronLogger{s.logger}))
	s.entryID = s.cron.Schedule(s.schedule, cron.FuncJob(func() {
		if err := s.runSweep(); err != nil && !errors.Is(err, ErrSweepInProgress) {
			s.logger.Debug("Scheduled orphan sweep did not complete", zap.Error(err))
		}
	}))
	s.cron.Start()
	s.isRunning = true

	s.logger.Info("Orphan sweep scheduler started",
		zap.String("schedule", s.config.Schedule),
		zap.Duration("timeout", s.config.Timeout),
		zap.Time("next_run_at", s.cron.Entry(s.entryID).Next),
	)
	return nil
}

// Stop halts the schedule, cancels a running sweep and waits for it to return
func (s *OrphanSweepScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	c := s.cron
	cancel := s.cancel
	s.mu.Unlock()

	cronDone := c.Stop()
	cancel()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Orphan sweep scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Orphan sweep scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the scheduler has been started
func (s *OrphanSweepScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// TriggerImmediate starts a sweep in the background outside the schedule.
// The sweep is bound to the scheduler lifetime, not to ctx.
func (s *OrphanSweepScheduler) TriggerImmediate(ctx context.Context) error {
	s.mu.Lock()
	running := s.isRunning
	s.mu.Unlock()
	if !running {
		return ErrSchedulerNotRunning
	}
	if s.sweeping.Load() {
		return ErrSweepInProgress
	}

	go func() {
		if err := s.runSweep(); errors.Is(err, ErrSweepInProgress) {
			s.logger.Debug("Manual orphan sweep skipped, another sweep is running")
		}
	}()
	return nil
}

// Status returns a snapshot of the scheduler state
func (s *OrphanSweepScheduler) Status() SweepStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := SweepStatus{
		Running:    s.isRunning,
		Sweeping:   s.sweeping.Load(),
		Schedule:   s.config.Schedule,
		LastRunAt:  s.lastRunAt,
		LastResult: s.lastResult,
		LastError:  s.lastError,
	}
	if s.isRunning {
		next := s.cron.Entry(s.entryID).Next
		if !next.IsZero() {
			status.NextRunAt = &next
		}
	}
	return status
}

func (s *OrphanSweepScheduler) runSweep() error {
	if !s.sweeping.CompareAndSwap(false, true) {
		return ErrSweepInProgress
	}
	defer s.sweeping.Store(false)

	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.wg.Add(1)
	base := s.baseCtx
	s.mu.Unlock()
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(base, s.config.Timeout)
	defer cancel()

	started := time.Now()
	result, err := s.sweeper.Sweep(ctx)

	s.mu.Lock()
	s.lastRunAt = &started
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
		s.lastResult = result
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Orphan sweep failed", zap.Error(err), zap.Duration("elapsed", time.Since(started)))
		return err
	}
	return nil
}

// cronLogger routes cron's internal logging through zap
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
