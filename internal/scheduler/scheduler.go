package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmaster-api/internal/platform/logger"
	"github.com/phrazzld/taskmaster-api/internal/service/notification"
	"github.com/robfig/cron/v3"
)

// Scan triggers, used as the metrics label.
const (
	TriggerInterval = "interval"
	TriggerManual   = "manual"
)

// MaxScanInterval is the exclusive upper bound on ScanInterval. A longer
// interval could step over the whole one-hour window.
const MaxScanInterval = time.Hour

var (
	// ErrScanInProgress is returned by TriggerManualCheck and guarded task
	// reminders while a scan runs.
	ErrScanInProgress = errors.New("a reminder scan is already running")

	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("scheduler already started")

	// ErrInvalidInterval is returned when ScanInterval is out of range.
	ErrInvalidInterval = errors.New("scan interval must be positive and shorter than one hour")
)

// Config controls when jobs run.
type Config struct {
	// ScanInterval is the delay between reminder scans.
	ScanInterval time.Duration
	// DigestSpec is a standard five-field cron expression. Empty disables
	// the digest.
	DigestSpec string
	// Location is the time zone DigestSpec is evaluated in. Defaults to UTC.
	Location *time.Location
}

// DefaultConfig returns a Config with reasonable defaults
func DefaultConfig() Config {
	return Config{
		ScanInterval: 15 * time.Minute,
		DigestSpec:   "0 8 * * *",
		Location:     time.UTC,
	}
}

// Observer receives scan lifecycle measurements. *metrics.Metrics
// implements it.
type Observer interface {
	ObserveScan(trigger string, success bool, duration time.Duration, finishedAt time.Time)
	ObserveScanSkipped()
	SetScanInProgress(running bool)
}

type nopObserver struct{}

func (nopObserver) ObserveScan(string, bool, time.Duration, time.Time) {}
func (nopObserver) ObserveScanSkipped()                                {}
func (nopObserver) SetScanInProgress(bool)                             {}

// Scheduler owns the cron runner and the overlap guards.
type Scheduler struct {
	scanner  notification.Scanner
	digester notification.Digester
	config   Config
	observer Observer
	logger   *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	started bool

	scanning  atomic.Bool
	digesting atomic.Bool
}

// New creates a Scheduler. digester may be nil, which disables the digest.
func New(
	scanner notification.Scanner,
	digester notification.Digester,
	config Config,
	logger *slog.Logger,
	observer Observer,
) *Scheduler {
	if scanner == nil {
		panic("scanner cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	if config.Location == nil {
		config.Location = time.UTC
	}

	return &Scheduler{
		scanner:  scanner,
		digester: digester,
		config:   config,
		observer: observer,
		logger:   logger.With(slog.String("component", "scheduler")),
	}
}

// Start registers the jobs and starts the cron runner. Jobs keep the values
// of ctx but not its cancellation: only Stop cancels a running job, once its
// own deadline has passed.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	if s.config.ScanInterval <= 0 || s.config.ScanInterval >= MaxScanInterval {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, s.config.ScanInterval)
	}

	c := cron.New(
		cron.WithLocation(s.config.Location),
		cron.WithLogger(cronLogger{s.logger}),
		cron.WithChain(cron.Recover(cronLogger{s.logger})),
	)

	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.Schedule(cron.Every(s.config.ScanInterval), cron.FuncJob(func() { s.scheduledScan(jobCtx) }))

	if s.config.DigestSpec != "" && s.digester != nil {
		if _, err := c.AddFunc(s.config.DigestSpec, func() { s.runDigest(jobCtx) }); err != nil {
			cancel()
			return fmt.Errorf("invalid digest schedule %q: %w", s.config.DigestSpec, err)
		}
	}

	c.Start()
	s.cron = c
	s.ctx = jobCtx
	s.cancel = cancel
	s.started = true

	s.logger.Info("scheduler started",
		slog.Duration("scan_interval", s.config.ScanInterval),
		slog.String("digest_spec", s.config.DigestSpec),
		slog.String("location", s.config.Location.String()))
	return nil
}

// Stop stops the cron runner and waits for running jobs until ctx is done.
// Jobs still running at that point have their context cancelled.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	c, cancel := s.cron, s.cancel
	s.started = false
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return nil
	}
	defer cancel()

	s.logger.Info("stopping scheduler")
	select {
	case <-c.Stop().Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out, cancelling running jobs")
		return ctx.Err()
	}
}

// TriggerManualCheck runs one scan synchronously through the same path as
// the timer. The scan is not cancelled when ctx is; values such as the
// request logger are kept.
func (s *Scheduler) TriggerManualCheck(ctx context.Context) (notification.Summary, error) {
	summary, ok := s.runScan(context.WithoutCancel(ctx), TriggerManual)
	if !ok {
		return notification.Summary{}, ErrScanInProgress
	}
	return summary, nil
}

// GuardTaskReminders wraps next so that a single-task reminder and a scan
// never run at the same time. A guarded send returns ErrScanInProgress
// instead of waiting, and a tick that fires during the send is skipped.
func (s *Scheduler) GuardTaskReminders(next notification.TaskReminderSender) notification.TaskReminderSender {
	return &guardedSender{s: s, next: next}
}

type guardedSender struct {
	s    *Scheduler
	next notification.TaskReminderSender
}

func (g *guardedSender) SendTaskReminder(ctx context.Context, taskID uuid.UUID) (notification.Outcome, error) {
	if !g.s.scanning.CompareAndSwap(false, true) {
		return notification.Outcome{}, ErrScanInProgress
	}
	defer g.s.scanning.Store(false)
	return g.next.SendTaskReminder(ctx, taskID)
}

// scheduledScan is the cron job body.
func (s *Scheduler) scheduledScan(ctx context.Context) {
	if _, ok := s.runScan(ctx, TriggerInterval); !ok {
		s.observer.ObserveScanSkipped()
		s.logger.Warn("skipping scheduled scan: previous scan or task reminder still running")
	}
}

// runScan reports false without scanning when another scan holds the guard.
func (s *Scheduler) runScan(ctx context.Context, trigger string) (notification.Summary, bool) {
	if !s.scanning.CompareAndSwap(false, true) {
		return notification.Summary{}, false
	}
	defer s.scanning.Store(false)

	s.observer.SetScanInProgress(true)
	defer s.observer.SetScanInProgress(false)

	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("trigger", trigger))
	ctx = logger.WithLogger(ctx, log)

	start := time.Now()
	summary := s.scanner.ScanAndNotify(ctx)
	s.observer.ObserveScan(trigger, summary.Success, time.Since(start), time.Now())

	if !summary.Success {
		log.Error("reminder scan failed; retrying on next tick", slog.String("error", summary.Error))
	}
	return summary, true
}

func (s *Scheduler) runDigest(ctx context.Context) {
	if !s.digesting.CompareAndSwap(false, true) {
		s.logger.Warn("skipping daily digest: previous run still in progress")
		return
	}
	defer s.digesting.Store(false)

	summary := s.digester.SendDailyDigest(ctx)
	if !summary.Success {
		s.logger.Error("daily digest failed", slog.String("error", summary.Error))
	}
}

// Running reports whether a scan is in flight.
func (s *Scheduler) Running() bool {
	return s.scanning.Load()
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
