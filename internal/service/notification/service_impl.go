package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmaster-api/internal/domain"
	"github.com/phrazzld/taskmaster-api/internal/events"
	"github.com/phrazzld/taskmaster-api/internal/platform/logger"
	"github.com/phrazzld/taskmaster-api/internal/platform/mailer"
	"github.com/phrazzld/taskmaster-api/internal/redact"
	"github.com/phrazzld/taskmaster-api/internal/store"
)

// Config bounds individual sends and retries.
type Config struct {
	// SendTimeout bounds each Mailer.Send call. A send cut off by it may
	// still have been accepted by the relay.
	SendTimeout time.Duration
	// MaxAttempts is the number of failed sends after which a task is no
	// longer selected for a tier. Zero disables the limit.
	MaxAttempts int
}

// Option customises a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithEmitter sets the emitter that receives one event per decision.
func WithEmitter(e events.EventEmitter) Option {
	return func(s *Service) { s.events = e }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

// Service implements Scanner, Digester and TaskReminderSender.
type Service struct {
	tasks   store.TaskStore
	users   store.UserStore
	mailer  mailer.Mailer
	events  events.EventEmitter
	metrics Recorder
	cfg     Config
	now     func() time.Time
	logger  *slog.Logger
}

var (
	_ Scanner            = (*Service)(nil)
	_ Digester           = (*Service)(nil)
	_ TaskReminderSender = (*Service)(nil)
	_ NoticeSender       = (*Service)(nil)
)

// NewService creates the notification service.
func NewService(
	tasks store.TaskStore,
	users store.UserStore,
	m mailer.Mailer,
	cfg Config,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	if tasks == nil {
		panic("tasks cannot be nil")
	}
	if users == nil {
		panic("users cannot be nil")
	}
	if m == nil {
		panic("mailer cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		tasks:   tasks,
		users:   users,
		mailer:  m,
		events:  events.NopEmitter{},
		metrics: nopRecorder{},
		cfg:     cfg,
		now:     time.Now,
		logger:  logger.With(slog.String("component", "notification_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// taskResult is the outcome of processing one task in a scan.
type taskResult int

const (
	resultSent taskResult = iota
	resultSkipped
	resultFailed
)

// ScanAndNotify implements Scanner.
//
// Both windows are computed from one reading of the clock and both queries
// run before the first send, so a query failure leaves every flag untouched.
// Urgent tasks are processed before upcoming ones.
func (s *Service) ScanAndNotify(ctx context.Context) Summary {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := s.now().UTC()
	summary := Summary{StartedAt: now}
	windows := domain.WindowsAt(now)

	batches := make([][]*domain.Task, len(windows))
	for i, w := range windows {
		tasks, err := s.tasks.FindTasksDueInWindow(ctx, store.WindowQueryFor(w, s.cfg.MaxAttempts))
		if err != nil {
			log.Error("reminder scan aborted: window query failed",
				slog.String("tier", string(w.Tier)),
				slog.String("error", redact.Error(err)))
			summary.Error = fmt.Sprintf("query %s window: %s", w.Tier, redact.Error(err))
			summary.Duration = s.now().Sub(now)
			return summary
		}
		batches[i] = tasks
	}

	for i, w := range windows {
		for _, task := range batches[i] {
			switch s.remind(ctx, task, w.Tier) {
			case resultSent:
				summary.SentCount++
			case resultSkipped:
				summary.Skipped++
			case resultFailed:
				summary.Failed++
			}
		}
	}

	summary.Success = true
	summary.Duration = s.now().Sub(now)
	log.Info("reminder scan completed",
		slog.Int("sent", summary.SentCount),
		slog.Int("skipped", summary.Skipped),
		slog.Int("failed", summary.Failed),
		slog.Int("urgent_candidates", len(batches[0])),
		slog.Int("upcoming_candidates", len(batches[1])),
		slog.Duration("duration", summary.Duration))
	return summary
}

// remind resolves the owner, sends one reminder and records the result.
func (s *Service) remind(ctx context.Context, task *domain.Task, tier domain.ReminderTier) taskResult {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("task_id", task.ID.String()),
		slog.String("tier", string(tier)))

	owner, err := s.users.GetByID(ctx, task.UserID)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Warn("skipping reminder: task owner not found",
				slog.String("user_id", task.UserID.String()))
			s.record(ctx, tier, reminderEvent(task, tier, events.OutcomeSkipped, "owner not found"))
			return resultSkipped
		}
		log.Error("failed to load task owner", slog.String("error", redact.Error(err)))
		s.record(ctx, tier, reminderEvent(task, tier, events.OutcomeFailed, "owner lookup failed"))
		return resultFailed
	}

	if !owner.WantsReminders() {
		log.Debug("skipping reminder: owner opted out")
		s.record(ctx, tier, reminderEvent(task, tier, events.OutcomeSkipped, "reminders disabled"))
		return resultSkipped
	}

	res, err := s.send(ctx, owner, task, tier)
	if err != nil {
		s.handleSendFailure(ctx, log, task, tier, err)
		return resultFailed
	}

	if err := s.tasks.MarkReminderSent(ctx, task.ID, tier); err != nil {
		// The email went out; the next scan may send it again.
		log.Error("reminder sent but flag update failed",
			slog.String("error", redact.Error(err)))
	}

	ev := reminderEvent(task, tier, events.OutcomeSent, "")
	ev.MessageID = res.MessageID
	s.record(ctx, tier, ev)
	log.Info("reminder sent",
		slog.String("to", redact.Email(owner.Email)),
		slog.String("message_id", res.MessageID))
	return resultSent
}

// send renders and delivers the reminder, bounded by SendTimeout.
func (s *Service) send(ctx context.Context, owner *domain.User, task *domain.Task, tier domain.ReminderTier) (mailer.SendResult, error) {
	if s.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.SendTimeout)
		defer cancel()
	}

	return s.mailer.Send(ctx, mailer.Message{
		To:       owner.Email,
		ToName:   owner.Name,
		Template: mailer.TemplateTaskReminder,
		Data: mailer.ReminderData{
			Title:          task.Title,
			Description:    task.Description,
			Priority:       string(task.Priority),
			OwnerName:      owner.DisplayName(),
			HoursRemaining: tier.HoursRemaining(),
			DueDate:        task.DueDate,
		},
	})
}

// handleSendFailure leaves the flag false and bumps the attempt counter.
func (s *Service) handleSendFailure(ctx context.Context, log *slog.Logger, task *domain.Task, tier domain.ReminderTier, sendErr error) {
	log.Error("failed to send reminder", slog.String("error", redact.Error(sendErr)))

	attempts, err := s.tasks.RecordReminderFailure(ctx, task.ID, tier)
	if err != nil {
		log.Error("failed to record reminder failure", slog.String("error", redact.Error(err)))
		s.record(ctx, tier, reminderEvent(task, tier, events.OutcomeFailed, redact.Error(sendErr)))
		return
	}

	outcome := events.OutcomeFailed
	if s.cfg.MaxAttempts > 0 && attempts >= s.cfg.MaxAttempts {
		outcome = events.OutcomeDeadLettered
		log.Warn("reminder dead-lettered after repeated failures",
			slog.Int("attempts", attempts),
			slog.Int("max_attempts", s.cfg.MaxAttempts))
	}

	ev := reminderEvent(task, tier, outcome, redact.Error(sendErr))
	ev.Attempts = attempts
	s.record(ctx, tier, ev)
}

// SendTaskReminder implements TaskReminderSender. The tier is chosen from
// the task's due date at the current time. Dead-lettered tasks are still
// attempted; a manual request overrides the attempt limit.
func (s *Service) SendTaskReminder(ctx context.Context, taskID uuid.UUID) (Outcome, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("task_id", taskID.String()))

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return Outcome{}, err
	}
	if task.IsCompleted() {
		return Outcome{}, ErrTaskCompleted
	}

	tier, ok := domain.TierFor(s.now(), task.DueDate)
	if !ok {
		return Outcome{}, ErrTaskNotDue
	}
	if task.Sent(tier) {
		return Outcome{Tier: tier}, ErrAlreadySent
	}

	owner, err := s.users.GetByID(ctx, task.UserID)
	if err != nil {
		return Outcome{Tier: tier}, err
	}
	if !owner.WantsReminders() {
		return Outcome{Tier: tier}, ErrRemindersDisabled
	}

	res, err := s.send(ctx, owner, task, tier)
	if err != nil {
		s.handleSendFailure(ctx, log, task, tier, err)
		return Outcome{Tier: tier}, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	if err := s.tasks.MarkReminderSent(ctx, task.ID, tier); err != nil {
		log.Error("reminder sent but flag update failed", slog.String("error", redact.Error(err)))
	}

	ev := reminderEvent(task, tier, events.OutcomeSent, "manual")
	ev.MessageID = res.MessageID
	s.record(ctx, tier, ev)
	log.Info("manual reminder sent", slog.String("tier", string(tier)), slog.String("message_id", res.MessageID))

	return Outcome{Sent: true, Tier: tier, MessageID: res.MessageID}, nil
}

func reminderEvent(task *domain.Task, tier domain.ReminderTier, outcome events.Outcome, reason string) *events.ReminderEvent {
	ev := events.NewReminderEvent(events.KindReminder, outcome)
	ev.TaskID = task.ID
	ev.UserID = task.UserID
	ev.Tier = string(tier)
	ev.Reason = reason
	return ev
}

// record forwards a reminder decision to metrics and event handlers.
// Emitter failures are logged and otherwise ignored.
func (s *Service) record(ctx context.Context, tier domain.ReminderTier, ev *events.ReminderEvent) {
	s.metrics.ObserveReminder(string(tier), string(ev.Outcome))
	if err := s.events.EmitEvent(ctx, ev); err != nil && !errors.Is(err, context.Canceled) {
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to emit reminder event",
			slog.String("event_id", ev.ID.String()),
			slog.String("error", err.Error()))
	}
}
