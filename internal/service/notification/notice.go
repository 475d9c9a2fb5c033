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
)

// SendTaskCompletion emails the owner of a completed task. Only the
// EmailNotifications master switch gates it; TaskReminders does not apply.
func (s *Service) SendTaskCompletion(ctx context.Context, taskID uuid.UUID) (Outcome, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("task_id", taskID.String()))

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return Outcome{}, err
	}
	if !task.IsCompleted() {
		return Outcome{}, ErrTaskNotCompleted
	}

	owner, err := s.users.GetByID(ctx, task.UserID)
	if err != nil {
		return Outcome{}, err
	}
	if !owner.EmailNotifications {
		s.recordNotice(ctx, noticeEvent(task, events.OutcomeSkipped, "notifications disabled"))
		return Outcome{}, ErrNotificationsDisabled
	}

	res, err := s.sendNotice(ctx, mailer.Message{
		To:       owner.Email,
		ToName:   owner.Name,
		Template: mailer.TemplateTaskCompleted,
		Data: mailer.CompletionData{
			Title:       task.Title,
			Description: task.Description,
			OwnerName:   owner.DisplayName(),
		},
	})
	if err != nil {
		log.Error("failed to send completion email", slog.String("error", redact.Error(err)))
		s.recordNotice(ctx, noticeEvent(task, events.OutcomeFailed, redact.Error(err)))
		return Outcome{}, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	ev := noticeEvent(task, events.OutcomeSent, "")
	ev.MessageID = res.MessageID
	s.recordNotice(ctx, ev)
	log.Info("completion email sent",
		slog.String("to", redact.Email(owner.Email)),
		slog.String("message_id", res.MessageID))

	return Outcome{Sent: true, MessageID: res.MessageID}, nil
}

// SendTestEmail sends a sample task reminder to an arbitrary address so
// operators can check mail delivery end to end.
func (s *Service) SendTestEmail(ctx context.Context, to string) (Outcome, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("to", redact.Email(to)))

	res, err := s.sendNotice(ctx, mailer.Message{
		To:       to,
		Template: mailer.TemplateTaskReminder,
		Data: mailer.ReminderData{
			Title:          "Test Notification",
			Description:    "This is a test notification",
			Priority:       string(domain.PriorityMedium),
			OwnerName:      "Test User",
			HoursRemaining: domain.TierOneHour.HoursRemaining(),
			DueDate:        s.now().Add(time.Hour),
		},
	})
	if err != nil {
		log.Error("failed to send test email", slog.String("error", redact.Error(err)))
		s.recordNotice(ctx, events.NewReminderEvent(events.KindTest, events.OutcomeFailed))
		return Outcome{}, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	ev := events.NewReminderEvent(events.KindTest, events.OutcomeSent)
	ev.MessageID = res.MessageID
	s.recordNotice(ctx, ev)
	log.Info("test email sent", slog.String("message_id", res.MessageID))

	return Outcome{Sent: true, MessageID: res.MessageID}, nil
}

// sendNotice delivers msg, bounded by SendTimeout.
func (s *Service) sendNotice(ctx context.Context, msg mailer.Message) (mailer.SendResult, error) {
	if s.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.SendTimeout)
		defer cancel()
	}
	return s.mailer.Send(ctx, msg)
}

func noticeEvent(task *domain.Task, outcome events.Outcome, reason string) *events.ReminderEvent {
	ev := events.NewReminderEvent(events.KindCompletion, outcome)
	ev.TaskID = task.ID
	ev.UserID = task.UserID
	ev.Reason = reason
	return ev
}

func (s *Service) recordNotice(ctx context.Context, ev *events.ReminderEvent) {
	s.metrics.ObserveNotice(ev.Kind, string(ev.Outcome))
	if err := s.events.EmitEvent(ctx, ev); err != nil && !errors.Is(err, context.Canceled) {
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to emit notice event",
			slog.String("event_id", ev.ID.String()),
			slog.String("error", err.Error()))
	}
}
