package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/phrazzld/taskmaster-api/internal/domain"
	"github.com/phrazzld/taskmaster-api/internal/events"
	"github.com/phrazzld/taskmaster-api/internal/platform/logger"
	"github.com/phrazzld/taskmaster-api/internal/platform/mailer"
	"github.com/phrazzld/taskmaster-api/internal/redact"
)

// digestHorizon is how far ahead the digest looks for open tasks.
const digestHorizon = 24 * time.Hour

// SendDailyDigest implements Digester. Each recipient receives one email
// listing open tasks due within the next day plus overdue ones; recipients
// with nothing to list are skipped. A listing failure aborts the run.
func (s *Service) SendDailyDigest(ctx context.Context) DigestSummary {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := s.now().UTC()
	summary := DigestSummary{StartedAt: now}

	recipients, err := s.users.ListDigestRecipients(ctx)
	if err != nil {
		log.Error("daily digest aborted: listing recipients failed", slog.String("error", redact.Error(err)))
		summary.Error = "list recipients: " + redact.Error(err)
		summary.Duration = s.now().Sub(now)
		return summary
	}

	for _, user := range recipients {
		tasks, err := s.tasks.ListOpenTasksDueBefore(ctx, user.ID, now.Add(digestHorizon))
		if err != nil {
			log.Error("daily digest aborted: listing tasks failed",
				slog.String("user_id", user.ID.String()),
				slog.String("error", redact.Error(err)))
			summary.Error = "list tasks: " + redact.Error(err)
			summary.Duration = s.now().Sub(now)
			return summary
		}

		if len(tasks) == 0 {
			summary.Skipped++
			s.recordDigest(ctx, user, events.OutcomeSkipped, "", "no open tasks")
			continue
		}

		res, err := s.sendDigest(ctx, user, tasks, now)
		if err != nil {
			summary.Failed++
			log.Error("failed to send daily digest",
				slog.String("user_id", user.ID.String()),
				slog.String("error", redact.Error(err)))
			s.recordDigest(ctx, user, events.OutcomeFailed, "", redact.Error(err))
			continue
		}

		summary.SentCount++
		s.recordDigest(ctx, user, events.OutcomeSent, res.MessageID, "")
	}

	summary.Success = true
	summary.Duration = s.now().Sub(now)
	log.Info("daily digest completed",
		slog.Int("sent", summary.SentCount),
		slog.Int("skipped", summary.Skipped),
		slog.Int("failed", summary.Failed))
	return summary
}

func (s *Service) sendDigest(ctx context.Context, user *domain.User, tasks []*domain.Task, now time.Time) (mailer.SendResult, error) {
	if s.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.SendTimeout)
		defer cancel()
	}

	items := make([]mailer.DigestItem, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, mailer.DigestItem{
			Title:    t.Title,
			Priority: string(t.Priority),
			DueDate:  t.DueDate,
			Overdue:  t.DueDate.Before(now),
		})
	}

	return s.mailer.Send(ctx, mailer.Message{
		To:       user.Email,
		ToName:   user.Name,
		Template: mailer.TemplateDailyDigest,
		Data: mailer.DigestData{
			OwnerName: user.DisplayName(),
			Tasks:     items,
		},
	})
}

func (s *Service) recordDigest(ctx context.Context, user *domain.User, outcome events.Outcome, messageID, reason string) {
	s.metrics.ObserveDigest(string(outcome))

	ev := events.NewReminderEvent(events.KindDigest, outcome)
	ev.UserID = user.ID
	ev.MessageID = messageID
	ev.Reason = reason
	if err := s.events.EmitEvent(ctx, ev); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to emit digest event",
			slog.String("event_id", ev.ID.String()),
			slog.String("error", err.Error()))
	}
}
