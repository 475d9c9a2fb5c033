// Package notification implements the reminder engine: the periodic scan
// that emails task owners as deadlines approach, the manual per-task
// reminder, the daily digest and one-off notices such as the task
// completion email.
package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmaster-api/internal/domain"
)

// Errors returned by SendTaskReminder.
var (
	// ErrTaskNotDue means the task's due date is in neither reminder window.
	ErrTaskNotDue = errors.New("task is not due for a reminder")

	// ErrTaskCompleted means the task no longer needs reminders.
	ErrTaskCompleted = errors.New("task is completed")

	// ErrAlreadySent means the reminder for the task's current tier went out already.
	ErrAlreadySent = errors.New("reminder already sent for this tier")

	// ErrRemindersDisabled means the owner's preferences forbid reminder emails.
	ErrRemindersDisabled = errors.New("owner has task reminders disabled")

	// ErrSendFailed wraps a mailer failure.
	ErrSendFailed = errors.New("reminder delivery failed")
)

// Errors returned by SendTaskCompletion.
var (
	// ErrTaskNotCompleted means the task has not been marked completed.
	ErrTaskNotCompleted = errors.New("task is not completed")

	// ErrNotificationsDisabled means the owner turned off all email.
	ErrNotificationsDisabled = errors.New("owner has email notifications disabled")
)

// Summary is the result of one reminder scan. Success is false only when a
// window query failed; individual send failures are counted in Failed.
type Summary struct {
	Success   bool          `json:"success"`
	SentCount int           `json:"sent_count"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"-"`
}

// DigestSummary is the result of one daily digest run.
type DigestSummary struct {
	Success   bool          `json:"success"`
	SentCount int           `json:"sent_count"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"-"`
}

// Outcome is the result of a single on-demand send. Tier is empty for
// notices that are not reminders.
type Outcome struct {
	Sent      bool                `json:"sent"`
	Tier      domain.ReminderTier `json:"tier,omitempty"`
	MessageID string              `json:"message_id,omitempty"`
}

// Scanner runs reminder scans.
type Scanner interface {
	ScanAndNotify(ctx context.Context) Summary
}

// Digester sends the daily digest.
type Digester interface {
	SendDailyDigest(ctx context.Context) DigestSummary
}

// TaskReminderSender sends the reminder for a single task on demand.
type TaskReminderSender interface {
	SendTaskReminder(ctx context.Context, taskID uuid.UUID) (Outcome, error)
}

// NoticeSender sends emails that never touch reminder state.
type NoticeSender interface {
	SendTaskCompletion(ctx context.Context, taskID uuid.UUID) (Outcome, error)
	SendTestEmail(ctx context.Context, to string) (Outcome, error)
}

// Recorder receives one observation per reminder, digest or notice decision.
// *metrics.Metrics implements it.
type Recorder interface {
	ObserveReminder(tier, outcome string)
	ObserveDigest(outcome string)
	ObserveNotice(kind, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveReminder(string, string) {}
func (nopRecorder) ObserveDigest(string)           {}
func (nopRecorder) ObserveNotice(string, string)   {}
