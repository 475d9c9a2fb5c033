package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmaster-api/internal/domain"
)

// WindowQuery selects tasks whose due date falls inside a reminder window.
type WindowQuery struct {
	// Start and End bound the due date. End is inclusive.
	Start time.Time
	End   time.Time
	// StartInclusive selects due_date >= Start instead of due_date > Start.
	StartInclusive bool
	// ExcludeStatus drops tasks in this status (normally completed).
	ExcludeStatus domain.TaskStatus
	// Tier restricts the result to tasks whose flag for this tier is false.
	Tier domain.ReminderTier
	// MaxAttempts, when positive, drops tasks whose failed attempt counter
	// for Tier reached the limit.
	MaxAttempts int
}

// WindowQueryFor builds the standard query for one reminder window.
func WindowQueryFor(w domain.ReminderWindow, maxAttempts int) WindowQuery {
	return WindowQuery{
		Start:          w.Start,
		End:            w.End,
		StartInclusive: w.StartInclusive,
		ExcludeStatus:  domain.TaskStatusCompleted,
		Tier:           w.Tier,
		MaxAttempts:    maxAttempts,
	}
}

// TaskStore defines the interface for task persistence used by the
// reminder engine.
type TaskStore interface {
	// Create saves a new task to the store.
	// Returns validation errors from the domain Task if data is invalid.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// FindTasksDueInWindow returns the tasks matching q ordered by due date.
	FindTasksDueInWindow(ctx context.Context, q WindowQuery) ([]*domain.Task, error)

	// MarkReminderSent sets the flag for tier on the task. Setting an
	// already set flag is not an error.
	// Returns ErrTaskNotFound if the task does not exist.
	MarkReminderSent(ctx context.Context, taskID uuid.UUID, tier domain.ReminderTier) error

	// RecordReminderFailure increments the failed attempt counter for tier
	// and returns the new value.
	// Returns ErrTaskNotFound if the task does not exist.
	RecordReminderFailure(ctx context.Context, taskID uuid.UUID, tier domain.ReminderTier) (int, error)

	// ListOpenTasksDueBefore returns the user's tasks that are not completed
	// and due at or before the given time, ordered by due date. Overdue
	// tasks are included.
	ListOpenTasksDueBefore(ctx context.Context, userID uuid.UUID, before time.Time) ([]*domain.Task, error)
}
