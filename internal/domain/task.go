package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Priority is the urgency a user assigned to a task.
type Priority string

// Possible priority values.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// IsValid reports whether p is a known priority.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// TaskStatus represents the progress state of a task.
type TaskStatus string

// Possible task status values.
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// IsValid reports whether s is a known status.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// Validation errors for Task.
var (
	ErrEmptyTaskID      = fmt.Errorf("%w: task ID cannot be empty", ErrValidation)
	ErrEmptyTaskOwner   = fmt.Errorf("%w: task owner cannot be empty", ErrValidation)
	ErrEmptyTaskTitle   = fmt.Errorf("%w: task title cannot be empty", ErrValidation)
	ErrEmptyDueDate     = fmt.Errorf("%w: task due date is required", ErrValidation)
	ErrInvalidPriority  = fmt.Errorf("%w: invalid task priority", ErrValidation)
	ErrInvalidTaskState = fmt.Errorf("%w: invalid task status", ErrValidation)
)

// ReminderState records which reminder tiers were already dispatched for a
// task and how many sends failed per tier.
type ReminderState struct {
	SentTwentyFourHour     bool `json:"sent_twenty_four_hour" db:"sent_twenty_four_hour"`
	SentOneHour            bool `json:"sent_one_hour" db:"sent_one_hour"`
	TwentyFourHourAttempts int  `json:"twenty_four_hour_attempts" db:"twenty_four_hour_attempts"`
	OneHourAttempts        int  `json:"one_hour_attempts" db:"one_hour_attempts"`
}

// Sent reports whether the tier's reminder was already dispatched.
func (r ReminderState) Sent(tier ReminderTier) bool {
	switch tier {
	case TierOneHour:
		return r.SentOneHour
	case TierTwentyFourHour:
		return r.SentTwentyFourHour
	}
	return false
}

// Attempts returns the number of failed sends recorded for the tier.
func (r ReminderState) Attempts(tier ReminderTier) int {
	switch tier {
	case TierOneHour:
		return r.OneHourAttempts
	case TierTwentyFourHour:
		return r.TwentyFourHourAttempts
	}
	return 0
}

// Task is a unit of work owned by a user with a deadline.
// The reminder engine only reads tasks and patches their ReminderState.
type Task struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	DueDate     time.Time  `json:"due_date" db:"due_date"`
	Priority    Priority   `json:"priority" db:"priority"`
	Status      TaskStatus `json:"status" db:"status"`
	ReminderState
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewTask creates a pending, medium-priority task with fresh reminder flags.
// Returns an error if validation fails.
func NewTask(userID uuid.UUID, title, description string, dueDate time.Time) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		DueDate:     dueDate.UTC(),
		Priority:    PriorityMedium,
		Status:      TaskStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}
	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}
	if t.UserID == uuid.Nil {
		return ErrEmptyTaskOwner
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTaskTitle
	}
	if t.DueDate.IsZero() {
		return ErrEmptyDueDate
	}
	if !t.Priority.IsValid() {
		return ErrInvalidPriority
	}
	if !t.Status.IsValid() {
		return ErrInvalidTaskState
	}
	return nil
}

// IsCompleted reports whether the task no longer needs reminders.
func (t *Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}
