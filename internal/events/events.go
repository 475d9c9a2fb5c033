package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Outcome is the result of one reminder decision.
type Outcome string

// Reminder outcomes.
const (
	OutcomeSent         Outcome = "sent"
	OutcomeFailed       Outcome = "failed"
	OutcomeDeadLettered Outcome = "dead_lettered"
	OutcomeSkipped      Outcome = "skipped"
)

// ReminderEvent describes what happened to one task for one tier.
type ReminderEvent struct {
	ID         uuid.UUID `json:"id"`
	Outcome    Outcome   `json:"outcome"`
	Kind       string    `json:"kind"`
	TaskID     uuid.UUID `json:"task_id,omitempty"`
	UserID     uuid.UUID `json:"user_id,omitempty"`
	Tier       string    `json:"tier,omitempty"`
	Attempts   int       `json:"attempts,omitempty"`
	MessageID  string    `json:"message_id,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Event kinds.
const (
	KindReminder   = "reminder"
	KindDigest     = "digest"
	KindCompletion = "completion"
	KindTest       = "test"
)

// NewReminderEvent creates an event with a fresh ID and timestamp.
func NewReminderEvent(kind string, outcome Outcome) *ReminderEvent {
	return &ReminderEvent{
		ID:         uuid.New(),
		Outcome:    outcome,
		Kind:       kind,
		OccurredAt: time.Now().UTC(),
	}
}

// Marshal encodes the event as JSON.
func (e *ReminderEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *ReminderEvent) error
}

// EventEmitter defines an interface for components that can emit events.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *ReminderEvent) error
}

// NopEmitter discards every event.
type NopEmitter struct{}

// EmitEvent implements EventEmitter.
func (NopEmitter) EmitEvent(context.Context, *ReminderEvent) error { return nil }
