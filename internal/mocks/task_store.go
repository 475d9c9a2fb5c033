package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmaster-api/internal/domain"
	"github.com/phrazzld/taskmaster-api/internal/store"
)

// MockTaskStore is an in-memory store.TaskStore. It applies WindowQuery the
// same way the SQL store does.
type MockTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task

	// FindFn, when set, replaces FindTasksDueInWindow.
	FindFn func(ctx context.Context, q store.WindowQuery) ([]*domain.Task, error)
	// FindErrForTier makes FindTasksDueInWindow fail for one tier.
	FindErrForTier map[domain.ReminderTier]error
	// MarkErr and FailureErr make the corresponding writes fail.
	MarkErr    error
	FailureErr error
	// ListErr makes ListOpenTasksDueBefore fail.
	ListErr error

	// Queries records every window query received.
	Queries []store.WindowQuery
	// MarkCalls counts MarkReminderSent calls that reached the data.
	MarkCalls int
}

// NewMockTaskStore creates an empty store.
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// Add stores a copy of each task.
func (m *MockTaskStore) Add(tasks ...*domain.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range tasks {
		c := *t
		m.tasks[t.ID] = &c
	}
}

// Get returns a copy of the stored task, or nil.
func (m *MockTaskStore) Get(id uuid.UUID) *domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil
	}
	c := *t
	return &c
}

// Create implements store.TaskStore.
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	m.Add(task)
	return nil
}

// GetByID implements store.TaskStore.
func (m *MockTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	if t := m.Get(id); t != nil {
		return t, nil
	}
	return nil, store.ErrTaskNotFound
}

// FindTasksDueInWindow implements store.TaskStore.
func (m *MockTaskStore) FindTasksDueInWindow(ctx context.Context, q store.WindowQuery) ([]*domain.Task, error) {
	m.mu.Lock()
	m.Queries = append(m.Queries, q)
	m.mu.Unlock()

	if m.FindFn != nil {
		return m.FindFn(ctx, q)
	}
	if err := m.FindErrForTier[q.Tier]; err != nil {
		return nil, err
	}

	window := domain.ReminderWindow{Tier: q.Tier, Start: q.Start, End: q.End, StartInclusive: q.StartInclusive}

	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Task
	for _, t := range m.tasks {
		if !window.Contains(t.DueDate) || t.Status == q.ExcludeStatus || t.Sent(q.Tier) {
			continue
		}
		if q.MaxAttempts > 0 && t.Attempts(q.Tier) >= q.MaxAttempts {
			continue
		}
		c := *t
		out = append(out, &c)
	}
	sortTasks(out)
	return out, nil
}

// MarkReminderSent implements store.TaskStore.
func (m *MockTaskStore) MarkReminderSent(ctx context.Context, taskID uuid.UUID, tier domain.ReminderTier) error {
	if m.MarkErr != nil {
		return m.MarkErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok {
		return store.ErrTaskNotFound
	}
	m.MarkCalls++
	switch tier {
	case domain.TierOneHour:
		t.SentOneHour = true
	case domain.TierTwentyFourHour:
		t.SentTwentyFourHour = true
	default:
		return domain.ErrInvalidReminderTier
	}
	return nil
}

// RecordReminderFailure implements store.TaskStore.
func (m *MockTaskStore) RecordReminderFailure(ctx context.Context, taskID uuid.UUID, tier domain.ReminderTier) (int, error) {
	if m.FailureErr != nil {
		return 0, m.FailureErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok {
		return 0, store.ErrTaskNotFound
	}
	switch tier {
	case domain.TierOneHour:
		t.OneHourAttempts++
		return t.OneHourAttempts, nil
	case domain.TierTwentyFourHour:
		t.TwentyFourHourAttempts++
		return t.TwentyFourHourAttempts, nil
	}
	return 0, domain.ErrInvalidReminderTier
}

// ListOpenTasksDueBefore implements store.TaskStore.
func (m *MockTaskStore) ListOpenTasksDueBefore(ctx context.Context, userID uuid.UUID, before time.Time) ([]*domain.Task, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Task
	for _, t := range m.tasks {
		if t.UserID != userID || t.IsCompleted() || t.DueDate.After(before) {
			continue
		}
		c := *t
		out = append(out, &c)
	}
	sortTasks(out)
	return out, nil
}

func sortTasks(ts []*domain.Task) {
	sort.Slice(ts, func(i, j int) bool {
		if !ts[i].DueDate.Equal(ts[j].DueDate) {
			return ts[i].DueDate.Before(ts[j].DueDate)
		}
		return ts[i].ID.String() < ts[j].ID.String()
	})
}
