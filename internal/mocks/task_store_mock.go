package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmaster-api/internal/domain"
	"github.com/phrazzld/taskmaster-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// TestifyMockTaskStore is a mock of store.TaskStore interface for use with testify/mock
type TestifyMockTaskStore struct {
	mock.Mock
}

var _ store.TaskStore = (*TestifyMockTaskStore)(nil)

func (m *TestifyMockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *TestifyMockTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	args := m.Called(ctx, id)
	if task, ok := args.Get(0).(*domain.Task); ok {
		return task, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TestifyMockTaskStore) FindTasksDueInWindow(ctx context.Context, q store.WindowQuery) ([]*domain.Task, error) {
	args := m.Called(ctx, q)
	if tasks, ok := args.Get(0).([]*domain.Task); ok {
		return tasks, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TestifyMockTaskStore) MarkReminderSent(ctx context.Context, taskID uuid.UUID, tier domain.ReminderTier) error {
	return m.Called(ctx, taskID, tier).Error(0)
}

func (m *TestifyMockTaskStore) RecordReminderFailure(ctx context.Context, taskID uuid.UUID, tier domain.ReminderTier) (int, error) {
	args := m.Called(ctx, taskID, tier)
	return args.Int(0), args.Error(1)
}

func (m *TestifyMockTaskStore) ListOpenTasksDueBefore(ctx context.Context, userID uuid.UUID, before time.Time) ([]*domain.Task, error) {
	args := m.Called(ctx, userID, before)
	if tasks, ok := args.Get(0).([]*domain.Task); ok {
		return tasks, args.Error(1)
	}
	return nil, args.Error(1)
}
