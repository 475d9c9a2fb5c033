package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskmaster-api/internal/domain"
	"github.com/phrazzld/taskmaster-api/internal/platform/logger"
	"github.com/phrazzld/taskmaster-api/internal/store"
)

const taskColumns = `id, user_id, title, description, due_date, priority, status,
	sent_twenty_four_hour, sent_one_hour, twenty_four_hour_attempts, one_hour_attempts,
	created_at, updated_at`

// reminderColumns returns the flag and attempt counter columns for a tier.
// Column names never come from user input.
func reminderColumns(tier domain.ReminderTier) (flag, attempts string, err error) {
	switch tier {
	case domain.TierOneHour:
		return "sent_one_hour", "one_hour_attempts", nil
	case domain.TierTwentyFourHour:
		return "sent_twenty_four_hour", "twenty_four_hour_attempts", nil
	}
	return "", "", fmt.Errorf("%w: %q", domain.ErrInvalidReminderTier, tier)
}

// TaskStore implements store.TaskStore on top of sqlx.
type TaskStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewTaskStore creates a TaskStore. If logger is nil, slog.Default is used.
func NewTaskStore(db *sqlx.DB, logger *slog.Logger) *TaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

var _ store.TaskStore = (*TaskStore)(nil)

// Create implements store.TaskStore.Create.
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := s.db.Rebind(`
		INSERT INTO tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		utc(task.DueDate),
		task.Priority,
		task.Status,
		task.SentTwentyFourHour,
		task.SentOneHour,
		task.TwentyFourHourAttempts,
		task.OneHourAttempts,
		utc(task.CreatedAt),
		utc(task.UpdatedAt),
	)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrInvalidEntity) {
			log.Warn("task rejected by database constraints",
				slog.String("error", err.Error()),
				slog.String("task_id", task.ID.String()),
				slog.String("user_id", task.UserID.String()))
			return store.NewStoreError("task", "create", "constraint violation", mapped)
		}
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return store.NewStoreError("task", "create", "insert failed", mapped)
	}

	log.Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", task.UserID.String()))
	return nil
}

// GetByID implements store.TaskStore.GetByID.
func (s *TaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	var task domain.Task
	query := s.db.Rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`)
	if err := sqlx.GetContext(ctx, s.db, &task, query, id); err != nil {
		if store.IsNotFoundError(MapError(err)) {
			return nil, store.ErrTaskNotFound
		}
		return nil, store.NewStoreError("task", "get", "query failed", MapError(err))
	}
	return &task, nil
}

// FindTasksDueInWindow implements store.TaskStore.FindTasksDueInWindow.
func (s *TaskStore) FindTasksDueInWindow(ctx context.Context, q store.WindowQuery) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	flag, attempts, err := reminderColumns(q.Tier)
	if err != nil {
		return nil, err
	}

	lower := "due_date > ?"
	if q.StartInclusive {
		lower = "due_date >= ?"
	}

	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE ` + lower + ` AND due_date <= ?
		AND status <> ?
		AND ` + flag + ` = FALSE`
	args := []any{utc(q.Start), utc(q.End), q.ExcludeStatus}

	if q.MaxAttempts > 0 {
		query += ` AND ` + attempts + ` < ?`
		args = append(args, q.MaxAttempts)
	}
	query += ` ORDER BY due_date ASC, id ASC`

	var tasks []*domain.Task
	if err := sqlx.SelectContext(ctx, s.db, &tasks, s.db.Rebind(query), args...); err != nil {
		log.Error("failed to query tasks in reminder window",
			slog.String("tier", string(q.Tier)),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "find_in_window", "query failed", MapError(err))
	}

	log.Debug("tasks selected for reminder window",
		slog.String("tier", string(q.Tier)),
		slog.Time("start", q.Start),
		slog.Time("end", q.End),
		slog.Int("count", len(tasks)))
	return tasks, nil
}

// MarkReminderSent implements store.TaskStore.MarkReminderSent.
func (s *TaskStore) MarkReminderSent(ctx context.Context, taskID uuid.UUID, tier domain.ReminderTier) error {
	flag, _, err := reminderColumns(tier)
	if err != nil {
		return err
	}

	query := s.db.Rebind(`UPDATE tasks SET ` + flag + ` = TRUE, updated_at = ? WHERE id = ?`)
	result, err := s.db.ExecContext(ctx, query, utc(time.Now()), taskID)
	if err != nil {
		return store.NewStoreError("task", "mark_sent", "update failed", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// RecordReminderFailure implements store.TaskStore.RecordReminderFailure.
// The increment and the read of the new value run in one transaction.
func (s *TaskStore) RecordReminderFailure(ctx context.Context, taskID uuid.UUID, tier domain.ReminderTier) (int, error) {
	_, column, err := reminderColumns(tier)
	if err != nil {
		return 0, err
	}

	var attempts int
	err = RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		update := tx.Rebind(`UPDATE tasks SET ` + column + ` = ` + column + ` + 1, updated_at = ? WHERE id = ?`)
		result, err := tx.ExecContext(ctx, update, utc(time.Now()), taskID)
		if err != nil {
			return store.NewStoreError("task", "record_failure", "update failed", MapError(err))
		}
		if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
			return err
		}
		return sqlx.GetContext(ctx, tx, &attempts, tx.Rebind(`SELECT `+column+` FROM tasks WHERE id = ?`), taskID)
	})
	if err != nil {
		return 0, err
	}
	return attempts, nil
}

// ListOpenTasksDueBefore implements store.TaskStore.ListOpenTasksDueBefore.
func (s *TaskStore) ListOpenTasksDueBefore(ctx context.Context, userID uuid.UUID, before time.Time) ([]*domain.Task, error) {
	query := s.db.Rebind(`SELECT ` + taskColumns + ` FROM tasks
		WHERE user_id = ? AND status <> ? AND due_date <= ?
		ORDER BY due_date ASC, id ASC`)

	var tasks []*domain.Task
	if err := sqlx.SelectContext(ctx, s.db, &tasks, query, userID, domain.TaskStatusCompleted, utc(before)); err != nil {
		return nil, store.NewStoreError("task", "list_open", "query failed", MapError(err))
	}
	return tasks, nil
}
