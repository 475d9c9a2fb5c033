package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskmaster-api/internal/domain"
	"github.com/phrazzld/taskmaster-api/internal/platform/logger"
	"github.com/phrazzld/taskmaster-api/internal/store"
	"golang.org/x/crypto/bcrypt"
)

const userColumns = `id, name, email, hashed_password,
	email_notifications, task_reminders, daily_digest, created_at, updated_at`

// UserStore implements store.UserStore on top of sqlx.
type UserStore struct {
	db         *sqlx.DB
	logger     *slog.Logger
	bcryptCost int
}

// NewUserStore creates a UserStore. If logger is nil, slog.Default is used.
func NewUserStore(db *sqlx.DB, logger *slog.Logger) *UserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserStore{
		db:         db,
		logger:     logger.With(slog.String("component", "user_store")),
		bcryptCost: bcrypt.DefaultCost,
	}
}

// WithBcryptCost returns a copy of the store hashing with the given cost.
// Tests use bcrypt.MinCost to stay fast.
func (s *UserStore) WithBcryptCost(cost int) *UserStore {
	clone := *s
	clone.bcryptCost = cost
	return &clone
}

var _ store.UserStore = (*UserStore)(nil)

// Create implements store.UserStore.Create.
// The plaintext password is hashed and cleared from the user on success.
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if err := user.Validate(); err != nil {
		log.Warn("user validation failed during create",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return err
	}
	if user.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), s.bcryptCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		user.HashedPassword = string(hashed)
	}

	query := s.db.Rebind(`
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.HashedPassword,
		user.EmailNotifications,
		user.TaskReminders,
		user.DailyDigest,
		utc(user.CreatedAt),
		utc(user.UpdatedAt),
	)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrDuplicate) {
			log.Warn("attempt to create user with existing email",
				slog.String("user_id", user.ID.String()))
			return store.ErrEmailExists
		}
		log.Error("failed to create user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return store.NewStoreError("user", "create", "insert failed", mapped)
	}

	user.Password = ""
	log.Info("user created", slog.String("user_id", user.ID.String()))
	return nil
}

// GetByID implements store.UserStore.GetByID.
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	query := s.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	if err := sqlx.GetContext(ctx, s.db, &user, query, id); err != nil {
		if store.IsNotFoundError(MapError(err)) {
			return nil, store.ErrUserNotFound
		}
		return nil, store.NewStoreError("user", "get", "query failed", MapError(err))
	}
	return &user, nil
}

// ListDigestRecipients implements store.UserStore.ListDigestRecipients.
func (s *UserStore) ListDigestRecipients(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE email_notifications = TRUE AND daily_digest = TRUE
		ORDER BY created_at ASC, id ASC`

	var users []*domain.User
	if err := sqlx.SelectContext(ctx, s.db, &users, query); err != nil {
		return nil, store.NewStoreError("user", "list_digest", "query failed", MapError(err))
	}
	return users, nil
}
