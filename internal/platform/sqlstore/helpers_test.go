package sqlstore_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskmaster-api/internal/config"
	"github.com/phrazzld/taskmaster-api/internal/domain"
	"github.com/phrazzld/taskmaster-api/internal/platform/logger"
	"github.com/phrazzld/taskmaster-api/internal/platform/sqlstore"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// openSQLite returns a migrated database in a fresh temporary file.
func openSQLite(t *testing.T) *sqlx.DB {
	t.Helper()

	ctx := context.Background()
	db, err := sqlstore.Open(ctx, config.DatabaseConfig{
		Driver: sqlstore.DriverSQLite,
		URL:    filepath.Join(t.TempDir(), "taskmaster.db"),
	}, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, sqlstore.Migrate(ctx, db, logger.Discard()))
	return db
}

func newStores(t *testing.T, db *sqlx.DB) (*sqlstore.TaskStore, *sqlstore.UserStore) {
	t.Helper()
	return sqlstore.NewTaskStore(db, logger.Discard()),
		sqlstore.NewUserStore(db, logger.Discard()).WithBcryptCost(bcrypt.MinCost)
}

func createUser(t *testing.T, users *sqlstore.UserStore, mutate func(*domain.User)) *domain.User {
	t.Helper()

	user, err := domain.NewUser("Test User", uuid.NewString()+"@example.com", "a-long-enough-password")
	require.NoError(t, err)
	if mutate != nil {
		mutate(user)
	}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func createTask(t *testing.T, tasks *sqlstore.TaskStore, owner uuid.UUID, due time.Time, mutate func(*domain.Task)) *domain.Task {
	t.Helper()

	task, err := domain.NewTask(owner, "Task due "+due.Format(time.RFC3339), "", due)
	require.NoError(t, err)
	if mutate != nil {
		mutate(task)
	}
	require.NoError(t, tasks.Create(context.Background(), task))
	return task
}

func taskIDs(ts []*domain.Task) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(ts))
	for _, t := range ts {
		ids = append(ids, t.ID)
	}
	return ids
}
