package sqlstore_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmaster-api/internal/domain"
	"github.com/phrazzld/taskmaster-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUserStore_CreateHashesPassword(t *testing.T) {
	_, users := newStores(t, openSQLite(t))
	ctx := context.Background()

	user, err := domain.NewUser("Ada", "Ada@Example.com", "a-long-enough-password")
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, user))

	assert.Empty(t, user.Password, "plaintext password is cleared")

	got, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Email)
	assert.Equal(t, "Ada", got.Name)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(got.HashedPassword), []byte("a-long-enough-password")))
	assert.True(t, got.WantsReminders())
	assert.True(t, got.WantsDigest())
}

func TestUserStore_CreateDuplicateEmail(t *testing.T) {
	_, users := newStores(t, openSQLite(t))
	ctx := context.Background()

	first := createUser(t, users, nil)

	dup, err := domain.NewUser("Other", first.Email, "another-long-password")
	require.NoError(t, err)
	assert.ErrorIs(t, users.Create(ctx, dup), store.ErrEmailExists)
}

func TestUserStore_GetByIDNotFound(t *testing.T) {
	_, users := newStores(t, openSQLite(t))

	_, err := users.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrUserNotFound)
	assert.True(t, store.IsNotFoundError(err))
}

func TestUserStore_ListDigestRecipients(t *testing.T) {
	_, users := newStores(t, openSQLite(t))

	enabled := createUser(t, users, nil)
	createUser(t, users, func(u *domain.User) { u.DailyDigest = false })
	createUser(t, users, func(u *domain.User) { u.EmailNotifications = false })
	remindersOff := createUser(t, users, func(u *domain.User) { u.TaskReminders = false })

	got, err := users.ListDigestRecipients(context.Background())
	require.NoError(t, err)

	ids := make([]uuid.UUID, 0, len(got))
	for _, u := range got {
		ids = append(ids, u.ID)
	}
	assert.ElementsMatch(t, []uuid.UUID{enabled.ID, remindersOff.ID}, ids)
}
