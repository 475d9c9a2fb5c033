package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmaster-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user to the store.
	// It validates the user and hashes the plaintext Password before insert.
	// Returns ErrEmailExists if the email is already taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// ListDigestRecipients returns every user whose preferences allow the
	// daily digest, ordered by creation time.
	ListDigestRecipients(ctx context.Context) ([]*domain.User, error)
}
