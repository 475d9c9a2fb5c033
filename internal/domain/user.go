package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Validation errors for User.
var (
	ErrEmptyUserID      = fmt.Errorf("%w: user ID cannot be empty", ErrValidation)
	ErrEmptyEmail       = fmt.Errorf("%w: email cannot be empty", ErrValidation)
	ErrInvalidEmail     = fmt.Errorf("%w: invalid email format", ErrValidation)
	ErrPasswordTooShort = fmt.Errorf("%w: password must be at least 12 characters long", ErrValidation)
	ErrPasswordTooLong  = fmt.Errorf("%w: password must be at most 72 characters long", ErrValidation)
	ErrEmptyPassword    = fmt.Errorf("%w: password cannot be empty", ErrValidation)
)

var emailValidator = validator.New()

// NotificationPreferences are the switches consulted before any email is sent.
// EmailNotifications is the master switch.
type NotificationPreferences struct {
	EmailNotifications bool `json:"email_notifications" db:"email_notifications"`
	TaskReminders      bool `json:"task_reminders" db:"task_reminders"`
	DailyDigest        bool `json:"daily_digest" db:"daily_digest"`
}

// DefaultNotificationPreferences enables everything, matching new registrations.
func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{EmailNotifications: true, TaskReminders: true, DailyDigest: true}
}

// User represents a registered user who owns tasks.
type User struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Email          string    `json:"email" db:"email"`
	Password       string    `json:"-" db:"-"` // plaintext, only set during registration
	HashedPassword string    `json:"-" db:"hashed_password"`
	NotificationPreferences
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewUser creates a new User with default preferences.
// The caller is responsible for hashing the password before storing the user.
func NewUser(name, email, password string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:                      uuid.New(),
		Name:                    strings.TrimSpace(name),
		Email:                   strings.TrimSpace(email),
		Password:                password,
		NotificationPreferences: DefaultNotificationPreferences(),
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}
	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}
	if u.Email == "" {
		return ErrEmptyEmail
	}
	if err := emailValidator.Var(u.Email, "email"); err != nil {
		return ErrInvalidEmail
	}

	if u.Password != "" {
		switch {
		case len(u.Password) < 12:
			return ErrPasswordTooShort
		case len(u.Password) > 72:
			return ErrPasswordTooLong
		}
	} else if u.HashedPassword == "" {
		return ErrEmptyPassword
	}
	return nil
}

// WantsReminders reports whether task reminder emails may be sent to the user.
func (u *User) WantsReminders() bool {
	return u.EmailNotifications && u.TaskReminders
}

// WantsDigest reports whether the daily digest may be sent to the user.
func (u *User) WantsDigest() bool {
	return u.EmailNotifications && u.DailyDigest
}

// DisplayName is the name used in email greetings.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if at := strings.IndexByte(u.Email, '@'); at > 0 {
		return u.Email[:at]
	}
	return u.Email
}
