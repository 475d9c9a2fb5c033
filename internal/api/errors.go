package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/taskmaster-api/internal/api/shared"
	"github.com/phrazzld/taskmaster-api/internal/domain"
	"github.com/phrazzld/taskmaster-api/internal/scheduler"
	"github.com/phrazzld/taskmaster-api/internal/service/auth"
	"github.com/phrazzld/taskmaster-api/internal/service/notification"
	"github.com/phrazzld/taskmaster-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Bad request errors
	case errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, scheduler.ErrScanInProgress),
		errors.Is(err, notification.ErrTaskNotDue),
		errors.Is(err, notification.ErrTaskCompleted),
		errors.Is(err, notification.ErrAlreadySent),
		errors.Is(err, notification.ErrRemindersDisabled),
		errors.Is(err, notification.ErrTaskNotCompleted),
		errors.Is(err, notification.ErrNotificationsDisabled),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Upstream failures
	case errors.Is(err, notification.ErrSendFailed):
		return http.StatusBadGateway
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid token"

	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID format"
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	case errors.Is(err, scheduler.ErrScanInProgress):
		return "A reminder scan is already running"
	case errors.Is(err, notification.ErrTaskNotDue):
		return "Task is not due for a reminder"
	case errors.Is(err, notification.ErrTaskCompleted):
		return "Task is already completed"
	case errors.Is(err, notification.ErrAlreadySent):
		return "Reminder already sent for this task"
	case errors.Is(err, notification.ErrRemindersDisabled):
		return "Task owner has reminders disabled"
	case errors.Is(err, notification.ErrTaskNotCompleted):
		return "Task is not completed"
	case errors.Is(err, notification.ErrNotificationsDisabled):
		return "Task owner has email notifications disabled"

	case errors.Is(err, notification.ErrSendFailed):
		return "Failed to deliver email"
	case errors.Is(err, store.ErrUnavailable):
		return "Service temporarily unavailable"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the status and safe message for err and logs the
// redacted detail. fallbackMsg, when set, replaces the safe message for
// errors that map to 500.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallbackMsg string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallbackMsg != "" {
		message = fallbackMsg
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
