package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/taskmaster-api/internal/domain"
	"github.com/phrazzld/taskmaster-api/internal/scheduler"
	"github.com/phrazzld/taskmaster-api/internal/service/auth"
	"github.com/phrazzld/taskmaster-api/internal/service/notification"
	"github.com/phrazzld/taskmaster-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedMsg    string
	}{
		{"nil error", nil, http.StatusInternalServerError, "An unexpected error occurred"},
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized, "Invalid token"},
		{"wrapped expired token", fmt.Errorf("validate: %w", auth.ErrExpiredToken), http.StatusUnauthorized, "Token expired"},
		{"task not found", store.ErrTaskNotFound, http.StatusNotFound, "Task not found"},
		{"user not found", fmt.Errorf("get owner: %w", store.ErrUserNotFound), http.StatusNotFound, "User not found"},
		{"bad id", fmt.Errorf("id: %w", domain.ErrInvalidID), http.StatusBadRequest, "Invalid ID format"},
		{"validation", domain.ErrEmptyTaskTitle, http.StatusBadRequest, "Invalid request data"},
		{"scan running", scheduler.ErrScanInProgress, http.StatusConflict, "A reminder scan is already running"},
		{"not due", notification.ErrTaskNotDue, http.StatusConflict, "Task is not due for a reminder"},
		{"completed", notification.ErrTaskCompleted, http.StatusConflict, "Task is already completed"},
		{"already sent", notification.ErrAlreadySent, http.StatusConflict, "Reminder already sent for this task"},
		{"disabled", notification.ErrRemindersDisabled, http.StatusConflict, "Task owner has reminders disabled"},
		{"not completed", notification.ErrTaskNotCompleted, http.StatusConflict, "Task is not completed"},
		{"email off", notification.ErrNotificationsDisabled, http.StatusConflict, "Task owner has email notifications disabled"},
		{"send failed", fmt.Errorf("%w: smtp 554", notification.ErrSendFailed), http.StatusBadGateway, "Failed to deliver email"},
		{"store unavailable", store.ErrUnavailable, http.StatusServiceUnavailable, "Service temporarily unavailable"},
		{"unknown", errors.New("pq: relation tasks does not exist"), http.StatusInternalServerError, "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedStatus, MapErrorToStatusCode(tt.err))
			assert.Equal(t, tt.expectedMsg, GetSafeErrorMessage(tt.err))
		})
	}
}

func TestHandleAPIError_NeverLeaksDetail(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/notifications/check", nil)
	rec := httptest.NewRecorder()

	HandleAPIError(rec, req, errors.New("password=hunter2 rejected by smtp.example.com"), "Failed to send reminder")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to send reminder")
	assert.NotContains(t, rec.Body.String(), "hunter2")
}
