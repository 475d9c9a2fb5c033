package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskmaster-api/internal/domain"
	"github.com/phrazzld/taskmaster-api/internal/platform/logger"
	"github.com/phrazzld/taskmaster-api/internal/scheduler"
	"github.com/phrazzld/taskmaster-api/internal/service/notification"
	"github.com/phrazzld/taskmaster-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	summary notification.Summary
	err     error
}

func (s stubChecker) TriggerManualCheck(context.Context) (notification.Summary, error) {
	return s.summary, s.err
}

// stubSender answers every send with the same outcome and error.
type stubSender struct {
	outcome  notification.Outcome
	err      error
	gotID    uuid.UUID
	gotEmail string
	calls    int
}

func (s *stubSender) SendTaskReminder(_ context.Context, id uuid.UUID) (notification.Outcome, error) {
	s.gotID = id
	s.calls++
	return s.outcome, s.err
}

func (s *stubSender) SendTaskCompletion(_ context.Context, id uuid.UUID) (notification.Outcome, error) {
	s.gotID = id
	s.calls++
	return s.outcome, s.err
}

func (s *stubSender) SendTestEmail(_ context.Context, to string) (notification.Outcome, error) {
	s.gotEmail = to
	s.calls++
	return s.outcome, s.err
}

func newTestRouter(h *NotificationHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/notifications/check", h.CheckNotifications)
	r.Post("/api/notifications/test", h.SendTestNotification)
	r.Post("/api/notifications/tasks/{id}", h.SendTaskNotification)
	r.Post("/api/notifications/tasks/{id}/completion", h.SendCompletionNotification)
	return r
}

func TestCheckNotifications(t *testing.T) {
	tests := []struct {
		name       string
		checker    stubChecker
		wantStatus int
		wantBody   CheckResponse
	}{
		{
			name: "success",
			checker: stubChecker{summary: notification.Summary{
				Success: true, SentCount: 2, Skipped: 1, Failed: 1, Duration: 1500 * time.Millisecond,
			}},
			wantStatus: http.StatusOK,
			wantBody:   CheckResponse{Success: true, SentCount: 2, Skipped: 1, Failed: 1, DurationMS: 1500},
		},
		{
			name:       "scan failed",
			checker:    stubChecker{summary: notification.Summary{Success: false, Error: "query one_hour window: conn refused"}},
			wantStatus: http.StatusInternalServerError,
			wantBody:   CheckResponse{Success: false, Error: "Reminder scan failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewNotificationHandler(tt.checker, &stubSender{}, &stubSender{}, logger.Discard())
			rec := httptest.NewRecorder()

			newTestRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/notifications/check", nil))

			require.Equal(t, tt.wantStatus, rec.Code)
			var got CheckResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tt.wantBody, got)
		})
	}
}

func TestCheckNotifications_ScanInProgress(t *testing.T) {
	h := NewNotificationHandler(stubChecker{err: scheduler.ErrScanInProgress}, &stubSender{}, &stubSender{}, logger.Discard())
	rec := httptest.NewRecorder()

	newTestRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/notifications/check", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already running")
}

func TestSendTaskNotification(t *testing.T) {
	taskID := uuid.New()

	tests := []struct {
		name       string
		path       string
		sender     *stubSender
		wantStatus int
	}{
		{
			name: "sent",
			path: "/api/notifications/tasks/" + taskID.String(),
			sender: &stubSender{outcome: notification.Outcome{
				Sent: true, Tier: domain.TierOneHour, MessageID: "abc@example.com",
			}},
			wantStatus: http.StatusOK,
		},
		{name: "bad id", path: "/api/notifications/tasks/not-a-uuid", sender: &stubSender{}, wantStatus: http.StatusBadRequest},
		{name: "nil id", path: "/api/notifications/tasks/" + uuid.Nil.String(), sender: &stubSender{}, wantStatus: http.StatusBadRequest},
		{
			name:       "unknown task",
			path:       "/api/notifications/tasks/" + taskID.String(),
			sender:     &stubSender{err: store.ErrTaskNotFound},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "not due",
			path:       "/api/notifications/tasks/" + taskID.String(),
			sender:     &stubSender{err: notification.ErrTaskNotDue},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "already sent",
			path:       "/api/notifications/tasks/" + taskID.String(),
			sender:     &stubSender{err: notification.ErrAlreadySent},
			wantStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewNotificationHandler(stubChecker{}, tt.sender, &stubSender{}, logger.Discard())
			rec := httptest.NewRecorder()

			newTestRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}

	t.Run("response body", func(t *testing.T) {
		sender := &stubSender{outcome: notification.Outcome{Sent: true, Tier: domain.TierTwentyFourHour, MessageID: "m1"}}
		h := NewNotificationHandler(stubChecker{}, sender, &stubSender{}, logger.Discard())
		rec := httptest.NewRecorder()

		newTestRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/notifications/tasks/"+taskID.String(), nil))

		assert.Equal(t, taskID, sender.gotID)
		assert.JSONEq(t, `{"sent":true,"tier":"twenty_four_hour","message_id":"m1"}`, rec.Body.String())
	})
}

func TestSendCompletionNotification(t *testing.T) {
	taskID := uuid.New()
	path := "/api/notifications/tasks/" + taskID.String() + "/completion"

	tests := []struct {
		name       string
		path       string
		sender     *stubSender
		wantStatus int
	}{
		{name: "sent", path: path, sender: &stubSender{outcome: notification.Outcome{Sent: true, MessageID: "m2"}}, wantStatus: http.StatusOK},
		{name: "bad id", path: "/api/notifications/tasks/xyz/completion", sender: &stubSender{}, wantStatus: http.StatusBadRequest},
		{name: "unknown task", path: path, sender: &stubSender{err: store.ErrTaskNotFound}, wantStatus: http.StatusNotFound},
		{name: "not completed", path: path, sender: &stubSender{err: notification.ErrTaskNotCompleted}, wantStatus: http.StatusConflict},
		{name: "email off", path: path, sender: &stubSender{err: notification.ErrNotificationsDisabled}, wantStatus: http.StatusConflict},
		{name: "relay down", path: path, sender: &stubSender{err: notification.ErrSendFailed}, wantStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reminders := &stubSender{}
			h := NewNotificationHandler(stubChecker{}, reminders, tt.sender, logger.Discard())
			rec := httptest.NewRecorder()

			newTestRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Zero(t, reminders.calls)
		})
	}

	t.Run("response body", func(t *testing.T) {
		notices := &stubSender{outcome: notification.Outcome{Sent: true, MessageID: "m2"}}
		h := NewNotificationHandler(stubChecker{}, &stubSender{}, notices, logger.Discard())
		rec := httptest.NewRecorder()

		newTestRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))

		assert.Equal(t, taskID, notices.gotID)
		assert.JSONEq(t, `{"sent":true,"message_id":"m2"}`, rec.Body.String())
	})
}

func TestSendTestNotification(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		sender     *stubSender
		wantStatus int
		wantCalls  int
	}{
		{name: "sent", body: `{"email":"ops@example.com"}`, sender: &stubSender{outcome: notification.Outcome{Sent: true}}, wantStatus: http.StatusOK, wantCalls: 1},
		{name: "malformed", body: `{"email":`, sender: &stubSender{}, wantStatus: http.StatusBadRequest},
		{name: "missing email", body: `{}`, sender: &stubSender{}, wantStatus: http.StatusBadRequest},
		{name: "bad email", body: `{"email":"nope"}`, sender: &stubSender{}, wantStatus: http.StatusBadRequest},
		{name: "relay down", body: `{"email":"ops@example.com"}`, sender: &stubSender{err: notification.ErrSendFailed}, wantStatus: http.StatusBadGateway, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewNotificationHandler(stubChecker{}, &stubSender{}, tt.sender, logger.Discard())
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/notifications/test", strings.NewReader(tt.body))

			newTestRouter(h).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalls, tt.sender.calls)
			if tt.wantCalls > 0 {
				assert.Equal(t, "ops@example.com", tt.sender.gotEmail)
			}
		})
	}
}

func TestNewNotificationHandler_Panics(t *testing.T) {
	assert.Panics(t, func() { NewNotificationHandler(nil, &stubSender{}, &stubSender{}, nil) })
	assert.Panics(t, func() { NewNotificationHandler(stubChecker{}, nil, &stubSender{}, nil) })
	assert.Panics(t, func() { NewNotificationHandler(stubChecker{}, &stubSender{}, nil, nil) })
}
