package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskmaster-api/internal/api/shared"
	"github.com/phrazzld/taskmaster-api/internal/domain"
	"github.com/phrazzld/taskmaster-api/internal/platform/logger"
	"github.com/phrazzld/taskmaster-api/internal/service/notification"
)

// ManualChecker runs a reminder scan on demand. *scheduler.Scheduler
// implements it.
type ManualChecker interface {
	TriggerManualCheck(ctx context.Context) (notification.Summary, error)
}

// CheckResponse is the body of POST /api/notifications/check.
type CheckResponse struct {
	Success    bool   `json:"success"`
	SentCount  int    `json:"sent_count"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// TaskReminderResponse is the body of POST /api/notifications/tasks/{id}.
type TaskReminderResponse struct {
	Sent      bool                `json:"sent"`
	Tier      domain.ReminderTier `json:"tier"`
	MessageID string              `json:"message_id,omitempty"`
}

// NoticeResponse is the body of the completion and test email endpoints.
type NoticeResponse struct {
	Sent      bool   `json:"sent"`
	MessageID string `json:"message_id,omitempty"`
}

// TestEmailRequest is the body of POST /api/notifications/test.
type TestEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// NotificationHandler serves the manual notification endpoints.
type NotificationHandler struct {
	checker   ManualChecker
	reminders notification.TaskReminderSender
	notices   notification.NoticeSender
	logger    *slog.Logger
}

// NewNotificationHandler creates a NotificationHandler.
func NewNotificationHandler(
	checker ManualChecker,
	reminders notification.TaskReminderSender,
	notices notification.NoticeSender,
	logger *slog.Logger,
) *NotificationHandler {
	if checker == nil {
		panic("checker cannot be nil")
	}
	if reminders == nil {
		panic("reminders cannot be nil")
	}
	if notices == nil {
		panic("notices cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationHandler{
		checker:   checker,
		reminders: reminders,
		notices:   notices,
		logger:    logger.With(slog.String("component", "notification_handler")),
	}
}

// CheckNotifications handles POST /api/notifications/check. It runs one scan
// synchronously: 200 with the counts, 409 if a scan is running or 500 if
// the scan could not query tasks.
func (h *NotificationHandler) CheckNotifications(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	summary, err := h.checker.TriggerManualCheck(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to run reminder scan")
		return
	}

	resp := CheckResponse{
		Success:    summary.Success,
		SentCount:  summary.SentCount,
		Skipped:    summary.Skipped,
		Failed:     summary.Failed,
		DurationMS: summary.Duration.Milliseconds(),
	}
	status := http.StatusOK
	if !summary.Success {
		status = http.StatusInternalServerError
		resp.Error = "Reminder scan failed"
		log.Error("manual reminder scan failed", slog.String("error", summary.Error))
	} else {
		log.Info("manual reminder scan completed", slog.Int("sent", summary.SentCount))
	}

	shared.RespondWithJSON(w, r, status, resp)
}

// SendTaskNotification handles POST /api/notifications/tasks/{id}.
func (h *NotificationHandler) SendTaskNotification(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	taskID, err := getPathUUID(r, "id")
	if err != nil {
		log.Warn("invalid task id", slog.String("value", r.URL.Path))
		HandleAPIError(w, r, err, "")
		return
	}

	outcome, err := h.reminders.SendTaskReminder(r.Context(), taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to send reminder")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskReminderResponse{
		Sent:      outcome.Sent,
		Tier:      outcome.Tier,
		MessageID: outcome.MessageID,
	})
}

// SendCompletionNotification handles POST /api/notifications/tasks/{id}/completion.
func (h *NotificationHandler) SendCompletionNotification(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	taskID, err := getPathUUID(r, "id")
	if err != nil {
		log.Warn("invalid task id", slog.String("value", r.URL.Path))
		HandleAPIError(w, r, err, "")
		return
	}

	outcome, err := h.notices.SendTaskCompletion(r.Context(), taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to send completion email")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NoticeResponse{Sent: outcome.Sent, MessageID: outcome.MessageID})
}

// SendTestNotification handles POST /api/notifications/test.
func (h *NotificationHandler) SendTestNotification(w http.ResponseWriter, r *http.Request) {
	var req TestEmailRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		HandleAPIError(w, r, fmt.Errorf("%w: %v", domain.ErrValidation, err), "")
		return
	}

	outcome, err := h.notices.SendTestEmail(r.Context(), req.Email)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to send test email")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NoticeResponse{Sent: outcome.Sent, MessageID: outcome.MessageID})
}
