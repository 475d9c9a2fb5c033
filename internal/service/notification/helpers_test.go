package notification_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmaster-api/internal/domain"
	"github.com/phrazzld/taskmaster-api/internal/events"
	"github.com/phrazzld/taskmaster-api/internal/mocks"
	"github.com/phrazzld/taskmaster-api/internal/platform/logger"
	"github.com/phrazzld/taskmaster-api/internal/service/notification"
)

var fixedNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

type harness struct {
	tasks    *mocks.MockTaskStore
	users    *mocks.MockUserStore
	mailer   *mocks.MockMailer
	recorder *recordingHandler
	metrics  *countingRecorder
	service  *notification.Service
}

func newHarness(t *testing.T, cfg notification.Config) *harness {
	t.Helper()

	h := &harness{
		tasks:    mocks.NewMockTaskStore(),
		users:    mocks.NewMockUserStore(),
		mailer:   &mocks.MockMailer{},
		recorder: &recordingHandler{},
		metrics:  &countingRecorder{reminders: map[string]int{}, digests: map[string]int{}, notices: map[string]int{}},
	}

	emitter := events.NewInMemoryEventEmitter(logger.Discard())
	emitter.RegisterHandler(h.recorder)

	h.service = notification.NewService(h.tasks, h.users, h.mailer, cfg, logger.Discard(),
		notification.WithClock(func() time.Time { return fixedNow }),
		notification.WithEmitter(emitter),
		notification.WithRecorder(h.metrics),
	)
	return h
}

func (h *harness) addUser(prefs domain.NotificationPreferences) *domain.User {
	u := &domain.User{
		ID:                      uuid.New(),
		Name:                    "Ada",
		Email:                   uuid.NewString()[:8] + "@example.com",
		HashedPassword:          "x",
		NotificationPreferences: prefs,
	}
	h.users.Add(u)
	return u
}

func (h *harness) addTask(owner uuid.UUID, title string, dueIn time.Duration) *domain.Task {
	task := &domain.Task{
		ID:       uuid.New(),
		UserID:   owner,
		Title:    title,
		DueDate:  fixedNow.Add(dueIn),
		Priority: domain.PriorityHigh,
		Status:   domain.TaskStatusPending,
	}
	h.tasks.Add(task)
	return task
}

type recordingHandler struct {
	mu     sync.Mutex
	events []*events.ReminderEvent
}

func (r *recordingHandler) HandleEvent(_ context.Context, ev *events.ReminderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingHandler) outcomes() []events.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Outcome, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Outcome)
	}
	return out
}

type countingRecorder struct {
	mu        sync.Mutex
	reminders map[string]int
	digests   map[string]int
	notices   map[string]int
}

func (c *countingRecorder) ObserveReminder(tier, outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reminders[tier+"/"+outcome]++
}

func (c *countingRecorder) ObserveDigest(outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.digests[outcome]++
}

func (c *countingRecorder) ObserveNotice(kind, outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices[kind+"/"+outcome]++
}
