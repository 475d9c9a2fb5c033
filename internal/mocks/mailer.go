package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/phrazzld/taskmaster-api/internal/platform/mailer"
)

// MockMailer records every message and can fail selected sends.
type MockMailer struct {
	mu   sync.Mutex
	sent []mailer.Message

	// SendFn, when set, decides the result of each send. Messages are only
	// recorded when it returns nil.
	SendFn func(ctx context.Context, msg mailer.Message) error

	// Attempts counts every Send call, successful or not.
	Attempts int
}

var _ mailer.Mailer = (*MockMailer)(nil)

// Send implements mailer.Mailer.
func (m *MockMailer) Send(ctx context.Context, msg mailer.Message) (mailer.SendResult, error) {
	m.mu.Lock()
	m.Attempts++
	n := m.Attempts
	m.mu.Unlock()

	if m.SendFn != nil {
		if err := m.SendFn(ctx, msg); err != nil {
			return mailer.SendResult{}, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return mailer.SendResult{MessageID: fmt.Sprintf("mock-%d@test", n)}, nil
}

// Sent returns a copy of the recorded messages.
func (m *MockMailer) Sent() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.sent...)
}
