package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Publisher is the part of *nats.Conn used by NATSHandler.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSHandler publishes each event as JSON on "<subject>.<kind>.<outcome>",
// e.g. taskmaster.reminders.reminder.sent.
type NATSHandler struct {
	pub     Publisher
	subject string
}

// NewNATSHandler creates a handler publishing under the base subject.
func NewNATSHandler(pub Publisher, subject string) *NATSHandler {
	return &NATSHandler{pub: pub, subject: subject}
}

// Subject returns the subject an event is published on.
func (h *NATSHandler) Subject(event *ReminderEvent) string {
	return fmt.Sprintf("%s.%s.%s", h.subject, event.Kind, event.Outcome)
}

// HandleEvent implements EventHandler.
func (h *NATSHandler) HandleEvent(ctx context.Context, event *ReminderEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := event.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode reminder event: %w", err)
	}
	if err := h.pub.Publish(h.Subject(event), data); err != nil {
		return fmt.Errorf("failed to publish reminder event: %w", err)
	}
	return nil
}

// ConnectNATS opens a connection that keeps reconnecting in the background.
// Publishing while disconnected is buffered by the client.
func ConnectNATS(url string, logger *slog.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "nats")

	nc, err := nats.Connect(url,
		nats.Name("taskmaster-api"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", "url", c.ConnectedUrlRedacted())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	log.Info("connected to nats", "url", nc.ConnectedUrlRedacted())
	return nc, nil
}
