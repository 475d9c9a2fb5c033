package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/phrazzld/taskmaster-api/internal/config"
	"github.com/phrazzld/taskmaster-api/internal/platform/logger"
	"github.com/phrazzld/taskmaster-api/internal/redact"
	"golang.org/x/time/rate"
)

// ErrInvalidRecipient is returned when a message has no usable To address.
var ErrInvalidRecipient = errors.New("invalid recipient")

// Message is one templated email to a single recipient.
type Message struct {
	To       string
	ToName   string
	Template Template
	Data     any
}

// SendResult describes an accepted message.
type SendResult struct {
	MessageID string
}

// Mailer sends templated messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) (SendResult, error)
}

// Service renders, composes and delivers messages, throttled by a token
// bucket shared by all callers.
type Service struct {
	renderer  *Renderer
	transport Transport
	from      *mail.Address
	limiter   *rate.Limiter
	now       func() time.Time
	logger    *slog.Logger
}

var _ Mailer = (*Service)(nil)

// NewService creates a mail Service. ratePerSecond <= 0 disables throttling.
func NewService(
	renderer *Renderer,
	transport Transport,
	fromAddress, fromName string,
	ratePerSecond float64,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	return &Service{
		renderer:  renderer,
		transport: transport,
		from:      &mail.Address{Name: fromName, Address: fromAddress},
		limiter:   rate.NewLimiter(limit, 1),
		now:       time.Now,
		logger:    logger.With(slog.String("component", "mailer")),
	}
}

// New builds the Service described by cfg, choosing the SMTP or log transport.
func New(cfg config.MailConfig, logger *slog.Logger) (*Service, error) {
	renderer, err := NewRenderer(cfg.AppURL, cfg.FromName)
	if err != nil {
		return nil, err
	}

	var transport Transport
	switch cfg.Driver {
	case "smtp":
		transport = NewSMTPTransport(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	case "log", "":
		transport = NewLogTransport(logger)
	default:
		return nil, fmt.Errorf("unsupported mail driver %q", cfg.Driver)
	}

	return NewService(renderer, transport, cfg.FromAddress, cfg.FromName, cfg.RatePerSecond, logger), nil
}

// Send implements Mailer.
func (s *Service) Send(ctx context.Context, msg Message) (SendResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return SendResult{}, fmt.Errorf("%w: %v", ErrInvalidRecipient, err)
	}
	if msg.ToName != "" {
		to.Name = msg.ToName
	}

	content, err := s.renderer.Render(msg.Template, msg.Data)
	if err != nil {
		return SendResult{}, err
	}

	messageID := newMessageID(s.from.Address)
	raw, err := composeMIME(envelope{
		From:      s.from,
		To:        to,
		MessageID: messageID,
		Date:      s.now(),
	}, content)
	if err != nil {
		return SendResult{}, err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return SendResult{}, fmt.Errorf("mail rate limiter: %w", err)
	}

	if err := s.transport.Deliver(ctx, s.from.Address, []string{to.Address}, raw); err != nil {
		log.Warn("email delivery failed",
			slog.String("template", string(msg.Template)),
			slog.String("to", redact.Email(to.Address)),
			slog.String("error", redact.Error(err)))
		return SendResult{}, err
	}

	log.Info("email sent",
		slog.String("template", string(msg.Template)),
		slog.String("to", redact.Email(to.Address)),
		slog.String("message_id", messageID))
	return SendResult{MessageID: messageID}, nil
}
