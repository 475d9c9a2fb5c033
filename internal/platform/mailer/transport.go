package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/phrazzld/taskmaster-api/internal/platform/logger"
	"github.com/phrazzld/taskmaster-api/internal/redact"
)

// Transport delivers an already composed RFC 5322 message.
type Transport interface {
	Deliver(ctx context.Context, from string, to []string, msg []byte) error
}

// smtpImplicitTLSPort is the submissions port that expects TLS from the first byte.
const smtpImplicitTLSPort = 465

// SMTPTransport delivers through an SMTP relay. Port 465 uses implicit TLS,
// every other port requires STARTTLS.
type SMTPTransport struct {
	addr string
	port int
	auth sasl.Client

	dial      func(ctx context.Context) (net.Conn, error)
	handshake func(conn net.Conn) (*smtp.Client, error)
}

// NewSMTPTransport creates an SMTP transport. Username may be empty for
// relays that do not require authentication.
func NewSMTPTransport(host string, port int, username, password string) *SMTPTransport {
	t := &SMTPTransport{
		addr: net.JoinHostPort(host, strconv.Itoa(port)),
		port: port,
	}
	if username != "" {
		t.auth = sasl.NewPlainClient("", username, password)
	}

	tlsConfig := &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
	if port == smtpImplicitTLSPort {
		d := &tls.Dialer{Config: tlsConfig}
		t.dial = func(ctx context.Context) (net.Conn, error) { return d.DialContext(ctx, "tcp", t.addr) }
		t.handshake = func(conn net.Conn) (*smtp.Client, error) { return smtp.NewClient(conn), nil }
	} else {
		var d net.Dialer
		t.dial = func(ctx context.Context) (net.Conn, error) { return d.DialContext(ctx, "tcp", t.addr) }
		t.handshake = func(conn net.Conn) (*smtp.Client, error) { return smtp.NewClientStartTLS(conn, tlsConfig) }
	}
	return t
}

// Deliver implements Transport. The connection is closed as soon as ctx is
// done, so the SMTP exchange never outlives the call.
func (t *SMTPTransport) Deliver(ctx context.Context, from string, to []string, msg []byte) error {
	conn, err := t.dial(ctx)
	if err != nil {
		return fmt.Errorf("smtp dial %s failed: %w", t.addr, err)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := t.exchange(conn, from, to, msg); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("smtp delivery to %s aborted: %w", t.addr, ctxErr)
		}
		return fmt.Errorf("smtp delivery to %s failed: %w", t.addr, err)
	}
	return nil
}

// exchange runs one SMTP session on conn. Once the relay has accepted the
// message a failing QUIT is ignored.
func (t *SMTPTransport) exchange(conn net.Conn, from string, to []string, msg []byte) error {
	c, err := t.handshake(conn)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()

	if t.auth != nil {
		if ok, _ := c.Extension("AUTH"); !ok {
			return errors.New("smtp: server does not support AUTH")
		}
		if err := c.Auth(t.auth); err != nil {
			return err
		}
	}
	if err := c.SendMail(from, to, bytes.NewReader(msg)); err != nil {
		return err
	}
	_ = c.Quit()
	return nil
}

// LogTransport logs messages instead of delivering them. It is used when no
// mail relay is configured.
type LogTransport struct {
	logger *slog.Logger
}

// NewLogTransport creates a LogTransport. If logger is nil, slog.Default is used.
func NewLogTransport(logger *slog.Logger) *LogTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogTransport{logger: logger.With(slog.String("component", "log_transport"))}
}

// Deliver implements Transport.
func (t *LogTransport) Deliver(ctx context.Context, from string, to []string, msg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	recipients := make([]string, 0, len(to))
	for _, addr := range to {
		recipients = append(recipients, redact.Email(addr))
	}
	logger.FromContextOrDefault(ctx, t.logger).Info("email not delivered, log transport active",
		slog.String("from", from),
		slog.Any("to", recipients),
		slog.Int("size_bytes", len(msg)))
	return nil
}
