package mailer

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/phrazzld/taskmaster-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type receivedMessage struct {
	from string
	to   []string
	body string
}

// relay is an in-process SMTP server that records accepted messages.
type relay struct {
	username, password string
	// holdRcpt, when set, blocks every RCPT command until it is closed.
	holdRcpt chan struct{}
	// rejectRcpt, when set, is returned for every RCPT command.
	rejectRcpt error

	mu       sync.Mutex
	received []receivedMessage
}

func (r *relay) NewSession(*smtp.Conn) (smtp.Session, error) {
	return &relaySession{relay: r}, nil
}

func (r *relay) messages() []receivedMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]receivedMessage(nil), r.received...)
}

type relaySession struct {
	relay *relay
	from  string
	to    []string
}

func (s *relaySession) AuthMechanisms() []string { return []string{sasl.Plain} }

func (s *relaySession) Auth(string) (sasl.Server, error) {
	return sasl.NewPlainServer(func(_, username, password string) error {
		if username != s.relay.username || password != s.relay.password {
			return errors.New("invalid credentials")
		}
		return nil
	}), nil
}

func (s *relaySession) Mail(from string, _ *smtp.MailOptions) error {
	s.from = from
	return nil
}

func (s *relaySession) Rcpt(to string, _ *smtp.RcptOptions) error {
	if s.relay.holdRcpt != nil {
		<-s.relay.holdRcpt
	}
	if s.relay.rejectRcpt != nil {
		return s.relay.rejectRcpt
	}
	s.to = append(s.to, to)
	return nil
}

func (s *relaySession) Data(r io.Reader) error {
	body, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.relay.mu.Lock()
	defer s.relay.mu.Unlock()
	s.relay.received = append(s.relay.received, receivedMessage{from: s.from, to: s.to, body: string(body)})
	return nil
}

func (s *relaySession) Reset() {
	s.from = ""
	s.to = nil
}

func (s *relaySession) Logout() error { return nil }

// startRelay serves r on a loopback port and returns a plaintext transport
// pointed at it.
func startRelay(t *testing.T, r *relay) *SMTPTransport {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := smtp.NewServer(r)
	srv.Domain = "localhost"
	srv.AllowInsecureAuth = true
	srv.ErrorLog = log.New(io.Discard, "", 0)
	go func() { _ = srv.Serve(l) }()
	t.Cleanup(func() { _ = srv.Close() })

	host, portStr, err := net.SplitHostPort(l.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	tr := NewSMTPTransport(host, port, r.username, r.password)
	tr.handshake = func(conn net.Conn) (*smtp.Client, error) { return smtp.NewClient(conn), nil }
	return tr
}

func TestSMTPTransportDeliver(t *testing.T) {
	r := &relay{username: "mailer", password: "secret"}
	tr := startRelay(t, r)
	require.NotNil(t, tr.auth)

	msg := []byte("Subject: hi\r\n\r\nbody\r\n")
	err := tr.Deliver(context.Background(), "noreply@taskmasterpro.com", []string{"ada@example.com"}, msg)
	require.NoError(t, err)

	got := r.messages()
	require.Len(t, got, 1)
	assert.Equal(t, "noreply@taskmasterpro.com", got[0].from)
	assert.Equal(t, []string{"ada@example.com"}, got[0].to)
	assert.Contains(t, got[0].body, "body")
}

func TestSMTPTransportWithoutAuth(t *testing.T) {
	assert.Nil(t, NewSMTPTransport("relay.internal", 25, "", "").auth)

	r := &relay{}
	tr := startRelay(t, r)
	require.NoError(t, tr.Deliver(context.Background(), "a@b.co", []string{"c@d.co"}, []byte("x\r\n")))
	assert.Len(t, r.messages(), 1)
}

func TestSMTPTransportRejectsBadCredentials(t *testing.T) {
	r := &relay{username: "mailer", password: "secret"}
	tr := startRelay(t, r)
	tr.auth = sasl.NewPlainClient("", "mailer", "wrong")

	err := tr.Deliver(context.Background(), "a@b.co", []string{"c@d.co"}, []byte("x\r\n"))
	require.Error(t, err)
	assert.Empty(t, r.messages())
}

func TestSMTPTransportWrapsErrors(t *testing.T) {
	rejected := &smtp.SMTPError{Code: 550, EnhancedCode: smtp.EnhancedCode{5, 1, 1}, Message: "no such user"}
	tr := startRelay(t, &relay{rejectRcpt: rejected})

	err := tr.Deliver(context.Background(), "a@b.co", []string{"c@d.co"}, []byte("x\r\n"))

	var smtpErr *smtp.SMTPError
	require.ErrorAs(t, err, &smtpErr)
	assert.Equal(t, 550, smtpErr.Code)
}

func TestSMTPTransportDialError(t *testing.T) {
	tr := NewSMTPTransport("smtp.example.com", 587, "", "")
	boom := errors.New("connection refused")
	tr.dial = func(context.Context) (net.Conn, error) { return nil, boom }

	err := tr.Deliver(context.Background(), "a@b.co", []string{"c@d.co"}, nil)
	assert.ErrorIs(t, err, boom)
}

func TestSMTPTransportTimeoutAbortsExchange(t *testing.T) {
	release := make(chan struct{})
	r := &relay{holdRcpt: release}
	tr := startRelay(t, r)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := tr.Deliver(ctx, "a@b.co", []string{"c@d.co"}, []byte("x\r\n"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)

	// Once Deliver has returned nothing may complete the delivery later.
	close(release)
	assert.Never(t, func() bool { return len(r.messages()) > 0 }, 300*time.Millisecond, 20*time.Millisecond)
}

func TestLogTransportMasksRecipients(t *testing.T) {
	var buf logger.TestLogBuffer
	tr := NewLogTransport(buf.Logger())

	require.NoError(t, tr.Deliver(context.Background(), "noreply@taskmasterpro.com", []string{"grace@example.com"}, []byte("hello")))

	entries, err := buf.EntriesWithMessage("email not delivered, log transport active")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, []any{"g***@example.com"}, entries[0]["to"])
	assert.EqualValues(t, 5, entries[0]["size_bytes"])
	assert.NotContains(t, buf.String(), "grace@example.com")
}
