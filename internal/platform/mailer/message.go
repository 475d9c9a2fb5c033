package mailer

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"
)

// envelope carries the addressing of one outgoing message.
type envelope struct {
	From      *mail.Address
	To        *mail.Address
	MessageID string
	Date      time.Time
}

// composeMIME builds a multipart/alternative message with a plain text and
// an HTML part.
func composeMIME(env envelope, content Rendered) ([]byte, error) {
	var h mail.Header
	h.SetDate(env.Date)
	h.SetAddressList("From", []*mail.Address{env.From})
	h.SetAddressList("To", []*mail.Address{env.To})
	h.SetSubject(content.Subject)
	h.SetMessageID(env.MessageID)

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("failed to create message writer: %w", err)
	}

	tw, err := mw.CreateInline()
	if err != nil {
		return nil, fmt.Errorf("failed to create inline writer: %w", err)
	}

	parts := []struct {
		contentType string
		body        string
	}{
		{"text/plain", content.Text},
		{"text/html", content.HTML},
	}
	for _, p := range parts {
		var ph mail.InlineHeader
		ph.SetContentType(p.contentType, map[string]string{"charset": "utf-8"})
		w, err := tw.CreatePart(ph)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s part: %w", p.contentType, err)
		}
		if _, err := io.WriteString(w, p.body); err != nil {
			return nil, fmt.Errorf("failed to write %s part: %w", p.contentType, err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("failed to close %s part: %w", p.contentType, err)
		}
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close inline writer: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close message writer: %w", err)
	}
	return buf.Bytes(), nil
}

// newMessageID returns a unique id in the sender's domain, without angle brackets.
func newMessageID(from string) string {
	domain := "localhost"
	for i := len(from) - 1; i >= 0; i-- {
		if from[i] == '@' {
			domain = from[i+1:]
			break
		}
	}
	return uuid.NewString() + "@" + domain
}
