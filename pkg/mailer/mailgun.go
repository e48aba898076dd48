package mailer

import (
	"context"
	"fmt"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

// Sender delivers a rendered email.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Mailgun sends through the Mailgun HTTP API from a fixed sender address.
type Mailgun struct {
	client  *mg.MailgunImpl
	from    string
	timeout time.Duration
}

func NewMailgun(domain, apiKey, from string) *Mailgun {
	return &Mailgun{client: mg.NewMailgun(domain, apiKey), from: from, timeout: 10 * time.Second}
}

// Send delivers one message; html may be empty for a text-only email.
func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	msg := m.client.NewMessage(m.from, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if _, _, err := m.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("mailgun send to %s: %w", to, err)
	}
	return nil
}
