package mailer

import (
	"context"
	"time"
)

// Processor turns raw queue messages into sent emails.
type Processor struct {
	sender  Sender
	timeout time.Duration
}

func NewProcessor(sender Sender) *Processor {
	return &Processor{sender: sender, timeout: 15 * time.Second}
}

// Process handles one message body. Errors wrapping ErrMalformedJob must not be
// requeued; any other error is a delivery failure worth retrying.
func (p *Processor) Process(ctx context.Context, body []byte) error {
	job, err := DecodeJob(body)
	if err != nil {
		return err
	}
	subject, text, html, err := job.Content()
	if err != nil {
		return err
	}
	c, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.sender.Send(c, job.To, subject, text, html)
}
