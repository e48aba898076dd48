package mailer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	mailtpl "github.com/oksasatya/go-task-manager/pkg/mailer/templates"
	"github.com/oksasatya/go-task-manager/pkg/metrics"
)

// Publisher puts a JSON message on the email queue.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// PublishTimeout bounds how long a request waits for the broker to confirm a job.
const PublishTimeout = 5 * time.Second

// QueueNotifier enqueues template jobs for cmd/email_worker.
type QueueNotifier struct {
	pub     Publisher
	brand   mailtpl.Branding
	timeout time.Duration
}

func NewQueueNotifier(pub Publisher, brand mailtpl.Branding) *QueueNotifier {
	return &QueueNotifier{pub: pub, brand: brand, timeout: PublishTimeout}
}

func (n *QueueNotifier) Welcome(ctx context.Context, email, name string) error {
	return n.enqueue(ctx, mailtpl.Welcome, email, mailtpl.NewWelcomeData(n.brand, name, email))
}

func (n *QueueNotifier) Cancellation(ctx context.Context, email, name string) error {
	return n.enqueue(ctx, mailtpl.Cancellation, email, mailtpl.NewCancellationData(n.brand, name, email))
}

func (n *QueueNotifier) enqueue(ctx context.Context, tpl, to string, data map[string]any) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	err := n.pub.PublishJSON(ctx, EmailJob{To: to, Template: tpl, Data: data})
	record(tpl, "queued", err)
	return err
}

// DirectNotifier renders and sends in-process.
type DirectNotifier struct {
	sender Sender
	brand  mailtpl.Branding
}

func NewDirectNotifier(sender Sender, brand mailtpl.Branding) *DirectNotifier {
	return &DirectNotifier{sender: sender, brand: brand}
}

func (n *DirectNotifier) Welcome(ctx context.Context, email, name string) error {
	return n.send(ctx, mailtpl.Welcome, email, mailtpl.NewWelcomeData(n.brand, name, email))
}

func (n *DirectNotifier) Cancellation(ctx context.Context, email, name string) error {
	return n.send(ctx, mailtpl.Cancellation, email, mailtpl.NewCancellationData(n.brand, name, email))
}

func (n *DirectNotifier) send(ctx context.Context, tpl, to string, data map[string]any) error {
	subject, text, html, err := mailtpl.Render(tpl, data)
	if err == nil {
		err = n.sender.Send(ctx, to, subject, text, html)
	}
	record(tpl, "sent", err)
	return err
}

// LogNotifier only logs; used when sending is disabled or not configured.
type LogNotifier struct {
	log logrus.FieldLogger
}

func NewLogNotifier(log logrus.FieldLogger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Welcome(_ context.Context, email, name string) error {
	n.skip(mailtpl.Welcome, email)
	return nil
}

func (n *LogNotifier) Cancellation(_ context.Context, email, name string) error {
	n.skip(mailtpl.Cancellation, email)
	return nil
}

func (n *LogNotifier) skip(tpl, to string) {
	n.log.WithFields(logrus.Fields{"template": tpl, "to": to}).Info("email sending disabled; skipping")
	metrics.Get().Notification(tpl, "skipped")
}

func record(kind, ok string, err error) {
	if err != nil {
		metrics.Get().Notification(kind, "failed")
		return
	}
	metrics.Get().Notification(kind, ok)
}
