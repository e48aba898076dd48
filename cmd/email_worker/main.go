package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-manager/config"
	"github.com/oksasatya/go-task-manager/pkg/helpers"
	"github.com/oksasatya/go-task-manager/pkg/mailer"
	"github.com/oksasatya/go-task-manager/pkg/metrics"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email worker disabled (no real emails will be sent)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}
	if !cfg.MailgunConfigured() {
		logger.Fatal("Mailgun not configured")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	// prefetch for fair dispatch between workers
	if err := ch.Qos(16, 0, false); err != nil {
		logger.Fatalf("qos: %v", err)
	}
	if err := helpers.DeclareQueue(ch, cfg.RabbitMQEmailQueue); err != nil {
		logger.Fatalf("queue declare: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitMQEmailQueue, "", false, false, false, false, nil)
	if err != nil {
		logger.Fatalf("consume: %v", err)
	}

	proc := mailer.NewProcessor(mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for msg := range msgs {
			handle(ctx, proc, msg, logger)
		}
	}()

	logger.Infof("email worker listening on queue=%s", cfg.RabbitMQEmailQueue)
	<-stop
	logger.Info("shutting down...")
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

// handle acks delivered jobs, drops malformed ones and requeues send failures.
func handle(ctx context.Context, proc *mailer.Processor, msg amqp.Delivery, logger logrus.FieldLogger) {
	err := proc.Process(ctx, msg.Body)
	switch {
	case err == nil:
		metrics.Get().Notification("worker", "sent")
		_ = msg.Ack(false)
	case errors.Is(err, mailer.ErrMalformedJob):
		helpers.LogError(logger, "dropping malformed email job", err, logrus.Fields{"delivery_tag": msg.DeliveryTag})
		metrics.Get().Notification("worker", "dropped")
		_ = msg.Nack(false, false)
	default:
		helpers.LogWarn(logger, "send failed; requeueing", err, logrus.Fields{"delivery_tag": msg.DeliveryTag})
		metrics.Get().Notification("worker", "failed")
		_ = msg.Nack(false, true)
	}
}
