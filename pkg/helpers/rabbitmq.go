package helpers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrNotConfirmed is returned when the broker nacks a published message.
var ErrNotConfirmed = errors.New("message not confirmed by broker")

// DeclareQueue declares the durable queue shared by the API and the email worker.
func DeclareQueue(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	return err
}

// RabbitPublisher publishes persistent JSON messages to one queue through the
// default exchange and waits for the broker to confirm each of them.
// Publishing on an amqp.Channel is not concurrency-safe; mu serializes it.
type RabbitPublisher struct {
	mu    sync.Mutex
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func NewRabbitPublisher(url, queue string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	p := &RabbitPublisher{conn: conn, queue: queue}
	if p.ch, err = conn.Channel(); err != nil {
		p.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := p.ch.Confirm(false); err != nil {
		p.Close()
		return nil, fmt.Errorf("amqp confirm mode: %w", err)
	}
	if err := DeclareQueue(p.ch, queue); err != nil {
		p.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return p, nil
}

func (p *RabbitPublisher) Close() {
	if p == nil {
		return
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// PublishJSON encodes body and blocks until the broker acks it or ctx ends.
func (p *RabbitPublisher) PublishJSON(ctx context.Context, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         b,
	}

	p.mu.Lock()
	conf, err := p.ch.PublishWithDeferredConfirmWithContext(ctx, "", p.queue, false, false, msg)
	p.mu.Unlock()
	if err != nil {
		return err
	}
	ok, err := conf.WaitContext(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotConfirmed
	}
	return nil
}
