// infrastructure/rabbitmq_publisher.go
package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/vitovidale/video-catalog-service/domain"
)

var errPublishNacked = errors.New("broker did not confirm the message")

// RabbitMQEventPublisher publishes domain events with publisher confirms so
// Publish only returns nil once the broker has taken the message. The
// connection and channel are opened on first use and reopened after the
// broker drops them.
type RabbitMQEventPublisher struct {
	dial     func(ctx context.Context) (*amqp.Connection, error)
	topology AMQPTopology
	routes   map[string]string

	mu   sync.Mutex
	conn atomic.Pointer[amqp.Connection]
	ch   *amqp.Channel
}

func NewRabbitMQEventPublisher(dial func(ctx context.Context) (*amqp.Connection, error), t AMQPTopology) *RabbitMQEventPublisher {
	return &RabbitMQEventPublisher{
		dial:     dial,
		topology: t,
		routes:   map[string]string{domain.EventMediaCreated: t.CreatedRoutingKey},
	}
}

// Connect opens the publishing channel now instead of on the first event.
func (p *RabbitMQEventPublisher) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.channel(ctx)
	return err
}

// channel returns an open confirm-mode channel. Callers hold p.mu.
func (p *RabbitMQEventPublisher) channel(ctx context.Context) (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	conn := p.conn.Load()
	if conn == nil || conn.IsClosed() {
		var err error
		if conn, err = p.dial(ctx); err != nil {
			return nil, err
		}
		p.conn.Store(conn)
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	if err := DeclareTopology(ch, p.topology); err != nil {
		_ = ch.Close()
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}
	p.ch = ch
	return ch, nil
}

func (p *RabbitMQEventPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	key, ok := p.routes[event.EventType()]
	if !ok {
		return fmt.Errorf("no route for event %s", event.EventType())
	}
	msg, err := newPublishing(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	ch, err := p.channel(ctx)
	if err != nil {
		p.mu.Unlock()
		return fmt.Errorf("failed to publish %s: %w", event.EventType(), err)
	}
	confirm, err := ch.PublishWithDeferredConfirmWithContext(ctx, p.topology.Exchange, key, false, false, msg)
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.EventType(), err)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to confirm %s: %w", event.EventType(), err)
	}
	if !acked {
		return fmt.Errorf("%s: %w", event.EventType(), errPublishNacked)
	}
	return nil
}

// IsClosed reports whether the publisher currently has no live broker
// connection. It does not wait for a reconnect in progress.
func (p *RabbitMQEventPublisher) IsClosed() bool {
	conn := p.conn.Load()
	return conn == nil || conn.IsClosed()
}

func (p *RabbitMQEventPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
		p.ch = nil
	}
	if conn := p.conn.Swap(nil); conn != nil {
		errs = append(errs, conn.Close())
	}
	return errors.Join(errs...)
}

func newPublishing(event domain.DomainEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal %s: %w", event.EventType(), err)
	}
	occurred := event.OccurredOn()
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         event.EventType(),
		Timestamp:    occurred,
		Body:         body,
	}, nil
}

var _ domain.EventPublisher = (*RabbitMQEventPublisher)(nil)
