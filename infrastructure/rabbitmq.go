// infrastructure/rabbitmq.go
package infrastructure

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// AMQPTopology names the exchange and the two queues shared with the encoder.
type AMQPTopology struct {
	Exchange          string
	CreatedQueue      string
	CreatedRoutingKey string
	EncodedQueue      string
	EncodedRoutingKey string
}

func DefaultAMQPTopology() AMQPTopology {
	return AMQPTopology{
		Exchange:          "video.events",
		CreatedQueue:      "video.created.queue",
		CreatedRoutingKey: "video.created",
		EncodedQueue:      "video.encoded.queue",
		EncodedRoutingKey: "video.encoded",
	}
}

// ConnectRabbitMQ dials url, retrying a fixed number of times.
func ConnectRabbitMQ(ctx context.Context, url string, attempts int, delay time.Duration, logger logrus.FieldLogger) (*amqp.Connection, error) {
	var lastErr error
	for i := 0; i < attempts; i++ {
		conn, err := amqp.Dial(url)
		if err == nil {
			logger.Info("connected to RabbitMQ")
			return conn, nil
		}
		lastErr = err
		logger.WithError(err).Warnf("retrying RabbitMQ connection in %s (%d/%d)", delay, i+1, attempts)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("could not connect to RabbitMQ after %d attempts: %w", attempts, lastErr)
}

// DeclareTopology declares the durable direct exchange and binds both queues.
func DeclareTopology(ch *amqp.Channel, t AMQPTopology) error {
	if err := ch.ExchangeDeclare(
		t.Exchange,
		amqp.ExchangeDirect,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", t.Exchange, err)
	}

	bindings := []struct{ queue, key string }{
		{t.CreatedQueue, t.CreatedRoutingKey},
		{t.EncodedQueue, t.EncodedRoutingKey},
	}
	for _, b := range bindings {
		if _, err := ch.QueueDeclare(
			b.queue,
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,
		); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", b.queue, err)
		}
		if err := ch.QueueBind(b.queue, b.key, t.Exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s: %w", b.queue, err)
		}
	}
	return nil
}
