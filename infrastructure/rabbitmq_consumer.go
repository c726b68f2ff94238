// infrastructure/rabbitmq_consumer.go
package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/vitovidale/video-catalog-service/domain"
	"github.com/vitovidale/video-catalog-service/usecase"
)

type MediaStatusUpdater interface {
	Execute(ctx context.Context, cmd usecase.UpdateMediaStatusCommand) (*usecase.UpdateMediaStatusOutput, error)
}

// EncoderResultConsumer reads encoder callbacks from the encoded queue and
// acknowledges each delivery only after it has been applied. Poison
// messages are rejected without requeue; any other failure is requeued.
type EncoderResultConsumer struct {
	Dial           func(ctx context.Context) (*amqp.Connection, error)
	Topology       AMQPTopology
	Workers        int
	Prefetch       int
	ReconnectDelay time.Duration
	Updater        MediaStatusUpdater
	Logger         logrus.FieldLogger
	Metrics        *Metrics
}

// Run consumes until ctx is cancelled, reconnecting whenever the broker
// connection drops.
func (c *EncoderResultConsumer) Run(ctx context.Context) error {
	delay := c.ReconnectDelay
	if delay <= 0 {
		delay = 5 * time.Second
	}
	for {
		err := c.consume(ctx)
		if ctx.Err() != nil {
			c.Logger.Info("encoder result consumer stopped")
			return nil
		}
		c.Logger.WithError(err).Warnf("lost RabbitMQ consumer, reconnecting in %s", delay)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

func (c *EncoderResultConsumer) consume(ctx context.Context) error {
	conn, err := c.Dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	closed := conn.NotifyClose(make(chan *amqp.Error, 1))

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open a channel: %w", err)
	}
	defer ch.Close()
	chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))
	cancelled := ch.NotifyCancel(make(chan string, 1))

	if err := DeclareTopology(ch, c.Topology); err != nil {
		return err
	}
	workers := max(c.Workers, 1)
	if err := ch.Qos(max(c.Prefetch, workers), 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}
	deliveries, err := ch.Consume(
		c.Topology.EncodedQueue,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}
	c.Logger.WithFields(logrus.Fields{
		"queue":   c.Topology.EncodedQueue,
		"workers": workers,
	}).Info("waiting for encoder results")

	return c.serve(ctx, deliveries, brokerSignals{conn: closed, channel: chClosed, cancelled: cancelled})
}

// brokerSignals are the notifications that end a consumer session. A nil
// field never fires.
type brokerSignals struct {
	conn      <-chan *amqp.Error
	channel   <-chan *amqp.Error
	cancelled <-chan string
}

// serve runs the workers over deliveries until ctx is done, the broker ends
// the session, or the delivery stream closes. Anything but ctx returns an
// error so that Run reconnects.
func (c *EncoderResultConsumer) serve(ctx context.Context, deliveries <-chan amqp.Delivery, signals brokerSignals) error {
	workers := max(c.Workers, 1)
	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case d, ok := <-deliveries:
					if !ok {
						return
					}
					c.handleDelivery(workerCtx, d)
				}
			}
		}()
	}
	drained := make(chan struct{})
	go func() {
		wg.Wait()
		close(drained)
	}()

	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case amqpErr, ok := <-signals.conn:
		err = closeReason("connection", amqpErr, ok)
	case amqpErr, ok := <-signals.channel:
		err = closeReason("channel", amqpErr, ok)
	case tag := <-signals.cancelled:
		err = fmt.Errorf("consumer %q cancelled by broker", tag)
	case <-drained:
		err = errors.New("delivery stream closed")
		if ctx.Err() != nil {
			err = ctx.Err()
			break
		}
		select {
		case amqpErr, ok := <-signals.channel:
			err = closeReason("channel", amqpErr, ok)
		default:
		}
	}
	cancel()
	<-drained
	return err
}

func closeReason(what string, amqpErr *amqp.Error, ok bool) error {
	if !ok || amqpErr == nil {
		return fmt.Errorf("%s closed", what)
	}
	return fmt.Errorf("%s closed: %w", what, amqpErr)
}

// handleDelivery applies one encoder result and settles the delivery. It
// returns the outcome label used for metrics.
func (c *EncoderResultConsumer) handleDelivery(ctx context.Context, d amqp.Delivery) string {
	start := time.Now()
	log := c.Logger.WithField("delivery_tag", d.DeliveryTag)

	var out *usecase.UpdateMediaStatusOutput
	cmd, err := DecodeEncoderResult(d.Body)
	if err == nil {
		log = log.WithFields(logrus.Fields{"video_id": cmd.VideoID, "resource_id": cmd.ResourceID})
		out, err = c.Updater.Execute(ctx, cmd)
	}

	var outcome string
	switch {
	case err == nil:
		outcome = "skipped"
		if out != nil && out.Applied {
			outcome = "applied"
		}
		if ackErr := d.Ack(false); ackErr != nil {
			log.WithError(ackErr).Error("failed to ack encoder result")
		}
	case errors.Is(err, domain.ErrPoisonMessage):
		outcome = "poison"
		log.WithError(err).WithField("body", string(d.Body)).Error("dropping malformed encoder result")
		if ackErr := d.Reject(false); ackErr != nil {
			log.WithError(ackErr).Error("failed to reject encoder result")
		}
	default:
		outcome = "failed"
		log.WithError(err).Warn("encoder result not applied, requeueing")
		if ackErr := d.Nack(false, true); ackErr != nil {
			log.WithError(ackErr).Error("failed to nack encoder result")
		}
	}
	c.Metrics.reconciled(outcome, time.Since(start))
	return outcome
}
