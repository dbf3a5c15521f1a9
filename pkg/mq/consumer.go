package mq

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type Handle func(ctx context.Context, body []byte) error

type Consumer interface {
	Consume(ctx context.Context, prefetch int, queue string, handler Handle) error
}

type RabbitConsumer struct {
	ch     *amqp.Channel
	logger *zap.Logger
}

func NewRabbitConsumer(ch *amqp.Channel, logger *zap.Logger) Consumer {
	return &RabbitConsumer{ch: ch, logger: logger}
}

func (c *RabbitConsumer) Consume(ctx context.Context, prefetch int, queue string, handler Handle) error {
	if prefetch <= 0 {
		prefetch = 1
	}

	if err := c.ch.Qos(prefetch, 0, false); err != nil {
		return err
	}

	deliveries, err := c.ch.ConsumeWithContext(ctx, queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			_ = c.ch.Cancel("", false)
			return ctx.Err()

		case d, ok := <-deliveries:
			if !ok {
				return nil
			}

			if err := handler(ctx, d.Body); err != nil {
				requeue := IsTemporary(err)
				c.logger.Warn("delivery rejected",
					zap.String("queue", queue),
					zap.Bool("requeue", requeue),
					zap.Error(err))
				_ = d.Nack(false, requeue)
				continue
			}

			_ = d.Ack(false)
		}
	}
}
