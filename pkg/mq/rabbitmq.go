package mq

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	deadLetterSuffix = ".dead"
	defaultHeartbeat = 10 * time.Second
)

type Config struct {
	URL            string        `mapstructure:"url"`
	ConnectionName string        `mapstructure:"connection_name"`
	Heartbeat      time.Duration `mapstructure:"heartbeat"`
}

// RabbitMQ owns one broker connection; publishers and consumers each get their
// own channel on it.
type RabbitMQ struct {
	conn   *amqp.Connection
	logger *zap.Logger
}

func NewConnection(cfg Config, logger *zap.Logger) (*RabbitMQ, error) {
	conn, err := amqp.DialConfig(cfg.URL, dialConfig(cfg))
	if err != nil {
		logger.Error("RabbitMQ dial failed", zap.String("connection_name", cfg.ConnectionName), zap.Error(err))
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	logger.Info("RabbitMQ connected", zap.String("connection_name", cfg.ConnectionName))

	return &RabbitMQ{conn: conn, logger: logger}, nil
}

func dialConfig(cfg Config) amqp.Config {
	heartbeat := cfg.Heartbeat
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}

	props := amqp.NewConnectionProperties()
	if cfg.ConnectionName != "" {
		props.SetClientConnectionName(cfg.ConnectionName)
	}

	return amqp.Config{Heartbeat: heartbeat, Properties: props}
}

// DeadLetterQueue names the queue that collects deliveries rejected from queue
// without requeue.
func DeadLetterQueue(queue string) string {
	return queue + deadLetterSuffix
}

// queueArguments routes rejected deliveries through the default exchange to
// the queue's dead-letter sibling.
func queueArguments(queue string) amqp.Table {
	return amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": DeadLetterQueue(queue),
	}
}

func (r *RabbitMQ) channel() (*amqp.Channel, error) {
	if r.conn == nil || r.conn.IsClosed() {
		return nil, fmt.Errorf("rabbitmq connection is closed")
	}

	ch, err := r.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	return ch, nil
}

// DeclareTopology declares every queue durable together with its dead-letter
// queue. Declaring is idempotent as long as the arguments do not change.
func (r *RabbitMQ) DeclareTopology(queues []string) error {
	ch, err := r.channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	for _, queue := range queues {
		if _, err := ch.QueueDeclare(DeadLetterQueue(queue), true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare %s: %w", DeadLetterQueue(queue), err)
		}

		if _, err := ch.QueueDeclare(queue, true, false, false, false, queueArguments(queue)); err != nil {
			return fmt.Errorf("declare %s: %w", queue, err)
		}
	}

	r.logger.Info("Ledger queues declared", zap.Strings("queues", queues))

	return nil
}

func (r *RabbitMQ) CreatePublisher() (Publisher, error) {
	ch, err := r.channel()
	if err != nil {
		return nil, fmt.Errorf("publisher: %w", err)
	}

	return NewRabbitPublisher(ch), nil
}

func (r *RabbitMQ) CreateConsumer() (Consumer, error) {
	ch, err := r.channel()
	if err != nil {
		return nil, fmt.Errorf("consumer: %w", err)
	}

	return NewRabbitConsumer(ch, r.logger), nil
}

func (r *RabbitMQ) Close() error {
	if r.conn == nil || r.conn.IsClosed() {
		return nil
	}

	return r.conn.Close()
}
