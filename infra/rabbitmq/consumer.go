package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// DeliveryHandler processes one message body. A returned error dead-letters the message.
type DeliveryHandler func(ctx context.Context, routingKey string, body []byte) error

// Consumer reads decoded node events from a durable queue bound to a topic exchange.
type Consumer struct {
	conn           *amqp.Connection
	channel        *amqp.Channel
	queueName      string
	serviceName    string
	handlerTimeout time.Duration
	logger         *zap.Logger
}

type ConsumerConfig struct {
	Exchange       string   // e.g., "geyser.ingest"
	QueueName      string   // e.g., "geyser.ingest.all.v1"
	RoutingKeys    []string // e.g., ["account.update", "slot.status", "transaction"]
	ServiceName    string
	PrefetchCount  int           // 0 selects the default of 10
	HandlerTimeout time.Duration // 0 selects the default of 30s
	Logger         *zap.Logger
}

func NewConsumer(url string, config ConsumerConfig) (*Consumer, error) {
	logger := config.Logger
	if logger == nil {
		logger = zap.L()
	}

	conn, channel, err := dial(url, logger)
	if err != nil {
		return nil, err
	}

	prefetchCount := config.PrefetchCount
	if prefetchCount == 0 {
		prefetchCount = 10
	}
	if err := channel.Qos(prefetchCount, 0, false); err != nil {
		closeAll(logger, channel, conn)
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	if err := declareQueueTopology(channel, config); err != nil {
		closeAll(logger, channel, conn)
		return nil, err
	}

	handlerTimeout := config.HandlerTimeout
	if handlerTimeout == 0 {
		handlerTimeout = 30 * time.Second
	}

	logger.Info("RabbitMQ consumer created successfully",
		zap.String("queue", config.QueueName),
		zap.String("exchange", config.Exchange),
		zap.Strings("routingKeys", config.RoutingKeys),
	)

	return &Consumer{
		conn:           conn,
		channel:        channel,
		queueName:      config.QueueName,
		serviceName:    config.ServiceName,
		handlerTimeout: handlerTimeout,
		logger:         logger,
	}, nil
}

// declareQueueTopology declares the exchange, its dead letter exchange, the queue and its
// dead letter queue, and binds both queues with the configured routing keys.
func declareQueueTopology(ch *amqp.Channel, config ConsumerConfig) error {
	if err := declareTopicExchange(ch, config.Exchange); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	dlxName := config.Exchange + ".dlx"
	if err := declareTopicExchange(ch, dlxName); err != nil {
		return fmt.Errorf("failed to declare DLX: %w", err)
	}

	queue, err := ch.QueueDeclare(
		config.QueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		amqp.Table{"x-dead-letter-exchange": dlxName},
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	dlqName := config.QueueName + ".dlq"
	if _, err := ch.QueueDeclare(dlqName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ: %w", err)
	}

	for _, routingKey := range config.RoutingKeys {
		if err := ch.QueueBind(dlqName, routingKey, dlxName, false, nil); err != nil {
			return fmt.Errorf("failed to bind DLQ: %w", err)
		}
		if err := ch.QueueBind(queue.Name, routingKey, config.Exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue: %w", err)
		}
	}
	return nil
}

// Consume blocks, feeding deliveries to handler until ctx is cancelled or the channel closes.
func (c *Consumer) Consume(ctx context.Context, handler DeliveryHandler) error {
	msgs, err := c.channel.Consume(
		c.queueName,
		c.serviceName, // consumer tag
		false,         // auto-ack (false = manual ack)
		false,         // exclusive
		false,         // no-local
		false,         // no-wait
		nil,           // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("Started consuming messages", zap.String("queue", c.queueName))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Consumer context cancelled, stopping...")
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				c.logger.Warn("Message channel closed")
				return errors.New("message channel closed")
			}
			c.handleMessage(ctx, msg, handler)
		}
	}
}

func (c *Consumer) handleMessage(ctx context.Context, msg amqp.Delivery, handler DeliveryHandler) {
	processCtx, cancel := context.WithTimeout(ctx, c.handlerTimeout)
	defer cancel()

	if err := handler(processCtx, msg.RoutingKey, msg.Body); err != nil {
		c.logger.Warn("Failed to process message, dead-lettering",
			zap.String("queue", c.queueName),
			zap.String("routingKey", msg.RoutingKey),
			zap.String("messageId", msg.MessageId),
			zap.Error(err),
		)
		if nackErr := msg.Nack(false, false); nackErr != nil {
			c.logger.Error("Failed to nack message", zap.Error(nackErr))
		}
		return
	}

	if err := msg.Ack(false); err != nil {
		c.logger.Error("Failed to acknowledge message",
			zap.String("messageId", msg.MessageId),
			zap.Error(err),
		)
	}
}

func (c *Consumer) Close() error {
	err := closeAll(c.logger, c.channel, c.conn)
	c.logger.Info("RabbitMQ consumer closed")
	return err
}
