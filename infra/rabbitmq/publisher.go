package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"geyser/pkg/broker"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	headerMessageKey = "x-message-key"
	headerService    = "x-service"
	contentType      = "application/x-protobuf"
)

// Sender publishes records to a topic exchange, using the record topic as routing key, and
// waits for the broker confirm. It is synchronous; wrap it in broker.Queue.
type Sender struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	service  string
	logger   *zap.Logger
}

func NewSender(url, exchange, service string, logger *zap.Logger) (*Sender, error) {
	if logger == nil {
		logger = zap.L()
	}

	conn, channel, err := dial(url, logger)
	if err != nil {
		return nil, err
	}

	if err := channel.Confirm(false); err != nil {
		closeAll(logger, channel, conn)
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}
	if err := declareTopicExchange(channel, exchange); err != nil {
		closeAll(logger, channel, conn)
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	logger.Info("RabbitMQ sender connected successfully", zap.String("exchange", exchange))

	return &Sender{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		service:  service,
		logger:   logger,
	}, nil
}

func (s *Sender) Send(ctx context.Context, rec broker.Record) error {
	headers := amqp.Table{headerService: s.service}
	if rec.Key != nil {
		headers[headerMessageKey] = rec.Key
	}

	confirm, err := s.channel.PublishWithDeferredConfirmWithContext(
		ctx,
		s.exchange, // exchange
		rec.Topic,  // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  contentType,
			Body:         rec.Payload,
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.New().String(),
			Timestamp:    time.Now().UTC(),
			Headers:      headers,
		},
	)
	if err != nil {
		return broker.NewError(classify(err), rec.Topic, err)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return broker.NewError(broker.KindUnavailable, rec.Topic, fmt.Errorf("publish confirmation: %w", err))
	}
	if !acked {
		return broker.NewError(broker.KindOther, rec.Topic, errors.New("message was not acknowledged by broker"))
	}
	return nil
}

// IsHealthy reports whether the connection and channel are open.
func (s *Sender) IsHealthy() bool {
	if s == nil || s.conn == nil || s.channel == nil {
		return false
	}
	return !s.conn.IsClosed() && !s.channel.IsClosed()
}

func (s *Sender) Close() error {
	err := closeAll(s.logger, s.channel, s.conn)
	s.logger.Info("RabbitMQ sender closed")
	return err
}

func classify(err error) broker.ErrorKind {
	if errors.Is(err, amqp.ErrClosed) {
		return broker.KindUnavailable
	}
	return broker.KindOther
}
