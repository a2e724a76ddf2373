package main

import (
	"fmt"

	"geyser/infra/kafka"
	"geyser/infra/memory"
	"geyser/infra/rabbitmq"
	"geyser/internal/publisher"
	"geyser/pkg/broker"
	"geyser/pkg/config"

	"github.com/ThreeDotsLabs/watermill"
	"go.uber.org/zap"
)

// newProducer builds the delivery client selected by BROKER.
func newProducer(cfg *config.AppConfig, onFailure broker.DeliveryFailureFunc) (broker.Producer, error) {
	logger := zap.L().Named("producer")

	queueConfig := broker.QueueConfig{
		Capacity:        cfg.QueueCapacity,
		MaxMessageBytes: cfg.MaxMessageBytes,
		SendTimeout:     cfg.ShutdownTimeout(),
		OnFailure:       onFailure,
		Logger:          logger,
	}

	switch cfg.Broker {
	case config.BrokerKafka:
		producer, err := kafka.NewProducer(kafka.Config{
			Brokers:            cfg.KafkaBrokers,
			ClientID:           cfg.KafkaClientID,
			MaxBufferedRecords: cfg.QueueCapacity,
			MaxMessageBytes:    cfg.MaxMessageBytes,
			OnFailure:          onFailure,
			Logger:             logger,
		})
		if err != nil {
			return nil, err
		}
		return producer, nil
	case config.BrokerRabbitMQ:
		sender, err := rabbitmq.NewSender(cfg.RabbitMQURL, cfg.RabbitMQExchange, cfg.ServiceName, logger)
		if err != nil {
			return nil, err
		}
		return broker.NewQueue(sender, queueConfig), nil
	case config.BrokerMemory:
		return broker.NewQueue(memory.NewSender(watermill.NopLogger{}), queueConfig), nil
	default:
		return nil, fmt.Errorf("unsupported broker %q", cfg.Broker)
	}
}

func publisherConfig(cfg *config.AppConfig) publisher.Config {
	return publisher.Config{
		ShutdownTimeout:        cfg.ShutdownTimeout(),
		UpdateAccountTopic:     cfg.UpdateAccountTopic,
		SlotStatusTopic:        cfg.SlotStatusTopic,
		TransactionTopic:       cfg.TransactionTopic,
		PublishSeparateProgram: cfg.PublishSeparateProgram,
		WrapMessages:           cfg.WrapMessages,
	}
}
