package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	geysergrpc "geyser/infra/grpc"
	"geyser/infra/httpserver"
	"geyser/infra/kafka"
	"geyser/infra/rabbitmq"
	"geyser/internal/consumers"
	"geyser/internal/publisher"
	"geyser/pkg/broker"
	"geyser/pkg/config"
	"geyser/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	zapConfig := zap.NewDevelopmentConfig()
	zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logger, _ := zapConfig.Build()
	zap.ReplaceGlobals(logger)
	defer logger.Sync()

	zap.L().Info("Geyser publisher starting...")

	appConfig := config.Read()
	if err := appConfig.Validate(); err != nil {
		zap.L().Fatal("Invalid configuration", zap.Error(err))
	}
	zap.L().Info("Publisher config loaded",
		zap.String("serviceName", appConfig.ServiceName),
		zap.String("broker", appConfig.Broker),
		zap.String("updateAccountTopic", appConfig.UpdateAccountTopic),
		zap.String("slotStatusTopic", appConfig.SlotStatusTopic),
		zap.String("transactionTopic", appConfig.TransactionTopic),
		zap.Bool("publishSeparateProgram", appConfig.PublishSeparateProgram),
		zap.Duration("shutdownTimeout", appConfig.ShutdownTimeout()),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder, err := metrics.NewPrometheus(registry)
	if err != nil {
		zap.L().Fatal("Failed to register metrics", zap.Error(err))
	}

	producer, err := newProducer(appConfig, func(rec broker.Record, err error) {
		recorder.DeliveryFailed(rec.Topic)
	})
	if err != nil {
		zap.L().Fatal("Failed to create broker producer", zap.Error(err))
	}
	if kp, ok := producer.(*kafka.Producer); ok {
		pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := kp.Ping(pingCtx)
		cancel()
		if err != nil {
			zap.L().Fatal("Kafka brokers unreachable", zap.Strings("brokers", appConfig.KafkaBrokers), zap.Error(err))
		}
	}

	filter, err := publisher.NewFilter(appConfig.ProgramIgnores)
	if err != nil {
		zap.L().Fatal("Invalid program ignore list", zap.Error(err))
	}

	pub := publisher.New(publisherConfig(appConfig), producer, recorder)

	metricsServer := httpserver.New(registry)
	go func() {
		if err := metricsServer.Listen(appConfig.MetricsPort); err != nil {
			zap.L().Error("Metrics server stopped", zap.Error(err))
		}
	}()

	healthServer, err := geysergrpc.NewServer(appConfig.GRPCPort)
	if err != nil {
		zap.L().Fatal("Failed to create gRPC health server", zap.Error(err))
	}
	go func() {
		if err := healthServer.Start(); err != nil {
			zap.L().Error("gRPC health server stopped", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumerDone := make(chan struct{})
	if appConfig.IngestURL != "" {
		consumer, err := rabbitmq.NewConsumer(appConfig.IngestURL, rabbitmq.ConsumerConfig{
			Exchange:      appConfig.IngestExchange,
			QueueName:     appConfig.IngestQueue,
			RoutingKeys:   consumers.RoutingKeys,
			ServiceName:   appConfig.ServiceName,
			PrefetchCount: appConfig.IngestPrefetch,
		})
		if err != nil {
			zap.L().Fatal("Failed to create ingest consumer", zap.Error(err))
		}
		defer consumer.Close()

		handler := consumers.NewNodeEventHandler(pub, filter, zap.L().Named("ingest"))
		go func() {
			defer close(consumerDone)
			zap.L().Info("Starting node event consumer...")
			if err := consumer.Consume(ctx, handler.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
				zap.L().Error("Node event consumer error", zap.Error(err))
			}
		}()
	} else {
		close(consumerDone)
		zap.L().Warn("INGEST_URL not set, no events will be consumed")
	}

	metricsServer.SetReady(true)
	healthServer.SetServing(true)
	zap.L().Info("Publisher started successfully. Waiting for events...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	zap.L().Info("Shutdown signal received, stopping publisher...")

	metricsServer.SetReady(false)
	healthServer.SetServing(false)

	// stop feeding the publisher before it flushes
	cancel()
	<-consumerDone

	if err := pub.Close(); err != nil {
		zap.L().Error("Error closing broker producer", zap.Error(err))
	}

	healthServer.GracefulStop()
	if err := metricsServer.Shutdown(5 * time.Second); err != nil {
		zap.L().Error("Error during metrics server shutdown", zap.Error(err))
	}

	zap.L().Info("Publisher stopped gracefully")
}
