package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"geyser/pkg/broker"

	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kzap"
	"go.uber.org/zap"
)

type Config struct {
	Brokers            []string
	ClientID           string
	MaxBufferedRecords int
	MaxMessageBytes    int
	OnFailure          broker.DeliveryFailureFunc
	Logger             *zap.Logger
	ExtraOpts          []kgo.Opt
}

// Producer implements broker.Producer on a franz-go client. The client batches and ships
// records on its own goroutines; Send only decides whether a record may enter its buffer.
type Producer struct {
	client          *kgo.Client
	maxBuffered     int64
	maxMessageBytes int
	onFailure       broker.DeliveryFailureFunc
	logger          *zap.Logger
	closed          atomic.Bool
}

// NewProducer creates the client. No connection is made until the first record or Ping.
func NewProducer(cfg Config) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: at least one seed broker is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.L()
	}
	if cfg.MaxBufferedRecords <= 0 {
		cfg.MaxBufferedRecords = 10000
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.MaxBufferedRecords(cfg.MaxBufferedRecords),
		// account topics are suffixed per owning program and appear on demand
		kgo.AllowAutoTopicCreation(),
		kgo.WithLogger(kzap.New(logger.Named("kgo"))),
	}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}
	opts = append(opts, cfg.ExtraOpts...)

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	return &Producer{
		client:          client,
		maxBuffered:     int64(cfg.MaxBufferedRecords),
		maxMessageBytes: cfg.MaxMessageBytes,
		onFailure:       cfg.OnFailure,
		logger:          logger,
	}, nil
}

// Ping checks that at least one broker answers.
func (p *Producer) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx); err != nil {
		return broker.NewError(broker.KindUnavailable, "", err)
	}
	return nil
}

func (p *Producer) Send(topic string, key, payload []byte) error {
	if p.closed.Load() {
		return broker.NewError(broker.KindUnavailable, topic, kgo.ErrClientClosed)
	}
	if p.maxMessageBytes > 0 && len(key)+len(payload) > p.maxMessageBytes {
		return broker.NewError(broker.KindPayloadTooLarge, topic, nil)
	}
	// The buffer check races with other senders; a record that slips past it is failed by
	// the client with ErrMaxBuffered and reported through the delivery callback.
	if p.client.BufferedProduceRecords() >= p.maxBuffered {
		return broker.NewError(broker.KindQueueFull, topic, kgo.ErrMaxBuffered)
	}

	p.client.TryProduce(context.Background(), &kgo.Record{
		Topic: topic,
		Key:   key,
		Value: payload,
	}, p.delivered)
	return nil
}

func (p *Producer) delivered(r *kgo.Record, err error) {
	if err == nil {
		return
	}
	kind := Classify(err)
	p.logger.Warn("Failed to deliver record",
		zap.String("topic", r.Topic),
		zap.String("kind", kind.String()),
		zap.Error(err),
	)
	if p.onFailure != nil {
		p.onFailure(broker.Record{Topic: r.Topic, Key: r.Key, Payload: r.Value}, broker.NewError(kind, r.Topic, err))
	}
}

func (p *Producer) Flush(ctx context.Context) error {
	return p.client.Flush(ctx)
}

// Close shuts the client down. Records still buffered are failed with ErrClientClosed.
func (p *Producer) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	p.client.Close()
	return nil
}

// Classify maps franz-go and Kafka protocol errors onto broker error kinds.
func Classify(err error) broker.ErrorKind {
	switch {
	case err == nil:
		return broker.KindOther
	case errors.Is(err, kgo.ErrMaxBuffered):
		return broker.KindQueueFull
	case errors.Is(err, kerr.MessageTooLarge), errors.Is(err, kerr.RecordListTooLarge):
		return broker.KindPayloadTooLarge
	case errors.Is(err, kgo.ErrClientClosed),
		errors.Is(err, kgo.ErrRecordTimeout),
		errors.Is(err, kgo.ErrRecordRetries),
		errors.Is(err, kerr.NotEnoughReplicas),
		errors.Is(err, kerr.LeaderNotAvailable):
		return broker.KindUnavailable
	}
	return broker.KindOther
}
