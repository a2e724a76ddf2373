// Package publisher forwards decoded node events to a message broker.
//
// Each publish call resolves the topic, encodes the event and hands the record to a
// broker.Producer, then records the local enqueue outcome. A nil error means the record was
// queued, not that the broker has it. Records still queued when Close's flush deadline
// expires are lost; this is the known data-loss window on shutdown.
package publisher

import (
	"context"
	"errors"
	"sync"
	"time"

	"geyser/domain"
	"geyser/pkg/broker"
	"geyser/pkg/events"
	"geyser/pkg/metrics"

	"go.uber.org/zap"
)

// ErrClosed is returned by publish calls made after Close has started.
var ErrClosed = broker.NewError(broker.KindUnavailable, "", errors.New("publisher closed"))

// Config is fixed for the lifetime of a Publisher. An empty topic disables that stream.
type Config struct {
	ShutdownTimeout        time.Duration
	UpdateAccountTopic     string
	SlotStatusTopic        string
	TransactionTopic       string
	PublishSeparateProgram bool
	WrapMessages           bool
}

type Option func(*Publisher)

func WithLogger(logger *zap.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

type Publisher struct {
	producer        broker.Producer
	recorder        metrics.Recorder
	router          Router
	serializer      events.Serializer
	shutdownTimeout time.Duration
	logger          *zap.Logger

	cfg Config

	// publish calls hold the read lock; Close takes the write lock to flip closed, so
	// every publish either completes before the flush starts or sees closed.
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

func New(cfg Config, producer broker.Producer, recorder metrics.Recorder, opts ...Option) *Publisher {
	if recorder == nil {
		recorder = metrics.Nop{}
	}

	p := &Publisher{
		producer:        producer,
		recorder:        recorder,
		router:          NewRouter(cfg),
		serializer:      events.Serializer{Wrap: cfg.WrapMessages},
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          zap.L(),
		cfg:             cfg,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PublishAccountUpdate keys the record by the account pubkey.
func (p *Publisher) PublishAccountUpdate(ev *domain.AccountUpdateEvent) error {
	return p.publish(domain.KindAccount, func() (string, []byte, []byte) {
		return p.router.AccountTopic(ev), ev.Pubkey.Bytes(), p.serializer.AccountUpdate(ev)
	})
}

func (p *Publisher) PublishSlotStatus(ev *domain.SlotStatusEvent) error {
	return p.publish(domain.KindSlot, func() (string, []byte, []byte) {
		return p.router.SlotStatusTopic(), nil, p.serializer.SlotStatus(ev)
	})
}

func (p *Publisher) PublishTransaction(ev *domain.TransactionEvent) error {
	return p.publish(domain.KindTransaction, func() (string, []byte, []byte) {
		return p.router.TransactionTopic(), nil, p.serializer.Transaction(ev)
	})
}

func (p *Publisher) publish(kind domain.EventKind, build func() (topic string, key, payload []byte)) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var err error
	if p.closed {
		err = ErrClosed
	} else {
		topic, key, payload := build()
		err = p.producer.Send(topic, key, payload)
	}
	p.recorder.Record(kind, metrics.OutcomeOf(err))
	return err
}

func (p *Publisher) WantsAccountUpdates() bool {
	return p.cfg.UpdateAccountTopic != ""
}

func (p *Publisher) WantsSlotStatus() bool {
	return p.cfg.SlotStatusTopic != ""
}

func (p *Publisher) WantsTransactions() bool {
	return p.cfg.TransactionTopic != ""
}

// Close stops accepting events and flushes the producer for at most the configured
// shutdown timeout. A flush that times out is logged, not returned: whatever is still
// queued at that point is dropped. Only the first call does any work.
func (p *Publisher) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), p.shutdownTimeout)
		defer cancel()

		start := time.Now()
		if flushErr := p.producer.Flush(ctx); flushErr != nil {
			p.logger.Warn("Flush did not complete before shutdown timeout, queued events are lost",
				zap.Duration("timeout", p.shutdownTimeout),
				zap.Error(flushErr),
			)
		} else {
			p.logger.Info("Publisher flushed", zap.Duration("took", time.Since(start)))
		}

		err = p.producer.Close()
	})
	return err
}
