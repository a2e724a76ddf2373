package broker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const flushPollInterval = 5 * time.Millisecond

// QueueConfig sizes a Queue.
type QueueConfig struct {
	Capacity        int           // records buffered before Send fails with ErrQueueFull
	MaxMessageBytes int           // key plus payload; 0 disables the check
	SendTimeout     time.Duration // per-record deadline for the underlying Sender; 0 means none
	OnFailure       DeliveryFailureFunc
	Logger          *zap.Logger
}

// Queue is a Producer backed by a bounded channel and one worker goroutine that hands
// records to a synchronous Sender in submission order.
type Queue struct {
	sender  Sender
	cfg     QueueConfig
	logger  *zap.Logger
	records chan Record
	pending atomic.Int64
	done    chan struct{}

	mu     sync.RWMutex
	closed bool

	closeOnce sync.Once
	closeErr  error
}

func NewQueue(sender Sender, cfg QueueConfig) *Queue {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.L()
	}

	q := &Queue{
		sender:  sender,
		cfg:     cfg,
		logger:  logger,
		records: make(chan Record, cfg.Capacity),
		done:    make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) Send(topic string, key, payload []byte) error {
	if q.cfg.MaxMessageBytes > 0 && len(key)+len(payload) > q.cfg.MaxMessageBytes {
		return NewError(KindPayloadTooLarge, topic, nil)
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return NewError(KindUnavailable, topic, errors.New("queue closed"))
	}

	q.pending.Add(1)
	select {
	case q.records <- Record{Topic: topic, Key: key, Payload: payload}:
		return nil
	default:
		q.pending.Add(-1)
		return NewError(KindQueueFull, topic, nil)
	}
}

// Pending returns the number of accepted records not yet handed to the Sender.
func (q *Queue) Pending() int64 {
	return q.pending.Load()
}

func (q *Queue) Flush(ctx context.Context) error {
	ticker := time.NewTicker(flushPollInterval)
	defer ticker.Stop()

	for q.pending.Load() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Close stops accepting records, lets the worker finish what is queued and closes the
// Sender. Call Flush first to bound how long the drain may take; Close itself does not wait
// for the worker when the Sender is stuck.
func (q *Queue) Close() error {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.records)
		q.mu.Unlock()

		if q.pending.Load() == 0 {
			<-q.done
		}
		q.closeErr = q.sender.Close()
	})
	return q.closeErr
}

func (q *Queue) run() {
	defer close(q.done)

	for rec := range q.records {
		q.deliver(rec)
		q.pending.Add(-1)
	}
}

func (q *Queue) deliver(rec Record) {
	ctx := context.Background()
	if q.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.cfg.SendTimeout)
		defer cancel()
	}

	if err := q.sender.Send(ctx, rec); err != nil {
		q.logger.Warn("Failed to deliver record",
			zap.String("topic", rec.Topic),
			zap.Int("payloadBytes", len(rec.Payload)),
			zap.Error(err),
		)
		if q.cfg.OnFailure != nil {
			q.cfg.OnFailure(rec, err)
		}
	}
}
