package kafka_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"geyser/infra/kafka"
	"geyser/pkg/broker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

// unreachable has nothing listening, so records stay buffered.
const unreachable = "127.0.0.1:1"

func newProducer(t *testing.T, cfg kafka.Config) *kafka.Producer {
	t.Helper()
	cfg.Brokers = []string{unreachable}
	cfg.Logger = zap.NewNop()
	p, err := kafka.NewProducer(cfg)
	require.NoError(t, err)
	return p
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want broker.ErrorKind
	}{
		{name: "max buffered", err: kgo.ErrMaxBuffered, want: broker.KindQueueFull},
		{name: "message too large", err: kerr.MessageTooLarge, want: broker.KindPayloadTooLarge},
		{name: "wrapped client closed", err: fmt.Errorf("produce: %w", kgo.ErrClientClosed), want: broker.KindUnavailable},
		{name: "record timeout", err: kgo.ErrRecordTimeout, want: broker.KindUnavailable},
		{name: "unknown", err: errors.New("boom"), want: broker.KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, kafka.Classify(tt.err))
		})
	}
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := kafka.NewProducer(kafka.Config{})
	assert.Error(t, err)
}

func TestProducer_PayloadTooLarge(t *testing.T) {
	p := newProducer(t, kafka.Config{MaxMessageBytes: 4})
	defer p.Close()

	err := p.Send("accounts", []byte("key"), []byte("payload"))
	assert.ErrorIs(t, err, broker.ErrPayloadTooLarge)
}

func TestProducer_EnqueueIsLocal(t *testing.T) {
	failed := make(chan error, 4)
	p := newProducer(t, kafka.Config{
		MaxBufferedRecords: 1,
		OnFailure: func(rec broker.Record, err error) {
			failed <- err
		},
	})

	// accepted although no broker is reachable
	require.NoError(t, p.Send("slots", nil, []byte{1}))

	err := p.Send("slots", nil, []byte{2})
	assert.ErrorIs(t, err, broker.ErrQueueFull)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.Error(t, p.Flush(ctx))

	require.NoError(t, p.Close())
	select {
	case err := <-failed:
		assert.Equal(t, broker.KindUnavailable, broker.KindOf(err))
	case <-time.After(5 * time.Second):
		t.Fatal("buffered record was not failed on close")
	}

	err = p.Send("slots", nil, []byte{3})
	assert.ErrorIs(t, err, broker.ErrUnavailable)
}
