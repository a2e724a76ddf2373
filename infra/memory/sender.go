// Package memory delivers records to an in-process watermill GoChannel, for dry runs and
// tests that want to observe what would have reached the broker.
package memory

import (
	"context"
	"encoding/hex"

	"geyser/pkg/broker"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// MetadataKey carries the hex encoded record key.
const MetadataKey = "key"

type Sender struct {
	pubsub *gochannel.GoChannel
}

func NewSender(logger watermill.LoggerAdapter) *Sender {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &Sender{
		pubsub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 1024}, logger),
	}
}

func (s *Sender) Send(_ context.Context, rec broker.Record) error {
	msg := message.NewMessage(watermill.NewUUID(), rec.Payload)
	if rec.Key != nil {
		msg.Metadata.Set(MetadataKey, hex.EncodeToString(rec.Key))
	}
	if err := s.pubsub.Publish(rec.Topic, msg); err != nil {
		return broker.NewError(broker.KindUnavailable, rec.Topic, err)
	}
	return nil
}

// Subscribe returns the messages published on topic from now on.
func (s *Sender) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return s.pubsub.Subscribe(ctx, topic)
}

func (s *Sender) Close() error {
	return s.pubsub.Close()
}
