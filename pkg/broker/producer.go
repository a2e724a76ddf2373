// Package broker defines the delivery client contract shared by the broker backends and a
// bounded queue that gives synchronous senders the same fail-fast, asynchronous behaviour.
package broker

import "context"

// Record is the unit handed to the broker: destination topic, optional key, encoded payload.
type Record struct {
	Topic   string
	Key     []byte
	Payload []byte
}

// Producer submits records for asynchronous delivery.
//
// Send reports only whether the record was accepted into the local send queue; delivery
// and acknowledgement happen later on the producer's own goroutines. Send never blocks on
// network I/O and returns ErrQueueFull instead of waiting for room.
//
// Flush blocks until every accepted record has been handed to the transport or ctx is
// done, whichever comes first.
type Producer interface {
	Send(topic string, key, payload []byte) error
	Flush(ctx context.Context) error
	Close() error
}

// Sender delivers a single record synchronously. Queue turns a Sender into a Producer.
type Sender interface {
	Send(ctx context.Context, rec Record) error
	Close() error
}

// DeliveryFailureFunc is called from a producer's background goroutine when a record that
// was accepted by Send could not be delivered.
type DeliveryFailureFunc func(rec Record, err error)
