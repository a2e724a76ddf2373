package broker

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of local failure classes a Producer reports.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindQueueFull
	KindUnavailable
	KindPayloadTooLarge
)

func (k ErrorKind) String() string {
	switch k {
	case KindQueueFull:
		return "queue_full"
	case KindUnavailable:
		return "unavailable"
	case KindPayloadTooLarge:
		return "payload_too_large"
	default:
		return "other"
	}
}

var (
	ErrQueueFull       = errors.New("send queue is full")
	ErrUnavailable     = errors.New("broker connection unavailable")
	ErrPayloadTooLarge = errors.New("message exceeds maximum size")
)

// Error is returned by every Producer in this module. It matches the sentinel of its kind
// with errors.Is and unwraps to the backend's own error when there is one.
type Error struct {
	Kind  ErrorKind
	Topic string
	Err   error
}

func NewError(kind ErrorKind, topic string, err error) *Error {
	return &Error{Kind: kind, Topic: topic, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if s := sentinel(e.Kind); s != nil {
		msg = s.Error()
	}
	if e.Err != nil && e.Err != sentinel(e.Kind) {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Topic != "" {
		return fmt.Sprintf("broker: topic %q: %s", e.Topic, msg)
	}
	return "broker: " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	s := sentinel(e.Kind)
	return s != nil && target == s
}

// KindOf reports the kind of err, or KindOther when err did not come from a Producer.
func KindOf(err error) ErrorKind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	switch {
	case errors.Is(err, ErrQueueFull):
		return KindQueueFull
	case errors.Is(err, ErrUnavailable):
		return KindUnavailable
	case errors.Is(err, ErrPayloadTooLarge):
		return KindPayloadTooLarge
	}
	return KindOther
}

func sentinel(kind ErrorKind) error {
	switch kind {
	case KindQueueFull:
		return ErrQueueFull
	case KindUnavailable:
		return ErrUnavailable
	case KindPayloadTooLarge:
		return ErrPayloadTooLarge
	}
	return nil
}
