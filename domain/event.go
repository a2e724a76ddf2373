package domain

// EventKind names one of the three event streams.
type EventKind string

const (
	KindAccount     EventKind = "account"
	KindSlot        EventKind = "slot"
	KindTransaction EventKind = "transaction"
)
