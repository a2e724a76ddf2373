package domain

import "fmt"

// SlotStatus values match the SlotStatus enum of the published schema.
type SlotStatus int32

const (
	SlotProcessed SlotStatus = 0
	SlotRooted    SlotStatus = 1
	SlotConfirmed SlotStatus = 2
)

func (s SlotStatus) String() string {
	switch s {
	case SlotProcessed:
		return "processed"
	case SlotRooted:
		return "rooted"
	case SlotConfirmed:
		return "confirmed"
	default:
		return fmt.Sprintf("SlotStatus(%d)", int32(s))
	}
}

func (s SlotStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SlotStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "processed":
		*s = SlotProcessed
	case "rooted":
		*s = SlotRooted
	case "confirmed":
		*s = SlotConfirmed
	default:
		return fmt.Errorf("unknown slot status %q", string(text))
	}
	return nil
}

type SlotStatusEvent struct {
	Slot   uint64     `json:"slot"`
	Parent *uint64    `json:"parent,omitempty"`
	Status SlotStatus `json:"status"`
}
