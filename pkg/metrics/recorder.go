// Package metrics counts publish outcomes. The counters reflect whether a record was
// accepted into the local send queue, not whether the broker acknowledged it, and should not
// be used to alert on delivery.
package metrics

import (
	"sync"

	"geyser/domain"
)

type Outcome string

const (
	Success Outcome = "success"
	Failed  Outcome = "failed"
)

func OutcomeOf(err error) Outcome {
	if err != nil {
		return Failed
	}
	return Success
}

// Recorder is called synchronously once per publish call.
type Recorder interface {
	Record(kind domain.EventKind, outcome Outcome)
}

// Memory keeps counts in process; tests use it to assert exact increments.
type Memory struct {
	mu     sync.Mutex
	counts map[domain.EventKind]map[Outcome]int
}

func NewMemory() *Memory {
	return &Memory{counts: make(map[domain.EventKind]map[Outcome]int)}
}

func (m *Memory) Record(kind domain.EventKind, outcome Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byOutcome, ok := m.counts[kind]
	if !ok {
		byOutcome = make(map[Outcome]int)
		m.counts[kind] = byOutcome
	}
	byOutcome[outcome]++
}

func (m *Memory) Count(kind domain.EventKind, outcome Outcome) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[kind][outcome]
}

// Nop discards everything.
type Nop struct{}

func (Nop) Record(domain.EventKind, Outcome) {}
