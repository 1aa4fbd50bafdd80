package progress

import (
	"fmt"
	"time"
)

// Phase is one named, sized stage of a multi-stage operation.
type Phase struct {
	Name  string
	Total int
}

// MultiPhase tracks progress across strictly sequential phases. Overall
// percent weighs each phase by its item count.
type MultiPhase struct {
	phases    []Phase
	opts      Options
	idx       int
	current   *Tracker
	startedAt time.Time
}

// NewMultiPhase creates a tracker over an ordered list of phases.
func NewMultiPhase(phases []Phase, opts Options) *MultiPhase {
	return &MultiPhase{
		phases:    phases,
		opts:      opts,
		startedAt: time.Now(),
	}
}

// StartPhase begins the next pending phase. It is a no-op once all phases
// have started.
func (m *MultiPhase) StartPhase() {
	if m.idx >= len(m.phases) {
		return
	}
	phase := m.phases[m.idx]
	label := fmt.Sprintf("Phase %d/%d: %s", m.idx+1, len(m.phases), phase.Name)
	m.current = New(phase.Total, label, m.opts)
}

// Update advances the current phase.
func (m *MultiPhase) Update(n int, message string) {
	if m.current == nil {
		return
	}
	m.current.Update(n, message)
}

// CompletePhase finishes the current phase and moves to the next.
func (m *MultiPhase) CompletePhase() {
	if m.current != nil {
		m.current.Complete("")
	}
	m.current = nil
	m.idx++
}

// OverallPercent returns completion across all phases: fully completed
// phases count their whole size, the running phase counts its current items.
func (m *MultiPhase) OverallPercent() float64 {
	totalItems := 0
	for _, phase := range m.phases {
		totalItems += phase.Total
	}
	if totalItems == 0 {
		return 100
	}

	completed := 0
	for i := 0; i < m.idx && i < len(m.phases); i++ {
		completed += m.phases[i].Total
	}
	if m.current != nil {
		completed += m.current.GetState().Current
	}
	return float64(completed) / float64(totalItems) * 100
}

// CompleteAll drains any remaining phases in order.
func (m *MultiPhase) CompleteAll() {
	for m.idx < len(m.phases) {
		if m.current == nil {
			m.StartPhase()
		}
		m.CompletePhase()
	}
}

// IsComplete reports whether every phase has finished.
func (m *MultiPhase) IsComplete() bool {
	return m.idx >= len(m.phases)
}

// Elapsed returns the time since the multi-phase tracker was created.
func (m *MultiPhase) Elapsed() time.Duration {
	return time.Since(m.startedAt)
}
