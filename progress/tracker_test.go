package progress

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// fakeClock lets tests control elapsed time deterministically.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTracker(total int, opts Options) (*Tracker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	tracker := New(total, "Analyzing files", opts)
	tracker.now = clock.now
	tracker.startedAt = clock.t
	tracker.lastRender = clock.t
	return tracker, clock
}

// --- Tracker ---

func Test_Tracker_Monotonic(t *testing.T) {
	tracker, clock := newTestTracker(10, Options{Quiet: true})

	previous := 0
	for i := 0; i < 10; i++ {
		clock.advance(time.Second)
		tracker.Update(1, "")
		state := tracker.GetState()
		if state.Current < previous {
			t.Fatalf("current decreased: %d -> %d", previous, state.Current)
		}
		previous = state.Current
	}
	if previous != 10 {
		t.Errorf("final current = %d, want 10", previous)
	}
}

func Test_Tracker_RateAndETA(t *testing.T) {
	tracker, clock := newTestTracker(100, Options{Quiet: true})

	clock.advance(10 * time.Second)
	tracker.Update(20, "")

	state := tracker.GetState()
	if state.ItemsPerSecond != 2.0 {
		t.Errorf("rate = %v, want 2.0", state.ItemsPerSecond)
	}
	// 80 remaining at 2/s.
	if state.ETASeconds != 40 {
		t.Errorf("eta = %ds, want 40s", state.ETASeconds)
	}
	if state.ETAFormatted != "40s" {
		t.Errorf("eta formatted = %q, want 40s", state.ETAFormatted)
	}
}

func Test_Tracker_NoETAWithoutRate(t *testing.T) {
	tracker, _ := newTestTracker(100, Options{Quiet: true})
	// No time has passed and nothing was processed.
	state := tracker.GetState()
	if state.ETASeconds != 0 || state.ETAFormatted != "" {
		t.Errorf("expected omitted ETA, got %+v", state)
	}
}

func Test_Tracker_ThrottlesIntermediateRenders(t *testing.T) {
	var buf bytes.Buffer
	tracker, clock := newTestTracker(5, Options{
		Writer:         &buf,
		JSONOutput:     true,
		UpdateInterval: time.Hour,
	})

	for i := 0; i < 4; i++ {
		clock.advance(time.Millisecond)
		tracker.Update(1, "")
	}
	if got := strings.Count(buf.String(), "\n"); got != 0 {
		t.Errorf("rendered %d intermediate lines despite throttle, want 0", got)
	}

	// Final update always renders.
	tracker.Update(1, "")
	if got := strings.Count(buf.String(), "\n"); got != 1 {
		t.Errorf("rendered %d lines after final update, want 1", got)
	}
}

func Test_Tracker_CompleteAlwaysRenders(t *testing.T) {
	var buf bytes.Buffer
	tracker, _ := newTestTracker(50, Options{
		Writer:         &buf,
		JSONOutput:     true,
		UpdateInterval: time.Hour,
	})

	tracker.Update(10, "")
	tracker.Complete("done")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d rendered lines, want 1 (complete only)", len(lines))
	}

	var record struct {
		State
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("invalid JSON line: %v", err)
	}
	if record.Type != "complete" {
		t.Errorf("type = %q, want complete", record.Type)
	}
	if record.Percent != 100 {
		t.Errorf("percent = %v, want 100", record.Percent)
	}
	if record.Current != 50 || record.Message != "done" {
		t.Errorf("unexpected final state: %+v", record.State)
	}
}

func Test_Tracker_UpdateAfterCompleteIgnored(t *testing.T) {
	tracker, _ := newTestTracker(10, Options{Quiet: true})
	tracker.Complete("")
	tracker.Update(5, "")

	state := tracker.GetState()
	if state.Current != 10 {
		t.Errorf("current = %d after post-complete update, want 10", state.Current)
	}
	if state.Percent != 100 {
		t.Errorf("percent = %v, want exactly 100", state.Percent)
	}
}

func Test_Tracker_HumanBar(t *testing.T) {
	var buf bytes.Buffer
	tracker, clock := newTestTracker(4, Options{
		Writer:         &buf,
		UpdateInterval: time.Nanosecond,
	})

	clock.advance(time.Second)
	tracker.Update(2, "src/app.py")

	out := buf.String()
	if !strings.Contains(out, "Analyzing files:") {
		t.Errorf("missing phase label in %q", out)
	}
	if !strings.Contains(out, "(2/4)") {
		t.Errorf("missing counts in %q", out)
	}
	if !strings.Contains(out, "src/app.py") {
		t.Errorf("missing message in %q", out)
	}
}

func Test_Tracker_Callback(t *testing.T) {
	var states []State
	tracker, clock := newTestTracker(2, Options{
		Quiet:          true,
		UpdateInterval: time.Nanosecond,
		Callback:       func(s State) { states = append(states, s) },
	})

	clock.advance(time.Second)
	tracker.Update(1, "")
	clock.advance(time.Second)
	tracker.Update(1, "")

	if len(states) != 2 {
		t.Fatalf("callback fired %d times, want 2", len(states))
	}
	if states[1].Percent != 100 {
		t.Errorf("final callback percent = %v, want 100", states[1].Percent)
	}
}

func Test_Tracker_ZeroTotal(t *testing.T) {
	tracker, _ := newTestTracker(0, Options{Quiet: true})
	if got := tracker.GetState().Percent; got != 100 {
		t.Errorf("percent with zero total = %v, want 100", got)
	}
}

// --- formatDuration ---

func Test_FormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"Seconds_zero", 0, "0s"},
		{"Seconds_45", 45 * time.Second, "45s"},
		{"Minutes_2m5s", 2*time.Minute + 5*time.Second, "2m5s"},
		{"Hours_1h30m", 90 * time.Minute, "1h30m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatDuration(tt.duration); got != tt.expected {
				t.Errorf("formatDuration(%v) = %q, want %q", tt.duration, got, tt.expected)
			}
		})
	}
}

// --- MultiPhase ---

func Test_MultiPhase_OverallPercent(t *testing.T) {
	m := NewMultiPhase([]Phase{
		{Name: "Discovering", Total: 50},
		{Name: "Analyzing", Total: 100},
		{Name: "Merging", Total: 50},
	}, Options{Quiet: true})

	if got := m.OverallPercent(); got != 0 {
		t.Errorf("initial percent = %v, want 0", got)
	}

	m.StartPhase()
	m.Update(50, "")
	m.CompletePhase()
	if got := m.OverallPercent(); got != 25 {
		t.Errorf("after phase 1: percent = %v, want 25", got)
	}

	m.StartPhase()
	m.Update(50, "")
	if got := m.OverallPercent(); got != 50 {
		t.Errorf("mid phase 2: percent = %v, want 50", got)
	}

	m.CompletePhase()
	m.StartPhase()
	m.CompletePhase()
	if got := m.OverallPercent(); got != 100 {
		t.Errorf("final percent = %v, want 100", got)
	}
	if !m.IsComplete() {
		t.Error("expected all phases complete")
	}
}

func Test_MultiPhase_CompleteAll(t *testing.T) {
	m := NewMultiPhase([]Phase{
		{Name: "One", Total: 10},
		{Name: "Two", Total: 10},
		{Name: "Three", Total: 10},
	}, Options{Quiet: true})

	m.StartPhase()
	m.Update(3, "")

	m.CompleteAll()
	if !m.IsComplete() {
		t.Error("expected completion after CompleteAll")
	}
	if got := m.OverallPercent(); got != 100 {
		t.Errorf("percent after CompleteAll = %v, want 100", got)
	}
}

func Test_MultiPhase_Empty(t *testing.T) {
	m := NewMultiPhase(nil, Options{Quiet: true})
	if got := m.OverallPercent(); got != 100 {
		t.Errorf("empty multiphase percent = %v, want 100", got)
	}
	if !m.IsComplete() {
		t.Error("empty multiphase should be complete")
	}
}

// --- Spinner ---

func Test_Spinner_RendersFramesAndCompletion(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner("Scanning", Options{Writer: &buf})

	s.Tick("")
	s.Tick("still scanning")
	s.Complete("Scan finished")

	out := buf.String()
	if !strings.Contains(out, "Scanning") {
		t.Errorf("missing initial message in %q", out)
	}
	if !strings.Contains(out, "still scanning") {
		t.Errorf("missing updated message in %q", out)
	}
	if !strings.Contains(out, "Scan finished") {
		t.Errorf("missing completion message in %q", out)
	}
}

func Test_Spinner_Quiet(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner("Scanning", Options{Writer: &buf, Quiet: true})
	s.Tick("")
	s.Complete("done")
	if buf.Len() != 0 {
		t.Errorf("quiet spinner wrote output: %q", buf.String())
	}
}
