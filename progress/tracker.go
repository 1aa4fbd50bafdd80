// Package progress provides terminal progress reporting for long scans:
// a throttled single-phase tracker with rate and ETA estimation, a
// multi-phase sequencer, and a spinner for indeterminate work.
package progress

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// DefaultUpdateInterval is the minimum time between rendered lines.
const DefaultUpdateInterval = 500 * time.Millisecond

const barWidth = 40

// State is an immutable snapshot of a tracker, suitable for machine-readable
// consumption.
type State struct {
	Phase          string  `json:"phase"`
	Current        int     `json:"current"`
	Total          int     `json:"total"`
	Percent        float64 `json:"percent"`
	ItemsPerSecond float64 `json:"itemsPerSecond"`
	ETASeconds     int     `json:"etaSeconds,omitempty"`
	ETAFormatted   string  `json:"etaFormatted,omitempty"`
	Message        string  `json:"message,omitempty"`
}

// Options configures a Tracker or Spinner.
type Options struct {
	// UpdateInterval throttles rendering. Defaults to DefaultUpdateInterval.
	UpdateInterval time.Duration
	// Quiet suppresses all rendering; state is still tracked.
	Quiet bool
	// JSONOutput renders one JSON object per line instead of a bar.
	JSONOutput bool
	// Writer receives rendered output. Defaults to os.Stderr; stdout may be
	// an MCP transport and must stay clean.
	Writer io.Writer
	// Callback fires with a state snapshot on every update.
	Callback func(State)
}

// Tracker reports progress for a phase with a known item count.
// Its lifecycle is Created -> Running -> Completed; the counter is
// monotonically non-decreasing and updates after Complete are ignored.
type Tracker struct {
	mu     sync.Mutex
	total  int
	phase  string
	opts   Options
	ncolor *color.Color

	current    int
	startedAt  time.Time
	lastRender time.Time
	rate       float64
	eta        time.Duration
	hasETA     bool
	message    string
	completed  bool

	now func() time.Time
}

// New creates a tracker for total items in the named phase.
func New(total int, phase string, opts Options) *Tracker {
	if opts.UpdateInterval <= 0 {
		opts.UpdateInterval = DefaultUpdateInterval
	}
	if opts.Writer == nil {
		opts.Writer = os.Stderr
	}

	t := &Tracker{
		total:  total,
		phase:  phase,
		opts:   opts,
		ncolor: color.New(color.FgCyan),
		now:    time.Now,
	}
	t.startedAt = t.now()
	t.lastRender = t.startedAt
	return t
}

// Update advances the counter by n and recomputes rate and ETA. A line is
// rendered at most once per update interval, except the final update
// (current == total) which always renders.
func (t *Tracker) Update(n int, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.completed {
		return
	}

	t.current += n
	if message != "" {
		t.message = message
	}
	t.recompute()

	now := t.now()
	if now.Sub(t.lastRender) < t.opts.UpdateInterval && t.current < t.total {
		return
	}
	t.lastRender = now

	if !t.opts.Quiet {
		t.render(false)
	}
	if t.opts.Callback != nil {
		t.opts.Callback(t.snapshot())
	}
}

// Complete forces the counter to total, renders a final line, and stops the
// tracker. The terminal state is always visible regardless of throttling.
func (t *Tracker) Complete(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.completed {
		return
	}
	t.current = t.total
	if message != "" {
		t.message = message
	}
	t.recompute()
	t.completed = true

	if !t.opts.Quiet {
		t.render(true)
	}
	if t.opts.Callback != nil {
		t.opts.Callback(t.snapshot())
	}
}

// GetState returns a snapshot of the current progress.
func (t *Tracker) GetState() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot()
}

// Elapsed returns the time since the tracker was created.
func (t *Tracker) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.now().Sub(t.startedAt)
}

// recompute derives rate and ETA from the counter and elapsed time.
// Caller holds the lock.
func (t *Tracker) recompute() {
	elapsed := t.now().Sub(t.startedAt).Seconds()
	t.rate = 0
	t.hasETA = false
	if elapsed <= 0 {
		return
	}
	t.rate = float64(t.current) / elapsed
	if t.rate > 0 && t.current < t.total {
		remaining := float64(t.total-t.current) / t.rate
		t.eta = time.Duration(remaining) * time.Second
		t.hasETA = true
	}
}

func (t *Tracker) snapshot() State {
	state := State{
		Phase:          t.phase,
		Current:        t.current,
		Total:          t.total,
		Percent:        percentOf(t.current, t.total),
		ItemsPerSecond: math.Round(t.rate*100) / 100,
		Message:        t.message,
	}
	if t.hasETA {
		state.ETASeconds = int(t.eta.Seconds())
		state.ETAFormatted = formatDuration(t.eta)
	}
	return state
}

// render writes one progress line. Caller holds the lock.
func (t *Tracker) render(final bool) {
	if t.opts.JSONOutput {
		t.renderJSON(final)
		return
	}

	percent := percentOf(t.current, t.total)
	filled := barWidth
	if t.total > 0 {
		filled = barWidth * t.current / t.total
		if filled > barWidth {
			filled = barWidth
		}
	}
	bar := t.ncolor.Sprint(strings.Repeat("█", filled)) + strings.Repeat("░", barWidth-filled)

	var extras strings.Builder
	if t.rate > 0 {
		fmt.Fprintf(&extras, " [%.1f/s]", t.rate)
	}
	if t.hasETA {
		fmt.Fprintf(&extras, " ETA: %s", formatDuration(t.eta))
	}
	if t.message != "" {
		fmt.Fprintf(&extras, " | %s", t.message)
	}

	fmt.Fprintf(t.opts.Writer, "\r%s: [%s] %5.1f%% (%d/%d)%s\033[K",
		t.phase, bar, percent, t.current, t.total, extras.String())
	if final {
		fmt.Fprint(t.opts.Writer, "\n")
	}
}

// renderJSON writes one JSON record per line for tooling. Caller holds the lock.
func (t *Tracker) renderJSON(final bool) {
	record := struct {
		State
		Type string `json:"type"`
	}{State: t.snapshot(), Type: "progress"}
	if final {
		record.Type = "complete"
	}

	data, err := json.Marshal(record)
	if err != nil {
		return
	}
	fmt.Fprintf(t.opts.Writer, "%s\n", data)
}

func percentOf(current, total int) float64 {
	if total <= 0 {
		return 100
	}
	percent := float64(current) / float64(total) * 100
	if percent > 100 {
		percent = 100
	}
	return math.Round(percent*10) / 10
}

// formatDuration renders a duration compactly: 42s, 3m10s, 2h5m.
func formatDuration(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	if totalSeconds < 60 {
		return fmt.Sprintf("%ds", totalSeconds)
	}
	totalMinutes := totalSeconds / 60
	remainderSeconds := totalSeconds % 60
	if totalMinutes < 60 {
		return fmt.Sprintf("%dm%ds", totalMinutes, remainderSeconds)
	}
	hours := totalMinutes / 60
	remainderMinutes := totalMinutes % 60
	return fmt.Sprintf("%dh%dm", hours, remainderMinutes)
}
