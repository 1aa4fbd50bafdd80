package progress

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner indicates activity for operations with an unknown total. It carries
// no percentage, only an elapsed clock and a rotating frame.
type Spinner struct {
	message   string
	opts      Options
	idx       int
	startedAt time.Time
}

// NewSpinner creates a spinner with an initial status message.
// Only the Quiet and Writer options apply.
func NewSpinner(message string, opts Options) *Spinner {
	if opts.Writer == nil {
		opts.Writer = os.Stderr
	}
	return &Spinner{
		message:   message,
		opts:      opts,
		startedAt: time.Now(),
	}
}

// Tick advances the spinner one frame, optionally replacing the message.
func (s *Spinner) Tick(message string) {
	if message != "" {
		s.message = message
	}
	if s.opts.Quiet {
		return
	}

	frame := spinnerFrames[s.idx%len(spinnerFrames)]
	s.idx++
	fmt.Fprintf(s.opts.Writer, "\r%s %s (%s)\033[K",
		frame, s.message, formatDuration(time.Since(s.startedAt)))
}

// Complete stops the spinner with a final message.
func (s *Spinner) Complete(message string) {
	if s.opts.Quiet {
		return
	}
	check := color.New(color.FgGreen).Sprint("✓")
	fmt.Fprintf(s.opts.Writer, "\r%s %s (%s)\n",
		check, message, formatDuration(time.Since(s.startedAt)))
}

// Elapsed returns the time since the spinner was created.
func (s *Spinner) Elapsed() time.Duration {
	return time.Since(s.startedAt)
}
