// Package progressbar implements functionality of printing training
// progress to the terminal window
package progressbar

import (
	"fmt"
	"io"
	"time"
)

// Status displays a single live status line summarizing the training
// run so far. Each call to Report overwrites the previous line, so the
// terminal shows only the most recent iteration.
type Status struct {
	out     io.Writer
	started time.Time
	closed  bool
}

// NewStatus returns a new Status writing its status line to out
func NewStatus(out io.Writer) *Status {
	return &Status{
		out:     out,
		started: time.Now(),
	}
}

// Report overwrites the status line with the statistics of the latest
// training iteration
func (s *Status) Report(iteration, steps int, loss, threshold,
	mean float64) {
	if s.closed {
		return
	}

	elapsed := time.Since(s.started).Round(time.Second)
	fmt.Fprintf(s.out, "\r\033[Kbatch %d | steps %d | loss %.4f | "+
		"threshold %.2f | mean %.2f | elapsed %v",
		iteration, steps, loss, threshold, mean, elapsed)
}

// Close closes the Status so that it will no longer display to the
// screen, jumping to the next line after the printed status.
func (s *Status) Close() {
	if s.closed {
		panic("close: close on closed status line")
	}
	s.closed = true
	fmt.Fprintln(s.out)
}
