// Package cli implements the canvaslayout command-line interface.
//
// The CLI is built with cobra, logs through charmbracelet/log and prints
// results with lipgloss styles.
//
// # Commands
//
//   - layout: compute positions for a workflow document
//   - render: draw the laid-out workflow as DOT, SVG or layout JSON
//   - animate: preview the transition from stored to computed positions
//   - serve: run the HTTP layout API
//   - cache: inspect or clear the local result cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, including
// dangling-parent repairs and blocks the layering could not reach.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, rounded to the millisecond.
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
