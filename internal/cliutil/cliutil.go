// Package cliutil holds the small pieces of terminal/formatting glue
// cmd/mapbundle needs: TTY detection for deciding how verbose to be,
// human-readable byte/duration formatting for the final summary line, and
// run-id/timestamp generation for log correlation.
package cliutil

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/ncruces/go-strftime"
	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to an interactive terminal
// (including a Cygwin/MSYS terminal), as reported by go-isatty.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// TerminalWidth returns stdout's column width, falling back to 80 when it
// can't be determined (not a terminal, or the query failed).
func TerminalWidth() int {
	if !IsTerminal(os.Stdout) {
		return 80
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// NewRunID returns a fresh run identifier for correlating one export run's
// log lines.
func NewRunID() string {
	return uuid.NewString()
}

// FormatTimestamp renders t as "2006-01-02 15:04:05", the form printed on
// the run's starting line.
func FormatTimestamp(t time.Time) string {
	s, err := strftime.Format("%Y-%m-%d %H:%M:%S", t)
	if err != nil {
		return t.Format("2006-01-02 15:04:05")
	}
	return s
}

// FormatBytes renders a byte count the way the summary does, e.g. "4.2 MB".
func FormatBytes(n int64) string {
	return humanize.Bytes(uint64(n))
}

// SummaryLine renders the final one-line run summary printed to stdout.
func SummaryLine(runID string, started time.Time, mapCount int, totalBytes int64) string {
	return fmt.Sprintf("run %s: %d maps, %s written, started %s",
		runID, mapCount, FormatBytes(totalBytes), humanize.Time(started))
}
