// Package export implements the export orchestrator: directory rotation,
// pk3 source registration, per-map dependency resolution and entity
// patching, and the final serverdata/httpshare output tree.
package export

import (
	"fmt"
	"sync"
)

const (
	levelInfo = iota
	levelWarning
)

type logMessage struct {
	level int
	msg   string
}

// Logger accumulates info/warning lines produced during a run (or during
// one map's processing), printing warnings (and, optionally, every info
// line) as they happen. Satisfies entityedit.Logger, resolve.Logger, and
// cache.Logger.
type Logger struct {
	mu       sync.Mutex
	messages []logMessage
	printAll bool
}

// NewLogger returns a Logger. When printAll is set, every Info call is
// echoed to stdout immediately rather than only warnings.
func NewLogger(printAll bool) *Logger {
	return &Logger{printAll: printAll}
}

// Info records an informational line.
func (l *Logger) Info(msg string) {
	l.record(levelInfo, msg)
	if l.printAll {
		fmt.Println("INFO: " + msg)
	}
}

// Force records an informational line and always prints it, regardless of
// printAll — used for the handful of summary lines the original always
// surfaces on stdout (pk3 counts, map counts).
func (l *Logger) Force(msg string) {
	l.record(levelInfo, msg)
	fmt.Println("INFO: " + msg)
}

// Warn records a warning line and always prints it.
func (l *Logger) Warn(msg string) {
	l.record(levelWarning, msg)
	fmt.Println("WARNING: " + msg)
}

func (l *Logger) record(level int, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, logMessage{level: level, msg: msg})
}

// Messages returns every recorded line at or above minLevel, prefixed by
// its level, in recording order.
func (l *Logger) Messages(minLevel int) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, m := range l.messages {
		if m.level < minLevel {
			continue
		}
		prefix := "INFO: "
		if m.level == levelWarning {
			prefix = "WARNING: "
		}
		out = append(out, prefix+m.msg)
	}
	return out
}

// Info and Warning level constants, exported for callers filtering messages.
const (
	LevelInfo    = levelInfo
	LevelWarning = levelWarning
)
