// Package logger writes the diagnostic lines behind --verbose. Debug, info
// and warning lines appear only in verbose mode; errors always appear.
// Output goes to stderr so it never mixes with command output.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

type level uint8

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
)

var tags = [...]string{
	levelDebug: "[DEBUG] ",
	levelInfo:  "[INFO] ",
	levelWarn:  "[WARN] ",
	levelError: "[ERROR] ",
}

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose turns verbose mode on or off.
func SetVerbose(v bool) {
	mu.Lock()
	verbose = v
	mu.Unlock()
}

// IsVerbose reports whether verbose mode is on.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects every logger, for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	output = w
	mu.Unlock()
}

// Logger tags its lines with a component name, "[ingest] " for example.
// The zero value logs untagged.
type Logger struct {
	prefix string
}

var std Logger

// With returns a logger that tags every line with [component].
func With(component string) *Logger {
	return &Logger{prefix: "[" + component + "] "}
}

// write holds the write lock so concurrent lines never interleave.
func (l *Logger) write(lvl level, format string, args []any) {
	mu.Lock()
	defer mu.Unlock()
	if lvl < levelError && !verbose {
		return
	}
	fmt.Fprintf(output, tags[lvl]+l.prefix+format+"\n", args...)
}

func (l *Logger) Debug(format string, args ...any) { l.write(levelDebug, format, args) }
func (l *Logger) Info(format string, args ...any)  { l.write(levelInfo, format, args) }
func (l *Logger) Warn(format string, args ...any)  { l.write(levelWarn, format, args) }
func (l *Logger) Error(format string, args ...any) { l.write(levelError, format, args) }

func Debug(format string, args ...any) { std.write(levelDebug, format, args) }
func Info(format string, args ...any)  { std.write(levelInfo, format, args) }
func Warn(format string, args ...any)  { std.write(levelWarn, format, args) }
func Error(format string, args ...any) { std.write(levelError, format, args) }

// Section prints a "=== name ===" header in verbose mode, to split the
// output of pipeline stages.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}
