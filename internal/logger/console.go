// Package logger provides the leveled console logger used for pfind
// diagnostics.
//
// Messages are written as "[HH:MM:SS] [LEVEL] message". The level tag is
// colorized when the destination is a terminal. Implementations are safe for
// concurrent use; the sorted pipeline logs from several goroutines.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// DefaultLevel keeps a normal run silent on stderr apart from errors and
// skipped entries.
const DefaultLevel = "warn"

// ValidLevels lists the accepted level names, most verbose first.
var ValidLevels = []string{"trace", "debug", "info", "warn", "error"}

// ConsoleLogger logs to a writer with timestamps and thread safety.
// It supports log level filtering to control message verbosity.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// If logLevel is empty or invalid, DefaultLevel is used.
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal reports whether w is a TTY that should receive ANSI colors.
// NO_COLOR (via color.NoColor) always wins.
func isTerminal(w io.Writer) bool {
	if w == nil || color.NoColor {
		return false
	}

	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// IsValidLevel reports whether level names one of ValidLevels.
func IsValidLevel(level string) bool {
	normalized := strings.ToLower(strings.TrimSpace(level))
	for _, l := range ValidLevels {
		if l == normalized {
			return true
		}
	}
	return false
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
func normalizeLogLevel(level string) string {
	if IsValidLevel(level) {
		return strings.ToLower(strings.TrimSpace(level))
	}
	return DefaultLevel
}

// Level returns the normalized level the logger filters at.
func (cl *ConsoleLogger) Level() string {
	return cl.logLevel
}

// shouldLog checks if a message at the given level should be logged.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// Enabled reports whether messages at level would be written. Callers use it
// to skip building expensive messages.
func (cl *ConsoleLogger) Enabled(level string) bool {
	return cl.writer != nil && cl.shouldLog(strings.ToLower(level))
}

func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// LogTrace logs a trace-level message (most verbose).
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil {
		return
	}

	if !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var formatted string
	if cl.colorOutput {
		formatted = cl.formatWithColor(ts, level, message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}

	cl.writer.Write([]byte(formatted))
}

// formatWithColor formats a log message with ANSI color codes.
func (cl *ConsoleLogger) formatWithColor(ts, level, message string) string {
	var coloredLevel string

	switch strings.ToUpper(level) {
	case "TRACE":
		coloredLevel = color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		coloredLevel = color.New(color.FgCyan).Sprint(level)
	case "INFO":
		coloredLevel = color.New(color.FgBlue).Sprint(level)
	case "WARN":
		coloredLevel = color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		coloredLevel = color.New(color.FgRed).Sprint(level)
	default:
		coloredLevel = level
	}

	return fmt.Sprintf("[%s] [%s] %s\n", ts, coloredLevel, message)
}

// WalkSummary is what LogWalkSummary reports about a finished walk.
type WalkSummary struct {
	Root     string
	Spec     string
	Visited  int
	Matched  int
	Skipped  int
	Duration time.Duration
}

// LogWalkSummary logs the totals of one walk at INFO level.
// Format: "[HH:MM:SS] [INFO] walked <root> for <spec>: N visited, N matched, N skipped (<duration>)"
func (cl *ConsoleLogger) LogWalkSummary(s WalkSummary) {
	if !cl.Enabled("info") {
		return
	}

	skipped := fmt.Sprintf("%d skipped", s.Skipped)
	if cl.colorOutput && s.Skipped > 0 {
		skipped = color.New(color.FgYellow).Sprint(skipped)
	}

	cl.LogInfo(fmt.Sprintf("walked %s for %s: %d visited, %d matched, %s (%s)",
		s.Root, s.Spec, s.Visited, s.Matched, skipped, formatDuration(s.Duration)))
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration renders d with millisecond precision below one second and
// as "1m5s" style otherwise.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

// NoOpLogger discards every message.
type NoOpLogger struct{}

// NewNoOpLogger creates a logger that writes nothing.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) LogTrace(message string) {}
func (n *NoOpLogger) LogDebug(message string) {}
func (n *NoOpLogger) LogInfo(message string)  {}
func (n *NoOpLogger) LogWarn(message string)  {}
func (n *NoOpLogger) LogError(message string) {}

// Enabled always reports false.
func (n *NoOpLogger) Enabled(level string) bool { return false }
