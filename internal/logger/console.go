// Package logger provides the leveled console logger used across finddoc
// commands. Output goes to stderr so it never mixes with picker pipes, and
// is colored only when writing to a terminal.
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

// ConsoleLogger logs to a writer with [HH:MM:SS] timestamps and level
// filtering. Safe for concurrent use.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// New creates a ConsoleLogger writing to w. If w is nil, messages are
// silently discarded. logLevel is one of trace, debug, info, warn, error
// (case-insensitive); empty or invalid defaults to info. Color is enabled
// when w is a TTY and NO_COLOR is unset.
func New(w io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      w,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(w),
	}
}

// isTerminal reports whether w is a terminal that supports colors.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// normalizeLogLevel lowercases and validates a level, defaulting to info.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	}
	return "info"
}

func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// log writes one formatted line, applying colorize to the message body when
// color output is enabled.
func (cl *ConsoleLogger) log(level, format string, colorize func(format string, a ...interface{}) string, args ...interface{}) {
	if cl.writer == nil || !cl.shouldLog(level) {
		return
	}

	message := fmt.Sprintf(format, args...)
	if cl.colorOutput && colorize != nil {
		message = colorize("%s", message)
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()
	fmt.Fprintf(cl.writer, "[%s] %s\n", time.Now().Format("15:04:05"), message)
}

// Tracef logs at trace level.
func (cl *ConsoleLogger) Tracef(format string, args ...interface{}) {
	cl.log("trace", format, nil, args...)
}

// Debugf logs at debug level.
func (cl *ConsoleLogger) Debugf(format string, args ...interface{}) {
	cl.log("debug", format, nil, args...)
}

// Infof logs at info level.
func (cl *ConsoleLogger) Infof(format string, args ...interface{}) {
	cl.log("info", format, nil, args...)
}

// Warnf logs at warn level in yellow.
func (cl *ConsoleLogger) Warnf(format string, args ...interface{}) {
	cl.log("warn", format, color.YellowString, args...)
}

// Errorf logs at error level in red.
func (cl *ConsoleLogger) Errorf(format string, args ...interface{}) {
	cl.log("error", format, color.RedString, args...)
}
