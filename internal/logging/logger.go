// Package logging provides the structured logger handed to debugger
// sessions. It is configured from environment variables and can write to a
// timestamped file instead of stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// LoggerCloser wraps a logger and provides a Close method for cleanup
type LoggerCloser struct {
	*log.Logger
	w      io.Writer
	closer io.Closer
}

// Writer returns the destination the logger writes to.
func (lc *LoggerCloser) Writer() io.Writer {
	return lc.w
}

// Close closes the underlying writer if it's closeable
func (lc *LoggerCloser) Close() error {
	if lc.closer != nil {
		return lc.closer.Close()
	}
	return nil
}

// ParseLevel maps a BYTESTEP_LOG_LEVEL value to a log level. Unknown
// values mean info.
func ParseLevel(s string) log.Level {
	switch s {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// NewLoggerWithWriter creates a new logger with the provided writer
func NewLoggerWithWriter(w io.Writer) *LoggerCloser {
	lg := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
	lg.SetLevel(ParseLevel(os.Getenv("BYTESTEP_LOG_LEVEL")))

	prefix := os.Getenv("BYTESTEP_LOG_PREFIX")
	if prefix == "" {
		prefix = "bytestep "
	}

	var closer io.Closer
	if c, ok := w.(io.Closer); ok && w != os.Stderr && w != os.Stdout {
		closer = c
	}

	return &LoggerCloser{
		Logger: lg.WithPrefix(prefix),
		w:      w,
		closer: closer,
	}
}

// NewLogger creates a new logger based on environment variables
// BYTESTEP_LOG_LEVEL: debug, info, warn, error (default: info)
// BYTESTEP_LOG_PREFIX: prefix for log messages (default: "bytestep ")
// BYTESTEP_LOG_TO_FILE: when set to "1", logs to a timestamped file instead of stderr
func NewLogger() *LoggerCloser {
	output := io.Writer(os.Stderr)

	if os.Getenv("BYTESTEP_LOG_TO_FILE") == "1" {
		// If file creation fails, fall back to stderr
		if f, err := openLogFile("."); err == nil {
			output = f
		}
	}

	return NewLoggerWithWriter(output)
}

// NewScreenLogger returns a logger that stays off the terminal while a
// full-screen program owns it: with debug set it writes to a timestamped
// file in dir, otherwise it discards everything.
func NewScreenLogger(dir string, debug bool) *LoggerCloser {
	if !debug && os.Getenv("BYTESTEP_LOG_TO_FILE") != "1" {
		return NewLoggerWithWriter(io.Discard)
	}
	f, err := openLogFile(dir)
	if err != nil {
		return NewLoggerWithWriter(io.Discard)
	}
	return NewLoggerWithWriter(f)
}

func openLogFile(dir string) (*os.File, error) {
	timestamp := time.Now().Format("20060102-150405")
	name := filepath.Join(dir, fmt.Sprintf("bytestep-%s-debug.log", timestamp))
	return os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
}

// IsDebug returns true if debug logging is enabled
func IsDebug() bool {
	return os.Getenv("BYTESTEP_LOG_LEVEL") == "debug"
}
