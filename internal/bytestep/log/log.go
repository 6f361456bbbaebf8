package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

var (
	initOnce    sync.Once
	initialized atomic.Bool

	mu      sync.Mutex
	file    *os.File
	verbose bool
)

// Setup installs the process-wide slog handler. Only the first call has an
// effect. An empty logFile logs to stderr.
func Setup(logFile string, debug bool) {
	initOnce.Do(func() {
		mu.Lock()
		defer mu.Unlock()

		verbose = debug
		var w io.Writer = os.Stderr
		if logFile != "" {
			f, err := os.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
			if err == nil {
				file = f
				w = f
			}
		}
		install(w)
		initialized.Store(true)
	})
}

// SetOutput points the installed handler at w, keeping its level.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	install(w)
}

// Close closes the file opened by Setup, if any. Later records go to
// stderr.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	install(os.Stderr)
	return err
}

func install(w io.Writer) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: verbose,
	})))
}

func Initialized() bool {
	return initialized.Load()
}

func RecoverPanic(name string, cleanup func()) {
	if r := recover(); r != nil {
		if Initialized() {
			slog.Error(fmt.Sprintf("Panic in %s", name),
				"panic", r,
				"stack", string(debug.Stack()))
		}
		if cleanup != nil {
			cleanup()
		}
	}
}
