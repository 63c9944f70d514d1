// Package ui provides terminal output utilities using pterm, plus a
// structured slog handler for --verbose diagnostics.
package ui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/pterm/pterm"
)

// Verbosity represents the output verbosity level.
type Verbosity int

const (
	VerbosityQuiet   Verbosity = -1
	VerbosityNormal  Verbosity = 0
	VerbosityVerbose Verbosity = 1
)

// Config holds UI configuration.
type Config struct {
	Verbosity Verbosity
	NoColor   bool
	Writer    io.Writer
	ErrWriter io.Writer
}

var (
	config   Config
	configMu sync.Mutex
	logger   *slog.Logger
)

func init() {
	Configure(Config{
		Verbosity: VerbosityNormal,
		NoColor:   false,
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
	})
}

// Configure sets up the UI with the given configuration. It is called once
// from the CLI's PersistentPreRunE, after flags are parsed.
func Configure(cfg Config) {
	configMu.Lock()
	defer configMu.Unlock()

	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}
	if cfg.ErrWriter == nil {
		cfg.ErrWriter = os.Stderr
	}
	config = cfg

	if cfg.NoColor {
		pterm.DisableColor()
	} else {
		pterm.EnableColor()
	}
	pterm.SetDefaultOutput(cfg.Writer)

	level := slog.LevelWarn
	if cfg.Verbosity == VerbosityVerbose {
		level = slog.LevelDebug
	}
	logger = slog.New(&levelTagHandler{w: cfg.ErrWriter, level: level})
}

// IsQuiet returns true if quiet mode is enabled.
func IsQuiet() bool {
	configMu.Lock()
	defer configMu.Unlock()
	return config.Verbosity == VerbosityQuiet
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	configMu.Lock()
	defer configMu.Unlock()
	return config.Verbosity == VerbosityVerbose
}

// ErrWriter returns the configured error writer.
func ErrWriter() io.Writer {
	configMu.Lock()
	defer configMu.Unlock()
	return config.ErrWriter
}

// Logger returns the structured logger for --verbose diagnostics.
func Logger() *slog.Logger {
	configMu.Lock()
	defer configMu.Unlock()
	return logger
}

// Error prints the single-line error message always shown on failure, even
// in quiet mode — the runtime's own streams are never touched by this.
func Error(format string, args ...interface{}) {
	pterm.Error.WithWriter(ErrWriter()).Printf(format+"\n", args...)
}

// Warning prints a warning if not in quiet mode.
func Warning(format string, args ...interface{}) {
	if IsQuiet() {
		return
	}
	pterm.Warning.WithWriter(ErrWriter()).Printf(format+"\n", args...)
}

// Info prints an info line if not in quiet mode.
func Info(format string, args ...interface{}) {
	if IsQuiet() {
		return
	}
	pterm.Info.Printf(format+"\n", args...)
}

// Verbose prints a message only in verbose mode.
func Verbose(format string, args ...interface{}) {
	if !IsVerbose() {
		return
	}
	pterm.FgGray.Printf(format+"\n", args...)
}

// Spinner wraps pterm's spinner with quiet-mode support.
type Spinner struct {
	printer *pterm.SpinnerPrinter
}

// StartSpinner starts a spinner; a no-op in quiet mode.
func StartSpinner(message string) *Spinner {
	if IsQuiet() {
		return &Spinner{}
	}
	s, _ := pterm.DefaultSpinner.Start(message)
	return &Spinner{printer: s}
}

// Success stops the spinner with a success message.
func (s *Spinner) Success(message string) {
	if s.printer != nil {
		s.printer.Success(message)
	}
}

// Fail stops the spinner with a failure message.
func (s *Spinner) Fail(message string) {
	if s.printer != nil {
		s.printer.Fail(message)
	}
}

// levelTagHandler is a minimal slog.Handler emitting "LEVEL timestamp msg
// key=value..." lines for --verbose diagnostics, without pulling in a
// logging framework beyond log/slog itself.
type levelTagHandler struct {
	w     io.Writer
	level slog.Level
	attrs []slog.Attr
}

func (h *levelTagHandler) Enabled(_ context.Context, level slog.Level) bool { return level >= h.level }

func (h *levelTagHandler) Handle(_ context.Context, r slog.Record) error {
	line := fmt.Sprintf("[%s] %s %s", r.Level.String(), r.Time.Format(time.RFC3339), r.Message)
	for _, a := range h.attrs {
		line += fmt.Sprintf(" %s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		line += fmt.Sprintf(" %s=%v", a.Key, a.Value)
		return true
	})
	_, err := fmt.Fprintln(h.w, line)
	return err
}

func (h *levelTagHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelTagHandler{w: h.w, level: h.level, attrs: append(append([]slog.Attr{}, h.attrs...), attrs...)}
}

func (h *levelTagHandler) WithGroup(_ string) slog.Handler { return h }
