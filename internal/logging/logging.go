package logging

import (
	"io"
	"log/slog"
	"os"
	"testing"
)

// Format specifies the output format for log messages.
type Format string

const (
	// FormatText produces human-readable text output.
	FormatText Format = "text"
	// FormatJSON produces machine-readable JSON output.
	FormatJSON Format = "json"
)

// Config holds the configuration for creating a new logger.
type Config struct {
	// Level sets the minimum log level for every sink. Messages below it are discarded.
	Level slog.Level
	// Format specifies the output format of the file sink (text or JSON).
	// The console sink is always text.
	Format Format
	// Output is the console sink. Defaults to os.Stderr if nil.
	Output io.Writer
	// File is an optional persistent sink, usually from OpenFile.
	File io.Writer
}

// LevelFromFlags maps the CLI verbosity switches onto a level.
// Quiet wins over verbose; callers reject the combination before getting here.
func LevelFromFlags(verbose, quiet bool) slog.Level {
	switch {
	case quiet:
		return slog.LevelError
	case verbose:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// ParseFormat converts a flag value into a Format, defaulting to FormatText.
func ParseFormat(s string) Format {
	if Format(s) == FormatJSON {
		return FormatJSON
	}
	return FormatText
}

// New creates a logger with the given configuration.
// If cfg.Output is nil, it defaults to os.Stderr. When cfg.File is set the
// logger fans out to both sinks at the same level.
func New(cfg Config) *slog.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	console := NewHandler(output, &HandlerOptions{
		HandlerOptions: slog.HandlerOptions{Level: cfg.Level},
	})
	if cfg.File == nil {
		return slog.New(console)
	}

	var file slog.Handler
	switch cfg.Format {
	case FormatJSON:
		file = slog.NewJSONHandler(cfg.File, &slog.HandlerOptions{Level: cfg.Level})
	default:
		file = NewHandler(cfg.File, &HandlerOptions{
			HandlerOptions: slog.HandlerOptions{Level: cfg.Level},
			TimeFormat:     FileTimeFormat,
			NoColor:        true,
		})
	}

	return slog.New(NewMultiHandler(console, file))
}

// NewDiscard creates a logger that discards all output.
func NewDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testWriter adapts testing.T to io.Writer for use with slog handlers.
type testWriter struct {
	t testing.TB
}

// Write implements io.Writer by logging to the test.
func (w *testWriter) Write(p []byte) (n int, err error) {
	w.t.Helper()
	// Trim trailing newline since t.Log adds its own
	msg := string(p)
	if len(msg) > 0 && msg[len(msg)-1] == '\n' {
		msg = msg[:len(msg)-1]
	}
	w.t.Log(msg)
	return len(p), nil
}

// ForTest creates a logger that writes to the test's log output.
// Log messages appear only when the test fails or when running with -v.
// The logger is configured at Debug level to capture all messages.
func ForTest(t testing.TB) *slog.Logger {
	t.Helper()
	return New(Config{
		Level:  slog.LevelDebug,
		Format: FormatText,
		Output: &testWriter{t: t},
	})
}
