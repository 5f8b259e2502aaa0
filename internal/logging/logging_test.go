package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_ConsoleOnly(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Output: &buf})

	logger.Info("File web fetched", "host", "nas")

	output := buf.String()
	if !strings.Contains(output, "INFO  File web fetched host=nas") {
		t.Errorf("unexpected console line: %q", output)
	}
}

func TestNew_FileSinkText(t *testing.T) {
	var console, file bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Output: &console, File: &file})

	logger.Info("Directory web fetched")
	logger.Debug("not shown")

	for name, buf := range map[string]*bytes.Buffer{"console": &console, "file": &file} {
		if !strings.Contains(buf.String(), "Directory web fetched") {
			t.Errorf("%s sink missing record: %q", name, buf.String())
		}
		if strings.Contains(buf.String(), "not shown") {
			t.Errorf("%s sink should filter debug at info level", name)
		}
	}

	// File lines carry the full date.
	line := strings.TrimSpace(file.String())
	if len(line) < len(FileTimeFormat) || line[4] != '-' || line[7] != '-' {
		t.Errorf("file line should start with a date: %q", line)
	}
}

func TestNew_FileSinkJSON(t *testing.T) {
	var console, file bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: FormatJSON, Output: &console, File: &file})

	logger.Error("File db failed to fetch", "return_code", 23)

	var parsed map[string]any
	if err := json.Unmarshal(file.Bytes(), &parsed); err != nil {
		t.Fatalf("file output is not valid JSON: %v\noutput: %s", err, file.String())
	}
	if parsed["msg"] != "File db failed to fetch" {
		t.Errorf("msg = %v", parsed["msg"])
	}
	if parsed["return_code"] != float64(23) {
		t.Errorf("return_code = %v", parsed["return_code"])
	}
	if strings.HasPrefix(console.String(), "{") {
		t.Errorf("console sink should stay text: %q", console.String())
	}
}

func TestNew_DefaultsToStderr(t *testing.T) {
	logger := New(Config{Level: slog.LevelInfo})
	if logger == nil {
		t.Fatal("New() returned nil")
	}
}

func TestLevelFromFlags(t *testing.T) {
	tests := []struct {
		verbose, quiet bool
		want           slog.Level
	}{
		{false, false, slog.LevelInfo},
		{true, false, slog.LevelDebug},
		{false, true, slog.LevelError},
		{true, true, slog.LevelError},
	}

	for _, tt := range tests {
		if got := LevelFromFlags(tt.verbose, tt.quiet); got != tt.want {
			t.Errorf("LevelFromFlags(%v, %v) = %v, want %v", tt.verbose, tt.quiet, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"json": FormatJSON,
		"text": FormatText,
		"":     FormatText,
		"xml":  FormatText,
	}
	for in, want := range tests {
		if got := ParseFormat(in); got != want {
			t.Errorf("ParseFormat(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewDiscard_ProducesNoOutput(t *testing.T) {
	logger := NewDiscard()
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("discard logger should not enable debug")
	}
	logger.Error("dropped")
}

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext() without a logger should return a discard logger")
	}

	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Output: &buf})
	ctx := NewContext(context.Background(), logger)

	FromContext(ctx).Info("from context")
	if !strings.Contains(buf.String(), "from context") {
		t.Errorf("logger from context did not write: %q", buf.String())
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "log.txt")

	for _, msg := range []string{"first run", "second run"} {
		w, err := OpenFile(path)
		if err != nil {
			t.Fatalf("OpenFile() error = %v", err)
		}
		logger := New(Config{Level: slog.LevelInfo, Output: &bytes.Buffer{}, File: w})
		logger.Info(msg)
		if err := w.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "\n") {
		t.Errorf("each run should start with a blank line: %q", content)
	}
	first := strings.Index(content, "first run")
	second := strings.Index(content, "second run")
	if first < 0 || second < first {
		t.Fatalf("runs should be appended in order: %q", content)
	}
	if !strings.Contains(content[first:second], "\n\n") {
		t.Errorf("runs should be separated by a blank line: %q", content)
	}
}

func TestOpenFile_EmptyPath(t *testing.T) {
	if _, err := OpenFile(""); err == nil {
		t.Error("OpenFile(\"\") should fail")
	}
}

type failingHandler struct {
	slog.Handler
	err error
}

func (h failingHandler) Handle(context.Context, slog.Record) error { return h.err }

func TestMultiHandler(t *testing.T) {
	var info, debug bytes.Buffer
	infoH := NewHandler(&info, &HandlerOptions{HandlerOptions: slog.HandlerOptions{Level: slog.LevelInfo}})
	debugH := NewHandler(&debug, &HandlerOptions{HandlerOptions: slog.HandlerOptions{Level: slog.LevelDebug}})

	logger := slog.New(NewMultiHandler(infoH, nil, debugH)).With("host", "nas")
	logger.Debug("debug only")
	logger.Info("both")

	if strings.Contains(info.String(), "debug only") {
		t.Error("info sink received a debug record")
	}
	if !strings.Contains(debug.String(), "debug only") {
		t.Error("debug sink missed the debug record")
	}
	for _, s := range []string{info.String(), debug.String()} {
		if !strings.Contains(s, "both host=nas") {
			t.Errorf("sink missing attrs: %q", s)
		}
	}
}

func TestMultiHandler_FirstErrorWins(t *testing.T) {
	var buf bytes.Buffer
	boom := errors.New("disk full")
	h := NewMultiHandler(
		failingHandler{Handler: slog.NewTextHandler(&buf, nil), err: boom},
		NewHandler(&buf, nil),
	)

	var r slog.Record
	r.Level = slog.LevelInfo
	r.Message = "after failure"
	if err := h.Handle(context.Background(), r); !errors.Is(err, boom) {
		t.Errorf("Handle() error = %v, want %v", err, boom)
	}
	if !strings.Contains(buf.String(), "after failure") {
		t.Error("later sinks should still receive the record")
	}
}

func TestForTest(t *testing.T) {
	logger := ForTest(t)
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("ForTest logger should enable debug")
	}
	logger.Debug("visible with -v")
}
