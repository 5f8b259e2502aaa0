package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/thoreinstein/sbackup/internal/doctor"
)

// Time layouts used by the text handler.
const (
	// ConsoleTimeFormat is short enough to keep console lines readable.
	ConsoleTimeFormat = time.Kitchen
	// FileTimeFormat keeps the full date so log files stay meaningful across runs.
	FileTimeFormat = "2006-01-02 15:04:05"
)

// HandlerOptions extends slog.HandlerOptions with text rendering settings.
type HandlerOptions struct {
	slog.HandlerOptions

	// TimeFormat is the layout for record timestamps. Defaults to ConsoleTimeFormat.
	TimeFormat string

	// NoColor disables ANSI colors even when the writer is a terminal.
	NoColor bool
}

// Handler implements slog.Handler for leveled text output.
// It provides colorized output when the writer supports it.
type Handler struct {
	opts   HandlerOptions
	out    io.Writer
	mu     *sync.Mutex
	attrs  []slog.Attr
	groups []string

	// Colors
	timeColor  *color.Color
	debugColor *color.Color
	infoColor  *color.Color
	warnColor  *color.Color
	errorColor *color.Color
	keyColor   *color.Color
}

// NewHandler creates a new text handler writing to out.
func NewHandler(out io.Writer, opts *HandlerOptions) *Handler {
	if opts == nil {
		opts = &HandlerOptions{}
	}
	if opts.TimeFormat == "" {
		opts.TimeFormat = ConsoleTimeFormat
	}

	h := &Handler{
		opts: *opts,
		out:  out,
		mu:   &sync.Mutex{},
	}

	if !opts.NoColor && SupportsColor(out) {
		h.timeColor = color.New(color.FgHiBlack)
		h.debugColor = color.New(color.FgMagenta)
		h.infoColor = color.New(color.FgGreen)
		h.warnColor = color.New(color.FgYellow)
		h.errorColor = color.New(color.FgRed, color.Bold)
		h.keyColor = color.New(color.FgCyan)
	}

	return h
}

// Enabled reports whether the handler handles records at the given level.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

// Handle writes one line per record: time, level, message, then attributes.
// The line is assembled first so concurrent writers never interleave.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder

	if !r.Time.IsZero() {
		t := r.Time.Format(h.opts.TimeFormat)
		if h.timeColor != nil {
			t = h.timeColor.Sprint(t)
		}
		sb.WriteString(t)
		sb.WriteByte(' ')
	}

	fmt.Fprintf(&sb, "%-5s ", h.levelString(r.Level))
	sb.WriteString(r.Message)

	for _, a := range h.attrs {
		h.appendAttr(&sb, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(&sb, a)
		return true
	})
	sb.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, sb.String())
	return err
}

func (h *Handler) levelString(level slog.Level) string {
	s := level.String()
	if h.timeColor == nil { // timeColor doubles as the "use color" switch
		return s
	}
	switch {
	case level >= slog.LevelError:
		return h.errorColor.Sprint(s)
	case level >= slog.LevelWarn:
		return h.warnColor.Sprint(s)
	case level >= slog.LevelInfo:
		return h.infoColor.Sprint(s)
	default:
		return h.debugColor.Sprint(s)
	}
}

func (h *Handler) appendAttr(sb *strings.Builder, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}

	rawKey := a.Key
	if len(h.groups) > 0 {
		rawKey = strings.Join(h.groups, ".") + "." + rawKey
	}
	key := rawKey
	if h.keyColor != nil {
		key = h.keyColor.Sprint(key)
	}

	value := a.Value.Resolve().Any()
	switch {
	case doctor.ShouldMask(a.Key):
		value = doctor.MaskValue(fmt.Sprint(value))
	default:
		if strVal, ok := value.(string); ok {
			value = doctor.RedactArgs(strVal)
		}
	}

	fmt.Fprintf(sb, " %s=%v", key, value)
}

// WithAttrs returns a new Handler with the given attributes.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newH := *h
	newH.attrs = make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newH.attrs, h.attrs)
	copy(newH.attrs[len(h.attrs):], attrs)
	return &newH
}

// WithGroup returns a new Handler with the given group name.
// Groups are rendered by prefixing keys.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newH := *h
	newH.groups = make([]string, len(h.groups)+1)
	copy(newH.groups, h.groups)
	newH.groups[len(h.groups)] = name
	return &newH
}
