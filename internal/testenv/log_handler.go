package testenv

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// TestLogHandler is a slog.Handler that records "[index] LEVEL: message
// key=value, ..." lines without timestamps so tests can assert on log
// output. Handlers derived with WithAttrs/WithGroup share the record.
type TestLogHandler struct {
	rec         *record
	attrs       []slog.Attr
	groups      []string
	ignoreDebug bool
}

var _ slog.Handler = (*TestLogHandler)(nil)

type record struct {
	mu    sync.Mutex
	lines []string
}

type TestLogHandlerOption func(*TestLogHandler)

// WithIgnoreDebug drops DEBUG records.
func WithIgnoreDebug() TestLogHandlerOption {
	return func(h *TestLogHandler) { h.ignoreDebug = true }
}

func NewTestLogHandler(opts ...TestLogHandlerOption) *TestLogHandler {
	h := &TestLogHandler{rec: &record{}}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Lines returns the recorded lines in order.
func (h *TestLogHandler) Lines() []string {
	h.rec.mu.Lock()
	defer h.rec.mu.Unlock()
	return append([]string(nil), h.rec.lines...)
}

// Contains reports whether any line contains s.
func (h *TestLogHandler) Contains(s string) bool {
	for _, l := range h.Lines() {
		if strings.Contains(l, s) {
			return true
		}
	}
	return false
}

//nolint:gocritic
func (h *TestLogHandler) Handle(_ context.Context, r slog.Record) error {
	if r.Level == slog.LevelDebug && h.ignoreDebug {
		return nil
	}
	attrs := h.format(&r)

	h.rec.mu.Lock()
	defer h.rec.mu.Unlock()
	line := fmt.Sprintf("[%d] %s: %s", len(h.rec.lines), r.Level, r.Message)
	if attrs != "" {
		line += " " + attrs
	}
	h.rec.lines = append(h.rec.lines, line)
	return nil
}

func (h *TestLogHandler) format(r *slog.Record) string {
	parts := make([]string, 0, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		parts = append(parts, formatAttr(a, ""))
	}
	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}
	r.Attrs(func(a slog.Attr) bool {
		parts = append(parts, formatAttr(a, prefix))
		return true
	})
	return strings.Join(parts, ", ")
}

func formatAttr(a slog.Attr, prefix string) string {
	if a.Value.Kind() == slog.KindGroup {
		var parts []string
		for _, ga := range a.Value.Group() {
			parts = append(parts, formatAttr(ga, prefix+a.Key+"."))
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprintf("%s%s=%v", prefix, a.Key, a.Value)
}

func (h *TestLogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return !(h.ignoreDebug && level == slog.LevelDebug)
}

func (h *TestLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}
	next := *h
	next.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		a.Key = prefix + a.Key
		next.attrs = append(next.attrs, a)
	}
	return &next
}

func (h *TestLogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(h.groups[:len(h.groups):len(h.groups)], name)
	return &next
}
