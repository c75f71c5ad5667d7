// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// Entry is one captured log record. Keys lists every attribute key in
// order, repeats included; Attrs keeps the last value per key.
type Entry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
	Keys    []string
}

// KeyCount returns how often key was attached to the record
func (e Entry) KeyCount(key string) int {
	n := 0
	for _, k := range e.Keys {
		if k == key {
			n++
		}
	}
	return n
}

// LogCapture is a slog.Handler that keeps every record in memory. Handlers
// derived through WithAttrs share the same buffer.
type LogCapture struct {
	mu      *sync.Mutex
	entries *[]Entry
	attrs   []slog.Attr
	t       testing.TB
}

// NewLogger returns a logger backed by a fresh LogCapture
func NewLogger(t testing.TB) (*slog.Logger, *LogCapture) {
	h := &LogCapture{mu: &sync.Mutex{}, entries: &[]Entry{}, t: t}
	return slog.New(h), h
}

func (h *LogCapture) Enabled(context.Context, slog.Level) bool { return true }

func (h *LogCapture) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	keys := make([]string, 0, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
		keys = append(keys, a.Key)
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		keys = append(keys, a.Key)
		return true
	})

	h.mu.Lock()
	*h.entries = append(*h.entries, Entry{Level: r.Level, Message: r.Message, Attrs: attrs, Keys: keys})
	h.mu.Unlock()
	return nil
}

func (h *LogCapture) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &LogCapture{mu: h.mu, entries: h.entries, attrs: merged, t: h.t}
}

// WithGroup is a no-op; grouped keys are recorded flat.
func (h *LogCapture) WithGroup(string) slog.Handler { return h }

// Entries returns a copy of the captured records
func (h *LogCapture) Entries() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Entry(nil), *h.entries...)
}

// Find returns the first record at level whose message contains msg
func (h *LogCapture) Find(level slog.Level, msg string) (Entry, bool) {
	for _, e := range h.Entries() {
		if e.Level == level && strings.Contains(e.Message, msg) {
			return e, true
		}
	}
	return Entry{}, false
}

// RequireEntry fails the test unless a matching record was captured
func (h *LogCapture) RequireEntry(level slog.Level, msg string) Entry {
	h.t.Helper()
	e, ok := h.Find(level, msg)
	if !ok {
		for _, got := range h.Entries() {
			h.t.Logf("captured [%s] %s %v", got.Level, got.Message, got.Attrs)
		}
		h.t.Fatalf("no %s record containing %q", level, msg)
	}
	return e
}

// Count returns how many records were captured at level
func (h *LogCapture) Count(level slog.Level) int {
	n := 0
	for _, e := range h.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}
