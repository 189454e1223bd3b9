package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// Entry is one captured log record with its attributes flattened,
// including those added through Logger.With.
type Entry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogCapture is an slog.Handler that keeps every record in memory.
// Loggers derived with With share the capture.
type LogCapture struct {
	mu      *sync.Mutex
	entries *[]Entry
	with    []slog.Attr
	t       *testing.T
}

// NewTestLogger returns a logger and the capture behind it. With a non-nil
// t, records are echoed through t.Logf.
func NewTestLogger(t *testing.T) (*slog.Logger, *LogCapture) {
	c := &LogCapture{mu: &sync.Mutex{}, entries: &[]Entry{}, t: t}
	return slog.New(c), c
}

func (c *LogCapture) Enabled(context.Context, slog.Level) bool { return true }

func (c *LogCapture) Handle(_ context.Context, r slog.Record) error {
	e := Entry{Level: r.Level, Message: r.Message, Attrs: make(map[string]any, len(c.with)+r.NumAttrs())}
	for _, a := range c.with {
		e.Attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		e.Attrs[a.Key] = a.Value.Any()
		return true
	})

	c.mu.Lock()
	*c.entries = append(*c.entries, e)
	c.mu.Unlock()

	if c.t != nil {
		c.t.Logf("%s %s %v", r.Level, r.Message, e.Attrs)
	}
	return nil
}

func (c *LogCapture) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *c
	next.with = append(append([]slog.Attr{}, c.with...), attrs...)
	return &next
}

// WithGroup ignores the group; keys stay flat.
func (c *LogCapture) WithGroup(string) slog.Handler { return c }

// Entries returns a snapshot of everything captured so far.
func (c *LogCapture) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Entry(nil), *c.entries...)
}

// Count is the number of captured records.
func (c *LogCapture) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(*c.entries)
}

// ContainsMessage reports whether any record's message contains msg.
func (c *LogCapture) ContainsMessage(msg string) bool {
	return c.find(func(e Entry) bool { return strings.Contains(e.Message, msg) })
}

func (c *LogCapture) find(match func(Entry) bool) bool {
	for _, e := range c.Entries() {
		if match(e) {
			return true
		}
	}
	return false
}

// AssertNoErrors fails t for every error-level record.
func (c *LogCapture) AssertNoErrors(t *testing.T) {
	t.Helper()
	for _, e := range c.Entries() {
		if e.Level >= slog.LevelError {
			t.Errorf("unexpected error log: %s %v", e.Message, e.Attrs)
		}
	}
}

// AssertLogContains fails t unless a record at level has a message
// containing msg.
func AssertLogContains(t *testing.T, c *LogCapture, level slog.Level, msg string) {
	t.Helper()
	if c.find(func(e Entry) bool { return e.Level == level && strings.Contains(e.Message, msg) }) {
		return
	}
	t.Errorf("no %s record containing %q", level, msg)
	for _, e := range c.Entries() {
		t.Logf("  %s %s", e.Level, e.Message)
	}
}

// AssertLogAttr fails t unless some record has key set to want.
func AssertLogAttr(t *testing.T, c *LogCapture, key string, want any) {
	t.Helper()
	if c.find(func(e Entry) bool { v, ok := e.Attrs[key]; return ok && v == want }) {
		return
	}
	t.Errorf("no record with %s=%v", key, want)
	for _, e := range c.Entries() {
		t.Logf("  %s %v", e.Message, e.Attrs)
	}
}
