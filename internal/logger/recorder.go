package logger

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

// Entry is one captured log record. Attributes are flattened; grouped keys
// are joined with ".".
type Entry struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// String formats the entry as "LEVEL: message key=value ...".
func (e Entry) String() string {
	var b strings.Builder
	b.WriteString(LevelName(e.Level))
	b.WriteString(": ")
	b.WriteString(e.Message)
	keys := make([]string, 0, len(e.Attrs))
	for k := range e.Attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Attrs[k])
	}
	return b.String()
}

// Recorder captures log records in memory while recording is on.
// A new Recorder starts in the recording state.
type Recorder struct {
	mu        sync.Mutex
	entries   []Entry
	recording bool
	level     slog.Level
}

// NewRecorder returns a Recorder that captures records at debug and above.
func NewRecorder() *Recorder {
	return &Recorder{recording: true, level: slog.LevelDebug}
}

// NewRecorded returns a logger whose only sink is a fresh Recorder.
func NewRecorded() (*slog.Logger, *Recorder) {
	r := NewRecorder()
	return slog.New(r.Handler()), r
}

// Start resumes capturing.
func (r *Recorder) Start() {
	r.mu.Lock()
	r.recording = true
	r.mu.Unlock()
}

// Stop pauses capturing. Entries captured so far are kept.
func (r *Recorder) Stop() {
	r.mu.Lock()
	r.recording = false
	r.mu.Unlock()
}

// Reset drops all captured entries.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.entries = nil
	r.mu.Unlock()
}

// Entries returns a copy of the captured entries.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// EntriesAt returns the captured entries logged exactly at level.
func (r *Recorder) EntriesAt(level slog.Level) []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// String joins all captured entries, one per line.
func (r *Recorder) String() string {
	var b strings.Builder
	for _, e := range r.Entries() {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Handler returns a slog.Handler feeding this Recorder.
func (r *Recorder) Handler() slog.Handler {
	return &recordHandler{rec: r}
}

func (r *Recorder) setLevel(l slog.Level) {
	r.mu.Lock()
	r.level = l
	r.mu.Unlock()
}

func (r *Recorder) add(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		r.entries = append(r.entries, e)
	}
}

type recordHandler struct {
	rec    *Recorder
	attrs  []slog.Attr
	groups []string
}

func (h *recordHandler) Enabled(_ context.Context, l slog.Level) bool {
	h.rec.mu.Lock()
	defer h.rec.mu.Unlock()
	return h.rec.recording && l >= h.rec.level
}

func (h *recordHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		flatten(attrs, "", a)
	}
	prefix := strings.Join(h.groups, ".")
	r.Attrs(func(a slog.Attr) bool {
		flatten(attrs, prefix, a)
		return true
	})
	h.rec.add(Entry{Time: r.Time, Level: r.Level, Message: r.Message, Attrs: attrs})
	return nil
}

func (h *recordHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	prefix := strings.Join(h.groups, ".")
	next := &recordHandler{rec: h.rec, groups: h.groups}
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		if prefix != "" {
			a = slog.Attr{Key: prefix + "." + a.Key, Value: a.Value}
		}
		next.attrs = append(next.attrs, a)
	}
	return next
}

func (h *recordHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	groups := append(append([]string{}, h.groups...), name)
	return &recordHandler{rec: h.rec, attrs: h.attrs, groups: groups}
}

func flatten(dst map[string]any, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			flatten(dst, key, ga)
		}
		return
	}
	dst[key] = a.Value.Any()
}
