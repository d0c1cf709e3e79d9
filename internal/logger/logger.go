// Package logger builds the structured slog loggers used across the kit.
//
// A logger fans out to up to three sinks:
//
//	console   colored text on stderr (lipgloss, honoring NO_COLOR via termenv)
//	file      JSON lines in a size-rotated file (lumberjack)
//	recorder  an in-memory capture that can be switched on and off
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// LevelCritical sits above slog.LevelError.
	LevelCritical = slog.LevelError + 4
	// LevelSilent is above every level a record can carry; nothing is emitted.
	LevelSilent = slog.Level(1 << 10)
)

// ParseLevel converts a level name to a slog.Level. Names are case-insensitive.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warning", "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	case "critical":
		return LevelCritical, nil
	case "silent":
		return LevelSilent, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// LevelName returns the display name for l.
func LevelName(l slog.Level) string {
	switch {
	case l >= LevelSilent:
		return "SILENT"
	case l >= LevelCritical:
		return "CRITICAL"
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARNING"
	case l >= slog.LevelInfo:
		return "INFO"
	}
	return "DEBUG"
}

// Options configures New.
type Options struct {
	Level slog.Level

	// Console receives human-readable output. Nil means os.Stderr;
	// io.Discard disables the console sink.
	Console io.Writer
	// Color enables ANSI colors on the console when the environment allows it.
	Color bool

	// File, when set, receives JSON output rotated by size.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Recorder, when set, captures every record at or above Level.
	Recorder *Recorder
}

// New creates a logger tagged with name. The returned close function
// releases the file sink, if any.
func New(name string, opts Options) (*slog.Logger, func() error, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	var handlers []slog.Handler
	closeFn := func() error { return nil }

	if console != io.Discard {
		handlers = append(handlers, newConsoleHandler(console, opts.Level, opts.Color))
	}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0750); err != nil {
			return nil, nil, fmt.Errorf("creating log directory for %q: %w", opts.File, err)
		}
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		handlers = append(handlers, slog.NewJSONHandler(rotator, &slog.HandlerOptions{
			Level:       opts.Level,
			ReplaceAttr: replaceLevel(nil),
		}))
		closeFn = rotator.Close
	}

	if opts.Recorder != nil {
		opts.Recorder.setLevel(opts.Level)
		handlers = append(handlers, opts.Recorder.Handler())
	}

	l := slog.New(slogmulti.Fanout(handlers...)).With(slog.String("logger", name))
	return l, closeFn, nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

func newConsoleHandler(w io.Writer, level slog.Level, color bool) slog.Handler {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.NewOutput(w).EnvColorProfile())
	} else {
		r.SetColorProfile(termenv.Ascii)
	}

	styles := map[string]lipgloss.Style{
		"DEBUG":    r.NewStyle().Foreground(lipgloss.Color("2")),
		"INFO":     r.NewStyle().Foreground(lipgloss.Color("4")),
		"WARNING":  r.NewStyle().Foreground(lipgloss.Color("3")),
		"ERROR":    r.NewStyle().Foreground(lipgloss.Color("1")),
		"CRITICAL": r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}

	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: replaceLevel(func(name string) string {
			if st, ok := styles[name]; ok {
				return st.Render(name)
			}
			return name
		}),
	})
}

// replaceLevel renders the level attribute with LevelName so the custom
// critical level prints as CRITICAL instead of ERROR+4.
func replaceLevel(render func(string) string) func([]string, slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		if len(groups) > 0 || a.Key != slog.LevelKey {
			return a
		}
		lvl, ok := a.Value.Any().(slog.Level)
		if !ok {
			return a
		}
		name := LevelName(lvl)
		if render != nil {
			name = render(name)
		}
		return slog.String(slog.LevelKey, name)
	}
}
