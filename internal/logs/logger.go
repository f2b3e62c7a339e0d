// Package logs builds the application logger. A terminal UI owns stdout, so
// records only go to files, and nothing is written unless a file is named.
package logs

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// Options names the log sinks. Empty paths are skipped.
type Options struct {
	TextPath string
	JSONPath string
	Level    string
}

// Logger is a slog logger together with the files backing it.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
	files []*os.File
}

// ParseLevel accepts debug, info, warn or error in any case.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, err
	}
	return l, nil
}

// New opens the configured sinks and fans records out to all of them.
func New(opts Options) (*Logger, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	level := new(slog.LevelVar)
	level.Set(lvl)

	l := &Logger{level: level}
	var handlers []slog.Handler

	if opts.TextPath != "" {
		f, err := openLog(opts.TextPath)
		if err != nil {
			return nil, err
		}
		l.files = append(l.files, f)
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	}
	if opts.JSONPath != "" {
		f, err := openLog(opts.JSONPath)
		if err != nil {
			l.Close()
			return nil, err
		}
		l.files = append(l.files, f)
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
	}

	if len(handlers) == 0 {
		l.Logger = slog.New(slog.DiscardHandler)
		return l, nil
	}
	l.Logger = slog.New(slogmulti.Fanout(handlers...))
	return l, nil
}

// NewWriter logs text records to w, for tests and tooling.
func NewWriter(w io.Writer, level slog.Level) *Logger {
	lv := new(slog.LevelVar)
	lv.Set(level)
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lv})),
		level:  lv,
	}
}

// SetLevel changes the minimum level of every sink.
func (l *Logger) SetLevel(level slog.Level) {
	l.level.Set(level)
}

// Close closes the backing files.
func (l *Logger) Close() error {
	var errs []error
	for _, f := range l.files {
		errs = append(errs, f.Close())
	}
	l.files = nil
	return errors.Join(errs...)
}

func openLog(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}
