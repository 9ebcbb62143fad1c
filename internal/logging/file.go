package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dmitrijs2005/regkeeper/internal/filex"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects where and how verbosely the process logs.
type Options struct {
	// File is the log file path. Empty means stderr.
	File string
	// Level is one of debug, info, warn, error.
	Level string
	// MaxSizeMB is the size at which the file is rotated.
	MaxSizeMB int
}

// ParseLevel maps a textual level to slog.Level. Unknown values are an error.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// New builds a Logger from opts. With a file configured it writes JSON to a
// rotating file; otherwise text goes to stderr. The returned closer must be
// closed on shutdown.
func New(opts Options) (Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	ho := &slog.HandlerOptions{Level: level, ReplaceAttr: redactSecrets}

	if opts.File == "" {
		return NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, ho))), nopCloser{}, nil
	}

	if err := filex.EnsureParentDir(opts.File); err != nil {
		return nil, nil, err
	}

	maxSize := opts.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	w := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    maxSize,
		MaxBackups: 3,
		Compress:   true,
	}
	return NewSlogLogger(slog.New(slog.NewJSONHandler(w, ho))), w, nil
}

// Nop discards everything. Handy in tests.
func Nop() Logger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
