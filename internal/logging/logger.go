package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options controls the root logger.
type Options struct {
	// Level is a zerolog level name ("debug", "info", "warn", "error").
	// Empty means info.
	Level string

	// Console switches to zerolog's human-readable writer.
	Console bool

	// Out defaults to os.Stderr so stdout stays free for reports.
	Out io.Writer
}

// New builds the root logger shared by every component of one process.
func New(service string, opts Options) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if s := strings.TrimSpace(opts.Level); s != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(s))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("parse log level %q: %w", opts.Level, err)
		}
		level = l
	}

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	if opts.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", service).
		Logger(), nil
}
