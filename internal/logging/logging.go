// Package logging builds the zerolog loggers used by the command line tools.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	EnvLogLevel  = "FORMSTATE_LOG_LEVEL"
	EnvLogFormat = "FORMSTATE_LOG_FORMAT"
)

// Config selects level, format and destination.
type Config struct {
	Level  string
	Format string
	Out    io.Writer
}

// FromEnv fills unset fields from FORMSTATE_LOG_LEVEL and
// FORMSTATE_LOG_FORMAT.
func (c Config) FromEnv() Config {
	if c.Level == "" {
		c.Level = os.Getenv(EnvLogLevel)
	}
	if c.Format == "" {
		c.Format = os.Getenv(EnvLogFormat)
	}
	return c
}

// New builds a logger. Level defaults to info and format to console; "json"
// emits one object per line. Output goes to stderr unless Out is set so it
// never mixes with rendered forms on stdout.
func New(cfg Config) (zerolog.Logger, error) {
	levelStr := strings.TrimSpace(cfg.Level)
	if levelStr == "" {
		levelStr = "info"
	}
	level, err := zerolog.ParseLevel(strings.ToLower(levelStr))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("logging: invalid level %q", cfg.Level)
	}

	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "console":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	case "json":
	default:
		return zerolog.Nop(), fmt.Errorf("logging: invalid format %q", cfg.Format)
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}
