// Package logger builds the *slog.Logger values flowchat logs through.
// Every handler it returns redacts credential attributes, so a flow token
// handed to a log call never reaches the output.
package logger

import (
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
)

type config struct {
	level  slog.Level
	pretty bool
	json   bool
	writer io.Writer
}

// New creates a *slog.Logger. Without options it writes text records at Info
// level to os.Stdout.
func New(opts ...Option) *slog.Logger {
	c := &config{
		level:  slog.LevelInfo,
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}

	return slog.New(newRedactHandler(c.handler()))
}

func (c *config) handler() slog.Handler {
	switch {
	case c.json:
		return slog.NewJSONHandler(c.writer, &slog.HandlerOptions{Level: c.level})

	case c.pretty:
		level := charmlog.InfoLevel
		if c.level <= slog.LevelDebug {
			level = charmlog.DebugLevel
		}
		return charmlog.NewWithOptions(c.writer, charmlog.Options{
			Level:           level,
			ReportTimestamp: true,
		})

	default:
		return slog.NewTextHandler(c.writer, &slog.HandlerOptions{Level: c.level})
	}
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
