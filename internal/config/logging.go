package config

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/log"
)

// ParseLevel maps a level name (debug, info, warn, error) to a charm log
// level.
func ParseLevel(name string) (log.Level, error) {
	lvl, err := log.ParseLevel(name)
	if err != nil {
		return 0, fmt.Errorf("config: log level: %w", err)
	}
	return lvl, nil
}

// NewLogger returns a slog logger writing through a charm log handler.
func NewLogger(w io.Writer, c Log) (*slog.Logger, error) {
	lvl, err := ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	h := log.NewWithOptions(w, log.Options{
		ReportCaller:    c.Caller,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          c.Prefix,
		Level:           lvl,
	})
	return slog.New(h), nil
}
