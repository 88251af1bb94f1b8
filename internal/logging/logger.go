// Package logging builds the process-wide slog logger. Every line carries the
// service attribute so the ledger's logs are attributable when aggregated with
// the order fulfillment workflow's output.
package logging

import (
	"io"
	"log/slog"
	"os"
)

const serviceName = "tier_pay"

// New creates a JSON slog logger configured at the provided level. An invalid
// level string falls back to info rather than failing startup.
func New(level string) *slog.Logger {
	lvl := new(slog.LevelVar)
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl.Set(slog.LevelInfo)
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler).With(slog.String("service", serviceName))
}

// Discard returns a logger that drops all output. Useful for tests.
func Discard() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}
