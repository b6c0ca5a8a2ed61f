package cli

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds a leveled slog.Logger over stderr, matching the
// corpus's preference (divinesense) for the standard structured logger
// instead of a third-party logging façade (SPEC_FULL.md §4.7).
func NewLogger(level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(level)}))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
