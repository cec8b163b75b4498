package logging

import (
	"log/slog"
	"os"
)

// SetupJSON makes slog's default logger emit JSON to stdout at the given level.
func SetupJSON(level slog.Level) {
	logger := slog.New(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}),
	)
	slog.SetDefault(logger)
}
