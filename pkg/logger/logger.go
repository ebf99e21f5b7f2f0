package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Local and dev runs
// get debug level, everything else info. Request-scoped loggers hang
// off the gin context, see FromGin.
func New(appEnv string) *slog.Logger {
	level := slog.LevelInfo
	if appEnv == "local" || appEnv == "dev" {
		level = slog.LevelDebug
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}
