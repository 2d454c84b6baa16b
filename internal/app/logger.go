package app

import (
	"log/slog"
	"os"

	"delivery-dispatch/internal/logx"
)

// NewLogger returns the JSON slog-backed logger used by both binaries.
func NewLogger() logx.Logger {
	base := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	return logx.NewSlogAdapter(base)
}
