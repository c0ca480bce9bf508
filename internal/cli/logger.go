package cli

import (
	"log/slog"

	"github.com/aretw0/chatflow/internal/config"
	"github.com/aretw0/chatflow/internal/logging"
)

// NewLogger configures the application logger from the log section.
// debug forces the debug level regardless of config.
func NewLogger(cfg config.LogConfig, debug bool) *slog.Logger {
	level := logging.ParseLevel(cfg.Level)
	if debug {
		level = slog.LevelDebug
	}
	return logging.NewWithFormat(level, cfg.Format)
}
