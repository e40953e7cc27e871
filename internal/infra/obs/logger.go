package obs

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// NewLogger configures an slog logger: JSON in production, colorized text
// for local development.
func NewLogger(env string) *slog.Logger {
	level := slog.LevelInfo
	var handler slog.Handler
	handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	if env == "dev" {
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
		})
	}
	return slog.New(handler)
}
