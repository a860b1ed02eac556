package server

import (
	"io"
	"log/slog"

	"github.com/go-chi/httplog/v3"

	"timesheets/internal/platform/config"
)

const appName = "timesheets"

// Version is overridden at build time with -ldflags.
var Version = "dev"

// NewLogger returns a JSON logger whose attribute names follow the ECS
// schema used by the request logger.
func NewLogger(w io.Writer, cfg config.Config) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(!cfg.IsProduction())
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", appName),
		slog.String("version", Version),
		slog.String("env", cfg.Environment),
	)
}
