// Package logger builds the application slog.Logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	slogsentry "github.com/samber/slog-sentry/v2"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/limerc/rooms-bot/pkg/config"
)

// New constructs a slog.Logger from the logger section of the config:
// level and format, optional rotated file output, sensitive-attribute
// masking, and a Sentry fan-out when enabled.
func New(cfg config.Config) *slog.Logger {
	var out io.Writer = os.Stdout
	if cfg.Logger.File != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.Logger.File,
			MaxSize:    maxOrDefault(cfg.Logger.MaxSizeMB, 50),
			MaxBackups: maxOrDefault(cfg.Logger.MaxBackups, 3),
			Compress:   true,
		})
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Logger.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Logger.Format, "json") {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	handler = NewMaskingHandler(handler)

	if cfg.Sentry.Enabled {
		handler = fanoutHandler{handlers: []slog.Handler{
			handler,
			slogsentry.Option{Level: slog.LevelError}.NewSentryHandler(),
		}}
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func maxOrDefault(v, def int) int {
	if v > 0 {
		return v
	}

	return def
}
