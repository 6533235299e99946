package errors

import (
	"context"
	"errors"
	"log/slog"

	"github.com/getsentry/sentry-go"

	"github.com/limerc/rooms-bot/pkg/logger"
)

const fallbackUserMessage = "Something went wrong. Please try again later."

// Handler converts errors into user-facing text, logs them, and forwards
// high-severity failures to Sentry when enabled.
type Handler struct {
	log           *slog.Logger
	sentryEnabled bool
}

func NewHandler(log *slog.Logger, sentryEnabled bool) *Handler {
	if log == nil {
		log = slog.Default()
	}

	return &Handler{
		log:           log,
		sentryEnabled: sentryEnabled,
	}
}

// Handle logs err and returns the message to show the user plus whether
// the operation may be retried.
func (h *Handler) Handle(ctx context.Context, err error) (string, bool) {
	if err == nil {
		return "", false
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var appErr *AppError
	if !errors.As(err, &appErr) || appErr == nil {
		h.logError(ctx, "unknown error",
			slog.String("message", err.Error()),
			slog.String("severity", string(SeverityHigh)),
		)

		if h.sentryEnabled {
			reportToSentry(err)
		}

		return fallbackUserMessage, false
	}

	h.logError(ctx, "application error",
		slog.String("code", appErr.Code),
		slog.String("message", appErr.Message),
		slog.String("severity", string(appErr.Severity)),
		slog.Bool("retryable", appErr.Retryable),
	)

	if h.sentryEnabled && (appErr.Severity == SeverityHigh || appErr.Severity == SeverityCritical) {
		reportToSentry(err)
	}

	userMessage := appErr.UserMessage
	if userMessage == "" {
		userMessage = fallbackUserMessage
	}

	return userMessage, appErr.Retryable
}

func (h *Handler) logError(ctx context.Context, msg string, attrs ...slog.Attr) {
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		attrs = append(attrs, slog.String("correlation_id", id))
	}

	h.log.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func reportToSentry(err error) {
	sentry.WithScope(func(scope *sentry.Scope) {
		var appErr *AppError
		if errors.As(err, &appErr) && appErr != nil {
			if appErr.Code != "" {
				scope.SetTag("code", appErr.Code)
			}
			if appErr.Severity != "" {
				scope.SetTag("severity", string(appErr.Severity))
			}
		}

		sentry.CaptureException(err)
	})
}
