package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"golang.org/x/time/rate"

	apperrors "github.com/limerc/rooms-bot/internal/errors"
	"github.com/limerc/rooms-bot/internal/jobs"
	"github.com/limerc/rooms-bot/pkg/metrics"
)

// MessageSender delivers a message to a user over the external messaging
// channel.
type MessageSender interface {
	SendMessage(ctx context.Context, userID int64, message string) error
}

// NotificationHandler consumes notification jobs under a global rate
// limit. It never mutates store state; failures are retried by the queue.
type NotificationHandler struct {
	sender  MessageSender
	limiter *rate.Limiter
	breaker *apperrors.CircuitBreaker
	log     *slog.Logger
}

// NewNotificationHandler constructs a NotificationHandler delivering at
// most perSecond messages per second.
func NewNotificationHandler(sender MessageSender, perSecond float64, log *slog.Logger) *NotificationHandler {
	if perSecond <= 0 {
		perSecond = 30
	}
	if log == nil {
		log = slog.Default()
	}

	return &NotificationHandler{
		sender:  sender,
		limiter: rate.NewLimiter(rate.Limit(perSecond), int(perSecond)),
		breaker: apperrors.NewCircuitBreaker(),
		log:     log,
	}
}

// ProcessTask waits for a rate-limit slot and sends the message. Send
// failures, including an open circuit, surface as job errors so the
// queue redelivers later.
func (h *NotificationHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.TelegramMessagePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.log.Error("notification: failed to decode payload",
			slog.String("task_type", t.Type()),
			slog.Any("error", err),
		)
		return fmt.Errorf("decode notification payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := payload.Validate(); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	if err := h.limiter.Wait(ctx); err != nil {
		return err
	}

	err := h.breaker.Call(func() error {
		return h.sender.SendMessage(ctx, payload.UserID, payload.Message)
	})
	if err != nil {
		metrics.RecordNotification("failed")
		h.log.Error("notification delivery failed",
			slog.Int64("user_id", payload.UserID),
			slog.Any("error", err),
		)
		return apperrors.NewTelegramError(err)
	}

	metrics.RecordNotification("sent")

	return nil
}
