// Package handlers adapts queue jobs onto the game engine. Payloads that
// fail to decode are dead-lettered; retryable failures are left to the
// queue's redelivery policy.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	apperrors "github.com/limerc/rooms-bot/internal/errors"
	"github.com/limerc/rooms-bot/internal/game"
	"github.com/limerc/rooms-bot/internal/jobs"
)

// JoinHandler consumes join-request jobs.
type JoinHandler struct {
	coordinator *game.JoinCoordinator
	log         *slog.Logger
}

// NewJoinHandler constructs a JoinHandler.
func NewJoinHandler(coordinator *game.JoinCoordinator, log *slog.Logger) *JoinHandler {
	if log == nil {
		log = slog.Default()
	}

	return &JoinHandler{coordinator: coordinator, log: log}
}

// ProcessTask decodes the payload and delegates to the join coordinator.
func (h *JoinHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.JoinRoomPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.log.Error("join: failed to decode payload",
			slog.String("task_type", t.Type()),
			slog.Any("error", err),
		)
		return fmt.Errorf("decode join payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := payload.Validate(); err != nil {
		h.log.Error("join: malformed payload",
			slog.String("task_type", t.Type()),
			slog.Any("error", err),
		)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	return mapToQueue(h.coordinator.HandleJoin(ctx, payload))
}

// mapToQueue translates engine errors into asynq retry semantics:
// retryable failures are redelivered, everything else is dead-lettered.
func mapToQueue(err error) error {
	if err == nil {
		return nil
	}

	if apperrors.IsRetryable(err) {
		return err
	}

	return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
}
