package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/limerc/rooms-bot/internal/game"
	"github.com/limerc/rooms-bot/internal/jobs"
)

// SettlementHandler consumes settlement jobs carrying room snapshots.
type SettlementHandler struct {
	processor *game.SettlementProcessor
	log       *slog.Logger
}

// NewSettlementHandler constructs a SettlementHandler.
func NewSettlementHandler(processor *game.SettlementProcessor, log *slog.Logger) *SettlementHandler {
	if log == nil {
		log = slog.Default()
	}

	return &SettlementHandler{processor: processor, log: log}
}

// ProcessTask decodes the room snapshot and delegates to the settlement
// processor. Snapshots with an empty or invalid player set are
// dead-lettered, never retried.
func (h *SettlementHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.SettleRoomPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.log.Error("settlement: failed to decode payload",
			slog.String("task_type", t.Type()),
			slog.Any("error", err),
		)
		return fmt.Errorf("decode settlement payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := payload.Validate(); err != nil {
		h.log.Error("settlement: invalid snapshot, skipping",
			slog.String("room_id", payload.Room.ID),
			slog.Any("error", err),
		)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	return mapToQueue(h.processor.HandleSettlement(ctx, payload.Room))
}
