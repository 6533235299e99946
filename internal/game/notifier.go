// Package game implements the room lifecycle engine: the transactional
// join protocol, the active-room publisher, the settlement algorithm,
// and the notification fan-out that ties them together.
package game

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/limerc/rooms-bot/internal/jobs"
)

// Notifier queues user-facing messages for at-least-once delivery.
type Notifier interface {
	NotifyUser(ctx context.Context, userID int64, message string) error
}

// QueueNotifier publishes messages onto the notification queue.
type QueueNotifier struct {
	queue jobs.Manager
	log   *slog.Logger
}

var _ Notifier = (*QueueNotifier)(nil)

// NewQueueNotifier builds a Notifier backed by the job queue.
func NewQueueNotifier(queue jobs.Manager, log *slog.Logger) *QueueNotifier {
	if log == nil {
		log = slog.Default()
	}

	return &QueueNotifier{queue: queue, log: log}
}

// NotifyUser enqueues one message for the user.
func (n *QueueNotifier) NotifyUser(ctx context.Context, userID int64, message string) error {
	task, err := jobs.NewTelegramMessageTask(userID, message)
	if err != nil {
		return fmt.Errorf("build message task: %w", err)
	}

	if _, err := n.queue.Enqueue(ctx, task); err != nil {
		return fmt.Errorf("enqueue message task: %w", err)
	}

	return nil
}
