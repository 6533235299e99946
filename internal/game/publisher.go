package game

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/limerc/rooms-bot/internal/domain"
	apperrors "github.com/limerc/rooms-bot/internal/errors"
	"github.com/limerc/rooms-bot/internal/jobs"
	"github.com/limerc/rooms-bot/internal/store"
	"github.com/limerc/rooms-bot/pkg/metrics"
)

// PublisherConfig controls the publisher's scan cadence and the
// reconciliation sweep for rooms stuck in processing.
type PublisherConfig struct {
	PublishInterval   time.Duration
	ReconcileInterval time.Duration
	ProcessingTimeout time.Duration
}

func (c PublisherConfig) withDefaults() PublisherConfig {
	if c.PublishInterval <= 0 {
		c.PublishInterval = 5 * time.Second
	}
	if c.ReconcileInterval <= 0 {
		c.ReconcileInterval = time.Minute
	}
	if c.ProcessingTimeout <= 0 {
		c.ProcessingTimeout = 2 * time.Minute
	}

	return c
}

// RoomPublisher periodically promotes full (active) rooms into the
// processing state and dispatches one settlement job per room. The state
// flip commits before any job is enqueued, so a concurrent tick can never
// double-enqueue the same room; a crash between flip and enqueue leaves
// the room to the reconciliation sweep.
type RoomPublisher struct {
	store store.Store
	queue jobs.Manager
	cfg   PublisherConfig
	log   *slog.Logger
}

// NewRoomPublisher constructs a RoomPublisher.
func NewRoomPublisher(st store.Store, queue jobs.Manager, cfg PublisherConfig, log *slog.Logger) *RoomPublisher {
	if log == nil {
		log = slog.Default()
	}

	return &RoomPublisher{
		store: st,
		queue: queue,
		cfg:   cfg.withDefaults(),
		log:   log,
	}
}

// Run drives the publish and reconcile loops until the context is
// cancelled.
func (p *RoomPublisher) Run(ctx context.Context) {
	publishTicker := time.NewTicker(p.cfg.PublishInterval)
	defer publishTicker.Stop()

	reconcileTicker := time.NewTicker(p.cfg.ReconcileInterval)
	defer reconcileTicker.Stop()

	p.log.Info("room publisher started",
		slog.Duration("publish_interval", p.cfg.PublishInterval),
		slog.Duration("reconcile_interval", p.cfg.ReconcileInterval),
	)

	for {
		select {
		case <-ctx.Done():
			p.log.Info("room publisher stopped", slog.String("reason", ctx.Err().Error()))
			return
		case <-publishTicker.C:
			if _, err := p.PublishActive(ctx); err != nil {
				p.log.Error("publish tick failed", slog.Any("error", err))
			}
		case <-reconcileTicker.C:
			if _, err := p.Reconcile(ctx); err != nil {
				p.log.Error("reconcile sweep failed", slog.Any("error", err))
			}
		}
	}
}

// PublishActive flips every active room to processing in one transaction
// and, only after the flip commits, enqueues a settlement job per room
// built from the promotion-time snapshot. Returns the number of rooms
// promoted.
func (p *RoomPublisher) PublishActive(ctx context.Context) (int, error) {
	var snapshots []domain.Room

	err := p.store.WithTx(ctx, func(tx store.Tx) error {
		rooms, err := tx.FindRoomsByStateForUpdate(ctx, domain.RoomStateActive)
		if err != nil {
			return err
		}
		if len(rooms) == 0 {
			return nil
		}

		ids := make([]string, 0, len(rooms))
		for _, room := range rooms {
			ids = append(ids, room.ID)
		}

		if err := tx.UpdateRoomsState(ctx, ids, domain.RoomStateProcessing); err != nil {
			return err
		}

		snapshots = rooms
		for i := range snapshots {
			snapshots[i].State = domain.RoomStateProcessing
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("promote active rooms: %w", err)
	}

	p.refreshStateGauge(ctx)

	if len(snapshots) == 0 {
		p.log.Debug("publisher: no active rooms found")
		return 0, nil
	}

	p.enqueueSettlements(ctx, snapshots)
	metrics.RecordRoomsPublished(len(snapshots))

	return len(snapshots), nil
}

// Reconcile re-enqueues settlement for rooms stuck in processing longer
// than the configured timeout, rebuilt from the current stored document.
// Touching updated_at inside the same transaction keeps the next sweep
// from re-picking them immediately.
func (p *RoomPublisher) Reconcile(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-p.cfg.ProcessingTimeout)

	var stuck []domain.Room
	err := p.store.WithTx(ctx, func(tx store.Tx) error {
		rooms, err := tx.FindStuckProcessingForUpdate(ctx, cutoff)
		if err != nil {
			return err
		}
		if len(rooms) == 0 {
			return nil
		}

		ids := make([]string, 0, len(rooms))
		for _, room := range rooms {
			ids = append(ids, room.ID)
		}

		if err := tx.UpdateRoomsState(ctx, ids, domain.RoomStateProcessing); err != nil {
			return err
		}

		stuck = rooms
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("reconcile processing rooms: %w", err)
	}

	if len(stuck) == 0 {
		return 0, nil
	}

	p.log.Warn("re-enqueueing stuck processing rooms", slog.Int("count", len(stuck)))
	p.enqueueSettlements(ctx, stuck)
	metrics.RecordRoomsReconciled(len(stuck))

	return len(stuck), nil
}

func (p *RoomPublisher) refreshStateGauge(ctx context.Context) {
	counts, err := p.store.CountRoomsByState(ctx)
	if err != nil {
		p.log.Error("count rooms by state failed", slog.Any("error", err))
		return
	}

	for _, state := range []domain.RoomState{
		domain.RoomStateOpen,
		domain.RoomStateActive,
		domain.RoomStateProcessing,
		domain.RoomStateClosed,
	} {
		metrics.SetRoomsByState(string(state), counts[state])
	}
}

func (p *RoomPublisher) enqueueSettlements(ctx context.Context, rooms []domain.Room) {
	for _, room := range rooms {
		task, err := jobs.NewSettleRoomTask(room)
		if err != nil {
			p.log.Error("build settlement task failed",
				slog.String("room_id", room.ID),
				slog.Any("error", err),
			)
			continue
		}

		err = apperrors.WithRetry(ctx, func() error {
			if _, enqErr := p.queue.Enqueue(ctx, task); enqErr != nil {
				return apperrors.NewQueueError(enqErr)
			}
			return nil
		})
		if err != nil {
			// The room stays in processing; the reconciler picks it up.
			p.log.Error("enqueue settlement failed",
				slog.String("room_id", room.ID),
				slog.Any("error", err),
			)
		}
	}
}
