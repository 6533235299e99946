// Package lifecycle coordinates process shutdown. Hooks run in
// registration order, so callers register intake surfaces (bot, worker)
// before the connections those surfaces depend on.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

type hook struct {
	name string
	fn   func(ctx context.Context) error
}

// Shutdown runs named teardown steps sequentially in registration order.
type Shutdown struct {
	hooks []hook
	log   *slog.Logger
}

// NewShutdown constructs a Shutdown coordinator.
func NewShutdown(log *slog.Logger) *Shutdown {
	if log == nil {
		log = slog.Default()
	}

	return &Shutdown{log: log}
}

// Register appends a named teardown step. Steps registered first run
// first.
func (s *Shutdown) Register(name string, fn func(context.Context) error) {
	if fn == nil {
		return
	}

	s.hooks = append(s.hooks, hook{name: name, fn: fn})
}

// Execute runs every registered step in order. A failing step is logged
// and recorded but does not stop the remaining steps; the context
// deadline bounds the whole sequence.
func (s *Shutdown) Execute(ctx context.Context) error {
	start := time.Now()
	s.log.Info("shutdown sequence started", slog.Int("steps", len(s.hooks)))

	var errs []error
	for _, h := range s.hooks {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("shutdown deadline reached before %s: %w", h.name, err))
			break
		}

		stepStart := time.Now()
		if err := h.fn(ctx); err != nil {
			s.log.Error("shutdown step failed",
				slog.String("step", h.name),
				slog.Any("error", err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", h.name, err))
			continue
		}

		s.log.Info("shutdown step completed",
			slog.String("step", h.name),
			slog.Duration("took", time.Since(stepStart)),
		)
	}

	s.log.Info("shutdown sequence finished", slog.Duration("elapsed", time.Since(start)))

	return errors.Join(errs...)
}
