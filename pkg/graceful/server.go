// Package graceful runs an http.Server tied to a context: cancellation
// drains in-flight requests before the listener is released.
package graceful

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// Server drives an http.Server until its context is cancelled.
type Server struct {
	srv          *http.Server
	log          *slog.Logger
	drainTimeout time.Duration
}

// NewServer wraps srv. drainTimeout bounds how long in-flight requests
// may run after cancellation.
func NewServer(log *slog.Logger, srv *http.Server, drainTimeout time.Duration) *Server {
	if log == nil {
		log = slog.Default()
	}

	return &Server{srv: srv, log: log, drainTimeout: drainTimeout}
}

// ListenAndServe blocks until ctx is cancelled or the listener fails,
// then drains the server within the configured timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}

	listenErr := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", slog.String("addr", s.srv.Addr))
		listenErr <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-listenErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("draining http server", slog.Duration("timeout", s.drainTimeout))

	drainCtx, cancel := context.WithTimeout(context.Background(), s.drainTimeout)
	defer cancel()

	if err := s.srv.Shutdown(drainCtx); err != nil {
		return err
	}

	// Shutdown unblocked ListenAndServe with ErrServerClosed; anything
	// else is a real listener failure.
	if err := <-listenErr; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
