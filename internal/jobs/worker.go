package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Worker provides APIs to register handlers and control the background worker lifecycle.
type Worker interface {
	RegisterHandler(taskType string, handler asynq.Handler)
	Run() error
	Shutdown()
}

type worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *slog.Logger
}

var _ Worker = (*worker)(nil)

// NewWorker constructs a Worker backed by an asynq.Server instance.
// Queues maps queue names to their scheduling weight; handlers for all
// task types share the same concurrency budget.
func NewWorker(redisOpt asynq.RedisConnOpt, queues map[string]int, concurrency int, log *slog.Logger) Worker {
	if concurrency <= 0 {
		concurrency = 10
	}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Queues:         queues,
		Concurrency:    concurrency,
		RetryDelayFunc: asynq.DefaultRetryDelayFunc,
		Logger:         slogAdapter{log: log},
	})

	mux := asynq.NewServeMux()

	return &worker{
		server: server,
		mux:    mux,
		log:    log,
	}
}

// RegisterHandler wires a task type to the provided handler.
func (w *worker) RegisterHandler(taskType string, handler asynq.Handler) {
	w.mux.Handle(taskType, handler)
}

// Run starts the underlying asynq server to process tasks.
func (w *worker) Run() error {
	if w.log != nil {
		w.log.InfoContext(context.Background(), "jobs worker: starting processing loop")
	}

	return w.server.Run(w.mux)
}

// Shutdown gracefully stops the worker, letting in-flight jobs finish.
func (w *worker) Shutdown() {
	if w.log != nil {
		w.log.InfoContext(context.Background(), "jobs worker: shutting down")
	}

	w.server.Shutdown()
}

// slogAdapter forwards asynq's internal logging to slog.
type slogAdapter struct {
	log *slog.Logger
}

func (a slogAdapter) logger() *slog.Logger {
	if a.log != nil {
		return a.log
	}

	return slog.Default()
}

func joinArgs(args []interface{}) string {
	return fmt.Sprint(args...)
}

func (a slogAdapter) Debug(args ...interface{}) { a.logger().Debug(joinArgs(args)) }
func (a slogAdapter) Info(args ...interface{})  { a.logger().Info(joinArgs(args)) }
func (a slogAdapter) Warn(args ...interface{})  { a.logger().Warn(joinArgs(args)) }
func (a slogAdapter) Error(args ...interface{}) { a.logger().Error(joinArgs(args)) }
func (a slogAdapter) Fatal(args ...interface{}) { a.logger().Error(joinArgs(args)) }
