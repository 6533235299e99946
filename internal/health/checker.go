// Package health aggregates component liveness probes behind one
// endpoint.
package health

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// StatusOK is the report value for a passing check.
const StatusOK = "OK"

// checkTimeout bounds each individual probe so one hung dependency does
// not stall the whole report.
const checkTimeout = 2 * time.Second

// Checkable is a component that can report whether it is usable.
type Checkable interface {
	HealthCheck(ctx context.Context) error
}

// Checker runs registered probes and aggregates their results.
type Checker struct {
	log    *slog.Logger
	names  []string
	checks map[string]Checkable
}

// NewChecker constructs an empty Checker.
func NewChecker(log *slog.Logger) *Checker {
	if log == nil {
		log = slog.Default()
	}

	return &Checker{
		log:    log,
		checks: make(map[string]Checkable),
	}
}

// AddCheck registers a probe under the given name. Probes run in
// registration order.
func (c *Checker) AddCheck(name string, check Checkable) {
	if name == "" || check == nil {
		return
	}

	if _, exists := c.checks[name]; !exists {
		c.names = append(c.names, name)
	}
	c.checks[name] = check
}

// Check runs every probe and returns per-component status strings.
func (c *Checker) Check(ctx context.Context) map[string]string {
	results := make(map[string]string, len(c.names))

	for _, name := range c.names {
		probeCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := c.checks[name].HealthCheck(probeCtx)
		cancel()

		if err != nil {
			results[name] = err.Error()
			c.log.Error("health check failed",
				slog.String("component", name),
				slog.Any("error", err),
			)
			continue
		}

		results[name] = StatusOK
	}

	return results
}

// DBChecker probes a PostgreSQL connection.
type DBChecker struct {
	db *sql.DB
}

func NewDBChecker(db *sql.DB) *DBChecker {
	return &DBChecker{db: db}
}

func (c *DBChecker) HealthCheck(ctx context.Context) error {
	if c == nil || c.db == nil {
		return sql.ErrConnDone
	}

	return c.db.PingContext(ctx)
}

// Pinger is the subset of the redis client used for probing.
type Pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisChecker probes a Redis connection.
type RedisChecker struct {
	pinger Pinger
}

func NewRedisChecker(pinger Pinger) *RedisChecker {
	return &RedisChecker{pinger: pinger}
}

func (c *RedisChecker) HealthCheck(ctx context.Context) error {
	if c == nil || c.pinger == nil {
		return redis.ErrClosed
	}

	return c.pinger.Ping(ctx).Err()
}
