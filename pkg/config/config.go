package config

import (
	"fmt"
	"time"
)

// Config holds runtime configuration for the rooms bot.
type Config struct {
	AppEnv string `mapstructure:"-"`

	Logger   LoggerConfig   `mapstructure:"logger"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
	Bot      BotConfig      `mapstructure:"bot"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Server   ServerConfig   `mapstructure:"server"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Game     GameConfig     `mapstructure:"game"`
}

// LoggerConfig controls slog output.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// SentryConfig controls error reporting.
type SentryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

// BotConfig holds Telegram credentials and polling settings.
type BotConfig struct {
	Token   string        `mapstructure:"token" validate:"required"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     string `mapstructure:"port" validate:"required"`
	User     string `mapstructure:"user" validate:"required"`
	Password string `mapstructure:"password" validate:"required"`
	Name     string `mapstructure:"name" validate:"required"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (c DatabaseConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		sslMode,
	)
}

// RedisConfig holds connection settings for the queue broker.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr" validate:"required"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// ServerConfig holds settings for the health/metrics HTTP server.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// WorkerConfig controls queue consumption.
type WorkerConfig struct {
	Concurrency         int     `mapstructure:"concurrency"`
	DefaultQueueWeight  int     `mapstructure:"default_queue_weight"`
	NotifyQueueWeight   int     `mapstructure:"notify_queue_weight"`
	NotifyRatePerSecond float64 `mapstructure:"notify_rate_per_second"`
}

// GameConfig controls the room lifecycle engine.
type GameConfig struct {
	PublishInterval   time.Duration     `mapstructure:"publish_interval"`
	ReconcileInterval time.Duration     `mapstructure:"reconcile_interval"`
	ProcessingTimeout time.Duration     `mapstructure:"processing_timeout"`
	DefaultRoom       DefaultRoomConfig `mapstructure:"default_room"`
}

// DefaultRoomConfig describes the room created when none are joinable.
type DefaultRoomConfig struct {
	Capacity   int     `mapstructure:"capacity" validate:"gt=0"`
	WinRate    float64 `mapstructure:"win_rate" validate:"gte=0,lte=1"`
	MinDeposit string  `mapstructure:"min_deposit" validate:"required"`
	Symbol     string  `mapstructure:"symbol" validate:"required"`
}
