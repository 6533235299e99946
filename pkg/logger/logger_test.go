package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limerc/rooms-bot/pkg/config"
)

func TestNewBuildsUsableLogger(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
	}{
		{"text format", config.Config{Logger: config.LoggerConfig{Level: "debug", Format: "text"}}},
		{"json format", config.Config{Logger: config.LoggerConfig{Level: "info", Format: "json"}}},
		{"unknown level falls back to info", config.Config{Logger: config.LoggerConfig{Level: "verbose"}}},
		{"sentry fan-out enabled", config.Config{
			Logger: config.LoggerConfig{Level: "error", Format: "json"},
			Sentry: config.SentryConfig{Enabled: true},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := New(tt.cfg)
			require.NotNil(t, log)
			log.Info("logger constructed")
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestMaskingHandlerRedactsSensitiveAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewJSONHandler(&buf, nil)))

	log.Info("user seen",
		slog.String("bot_token", "123:abc"),
		slog.String("wallet_addr", "bc1qxyz"),
		slog.String("username", "alice"),
	)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "***", record["bot_token"])
	assert.Equal(t, "***", record["wallet_addr"])
	assert.Equal(t, "alice", record["username"])
}

func TestMaskingHandlerRedactsPreBoundAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewJSONHandler(&buf, nil)))

	log.With(slog.String("api_key", "s3cr3t")).Info("startup")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "***", record["api_key"])
}

func TestMiddlewareCorrelationID(t *testing.T) {
	var captured string
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = CorrelationIDFromContext(r.Context())
	}))

	// Generated when absent.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.NotEmpty(t, captured)
	assert.Equal(t, captured, rec.Header().Get(CorrelationIDHeader))

	// Honored when supplied by the caller.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(CorrelationIDHeader, "req-42")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", captured)
	assert.Equal(t, "req-42", rec.Header().Get(CorrelationIDHeader))

	assert.Empty(t, CorrelationIDFromContext(context.Background()))
}
