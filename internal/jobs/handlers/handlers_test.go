package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/limerc/rooms-bot/internal/errors"
	"github.com/limerc/rooms-bot/internal/jobs"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestJoinHandler_MalformedPayloadDeadLettered(t *testing.T) {
	h := NewJoinHandler(nil, testLogger())

	task := asynq.NewTask(jobs.TaskTypeJoinRoom, []byte("not json"))
	err := h.ProcessTask(context.Background(), task)

	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestJoinHandler_InvalidPayloadDeadLettered(t *testing.T) {
	h := NewJoinHandler(nil, testLogger())

	payload, err := json.Marshal(jobs.JoinRoomPayload{UserID: 0, RoomID: ""})
	require.NoError(t, err)

	task := asynq.NewTask(jobs.TaskTypeJoinRoom, payload)
	err = h.ProcessTask(context.Background(), task)

	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestSettlementHandler_MalformedPayloadDeadLettered(t *testing.T) {
	h := NewSettlementHandler(nil, testLogger())

	task := asynq.NewTask(jobs.TaskTypeSettleRoom, []byte("{"))
	err := h.ProcessTask(context.Background(), task)

	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestSettlementHandler_EmptySnapshotDeadLettered(t *testing.T) {
	h := NewSettlementHandler(nil, testLogger())

	payload, err := json.Marshal(jobs.SettleRoomPayload{})
	require.NoError(t, err)

	task := asynq.NewTask(jobs.TaskTypeSettleRoom, payload)
	err = h.ProcessTask(context.Background(), task)

	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestMapToQueue(t *testing.T) {
	retryable := apperrors.NewDatabaseError(errors.New("connection reset"))
	terminal := apperrors.NewValidationError("room not found")

	tests := []struct {
		name          string
		err           error
		wantNil       bool
		wantSkip      bool
		wantRedeliver bool
	}{
		{"nil passes through", nil, true, false, false},
		{"retryable redelivered", retryable, false, false, true},
		{"terminal dead-lettered", terminal, false, true, false},
		{"plain error dead-lettered", errors.New("boom"), false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapToQueue(tt.err)

			if tt.wantNil {
				assert.NoError(t, got)
				return
			}

			require.Error(t, got)
			assert.Equal(t, tt.wantSkip, errors.Is(got, asynq.SkipRetry))
			if tt.wantRedeliver {
				assert.Same(t, tt.err, got, "retryable errors surface unchanged")
			}
		})
	}
}

type fakeSender struct {
	sent map[int64][]string
	err  error
}

func newFakeSender() *fakeSender {
	return &fakeSender{sent: make(map[int64][]string)}
}

func (s *fakeSender) SendMessage(_ context.Context, userID int64, message string) error {
	if s.err != nil {
		return s.err
	}

	s.sent[userID] = append(s.sent[userID], message)
	return nil
}

func messageTask(t *testing.T, userID int64, message string) *asynq.Task {
	t.Helper()

	payload, err := json.Marshal(jobs.TelegramMessagePayload{UserID: userID, Message: message})
	require.NoError(t, err)
	return asynq.NewTask(jobs.TaskTypeTelegramMessage, payload)
}

func TestNotificationHandler_Delivers(t *testing.T) {
	sender := newFakeSender()
	h := NewNotificationHandler(sender, 100, testLogger())

	err := h.ProcessTask(context.Background(), messageTask(t, 7, "You lose!"))
	require.NoError(t, err)
	assert.Equal(t, []string{"You lose!"}, sender.sent[7])
}

func TestNotificationHandler_SendFailureIsRetryable(t *testing.T) {
	sender := newFakeSender()
	sender.err = errors.New("telegram: 502")
	h := NewNotificationHandler(sender, 100, testLogger())

	err := h.ProcessTask(context.Background(), messageTask(t, 7, "You lose!"))
	require.Error(t, err)
	assert.True(t, apperrors.IsRetryable(err))
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestNotificationHandler_MalformedPayloadDeadLettered(t *testing.T) {
	h := NewNotificationHandler(newFakeSender(), 100, testLogger())

	err := h.ProcessTask(context.Background(), asynq.NewTask(jobs.TaskTypeTelegramMessage, []byte("oops")))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestNotificationHandler_InvalidPayloadDeadLettered(t *testing.T) {
	h := NewNotificationHandler(newFakeSender(), 100, testLogger())

	err := h.ProcessTask(context.Background(), messageTask(t, 0, ""))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestNotificationHandler_RespectsRateLimit(t *testing.T) {
	sender := newFakeSender()
	h := NewNotificationHandler(sender, 1000, testLogger())

	for i := 0; i < 5; i++ {
		require.NoError(t, h.ProcessTask(context.Background(), messageTask(t, int64(i+1), "hi")))
	}
	assert.Len(t, sender.sent, 5)
}
