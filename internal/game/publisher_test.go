package game

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limerc/rooms-bot/internal/domain"
	"github.com/limerc/rooms-bot/internal/jobs"
)

func activeRoom(id string, players []int64) *domain.Room {
	return &domain.Room{
		ID:         id,
		Pool:       domain.Pool{Amount: decimal.NewFromInt(200), Symbol: "BTC"},
		WinRate:    0.5,
		Capacity:   len(players),
		Players:    append([]int64(nil), players...),
		MinDeposit: decimal.NewFromInt(100),
		State:      domain.RoomStateActive,
		UpdatedAt:  time.Now(),
	}
}

func decodeSettlePayload(t *testing.T, raw []byte) jobs.SettleRoomPayload {
	t.Helper()

	var payload jobs.SettleRoomPayload
	require.NoError(t, json.Unmarshal(raw, &payload))
	return payload
}

func TestPublisher_PublishActive(t *testing.T) {
	st := newFakeStore()
	st.rooms["room-1"] = activeRoom("room-1", []int64{1, 2})
	st.rooms["room-2"] = activeRoom("room-2", []int64{3, 4})
	st.rooms["room-3"] = &domain.Room{ID: "room-3", State: domain.RoomStateOpen}

	queue := &fakeQueue{}
	p := NewRoomPublisher(st, queue, PublisherConfig{}, testLogger())

	n, err := p.PublishActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Both full rooms flipped before any job went out.
	assert.Equal(t, domain.RoomStateProcessing, st.rooms["room-1"].State)
	assert.Equal(t, domain.RoomStateProcessing, st.rooms["room-2"].State)
	assert.Equal(t, domain.RoomStateOpen, st.rooms["room-3"].State)

	require.Len(t, queue.tasks, 2)
	for _, task := range queue.tasks {
		assert.Equal(t, jobs.TaskTypeSettleRoom, task.Type())
		payload := decodeSettlePayload(t, task.Payload())
		assert.Equal(t, domain.RoomStateProcessing, payload.Room.State, "snapshot carries the promoted state")
		assert.Len(t, payload.Room.Players, 2)
	}
}

func TestPublisher_PublishActiveIdempotentAcrossTicks(t *testing.T) {
	st := newFakeStore()
	st.rooms["room-1"] = activeRoom("room-1", []int64{1, 2})

	queue := &fakeQueue{}
	p := NewRoomPublisher(st, queue, PublisherConfig{}, testLogger())

	n, err := p.PublishActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Second tick finds no active rooms and enqueues nothing.
	n, err = p.PublishActive(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, queue.tasks, 1)
}

func TestPublisher_EnqueueFailureLeavesRoomProcessing(t *testing.T) {
	st := newFakeStore()
	st.rooms["room-1"] = activeRoom("room-1", []int64{1, 2})

	queue := &fakeQueue{err: errFakeQueue}
	p := NewRoomPublisher(st, queue, PublisherConfig{}, testLogger())

	n, err := p.PublishActive(context.Background())
	require.NoError(t, err, "enqueue failures are recovered by reconciliation, not by failing the tick")
	assert.Equal(t, 1, n)
	assert.Equal(t, domain.RoomStateProcessing, st.rooms["room-1"].State)
}

func TestPublisher_ReconcileReEnqueuesStuckRooms(t *testing.T) {
	st := newFakeStore()
	stuck := activeRoom("room-1", []int64{1, 2})
	stuck.State = domain.RoomStateProcessing
	stuck.UpdatedAt = time.Now().Add(-10 * time.Minute)
	st.rooms["room-1"] = stuck

	fresh := activeRoom("room-2", []int64{3, 4})
	fresh.State = domain.RoomStateProcessing
	fresh.UpdatedAt = time.Now()
	st.rooms["room-2"] = fresh

	queue := &fakeQueue{}
	p := NewRoomPublisher(st, queue, PublisherConfig{ProcessingTimeout: 2 * time.Minute}, testLogger())

	n, err := p.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, queue.tasks, 1)
	payload := decodeSettlePayload(t, queue.tasks[0].Payload())
	assert.Equal(t, "room-1", payload.Room.ID)

	// updated_at was touched so the next sweep does not re-pick it.
	assert.WithinDuration(t, time.Now(), st.rooms["room-1"].UpdatedAt, time.Minute)
}

func TestPublisher_ReconcileNothingStuck(t *testing.T) {
	st := newFakeStore()
	queue := &fakeQueue{}
	p := NewRoomPublisher(st, queue, PublisherConfig{}, testLogger())

	n, err := p.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, queue.tasks)
}
