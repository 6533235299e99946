package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomStateValid(t *testing.T) {
	for _, s := range []RoomState{RoomStateOpen, RoomStateActive, RoomStateProcessing, RoomStateClosed} {
		assert.True(t, s.Valid(), "%s", s)
	}
	assert.False(t, RoomState("").Valid())
	assert.False(t, RoomState("archived").Valid())
}

func TestRoomStateCanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to RoomState
		want     bool
	}{
		{RoomStateOpen, RoomStateActive, true},
		{RoomStateActive, RoomStateProcessing, true},
		{RoomStateProcessing, RoomStateClosed, true},

		// No skipping, no going back, no self-loops.
		{RoomStateOpen, RoomStateProcessing, false},
		{RoomStateOpen, RoomStateClosed, false},
		{RoomStateActive, RoomStateOpen, false},
		{RoomStateClosed, RoomStateOpen, false},
		{RoomStateClosed, RoomStateClosed, false},
		{RoomState("bogus"), RoomStateOpen, false},
		{RoomStateOpen, RoomState("bogus"), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestRoomIsFull(t *testing.T) {
	room := &Room{Capacity: 2}
	assert.False(t, room.IsFull())

	room.Players = []int64{1}
	assert.False(t, room.IsFull())

	room.Players = []int64{1, 2}
	assert.True(t, room.IsFull())

	var nilRoom *Room
	assert.False(t, nilRoom.IsFull())
}

func TestRoomJoinable(t *testing.T) {
	room := &Room{Capacity: 2, State: RoomStateOpen}
	assert.True(t, room.Joinable())

	room.Players = []int64{1, 2}
	assert.False(t, room.Joinable(), "full rooms are not joinable")

	room.Players = nil
	room.State = RoomStateActive
	assert.False(t, room.Joinable(), "only open rooms are joinable")

	room.State = RoomStateClosed
	assert.False(t, room.Joinable())
}

func TestUserInRoom(t *testing.T) {
	var user *User
	assert.False(t, user.InRoom())

	user = &User{UserID: 1}
	assert.False(t, user.InRoom())

	empty := ""
	user.RoomID = &empty
	assert.False(t, user.InRoom())

	id := "room-1"
	user.RoomID = &id
	assert.True(t, user.InRoom())
}
