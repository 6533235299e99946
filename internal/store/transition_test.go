package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/limerc/rooms-bot/internal/domain"
)

func TestValidateRoomTransition(t *testing.T) {
	tests := []struct {
		name    string
		cur     domain.RoomState
		next    domain.RoomState
		wantErr bool
	}{
		{"open stays open", domain.RoomStateOpen, domain.RoomStateOpen, false},
		{"open to active", domain.RoomStateOpen, domain.RoomStateActive, false},
		{"active to processing", domain.RoomStateActive, domain.RoomStateProcessing, false},
		{"processing touch", domain.RoomStateProcessing, domain.RoomStateProcessing, false},
		{"processing to closed", domain.RoomStateProcessing, domain.RoomStateClosed, false},

		{"open skips to processing", domain.RoomStateOpen, domain.RoomStateProcessing, true},
		{"open skips to closed", domain.RoomStateOpen, domain.RoomStateClosed, true},
		{"closed reopened", domain.RoomStateClosed, domain.RoomStateOpen, true},
		{"processing back to active", domain.RoomStateProcessing, domain.RoomStateActive, true},
		{"unknown current state", domain.RoomState("bogus"), domain.RoomStateOpen, true},
		{"unknown next state", domain.RoomStateOpen, domain.RoomState("bogus"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRoomTransition(tt.cur, tt.next)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTransition)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
