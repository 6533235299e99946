package jobs

import (
	"encoding/json"
	"errors"

	"github.com/hibiken/asynq"

	"github.com/limerc/rooms-bot/internal/domain"
)

const (
	TaskTypeJoinRoom        = "room:join"
	TaskTypeSettleRoom      = "room:settle"
	TaskTypeTelegramMessage = "telegram:message"
)

const (
	QueueDefault       = "default"
	QueueNotifications = "notifications"
)

// JoinRoomPayload asks the join coordinator to move a user into a room.
type JoinRoomPayload struct {
	UserID int64  `json:"user_id"`
	RoomID string `json:"room_id"`
}

// Validate reports whether the payload carries all required fields.
func (p JoinRoomPayload) Validate() error {
	if p.UserID == 0 {
		return errors.New("join payload: user_id is required")
	}
	if p.RoomID == "" {
		return errors.New("join payload: room_id is required")
	}

	return nil
}

// SettleRoomPayload carries the room snapshot taken when the room was
// promoted to processing. The consumer may run after the stored room has
// moved on; it must re-check state before mutating.
type SettleRoomPayload struct {
	Room domain.Room `json:"room"`
}

// Validate reports whether the snapshot is usable for settlement.
func (p SettleRoomPayload) Validate() error {
	if p.Room.ID == "" {
		return errors.New("settle payload: room id is required")
	}
	if len(p.Room.Players) == 0 {
		return errors.New("settle payload: players are empty")
	}
	if p.Room.WinRate < 0 || p.Room.WinRate > 1 {
		return errors.New("settle payload: win_rate out of range")
	}

	return nil
}

// TelegramMessagePayload delivers a user-facing message.
type TelegramMessagePayload struct {
	UserID  int64  `json:"user_id"`
	Message string `json:"message"`
}

// Validate reports whether the payload carries all required fields.
func (p TelegramMessagePayload) Validate() error {
	if p.UserID == 0 {
		return errors.New("message payload: user_id is required")
	}
	if p.Message == "" {
		return errors.New("message payload: message is required")
	}

	return nil
}

// NewJoinRoomTask builds a join-request job.
func NewJoinRoomTask(userID int64, roomID string) (*asynq.Task, error) {
	payload, err := json.Marshal(JoinRoomPayload{UserID: userID, RoomID: roomID})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeJoinRoom, payload, asynq.Queue(QueueDefault)), nil
}

// NewSettleRoomTask builds a settlement job from a room snapshot.
func NewSettleRoomTask(room domain.Room) (*asynq.Task, error) {
	payload, err := json.Marshal(SettleRoomPayload{Room: room})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeSettleRoom, payload, asynq.Queue(QueueDefault)), nil
}

// NewTelegramMessageTask builds a notification job.
func NewTelegramMessageTask(userID int64, message string) (*asynq.Task, error) {
	payload, err := json.Marshal(TelegramMessagePayload{UserID: userID, Message: message})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeTelegramMessage, payload, asynq.Queue(QueueNotifications)), nil
}
