package game

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/limerc/rooms-bot/internal/domain"
	"github.com/limerc/rooms-bot/internal/store"
)

// fakeStore is an in-memory store.Store used by the engine tests.
type fakeStore struct {
	users map[int64]*domain.User
	rooms map[string]*domain.Room

	txErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: make(map[int64]*domain.User),
		rooms: make(map[string]*domain.Room),
	}
}

func (s *fakeStore) WithTx(_ context.Context, fn func(tx store.Tx) error) error {
	if s.txErr != nil {
		return s.txErr
	}

	return fn(&fakeTx{store: s})
}

func (s *fakeStore) GetUser(_ context.Context, userID int64) (*domain.User, error) {
	user, ok := s.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}

	cp := *user
	return &cp, nil
}

func (s *fakeStore) UpsertUser(_ context.Context, user *domain.User) error {
	if _, ok := s.users[user.UserID]; ok {
		return nil
	}

	cp := *user
	s.users[user.UserID] = &cp
	return nil
}

func (s *fakeStore) SaveRoom(_ context.Context, room *domain.Room) error {
	cp := *room
	s.rooms[room.ID] = &cp
	return nil
}

func (s *fakeStore) FindJoinableRooms(_ context.Context) ([]domain.Room, error) {
	var rooms []domain.Room
	for _, room := range s.rooms {
		if room.Joinable() {
			rooms = append(rooms, *room)
		}
	}

	return rooms, nil
}

func (s *fakeStore) CountRoomsByState(_ context.Context) (map[domain.RoomState]int, error) {
	counts := make(map[domain.RoomState]int)
	for _, room := range s.rooms {
		counts[room.State]++
	}

	return counts, nil
}

type fakeTx struct {
	store *fakeStore
}

func (t *fakeTx) GetUserForUpdate(ctx context.Context, userID int64) (*domain.User, error) {
	return t.store.GetUser(ctx, userID)
}

func (t *fakeTx) GetRoomForUpdate(_ context.Context, roomID string) (*domain.Room, error) {
	room, ok := t.store.rooms[roomID]
	if !ok {
		return nil, store.ErrNotFound
	}

	cp := *room
	cp.Players = append([]int64(nil), room.Players...)
	return &cp, nil
}

func (t *fakeTx) UpdateUser(_ context.Context, user *domain.User) error {
	cp := *user
	t.store.users[user.UserID] = &cp
	return nil
}

func (t *fakeTx) UpdateRoom(_ context.Context, room *domain.Room) error {
	cur, ok := t.store.rooms[room.ID]
	if !ok {
		return store.ErrNotFound
	}
	if err := store.ValidateRoomTransition(cur.State, room.State); err != nil {
		return err
	}

	cp := *room
	cp.Players = append([]int64(nil), room.Players...)
	cp.UpdatedAt = time.Now()
	t.store.rooms[room.ID] = &cp
	return nil
}

func (t *fakeTx) FindRoomsByStateForUpdate(_ context.Context, state domain.RoomState) ([]domain.Room, error) {
	var rooms []domain.Room
	for _, room := range t.store.rooms {
		if room.State == state {
			cp := *room
			cp.Players = append([]int64(nil), room.Players...)
			rooms = append(rooms, cp)
		}
	}

	return rooms, nil
}

func (t *fakeTx) UpdateRoomsState(_ context.Context, roomIDs []string, state domain.RoomState) error {
	for _, id := range roomIDs {
		room, ok := t.store.rooms[id]
		if !ok {
			return store.ErrNotFound
		}
		if err := store.ValidateRoomTransition(room.State, state); err != nil {
			return err
		}

		room.State = state
		room.UpdatedAt = time.Now()
	}

	return nil
}

func (t *fakeTx) FindStuckProcessingForUpdate(_ context.Context, cutoff time.Time) ([]domain.Room, error) {
	var rooms []domain.Room
	for _, room := range t.store.rooms {
		if room.State == domain.RoomStateProcessing && room.UpdatedAt.Before(cutoff) {
			cp := *room
			cp.Players = append([]int64(nil), room.Players...)
			rooms = append(rooms, cp)
		}
	}

	return rooms, nil
}

func (t *fakeTx) ListUsersByIDs(_ context.Context, userIDs []int64) ([]domain.User, error) {
	var users []domain.User
	for _, id := range userIDs {
		if user, ok := t.store.users[id]; ok {
			users = append(users, *user)
		}
	}

	return users, nil
}

func (t *fakeTx) CreditUsers(_ context.Context, userIDs []int64, amount decimal.Decimal) error {
	for _, id := range userIDs {
		user, ok := t.store.users[id]
		if !ok {
			return store.ErrNotFound
		}

		user.Wallet.Balance = user.Wallet.Balance.Add(amount)
	}

	return nil
}

func (t *fakeTx) ClearUsersRoom(_ context.Context, userIDs []int64) error {
	for _, id := range userIDs {
		if user, ok := t.store.users[id]; ok {
			user.RoomID = nil
		}
	}

	return nil
}

// fakeNotifier records every message handed to it.
type fakeNotifier struct {
	messages map[int64][]string
	err      error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{messages: make(map[int64][]string)}
}

func (n *fakeNotifier) NotifyUser(_ context.Context, userID int64, message string) error {
	if n.err != nil {
		return n.err
	}

	n.messages[userID] = append(n.messages[userID], message)
	return nil
}

// fakeQueue records enqueued tasks.
type fakeQueue struct {
	tasks []*asynq.Task
	err   error
}

func (q *fakeQueue) Enqueue(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if q.err != nil {
		return nil, q.err
	}

	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{}, nil
}

func (q *fakeQueue) Close() error { return nil }

var errFakeQueue = errors.New("queue unavailable")
