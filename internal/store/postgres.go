package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/limerc/rooms-bot/internal/domain"
)

// Postgres implements Store on top of database/sql with row-level locks.
type Postgres struct {
	db  *sql.DB
	log *slog.Logger
}

var _ Store = (*Postgres)(nil)

// NewPostgres creates a Postgres-backed store.
func NewPostgres(db *sql.DB, log *slog.Logger) *Postgres {
	if log == nil {
		log = slog.Default()
	}

	return &Postgres{db: db, log: log}
}

// WithTx begins a transaction, runs fn, and commits unless fn failed.
func (s *Postgres) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&pgTx{tx: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.log.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

const userColumns = `user_id, username, first_name, wallet_addr, balance, room_id, created_at`

func scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	var roomID sql.NullString

	if err := row.Scan(
		&u.UserID,
		&u.Username,
		&u.FirstName,
		&u.Wallet.Addr,
		&u.Wallet.Balance,
		&roomID,
		&u.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	if roomID.Valid {
		u.RoomID = &roomID.String
	}

	return &u, nil
}

// GetUser retrieves a user by their Telegram identifier.
func (s *Postgres) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE user_id = $1
	`

	return scanUser(s.db.QueryRowContext(ctx, query, userID))
}

// UpsertUser inserts the user when missing; an existing row is kept as is.
func (s *Postgres) UpsertUser(ctx context.Context, user *domain.User) error {
	const query = `
		INSERT INTO users (user_id, username, first_name, wallet_addr, balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO NOTHING
	`

	if _, err := s.db.ExecContext(
		ctx,
		query,
		user.UserID,
		user.Username,
		user.FirstName,
		user.Wallet.Addr,
		user.Wallet.Balance,
		user.CreatedAt,
	); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}

	return nil
}

// SaveRoom inserts a new room row.
func (s *Postgres) SaveRoom(ctx context.Context, room *domain.Room) error {
	const query = `
		INSERT INTO rooms (id, pool_amount, pool_symbol, win_rate, capacity, players, min_deposit, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	if _, err := s.db.ExecContext(
		ctx,
		query,
		room.ID,
		room.Pool.Amount,
		room.Pool.Symbol,
		room.WinRate,
		room.Capacity,
		pq.Array(room.Players),
		room.MinDeposit,
		room.State,
		room.CreatedAt,
		room.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert room: %w", err)
	}

	return nil
}

const roomColumns = `id, pool_amount, pool_symbol, win_rate, capacity, players, min_deposit, state, created_at, updated_at`

func scanRooms(rows *sql.Rows) ([]domain.Room, error) {
	var rooms []domain.Room

	for rows.Next() {
		var r domain.Room
		var players pq.Int64Array

		if err := rows.Scan(
			&r.ID,
			&r.Pool.Amount,
			&r.Pool.Symbol,
			&r.WinRate,
			&r.Capacity,
			&players,
			&r.MinDeposit,
			&r.State,
			&r.CreatedAt,
			&r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}

		r.Players = []int64(players)
		rooms = append(rooms, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}

	return rooms, nil
}

// FindJoinableRooms lists open rooms with at least one free seat.
func (s *Postgres) FindJoinableRooms(ctx context.Context) ([]domain.Room, error) {
	const query = `
		SELECT ` + roomColumns + `
		FROM rooms
		WHERE state = 'open' AND cardinality(players) < capacity
		ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select joinable rooms: %w", err)
	}
	defer rows.Close()

	return scanRooms(rows)
}

// CountRoomsByState aggregates room counts per lifecycle state.
func (s *Postgres) CountRoomsByState(ctx context.Context) (map[domain.RoomState]int, error) {
	const query = `
		SELECT state, count(*)
		FROM rooms
		GROUP BY state
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count rooms by state: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.RoomState]int)
	for rows.Next() {
		var state domain.RoomState
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("scan room count: %w", err)
		}
		counts[state] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate room counts: %w", err)
	}

	return counts, nil
}

// pgTx implements Tx over a live sql.Tx.
type pgTx struct {
	tx *sql.Tx
}

var _ Tx = (*pgTx)(nil)

func (t *pgTx) GetUserForUpdate(ctx context.Context, userID int64) (*domain.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE user_id = $1
		FOR UPDATE
	`

	return scanUser(t.tx.QueryRowContext(ctx, query, userID))
}

func (t *pgTx) GetRoomForUpdate(ctx context.Context, roomID string) (*domain.Room, error) {
	const query = `
		SELECT ` + roomColumns + `
		FROM rooms
		WHERE id = $1
		FOR UPDATE
	`

	rows, err := t.tx.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("select room for update: %w", err)
	}
	defer rows.Close()

	rooms, err := scanRooms(rows)
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return nil, ErrNotFound
	}

	return &rooms[0], nil
}

func (t *pgTx) UpdateUser(ctx context.Context, user *domain.User) error {
	const query = `
		UPDATE users
		SET username = $2, balance = $3, room_id = $4
		WHERE user_id = $1
	`

	var roomID sql.NullString
	if user.RoomID != nil {
		roomID = sql.NullString{String: *user.RoomID, Valid: true}
	}

	if _, err := t.tx.ExecContext(ctx, query, user.UserID, user.Username, user.Wallet.Balance, roomID); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	return nil
}

func (t *pgTx) UpdateRoom(ctx context.Context, room *domain.Room) error {
	cur, err := t.roomState(ctx, room.ID)
	if err != nil {
		return err
	}
	if err := ValidateRoomTransition(cur, room.State); err != nil {
		return fmt.Errorf("room %s: %w", room.ID, err)
	}

	const query = `
		UPDATE rooms
		SET pool_amount = $2, players = $3, state = $4, updated_at = now()
		WHERE id = $1
	`

	if _, err := t.tx.ExecContext(ctx, query, room.ID, room.Pool.Amount, pq.Array(room.Players), room.State); err != nil {
		return fmt.Errorf("update room: %w", err)
	}

	return nil
}

// roomState reads the current state of a room. Callers hold the row
// lock already, so the read is consistent for the rest of the tx.
func (t *pgTx) roomState(ctx context.Context, roomID string) (domain.RoomState, error) {
	const query = `SELECT state FROM rooms WHERE id = $1`

	var state domain.RoomState
	if err := t.tx.QueryRowContext(ctx, query, roomID).Scan(&state); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("select room state: %w", err)
	}

	return state, nil
}

func (t *pgTx) FindRoomsByStateForUpdate(ctx context.Context, state domain.RoomState) ([]domain.Room, error) {
	const query = `
		SELECT ` + roomColumns + `
		FROM rooms
		WHERE state = $1
		ORDER BY created_at
		FOR UPDATE
	`

	rows, err := t.tx.QueryContext(ctx, query, state)
	if err != nil {
		return nil, fmt.Errorf("select rooms by state: %w", err)
	}
	defer rows.Close()

	return scanRooms(rows)
}

func (t *pgTx) UpdateRoomsState(ctx context.Context, roomIDs []string, state domain.RoomState) error {
	if len(roomIDs) == 0 {
		return nil
	}

	for _, id := range roomIDs {
		cur, err := t.roomState(ctx, id)
		if err != nil {
			return err
		}
		if err := ValidateRoomTransition(cur, state); err != nil {
			return fmt.Errorf("room %s: %w", id, err)
		}
	}

	const query = `
		UPDATE rooms
		SET state = $2, updated_at = now()
		WHERE id = ANY($1)
	`

	if _, err := t.tx.ExecContext(ctx, query, pq.Array(roomIDs), state); err != nil {
		return fmt.Errorf("update rooms state: %w", err)
	}

	return nil
}

func (t *pgTx) FindStuckProcessingForUpdate(ctx context.Context, cutoff time.Time) ([]domain.Room, error) {
	const query = `
		SELECT ` + roomColumns + `
		FROM rooms
		WHERE state = 'processing' AND updated_at < $1
		ORDER BY updated_at
		FOR UPDATE
	`

	rows, err := t.tx.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("select stuck processing rooms: %w", err)
	}
	defer rows.Close()

	return scanRooms(rows)
}

func (t *pgTx) ListUsersByIDs(ctx context.Context, userIDs []int64) ([]domain.User, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE user_id = ANY($1)
	`

	rows, err := t.tx.QueryContext(ctx, query, pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("select users by ids: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		var roomID sql.NullString

		if err := rows.Scan(
			&u.UserID,
			&u.Username,
			&u.FirstName,
			&u.Wallet.Addr,
			&u.Wallet.Balance,
			&roomID,
			&u.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}

		if roomID.Valid {
			u.RoomID = &roomID.String
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

func (t *pgTx) CreditUsers(ctx context.Context, userIDs []int64, amount decimal.Decimal) error {
	if len(userIDs) == 0 || amount.IsZero() {
		return nil
	}

	const query = `
		UPDATE users
		SET balance = balance + $2
		WHERE user_id = ANY($1)
	`

	if _, err := t.tx.ExecContext(ctx, query, pq.Array(userIDs), amount); err != nil {
		return fmt.Errorf("credit users: %w", err)
	}

	return nil
}

func (t *pgTx) ClearUsersRoom(ctx context.Context, userIDs []int64) error {
	if len(userIDs) == 0 {
		return nil
	}

	const query = `
		UPDATE users
		SET room_id = NULL
		WHERE user_id = ANY($1)
	`

	if _, err := t.tx.ExecContext(ctx, query, pq.Array(userIDs)); err != nil {
		return fmt.Errorf("clear users room: %w", err)
	}

	return nil
}
