// Package signal implements leader signals: the "I did it" pings a
// leader broadcasts to their followers within a movement.
package signal

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/gridt-app/gridt/internal/database"
	"github.com/gridt-app/gridt/internal/timefmt"
)

// MaxMessageLength bounds the optional signal message.
const MaxMessageLength = 140

// Signal records that a leader acted on a movement at a point in time,
// optionally with a message.
type Signal struct {
	ID         int64      `json:"id" db:"id"`
	LeaderID   int64      `json:"leader_id" db:"leader_id"`
	MovementID int64      `json:"movement_id" db:"movement_id"`
	TimeStamp  time.Time  `json:"time_stamp" db:"time_stamp"`
	Message    *string    `json:"message" db:"message"`
}

// JSON is the signal wire projection. The message key is omitted when
// the signal carries none.
type JSON struct {
	TimeStamp timefmt.Timestamp `json:"time_stamp"`
	Message   string            `json:"message,omitempty"`
}

// ToJSON computes the JSON projection of the signal.
func (s *Signal) ToJSON() JSON {
	j := JSON{TimeStamp: timefmt.New(s.TimeStamp)}
	if s.Message != nil {
		j.Message = *s.Message
	}
	return j
}

// Repository handles persistence for signals
type Repository interface {
	Insert(ctx context.Context, signal *Signal) error
	Last(ctx context.Context, leaderID, movementID int64) (*Signal, error)
	History(ctx context.Context, leaderID, movementID int64, n int) ([]*Signal, error)
}

// PGRepository is the PostgreSQL-backed signal repository
type PGRepository struct {
	db database.Executor
}

// NewPGRepository creates a new signal repository over the store
func NewPGRepository(db database.Executor) *PGRepository {
	return &PGRepository{db: db}
}

// Insert stores a new signal and assigns its id
func (r *PGRepository) Insert(ctx context.Context, signal *Signal) error {
	query := `
		INSERT INTO signals (leader_id, movement_id, time_stamp, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	return r.db.QueryRow(ctx, query,
		signal.LeaderID,
		signal.MovementID,
		signal.TimeStamp,
		signal.Message,
	).Scan(&signal.ID)
}

// Last retrieves the newest signal of a leader in a movement, or nil
// when the leader never signalled there.
func (r *PGRepository) Last(ctx context.Context, leaderID, movementID int64) (*Signal, error) {
	query := `
		SELECT id, leader_id, movement_id, time_stamp, message
		FROM signals
		WHERE leader_id = $1 AND movement_id = $2
		ORDER BY time_stamp DESC, id DESC
		LIMIT 1
	`
	signal := &Signal{}
	err := r.db.QueryRow(ctx, query, leaderID, movementID).Scan(
		&signal.ID,
		&signal.LeaderID,
		&signal.MovementID,
		&signal.TimeStamp,
		&signal.Message,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return signal, nil
}

// History retrieves the newest n signals of a leader in a movement,
// newest first.
func (r *PGRepository) History(ctx context.Context, leaderID, movementID int64, n int) ([]*Signal, error) {
	query := `
		SELECT id, leader_id, movement_id, time_stamp, message
		FROM signals
		WHERE leader_id = $1 AND movement_id = $2
		ORDER BY time_stamp DESC, id DESC
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, leaderID, movementID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signals []*Signal
	for rows.Next() {
		signal := &Signal{}
		err := rows.Scan(
			&signal.ID,
			&signal.LeaderID,
			&signal.MovementID,
			&signal.TimeStamp,
			&signal.Message,
		)
		if err != nil {
			return nil, err
		}
		signals = append(signals, signal)
	}
	return signals, rows.Err()
}

// Ensure PGRepository implements Repository
var _ Repository = (*PGRepository)(nil)
