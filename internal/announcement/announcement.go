// Package announcement implements admin-authored movement
// announcements with soft deletion.
package announcement

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/gridt-app/gridt/internal/database"
	"github.com/gridt-app/gridt/internal/identity"
	"github.com/gridt-app/gridt/internal/timefmt"
)

// MaxMessageLength bounds the announcement message.
const MaxMessageLength = 140

// ErrAnnouncementNotFound is returned when an announcement is not found
var ErrAnnouncementNotFound = errors.New("announcement not found")

// Announcement is an admin-authored note broadcast in a movement. A
// set removed_time retires the row without deleting it.
type Announcement struct {
	ID          int64      `json:"id" db:"id"`
	MovementID  int64      `json:"movement_id" db:"movement_id"`
	PosterID    int64      `json:"poster_id" db:"poster_id"`
	Message     string     `json:"message" db:"message"`
	CreatedTime time.Time  `json:"created_time" db:"created_time"`
	UpdatedTime *time.Time `json:"updated_time" db:"updated_time"`
	RemovedTime *time.Time `json:"removed_time" db:"removed_time"`
}

// JSON is the announcement wire projection. The poster is the full
// user projection, not a bare id.
type JSON struct {
	ID          int64              `json:"id"`
	MovementID  int64              `json:"movement_id"`
	Poster      identity.JSON      `json:"poster"`
	Message     string             `json:"message"`
	CreatedTime timefmt.Timestamp  `json:"created_time"`
	UpdatedTime *timefmt.Timestamp `json:"updated_time"`
}

// ToJSON computes the JSON projection of the announcement.
func (a *Announcement) ToJSON(poster *identity.User) JSON {
	return JSON{
		ID:          a.ID,
		MovementID:  a.MovementID,
		Poster:      poster.ToJSON(false),
		Message:     a.Message,
		CreatedTime: timefmt.New(a.CreatedTime),
		UpdatedTime: timefmt.NewPtr(a.UpdatedTime),
	}
}

// Repository handles persistence for announcements
type Repository interface {
	Insert(ctx context.Context, announcement *Announcement) error
	GetByID(ctx context.Context, id int64) (*Announcement, error)
	Update(ctx context.Context, id int64, message string, updatedTime time.Time) error
	Remove(ctx context.Context, id int64, removedTime time.Time) error
	ActiveByMovement(ctx context.Context, movementID int64) ([]*Announcement, error)
	LastByMovement(ctx context.Context, movementID int64) (*Announcement, error)
}

// PGRepository is the PostgreSQL-backed announcement repository
type PGRepository struct {
	db database.Executor
}

// NewPGRepository creates a new announcement repository over the store
func NewPGRepository(db database.Executor) *PGRepository {
	return &PGRepository{db: db}
}

// Insert stores a new announcement and assigns its id
func (r *PGRepository) Insert(ctx context.Context, announcement *Announcement) error {
	query := `
		INSERT INTO announcements (movement_id, poster_id, message, created_time)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	return r.db.QueryRow(ctx, query,
		announcement.MovementID,
		announcement.PosterID,
		announcement.Message,
		announcement.CreatedTime,
	).Scan(&announcement.ID)
}

// GetByID retrieves an active announcement by id
func (r *PGRepository) GetByID(ctx context.Context, id int64) (*Announcement, error) {
	query := selectAnnouncement + ` WHERE id = $1 AND removed_time IS NULL`
	announcement, err := r.scanAnnouncement(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return announcement, nil
}

// Update sets a new message and the updated timestamp
func (r *PGRepository) Update(ctx context.Context, id int64, message string, updatedTime time.Time) error {
	query := `
		UPDATE announcements
		SET message = $2, updated_time = $3
		WHERE id = $1 AND removed_time IS NULL
	`
	tag, err := r.db.Exec(ctx, query, id, message, updatedTime)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAnnouncementNotFound
	}
	return nil
}

// Remove soft-deletes the announcement. An already removed row keeps
// its original removal timestamp.
func (r *PGRepository) Remove(ctx context.Context, id int64, removedTime time.Time) error {
	query := `
		UPDATE announcements
		SET removed_time = $2
		WHERE id = $1 AND removed_time IS NULL
	`
	tag, err := r.db.Exec(ctx, query, id, removedTime)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAnnouncementNotFound
	}
	return nil
}

// ActiveByMovement retrieves the active announcements of a movement,
// newest first.
func (r *PGRepository) ActiveByMovement(ctx context.Context, movementID int64) ([]*Announcement, error) {
	query := selectAnnouncement + `
		WHERE movement_id = $1 AND removed_time IS NULL
		ORDER BY created_time DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, movementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var announcements []*Announcement
	for rows.Next() {
		announcement := &Announcement{}
		err := rows.Scan(
			&announcement.ID,
			&announcement.MovementID,
			&announcement.PosterID,
			&announcement.Message,
			&announcement.CreatedTime,
			&announcement.UpdatedTime,
			&announcement.RemovedTime,
		)
		if err != nil {
			return nil, err
		}
		announcements = append(announcements, announcement)
	}
	return announcements, rows.Err()
}

// LastByMovement retrieves the newest active announcement of a
// movement, or nil when none exists.
func (r *PGRepository) LastByMovement(ctx context.Context, movementID int64) (*Announcement, error) {
	query := selectAnnouncement + `
		WHERE movement_id = $1 AND removed_time IS NULL
		ORDER BY created_time DESC, id DESC
		LIMIT 1
	`
	announcement, err := r.scanAnnouncement(r.db.QueryRow(ctx, query, movementID))
	if errors.Is(err, ErrAnnouncementNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return announcement, nil
}

const selectAnnouncement = `
	SELECT id, movement_id, poster_id, message, created_time, updated_time, removed_time
	FROM announcements
`

func (r *PGRepository) scanAnnouncement(row pgx.Row) (*Announcement, error) {
	announcement := &Announcement{}
	err := row.Scan(
		&announcement.ID,
		&announcement.MovementID,
		&announcement.PosterID,
		&announcement.Message,
		&announcement.CreatedTime,
		&announcement.UpdatedTime,
		&announcement.RemovedTime,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAnnouncementNotFound
		}
		return nil, err
	}
	return announcement, nil
}

// Ensure PGRepository implements Repository
var _ Repository = (*PGRepository)(nil)
