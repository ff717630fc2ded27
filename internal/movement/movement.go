// Package movement implements the movement registry and the composed
// per-viewer movement view.
package movement

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/gridt-app/gridt/internal/database"
)

// ErrMovementNotFound is returned when a movement is not found
var ErrMovementNotFound = errors.New("movement not found")

// Movement is a named habit group with a repetition interval.
type Movement struct {
	ID               int64  `json:"id" db:"id"`
	Name             string `json:"name" db:"name"`
	Interval         string `json:"interval" db:"interval"`
	ShortDescription string `json:"short_description" db:"short_description"`
	Description      string `json:"description" db:"description"`
}

// JSON is the base movement projection, embedded in subscription
// payloads and the composed view.
type JSON struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	ShortDescription string `json:"short_description"`
	Description      string `json:"description"`
	Interval         string `json:"interval"`
}

// ToJSON computes the base JSON projection of the movement.
func (m *Movement) ToJSON() JSON {
	return JSON{
		ID:               m.ID,
		Name:             m.Name,
		ShortDescription: m.ShortDescription,
		Description:      m.Description,
		Interval:         m.Interval,
	}
}

// Repository handles persistence for movements
type Repository interface {
	Create(ctx context.Context, movement *Movement) error
	GetByID(ctx context.Context, id int64) (*Movement, error)
	GetByName(ctx context.Context, name string) (*Movement, error)
	NameExists(ctx context.Context, name string) (bool, error)
	Exists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context) ([]*Movement, error)
}

// PGRepository is the PostgreSQL-backed movement repository
type PGRepository struct {
	db database.Executor
}

// NewPGRepository creates a new movement repository over the store
func NewPGRepository(db database.Executor) *PGRepository {
	return &PGRepository{db: db}
}

// Create inserts a new movement and assigns its id. Names are not
// unique; callers that care must check NameExists first.
func (r *PGRepository) Create(ctx context.Context, movement *Movement) error {
	query := `
		INSERT INTO movements (name, interval, short_description, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	return r.db.QueryRow(ctx, query,
		movement.Name,
		movement.Interval,
		movement.ShortDescription,
		movement.Description,
	).Scan(&movement.ID)
}

// GetByID retrieves a movement by id
func (r *PGRepository) GetByID(ctx context.Context, id int64) (*Movement, error) {
	query := `
		SELECT id, name, interval, short_description, description
		FROM movements
		WHERE id = $1
	`
	return r.scanMovement(r.db.QueryRow(ctx, query, id))
}

// GetByName retrieves the oldest movement with the given name
func (r *PGRepository) GetByName(ctx context.Context, name string) (*Movement, error) {
	query := `
		SELECT id, name, interval, short_description, description
		FROM movements
		WHERE name = $1
		ORDER BY id
		LIMIT 1
	`
	return r.scanMovement(r.db.QueryRow(ctx, query, name))
}

// NameExists reports whether any movement carries the name
func (r *PGRepository) NameExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM movements WHERE name = $1)`, name,
	).Scan(&exists)
	return exists, err
}

// Exists reports whether a movement id is known
func (r *PGRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM movements WHERE id = $1)`, id,
	).Scan(&exists)
	return exists, err
}

// List retrieves all movements ordered by id
func (r *PGRepository) List(ctx context.Context) ([]*Movement, error) {
	query := `
		SELECT id, name, interval, short_description, description
		FROM movements
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []*Movement
	for rows.Next() {
		movement := &Movement{}
		err := rows.Scan(
			&movement.ID,
			&movement.Name,
			&movement.Interval,
			&movement.ShortDescription,
			&movement.Description,
		)
		if err != nil {
			return nil, err
		}
		movements = append(movements, movement)
	}
	return movements, rows.Err()
}

func (r *PGRepository) scanMovement(row pgx.Row) (*Movement, error) {
	movement := &Movement{}
	err := row.Scan(
		&movement.ID,
		&movement.Name,
		&movement.Interval,
		&movement.ShortDescription,
		&movement.Description,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMovementNotFound
		}
		return nil, err
	}
	return movement, nil
}

// Ensure PGRepository implements Repository
var _ Repository = (*PGRepository)(nil)
