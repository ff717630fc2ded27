package relation

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/gridt-app/gridt/internal/database"
)

// ErrRelationNotFound is returned by the repository when no active row
// matches; the services map it to the kind-specific error.
var ErrRelationNotFound = errors.New("relation not found")

// Repository handles persistence for user-movement relations
type Repository interface {
	Insert(ctx context.Context, relation *Relation) error
	GetActive(ctx context.Context, kind Kind, userID, movementID int64) (*Relation, error)
	ActiveExists(ctx context.Context, kind Kind, userID, movementID int64) (bool, error)
	End(ctx context.Context, id int64, when time.Time) error
	ActiveByMovement(ctx context.Context, kind Kind, movementID int64) ([]*Relation, error)
	ActiveByUser(ctx context.Context, kind Kind, userID int64) ([]*Relation, error)

	// SubscriptionExists is ActiveExists for the subscription kind,
	// shaped to satisfy the subscription checker interfaces of the
	// movement and signal packages.
	SubscriptionExists(ctx context.Context, userID, movementID int64) (bool, error)
}

// PGRepository is the PostgreSQL-backed relation repository
type PGRepository struct {
	db database.Executor
}

// NewPGRepository creates a new relation repository over the store
func NewPGRepository(db database.Executor) *PGRepository {
	return &PGRepository{db: db}
}

// Insert stores a new relation and assigns its id
func (r *PGRepository) Insert(ctx context.Context, relation *Relation) error {
	query := `
		INSERT INTO movement_user_relations (relation_type, user_id, movement_id, time_added)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	return r.db.QueryRow(ctx, query,
		relation.Kind,
		relation.UserID,
		relation.MovementID,
		relation.TimeAdded,
	).Scan(&relation.ID)
}

// GetActive retrieves the active relation of a kind between a user and
// a movement.
func (r *PGRepository) GetActive(ctx context.Context, kind Kind, userID, movementID int64) (*Relation, error) {
	query := selectRelation + `
		WHERE relation_type = $1 AND user_id = $2 AND movement_id = $3
		  AND time_removed IS NULL
	`
	relation := &Relation{}
	err := r.scanRelation(r.db.QueryRow(ctx, query, kind, userID, movementID), relation)
	if err != nil {
		return nil, err
	}
	return relation, nil
}

// ActiveExists reports whether an active relation of the kind exists
func (r *PGRepository) ActiveExists(ctx context.Context, kind Kind, userID, movementID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM movement_user_relations
			WHERE relation_type = $1 AND user_id = $2 AND movement_id = $3
			  AND time_removed IS NULL
		)`, kind, userID, movementID,
	).Scan(&exists)
	return exists, err
}

// SubscriptionExists reports whether the user actively subscribes to
// the movement.
func (r *PGRepository) SubscriptionExists(ctx context.Context, userID, movementID int64) (bool, error) {
	return r.ActiveExists(ctx, KindSubscription, userID, movementID)
}

// End marks the relation removed. An already ended relation keeps its
// original removal timestamp.
func (r *PGRepository) End(ctx context.Context, id int64, when time.Time) error {
	query := `
		UPDATE movement_user_relations
		SET time_removed = $2
		WHERE id = $1 AND time_removed IS NULL
	`
	tag, err := r.db.Exec(ctx, query, id, when)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRelationNotFound
	}
	return nil
}

// ActiveByMovement retrieves the active relations of a kind in a
// movement, oldest first.
func (r *PGRepository) ActiveByMovement(ctx context.Context, kind Kind, movementID int64) ([]*Relation, error) {
	query := selectRelation + `
		WHERE relation_type = $1 AND movement_id = $2 AND time_removed IS NULL
		ORDER BY id
	`
	return r.listRelations(ctx, query, kind, movementID)
}

// ActiveByUser retrieves the active relations of a kind held by a
// user, oldest first.
func (r *PGRepository) ActiveByUser(ctx context.Context, kind Kind, userID int64) ([]*Relation, error) {
	query := selectRelation + `
		WHERE relation_type = $1 AND user_id = $2 AND time_removed IS NULL
		ORDER BY id
	`
	return r.listRelations(ctx, query, kind, userID)
}

const selectRelation = `
	SELECT id, relation_type, user_id, movement_id, time_added, time_removed
	FROM movement_user_relations
`

func (r *PGRepository) listRelations(ctx context.Context, query string, args ...any) ([]*Relation, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var relations []*Relation
	for rows.Next() {
		relation := &Relation{}
		if err := r.scanRelation(rows, relation); err != nil {
			return nil, err
		}
		relations = append(relations, relation)
	}
	return relations, rows.Err()
}

func (r *PGRepository) scanRelation(row pgx.Row, relation *Relation) error {
	err := row.Scan(
		&relation.ID,
		&relation.Kind,
		&relation.UserID,
		&relation.MovementID,
		&relation.TimeAdded,
		&relation.TimeRemoved,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrRelationNotFound
	}
	return err
}

// Ensure PGRepository implements Repository
var _ Repository = (*PGRepository)(nil)
