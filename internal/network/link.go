// Package network implements the peer graph: directed follower-leader
// links within a movement and the wiring algorithms that keep every
// follower supplied with leaders.
package network

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/gridt-app/gridt/internal/database"
)

// ErrNotFollowing is returned when an operation requires an active
// link that does not exist.
var ErrNotFollowing = errors.New("user is not following this leader")

// UserToUserLink is a directed follower to leader edge within a
// movement. A set destroyed timestamp retires the edge.
type UserToUserLink struct {
	ID         int64      `json:"id" db:"id"`
	FollowerID int64      `json:"follower_id" db:"follower_id"`
	LeaderID   int64      `json:"leader_id" db:"leader_id"`
	MovementID int64      `json:"movement_id" db:"movement_id"`
	Created    time.Time  `json:"created" db:"created"`
	Destroyed  *time.Time `json:"destroyed" db:"destroyed"`
}

// Repository handles persistence for links and the candidate queries
// of the wiring algorithms.
type Repository interface {
	Insert(ctx context.Context, link *UserToUserLink) error
	ActiveLink(ctx context.Context, followerID, leaderID, movementID int64) (*UserToUserLink, error)
	Destroy(ctx context.Context, id int64, when time.Time) error
	ActiveByFollower(ctx context.Context, followerID, movementID int64) ([]*UserToUserLink, error)
	ActiveByLeader(ctx context.Context, leaderID, movementID int64) ([]*UserToUserLink, error)
	ActiveByMovement(ctx context.Context, movementID int64) ([]*UserToUserLink, error)

	// Leaders returns the distinct leader ids the follower currently
	// follows in the movement.
	Leaders(ctx context.Context, followerID, movementID int64) ([]int64, error)

	// PossibleLeaders returns the ids of active subscribers of the
	// movement who are not the user, are not currently led by the
	// user, and are not in the excluded set.
	PossibleLeaders(ctx context.Context, userID, movementID int64, excluding ...int64) ([]int64, error)

	// PossibleFollowers returns the ids of active subscribers of the
	// movement who are not the user, do not already follow the user,
	// and have fewer than cap active leaders.
	PossibleFollowers(ctx context.Context, userID, movementID int64, cap int) ([]int64, error)
}

// PGRepository is the PostgreSQL-backed link repository
type PGRepository struct {
	db database.Executor
}

// NewPGRepository creates a new link repository over the store
func NewPGRepository(db database.Executor) *PGRepository {
	return &PGRepository{db: db}
}

// Insert stores a new active link and assigns its id
func (r *PGRepository) Insert(ctx context.Context, link *UserToUserLink) error {
	query := `
		INSERT INTO user_to_user_links (follower_id, leader_id, movement_id, created)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	return r.db.QueryRow(ctx, query,
		link.FollowerID,
		link.LeaderID,
		link.MovementID,
		link.Created,
	).Scan(&link.ID)
}

// ActiveLink retrieves the active link between a follower and a leader
func (r *PGRepository) ActiveLink(ctx context.Context, followerID, leaderID, movementID int64) (*UserToUserLink, error) {
	query := selectLink + `
		WHERE follower_id = $1 AND leader_id = $2 AND movement_id = $3
		  AND destroyed IS NULL
	`
	link := &UserToUserLink{}
	err := scanLink(r.db.QueryRow(ctx, query, followerID, leaderID, movementID), link)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFollowing
		}
		return nil, err
	}
	return link, nil
}

// Destroy retires the link. An already destroyed link keeps its
// original timestamp.
func (r *PGRepository) Destroy(ctx context.Context, id int64, when time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE user_to_user_links
		SET destroyed = $2
		WHERE id = $1 AND destroyed IS NULL
	`, id, when)
	return err
}

// ActiveByFollower retrieves the active outgoing links of a follower
func (r *PGRepository) ActiveByFollower(ctx context.Context, followerID, movementID int64) ([]*UserToUserLink, error) {
	query := selectLink + `
		WHERE follower_id = $1 AND movement_id = $2 AND destroyed IS NULL
		ORDER BY id
	`
	return r.listLinks(ctx, query, followerID, movementID)
}

// ActiveByLeader retrieves the active incoming links of a leader
func (r *PGRepository) ActiveByLeader(ctx context.Context, leaderID, movementID int64) ([]*UserToUserLink, error) {
	query := selectLink + `
		WHERE leader_id = $1 AND movement_id = $2 AND destroyed IS NULL
		ORDER BY id
	`
	return r.listLinks(ctx, query, leaderID, movementID)
}

// ActiveByMovement retrieves every active link in a movement
func (r *PGRepository) ActiveByMovement(ctx context.Context, movementID int64) ([]*UserToUserLink, error) {
	query := selectLink + `
		WHERE movement_id = $1 AND destroyed IS NULL
		ORDER BY id
	`
	return r.listLinks(ctx, query, movementID)
}

// Leaders returns the distinct leaders the follower currently follows
func (r *PGRepository) Leaders(ctx context.Context, followerID, movementID int64) ([]int64, error) {
	query := `
		SELECT DISTINCT leader_id
		FROM user_to_user_links
		WHERE follower_id = $1 AND movement_id = $2 AND destroyed IS NULL
	`
	return r.listIDs(ctx, query, followerID, movementID)
}

// PossibleLeaders returns candidate leader ids for the user
func (r *PGRepository) PossibleLeaders(ctx context.Context, userID, movementID int64, excluding ...int64) ([]int64, error) {
	// The excluded set piggybacks on = ANY so the query shape stays
	// constant regardless of how many ids are passed.
	query := `
		SELECT DISTINCT r.user_id
		FROM movement_user_relations r
		WHERE r.relation_type = 'subscription'
		  AND r.movement_id = $1
		  AND r.time_removed IS NULL
		  AND r.user_id <> $2
		  AND r.user_id <> ALL ($3)
		  AND r.user_id NOT IN (
			SELECT l.leader_id
			FROM user_to_user_links l
			WHERE l.follower_id = $2 AND l.movement_id = $1 AND l.destroyed IS NULL
		  )
	`
	if excluding == nil {
		excluding = []int64{}
	}
	return r.listIDs(ctx, query, movementID, userID, excluding)
}

// PossibleFollowers returns candidate follower ids for the user
func (r *PGRepository) PossibleFollowers(ctx context.Context, userID, movementID int64, cap int) ([]int64, error) {
	query := `
		SELECT r.user_id
		FROM movement_user_relations r
		LEFT JOIN user_to_user_links l
		  ON l.follower_id = r.user_id
		 AND l.movement_id = r.movement_id
		 AND l.destroyed IS NULL
		WHERE r.relation_type = 'subscription'
		  AND r.movement_id = $1
		  AND r.time_removed IS NULL
		  AND r.user_id <> $2
		  AND r.user_id NOT IN (
			SELECT f.follower_id
			FROM user_to_user_links f
			WHERE f.leader_id = $2 AND f.movement_id = $1 AND f.destroyed IS NULL
		  )
		GROUP BY r.user_id
		HAVING COUNT(l.id) < $3
	`
	return r.listIDs(ctx, query, movementID, userID, cap)
}

const selectLink = `
	SELECT id, follower_id, leader_id, movement_id, created, destroyed
	FROM user_to_user_links
`

func (r *PGRepository) listLinks(ctx context.Context, query string, args ...any) ([]*UserToUserLink, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []*UserToUserLink
	for rows.Next() {
		link := &UserToUserLink{}
		if err := scanLink(rows, link); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

func (r *PGRepository) listIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanLink(row pgx.Row, link *UserToUserLink) error {
	return row.Scan(
		&link.ID,
		&link.FollowerID,
		&link.LeaderID,
		&link.MovementID,
		&link.Created,
		&link.Destroyed,
	)
}

// Ensure PGRepository implements Repository
var _ Repository = (*PGRepository)(nil)
