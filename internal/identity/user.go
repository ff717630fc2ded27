// Package identity implements the user lifecycle: registration,
// password verification, token-gated email change and password reset,
// and the user JSON projection.
package identity

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/gridt-app/gridt/internal/database"
)

var (
	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailInUse is returned when registering with an existing email
	ErrEmailInUse = errors.New("user with this email already exists")
	// ErrBadCredentials is returned when login credentials are invalid
	ErrBadCredentials = errors.New("invalid email or password")
	// ErrUserNotAdmin is returned when an operation requires an administrator
	ErrUserNotAdmin = errors.New("user is not an administrator")
)

// User represents a user in the system
type User struct {
	ID           int64  `json:"id" db:"id"`
	Username     string `json:"username" db:"username"`
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"` // Never expose in JSON
	IsAdmin      bool   `json:"is_admin" db:"is_admin"`
	Bio          string `json:"bio" db:"bio"`
}

// JSON is the user projection used across payloads. Email is included
// only when explicitly requested.
type JSON struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Bio      string `json:"bio"`
	Avatar   string `json:"avatar"`
	IsAdmin  bool   `json:"is_admin"`
	Email    string `json:"email,omitempty"`
}

// ToJSON computes the JSON projection of the user.
func (u *User) ToJSON(includeEmail bool) JSON {
	j := JSON{
		ID:       u.ID,
		Username: u.Username,
		Bio:      u.Bio,
		Avatar:   AvatarHash(u.Email),
		IsAdmin:  u.IsAdmin,
	}
	if includeEmail {
		j.Email = u.Email
	}
	return j
}

// AvatarHash computes the avatar identifier: the MD5 hex digest of the
// lowercased email bytes. Kept for backwards compatibility with the
// existing avatar service integration.
func AvatarHash(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(email)))
	return hex.EncodeToString(sum[:])
}

// AssertAdmin returns ErrUserNotAdmin unless the user is an admin.
func AssertAdmin(u *User) error {
	if !u.IsAdmin {
		return ErrUserNotAdmin
	}
	return nil
}

// Repository handles persistence for users
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateBio(ctx context.Context, id int64, bio string) error
	UpdateEmail(ctx context.Context, id int64, email string) error
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
}

// PGRepository is the PostgreSQL-backed user repository
type PGRepository struct {
	db database.Executor
}

// NewPGRepository creates a new user repository over the store
func NewPGRepository(db database.Executor) *PGRepository {
	return &PGRepository{db: db}
}

// Create inserts a new user and assigns its id
func (r *PGRepository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (username, email, password_hash, is_admin, bio)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsAdmin,
		user.Bio,
	).Scan(&user.ID)

	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrEmailInUse
		}
		return err
	}

	return nil
}

// GetByID retrieves a user by id
func (r *PGRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	query := `
		SELECT id, username, email, password_hash, is_admin, bio
		FROM users
		WHERE id = $1
	`
	return r.scanUser(r.db.QueryRow(ctx, query, id))
}

// GetByEmail retrieves a user by email
func (r *PGRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, username, email, password_hash, is_admin, bio
		FROM users
		WHERE email = $1
	`
	return r.scanUser(r.db.QueryRow(ctx, query, email))
}

// UpdateBio sets the bio of a user
func (r *PGRepository) UpdateBio(ctx context.Context, id int64, bio string) error {
	return r.update(ctx, `UPDATE users SET bio = $2 WHERE id = $1`, id, bio)
}

// UpdateEmail sets the email of a user
func (r *PGRepository) UpdateEmail(ctx context.Context, id int64, email string) error {
	err := r.update(ctx, `UPDATE users SET email = $2 WHERE id = $1`, id, email)
	if database.IsUniqueViolation(err) {
		return ErrEmailInUse
	}
	return err
}

// UpdatePasswordHash sets the password hash of a user
func (r *PGRepository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	return r.update(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, hash)
}

func (r *PGRepository) update(ctx context.Context, query string, id int64, value string) error {
	tag, err := r.db.Exec(ctx, query, id, value)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PGRepository) scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.IsAdmin,
		&user.Bio,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Ensure PGRepository implements Repository
var _ Repository = (*PGRepository)(nil)
