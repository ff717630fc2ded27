package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: ErrCodeUniqueViolation, ConstraintName: "users_email_key"}

	assert.True(t, IsUniqueViolation(pgErr))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert failed: %w", pgErr)))
	assert.False(t, IsUniqueViolation(errors.New("some other error")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestIsForeignKeyViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: ErrCodeForeignKeyViolation}

	assert.True(t, IsForeignKeyViolation(pgErr))
	assert.False(t, IsForeignKeyViolation(&pgconn.PgError{Code: ErrCodeUniqueViolation}))
}

func TestIsSerializationFailure(t *testing.T) {
	pgErr := &pgconn.PgError{Code: ErrCodeSerializationFailure}

	assert.True(t, IsSerializationFailure(pgErr))
	assert.True(t, IsSerializationFailure(fmt.Errorf("wiring: %w", pgErr)))
	assert.False(t, IsSerializationFailure(errors.New("conflict")))
}

func TestGetConstraintName(t *testing.T) {
	pgErr := &pgconn.PgError{Code: ErrCodeUniqueViolation, ConstraintName: "users_email_key"}

	assert.Equal(t, "users_email_key", GetConstraintName(pgErr))
	assert.Equal(t, "", GetConstraintName(errors.New("nope")))
}
