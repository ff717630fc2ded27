package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordResetTokenRoundTrip(t *testing.T) {
	now := time.Date(2023, 2, 25, 16, 30, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)
	tokens := NewTokenManager("secret", 0, clock)

	token, err := tokens.PasswordResetToken(42)
	require.NoError(t, err)

	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Empty(t, claims.NewEmail)
	assert.Equal(t, now.Add(2*time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestEmailChangeTokenRoundTrip(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2023, 2, 25, 16, 30, 0, 0, time.UTC))
	tokens := NewTokenManager("secret", 0, clock)

	token, err := tokens.EmailChangeToken(7, "new@gridt.org")
	require.NoError(t, err)

	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "new@gridt.org", claims.NewEmail)
}

func TestParseExpiredToken(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2023, 2, 25, 16, 30, 0, 0, time.UTC))
	tokens := NewTokenManager("secret", 0, clock)

	token, err := tokens.PasswordResetToken(42)
	require.NoError(t, err)

	clock.Advance(2*time.Hour + time.Minute)

	_, err = tokens.Parse(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestParseWrongSecret(t *testing.T) {
	tokens := NewTokenManager("secret", 0, nil)
	other := NewTokenManager("different", 0, nil)

	token, err := tokens.PasswordResetToken(42)
	require.NoError(t, err)

	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsUnsignedToken(t *testing.T) {
	tokens := NewTokenManager("secret", 0, nil)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &TokenClaims{UserID: 42})
	tokenString, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tokens.Parse(tokenString)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
