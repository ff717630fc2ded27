package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

var (
	// ErrInvalidToken is returned when a token is invalid
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when a token has expired
	ErrExpiredToken = errors.New("token has expired")
)

// DefaultTokenTTL is how long email-change and password-reset tokens
// stay valid.
const DefaultTokenTTL = 2 * time.Hour

// TokenClaims carries the payload of an identity token: the user id,
// and for email-change tokens the address being confirmed.
type TokenClaims struct {
	UserID   int64  `json:"user_id"`
	NewEmail string `json:"new_email,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates the HS256 tokens used by the
// password-reset and email-change flows.
type TokenManager struct {
	secretKey []byte
	ttl       time.Duration
	clock     clockwork.Clock
}

// NewTokenManager creates a token manager. A zero ttl selects the
// default of two hours.
func NewTokenManager(secretKey string, ttl time.Duration, clock clockwork.Clock) *TokenManager {
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TokenManager{
		secretKey: []byte(secretKey),
		ttl:       ttl,
		clock:     clock,
	}
}

// PasswordResetToken issues a token with payload {user_id, exp}.
func (m *TokenManager) PasswordResetToken(userID int64) (string, error) {
	return m.sign(&TokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(m.clock.Now().Add(m.ttl)),
			ID:        uuid.New().String(),
		},
	})
}

// EmailChangeToken issues a token with payload {user_id, new_email, exp}.
func (m *TokenManager) EmailChangeToken(userID int64, newEmail string) (string, error) {
	return m.sign(&TokenClaims{
		UserID:   userID,
		NewEmail: newEmail,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(m.clock.Now().Add(m.ttl)),
			ID:        uuid.New().String(),
		},
	})
}

func (m *TokenManager) sign(claims *TokenClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// Parse validates a token and returns its claims.
func (m *TokenManager) Parse(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return m.secretKey, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(m.clock.Now),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
