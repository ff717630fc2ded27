package identity

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// Notifier sends the identity-flow mails. Satisfied by email.Notifier.
type Notifier interface {
	SendPasswordResetEmail(ctx context.Context, to, token string) error
	SendPasswordChangeNotification(ctx context.Context, to string) error
	SendEmailChangeEmail(ctx context.Context, to, username, token string) error
	SendEmailChangeNotification(ctx context.Context, to, username string) error
}

// Service implements the user lifecycle operations.
type Service struct {
	users    Repository
	hasher   *Hasher
	tokens   *TokenManager
	notifier Notifier
}

// NewService creates the identity service.
func NewService(users Repository, hasher *Hasher, tokens *TokenManager, notifier Notifier) *Service {
	return &Service{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		notifier: notifier,
	}
}

// Register creates a new user with a fresh password hash. Fails with
// ErrEmailInUse when the email is already registered.
func (s *Service) Register(ctx context.Context, username, email, password string, isAdmin bool) (*User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      isAdmin,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Info().Int64("user_id", user.ID).Str("username", username).Msg("User registered")
	return user, nil
}

// VerifyPasswordByEmail returns the user id when the credentials match,
// ErrBadCredentials otherwise (unknown email included).
func (s *Service) VerifyPasswordByEmail(ctx context.Context, email, password string) (int64, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return 0, ErrBadCredentials
		}
		return 0, err
	}
	if !s.hasher.Verify(user.PasswordHash, password) {
		return 0, ErrBadCredentials
	}
	return user.ID, nil
}

// VerifyPasswordByID reports whether the password matches the user's hash.
func (s *Service) VerifyPasswordByID(ctx context.Context, userID int64, password string) (bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return s.hasher.Verify(user.PasswordHash, password), nil
}

// UserExists reports whether a user id is known.
func (s *Service) UserExists(ctx context.Context, userID int64) (bool, error) {
	_, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetIdentity returns the user's own JSON projection, email included.
func (s *Service) GetIdentity(ctx context.Context, userID int64) (JSON, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return JSON{}, err
	}
	return user.ToJSON(true), nil
}

// UpdateBio sets the bio of a user.
func (s *Service) UpdateBio(ctx context.Context, userID int64, bio string) error {
	return s.users.UpdateBio(ctx, userID, bio)
}

// ChangePassword stores a new password hash and notifies the user.
// The notification failure is logged, not surfaced.
func (s *Service) ChangePassword(ctx context.Context, userID int64, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}

	if err := s.notifier.SendPasswordChangeNotification(ctx, user.Email); err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to send password change notification")
	}
	return nil
}

// RequestEmailChange mails a confirmation token to the new address.
// When the target email is already registered it logs and reports
// success, so callers cannot enumerate registered addresses.
func (s *Service) RequestEmailChange(ctx context.Context, userID int64, newEmail string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if _, err := s.users.GetByEmail(ctx, newEmail); err == nil {
		log.Error().
			Int64("user_id", userID).
			Msg("Email change to a registered email requested")
		return nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return err
	}

	token, err := s.tokens.EmailChangeToken(userID, newEmail)
	if err != nil {
		return err
	}
	return s.notifier.SendEmailChangeEmail(ctx, newEmail, user.Username, token)
}

// ChangeEmail applies a confirmed email change token and notifies the
// new address.
func (s *Service) ChangeEmail(ctx context.Context, tokenString string) error {
	claims, err := s.tokens.Parse(tokenString)
	if err != nil {
		return err
	}
	if claims.NewEmail == "" {
		return ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return err
	}
	if err := s.users.UpdateEmail(ctx, claims.UserID, claims.NewEmail); err != nil {
		return err
	}

	if err := s.notifier.SendEmailChangeNotification(ctx, claims.NewEmail, user.Username); err != nil {
		log.Error().Err(err).Int64("user_id", claims.UserID).Msg("Failed to send email change notification")
	}
	return nil
}

// RequestPasswordReset mails a reset token. Unknown emails are logged
// and reported as success to resist enumeration.
func (s *Service) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			log.Error().Msg("Password reset requested for an unregistered email")
			return nil
		}
		return err
	}

	token, err := s.tokens.PasswordResetToken(user.ID)
	if err != nil {
		return err
	}
	return s.notifier.SendPasswordResetEmail(ctx, user.Email, token)
}

// ResetPassword applies a password reset token.
func (s *Service) ResetPassword(ctx context.Context, tokenString, newPassword string) error {
	claims, err := s.tokens.Parse(tokenString)
	if err != nil {
		return err
	}
	return s.ChangePassword(ctx, claims.UserID, newPassword)
}
