package announcement

import (
	"context"
	"errors"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/gridt-app/gridt/internal/identity"
	"github.com/gridt-app/gridt/internal/observability"
)

var (
	// ErrMovementNotFound is returned when posting to an unknown movement
	ErrMovementNotFound = errors.New("movement not found")
	// ErrMessageTooLong is returned when the message exceeds the limit
	ErrMessageTooLong = errors.New("announcement message too long")
)

// UserStore loads users for the admin check and the poster projection.
// Satisfied by the identity repository.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*identity.User, error)
}

// MovementChecker reports whether a movement id is known. Satisfied by
// the movement repository.
type MovementChecker interface {
	Exists(ctx context.Context, movementID int64) (bool, error)
}

// Service implements the announcement operations. All writes are
// admin-only; the poster's identity is otherwise irrelevant, so any
// admin may update or delete any announcement.
type Service struct {
	announcements Repository
	users         UserStore
	movements     MovementChecker
	clock         clockwork.Clock
	metrics       *observability.Metrics
}

// NewService creates the announcement service.
func NewService(announcements Repository, users UserStore, movements MovementChecker, clock clockwork.Clock, metrics *observability.Metrics) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		announcements: announcements,
		users:         users,
		movements:     movements,
		clock:         clock,
		metrics:       metrics,
	}
}

// CreateAnnouncement posts a new announcement in the movement.
func (s *Service) CreateAnnouncement(ctx context.Context, message string, movementID, posterID int64) (*JSON, error) {
	poster, err := s.assertAdmin(ctx, posterID)
	if err != nil {
		return nil, err
	}
	if len(message) > MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	exists, err := s.movements.Exists(ctx, movementID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrMovementNotFound
	}

	announcement := &Announcement{
		MovementID:  movementID,
		PosterID:    posterID,
		Message:     message,
		CreatedTime: s.clock.Now(),
	}
	if err := s.announcements.Insert(ctx, announcement); err != nil {
		return nil, err
	}

	s.metrics.Announcement("created")
	log.Info().
		Int64("announcement_id", announcement.ID).
		Int64("movement_id", movementID).
		Msg("Announcement created")

	j := announcement.ToJSON(poster)
	return &j, nil
}

// UpdateAnnouncement replaces the message and stamps the update time.
func (s *Service) UpdateAnnouncement(ctx context.Context, message string, announcementID, userID int64) error {
	if _, err := s.assertAdmin(ctx, userID); err != nil {
		return err
	}
	if len(message) > MaxMessageLength {
		return ErrMessageTooLong
	}

	if err := s.announcements.Update(ctx, announcementID, message, s.clock.Now()); err != nil {
		return err
	}
	s.metrics.Announcement("updated")
	return nil
}

// DeleteAnnouncement soft-deletes the announcement.
func (s *Service) DeleteAnnouncement(ctx context.Context, announcementID, userID int64) error {
	if _, err := s.assertAdmin(ctx, userID); err != nil {
		return err
	}

	if err := s.announcements.Remove(ctx, announcementID, s.clock.Now()); err != nil {
		return err
	}
	s.metrics.Announcement("deleted")
	return nil
}

// GetAnnouncements returns the active announcements of the movement,
// newest first.
func (s *Service) GetAnnouncements(ctx context.Context, movementID int64) ([]JSON, error) {
	announcements, err := s.announcements.ActiveByMovement(ctx, movementID)
	if err != nil {
		return nil, err
	}

	projections := make([]JSON, 0, len(announcements))
	for _, announcement := range announcements {
		poster, err := s.users.GetByID(ctx, announcement.PosterID)
		if err != nil {
			return nil, err
		}
		projections = append(projections, announcement.ToJSON(poster))
	}
	return projections, nil
}

// LastAnnouncement returns the newest active announcement of the
// movement, or nil when there is none.
func (s *Service) LastAnnouncement(ctx context.Context, movementID int64) (*JSON, error) {
	last, err := s.announcements.LastByMovement(ctx, movementID)
	if err != nil || last == nil {
		return nil, err
	}
	poster, err := s.users.GetByID(ctx, last.PosterID)
	if err != nil {
		return nil, err
	}
	j := last.ToJSON(poster)
	return &j, nil
}

func (s *Service) assertAdmin(ctx context.Context, userID int64) (*identity.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := identity.AssertAdmin(user); err != nil {
		return nil, err
	}
	return user, nil
}
