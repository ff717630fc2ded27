package movement

import (
	"context"
	"strconv"

	"github.com/gridt-app/gridt/internal/announcement"
	"github.com/gridt-app/gridt/internal/signal"
)

// SubscriptionChecker reports whether a user holds an active
// subscription. Satisfied by the relation repository.
type SubscriptionChecker interface {
	SubscriptionExists(ctx context.Context, userID, movementID int64) (bool, error)
}

// AnnouncementSource yields the newest active announcement of a
// movement. Satisfied by the announcement service.
type AnnouncementSource interface {
	LastAnnouncement(ctx context.Context, movementID int64) (*announcement.JSON, error)
}

// SignalSource yields the newest signal of a user in a movement.
// Satisfied by the signal service.
type SignalSource interface {
	LastJSON(ctx context.Context, leaderID, movementID int64) (*signal.JSON, error)
}

// LeaderSource yields the viewer's current leaders, each with their
// newest signal. Satisfied by the graph engine.
type LeaderSource interface {
	LeaderViews(ctx context.Context, followerID, movementID int64) ([]LeaderView, error)
}

// Service implements the movement registry operations and the composed
// per-viewer view.
type Service struct {
	movements     Repository
	subs          SubscriptionChecker
	announcements AnnouncementSource
	signals       SignalSource
	leaders       LeaderSource
}

// NewService creates the movement service.
func NewService(movements Repository, subs SubscriptionChecker, announcements AnnouncementSource, signals SignalSource, leaders LeaderSource) *Service {
	return &Service{
		movements:     movements,
		subs:          subs,
		announcements: announcements,
		signals:       signals,
		leaders:       leaders,
	}
}

// CreateMovement registers a new movement. Names are not unique;
// callers that need uniqueness must check MovementNameExists first.
func (s *Service) CreateMovement(ctx context.Context, name, interval, shortDescription, description string) (*Movement, error) {
	movement := &Movement{
		Name:             name,
		Interval:         interval,
		ShortDescription: shortDescription,
		Description:      description,
	}
	if err := s.movements.Create(ctx, movement); err != nil {
		return nil, err
	}
	return movement, nil
}

// MovementNameExists reports whether any movement carries the name.
func (s *Service) MovementNameExists(ctx context.Context, name string) (bool, error) {
	return s.movements.NameExists(ctx, name)
}

// MovementExists reports whether a movement id is known.
func (s *Service) MovementExists(ctx context.Context, id int64) (bool, error) {
	return s.movements.Exists(ctx, id)
}

// GetMovement resolves a movement by id or name and returns the
// composed view for the viewer. An all-digit identifier is treated as
// an id, anything else as a name.
func (s *Service) GetMovement(ctx context.Context, identifier string, viewerID int64) (*View, error) {
	var movement *Movement
	var err error
	if id, convErr := strconv.ParseInt(identifier, 10, 64); convErr == nil {
		movement, err = s.movements.GetByID(ctx, id)
	} else {
		movement, err = s.movements.GetByName(ctx, identifier)
	}
	if err != nil {
		return nil, err
	}
	return s.compose(ctx, movement, viewerID)
}

// GetAllMovements returns the composed views of every movement for the
// viewer.
func (s *Service) GetAllMovements(ctx context.Context, viewerID int64) ([]*View, error) {
	movements, err := s.movements.List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]*View, 0, len(movements))
	for _, movement := range movements {
		view, err := s.compose(ctx, movement, viewerID)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// ViewByID returns the composed view of a movement for the viewer.
func (s *Service) ViewByID(ctx context.Context, movementID, viewerID int64) (*View, error) {
	movement, err := s.movements.GetByID(ctx, movementID)
	if err != nil {
		return nil, err
	}
	return s.compose(ctx, movement, viewerID)
}

// ViewOf returns the composed view of an already loaded movement.
func (s *Service) ViewOf(ctx context.Context, movement *Movement, viewerID int64) (*View, error) {
	return s.compose(ctx, movement, viewerID)
}

func (s *Service) compose(ctx context.Context, movement *Movement, viewerID int64) (*View, error) {
	subscribed, err := s.subs.SubscriptionExists(ctx, viewerID, movement.ID)
	if err != nil {
		return nil, err
	}

	view := &View{
		JSON:       movement.ToJSON(),
		Subscribed: subscribed,
	}

	view.LastAnnouncement, err = s.announcements.LastAnnouncement(ctx, movement.ID)
	if err != nil {
		return nil, err
	}

	if !subscribed {
		return view, nil
	}

	lastSent, err := s.signals.LastJSON(ctx, viewerID, movement.ID)
	if err != nil {
		return nil, err
	}
	leaders, err := s.leaders.LeaderViews(ctx, viewerID, movement.ID)
	if err != nil {
		return nil, err
	}
	if leaders == nil {
		leaders = []LeaderView{}
	}
	view.SubscriberDetails = &SubscriberDetails{
		LastSignalSent: lastSent,
		Leaders:        leaders,
	}
	return view, nil
}
