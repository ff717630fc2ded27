package relation

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/gridt-app/gridt/internal/events"
	"github.com/gridt-app/gridt/internal/identity"
	"github.com/gridt-app/gridt/internal/movement"
	"github.com/gridt-app/gridt/internal/observability"
)

// UserStore loads users for the subscription projections. Satisfied by
// the identity repository.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*identity.User, error)
}

// MovementViewer composes the per-viewer movement view. Satisfied by
// the movement service.
type MovementViewer interface {
	ViewOf(ctx context.Context, mov *movement.Movement, viewerID int64) (*movement.View, error)
}

// SubscriptionService implements the subscription operations. Graph
// wiring is not done here: it hangs off the event bus, so it runs
// strictly after the subscription row has committed.
type SubscriptionService struct {
	relations Repository
	users     UserStore
	movements movement.Repository
	viewer    MovementViewer
	bus       *events.Bus
	clock     clockwork.Clock
	metrics   *observability.Metrics
}

// NewSubscriptionService creates the subscription service.
func NewSubscriptionService(
	relations Repository,
	users UserStore,
	movements movement.Repository,
	viewer MovementViewer,
	bus *events.Bus,
	clock clockwork.Clock,
	metrics *observability.Metrics,
) *SubscriptionService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SubscriptionService{
		relations: relations,
		users:     users,
		movements: movements,
		viewer:    viewer,
		bus:       bus,
		clock:     clock,
		metrics:   metrics,
	}
}

// IsSubscribed reports whether the user actively subscribes to the
// movement.
func (s *SubscriptionService) IsSubscribed(ctx context.Context, userID, movementID int64) (bool, error) {
	return s.relations.SubscriptionExists(ctx, userID, movementID)
}

// NewSubscription subscribes the user to the movement and fires the
// subscribe event. Subscribing twice is a no-op returning the existing
// subscription.
func (s *SubscriptionService) NewSubscription(ctx context.Context, userID, movementID int64) (*SubscriptionJSON, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	mov, err := s.movements.GetByID(ctx, movementID)
	if err != nil {
		return nil, err
	}

	if existing, err := s.relations.GetActive(ctx, KindSubscription, userID, movementID); err == nil {
		j := existing.ToSubscriptionJSON(user, mov)
		return &j, nil
	} else if err != ErrRelationNotFound {
		return nil, err
	}

	subscription := &Relation{
		Kind:       KindSubscription,
		UserID:     userID,
		MovementID: movementID,
		TimeAdded:  s.clock.Now(),
	}
	if err := s.relations.Insert(ctx, subscription); err != nil {
		return nil, err
	}

	s.metrics.Subscription("subscribed")
	log.Info().
		Int64("user_id", userID).
		Int64("movement_id", movementID).
		Msg("User subscribed to movement")

	s.bus.Emit(ctx, events.EventSubscribe, events.Payload{UserID: userID, MovementID: movementID})

	j := subscription.ToSubscriptionJSON(user, mov)
	return &j, nil
}

// RemoveSubscription ends the user's subscription and fires the
// unsubscribe event. Fails with ErrSubscriptionNotFound when no active
// subscription exists.
func (s *SubscriptionService) RemoveSubscription(ctx context.Context, userID, movementID int64) (*SubscriptionJSON, error) {
	subscription, err := s.relations.GetActive(ctx, KindSubscription, userID, movementID)
	if err != nil {
		if err == ErrRelationNotFound {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	mov, err := s.movements.GetByID(ctx, movementID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := s.relations.End(ctx, subscription.ID, now); err != nil {
		return nil, err
	}
	subscription.TimeRemoved = &now

	s.metrics.Subscription("unsubscribed")
	log.Info().
		Int64("user_id", userID).
		Int64("movement_id", movementID).
		Msg("User unsubscribed from movement")

	s.bus.Emit(ctx, events.EventUnsubscribe, events.Payload{UserID: userID, MovementID: movementID})

	j := subscription.ToSubscriptionJSON(user, mov)
	return &j, nil
}

// GetSubscribers returns the user projections of every active
// subscriber of the movement.
func (s *SubscriptionService) GetSubscribers(ctx context.Context, movementID int64) ([]identity.JSON, error) {
	subscriptions, err := s.relations.ActiveByMovement(ctx, KindSubscription, movementID)
	if err != nil {
		return nil, err
	}

	subscribers := make([]identity.JSON, 0, len(subscriptions))
	for _, subscription := range subscriptions {
		user, err := s.users.GetByID(ctx, subscription.UserID)
		if err != nil {
			return nil, err
		}
		subscribers = append(subscribers, user.ToJSON(false))
	}
	return subscribers, nil
}

// GetSubscriptions returns the composed movement views of every
// movement the user actively subscribes to.
func (s *SubscriptionService) GetSubscriptions(ctx context.Context, userID int64) ([]*movement.View, error) {
	subscriptions, err := s.relations.ActiveByUser(ctx, KindSubscription, userID)
	if err != nil {
		return nil, err
	}

	views := make([]*movement.View, 0, len(subscriptions))
	for _, subscription := range subscriptions {
		mov, err := s.movements.GetByID(ctx, subscription.MovementID)
		if err != nil {
			return nil, err
		}
		view, err := s.viewer.ViewOf(ctx, mov, userID)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}
