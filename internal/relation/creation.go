package relation

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/gridt-app/gridt/internal/events"
	"github.com/gridt-app/gridt/internal/identity"
	"github.com/gridt-app/gridt/internal/movement"
)

// CreationService implements the creation operations: movements are
// created by admins, and the creation relation records by whom.
type CreationService struct {
	relations     Repository
	users         UserStore
	movements     movement.Repository
	subscriptions *SubscriptionService
	bus           *events.Bus
	clock         clockwork.Clock
}

// NewCreationService creates the creation service.
func NewCreationService(
	relations Repository,
	users UserStore,
	movements movement.Repository,
	subscriptions *SubscriptionService,
	bus *events.Bus,
	clock clockwork.Clock,
) *CreationService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CreationService{
		relations:     relations,
		users:         users,
		movements:     movements,
		subscriptions: subscriptions,
		bus:           bus,
		clock:         clock,
	}
}

// IsCreator reports whether the user holds an active creation relation
// with the movement.
func (s *CreationService) IsCreator(ctx context.Context, userID, movementID int64) (bool, error) {
	return s.relations.ActiveExists(ctx, KindCreation, userID, movementID)
}

// NewMovementByUser creates a movement on behalf of an admin, records
// the creation relation and, unless disabled, subscribes the creator.
func (s *CreationService) NewMovementByUser(
	ctx context.Context,
	userID int64,
	name, interval, shortDescription, description string,
	autoSubscribe bool,
) (*CreationJSON, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := identity.AssertAdmin(user); err != nil {
		return nil, err
	}

	mov := &movement.Movement{
		Name:             name,
		Interval:         interval,
		ShortDescription: shortDescription,
		Description:      description,
	}
	if err := s.movements.Create(ctx, mov); err != nil {
		return nil, err
	}

	creation := &Relation{
		Kind:       KindCreation,
		UserID:     userID,
		MovementID: mov.ID,
		TimeAdded:  s.clock.Now(),
	}
	if err := s.relations.Insert(ctx, creation); err != nil {
		return nil, err
	}

	log.Info().
		Int64("user_id", userID).
		Int64("movement_id", mov.ID).
		Str("name", name).
		Msg("Movement created")

	s.bus.Emit(ctx, events.EventCreation, events.Payload{UserID: userID, MovementID: mov.ID})

	if autoSubscribe {
		if _, err := s.subscriptions.NewSubscription(ctx, userID, mov.ID); err != nil {
			return nil, err
		}
	}

	j := creation.ToCreationJSON(user, mov)
	return &j, nil
}

// RemoveCreation ends the creation relation. Fails with
// ErrUserIsNotCreator when the user holds none.
func (s *CreationService) RemoveCreation(ctx context.Context, userID, movementID int64) (*CreationJSON, error) {
	creation, err := s.relations.GetActive(ctx, KindCreation, userID, movementID)
	if err != nil {
		if err == ErrRelationNotFound {
			return nil, ErrUserIsNotCreator
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
	if err := s.relations.End(ctx, creation.ID, now); err != nil {
		return nil, err
	}
	creation.TimeRemoved = &now

	s.bus.Emit(ctx, events.EventRemoveCreation, events.Payload{UserID: userID, MovementID: movementID})

	j := creation.ToCreationJSON(user, mov)
	return &j, nil
}
