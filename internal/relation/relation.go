// Package relation implements the two user-movement relations,
// subscriptions and creations, over one shared soft-deleted row shape.
package relation

import (
	"errors"
	"time"

	"github.com/gridt-app/gridt/internal/identity"
	"github.com/gridt-app/gridt/internal/movement"
	"github.com/gridt-app/gridt/internal/timefmt"
)

// Kind discriminates the relation variants sharing one table.
type Kind string

const (
	// KindSubscription marks an active membership in a movement.
	KindSubscription Kind = "subscription"
	// KindCreation marks that the user created the movement.
	KindCreation Kind = "creation"
)

var (
	// ErrSubscriptionNotFound is returned when no active subscription exists
	ErrSubscriptionNotFound = errors.New("user is not subscribed to this movement")
	// ErrUserIsNotCreator is returned when no active creation exists
	ErrUserIsNotCreator = errors.New("user has not created this movement")
)

// Relation ties a user to a movement. A set time_removed ends the
// relation without deleting the row.
type Relation struct {
	ID          int64      `json:"id" db:"id"`
	Kind        Kind       `json:"relation_type" db:"relation_type"`
	UserID      int64      `json:"user_id" db:"user_id"`
	MovementID  int64      `json:"movement_id" db:"movement_id"`
	TimeAdded   time.Time  `json:"time_added" db:"time_added"`
	TimeRemoved *time.Time `json:"time_removed" db:"time_removed"`
}

// HasEnded reports whether the relation has been ended.
func (r *Relation) HasEnded() bool {
	return r.TimeRemoved != nil
}

// SubscriptionJSON is the wire projection of a subscription.
type SubscriptionJSON struct {
	Movement    movement.JSON     `json:"movement"`
	User        identity.JSON     `json:"user"`
	TimeStarted timefmt.Timestamp `json:"time_started"`
	Subscribed  bool              `json:"subscribed"`
}

// CreationJSON is the wire projection of a creation.
type CreationJSON struct {
	Movement    movement.JSON     `json:"movement"`
	User        identity.JSON     `json:"user"`
	TimeStarted timefmt.Timestamp `json:"time_started"`
	Created     bool              `json:"created"`
}

// ToSubscriptionJSON computes the subscription projection.
func (r *Relation) ToSubscriptionJSON(user *identity.User, mov *movement.Movement) SubscriptionJSON {
	return SubscriptionJSON{
		Movement:    mov.ToJSON(),
		User:        user.ToJSON(false),
		TimeStarted: timefmt.New(r.TimeAdded),
		Subscribed:  !r.HasEnded(),
	}
}

// ToCreationJSON computes the creation projection.
func (r *Relation) ToCreationJSON(user *identity.User, mov *movement.Movement) CreationJSON {
	return CreationJSON{
		Movement:    mov.ToJSON(),
		User:        user.ToJSON(false),
		TimeStarted: timefmt.New(r.TimeAdded),
		Created:     !r.HasEnded(),
	}
}
