package signal

import (
	"context"
	"errors"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/gridt-app/gridt/internal/observability"
)

// ErrNotSubscribed is returned when a leader signals a movement they
// have no active subscription to.
var ErrNotSubscribed = errors.New("user is not subscribed to this movement")

// ErrMessageTooLong is returned when the signal message exceeds the limit.
var ErrMessageTooLong = errors.New("signal message too long")

// SubscriptionChecker reports whether a user holds an active
// subscription. Satisfied by the relation repository.
type SubscriptionChecker interface {
	SubscriptionExists(ctx context.Context, userID, movementID int64) (bool, error)
}

// Service implements the signal operations.
type Service struct {
	signals Repository
	subs    SubscriptionChecker
	clock   clockwork.Clock
	metrics *observability.Metrics
}

// NewService creates the signal service.
func NewService(signals Repository, subs SubscriptionChecker, clock clockwork.Clock, metrics *observability.Metrics) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		signals: signals,
		subs:    subs,
		clock:   clock,
		metrics: metrics,
	}
}

// SendSignal records a signal by the leader in the movement, stamped
// with the current time. The leader must hold an active subscription.
func (s *Service) SendSignal(ctx context.Context, leaderID, movementID int64, message *string) error {
	if message != nil && len(*message) > MaxMessageLength {
		return ErrMessageTooLong
	}

	subscribed, err := s.subs.SubscriptionExists(ctx, leaderID, movementID)
	if err != nil {
		return err
	}
	if !subscribed {
		return ErrNotSubscribed
	}

	signal := &Signal{
		LeaderID:   leaderID,
		MovementID: movementID,
		TimeStamp:  s.clock.Now(),
		Message:    message,
	}
	if err := s.signals.Insert(ctx, signal); err != nil {
		return err
	}

	s.metrics.SignalSent()
	log.Debug().
		Int64("leader_id", leaderID).
		Int64("movement_id", movementID).
		Msg("Signal sent")
	return nil
}

// GetLastSignal returns the newest signal of the leader in the
// movement, or nil when none exists.
func (s *Service) GetLastSignal(ctx context.Context, leaderID, movementID int64) (*Signal, error) {
	return s.signals.Last(ctx, leaderID, movementID)
}

// LastJSON returns the JSON projection of the newest signal, or nil.
func (s *Service) LastJSON(ctx context.Context, leaderID, movementID int64) (*JSON, error) {
	last, err := s.signals.Last(ctx, leaderID, movementID)
	if err != nil || last == nil {
		return nil, err
	}
	j := last.ToJSON()
	return &j, nil
}

// History returns the JSON projections of the newest n signals of the
// leader in the movement, newest first.
func (s *Service) History(ctx context.Context, leaderID, movementID int64, n int) ([]JSON, error) {
	signals, err := s.signals.History(ctx, leaderID, movementID, n)
	if err != nil {
		return nil, err
	}
	history := make([]JSON, 0, len(signals))
	for _, signal := range signals {
		history = append(history, signal.ToJSON())
	}
	return history, nil
}
