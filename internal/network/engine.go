package network

import (
	"context"
	"math/rand"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/gridt-app/gridt/internal/database"
	"github.com/gridt-app/gridt/internal/identity"
	"github.com/gridt-app/gridt/internal/movement"
	"github.com/gridt-app/gridt/internal/observability"
	"github.com/gridt-app/gridt/internal/signal"
	"github.com/gridt-app/gridt/internal/timefmt"
)

const (
	// DefaultLeadersPerFollower is the fan-out cap: how many leaders
	// the engine strives to give every follower.
	DefaultLeadersPerFollower = 4
	// DefaultMessageHistoryDepth is how many signals GetLeader shows.
	DefaultMessageHistoryDepth = 3
)

// Config tunes the engine.
type Config struct {
	LeadersPerFollower  int
	MessageHistoryDepth int
}

// Rand is the injectable random source for candidate picks. Satisfied
// by math/rand's Rand.
type Rand interface {
	Intn(n int) int
}

// UserStore loads users for the leader projections. Satisfied by the
// identity repository.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*identity.User, error)
}

// SignalStore reads leader signals. Satisfied by the signal repository.
type SignalStore interface {
	Last(ctx context.Context, leaderID, movementID int64) (*signal.Signal, error)
	History(ctx context.Context, leaderID, movementID int64, n int) ([]*signal.Signal, error)
}

// SwapSignal is the last-signal shape returned by SwapLeader. Unlike
// the history shape, the message key is always present.
type SwapSignal struct {
	TimeStamp timefmt.Timestamp `json:"time_stamp"`
	Message   *string           `json:"message"`
}

// SwappedLeader is the projection of a freshly swapped-in leader.
type SwappedLeader struct {
	identity.JSON
	LastSignal *SwapSignal `json:"last_signal,omitempty"`
}

// LeaderProfile is the projection GetLeader returns: the leader plus
// their newest signals in the movement.
type LeaderProfile struct {
	identity.JSON
	MessageHistory []signal.JSON `json:"message_history"`
}

// Engine maintains the peer graph. Its wiring routines are
// read-modify-write sequences over a shared graph; with a transactor
// each runs in one serializable transaction, without one (tests) the
// statements run directly.
type Engine struct {
	links   Repository
	users   UserStore
	signals SignalStore
	txer    database.Transactor
	rand    Rand
	clock   clockwork.Clock
	cfg     Config
	metrics *observability.Metrics
}

// NewEngine creates the graph engine. A nil rand falls back to the
// global math/rand source, a nil clock to the wall clock.
func NewEngine(
	links Repository,
	users UserStore,
	signals SignalStore,
	txer database.Transactor,
	cfg Config,
	rnd Rand,
	clock clockwork.Clock,
	metrics *observability.Metrics,
) *Engine {
	if cfg.LeadersPerFollower <= 0 {
		cfg.LeadersPerFollower = DefaultLeadersPerFollower
	}
	if cfg.MessageHistoryDepth <= 0 {
		cfg.MessageHistoryDepth = DefaultMessageHistoryDepth
	}
	if rnd == nil {
		rnd = globalRand{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Engine{
		links:   links,
		users:   users,
		signals: signals,
		txer:    txer,
		rand:    rnd,
		clock:   clock,
		cfg:     cfg,
		metrics: metrics,
	}
}

type globalRand struct{}

func (globalRand) Intn(n int) int { return rand.Intn(n) }

// inTx runs fn in a serializable scope when a transactor is wired.
func (e *Engine) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if e.txer == nil {
		return fn(ctx)
	}
	return e.txer.WithSerializableTx(ctx, fn)
}

// AddInitialLeaders wires a fresh subscriber to leaders until the
// fan-out cap is reached or no candidates remain.
func (e *Engine) AddInitialLeaders(ctx context.Context, followerID, movementID int64) error {
	return e.inTx(ctx, func(ctx context.Context) error {
		for {
			leaders, err := e.links.Leaders(ctx, followerID, movementID)
			if err != nil {
				return err
			}
			if len(leaders) >= e.cfg.LeadersPerFollower {
				return nil
			}

			candidates, err := e.links.PossibleLeaders(ctx, followerID, movementID)
			if err != nil {
				return err
			}
			if len(candidates) == 0 {
				return nil
			}

			pick := candidates[e.rand.Intn(len(candidates))]
			if err := e.createLink(ctx, followerID, pick, movementID); err != nil {
				return err
			}
		}
	})
}

// AddInitialFollowers wires the current under-led followers of the
// movement to a fresh subscriber. One snapshot pass: followers already
// at the cap are skipped.
func (e *Engine) AddInitialFollowers(ctx context.Context, leaderID, movementID int64) error {
	return e.inTx(ctx, func(ctx context.Context) error {
		candidates, err := e.links.PossibleFollowers(ctx, leaderID, movementID, e.cfg.LeadersPerFollower)
		if err != nil {
			return err
		}
		for _, candidate := range candidates {
			if err := e.createLink(ctx, candidate, leaderID, movementID); err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveAllLeaders destroys the follower's outgoing links, then finds
// each former leader a replacement follower where possible. The
// departed user is no longer subscribed, so the candidate sets never
// contain them.
func (e *Engine) RemoveAllLeaders(ctx context.Context, followerID, movementID int64) error {
	return e.inTx(ctx, func(ctx context.Context) error {
		destroyed, err := e.destroyLinks(ctx, func() ([]*UserToUserLink, error) {
			return e.links.ActiveByFollower(ctx, followerID, movementID)
		})
		if err != nil {
			return err
		}

		for _, link := range destroyed {
			candidates, err := e.links.PossibleFollowers(ctx, link.LeaderID, movementID, e.cfg.LeadersPerFollower)
			if err != nil {
				return err
			}
			if len(candidates) == 0 {
				continue
			}
			pick := candidates[e.rand.Intn(len(candidates))]
			if err := e.createLink(ctx, pick, link.LeaderID, movementID); err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveAllFollowers destroys the leader's incoming links, then finds
// each former follower a replacement leader where possible, never the
// departing leader themselves.
func (e *Engine) RemoveAllFollowers(ctx context.Context, leaderID, movementID int64) error {
	return e.inTx(ctx, func(ctx context.Context) error {
		destroyed, err := e.destroyLinks(ctx, func() ([]*UserToUserLink, error) {
			return e.links.ActiveByLeader(ctx, leaderID, movementID)
		})
		if err != nil {
			return err
		}

		for _, link := range destroyed {
			candidates, err := e.links.PossibleLeaders(ctx, link.FollowerID, movementID, leaderID)
			if err != nil {
				return err
			}
			if len(candidates) == 0 {
				continue
			}
			pick := candidates[e.rand.Intn(len(candidates))]
			if err := e.createLink(ctx, link.FollowerID, pick, movementID); err != nil {
				return err
			}
		}
		return nil
	})
}

// SwapLeader exchanges one of the follower's leaders for a random
// other candidate. Returns nil without error when no candidate exists:
// a successful non-change. Fails with ErrNotFollowing when the named
// leader is not currently followed.
func (e *Engine) SwapLeader(ctx context.Context, followerID, movementID, leaderID int64) (*SwappedLeader, error) {
	var swapped *SwappedLeader
	err := e.inTx(ctx, func(ctx context.Context) error {
		candidates, err := e.links.PossibleLeaders(ctx, followerID, movementID)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			e.metrics.LeaderSwap("no_candidates")
			return nil
		}

		link, err := e.links.ActiveLink(ctx, followerID, leaderID, movementID)
		if err != nil {
			return err
		}
		if err := e.links.Destroy(ctx, link.ID, e.clock.Now()); err != nil {
			return err
		}
		e.metrics.LinkDestroyed()

		pick := candidates[e.rand.Intn(len(candidates))]
		if err := e.createLink(ctx, followerID, pick, movementID); err != nil {
			return err
		}
		e.metrics.LeaderSwap("swapped")
		log.Debug().
			Int64("follower_id", followerID).
			Int64("movement_id", movementID).
			Int64("old_leader_id", leaderID).
			Int64("new_leader_id", pick).
			Msg("Leader swapped")

		newLeader, err := e.users.GetByID(ctx, pick)
		if err != nil {
			return err
		}
		swapped = &SwappedLeader{JSON: newLeader.ToJSON(false)}

		last, err := e.signals.Last(ctx, pick, movementID)
		if err != nil {
			return err
		}
		if last != nil {
			swapped.LastSignal = &SwapSignal{
				TimeStamp: timefmt.New(last.TimeStamp),
				Message:   last.Message,
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return swapped, nil
}

// GetLeader returns the leader's projection with their newest signals
// in the movement. Fails with ErrNotFollowing without an active link.
func (e *Engine) GetLeader(ctx context.Context, followerID, movementID, leaderID int64) (*LeaderProfile, error) {
	if _, err := e.links.ActiveLink(ctx, followerID, leaderID, movementID); err != nil {
		return nil, err
	}

	leader, err := e.users.GetByID(ctx, leaderID)
	if err != nil {
		return nil, err
	}
	signals, err := e.signals.History(ctx, leaderID, movementID, e.cfg.MessageHistoryDepth)
	if err != nil {
		return nil, err
	}

	profile := &LeaderProfile{
		JSON:           leader.ToJSON(false),
		MessageHistory: make([]signal.JSON, 0, len(signals)),
	}
	for _, s := range signals {
		profile.MessageHistory = append(profile.MessageHistory, s.ToJSON())
	}
	return profile, nil
}

// FollowsLeader reports whether an active link exists.
func (e *Engine) FollowsLeader(ctx context.Context, followerID, movementID, leaderID int64) (bool, error) {
	_, err := e.links.ActiveLink(ctx, followerID, leaderID, movementID)
	if err == ErrNotFollowing {
		return false, nil
	}
	return err == nil, err
}

// LeaderViews returns the follower's current leaders, each with their
// newest signal. Satisfies the movement view's leader source.
func (e *Engine) LeaderViews(ctx context.Context, followerID, movementID int64) ([]movement.LeaderView, error) {
	leaderIDs, err := e.links.Leaders(ctx, followerID, movementID)
	if err != nil {
		return nil, err
	}

	views := make([]movement.LeaderView, 0, len(leaderIDs))
	for _, leaderID := range leaderIDs {
		leader, err := e.users.GetByID(ctx, leaderID)
		if err != nil {
			return nil, err
		}
		view := movement.LeaderView{JSON: leader.ToJSON(false)}

		last, err := e.signals.Last(ctx, leaderID, movementID)
		if err != nil {
			return nil, err
		}
		if last != nil {
			j := last.ToJSON()
			view.LastSignal = &j
		}
		views = append(views, view)
	}
	return views, nil
}

func (e *Engine) createLink(ctx context.Context, followerID, leaderID, movementID int64) error {
	link := &UserToUserLink{
		FollowerID: followerID,
		LeaderID:   leaderID,
		MovementID: movementID,
		Created:    e.clock.Now(),
	}
	if err := e.links.Insert(ctx, link); err != nil {
		return err
	}
	e.metrics.LinkCreated()
	return nil
}

func (e *Engine) destroyLinks(ctx context.Context, snapshot func() ([]*UserToUserLink, error)) ([]*UserToUserLink, error) {
	links, err := snapshot()
	if err != nil {
		return nil, err
	}
	now := e.clock.Now()
	for _, link := range links {
		if err := e.links.Destroy(ctx, link.ID, now); err != nil {
			return nil, err
		}
		e.metrics.LinkDestroyed()
	}
	return links, nil
}
