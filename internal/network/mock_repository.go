package network

import (
	"context"
	"sync"
	"time"

	"github.com/gridt-app/gridt/internal/relation"
)

// MockRepository is an in-memory implementation of Repository for
// testing. It reads subscriptions from a relation mock so the
// candidate queries behave like their SQL counterparts.
type MockRepository struct {
	mu     sync.RWMutex
	nextID int64
	links  []*UserToUserLink
	subs   *relation.MockRepository
}

// NewMockRepository creates a mock link repository over the given
// relation store.
func NewMockRepository(subs *relation.MockRepository) *MockRepository {
	return &MockRepository{subs: subs}
}

func (m *MockRepository) Insert(ctx context.Context, link *UserToUserLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	link.ID = m.nextID
	stored := *link
	m.links = append(m.links, &stored)
	return nil
}

func (m *MockRepository) ActiveLink(ctx context.Context, followerID, leaderID, movementID int64) (*UserToUserLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, link := range m.links {
		if link.FollowerID == followerID && link.LeaderID == leaderID &&
			link.MovementID == movementID && link.Destroyed == nil {
			copied := *link
			return &copied, nil
		}
	}
	return nil, ErrNotFollowing
}

func (m *MockRepository) Destroy(ctx context.Context, id int64, when time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, link := range m.links {
		if link.ID == id && link.Destroyed == nil {
			stamp := when
			link.Destroyed = &stamp
		}
	}
	return nil
}

func (m *MockRepository) ActiveByFollower(ctx context.Context, followerID, movementID int64) ([]*UserToUserLink, error) {
	return m.filter(func(l *UserToUserLink) bool {
		return l.FollowerID == followerID && l.MovementID == movementID
	}), nil
}

func (m *MockRepository) ActiveByLeader(ctx context.Context, leaderID, movementID int64) ([]*UserToUserLink, error) {
	return m.filter(func(l *UserToUserLink) bool {
		return l.LeaderID == leaderID && l.MovementID == movementID
	}), nil
}

func (m *MockRepository) ActiveByMovement(ctx context.Context, movementID int64) ([]*UserToUserLink, error) {
	return m.filter(func(l *UserToUserLink) bool {
		return l.MovementID == movementID
	}), nil
}

func (m *MockRepository) Leaders(ctx context.Context, followerID, movementID int64) ([]int64, error) {
	active, _ := m.ActiveByFollower(ctx, followerID, movementID)
	seen := make(map[int64]bool)
	var leaders []int64
	for _, link := range active {
		if !seen[link.LeaderID] {
			seen[link.LeaderID] = true
			leaders = append(leaders, link.LeaderID)
		}
	}
	return leaders, nil
}

func (m *MockRepository) PossibleLeaders(ctx context.Context, userID, movementID int64, excluding ...int64) ([]int64, error) {
	current, err := m.Leaders(ctx, userID, movementID)
	if err != nil {
		return nil, err
	}
	skip := make(map[int64]bool)
	skip[userID] = true
	for _, id := range current {
		skip[id] = true
	}
	for _, id := range excluding {
		skip[id] = true
	}

	subscribers, err := m.subscriberIDs(ctx, movementID)
	if err != nil {
		return nil, err
	}
	var candidates []int64
	for _, id := range subscribers {
		if !skip[id] {
			candidates = append(candidates, id)
		}
	}
	return candidates, nil
}

func (m *MockRepository) PossibleFollowers(ctx context.Context, userID, movementID int64, cap int) ([]int64, error) {
	followers, err := m.ActiveByLeader(ctx, userID, movementID)
	if err != nil {
		return nil, err
	}
	skip := make(map[int64]bool)
	skip[userID] = true
	for _, link := range followers {
		skip[link.FollowerID] = true
	}

	subscribers, err := m.subscriberIDs(ctx, movementID)
	if err != nil {
		return nil, err
	}
	var candidates []int64
	for _, id := range subscribers {
		if skip[id] {
			continue
		}
		leaders, err := m.Leaders(ctx, id, movementID)
		if err != nil {
			return nil, err
		}
		if len(leaders) < cap {
			candidates = append(candidates, id)
		}
	}
	return candidates, nil
}

func (m *MockRepository) subscriberIDs(ctx context.Context, movementID int64) ([]int64, error) {
	subscriptions, err := m.subs.ActiveByMovement(ctx, relation.KindSubscription, movementID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(subscriptions))
	for _, subscription := range subscriptions {
		ids = append(ids, subscription.UserID)
	}
	return ids, nil
}

func (m *MockRepository) filter(keep func(*UserToUserLink) bool) []*UserToUserLink {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*UserToUserLink
	for _, link := range m.links {
		if link.Destroyed == nil && keep(link) {
			copied := *link
			matched = append(matched, &copied)
		}
	}
	return matched
}

// Ensure MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)
