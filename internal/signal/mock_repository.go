package signal

import (
	"context"
	"sort"
	"sync"
)

// MockRepository is an in-memory implementation of Repository for
// testing.
type MockRepository struct {
	mu      sync.RWMutex
	nextID  int64
	signals []*Signal
}

// NewMockRepository creates an empty mock signal repository.
func NewMockRepository() *MockRepository {
	return &MockRepository{}
}

func (m *MockRepository) Insert(ctx context.Context, signal *Signal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	signal.ID = m.nextID
	stored := *signal
	m.signals = append(m.signals, &stored)
	return nil
}

func (m *MockRepository) Last(ctx context.Context, leaderID, movementID int64) (*Signal, error) {
	newest, err := m.History(ctx, leaderID, movementID, 1)
	if err != nil || len(newest) == 0 {
		return nil, err
	}
	return newest[0], nil
}

func (m *MockRepository) History(ctx context.Context, leaderID, movementID int64, n int) ([]*Signal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*Signal
	for _, signal := range m.signals {
		if signal.LeaderID == leaderID && signal.MovementID == movementID {
			copied := *signal
			matched = append(matched, &copied)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].TimeStamp.Equal(matched[j].TimeStamp) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].TimeStamp.After(matched[j].TimeStamp)
	})
	if len(matched) > n {
		matched = matched[:n]
	}
	return matched, nil
}

// Ensure MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)
