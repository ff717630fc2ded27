package movement

import (
	"context"
	"sync"
)

// MockRepository is an in-memory implementation of Repository for
// testing, shared with the relation and graph test suites.
type MockRepository struct {
	mu        sync.RWMutex
	nextID    int64
	movements []*Movement
}

// NewMockRepository creates an empty mock movement repository.
func NewMockRepository() *MockRepository {
	return &MockRepository{}
}

func (m *MockRepository) Create(ctx context.Context, movement *Movement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	movement.ID = m.nextID
	stored := *movement
	m.movements = append(m.movements, &stored)
	return nil
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*Movement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, movement := range m.movements {
		if movement.ID == id {
			copied := *movement
			return &copied, nil
		}
	}
	return nil, ErrMovementNotFound
}

func (m *MockRepository) GetByName(ctx context.Context, name string) (*Movement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, movement := range m.movements {
		if movement.Name == name {
			copied := *movement
			return &copied, nil
		}
	}
	return nil, ErrMovementNotFound
}

func (m *MockRepository) NameExists(ctx context.Context, name string) (bool, error) {
	_, err := m.GetByName(ctx, name)
	if err == ErrMovementNotFound {
		return false, nil
	}
	return err == nil, err
}

func (m *MockRepository) Exists(ctx context.Context, id int64) (bool, error) {
	_, err := m.GetByID(ctx, id)
	if err == ErrMovementNotFound {
		return false, nil
	}
	return err == nil, err
}

func (m *MockRepository) List(ctx context.Context) ([]*Movement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	listed := make([]*Movement, 0, len(m.movements))
	for _, movement := range m.movements {
		copied := *movement
		listed = append(listed, &copied)
	}
	return listed, nil
}

// Ensure MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)
