package relation

import (
	"context"
	"sync"
	"time"
)

// MockRepository is an in-memory implementation of Repository for
// testing, shared with the graph test suite.
type MockRepository struct {
	mu        sync.RWMutex
	nextID    int64
	relations []*Relation
}

// NewMockRepository creates an empty mock relation repository.
func NewMockRepository() *MockRepository {
	return &MockRepository{}
}

func (m *MockRepository) Insert(ctx context.Context, relation *Relation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	relation.ID = m.nextID
	stored := *relation
	m.relations = append(m.relations, &stored)
	return nil
}

func (m *MockRepository) GetActive(ctx context.Context, kind Kind, userID, movementID int64) (*Relation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, relation := range m.relations {
		if relation.Kind == kind && relation.UserID == userID &&
			relation.MovementID == movementID && relation.TimeRemoved == nil {
			copied := *relation
			return &copied, nil
		}
	}
	return nil, ErrRelationNotFound
}

func (m *MockRepository) ActiveExists(ctx context.Context, kind Kind, userID, movementID int64) (bool, error) {
	_, err := m.GetActive(ctx, kind, userID, movementID)
	if err == ErrRelationNotFound {
		return false, nil
	}
	return err == nil, err
}

func (m *MockRepository) SubscriptionExists(ctx context.Context, userID, movementID int64) (bool, error) {
	return m.ActiveExists(ctx, KindSubscription, userID, movementID)
}

func (m *MockRepository) End(ctx context.Context, id int64, when time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, relation := range m.relations {
		if relation.ID == id && relation.TimeRemoved == nil {
			stamp := when
			relation.TimeRemoved = &stamp
			return nil
		}
	}
	return ErrRelationNotFound
}

func (m *MockRepository) ActiveByMovement(ctx context.Context, kind Kind, movementID int64) ([]*Relation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*Relation
	for _, relation := range m.relations {
		if relation.Kind == kind && relation.MovementID == movementID && relation.TimeRemoved == nil {
			copied := *relation
			matched = append(matched, &copied)
		}
	}
	return matched, nil
}

func (m *MockRepository) ActiveByUser(ctx context.Context, kind Kind, userID int64) ([]*Relation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*Relation
	for _, relation := range m.relations {
		if relation.Kind == kind && relation.UserID == userID && relation.TimeRemoved == nil {
			copied := *relation
			matched = append(matched, &copied)
		}
	}
	return matched, nil
}

// Ensure MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)
