package identity

import (
	"context"
	"sync"
)

// MockRepository is an in-memory implementation of Repository for
// testing, shared with the graph and relation test suites.
type MockRepository struct {
	mu      sync.RWMutex
	nextID  int64
	users   map[int64]*User
	byEmail map[string]int64
}

// NewMockRepository creates an empty mock user repository.
func NewMockRepository() *MockRepository {
	return &MockRepository{
		users:   make(map[int64]*User),
		byEmail: make(map[string]int64),
	}
}

func (m *MockRepository) Create(ctx context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byEmail[user.Email]; exists {
		return ErrEmailInUse
	}

	m.nextID++
	user.ID = m.nextID
	stored := *user
	m.users[user.ID] = &stored
	m.byEmail[user.Email] = user.ID
	return nil
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, exists := m.users[id]
	if !exists {
		return nil, ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *MockRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, exists := m.byEmail[email]
	if !exists {
		return nil, ErrUserNotFound
	}
	copied := *m.users[id]
	return &copied, nil
}

func (m *MockRepository) UpdateBio(ctx context.Context, id int64, bio string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, exists := m.users[id]
	if !exists {
		return ErrUserNotFound
	}
	user.Bio = bio
	return nil
}

func (m *MockRepository) UpdateEmail(ctx context.Context, id int64, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, exists := m.users[id]
	if !exists {
		return ErrUserNotFound
	}
	if other, taken := m.byEmail[email]; taken && other != id {
		return ErrEmailInUse
	}
	delete(m.byEmail, user.Email)
	user.Email = email
	m.byEmail[email] = id
	return nil
}

func (m *MockRepository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, exists := m.users[id]
	if !exists {
		return ErrUserNotFound
	}
	user.PasswordHash = hash
	return nil
}

// Ensure MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)
