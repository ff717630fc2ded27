package announcement

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MockRepository is an in-memory implementation of Repository for
// testing.
type MockRepository struct {
	mu            sync.RWMutex
	nextID        int64
	announcements map[int64]*Announcement
}

// NewMockRepository creates an empty mock announcement repository.
func NewMockRepository() *MockRepository {
	return &MockRepository{announcements: make(map[int64]*Announcement)}
}

func (m *MockRepository) Insert(ctx context.Context, announcement *Announcement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	announcement.ID = m.nextID
	stored := *announcement
	m.announcements[announcement.ID] = &stored
	return nil
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*Announcement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	announcement, exists := m.announcements[id]
	if !exists || announcement.RemovedTime != nil {
		return nil, ErrAnnouncementNotFound
	}
	copied := *announcement
	return &copied, nil
}

func (m *MockRepository) Update(ctx context.Context, id int64, message string, updatedTime time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	announcement, exists := m.announcements[id]
	if !exists || announcement.RemovedTime != nil {
		return ErrAnnouncementNotFound
	}
	announcement.Message = message
	stamp := updatedTime
	announcement.UpdatedTime = &stamp
	return nil
}

func (m *MockRepository) Remove(ctx context.Context, id int64, removedTime time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	announcement, exists := m.announcements[id]
	if !exists || announcement.RemovedTime != nil {
		return ErrAnnouncementNotFound
	}
	stamp := removedTime
	announcement.RemovedTime = &stamp
	return nil
}

func (m *MockRepository) ActiveByMovement(ctx context.Context, movementID int64) ([]*Announcement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*Announcement
	for _, announcement := range m.announcements {
		if announcement.MovementID == movementID && announcement.RemovedTime == nil {
			copied := *announcement
			matched = append(matched, &copied)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedTime.Equal(matched[j].CreatedTime) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedTime.After(matched[j].CreatedTime)
	})
	return matched, nil
}

func (m *MockRepository) LastByMovement(ctx context.Context, movementID int64) (*Announcement, error) {
	active, err := m.ActiveByMovement(ctx, movementID)
	if err != nil || len(active) == 0 {
		return nil, err
	}
	return active[0], nil
}

// Ensure MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)
