package movement

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridt-app/gridt/internal/announcement"
	"github.com/gridt-app/gridt/internal/identity"
	"github.com/gridt-app/gridt/internal/signal"
	"github.com/gridt-app/gridt/internal/timefmt"
)

type fakeSources struct {
	subscribed map[[2]int64]bool
	lastAnn    map[int64]*announcement.JSON
	lastSignal map[[2]int64]*signal.JSON
	leaders    map[[2]int64][]LeaderView
}

func newFakeSources() *fakeSources {
	return &fakeSources{
		subscribed: make(map[[2]int64]bool),
		lastAnn:    make(map[int64]*announcement.JSON),
		lastSignal: make(map[[2]int64]*signal.JSON),
		leaders:    make(map[[2]int64][]LeaderView),
	}
}

func (f *fakeSources) SubscriptionExists(ctx context.Context, userID, movementID int64) (bool, error) {
	return f.subscribed[[2]int64{userID, movementID}], nil
}

func (f *fakeSources) LastAnnouncement(ctx context.Context, movementID int64) (*announcement.JSON, error) {
	return f.lastAnn[movementID], nil
}

func (f *fakeSources) LastJSON(ctx context.Context, leaderID, movementID int64) (*signal.JSON, error) {
	return f.lastSignal[[2]int64{leaderID, movementID}], nil
}

func (f *fakeSources) LeaderViews(ctx context.Context, followerID, movementID int64) ([]LeaderView, error) {
	return f.leaders[[2]int64{followerID, movementID}], nil
}

func newTestService(t *testing.T) (*Service, *MockRepository, *fakeSources) {
	t.Helper()
	repo := NewMockRepository()
	sources := newFakeSources()
	return NewService(repo, sources, sources, sources, sources), repo, sources
}

func TestCreateMovementAndLookups(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateMovement(ctx, "Meditate everyday", "daily", "Sit still", "")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	exists, err := svc.MovementExists(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = svc.MovementNameExists(ctx, "Meditate everyday")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = svc.MovementNameExists(ctx, "Flossing")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreateMovementAllowsDuplicateNames(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateMovement(ctx, "Flossing", "daily", "", "")
	require.NoError(t, err)
	second, err := svc.CreateMovement(ctx, "Flossing", "weekly", "", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestGetMovementByIDOrName(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateMovement(ctx, "Flossing", "daily", "", "")
	require.NoError(t, err)

	byID, err := svc.GetMovement(ctx, "1", 7)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byID.ID)

	byName, err := svc.GetMovement(ctx, "Flossing", 7)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	_, err = svc.GetMovement(ctx, "42", 7)
	assert.ErrorIs(t, err, ErrMovementNotFound)

	_, err = svc.GetMovement(ctx, "Running", 7)
	assert.ErrorIs(t, err, ErrMovementNotFound)
}

func TestViewForNonSubscriberOmitsSubscriberKeys(t *testing.T) {
	svc, _, sources := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateMovement(ctx, "Flossing", "daily", "Floss", "Floss really well")
	require.NoError(t, err)
	sources.lastAnn[created.ID] = &announcement.JSON{
		ID:         5,
		MovementID: created.ID,
		Poster:     identity.JSON{ID: 1, Username: "antonin"},
		Message:    "Welcome",
	}

	view, err := svc.ViewByID(ctx, created.ID, 7)
	require.NoError(t, err)
	assert.False(t, view.Subscribed)
	assert.Nil(t, view.SubscriberDetails)

	encoded, err := json.Marshal(view)
	require.NoError(t, err)

	var keys map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(encoded, &keys))
	assert.Contains(t, keys, "last_announcement")
	assert.NotContains(t, keys, "last_signal_sent")
	assert.NotContains(t, keys, "leaders")
}

func TestViewForSubscriber(t *testing.T) {
	svc, _, sources := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateMovement(ctx, "Flossing", "daily", "", "")
	require.NoError(t, err)

	viewer := int64(7)
	key := [2]int64{viewer, created.ID}
	sources.subscribed[key] = true
	stamp := timefmt.New(time.Date(2023, 2, 25, 16, 30, 0, 0, time.UTC))
	sources.lastSignal[key] = &signal.JSON{TimeStamp: stamp, Message: "Done!"}
	sources.leaders[key] = []LeaderView{
		{JSON: identity.JSON{ID: 2, Username: "pieter"}},
		{JSON: identity.JSON{ID: 3, Username: "daniel"}, LastSignal: &signal.JSON{TimeStamp: stamp}},
	}

	view, err := svc.ViewByID(ctx, created.ID, viewer)
	require.NoError(t, err)
	assert.True(t, view.Subscribed)
	require.NotNil(t, view.SubscriberDetails)
	assert.Equal(t, "Done!", view.LastSignalSent.Message)
	require.Len(t, view.Leaders, 2)

	encoded, err := json.Marshal(view)
	require.NoError(t, err)

	var keys map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(encoded, &keys))
	assert.Contains(t, keys, "last_signal_sent")
	assert.Contains(t, keys, "leaders")
	assert.Equal(t, "null", string(keys["last_announcement"]))
}

func TestViewSubscriberWithoutLeaders(t *testing.T) {
	svc, _, sources := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateMovement(ctx, "Flossing", "daily", "", "")
	require.NoError(t, err)
	sources.subscribed[[2]int64{7, created.ID}] = true

	view, err := svc.ViewByID(ctx, created.ID, 7)
	require.NoError(t, err)
	require.NotNil(t, view.SubscriberDetails)
	assert.Nil(t, view.LastSignalSent)

	encoded, err := json.Marshal(view)
	require.NoError(t, err)

	// Leaders must serialize as an empty array, not null.
	var keys map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(encoded, &keys))
	assert.Equal(t, "[]", string(keys["leaders"]))
	assert.Equal(t, "null", string(keys["last_signal_sent"]))
}

func TestGetAllMovements(t *testing.T) {
	svc, _, sources := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateMovement(ctx, "Flossing", "daily", "", "")
	require.NoError(t, err)
	_, err = svc.CreateMovement(ctx, "Running", "weekly", "", "")
	require.NoError(t, err)
	sources.subscribed[[2]int64{7, first.ID}] = true

	views, err := svc.GetAllMovements(ctx, 7)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.True(t, views[0].Subscribed)
	assert.False(t, views[1].Subscribed)
}
