package relation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridt-app/gridt/internal/identity"
)

func newCreationService(f *subsFixture) *CreationService {
	return NewCreationService(f.relations, f.users, f.movements, f.svc, f.bus, f.clock)
}

func TestNewMovementByUserRequiresAdmin(t *testing.T) {
	f := newSubsFixture(t)
	svc := newCreationService(f)
	robin := f.addUser(t, "robin")

	_, err := svc.NewMovementByUser(f.ctx, robin.ID, "Flossing", "daily", "", "", true)

	assert.ErrorIs(t, err, identity.ErrUserNotAdmin)
}

func TestNewMovementByUser(t *testing.T) {
	f := newSubsFixture(t)
	svc := newCreationService(f)
	antonin := &identity.User{Username: "antonin", Email: "antonin@gridt.org", IsAdmin: true}
	require.NoError(t, f.users.Create(f.ctx, antonin))

	creation, err := svc.NewMovementByUser(f.ctx, antonin.ID, "Meditate everyday", "daily", "Sit", "", true)

	require.NoError(t, err)
	assert.True(t, creation.Created)
	assert.Equal(t, "Meditate everyday", creation.Movement.Name)
	assert.Equal(t, "antonin", creation.User.Username)

	isCreator, err := svc.IsCreator(f.ctx, antonin.ID, creation.Movement.ID)
	require.NoError(t, err)
	assert.True(t, isCreator)

	// autoSubscribe wires the creator in as the first subscriber.
	subscribed, err := f.svc.IsSubscribed(f.ctx, antonin.ID, creation.Movement.ID)
	require.NoError(t, err)
	assert.True(t, subscribed)
}

func TestNewMovementByUserWithoutAutoSubscribe(t *testing.T) {
	f := newSubsFixture(t)
	svc := newCreationService(f)
	antonin := &identity.User{Username: "antonin", Email: "antonin@gridt.org", IsAdmin: true}
	require.NoError(t, f.users.Create(f.ctx, antonin))

	creation, err := svc.NewMovementByUser(f.ctx, antonin.ID, "Flossing", "daily", "", "", false)
	require.NoError(t, err)

	subscribed, err := f.svc.IsSubscribed(f.ctx, antonin.ID, creation.Movement.ID)
	require.NoError(t, err)
	assert.False(t, subscribed)
}

func TestRemoveCreation(t *testing.T) {
	f := newSubsFixture(t)
	svc := newCreationService(f)
	antonin := &identity.User{Username: "antonin", Email: "antonin@gridt.org", IsAdmin: true}
	require.NoError(t, f.users.Create(f.ctx, antonin))

	creation, err := svc.NewMovementByUser(f.ctx, antonin.ID, "Flossing", "daily", "", "", false)
	require.NoError(t, err)

	removed, err := svc.RemoveCreation(f.ctx, antonin.ID, creation.Movement.ID)
	require.NoError(t, err)
	assert.False(t, removed.Created)

	isCreator, err := svc.IsCreator(f.ctx, antonin.ID, creation.Movement.ID)
	require.NoError(t, err)
	assert.False(t, isCreator)

	_, err = svc.RemoveCreation(f.ctx, antonin.ID, creation.Movement.ID)
	assert.ErrorIs(t, err, ErrUserIsNotCreator)
}
