package announcement

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridt-app/gridt/internal/identity"
)

// setChecker fakes known movement ids.
type setChecker map[int64]bool

func (c setChecker) Exists(ctx context.Context, movementID int64) (bool, error) {
	return c[movementID], nil
}

type fixture struct {
	svc   *Service
	users *identity.MockRepository
	clock *clockwork.FakeClock
	ctx   context.Context
}

func newFixture(t *testing.T, movements setChecker) *fixture {
	t.Helper()
	users := identity.NewMockRepository()
	clock := clockwork.NewFakeClockAt(time.Date(2023, 2, 25, 16, 30, 0, 0, time.UTC))
	return &fixture{
		svc:   NewService(NewMockRepository(), users, movements, clock, nil),
		users: users,
		clock: clock,
		ctx:   context.Background(),
	}
}

func (f *fixture) addUser(t *testing.T, username string, admin bool) *identity.User {
	t.Helper()
	user := &identity.User{Username: username, Email: username + "@gridt.org", IsAdmin: admin}
	require.NoError(t, f.users.Create(f.ctx, user))
	return user
}

func TestCreateAnnouncementRequiresAdmin(t *testing.T) {
	f := newFixture(t, setChecker{1: true})
	user := f.addUser(t, "robin", false)

	_, err := f.svc.CreateAnnouncement(f.ctx, "Welcome", 1, user.ID)

	assert.ErrorIs(t, err, identity.ErrUserNotAdmin)
}

func TestCreateAnnouncementUnknownMovement(t *testing.T) {
	f := newFixture(t, setChecker{})
	admin := f.addUser(t, "antonin", true)

	_, err := f.svc.CreateAnnouncement(f.ctx, "Welcome", 99, admin.ID)

	assert.ErrorIs(t, err, ErrMovementNotFound)
}

func TestCreateAnnouncement(t *testing.T) {
	f := newFixture(t, setChecker{1: true})
	admin := f.addUser(t, "antonin", true)

	created, err := f.svc.CreateAnnouncement(f.ctx, "Welcome to the movement!", 1, admin.ID)

	require.NoError(t, err)
	assert.Equal(t, int64(1), created.MovementID)
	assert.Equal(t, "Welcome to the movement!", created.Message)
	assert.Equal(t, admin.ID, created.Poster.ID)
	assert.Equal(t, "2023-02-25 16:30:00+00:00", created.CreatedTime.String())
	assert.Nil(t, created.UpdatedTime)
}

func TestCreateAnnouncementMessageTooLong(t *testing.T) {
	f := newFixture(t, setChecker{1: true})
	admin := f.addUser(t, "antonin", true)

	_, err := f.svc.CreateAnnouncement(f.ctx, strings.Repeat("x", MaxMessageLength+1), 1, admin.ID)

	assert.ErrorIs(t, err, ErrMessageTooLong)
}

func TestUpdateAnnouncement(t *testing.T) {
	f := newFixture(t, setChecker{1: true})
	admin := f.addUser(t, "antonin", true)

	created, err := f.svc.CreateAnnouncement(f.ctx, "Welcome", 1, admin.ID)
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	require.NoError(t, f.svc.UpdateAnnouncement(f.ctx, "Welcome, all of you!", created.ID, admin.ID))

	announcements, err := f.svc.GetAnnouncements(f.ctx, 1)
	require.NoError(t, err)
	require.Len(t, announcements, 1)
	assert.Equal(t, "Welcome, all of you!", announcements[0].Message)
	require.NotNil(t, announcements[0].UpdatedTime)
	assert.Equal(t, "2023-02-25 16:31:00+00:00", announcements[0].UpdatedTime.String())
}

func TestUpdateAnnouncementByOtherAdmin(t *testing.T) {
	f := newFixture(t, setChecker{1: true})
	poster := f.addUser(t, "antonin", true)
	other := f.addUser(t, "daniel", true)

	created, err := f.svc.CreateAnnouncement(f.ctx, "Welcome", 1, poster.ID)
	require.NoError(t, err)

	assert.NoError(t, f.svc.UpdateAnnouncement(f.ctx, "Edited", created.ID, other.ID))
}

func TestUpdateAnnouncementByNonAdmin(t *testing.T) {
	f := newFixture(t, setChecker{1: true})
	poster := f.addUser(t, "antonin", true)
	user := f.addUser(t, "robin", false)

	created, err := f.svc.CreateAnnouncement(f.ctx, "Welcome", 1, poster.ID)
	require.NoError(t, err)

	err = f.svc.UpdateAnnouncement(f.ctx, "Hijacked", created.ID, user.ID)
	assert.ErrorIs(t, err, identity.ErrUserNotAdmin)
}

func TestDeleteAnnouncementHidesIt(t *testing.T) {
	f := newFixture(t, setChecker{1: true})
	admin := f.addUser(t, "antonin", true)

	created, err := f.svc.CreateAnnouncement(f.ctx, "Welcome", 1, admin.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteAnnouncement(f.ctx, created.ID, admin.ID))

	announcements, err := f.svc.GetAnnouncements(f.ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, announcements)

	// Deleting twice fails: the row is already retired.
	err = f.svc.DeleteAnnouncement(f.ctx, created.ID, admin.ID)
	assert.ErrorIs(t, err, ErrAnnouncementNotFound)
}

func TestGetAnnouncementsNewestFirst(t *testing.T) {
	f := newFixture(t, setChecker{1: true, 2: true})
	admin := f.addUser(t, "antonin", true)

	for _, message := range []string{"first", "second", "third", "fourth"} {
		_, err := f.svc.CreateAnnouncement(f.ctx, message, 1, admin.ID)
		require.NoError(t, err)
		f.clock.Advance(time.Minute)
	}

	announcements, err := f.svc.GetAnnouncements(f.ctx, 1)
	require.NoError(t, err)
	require.Len(t, announcements, 4)
	assert.Equal(t, "fourth", announcements[0].Message)
	assert.Equal(t, "first", announcements[3].Message)

	last, err := f.svc.LastAnnouncement(f.ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "fourth", last.Message)

	// A movement without announcements yields an empty list and no
	// last announcement.
	empty, err := f.svc.GetAnnouncements(f.ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)

	none, err := f.svc.LastAnnouncement(f.ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, none)
}
