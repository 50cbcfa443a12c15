package circle

import (
	"context"
	"testing"
	"time"

	"github.com/npezzotti/wakuwork/internal/database"
	"github.com/npezzotti/wakuwork/internal/stats"
	"github.com/npezzotti/wakuwork/internal/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassphrase = "secret"

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(t *testing.T) (*Service, *testutil.MemRepository, *fakeClock) {
	t.Helper()
	repo := testutil.NewMemRepository()
	s := NewService(testutil.TestLogger(t), repo, stats.NopStats{})
	clock := &fakeClock{t: time.Date(2026, 1, 10, 20, 0, 0, 0, time.UTC)}
	s.clock = clock.Now
	s.SetPassphraseCost(bcrypt.MinCost)
	return s, repo, clock
}

type fixture struct {
	owner  database.User
	roomId int
	code   string
}

func newFixture(t *testing.T, s *Service, approvalRequired bool) fixture {
	t.Helper()
	ctx := context.Background()

	owner, err := s.EnsureUser(ctx, "streamer-1", "Streamer")
	require.NoError(t, err)

	room, err := s.CreateRoom(ctx, owner.Id, CreateRoomParams{Name: "Study Room", ApprovalRequired: &approvalRequired})
	require.NoError(t, err)

	res, err := s.StartSession(ctx, owner.Id, room.Id, StartSessionParams{Passphrase: testPassphrase})
	require.NoError(t, err)

	return fixture{owner: owner, roomId: room.Id, code: res.SessionCode}
}

// admit joins externalId into the fixture session, approving if needed.
func (f fixture) admit(t *testing.T, s *Service, externalId string) database.User {
	t.Helper()
	ctx := context.Background()

	user, err := s.EnsureUser(ctx, externalId, "Viewer "+externalId)
	require.NoError(t, err)

	res, err := s.ProcessJoinRequest(ctx, f.code, user.Id, testPassphrase)
	require.NoError(t, err)
	if res.RequiresApproval {
		require.NoError(t, s.ApproveJoinRequest(ctx, f.code, user.Id, f.owner.Id))
	}

	return user
}
