package database

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRepository connects to the database named by WAKUWORK_TEST_DSN and
// applies migrations. Tests are skipped when it is unset.
func newTestRepository(t *testing.T) *PgWakuworkRepository {
	t.Helper()
	dsn := os.Getenv("WAKUWORK_TEST_DSN")
	if dsn == "" {
		t.Skip("WAKUWORK_TEST_DSN not set")
	}

	require.NoError(t, Migrate(dsn))

	db, err := NewPgWakuworkRepository(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func uniqueSuffix() string {
	return strings.ToUpper(strconv.FormatInt(time.Now().UnixNano(), 36))
}

func TestPgWakuworkRepository_Lifecycle(t *testing.T) {
	db := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	suffix := uniqueSuffix()

	owner, err := db.UpsertUser(ctx, UpsertUserParams{ExternalId: "owner-" + suffix, DisplayName: "Owner", Now: now})
	require.NoError(t, err)
	viewer, err := db.UpsertUser(ctx, UpsertUserParams{ExternalId: "viewer-" + suffix, DisplayName: "Viewer", Now: now})
	require.NoError(t, err)

	again, err := db.UpsertUser(ctx, UpsertUserParams{ExternalId: "viewer-" + suffix, DisplayName: "Renamed", Now: now})
	require.NoError(t, err)
	assert.Equal(t, viewer.Id, again.Id)
	assert.Equal(t, "Renamed", again.DisplayName)

	room, err := db.CreateRoom(ctx, CreateRoomParams{
		OwnerId:          owner.Id,
		ExternalId:       "r" + suffix,
		Name:             "Study",
		DisplayNameMode:  ModeNickname,
		ApprovalRequired: true,
		Now:              now,
	})
	require.NoError(t, err)

	code := fmt.Sprintf("%.12s", "T"+suffix)
	session, err := db.CreateSession(ctx, CreateSessionParams{
		RoomId:             room.Id,
		Code:               code,
		PassphraseRequired: false,
		StartedAt:          now,
	})
	require.NoError(t, err)

	_, err = db.CreateSession(ctx, CreateSessionParams{RoomId: room.Id, Code: code, StartedAt: now})
	assert.ErrorIs(t, err, ErrUniqueViolation)

	got, err := db.GetSessionByCode(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, session.Id, got.Id)
	assert.Equal(t, owner.Id, got.Room.OwnerId)

	_, err = db.CreateJoinRequest(ctx, CreateJoinRequestParams{
		SessionId:    session.Id,
		UserId:       viewer.Id,
		Status:       StatusPending,
		IsFirstVisit: true,
		RequestedAt:  now,
	})
	require.NoError(t, err)

	_, err = db.CreateJoinRequest(ctx, CreateJoinRequestParams{
		SessionId:   session.Id,
		UserId:      viewer.Id,
		Status:      StatusPending,
		RequestedAt: now,
	})
	assert.ErrorIs(t, err, ErrUniqueViolation)

	counts, err := db.GetSessionCounts(ctx, session.Id)
	require.NoError(t, err)
	assert.Equal(t, SessionCounts{Pending: 1}, counts)

	resolve := ResolveJoinRequestParams{
		SessionId:  session.Id,
		UserId:     viewer.Id,
		Status:     StatusApproved,
		ResolvedAt: now,
		Member: &CreateMemberParams{
			SessionId:   session.Id,
			UserId:      viewer.Id,
			DisplayName: "Viewer",
			JoinedAt:    now,
		},
	}
	require.NoError(t, db.ResolveJoinRequest(ctx, resolve))
	assert.ErrorIs(t, db.ResolveJoinRequest(ctx, resolve), ErrNotFound)

	n, err := db.CountRoomMemberships(ctx, room.Id, viewer.Id)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, db.CreateStamp(ctx, StampEvent{
		Id:        "01STAMP" + suffix,
		SessionId: session.Id,
		UserId:    viewer.Id,
		StampType: "wave",
		CreatedAt: now,
	}))

	stamps, err := db.ListStampsAfter(ctx, session.Id, now.Add(-time.Second), 50)
	require.NoError(t, err)
	require.Len(t, stamps, 1)
	assert.Equal(t, "Viewer", stamps[0].DisplayName)

	stamps, err = db.ListStampsAfter(ctx, session.Id, now, 50)
	require.NoError(t, err)
	assert.Empty(t, stamps, "cursor comparison must be strict")

	state, err := db.ToggleSessionState(ctx, session.Id)
	require.NoError(t, err)
	assert.Equal(t, StateBreak, state)

	require.NoError(t, db.EndSession(ctx, session.Id, now.Add(time.Minute)))
	assert.ErrorIs(t, db.EndSession(ctx, session.Id, now.Add(2*time.Minute)), ErrNotFound)

	_, err = db.GetActiveSession(ctx, room.Id)
	assert.ErrorIs(t, err, ErrNotFound)
}
