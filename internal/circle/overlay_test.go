package circle

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/npezzotti/wakuwork/internal/database"
	"github.com/npezzotti/wakuwork/internal/stats"
	"github.com/npezzotti/wakuwork/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestService_GetOverlay_MalformedCode(t *testing.T) {
	repo := new(database.MockWakuworkRepository)
	s := NewService(testutil.TestLogger(t), repo, stats.NopStats{})

	for _, code := range []string{"", "AB1", "ABC-123", strings.Repeat("A", 13), "ABC 123"} {
		_, err := s.GetOverlay(context.Background(), code)
		assert.ErrorIs(t, err, ErrSessionNotFound, "code %q", code)
	}

	repo.AssertNotCalled(t, "GetSessionByCode", mock.Anything)
}

func TestService_GetOverlay(t *testing.T) {
	ctx := context.Background()
	s, _, clock := newTestService(t)
	f := newFixture(t, s, true)
	alice := f.admit(t, s, "viewer-1")
	bob := f.admit(t, s, "viewer-2")

	waiting, err := s.EnsureUser(ctx, "viewer-3", "Waiting")
	require.NoError(t, err)
	_, err = s.ProcessJoinRequest(ctx, f.code, waiting.Id, testPassphrase)
	require.NoError(t, err)

	require.NoError(t, s.UpdateMemberStatus(ctx, f.code, alice.Id, MemberStatusUpdate{IsCompleted: ptr(true)}))

	_, err = s.SendStamp(ctx, f.code, alice.Id, "wave")
	require.NoError(t, err)
	_, err = s.SendStamp(ctx, f.code, bob.Id, "wave")
	require.NoError(t, err)
	clock.Advance(3 * time.Second)
	_, err = s.SendStamp(ctx, f.code, bob.Id, "like")
	require.NoError(t, err)

	_, err = s.SendSupport(ctx, f.code, bob.Id, 500, "がんばれ")
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = s.SendStamp(ctx, f.code, alice.Id, "sleepy")
	require.NoError(t, err)

	overlay, err := s.GetOverlay(ctx, strings.ToLower(f.code))
	require.NoError(t, err)
	assert.Equal(t, f.code, overlay.Code)
	assert.Equal(t, "working", overlay.State)
	assert.Equal(t, int64(123), overlay.ElapsedSec)
	assert.Equal(t, 2, overlay.ParticipantsCount)
	assert.Equal(t, 1, overlay.CompletedCount)
	assert.Equal(t, 1, overlay.PendingCount)
	require.Len(t, overlay.Stamps, 1, "expected only the trailing minute to count")
	assert.Equal(t, "sleepy", overlay.Stamps[0].Type)
	require.NotNil(t, overlay.LatestSupport)
	assert.Equal(t, 500, overlay.LatestSupport.Amount)
	assert.Equal(t, "がんばれ", overlay.LatestSupport.Message)

	require.NoError(t, s.EndSession(ctx, f.owner.Id, f.code))
	clock.Advance(time.Hour)

	overlay, err = s.GetOverlay(ctx, f.code)
	require.NoError(t, err)
	assert.Equal(t, "ended", overlay.State)
	assert.Equal(t, int64(123), overlay.ElapsedSec, "expected elapsed time to stop at the end")
}

func TestService_GetOverlay_StampGrouping(t *testing.T) {
	ctx := context.Background()
	s, _, clock := newTestService(t)
	f := newFixture(t, s, true)
	alice := f.admit(t, s, "viewer-1")
	bob := f.admit(t, s, "viewer-2")

	_, err := s.SendStamp(ctx, f.code, alice.Id, "wave")
	require.NoError(t, err)
	_, err = s.SendStamp(ctx, f.code, bob.Id, "wave")
	require.NoError(t, err)
	clock.Advance(3 * time.Second)
	_, err = s.SendStamp(ctx, f.code, bob.Id, "like")
	require.NoError(t, err)

	overlay, err := s.GetOverlay(ctx, f.code)
	require.NoError(t, err)
	require.Len(t, overlay.Stamps, 2)
	assert.Equal(t, "like", overlay.Stamps[0].Type)
	assert.Equal(t, 1, overlay.Stamps[0].Count)
	assert.Equal(t, "wave", overlay.Stamps[1].Type)
	assert.Equal(t, 2, overlay.Stamps[1].Count)
	assert.Nil(t, overlay.LatestSupport)
}
