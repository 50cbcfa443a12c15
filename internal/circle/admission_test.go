package circle

import (
	"context"
	"sync"
	"testing"

	"github.com/npezzotti/wakuwork/internal/database"
	"github.com/npezzotti/wakuwork/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_ProcessJoinRequest_Passphrase(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t)
	f := newFixture(t, s, true)

	user, err := s.EnsureUser(ctx, "viewer-1", "Viewer")
	require.NoError(t, err)

	tcases := []struct {
		name       string
		passphrase string
		err        error
	}{
		{"wrong", "nope", ErrWrongPassphrase},
		{"empty", "", ErrWrongPassphrase},
		{"untrimmed is compared exactly", " secret ", ErrWrongPassphrase},
		{"correct", testPassphrase, nil},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.ProcessJoinRequest(ctx, f.code, user.Id, tc.passphrase)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestService_ProcessJoinRequest_PassphraseNotSet(t *testing.T) {
	ctx := context.Background()
	s, repo, clock := newTestService(t)
	f := newFixture(t, s, true)

	_, err := repo.CreateSession(ctx, database.CreateSessionParams{
		RoomId:             f.roomId,
		Code:               "BAD000",
		PassphraseRequired: true,
		StartedAt:          clock.Now(),
	})
	require.NoError(t, err)

	user, err := s.EnsureUser(ctx, "viewer-1", "Viewer")
	require.NoError(t, err)

	_, err = s.ProcessJoinRequest(ctx, "BAD000", user.Id, "anything")
	assert.ErrorIs(t, err, ErrPassphraseNotSet)
}

func TestService_ProcessJoinRequest_Flow(t *testing.T) {
	ctx := context.Background()
	s, repo, _ := newTestService(t)
	f := newFixture(t, s, true)

	user, err := s.EnsureUser(ctx, "viewer-1", "Viewer")
	require.NoError(t, err)

	res, err := s.ProcessJoinRequest(ctx, f.code, user.Id, testPassphrase)
	require.NoError(t, err)
	assert.Equal(t, types.JoinResult{Success: true, RequiresApproval: true, SessionCode: f.code, IsFirstVisit: true}, res)

	again, err := s.ProcessJoinRequest(ctx, f.code, user.Id, testPassphrase)
	require.NoError(t, err)
	assert.Equal(t, res, again, "expected pending request to be idempotent")

	status, err := s.GetUserApprovalStatus(ctx, f.code, user.Id)
	require.NoError(t, err)
	assert.Equal(t, ApprovalPending, status)

	require.NoError(t, s.ApproveJoinRequest(ctx, f.code, user.Id, f.owner.Id))
	assert.ErrorIs(t, s.ApproveJoinRequest(ctx, f.code, user.Id, f.owner.Id), ErrRequestNotFound)
	assert.ErrorIs(t, s.RejectJoinRequest(ctx, f.code, user.Id, f.owner.Id), ErrRequestNotFound)

	res, err = s.ProcessJoinRequest(ctx, f.code, user.Id, testPassphrase)
	require.NoError(t, err)
	assert.True(t, res.AlreadyApproved)

	status, err = s.GetUserApprovalStatus(ctx, f.code, user.Id)
	require.NoError(t, err)
	assert.Equal(t, ApprovalMember, status)

	presence := repo.Presence()
	require.Len(t, presence, 1)
	assert.Equal(t, user.Id, presence[0].UserId)
}

func TestService_ProcessJoinRequest_Rejected(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t)
	f := newFixture(t, s, true)

	user, err := s.EnsureUser(ctx, "viewer-1", "Viewer")
	require.NoError(t, err)

	_, err = s.ProcessJoinRequest(ctx, f.code, user.Id, testPassphrase)
	require.NoError(t, err)
	require.NoError(t, s.RejectJoinRequest(ctx, f.code, user.Id, f.owner.Id))

	_, err = s.ProcessJoinRequest(ctx, f.code, user.Id, testPassphrase)
	assert.ErrorIs(t, err, ErrJoinRejected)

	status, err := s.GetUserApprovalStatus(ctx, f.code, user.Id)
	require.NoError(t, err)
	assert.Equal(t, ApprovalRejected, status)

	// a new session of the same room starts with a clean slate
	next, err := s.StartSession(ctx, f.owner.Id, f.roomId, StartSessionParams{Passphrase: testPassphrase})
	require.NoError(t, err)
	res, err := s.ProcessJoinRequest(ctx, next.SessionCode, user.Id, testPassphrase)
	require.NoError(t, err)
	assert.True(t, res.RequiresApproval)
}

func TestService_ProcessJoinRequest_AutoApproval(t *testing.T) {
	ctx := context.Background()
	s, repo, _ := newTestService(t)
	f := newFixture(t, s, false)

	user := f.admit(t, s, "viewer-1")
	status, err := s.GetUserApprovalStatus(ctx, f.code, user.Id)
	require.NoError(t, err)
	assert.Equal(t, ApprovalMember, status, "expected first visit to need manual approval")

	next, err := s.StartSession(ctx, f.owner.Id, f.roomId, StartSessionParams{Passphrase: testPassphrase})
	require.NoError(t, err)

	res, err := s.ProcessJoinRequest(ctx, next.SessionCode, user.Id, testPassphrase)
	require.NoError(t, err)
	assert.Equal(t, types.JoinResult{Success: true, AlreadyApproved: true, SessionCode: next.SessionCode}, res)

	session, err := repo.GetSessionByCode(ctx, next.SessionCode)
	require.NoError(t, err)
	member, err := repo.GetMember(ctx, session.Id, user.Id)
	require.NoError(t, err)
	assert.Equal(t, "Viewer viewer-1", member.DisplayName)

	jr, err := repo.GetJoinRequest(ctx, session.Id, user.Id)
	require.NoError(t, err)
	assert.Equal(t, database.StatusApproved, jr.Status)
	assert.NotNil(t, jr.ResolvedAt)
}

func TestService_ProcessJoinRequest_ApprovalRequiredIgnoresHistory(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t)
	f := newFixture(t, s, true)
	user := f.admit(t, s, "viewer-1")

	next, err := s.StartSession(ctx, f.owner.Id, f.roomId, StartSessionParams{Passphrase: testPassphrase})
	require.NoError(t, err)

	res, err := s.ProcessJoinRequest(ctx, next.SessionCode, user.Id, testPassphrase)
	require.NoError(t, err)
	assert.True(t, res.RequiresApproval)
	assert.False(t, res.IsFirstVisit)
}

func TestService_ProcessJoinRequest_Errors(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t)
	f := newFixture(t, s, true)

	user, err := s.EnsureUser(ctx, "viewer-1", "Viewer")
	require.NoError(t, err)

	_, err = s.ProcessJoinRequest(ctx, "NOPE00", user.Id, testPassphrase)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, s.EndSession(ctx, f.owner.Id, f.code))
	_, err = s.ProcessJoinRequest(ctx, f.code, user.Id, testPassphrase)
	assert.ErrorIs(t, err, ErrAlreadyEnded)
}

func TestService_ProcessJoinRequest_ConcurrentInsert(t *testing.T) {
	ctx := context.Background()
	s, repo, clock := newTestService(t)
	f := newFixture(t, s, true)

	user, err := s.EnsureUser(ctx, "viewer-1", "Viewer")
	require.NoError(t, err)

	repo.BeforeCreateJoinRequest = func(params database.CreateJoinRequestParams) {
		repo.BeforeCreateJoinRequest = nil
		_, err := repo.CreateJoinRequest(ctx, database.CreateJoinRequestParams{
			SessionId:    params.SessionId,
			UserId:       params.UserId,
			Status:       database.StatusPending,
			IsFirstVisit: true,
			RequestedAt:  clock.Now(),
		})
		require.NoError(t, err)
	}

	res, err := s.ProcessJoinRequest(ctx, f.code, user.Id, testPassphrase)
	require.NoError(t, err)
	assert.True(t, res.RequiresApproval, "expected the in-flight request to be reported")

	pending, err := s.GetPendingUsers(ctx, f.code)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestService_ApproveJoinRequest_Authorization(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t)
	f := newFixture(t, s, true)

	user, err := s.EnsureUser(ctx, "viewer-1", "Viewer")
	require.NoError(t, err)
	_, err = s.ProcessJoinRequest(ctx, f.code, user.Id, testPassphrase)
	require.NoError(t, err)

	assert.ErrorIs(t, s.ApproveJoinRequest(ctx, f.code, user.Id, user.Id), ErrNotRoomOwner)
	assert.ErrorIs(t, s.ApproveJoinRequest(ctx, "NOPE00", user.Id, f.owner.Id), ErrSessionNotFound)
	assert.ErrorIs(t, s.ApproveJoinRequest(ctx, f.code, user.Id+50, f.owner.Id), ErrRequestNotFound)
}

func TestService_ApproveJoinRequest_AnonymousNumbering(t *testing.T) {
	ctx := context.Background()
	s, repo, _ := newTestService(t)
	f := newFixture(t, s, true)

	_, err := s.UpdateRoomSettings(ctx, f.owner.Id, f.roomId, RoomSettings{DisplayNameMode: ptr("anonymous")})
	require.NoError(t, err)

	first := f.admit(t, s, "viewer-1")
	second := f.admit(t, s, "viewer-2")

	session, err := repo.GetSessionByCode(ctx, f.code)
	require.NoError(t, err)

	m1, err := repo.GetMember(ctx, session.Id, first.Id)
	require.NoError(t, err)
	m2, err := repo.GetMember(ctx, session.Id, second.Id)
	require.NoError(t, err)
	assert.Equal(t, "参加者#1", m1.DisplayName)
	assert.Equal(t, "参加者#2", m2.DisplayName)
}

func TestService_ApproveJoinRequest_Concurrent(t *testing.T) {
	ctx := context.Background()
	s, repo, _ := newTestService(t)
	f := newFixture(t, s, true)

	user, err := s.EnsureUser(ctx, "viewer-1", "Viewer")
	require.NoError(t, err)
	_, err = s.ProcessJoinRequest(ctx, f.code, user.Id, testPassphrase)
	require.NoError(t, err)

	const approvers = 8
	var (
		wg   sync.WaitGroup
		errs = make(chan error, approvers)
	)
	for i := 0; i < approvers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.ApproveJoinRequest(ctx, f.code, user.Id, f.owner.Id)
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded int
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrRequestNotFound)
	}
	assert.Equal(t, 1, succeeded, "exactly one approval should win")

	session, err := repo.GetSessionByCode(ctx, f.code)
	require.NoError(t, err)
	members, err := repo.CountMembers(ctx, session.Id)
	require.NoError(t, err)
	assert.Equal(t, 1, members)
	assert.Len(t, repo.Presence(), 1)
}
