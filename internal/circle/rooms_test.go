package circle

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/npezzotti/wakuwork/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_CreateRoom(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t)
	s.newRoomId = func() (string, error) { return "room-ext", nil }

	owner, err := s.EnsureUser(ctx, "streamer-1", "Streamer")
	require.NoError(t, err)

	room, err := s.CreateRoom(ctx, owner.Id, CreateRoomParams{Name: "  Focus  "})
	require.NoError(t, err)
	assert.Equal(t, "Focus", room.Name)
	assert.Equal(t, "room-ext", room.ExternalId)
	assert.Equal(t, "nickname", room.DisplayNameMode)
	assert.True(t, room.ApprovalRequired)

	_, err = s.CreateRoom(ctx, owner.Id, CreateRoomParams{Name: "Second"})
	assert.ErrorIs(t, err, ErrRoomExists)
}

func TestService_CreateRoom_Validation(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t)

	owner, err := s.EnsureUser(ctx, "streamer-1", "Streamer")
	require.NoError(t, err)

	bogus := "bogus"
	tcases := []struct {
		name   string
		params CreateRoomParams
		err    error
	}{
		{"empty name", CreateRoomParams{Name: "   "}, ErrInvalidRoomName},
		{"long name", CreateRoomParams{Name: strings.Repeat("あ", 51)}, ErrInvalidRoomName},
		{"unknown mode", CreateRoomParams{Name: "ok", DisplayNameMode: &bogus}, ErrInvalidNameMode},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.CreateRoom(ctx, owner.Id, tc.params)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestService_StartSession(t *testing.T) {
	ctx := context.Background()
	s, repo, _ := newTestService(t)
	f := newFixture(t, s, true)

	stranger, err := s.EnsureUser(ctx, "viewer-1", "Viewer")
	require.NoError(t, err)

	_, err = s.StartSession(ctx, stranger.Id, f.roomId, StartSessionParams{Passphrase: "x"})
	assert.ErrorIs(t, err, ErrNotRoomOwner)

	_, err = s.StartSession(ctx, f.owner.Id, 9999, StartSessionParams{Passphrase: "x"})
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, err = s.StartSession(ctx, f.owner.Id, f.roomId, StartSessionParams{Passphrase: "   "})
	assert.ErrorIs(t, err, ErrPassphraseRequired)

	res, err := s.StartSession(ctx, f.owner.Id, f.roomId, StartSessionParams{Passphrase: " new "})
	require.NoError(t, err)
	assert.NotEqual(t, f.code, res.SessionCode)

	old, err := repo.GetSessionByCode(ctx, f.code)
	require.NoError(t, err)
	assert.Equal(t, database.StateEnded, old.State, "expected previous session to be ended")
	assert.NotNil(t, old.EndedAt)

	active, err := repo.GetActiveSession(ctx, f.roomId)
	require.NoError(t, err)
	assert.Equal(t, res.SessionCode, active.Code)
	assert.True(t, passphraseMatches(active.PassphraseHash, "new"), "expected trimmed passphrase to be stored")
}

func TestService_StartSession_WithoutPassphrase(t *testing.T) {
	ctx := context.Background()
	s, repo, _ := newTestService(t)
	f := newFixture(t, s, true)

	res, err := s.StartSession(ctx, f.owner.Id, f.roomId, StartSessionParams{PassphraseRequired: ptr(false)})
	require.NoError(t, err)

	session, err := repo.GetSessionByCode(ctx, res.SessionCode)
	require.NoError(t, err)
	assert.False(t, session.PassphraseRequired)
	assert.Empty(t, session.PassphraseHash)
}

func TestService_StartSession_CodeCollision(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t)
	f := newFixture(t, s, true)

	codes := []string{f.code, f.code, "ZZZ999"}
	s.newCode = func() string {
		c := codes[0]
		codes = codes[1:]
		return c
	}

	res, err := s.StartSession(ctx, f.owner.Id, f.roomId, StartSessionParams{Passphrase: "x"})
	require.NoError(t, err)
	assert.Equal(t, "ZZZ999", res.SessionCode)

	calls := 0
	s.newCode = func() string {
		calls++
		return "ZZZ999"
	}
	_, err = s.StartSession(ctx, f.owner.Id, f.roomId, StartSessionParams{Passphrase: "x"})
	assert.ErrorIs(t, err, ErrCodeExhausted)
	assert.Equal(t, maxCodeAttempts, calls)
}

func TestService_UpdateSessionSettings(t *testing.T) {
	ctx := context.Background()

	tcases := []struct {
		name     string
		settings SessionSettings
		err      error
		warning  bool
	}{
		{
			name:     "clear passphrase while required",
			settings: SessionSettings{Passphrase: ptr("")},
			err:      ErrPassphraseRequired,
		},
		{
			name:     "not required and cleared",
			settings: SessionSettings{Passphrase: ptr(""), PassphraseRequired: ptr(false)},
		},
		{
			name:     "open to everyone",
			settings: SessionSettings{PassphraseRequired: ptr(false), ApprovalRequired: ptr(false)},
			warning:  true,
		},
		{
			name:     "end through settings",
			settings: SessionSettings{State: ptr("ended")},
			err:      ErrUseEndSession,
		},
		{
			name:     "unknown state",
			settings: SessionSettings{State: ptr("paused")},
			err:      ErrInvalidState,
		},
		{
			name:     "switch to break",
			settings: SessionSettings{State: ptr("break"), Declaration: ptr(" 3 chapters ")},
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			s, _, _ := newTestService(t)
			f := newFixture(t, s, true)

			res, err := s.UpdateSessionSettings(ctx, f.owner.Id, f.code, tc.settings)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.True(t, res.Success)
			if tc.warning {
				assert.Equal(t, SafetyWarning, res.Warning)
			} else {
				assert.Empty(t, res.Warning)
			}
		})
	}
}

func TestService_UpdateSessionSettings_Errors(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t)
	f := newFixture(t, s, true)

	_, err := s.UpdateSessionSettings(ctx, f.owner.Id+100, f.code, SessionSettings{})
	assert.ErrorIs(t, err, ErrNotRoomOwner)

	_, err = s.UpdateSessionSettings(ctx, f.owner.Id, "NOPE99", SessionSettings{})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, s.EndSession(ctx, f.owner.Id, f.code))
	_, err = s.UpdateSessionSettings(ctx, f.owner.Id, f.code, SessionSettings{})
	assert.ErrorIs(t, err, ErrAlreadyEnded)
}

func TestService_ToggleAndEnd(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t)
	f := newFixture(t, s, true)

	state, err := s.ToggleSessionState(ctx, f.owner.Id, f.code)
	require.NoError(t, err)
	assert.Equal(t, database.StateBreak, state)

	state, err = s.ToggleSessionState(ctx, f.owner.Id, f.code)
	require.NoError(t, err)
	assert.Equal(t, database.StateWorking, state)

	require.NoError(t, s.EndSession(ctx, f.owner.Id, f.code))
	assert.ErrorIs(t, s.EndSession(ctx, f.owner.Id, f.code), ErrAlreadyEnded)

	_, err = s.ToggleSessionState(ctx, f.owner.Id, f.code)
	assert.ErrorIs(t, err, ErrAlreadyEnded)
}

func TestService_GetStreamerRoom(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t)

	nobody, err := s.EnsureUser(ctx, "nobody", "Nobody")
	require.NoError(t, err)
	res, err := s.GetStreamerRoom(ctx, nobody.Id)
	require.NoError(t, err)
	assert.Nil(t, res.Room)

	f := newFixture(t, s, false)
	f.admit(t, s, "viewer-1")

	res, err = s.GetStreamerRoom(ctx, f.owner.Id)
	require.NoError(t, err)
	require.NotNil(t, res.Room)
	require.NotNil(t, res.Room.ActiveSession)
	assert.Equal(t, f.code, res.Room.ActiveSession.Code)
	assert.True(t, res.Room.ActiveSession.PassphraseSet)
	assert.Equal(t, 1, res.Room.ActiveSession.MemberCount)
	assert.Empty(t, res.SafetyWarning)

	_, err = s.UpdateSessionSettings(ctx, f.owner.Id, f.code, SessionSettings{PassphraseRequired: ptr(false)})
	require.NoError(t, err)

	res, err = s.GetStreamerRoom(ctx, f.owner.Id)
	require.NoError(t, err)
	assert.Equal(t, SafetyWarning, res.SafetyWarning)
}

func TestService_UpdateRoomSettings(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t)
	f := newFixture(t, s, true)

	room, err := s.UpdateRoomSettings(ctx, f.owner.Id, f.roomId, RoomSettings{DisplayNameMode: ptr("animal"), ApprovalRequired: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, "animal", room.DisplayNameMode)
	assert.False(t, room.ApprovalRequired)

	_, err = s.UpdateRoomSettings(ctx, f.owner.Id+1, f.roomId, RoomSettings{})
	assert.ErrorIs(t, err, ErrNotRoomOwner)

	_, err = s.UpdateRoomSettings(ctx, f.owner.Id, 4242, RoomSettings{})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestService_GetJoinInfo(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t)
	f := newFixture(t, s, true)

	info, err := s.GetJoinInfo(ctx, " "+strings.ToLower(f.code)+" ")
	require.NoError(t, err)
	assert.Equal(t, f.code, info.Code)
	assert.True(t, info.PassphraseRequired)
	assert.Equal(t, "Streamer", info.StreamerName)
	assert.Equal(t, "working", info.Status)

	_, err = s.GetJoinInfo(ctx, "XXX000")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestService_GetSessionView(t *testing.T) {
	ctx := context.Background()
	s, _, clock := newTestService(t)
	f := newFixture(t, s, true)
	member := f.admit(t, s, "viewer-1")

	outsider, err := s.EnsureUser(ctx, "viewer-2", "Outsider")
	require.NoError(t, err)

	for i := 1; i <= 12; i++ {
		clock.Advance(time.Second)
		_, err := s.SendSupport(ctx, f.code, member.Id, i, "")
		require.NoError(t, err)
	}

	view, err := s.GetSessionView(ctx, f.code, member.Id)
	require.NoError(t, err)
	assert.Equal(t, ApprovalMember, view.UserApprovalStatus)
	require.NotNil(t, view.MyStatus)
	assert.Equal(t, 1, view.ParticipantCount)
	require.Len(t, view.SupportEvents, supportListLimit)
	assert.Equal(t, 12, view.SupportEvents[0].Amount, "expected newest support first")

	view, err = s.GetSessionView(ctx, f.code, outsider.Id)
	require.NoError(t, err)
	assert.Equal(t, ApprovalNone, view.UserApprovalStatus)
	assert.Nil(t, view.MyStatus)
	assert.Empty(t, view.SupportEvents)
}
