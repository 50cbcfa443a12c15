package circle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/npezzotti/wakuwork/internal/database"
	"github.com/npezzotti/wakuwork/internal/stats"
	"github.com/npezzotti/wakuwork/internal/types"
	"golang.org/x/crypto/bcrypt"
)

const (
	maxRoomName = 50

	// bcrypt only looks at the first 72 bytes.
	maxPassphraseBytes = 72

	SafetyWarning = "警告: 合言葉OFF + 承認OFF の状態です。誰でも即入室できる状態になります。荒らし対策として推奨しません。"
)

type CreateRoomParams struct {
	Name             string
	DisplayNameMode  *string
	ApprovalRequired *bool
}

type RoomSettings struct {
	DisplayNameMode  *string
	ApprovalRequired *bool
}

type StartSessionParams struct {
	Passphrase         string
	PassphraseRequired *bool
	Declaration        *string
}

type SessionSettings struct {
	Passphrase         *string
	PassphraseRequired *bool
	ApprovalRequired   *bool
	Declaration        *string
	State              *string
}

func roomView(room database.Room) types.Room {
	return types.Room{
		Id:               room.Id,
		ExternalId:       room.ExternalId,
		Name:             room.Name,
		DisplayNameMode:  string(room.DisplayNameMode),
		ApprovalRequired: room.ApprovalRequired,
	}
}

func (s *Service) hashPassphrase(passphrase string) (string, error) {
	if passphrase == "" {
		return "", nil
	}
	if len(passphrase) > maxPassphraseBytes {
		return "", ErrPassphraseTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("hash passphrase: %w", err)
	}

	return string(hash), nil
}

func passphraseMatches(hash, supplied string) bool {
	if hash == "" || len(supplied) > maxPassphraseBytes {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(supplied)) == nil
}

func (s *Service) CreateRoom(ctx context.Context, ownerId int, params CreateRoomParams) (types.Room, error) {
	_, err := s.db.GetRoomByOwnerId(ctx, ownerId)
	if err == nil {
		return types.Room{}, ErrRoomExists
	}
	if !errors.Is(err, database.ErrNotFound) {
		return types.Room{}, fmt.Errorf("get room for owner %d: %w", ownerId, err)
	}

	name := strings.TrimSpace(params.Name)
	if n := utf8.RuneCountInString(name); n == 0 || n > maxRoomName {
		return types.Room{}, ErrInvalidRoomName
	}

	mode := database.ModeNickname
	if params.DisplayNameMode != nil {
		m, ok := ParseDisplayNameMode(*params.DisplayNameMode)
		if !ok {
			return types.Room{}, ErrInvalidNameMode
		}
		mode = m
	}

	approvalRequired := true
	if params.ApprovalRequired != nil {
		approvalRequired = *params.ApprovalRequired
	}

	externalId, err := s.newRoomId()
	if err != nil {
		return types.Room{}, fmt.Errorf("generate room id: %w", err)
	}

	room, err := s.db.CreateRoom(ctx, database.CreateRoomParams{
		OwnerId:          ownerId,
		ExternalId:       externalId,
		Name:             name,
		DisplayNameMode:  mode,
		ApprovalRequired: approvalRequired,
		Now:              s.now(),
	})
	if err != nil {
		return types.Room{}, fmt.Errorf("create room: %w", err)
	}

	s.log.Printf("room %d created by user %d", room.Id, ownerId)
	return roomView(room), nil
}

// GetStreamerRoom returns the owner's room with its active session. Room is
// nil when the owner has not created one yet.
func (s *Service) GetStreamerRoom(ctx context.Context, ownerId int) (types.StreamerRoom, error) {
	room, err := s.db.GetRoomByOwnerId(ctx, ownerId)
	if errors.Is(err, database.ErrNotFound) {
		return types.StreamerRoom{}, nil
	}
	if err != nil {
		return types.StreamerRoom{}, fmt.Errorf("get room for owner %d: %w", ownerId, err)
	}

	view := roomView(room)
	res := types.StreamerRoom{Room: &view}

	session, err := s.db.GetActiveSession(ctx, room.Id)
	if errors.Is(err, database.ErrNotFound) {
		return res, nil
	}
	if err != nil {
		return types.StreamerRoom{}, fmt.Errorf("get active session: %w", err)
	}

	counts, err := s.db.GetSessionCounts(ctx, session.Id)
	if err != nil {
		return types.StreamerRoom{}, fmt.Errorf("get session counts: %w", err)
	}

	view.ActiveSession = &types.ActiveSession{
		Code:               session.Code,
		PassphraseRequired: session.PassphraseRequired,
		PassphraseSet:      session.PassphraseHash != "",
		State:              string(session.State),
		Declaration:        declaration(session),
		StartedAt:          session.StartedAt,
		MemberCount:        counts.Members,
		PendingCount:       counts.Pending,
	}
	if !session.PassphraseRequired && !room.ApprovalRequired {
		res.SafetyWarning = SafetyWarning
	}

	return res, nil
}

func (s *Service) UpdateRoomSettings(ctx context.Context, ownerId, roomId int, settings RoomSettings) (types.Room, error) {
	room, err := s.db.GetRoomById(ctx, roomId)
	if errors.Is(err, database.ErrNotFound) {
		return types.Room{}, ErrRoomNotFound
	}
	if err != nil {
		return types.Room{}, fmt.Errorf("get room %d: %w", roomId, err)
	}
	if room.OwnerId != ownerId {
		return types.Room{}, ErrNotRoomOwner
	}

	params := database.UpdateRoomSettingsParams{
		RoomId:           roomId,
		ApprovalRequired: settings.ApprovalRequired,
		Now:              s.now(),
	}
	if settings.DisplayNameMode != nil {
		mode, ok := ParseDisplayNameMode(*settings.DisplayNameMode)
		if !ok {
			return types.Room{}, ErrInvalidNameMode
		}
		params.DisplayNameMode = &mode
	}

	room, err = s.db.UpdateRoomSettings(ctx, params)
	if errors.Is(err, database.ErrNotFound) {
		return types.Room{}, ErrRoomNotFound
	}
	if err != nil {
		return types.Room{}, fmt.Errorf("update room %d: %w", roomId, err)
	}

	return roomView(room), nil
}

// StartSession ends any open session of the room and opens a new one under a
// freshly sampled code.
func (s *Service) StartSession(ctx context.Context, ownerId, roomId int, params StartSessionParams) (types.StartSessionResult, error) {
	room, err := s.db.GetRoomById(ctx, roomId)
	if errors.Is(err, database.ErrNotFound) {
		return types.StartSessionResult{}, ErrRoomNotFound
	}
	if err != nil {
		return types.StartSessionResult{}, fmt.Errorf("get room %d: %w", roomId, err)
	}
	if room.OwnerId != ownerId {
		return types.StartSessionResult{}, ErrNotRoomOwner
	}

	required := true
	if params.PassphraseRequired != nil {
		required = *params.PassphraseRequired
	}
	passphrase := strings.TrimSpace(params.Passphrase)
	if required && passphrase == "" {
		return types.StartSessionResult{}, ErrPassphraseRequired
	}

	hash, err := s.hashPassphrase(passphrase)
	if err != nil {
		return types.StartSessionResult{}, err
	}

	var decl *string
	if params.Declaration != nil {
		if d := strings.TrimSpace(*params.Declaration); d != "" {
			decl = &d
		}
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		session, err := s.db.CreateSession(ctx, database.CreateSessionParams{
			RoomId:             roomId,
			Code:               s.newCode(),
			PassphraseHash:     hash,
			PassphraseRequired: required,
			Declaration:        decl,
			StartedAt:          s.now(),
		})
		if errors.Is(err, database.ErrUniqueViolation) {
			continue
		}
		if err != nil {
			return types.StartSessionResult{}, fmt.Errorf("create session: %w", err)
		}

		s.stats.Incr(stats.SessionsStarted)
		s.log.Printf("session %s started in room %d", session.Code, roomId)
		return types.StartSessionResult{Success: true, SessionCode: session.Code}, nil
	}

	s.log.Printf("room %d: no free session code after %d attempts", roomId, maxCodeAttempts)
	return types.StartSessionResult{}, ErrCodeExhausted
}

func parseSettableState(s string) (database.SessionState, error) {
	switch state := database.SessionState(strings.ToLower(strings.TrimSpace(s))); state {
	case database.StateWorking, database.StateBreak:
		return state, nil
	case database.StateEnded:
		return "", ErrUseEndSession
	default:
		return "", ErrInvalidState
	}
}

// UpdateSessionSettings applies a partial update. The passphrase rule is
// checked against the combination that would result.
func (s *Service) UpdateSessionSettings(ctx context.Context, ownerId int, code string, settings SessionSettings) (types.SettingsResult, error) {
	session, err := s.ownedSession(ctx, code, ownerId)
	if err != nil {
		return types.SettingsResult{}, err
	}
	if session.State == database.StateEnded {
		return types.SettingsResult{}, ErrAlreadyEnded
	}

	params := database.UpdateSessionParams{
		SessionId:          session.Id,
		RoomId:             session.RoomId,
		PassphraseRequired: settings.PassphraseRequired,
		ApprovalRequired:   settings.ApprovalRequired,
		Now:                s.now(),
	}

	if settings.State != nil {
		state, err := parseSettableState(*settings.State)
		if err != nil {
			return types.SettingsResult{}, err
		}
		params.State = &state
	}

	passphraseSet := session.PassphraseHash != ""
	if settings.Passphrase != nil {
		passphrase := strings.TrimSpace(*settings.Passphrase)
		hash, err := s.hashPassphrase(passphrase)
		if err != nil {
			return types.SettingsResult{}, err
		}
		params.PassphraseHash = &hash
		passphraseSet = hash != ""
	}

	required := session.PassphraseRequired
	if settings.PassphraseRequired != nil {
		required = *settings.PassphraseRequired
	}
	if required && !passphraseSet {
		return types.SettingsResult{}, ErrPassphraseRequired
	}

	if settings.Declaration != nil {
		params.Declaration = ptr(strings.TrimSpace(*settings.Declaration))
	}

	updated, err := s.db.UpdateSession(ctx, params)
	if errors.Is(err, database.ErrNotFound) {
		return types.SettingsResult{}, ErrAlreadyEnded
	}
	if err != nil {
		return types.SettingsResult{}, fmt.Errorf("update session %s: %w", session.Code, err)
	}

	res := types.SettingsResult{Success: true}
	if !updated.PassphraseRequired && !updated.Room.ApprovalRequired {
		res.Warning = SafetyWarning
	}

	return res, nil
}

func (s *Service) ToggleSessionState(ctx context.Context, ownerId int, code string) (database.SessionState, error) {
	session, err := s.ownedSession(ctx, code, ownerId)
	if err != nil {
		return "", err
	}
	if session.State == database.StateEnded {
		return "", ErrAlreadyEnded
	}

	state, err := s.db.ToggleSessionState(ctx, session.Id)
	if errors.Is(err, database.ErrNotFound) {
		return "", ErrAlreadyEnded
	}
	if err != nil {
		return "", fmt.Errorf("toggle session %s: %w", session.Code, err)
	}

	return state, nil
}

func (s *Service) EndSession(ctx context.Context, ownerId int, code string) error {
	session, err := s.ownedSession(ctx, code, ownerId)
	if err != nil {
		return err
	}
	if session.State == database.StateEnded {
		return ErrAlreadyEnded
	}

	err = s.db.EndSession(ctx, session.Id, s.now())
	if errors.Is(err, database.ErrNotFound) {
		return ErrAlreadyEnded
	}
	if err != nil {
		return fmt.Errorf("end session %s: %w", session.Code, err)
	}

	s.stats.Incr(stats.SessionsEnded)
	s.log.Printf("session %s ended", session.Code)
	return nil
}

func declaration(session database.Session) *string {
	if session.Declaration == nil || *session.Declaration == "" {
		return nil
	}
	return session.Declaration
}

func (s *Service) GetJoinInfo(ctx context.Context, code string) (types.JoinInfo, error) {
	session, err := s.sessionByCode(ctx, code)
	if err != nil {
		return types.JoinInfo{}, err
	}

	return types.JoinInfo{
		Code:               session.Code,
		PassphraseRequired: session.PassphraseRequired,
		StreamerName:       session.Room.OwnerName,
		Status:             string(session.State),
	}, nil
}

// GetSessionView is the member-facing session page. Members also get their
// own status and the latest support events.
func (s *Service) GetSessionView(ctx context.Context, code string, userId int) (types.SessionView, error) {
	session, err := s.sessionByCode(ctx, code)
	if err != nil {
		return types.SessionView{}, err
	}

	counts, err := s.db.GetSessionCounts(ctx, session.Id)
	if err != nil {
		return types.SessionView{}, fmt.Errorf("get session counts: %w", err)
	}

	status, member, err := s.approvalStatus(ctx, session.Id, userId)
	if err != nil {
		return types.SessionView{}, err
	}

	view := types.SessionView{
		Code:               session.Code,
		PassphraseRequired: session.PassphraseRequired,
		Status:             string(session.State),
		StreamerName:       session.Room.OwnerName,
		RoomName:           session.Room.Name,
		Declaration:        declaration(session),
		DisplayNameMode:    string(session.Room.DisplayNameMode),
		ParticipantCount:   counts.Members,
		PendingCount:       counts.Pending,
		StartedAt:          session.StartedAt,
		UserApprovalStatus: status,
	}

	if member != nil {
		view.MyStatus = memberStatusView(*member)
		view.SupportEvents, err = s.ListSupport(ctx, session.Id, supportListLimit)
		if err != nil {
			return types.SessionView{}, err
		}
	}

	return view, nil
}
