package database

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockWakuworkRepository struct {
	mock.Mock
}

func (m *MockWakuworkRepository) Ping(ctx context.Context) error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockWakuworkRepository) UpsertUser(ctx context.Context, params UpsertUserParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockWakuworkRepository) GetUserById(ctx context.Context, userId int) (User, error) {
	args := m.Called(userId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockWakuworkRepository) CreateRoom(ctx context.Context, params CreateRoomParams) (Room, error) {
	args := m.Called(params)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockWakuworkRepository) GetRoomById(ctx context.Context, roomId int) (Room, error) {
	args := m.Called(roomId)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockWakuworkRepository) GetRoomByOwnerId(ctx context.Context, ownerId int) (Room, error) {
	args := m.Called(ownerId)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockWakuworkRepository) UpdateRoomSettings(ctx context.Context, params UpdateRoomSettingsParams) (Room, error) {
	args := m.Called(params)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockWakuworkRepository) CreateSession(ctx context.Context, params CreateSessionParams) (Session, error) {
	args := m.Called(params)
	return args.Get(0).(Session), args.Error(1)
}
func (m *MockWakuworkRepository) GetSessionByCode(ctx context.Context, code string) (Session, error) {
	args := m.Called(code)
	return args.Get(0).(Session), args.Error(1)
}
func (m *MockWakuworkRepository) GetActiveSession(ctx context.Context, roomId int) (Session, error) {
	args := m.Called(roomId)
	return args.Get(0).(Session), args.Error(1)
}
func (m *MockWakuworkRepository) UpdateSession(ctx context.Context, params UpdateSessionParams) (Session, error) {
	args := m.Called(params)
	return args.Get(0).(Session), args.Error(1)
}
func (m *MockWakuworkRepository) ToggleSessionState(ctx context.Context, sessionId int) (SessionState, error) {
	args := m.Called(sessionId)
	return args.Get(0).(SessionState), args.Error(1)
}
func (m *MockWakuworkRepository) EndSession(ctx context.Context, sessionId int, endedAt time.Time) error {
	args := m.Called(sessionId, endedAt)
	return args.Error(0)
}
func (m *MockWakuworkRepository) GetSessionCounts(ctx context.Context, sessionId int) (SessionCounts, error) {
	args := m.Called(sessionId)
	return args.Get(0).(SessionCounts), args.Error(1)
}
func (m *MockWakuworkRepository) GetMember(ctx context.Context, sessionId, userId int) (Member, error) {
	args := m.Called(sessionId, userId)
	return args.Get(0).(Member), args.Error(1)
}
func (m *MockWakuworkRepository) CountMembers(ctx context.Context, sessionId int) (int, error) {
	args := m.Called(sessionId)
	return args.Int(0), args.Error(1)
}
func (m *MockWakuworkRepository) CountRoomMemberships(ctx context.Context, roomId, userId int) (int, error) {
	args := m.Called(roomId, userId)
	return args.Int(0), args.Error(1)
}
func (m *MockWakuworkRepository) ListMembers(ctx context.Context, sessionId int) ([]Member, error) {
	args := m.Called(sessionId)
	return args.Get(0).([]Member), args.Error(1)
}
func (m *MockWakuworkRepository) UpdateMemberStatus(ctx context.Context, params UpdateMemberStatusParams) error {
	args := m.Called(params)
	return args.Error(0)
}
func (m *MockWakuworkRepository) SetMemberMute(ctx context.Context, params SetMemberMuteParams) error {
	args := m.Called(params)
	return args.Error(0)
}
func (m *MockWakuworkRepository) GetJoinRequest(ctx context.Context, sessionId, userId int) (JoinRequest, error) {
	args := m.Called(sessionId, userId)
	return args.Get(0).(JoinRequest), args.Error(1)
}
func (m *MockWakuworkRepository) CreateJoinRequest(ctx context.Context, params CreateJoinRequestParams) (JoinRequest, error) {
	args := m.Called(params)
	return args.Get(0).(JoinRequest), args.Error(1)
}
func (m *MockWakuworkRepository) ResolveJoinRequest(ctx context.Context, params ResolveJoinRequestParams) error {
	args := m.Called(params)
	return args.Error(0)
}
func (m *MockWakuworkRepository) ListPendingRequests(ctx context.Context, sessionId int) ([]JoinRequest, error) {
	args := m.Called(sessionId)
	return args.Get(0).([]JoinRequest), args.Error(1)
}
func (m *MockWakuworkRepository) CreateStamp(ctx context.Context, stamp StampEvent) error {
	args := m.Called(stamp)
	return args.Error(0)
}
func (m *MockWakuworkRepository) GetStampActivity(ctx context.Context, sessionId, userId int, since time.Time) (StampActivity, error) {
	args := m.Called(sessionId, userId, since)
	return args.Get(0).(StampActivity), args.Error(1)
}
func (m *MockWakuworkRepository) ListStampsAfter(ctx context.Context, sessionId int, after time.Time, limit int) ([]StampEvent, error) {
	args := m.Called(sessionId, after, limit)
	return args.Get(0).([]StampEvent), args.Error(1)
}
func (m *MockWakuworkRepository) CountStampsByType(ctx context.Context, sessionId int, since time.Time) ([]StampCount, error) {
	args := m.Called(sessionId, since)
	return args.Get(0).([]StampCount), args.Error(1)
}
func (m *MockWakuworkRepository) DeleteStampsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(cutoff)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockWakuworkRepository) CreateBreakMessage(ctx context.Context, msg BreakMessage) error {
	args := m.Called(msg)
	return args.Error(0)
}
func (m *MockWakuworkRepository) GetLatestBreakMessageAt(ctx context.Context, sessionId, authorId int) (time.Time, error) {
	args := m.Called(sessionId, authorId)
	return args.Get(0).(time.Time), args.Error(1)
}
func (m *MockWakuworkRepository) ListBreakMessages(ctx context.Context, sessionId, limit int) ([]BreakMessage, error) {
	args := m.Called(sessionId, limit)
	return args.Get(0).([]BreakMessage), args.Error(1)
}
func (m *MockWakuworkRepository) CreateSupportEvent(ctx context.Context, event SupportEvent) error {
	args := m.Called(event)
	return args.Error(0)
}
func (m *MockWakuworkRepository) ListSupportEvents(ctx context.Context, sessionId, limit int) ([]SupportEvent, error) {
	args := m.Called(sessionId, limit)
	return args.Get(0).([]SupportEvent), args.Error(1)
}
func (m *MockWakuworkRepository) GetLatestSupportEvent(ctx context.Context, sessionId int) (SupportEvent, error) {
	args := m.Called(sessionId)
	return args.Get(0).(SupportEvent), args.Error(1)
}
