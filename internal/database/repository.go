package database

import (
	"context"
	"time"
)

type WakuworkRepository interface {
	Ping(ctx context.Context) error
	UpsertUser(ctx context.Context, params UpsertUserParams) (User, error)
	GetUserById(ctx context.Context, userId int) (User, error)
	CreateRoom(ctx context.Context, params CreateRoomParams) (Room, error)
	GetRoomById(ctx context.Context, roomId int) (Room, error)
	GetRoomByOwnerId(ctx context.Context, ownerId int) (Room, error)
	UpdateRoomSettings(ctx context.Context, params UpdateRoomSettingsParams) (Room, error)
	CreateSession(ctx context.Context, params CreateSessionParams) (Session, error)
	GetSessionByCode(ctx context.Context, code string) (Session, error)
	GetActiveSession(ctx context.Context, roomId int) (Session, error)
	UpdateSession(ctx context.Context, params UpdateSessionParams) (Session, error)
	ToggleSessionState(ctx context.Context, sessionId int) (SessionState, error)
	EndSession(ctx context.Context, sessionId int, endedAt time.Time) error
	GetSessionCounts(ctx context.Context, sessionId int) (SessionCounts, error)
	GetMember(ctx context.Context, sessionId, userId int) (Member, error)
	CountMembers(ctx context.Context, sessionId int) (int, error)
	CountRoomMemberships(ctx context.Context, roomId, userId int) (int, error)
	ListMembers(ctx context.Context, sessionId int) ([]Member, error)
	UpdateMemberStatus(ctx context.Context, params UpdateMemberStatusParams) error
	SetMemberMute(ctx context.Context, params SetMemberMuteParams) error
	GetJoinRequest(ctx context.Context, sessionId, userId int) (JoinRequest, error)
	CreateJoinRequest(ctx context.Context, params CreateJoinRequestParams) (JoinRequest, error)
	ResolveJoinRequest(ctx context.Context, params ResolveJoinRequestParams) error
	ListPendingRequests(ctx context.Context, sessionId int) ([]JoinRequest, error)
	CreateStamp(ctx context.Context, stamp StampEvent) error
	GetStampActivity(ctx context.Context, sessionId, userId int, since time.Time) (StampActivity, error)
	ListStampsAfter(ctx context.Context, sessionId int, after time.Time, limit int) ([]StampEvent, error)
	CountStampsByType(ctx context.Context, sessionId int, since time.Time) ([]StampCount, error)
	DeleteStampsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	CreateBreakMessage(ctx context.Context, msg BreakMessage) error
	GetLatestBreakMessageAt(ctx context.Context, sessionId, authorId int) (time.Time, error)
	ListBreakMessages(ctx context.Context, sessionId, limit int) ([]BreakMessage, error)
	CreateSupportEvent(ctx context.Context, event SupportEvent) error
	ListSupportEvents(ctx context.Context, sessionId, limit int) ([]SupportEvent, error)
	GetLatestSupportEvent(ctx context.Context, sessionId int) (SupportEvent, error)
}
