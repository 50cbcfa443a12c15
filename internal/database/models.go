package database

import "time"

type SessionState string

const (
	StateWorking SessionState = "working"
	StateBreak   SessionState = "break"
	StateEnded   SessionState = "ended"
)

type JoinRequestStatus string

const (
	StatusPending  JoinRequestStatus = "pending"
	StatusApproved JoinRequestStatus = "approved"
	StatusRejected JoinRequestStatus = "rejected"
)

type DisplayNameMode string

const (
	ModeNickname  DisplayNameMode = "nickname"
	ModeAnimal    DisplayNameMode = "animal"
	ModeAnonymous DisplayNameMode = "anonymous"
)

type User struct {
	Id          int
	ExternalId  string
	DisplayName string
	Nickname    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Room struct {
	Id               int
	ExternalId       string
	OwnerId          int
	OwnerName        string
	Name             string
	DisplayNameMode  DisplayNameMode
	ApprovalRequired bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Session struct {
	Id                 int
	RoomId             int
	Code               string
	PassphraseHash     string
	PassphraseRequired bool
	State              SessionState
	Declaration        *string
	StartedAt          time.Time
	EndedAt            *time.Time
	Room               Room
}

type JoinRequest struct {
	Id           int
	SessionId    int
	UserId       int
	Status       JoinRequestStatus
	IsFirstVisit bool
	RequestedAt  time.Time
	ResolvedAt   *time.Time
	User         User
}

type Member struct {
	Id            int
	SessionId     int
	UserId        int
	DisplayName   string
	Category      *string
	ShortText     *string
	IsCompleted   bool
	IsMuted       bool
	MuteExpiresAt *time.Time
	JoinedAt      time.Time
	User          User
}

type StampEvent struct {
	Id          string
	SessionId   int
	UserId      int
	StampType   string
	DisplayName string
	CreatedAt   time.Time
}

// StampActivity summarizes one user's stamps inside a rate-limit window.
type StampActivity struct {
	Count    int
	LatestAt *time.Time
}

type StampCount struct {
	StampType string
	Count     int
	LatestAt  time.Time
}

type BreakMessage struct {
	Id        string
	SessionId int
	AuthorId  int
	Content   string
	CreatedAt time.Time
}

type SupportEvent struct {
	Id          string
	SessionId   int
	UserId      int
	DisplayName string
	Amount      int
	Message     string
	CreatedAt   time.Time
}

type SessionCounts struct {
	Members   int
	Completed int
	Pending   int
}

type UpsertUserParams struct {
	ExternalId  string
	DisplayName string
	Now         time.Time
}

type CreateRoomParams struct {
	OwnerId          int
	ExternalId       string
	Name             string
	DisplayNameMode  DisplayNameMode
	ApprovalRequired bool
	Now              time.Time
}

type UpdateRoomSettingsParams struct {
	RoomId           int
	DisplayNameMode  *DisplayNameMode
	ApprovalRequired *bool
	Now              time.Time
}

type CreateSessionParams struct {
	RoomId             int
	Code               string
	PassphraseHash     string
	PassphraseRequired bool
	Declaration        *string
	StartedAt          time.Time
}

type UpdateSessionParams struct {
	SessionId          int
	RoomId             int
	PassphraseHash     *string
	PassphraseRequired *bool
	Declaration        *string
	State              *SessionState
	ApprovalRequired   *bool
	Now                time.Time
}

type CreateMemberParams struct {
	SessionId   int
	UserId      int
	DisplayName string
	JoinedAt    time.Time
}

type CreateJoinRequestParams struct {
	SessionId    int
	UserId       int
	Status       JoinRequestStatus
	IsFirstVisit bool
	RequestedAt  time.Time
	ResolvedAt   *time.Time
	// Member is inserted in the same transaction when set.
	Member *CreateMemberParams
}

type ResolveJoinRequestParams struct {
	SessionId  int
	UserId     int
	Status     JoinRequestStatus
	ResolvedAt time.Time
	Member     *CreateMemberParams
}

type UpdateMemberStatusParams struct {
	SessionId   int
	UserId      int
	Category    *string
	ShortText   *string
	IsCompleted *bool
}

type SetMemberMuteParams struct {
	SessionId     int
	UserId        int
	IsMuted       bool
	MuteExpiresAt *time.Time
}
