package types

import (
	"time"
)

type Room struct {
	Id               int            `json:"id"`
	ExternalId       string         `json:"externalId"`
	Name             string         `json:"name"`
	DisplayNameMode  string         `json:"displayNameMode"`
	ApprovalRequired bool           `json:"approvalRequired"`
	ActiveSession    *ActiveSession `json:"activeSession"`
}

type ActiveSession struct {
	Code               string    `json:"code"`
	PassphraseRequired bool      `json:"passphraseRequired"`
	PassphraseSet      bool      `json:"passphraseSet"`
	State              string    `json:"state"`
	Declaration        *string   `json:"declaration"`
	StartedAt          time.Time `json:"startedAt"`
	MemberCount        int       `json:"memberCount"`
	PendingCount       int       `json:"pendingCount"`
}

type StreamerRoom struct {
	Room          *Room  `json:"room"`
	SafetyWarning string `json:"safetyWarning,omitempty"`
}

type CreateRoomResult struct {
	Success bool `json:"success"`
	RoomId  int  `json:"roomId"`
	Room    Room `json:"room"`
}

type StartSessionResult struct {
	Success     bool   `json:"success"`
	SessionCode string `json:"sessionCode"`
}

type SettingsResult struct {
	Success bool   `json:"success"`
	Warning string `json:"warning,omitempty"`
}

type ToggleResult struct {
	Success  bool   `json:"success"`
	NewState string `json:"newState"`
}

type JoinInfo struct {
	Code               string `json:"code"`
	PassphraseRequired bool   `json:"passphraseRequired"`
	StreamerName       string `json:"streamerName"`
	Status             string `json:"status"`
}

type JoinResult struct {
	Success          bool   `json:"success"`
	RequiresApproval bool   `json:"requiresApproval"`
	AlreadyApproved  bool   `json:"alreadyApproved"`
	SessionCode      string `json:"sessionCode"`
	IsFirstVisit     bool   `json:"isFirstVisit,omitempty"`
}

type PendingUser struct {
	Id          int       `json:"id"`
	Name        string    `json:"name"`
	Nickname    string    `json:"nickname"`
	ExternalId  string    `json:"externalId"`
	RequestedAt time.Time `json:"requestedAt"`
	IsFirstTime bool      `json:"isFirstTime"`
}

type Participant struct {
	Id           int       `json:"id"`
	Name         string    `json:"name"`
	ExternalName string    `json:"externalName"`
	ExternalId   string    `json:"externalId"`
	Category     *string   `json:"category"`
	ShortText    *string   `json:"shortText"`
	IsCompleted  bool      `json:"isCompleted"`
	IsMuted      bool      `json:"isMuted"`
	JoinedAt     time.Time `json:"joinedAt"`
}

type ApprovalQueue struct {
	Pending      []PendingUser `json:"pending"`
	Participants []Participant `json:"participants"`
}

type MemberStatus struct {
	Category    *string `json:"category"`
	ShortText   *string `json:"shortText"`
	IsCompleted bool    `json:"isCompleted"`
	DisplayName string  `json:"displayName"`
}

type SessionView struct {
	Code               string         `json:"code"`
	PassphraseRequired bool           `json:"passphraseRequired"`
	Status             string         `json:"status"`
	StreamerName       string         `json:"streamerName"`
	RoomName           string         `json:"roomName"`
	Declaration        *string        `json:"declaration"`
	DisplayNameMode    string         `json:"displayNameMode"`
	ParticipantCount   int            `json:"participantCount"`
	PendingCount       int            `json:"pendingCount"`
	StartedAt          time.Time      `json:"startedAt"`
	UserApprovalStatus string         `json:"userApprovalStatus"`
	MyStatus           *MemberStatus  `json:"myStatus,omitempty"`
	SupportEvents      []SupportEvent `json:"supportEvents,omitempty"`
}

type Stamp struct {
	Id          string    `json:"id"`
	StampType   string    `json:"stampType"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}

type StampFeed struct {
	Stamps        []Stamp    `json:"stamps"`
	LastTimestamp *time.Time `json:"lastTimestamp"`
}

type SendStampResult struct {
	Success bool   `json:"success"`
	StampId string `json:"stampId"`
}

// BreakMessage deliberately has no author field.
type BreakMessage struct {
	Id        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type BreakFeed struct {
	Messages []BreakMessage `json:"messages"`
}

type SupportEvent struct {
	Id          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	Amount      int       `json:"amount"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"createdAt"`
}

type StampSummary struct {
	Type   string    `json:"type"`
	Count  int       `json:"count"`
	LastAt time.Time `json:"lastAt"`
}

type LatestSupport struct {
	Amount    int       `json:"amount"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

type Overlay struct {
	Code              string         `json:"code"`
	State             string         `json:"state"`
	StartedAt         time.Time      `json:"startedAt"`
	ElapsedSec        int64          `json:"elapsedSec"`
	ParticipantsCount int            `json:"participantsCount"`
	CompletedCount    int            `json:"completedCount"`
	PendingCount      int            `json:"pendingCount"`
	Stamps            []StampSummary `json:"stamps"`
	LatestSupport     *LatestSupport `json:"latestSupport"`
}
