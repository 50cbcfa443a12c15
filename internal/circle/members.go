package circle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/npezzotti/wakuwork/internal/database"
	"github.com/npezzotti/wakuwork/internal/types"
)

const maxShortText = 50

var categories = map[string]bool{
	"practice": true,
	"study":    true,
	"create":   true,
	"work":     true,
	"break":    true,
	"other":    true,
}

type MemberStatusUpdate struct {
	Category    *string
	ShortText   *string
	IsCompleted *bool
}

func memberStatusView(m database.Member) *types.MemberStatus {
	return &types.MemberStatus{
		Category:    m.Category,
		ShortText:   m.ShortText,
		IsCompleted: m.IsCompleted,
		DisplayName: m.DisplayName,
	}
}

// UpdateMemberStatus applies the non-nil fields of update to the caller's
// membership. An empty update succeeds without writing.
func (s *Service) UpdateMemberStatus(ctx context.Context, code string, userId int, update MemberStatusUpdate) error {
	session, _, err := s.liveMember(ctx, code, userId)
	if err != nil {
		return err
	}

	params := database.UpdateMemberStatusParams{
		SessionId:   session.Id,
		UserId:      userId,
		IsCompleted: update.IsCompleted,
	}

	if update.Category != nil {
		category := strings.ToLower(strings.TrimSpace(*update.Category))
		if !categories[category] {
			return ErrInvalidCategory
		}
		params.Category = &category
	}

	if update.ShortText != nil {
		text := strings.TrimSpace(*update.ShortText)
		if utf8.RuneCountInString(text) > maxShortText {
			return ErrShortTextTooLong
		}
		params.ShortText = &text
	}

	if params.Category == nil && params.ShortText == nil && params.IsCompleted == nil {
		return nil
	}

	err = s.db.UpdateMemberStatus(ctx, params)
	if errors.Is(err, database.ErrNotFound) {
		return ErrNotAMember
	}
	if err != nil {
		return fmt.Errorf("update member status: %w", err)
	}

	return nil
}

func (s *Service) GetMemberStatus(ctx context.Context, code string, userId int) (types.MemberStatus, error) {
	session, err := s.sessionByCode(ctx, code)
	if err != nil {
		return types.MemberStatus{}, err
	}

	member, err := s.member(ctx, session.Id, userId)
	if err != nil {
		return types.MemberStatus{}, err
	}

	return *memberStatusView(member), nil
}

// GetSessionParticipants lists members in join order.
func (s *Service) GetSessionParticipants(ctx context.Context, code string) ([]types.Participant, error) {
	session, err := s.sessionByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	return s.participants(ctx, session.Id)
}

func (s *Service) participants(ctx context.Context, sessionId int) ([]types.Participant, error) {
	members, err := s.db.ListMembers(ctx, sessionId)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	now := s.now()
	res := make([]types.Participant, 0, len(members))
	for _, m := range members {
		res = append(res, types.Participant{
			Id:           m.UserId,
			Name:         m.DisplayName,
			ExternalName: m.User.DisplayName,
			ExternalId:   m.User.ExternalId,
			Category:     m.Category,
			ShortText:    m.ShortText,
			IsCompleted:  m.IsCompleted,
			IsMuted:      isMuted(m, now),
			JoinedAt:     m.JoinedAt,
		})
	}

	return res, nil
}

// GetPendingUsers lists open join requests in request order.
func (s *Service) GetPendingUsers(ctx context.Context, code string) ([]types.PendingUser, error) {
	session, err := s.sessionByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	return s.pendingUsers(ctx, session.Id)
}

func (s *Service) pendingUsers(ctx context.Context, sessionId int) ([]types.PendingUser, error) {
	requests, err := s.db.ListPendingRequests(ctx, sessionId)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}

	res := make([]types.PendingUser, 0, len(requests))
	for _, jr := range requests {
		res = append(res, types.PendingUser{
			Id:          jr.UserId,
			Name:        jr.User.DisplayName,
			Nickname:    jr.User.Nickname,
			ExternalId:  jr.User.ExternalId,
			RequestedAt: jr.RequestedAt,
			IsFirstTime: jr.IsFirstVisit,
		})
	}

	return res, nil
}

// GetApprovalQueue is the streamer's dashboard view of one session.
func (s *Service) GetApprovalQueue(ctx context.Context, ownerId int, code string) (types.ApprovalQueue, error) {
	session, err := s.ownedSession(ctx, code, ownerId)
	if err != nil {
		return types.ApprovalQueue{}, err
	}

	pending, err := s.pendingUsers(ctx, session.Id)
	if err != nil {
		return types.ApprovalQueue{}, err
	}

	participants, err := s.participants(ctx, session.Id)
	if err != nil {
		return types.ApprovalQueue{}, err
	}

	return types.ApprovalQueue{Pending: pending, Participants: participants}, nil
}

// MuteMember silences a member's stamps and break messages. A zero duration
// mutes until UnmuteMember is called.
func (s *Service) MuteMember(ctx context.Context, ownerId int, code string, targetUserId int, duration time.Duration) error {
	if duration < 0 {
		return ErrInvalidMuteDuration
	}

	params := database.SetMemberMuteParams{IsMuted: true, UserId: targetUserId}
	if duration > 0 {
		params.MuteExpiresAt = ptr(s.now().Add(duration))
	}

	return s.setMute(ctx, ownerId, code, params)
}

func (s *Service) UnmuteMember(ctx context.Context, ownerId int, code string, targetUserId int) error {
	return s.setMute(ctx, ownerId, code, database.SetMemberMuteParams{UserId: targetUserId})
}

func (s *Service) setMute(ctx context.Context, ownerId int, code string, params database.SetMemberMuteParams) error {
	session, err := s.ownedSession(ctx, code, ownerId)
	if err != nil {
		return err
	}
	params.SessionId = session.Id

	err = s.db.SetMemberMute(ctx, params)
	if errors.Is(err, database.ErrNotFound) {
		return ErrMemberNotFound
	}
	if err != nil {
		return fmt.Errorf("set mute for user %d: %w", params.UserId, err)
	}

	s.log.Printf("session %s: user %d muted=%t", session.Code, params.UserId, params.IsMuted)
	return nil
}
