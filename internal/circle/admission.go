package circle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/npezzotti/wakuwork/internal/database"
	"github.com/npezzotti/wakuwork/internal/stats"
	"github.com/npezzotti/wakuwork/internal/types"
)

const maxJoinAttempts = 3

const (
	ApprovalMember   = "member"
	ApprovalApproved = "approved"
	ApprovalPending  = "pending"
	ApprovalRejected = "rejected"
	ApprovalNone     = "none"
)

// ProcessJoinRequest admits a user to a session, queues them for approval,
// or reports the outcome of an earlier request.
func (s *Service) ProcessJoinRequest(ctx context.Context, code string, userId int, passphrase string) (types.JoinResult, error) {
	session, err := s.sessionByCode(ctx, code)
	if err != nil {
		return types.JoinResult{}, err
	}
	if session.State == database.StateEnded {
		return types.JoinResult{}, ErrAlreadyEnded
	}

	if session.PassphraseRequired {
		if session.PassphraseHash == "" {
			return types.JoinResult{}, ErrPassphraseNotSet
		}
		if !passphraseMatches(session.PassphraseHash, passphrase) {
			return types.JoinResult{}, ErrWrongPassphrase
		}
	}

	s.stats.Incr(stats.JoinRequests)

	for attempt := 0; attempt < maxJoinAttempts; attempt++ {
		res, done, err := s.priorAdmission(ctx, session, userId)
		if err != nil || done {
			return res, err
		}

		res, err = s.createJoinRequest(ctx, session, userId)
		if errors.Is(err, database.ErrUniqueViolation) {
			// another request for the same user landed first
			continue
		}

		return res, err
	}

	s.log.Printf("join %s: user %d lost %d races", session.Code, userId, maxJoinAttempts)
	return types.JoinResult{}, ErrJoinContention
}

// priorAdmission answers from existing membership or request rows. done is
// false when the user has never asked to join.
func (s *Service) priorAdmission(ctx context.Context, session database.Session, userId int) (types.JoinResult, bool, error) {
	approved := types.JoinResult{Success: true, AlreadyApproved: true, SessionCode: session.Code}

	_, err := s.db.GetMember(ctx, session.Id, userId)
	if err == nil {
		return approved, true, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return types.JoinResult{}, true, fmt.Errorf("get member: %w", err)
	}

	jr, err := s.db.GetJoinRequest(ctx, session.Id, userId)
	if errors.Is(err, database.ErrNotFound) {
		return types.JoinResult{}, false, nil
	}
	if err != nil {
		return types.JoinResult{}, true, fmt.Errorf("get join request: %w", err)
	}

	switch jr.Status {
	case database.StatusApproved:
		return approved, true, nil
	case database.StatusPending:
		return types.JoinResult{
			Success:          true,
			RequiresApproval: true,
			SessionCode:      session.Code,
			IsFirstVisit:     jr.IsFirstVisit,
		}, true, nil
	default:
		return types.JoinResult{}, true, ErrJoinRejected
	}
}

func (s *Service) createJoinRequest(ctx context.Context, session database.Session, userId int) (types.JoinResult, error) {
	visits, err := s.db.CountRoomMemberships(ctx, session.RoomId, userId)
	if err != nil {
		return types.JoinResult{}, fmt.Errorf("count room memberships: %w", err)
	}
	firstVisit := visits == 0
	autoApprove := !session.Room.ApprovalRequired && !firstVisit

	now := s.now()
	params := database.CreateJoinRequestParams{
		SessionId:    session.Id,
		UserId:       userId,
		Status:       database.StatusPending,
		IsFirstVisit: firstVisit,
		RequestedAt:  now,
	}

	if autoApprove {
		member, err := s.newMemberParams(ctx, session, userId, now)
		if err != nil {
			return types.JoinResult{}, err
		}
		params.Status = database.StatusApproved
		params.ResolvedAt = &now
		params.Member = &member
	}

	if _, err := s.db.CreateJoinRequest(ctx, params); err != nil {
		if errors.Is(err, database.ErrUniqueViolation) {
			return types.JoinResult{}, err
		}
		return types.JoinResult{}, fmt.Errorf("create join request: %w", err)
	}

	if autoApprove {
		s.stats.Incr(stats.AutoApprovals)
		return types.JoinResult{Success: true, AlreadyApproved: true, SessionCode: session.Code}, nil
	}

	return types.JoinResult{
		Success:          true,
		RequiresApproval: true,
		SessionCode:      session.Code,
		IsFirstVisit:     firstVisit,
	}, nil
}

// newMemberParams fixes the member's display name under the room's naming
// policy at the moment of admission.
func (s *Service) newMemberParams(ctx context.Context, session database.Session, userId int, now time.Time) (database.CreateMemberParams, error) {
	user, err := s.db.GetUserById(ctx, userId)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return database.CreateMemberParams{}, fmt.Errorf("get user %d: %w", userId, err)
	}

	var count int
	if session.Room.DisplayNameMode == database.ModeAnonymous {
		count, err = s.db.CountMembers(ctx, session.Id)
		if err != nil {
			return database.CreateMemberParams{}, fmt.Errorf("count members: %w", err)
		}
	}

	return database.CreateMemberParams{
		SessionId:   session.Id,
		UserId:      userId,
		DisplayName: DisplayName(session.Room.DisplayNameMode, user, userId, session.Id, count),
		JoinedAt:    now,
	}, nil
}

func (s *Service) ApproveJoinRequest(ctx context.Context, code string, targetUserId, actorId int) error {
	session, err := s.pendingRequest(ctx, code, targetUserId, actorId)
	if err != nil {
		return err
	}

	now := s.now()
	member, err := s.newMemberParams(ctx, session, targetUserId, now)
	if err != nil {
		return err
	}

	err = s.db.ResolveJoinRequest(ctx, database.ResolveJoinRequestParams{
		SessionId:  session.Id,
		UserId:     targetUserId,
		Status:     database.StatusApproved,
		ResolvedAt: now,
		Member:     &member,
	})
	if errors.Is(err, database.ErrNotFound) {
		return ErrRequestNotFound
	}
	if err != nil {
		return fmt.Errorf("approve user %d in %s: %w", targetUserId, session.Code, err)
	}

	s.stats.Incr(stats.Approvals)
	return nil
}

func (s *Service) RejectJoinRequest(ctx context.Context, code string, targetUserId, actorId int) error {
	session, err := s.pendingRequest(ctx, code, targetUserId, actorId)
	if err != nil {
		return err
	}

	err = s.db.ResolveJoinRequest(ctx, database.ResolveJoinRequestParams{
		SessionId:  session.Id,
		UserId:     targetUserId,
		Status:     database.StatusRejected,
		ResolvedAt: s.now(),
	})
	if errors.Is(err, database.ErrNotFound) {
		return ErrRequestNotFound
	}
	if err != nil {
		return fmt.Errorf("reject user %d in %s: %w", targetUserId, session.Code, err)
	}

	s.stats.Incr(stats.Rejections)
	return nil
}

func (s *Service) pendingRequest(ctx context.Context, code string, targetUserId, actorId int) (database.Session, error) {
	session, err := s.ownedSession(ctx, code, actorId)
	if err != nil {
		return database.Session{}, err
	}

	jr, err := s.db.GetJoinRequest(ctx, session.Id, targetUserId)
	if errors.Is(err, database.ErrNotFound) {
		return database.Session{}, ErrRequestNotFound
	}
	if err != nil {
		return database.Session{}, fmt.Errorf("get join request: %w", err)
	}
	if jr.Status != database.StatusPending {
		return database.Session{}, ErrRequestNotFound
	}

	return session, nil
}

// approvalStatus also returns the membership row when the user is a member.
func (s *Service) approvalStatus(ctx context.Context, sessionId, userId int) (string, *database.Member, error) {
	member, err := s.db.GetMember(ctx, sessionId, userId)
	if err == nil {
		return ApprovalMember, &member, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return "", nil, fmt.Errorf("get member: %w", err)
	}

	jr, err := s.db.GetJoinRequest(ctx, sessionId, userId)
	if errors.Is(err, database.ErrNotFound) {
		return ApprovalNone, nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("get join request: %w", err)
	}

	return string(jr.Status), nil, nil
}

func (s *Service) GetUserApprovalStatus(ctx context.Context, code string, userId int) (string, error) {
	session, err := s.sessionByCode(ctx, code)
	if err != nil {
		return "", err
	}

	status, _, err := s.approvalStatus(ctx, session.Id, userId)
	return status, err
}
