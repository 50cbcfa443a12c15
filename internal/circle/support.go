package circle

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/npezzotti/wakuwork/internal/database"
	"github.com/npezzotti/wakuwork/internal/types"
)

const (
	maxSupportMessage = 100
	supportListLimit  = 10
)

// SendSupport records a one-way support pledge from a member.
func (s *Service) SendSupport(ctx context.Context, code string, userId, amount int, message string) (types.SupportEvent, error) {
	session, member, err := s.liveMember(ctx, code, userId)
	if err != nil {
		return types.SupportEvent{}, err
	}

	if amount <= 0 {
		return types.SupportEvent{}, ErrInvalidAmount
	}
	message = strings.TrimSpace(message)
	if utf8.RuneCountInString(message) > maxSupportMessage {
		return types.SupportEvent{}, ErrSupportTooLong
	}

	event := database.SupportEvent{
		Id:          s.newEventId(),
		SessionId:   session.Id,
		UserId:      userId,
		DisplayName: member.DisplayName,
		Amount:      amount,
		Message:     message,
		CreatedAt:   s.now(),
	}
	if err := s.db.CreateSupportEvent(ctx, event); err != nil {
		return types.SupportEvent{}, fmt.Errorf("create support event: %w", err)
	}

	return supportView(event), nil
}

// ListSupport returns the newest support events first.
func (s *Service) ListSupport(ctx context.Context, sessionId, limit int) ([]types.SupportEvent, error) {
	events, err := s.db.ListSupportEvents(ctx, sessionId, limit)
	if err != nil {
		return nil, fmt.Errorf("list support events: %w", err)
	}

	res := make([]types.SupportEvent, 0, len(events))
	for _, e := range events {
		res = append(res, supportView(e))
	}

	return res, nil
}

func supportView(e database.SupportEvent) types.SupportEvent {
	return types.SupportEvent{
		Id:          e.Id,
		DisplayName: e.DisplayName,
		Amount:      e.Amount,
		Message:     e.Message,
		CreatedAt:   e.CreatedAt,
	}
}
