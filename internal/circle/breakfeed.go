package circle

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/npezzotti/wakuwork/internal/database"
	"github.com/npezzotti/wakuwork/internal/stats"
	"github.com/npezzotti/wakuwork/internal/types"
)

const (
	maxBreakMessage      = 30
	minBreakInterval     = 5 * time.Second
	breakMessageListSize = 20
)

func validateBreakMessage(content string) (string, error) {
	content = strings.TrimSpace(content)
	switch {
	case content == "":
		return "", ErrEmptyContent
	case utf8.RuneCountInString(content) > maxBreakMessage:
		return "", ErrContentTooLong
	case strings.ContainsAny(content, "\r\n"):
		return "", ErrNewlineNotAllowed
	}

	return content, nil
}

// PostBreakMessage adds a one-line message to the break feed. Messages are
// only accepted while the session is on break.
func (s *Service) PostBreakMessage(ctx context.Context, code string, userId int, content string) (types.BreakMessage, error) {
	session, err := s.sessionByCode(ctx, code)
	if err != nil {
		return types.BreakMessage{}, err
	}

	member, err := s.member(ctx, session.Id, userId)
	if err != nil {
		return types.BreakMessage{}, err
	}

	now := s.now()
	if isMuted(member, now) {
		return types.BreakMessage{}, ErrMuted
	}
	if session.State != database.StateBreak {
		return types.BreakMessage{}, ErrNotBreakTime
	}

	content, err = validateBreakMessage(content)
	if err != nil {
		return types.BreakMessage{}, err
	}

	last, err := s.db.GetLatestBreakMessageAt(ctx, session.Id, userId)
	switch {
	case errors.Is(err, database.ErrNotFound):
	case err != nil:
		return types.BreakMessage{}, fmt.Errorf("get latest break message: %w", err)
	case now.Sub(last) < minBreakInterval:
		return types.BreakMessage{}, ErrTooFrequent
	}

	msg := database.BreakMessage{
		Id:        s.newEventId(),
		SessionId: session.Id,
		AuthorId:  userId,
		Content:   content,
		CreatedAt: now,
	}
	if err := s.db.CreateBreakMessage(ctx, msg); err != nil {
		return types.BreakMessage{}, fmt.Errorf("create break message: %w", err)
	}

	s.stats.Incr(stats.BreakMessages)
	return types.BreakMessage{Id: msg.Id, Content: msg.Content, CreatedAt: msg.CreatedAt}, nil
}

// GetBreakMessages returns the latest messages in chronological order, or
// nothing when the session is not on break.
func (s *Service) GetBreakMessages(ctx context.Context, code string, userId int) ([]types.BreakMessage, error) {
	session, err := s.sessionByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if _, err := s.member(ctx, session.Id, userId); err != nil {
		return nil, err
	}

	res := []types.BreakMessage{}
	if session.State != database.StateBreak {
		return res, nil
	}

	messages, err := s.db.ListBreakMessages(ctx, session.Id, breakMessageListSize)
	if err != nil {
		return nil, fmt.Errorf("list break messages: %w", err)
	}

	for _, m := range messages {
		res = append(res, types.BreakMessage{Id: m.Id, Content: m.Content, CreatedAt: m.CreatedAt})
	}
	slices.Reverse(res)

	return res, nil
}
