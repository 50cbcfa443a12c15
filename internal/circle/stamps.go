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

const (
	stampWindow      = time.Minute
	stampCap         = 10
	minStampInterval = 2 * time.Second

	recentStampAge   = 10 * time.Second
	recentStampLimit = 50

	// StampRetention is how long stamps are kept before purging.
	StampRetention = time.Minute
)

var stampTypes = map[string]bool{
	"wave":   true,
	"like":   true,
	"alert":  true,
	"sleepy": true,
}

func ValidStampType(t string) bool {
	return stampTypes[t]
}

// SendStamp records a reaction and returns its id. The rate checks and the
// insert are not serialized, so bursts may slightly exceed the cap.
func (s *Service) SendStamp(ctx context.Context, code string, userId int, stampType string) (string, error) {
	if !ValidStampType(stampType) {
		return "", ErrInvalidStampType
	}

	session, member, err := s.liveMember(ctx, code, userId)
	if err != nil {
		return "", err
	}

	now := s.now()
	if isMuted(member, now) {
		return "", ErrMuted
	}

	activity, err := s.db.GetStampActivity(ctx, session.Id, userId, now.Add(-stampWindow))
	if err != nil {
		return "", fmt.Errorf("get stamp activity: %w", err)
	}
	if activity.Count >= stampCap {
		s.stats.Incr(stats.StampsThrottled)
		return "", ErrRateLimited
	}
	if activity.LatestAt != nil && now.Sub(*activity.LatestAt) < minStampInterval {
		s.stats.Incr(stats.StampsThrottled)
		return "", ErrTooFrequent
	}

	stamp := database.StampEvent{
		Id:        s.newEventId(),
		SessionId: session.Id,
		UserId:    userId,
		StampType: stampType,
		CreatedAt: now,
	}
	if err := s.db.CreateStamp(ctx, stamp); err != nil {
		return "", fmt.Errorf("create stamp: %w", err)
	}

	s.stats.Incr(stats.StampsSent)
	return stamp.Id, nil
}

// GetRecentStamps returns stamps newer than both the display window and the
// since cursor, oldest first. An unknown session yields an empty feed.
func (s *Service) GetRecentStamps(ctx context.Context, code string, userId int, since *time.Time) (types.StampFeed, error) {
	feed := types.StampFeed{Stamps: []types.Stamp{}}

	session, err := s.sessionByCode(ctx, code)
	if errors.Is(err, ErrSessionNotFound) {
		return feed, nil
	}
	if err != nil {
		return feed, err
	}

	if _, err := s.member(ctx, session.Id, userId); err != nil {
		return feed, err
	}

	after := s.now().Add(-recentStampAge)
	if since != nil && since.After(after) {
		after = *since
	}

	events, err := s.db.ListStampsAfter(ctx, session.Id, after, recentStampLimit)
	if err != nil {
		return feed, fmt.Errorf("list stamps: %w", err)
	}

	for _, e := range events {
		feed.Stamps = append(feed.Stamps, types.Stamp{
			Id:          e.Id,
			StampType:   e.StampType,
			DisplayName: e.DisplayName,
			CreatedAt:   e.CreatedAt,
		})
	}
	if n := len(feed.Stamps); n > 0 {
		feed.LastTimestamp = ptr(feed.Stamps[n-1].CreatedAt)
	}

	return feed, nil
}

// PurgeStamps deletes stamps created strictly before the cutoff.
func (s *Service) PurgeStamps(ctx context.Context, before time.Time) (int64, error) {
	n, err := s.db.DeleteStampsBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("delete stamps: %w", err)
	}

	if n > 0 {
		s.stats.Add(stats.StampsPurged, n)
	}
	return n, nil
}
