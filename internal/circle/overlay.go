package circle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/npezzotti/wakuwork/internal/database"
	"github.com/npezzotti/wakuwork/internal/types"
)

const overlayStampWindow = time.Minute

// GetOverlay builds the public stream overlay for a session. Malformed codes
// are rejected before any query runs.
func (s *Service) GetOverlay(ctx context.Context, rawCode string) (types.Overlay, error) {
	code := NormalizeCode(rawCode)
	if !ValidCode(code) {
		return types.Overlay{}, ErrSessionNotFound
	}

	session, err := s.sessionByCode(ctx, code)
	if err != nil {
		return types.Overlay{}, err
	}

	counts, err := s.db.GetSessionCounts(ctx, session.Id)
	if err != nil {
		return types.Overlay{}, fmt.Errorf("get session counts: %w", err)
	}

	now := s.now()
	stampCounts, err := s.db.CountStampsByType(ctx, session.Id, now.Add(-overlayStampWindow))
	if err != nil {
		return types.Overlay{}, fmt.Errorf("count stamps: %w", err)
	}

	end := now
	if session.State == database.StateEnded && session.EndedAt != nil {
		end = *session.EndedAt
	}
	elapsed := int64(end.Sub(session.StartedAt).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}

	overlay := types.Overlay{
		Code:              session.Code,
		State:             string(session.State),
		StartedAt:         session.StartedAt,
		ElapsedSec:        elapsed,
		ParticipantsCount: counts.Members,
		CompletedCount:    counts.Completed,
		PendingCount:      counts.Pending,
		Stamps:            make([]types.StampSummary, 0, len(stampCounts)),
	}
	for _, c := range stampCounts {
		overlay.Stamps = append(overlay.Stamps, types.StampSummary{Type: c.StampType, Count: c.Count, LastAt: c.LatestAt})
	}

	latest, err := s.db.GetLatestSupportEvent(ctx, session.Id)
	switch {
	case errors.Is(err, database.ErrNotFound):
	case err != nil:
		return types.Overlay{}, fmt.Errorf("get latest support: %w", err)
	default:
		overlay.LatestSupport = &types.LatestSupport{
			Amount:    latest.Amount,
			Message:   latest.Message,
			CreatedAt: latest.CreatedAt,
		}
	}

	return overlay, nil
}
