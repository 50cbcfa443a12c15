// Package circle holds the co-working session rules: rooms and sessions,
// join admission, membership, stamps, break messages, support events and the
// overlay projection. It talks to storage only through
// database.WakuworkRepository.
package circle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/npezzotti/wakuwork/internal/database"
	"github.com/npezzotti/wakuwork/internal/stats"
	"github.com/oklog/ulid/v2"
	"github.com/teris-io/shortid"
	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	log   *log.Logger
	db    database.WakuworkRepository
	stats stats.StatsProvider

	clock      func() time.Time
	newCode    func() string
	newRoomId  func() (string, error)
	newEventId func() string
	hashCost   int
}

func NewService(logger *log.Logger, db database.WakuworkRepository, statsProvider stats.StatsProvider) *Service {
	return &Service{
		log:        logger,
		db:         db,
		stats:      statsProvider,
		clock:      time.Now,
		newCode:    GenerateSessionCode,
		newRoomId:  shortid.Generate,
		newEventId: func() string { return ulid.Make().String() },
		hashCost:   bcrypt.DefaultCost,
	}
}

// SetPassphraseCost overrides the bcrypt cost used for session passphrases.
func (s *Service) SetPassphraseCost(cost int) {
	s.hashCost = cost
}

// now is truncated to microseconds so stored timestamps compare equal to the
// values handed out as polling cursors.
func (s *Service) now() time.Time {
	return s.clock().UTC().Truncate(time.Microsecond)
}

// NormalizeCode trims and upper-cases a user-typed session code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *Service) sessionByCode(ctx context.Context, code string) (database.Session, error) {
	code = NormalizeCode(code)
	if code == "" {
		return database.Session{}, ErrSessionNotFound
	}

	session, err := s.db.GetSessionByCode(ctx, code)
	if errors.Is(err, database.ErrNotFound) {
		return database.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return database.Session{}, fmt.Errorf("get session %q: %w", code, err)
	}

	return session, nil
}

// ownedSession loads a session and checks that actorId owns its room.
func (s *Service) ownedSession(ctx context.Context, code string, actorId int) (database.Session, error) {
	session, err := s.sessionByCode(ctx, code)
	if err != nil {
		return database.Session{}, err
	}
	if session.Room.OwnerId != actorId {
		return database.Session{}, ErrNotRoomOwner
	}

	return session, nil
}

// liveMember loads the caller's membership in a session that has not ended.
func (s *Service) liveMember(ctx context.Context, code string, userId int) (database.Session, database.Member, error) {
	session, err := s.sessionByCode(ctx, code)
	if err != nil {
		return database.Session{}, database.Member{}, err
	}
	if session.State == database.StateEnded {
		return database.Session{}, database.Member{}, ErrAlreadyEnded
	}

	member, err := s.member(ctx, session.Id, userId)
	if err != nil {
		return database.Session{}, database.Member{}, err
	}

	return session, member, nil
}

func (s *Service) member(ctx context.Context, sessionId, userId int) (database.Member, error) {
	member, err := s.db.GetMember(ctx, sessionId, userId)
	if errors.Is(err, database.ErrNotFound) {
		return database.Member{}, ErrNotAMember
	}
	if err != nil {
		return database.Member{}, fmt.Errorf("get member: %w", err)
	}

	return member, nil
}

func isMuted(m database.Member, now time.Time) bool {
	return m.IsMuted && (m.MuteExpiresAt == nil || m.MuteExpiresAt.After(now))
}

func ptr[T any](v T) *T {
	return &v
}
