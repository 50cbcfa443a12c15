package testutil

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/npezzotti/wakuwork/internal/database"
)

type Presence struct {
	SessionId int
	UserId    int
	CreatedAt time.Time
}

// MemRepository is an in-memory database.WakuworkRepository. It enforces the
// same unique keys and guarded updates as the Postgres schema.
type MemRepository struct {
	mu       sync.Mutex
	nextId   int
	users    map[int]database.User
	rooms    map[int]database.Room
	sessions map[int]database.Session
	requests []database.JoinRequest
	members  []database.Member
	presence []Presence
	stamps   []database.StampEvent
	breaks   []database.BreakMessage
	supports []database.SupportEvent

	// BeforeCreateJoinRequest runs before the request insert, outside the lock.
	BeforeCreateJoinRequest func(params database.CreateJoinRequestParams)
}

var _ database.WakuworkRepository = (*MemRepository)(nil)

func NewMemRepository() *MemRepository {
	return &MemRepository{
		users:    make(map[int]database.User),
		rooms:    make(map[int]database.Room),
		sessions: make(map[int]database.Session),
	}
}

func (r *MemRepository) id() int {
	r.nextId++
	return r.nextId
}

func (r *MemRepository) Ping(ctx context.Context) error {
	return nil
}

func (r *MemRepository) UpsertUser(ctx context.Context, params database.UpsertUserParams) (database.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, u := range r.users {
		if u.ExternalId == params.ExternalId {
			u.DisplayName = params.DisplayName
			u.UpdatedAt = params.Now
			r.users[id] = u
			return u, nil
		}
	}

	u := database.User{
		Id:          r.id(),
		ExternalId:  params.ExternalId,
		DisplayName: params.DisplayName,
		Nickname:    params.DisplayName,
		CreatedAt:   params.Now,
		UpdatedAt:   params.Now,
	}
	r.users[u.Id] = u
	return u, nil
}

// SetNickname changes a stored user's nickname.
func (r *MemRepository) SetNickname(userId int, nickname string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.users[userId]
	u.Nickname = nickname
	r.users[userId] = u
}

func (r *MemRepository) GetUserById(ctx context.Context, userId int) (database.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userId]
	if !ok {
		return database.User{}, database.ErrNotFound
	}
	return u, nil
}

func (r *MemRepository) roomLocked(id int) (database.Room, bool) {
	room, ok := r.rooms[id]
	if ok {
		room.OwnerName = r.users[room.OwnerId].DisplayName
	}
	return room, ok
}

func (r *MemRepository) CreateRoom(ctx context.Context, params database.CreateRoomParams) (database.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, room := range r.rooms {
		if room.ExternalId == params.ExternalId {
			return database.Room{}, database.ErrUniqueViolation
		}
	}

	room := database.Room{
		Id:               r.id(),
		ExternalId:       params.ExternalId,
		OwnerId:          params.OwnerId,
		Name:             params.Name,
		DisplayNameMode:  params.DisplayNameMode,
		ApprovalRequired: params.ApprovalRequired,
		CreatedAt:        params.Now,
		UpdatedAt:        params.Now,
	}
	r.rooms[room.Id] = room
	room, _ = r.roomLocked(room.Id)
	return room, nil
}

func (r *MemRepository) GetRoomById(ctx context.Context, roomId int) (database.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.roomLocked(roomId)
	if !ok {
		return database.Room{}, database.ErrNotFound
	}
	return room, nil
}

func (r *MemRepository) GetRoomByOwnerId(ctx context.Context, ownerId int) (database.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	best := 0
	for id, room := range r.rooms {
		if room.OwnerId == ownerId && (best == 0 || id < best) {
			best = id
		}
	}
	if best == 0 {
		return database.Room{}, database.ErrNotFound
	}

	room, _ := r.roomLocked(best)
	return room, nil
}

func (r *MemRepository) UpdateRoomSettings(ctx context.Context, params database.UpdateRoomSettingsParams) (database.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[params.RoomId]
	if !ok {
		return database.Room{}, database.ErrNotFound
	}
	if params.DisplayNameMode != nil {
		room.DisplayNameMode = *params.DisplayNameMode
	}
	if params.ApprovalRequired != nil {
		room.ApprovalRequired = *params.ApprovalRequired
	}
	room.UpdatedAt = params.Now
	r.rooms[room.Id] = room

	room, _ = r.roomLocked(room.Id)
	return room, nil
}

func (r *MemRepository) sessionLocked(id int) (database.Session, bool) {
	s, ok := r.sessions[id]
	if ok {
		s.Room, _ = r.roomLocked(s.RoomId)
	}
	return s, ok
}

func (r *MemRepository) CreateSession(ctx context.Context, params database.CreateSessionParams) (database.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.sessions {
		if s.Code == params.Code {
			return database.Session{}, database.ErrUniqueViolation
		}
	}

	for id, s := range r.sessions {
		if s.RoomId == params.RoomId && s.State != database.StateEnded {
			endedAt := params.StartedAt
			s.State = database.StateEnded
			s.EndedAt = &endedAt
			r.sessions[id] = s
		}
	}

	s := database.Session{
		Id:                 r.id(),
		RoomId:             params.RoomId,
		Code:               params.Code,
		PassphraseHash:     params.PassphraseHash,
		PassphraseRequired: params.PassphraseRequired,
		State:              database.StateWorking,
		Declaration:        params.Declaration,
		StartedAt:          params.StartedAt,
	}
	r.sessions[s.Id] = s

	s, _ = r.sessionLocked(s.Id)
	return s, nil
}

func (r *MemRepository) GetSessionByCode(ctx context.Context, code string) (database.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, s := range r.sessions {
		if s.Code == code {
			s, _ = r.sessionLocked(id)
			return s, nil
		}
	}
	return database.Session{}, database.ErrNotFound
}

func (r *MemRepository) GetActiveSession(ctx context.Context, roomId int) (database.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		found  database.Session
		exists bool
	)
	for _, s := range r.sessions {
		if s.RoomId != roomId || s.State == database.StateEnded {
			continue
		}
		if !exists || s.StartedAt.After(found.StartedAt) {
			found, exists = s, true
		}
	}
	if !exists {
		return database.Session{}, database.ErrNotFound
	}

	found, _ = r.sessionLocked(found.Id)
	return found, nil
}

func (r *MemRepository) UpdateSession(ctx context.Context, params database.UpdateSessionParams) (database.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[params.SessionId]
	if !ok || s.State == database.StateEnded {
		return database.Session{}, database.ErrNotFound
	}
	if params.PassphraseHash != nil {
		s.PassphraseHash = *params.PassphraseHash
	}
	if params.PassphraseRequired != nil {
		s.PassphraseRequired = *params.PassphraseRequired
	}
	if params.Declaration != nil {
		s.Declaration = params.Declaration
	}
	if params.State != nil {
		s.State = *params.State
	}
	r.sessions[s.Id] = s

	if params.ApprovalRequired != nil {
		room := r.rooms[params.RoomId]
		room.ApprovalRequired = *params.ApprovalRequired
		room.UpdatedAt = params.Now
		r.rooms[room.Id] = room
	}

	s, _ = r.sessionLocked(s.Id)
	return s, nil
}

func (r *MemRepository) ToggleSessionState(ctx context.Context, sessionId int) (database.SessionState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionId]
	if !ok || s.State == database.StateEnded {
		return "", database.ErrNotFound
	}
	if s.State == database.StateWorking {
		s.State = database.StateBreak
	} else {
		s.State = database.StateWorking
	}
	r.sessions[s.Id] = s
	return s.State, nil
}

func (r *MemRepository) EndSession(ctx context.Context, sessionId int, endedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionId]
	if !ok || s.State == database.StateEnded {
		return database.ErrNotFound
	}
	s.State = database.StateEnded
	s.EndedAt = &endedAt
	r.sessions[s.Id] = s
	return nil
}

func (r *MemRepository) GetSessionCounts(ctx context.Context, sessionId int) (database.SessionCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var c database.SessionCounts
	for _, m := range r.members {
		if m.SessionId == sessionId {
			c.Members++
			if m.IsCompleted {
				c.Completed++
			}
		}
	}
	for _, jr := range r.requests {
		if jr.SessionId == sessionId && jr.Status == database.StatusPending {
			c.Pending++
		}
	}
	return c, nil
}

func (r *MemRepository) memberIndex(sessionId, userId int) int {
	return slices.IndexFunc(r.members, func(m database.Member) bool {
		return m.SessionId == sessionId && m.UserId == userId
	})
}

func (r *MemRepository) GetMember(ctx context.Context, sessionId, userId int) (database.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.memberIndex(sessionId, userId)
	if i < 0 {
		return database.Member{}, database.ErrNotFound
	}
	return r.members[i], nil
}

func (r *MemRepository) CountMembers(ctx context.Context, sessionId int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, m := range r.members {
		if m.SessionId == sessionId {
			n++
		}
	}
	return n, nil
}

func (r *MemRepository) CountRoomMemberships(ctx context.Context, roomId, userId int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, m := range r.members {
		if m.UserId == userId && r.sessions[m.SessionId].RoomId == roomId {
			n++
		}
	}
	return n, nil
}

func (r *MemRepository) ListMembers(ctx context.Context, sessionId int) ([]database.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := make([]database.Member, 0)
	for _, m := range r.members {
		if m.SessionId == sessionId {
			m.User = r.users[m.UserId]
			res = append(res, m)
		}
	}
	slices.SortStableFunc(res, func(a, b database.Member) int {
		return cmp.Or(a.JoinedAt.Compare(b.JoinedAt), cmp.Compare(a.Id, b.Id))
	})
	return res, nil
}

func (r *MemRepository) UpdateMemberStatus(ctx context.Context, params database.UpdateMemberStatusParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.memberIndex(params.SessionId, params.UserId)
	if i < 0 {
		return database.ErrNotFound
	}
	if params.Category != nil {
		r.members[i].Category = params.Category
	}
	if params.ShortText != nil {
		r.members[i].ShortText = params.ShortText
	}
	if params.IsCompleted != nil {
		r.members[i].IsCompleted = *params.IsCompleted
	}
	return nil
}

func (r *MemRepository) SetMemberMute(ctx context.Context, params database.SetMemberMuteParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.memberIndex(params.SessionId, params.UserId)
	if i < 0 {
		return database.ErrNotFound
	}
	r.members[i].IsMuted = params.IsMuted
	r.members[i].MuteExpiresAt = params.MuteExpiresAt
	return nil
}

func (r *MemRepository) requestIndex(sessionId, userId int) int {
	return slices.IndexFunc(r.requests, func(jr database.JoinRequest) bool {
		return jr.SessionId == sessionId && jr.UserId == userId
	})
}

func (r *MemRepository) GetJoinRequest(ctx context.Context, sessionId, userId int) (database.JoinRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.requestIndex(sessionId, userId)
	if i < 0 {
		return database.JoinRequest{}, database.ErrNotFound
	}
	return r.requests[i], nil
}

func (r *MemRepository) insertMemberLocked(params database.CreateMemberParams) {
	if r.memberIndex(params.SessionId, params.UserId) >= 0 {
		return
	}
	r.members = append(r.members, database.Member{
		Id:          r.id(),
		SessionId:   params.SessionId,
		UserId:      params.UserId,
		DisplayName: params.DisplayName,
		JoinedAt:    params.JoinedAt,
	})
	r.presence = append(r.presence, Presence{SessionId: params.SessionId, UserId: params.UserId, CreatedAt: params.JoinedAt})
}

func (r *MemRepository) CreateJoinRequest(ctx context.Context, params database.CreateJoinRequestParams) (database.JoinRequest, error) {
	if r.BeforeCreateJoinRequest != nil {
		r.BeforeCreateJoinRequest(params)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.requestIndex(params.SessionId, params.UserId) >= 0 {
		return database.JoinRequest{}, database.ErrUniqueViolation
	}

	jr := database.JoinRequest{
		Id:           r.id(),
		SessionId:    params.SessionId,
		UserId:       params.UserId,
		Status:       params.Status,
		IsFirstVisit: params.IsFirstVisit,
		RequestedAt:  params.RequestedAt,
		ResolvedAt:   params.ResolvedAt,
	}
	r.requests = append(r.requests, jr)
	if params.Member != nil {
		r.insertMemberLocked(*params.Member)
	}
	return jr, nil
}

func (r *MemRepository) ResolveJoinRequest(ctx context.Context, params database.ResolveJoinRequestParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.requestIndex(params.SessionId, params.UserId)
	if i < 0 || r.requests[i].Status != database.StatusPending {
		return database.ErrNotFound
	}
	resolvedAt := params.ResolvedAt
	r.requests[i].Status = params.Status
	r.requests[i].ResolvedAt = &resolvedAt
	if params.Member != nil {
		r.insertMemberLocked(*params.Member)
	}
	return nil
}

func (r *MemRepository) ListPendingRequests(ctx context.Context, sessionId int) ([]database.JoinRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := make([]database.JoinRequest, 0)
	for _, jr := range r.requests {
		if jr.SessionId == sessionId && jr.Status == database.StatusPending {
			jr.User = r.users[jr.UserId]
			res = append(res, jr)
		}
	}
	slices.SortStableFunc(res, func(a, b database.JoinRequest) int {
		return cmp.Or(a.RequestedAt.Compare(b.RequestedAt), cmp.Compare(a.Id, b.Id))
	})
	return res, nil
}

// Presence returns a copy of the recorded presence rows.
func (r *MemRepository) Presence() []Presence {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.presence)
}

func (r *MemRepository) CreateStamp(ctx context.Context, stamp database.StampEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stamps = append(r.stamps, stamp)
	return nil
}

func (r *MemRepository) GetStampActivity(ctx context.Context, sessionId, userId int, since time.Time) (database.StampActivity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var a database.StampActivity
	for _, s := range r.stamps {
		if s.SessionId != sessionId || s.UserId != userId || s.CreatedAt.Before(since) {
			continue
		}
		a.Count++
		if a.LatestAt == nil || s.CreatedAt.After(*a.LatestAt) {
			t := s.CreatedAt
			a.LatestAt = &t
		}
	}
	return a, nil
}

func (r *MemRepository) ListStampsAfter(ctx context.Context, sessionId int, after time.Time, limit int) ([]database.StampEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := make([]database.StampEvent, 0)
	for _, s := range r.stamps {
		if s.SessionId != sessionId || !s.CreatedAt.After(after) {
			continue
		}
		s.DisplayName = "Unknown"
		if i := r.memberIndex(s.SessionId, s.UserId); i >= 0 {
			s.DisplayName = r.members[i].DisplayName
		}
		res = append(res, s)
	}
	slices.SortStableFunc(res, func(a, b database.StampEvent) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.Id, b.Id))
	})
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (r *MemRepository) CountStampsByType(ctx context.Context, sessionId int, since time.Time) ([]database.StampCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byType := make(map[string]database.StampCount)
	for _, s := range r.stamps {
		if s.SessionId != sessionId || s.CreatedAt.Before(since) {
			continue
		}
		c := byType[s.StampType]
		c.StampType = s.StampType
		c.Count++
		if s.CreatedAt.After(c.LatestAt) {
			c.LatestAt = s.CreatedAt
		}
		byType[s.StampType] = c
	}

	res := make([]database.StampCount, 0, len(byType))
	for _, c := range byType {
		res = append(res, c)
	}
	slices.SortFunc(res, func(a, b database.StampCount) int {
		return cmp.Compare(a.StampType, b.StampType)
	})
	return res, nil
}

func (r *MemRepository) DeleteStampsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := len(r.stamps)
	r.stamps = slices.DeleteFunc(r.stamps, func(s database.StampEvent) bool {
		return s.CreatedAt.Before(cutoff)
	})
	return int64(before - len(r.stamps)), nil
}

// StampCount returns the number of stored stamps.
func (r *MemRepository) StampCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.stamps)
}

func (r *MemRepository) CreateBreakMessage(ctx context.Context, msg database.BreakMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.breaks = append(r.breaks, msg)
	return nil
}

func (r *MemRepository) GetLatestBreakMessageAt(ctx context.Context, sessionId, authorId int) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		latest time.Time
		found  bool
	)
	for _, m := range r.breaks {
		if m.SessionId == sessionId && m.AuthorId == authorId && (!found || m.CreatedAt.After(latest)) {
			latest, found = m.CreatedAt, true
		}
	}
	if !found {
		return time.Time{}, database.ErrNotFound
	}
	return latest, nil
}

func (r *MemRepository) ListBreakMessages(ctx context.Context, sessionId, limit int) ([]database.BreakMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := make([]database.BreakMessage, 0)
	for _, m := range r.breaks {
		if m.SessionId == sessionId {
			m.AuthorId = 0
			res = append(res, m)
		}
	}
	slices.SortStableFunc(res, func(a, b database.BreakMessage) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.Id, a.Id))
	})
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (r *MemRepository) CreateSupportEvent(ctx context.Context, event database.SupportEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.supports = append(r.supports, event)
	return nil
}

func (r *MemRepository) ListSupportEvents(ctx context.Context, sessionId, limit int) ([]database.SupportEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := make([]database.SupportEvent, 0)
	for _, e := range r.supports {
		if e.SessionId != sessionId {
			continue
		}
		e.DisplayName = "Unknown"
		if i := r.memberIndex(e.SessionId, e.UserId); i >= 0 {
			e.DisplayName = r.members[i].DisplayName
		}
		res = append(res, e)
	}
	slices.SortStableFunc(res, func(a, b database.SupportEvent) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.Id, a.Id))
	})
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (r *MemRepository) GetLatestSupportEvent(ctx context.Context, sessionId int) (database.SupportEvent, error) {
	events, _ := r.ListSupportEvents(ctx, sessionId, 1)
	if len(events) == 0 {
		return database.SupportEvent{}, database.ErrNotFound
	}
	return events[0], nil
}
