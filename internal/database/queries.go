package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const (
	sessionSelect = "SELECT s.id, s.room_id, s.code, s.passphrase_hash, s.passphrase_required, s.state, " +
		"s.declaration, s.started_at, s.ended_at, r.id, r.external_id, r.owner_id, u.display_name, r.name, " +
		"r.display_name_mode, r.approval_required, r.created_at, r.updated_at " +
		"FROM sessions s JOIN rooms r ON r.id = s.room_id JOIN users u ON u.id = r.owner_id "

	roomSelect = "SELECT r.id, r.external_id, r.owner_id, u.display_name, r.name, r.display_name_mode, " +
		"r.approval_required, r.created_at, r.updated_at FROM rooms r JOIN users u ON u.id = r.owner_id "

	memberColumns = "m.id, m.session_id, m.user_id, m.display_name, m.category, m.short_text, " +
		"m.is_completed, m.is_muted, m.mute_expires_at, m.joined_at"

	insertMemberQuery = "INSERT INTO session_members (session_id, user_id, display_name, joined_at) " +
		"VALUES ($1, $2, $3, $4) ON CONFLICT (session_id, user_id) DO NOTHING"

	insertPresenceQuery = "INSERT INTO presence_events (session_id, user_id, type, created_at) " +
		"VALUES ($1, $2, 'enter', $3)"
)

type scanner interface {
	Scan(dest ...any) error
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

func scanSession(row scanner) (Session, error) {
	var (
		s           Session
		declaration sql.NullString
		endedAt     sql.NullTime
	)
	err := row.Scan(
		&s.Id,
		&s.RoomId,
		&s.Code,
		&s.PassphraseHash,
		&s.PassphraseRequired,
		&s.State,
		&declaration,
		&s.StartedAt,
		&endedAt,
		&s.Room.Id,
		&s.Room.ExternalId,
		&s.Room.OwnerId,
		&s.Room.OwnerName,
		&s.Room.Name,
		&s.Room.DisplayNameMode,
		&s.Room.ApprovalRequired,
		&s.Room.CreatedAt,
		&s.Room.UpdatedAt,
	)
	if err != nil {
		return Session{}, translateError(err)
	}

	s.Declaration = nullStringPtr(declaration)
	s.EndedAt = nullTimePtr(endedAt)
	s.StartedAt = s.StartedAt.UTC()
	return s, nil
}

func scanRoom(row scanner) (Room, error) {
	var r Room
	err := row.Scan(
		&r.Id,
		&r.ExternalId,
		&r.OwnerId,
		&r.OwnerName,
		&r.Name,
		&r.DisplayNameMode,
		&r.ApprovalRequired,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	return r, translateError(err)
}

func scanMember(row scanner, extra ...any) (Member, error) {
	var (
		m             Member
		category      sql.NullString
		shortText     sql.NullString
		muteExpiresAt sql.NullTime
	)
	dest := []any{
		&m.Id,
		&m.SessionId,
		&m.UserId,
		&m.DisplayName,
		&category,
		&shortText,
		&m.IsCompleted,
		&m.IsMuted,
		&muteExpiresAt,
		&m.JoinedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return Member{}, translateError(err)
	}

	m.Category = nullStringPtr(category)
	m.ShortText = nullStringPtr(shortText)
	m.MuteExpiresAt = nullTimePtr(muteExpiresAt)
	m.JoinedAt = m.JoinedAt.UTC()
	return m, nil
}

func (db *PgWakuworkRepository) UpsertUser(ctx context.Context, params UpsertUserParams) (User, error) {
	row := db.conn.QueryRowContext(ctx,
		"INSERT INTO users (external_id, display_name, nickname, created_at, updated_at) "+
			"VALUES ($1, $2, $2, $3, $3) "+
			"ON CONFLICT (external_id) DO UPDATE SET display_name = EXCLUDED.display_name, updated_at = EXCLUDED.updated_at "+
			"RETURNING id, external_id, display_name, nickname, created_at, updated_at",
		params.ExternalId,
		params.DisplayName,
		params.Now,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.ExternalId,
		&u.DisplayName,
		&u.Nickname,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, translateError(err)
}

func (db *PgWakuworkRepository) GetUserById(ctx context.Context, userId int) (User, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, external_id, display_name, nickname, created_at, updated_at FROM users "+
			"WHERE id = $1 LIMIT 1",
		userId,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.ExternalId,
		&u.DisplayName,
		&u.Nickname,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, translateError(err)
}

func (db *PgWakuworkRepository) CreateRoom(ctx context.Context, params CreateRoomParams) (Room, error) {
	var id int
	err := db.conn.QueryRowContext(ctx,
		"INSERT INTO rooms (external_id, owner_id, name, display_name_mode, approval_required, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING id",
		params.ExternalId,
		params.OwnerId,
		params.Name,
		params.DisplayNameMode,
		params.ApprovalRequired,
		params.Now,
	).Scan(&id)
	if err != nil {
		return Room{}, translateError(err)
	}

	return db.GetRoomById(ctx, id)
}

func (db *PgWakuworkRepository) GetRoomById(ctx context.Context, roomId int) (Room, error) {
	return scanRoom(db.conn.QueryRowContext(ctx, roomSelect+"WHERE r.id = $1", roomId))
}

func (db *PgWakuworkRepository) GetRoomByOwnerId(ctx context.Context, ownerId int) (Room, error) {
	return scanRoom(db.conn.QueryRowContext(ctx,
		roomSelect+"WHERE r.owner_id = $1 ORDER BY r.id LIMIT 1",
		ownerId,
	))
}

func (db *PgWakuworkRepository) UpdateRoomSettings(ctx context.Context, params UpdateRoomSettingsParams) (Room, error) {
	res, err := db.conn.ExecContext(ctx,
		"UPDATE rooms SET display_name_mode = COALESCE($2, display_name_mode), "+
			"approval_required = COALESCE($3, approval_required), updated_at = $4 WHERE id = $1",
		params.RoomId,
		params.DisplayNameMode,
		params.ApprovalRequired,
		params.Now,
	)
	if err != nil {
		return Room{}, translateError(err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Room{}, ErrNotFound
	}

	return db.GetRoomById(ctx, params.RoomId)
}

// CreateSession ends every open session of the room and inserts the new one
// in a single transaction. A code collision rolls both back and surfaces as
// ErrUniqueViolation.
func (db *PgWakuworkRepository) CreateSession(ctx context.Context, params CreateSessionParams) (Session, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"UPDATE sessions SET state = 'ended', ended_at = $2 WHERE room_id = $1 AND state <> 'ended'",
		params.RoomId,
		params.StartedAt,
	)
	if err != nil {
		return Session{}, fmt.Errorf("end open sessions: %w", err)
	}

	var id int
	err = tx.QueryRowContext(ctx,
		"INSERT INTO sessions (room_id, code, passphrase_hash, passphrase_required, state, declaration, started_at) "+
			"VALUES ($1, $2, $3, $4, 'working', $5, $6) RETURNING id",
		params.RoomId,
		params.Code,
		params.PassphraseHash,
		params.PassphraseRequired,
		params.Declaration,
		params.StartedAt,
	).Scan(&id)
	if err != nil {
		return Session{}, translateError(err)
	}

	session, err := scanSession(tx.QueryRowContext(ctx, sessionSelect+"WHERE s.id = $1", id))
	if err != nil {
		return Session{}, err
	}

	if err := tx.Commit(); err != nil {
		return Session{}, err
	}

	return session, nil
}

func (db *PgWakuworkRepository) GetSessionByCode(ctx context.Context, code string) (Session, error) {
	return scanSession(db.conn.QueryRowContext(ctx, sessionSelect+"WHERE s.code = $1", code))
}

func (db *PgWakuworkRepository) GetActiveSession(ctx context.Context, roomId int) (Session, error) {
	return scanSession(db.conn.QueryRowContext(ctx,
		sessionSelect+"WHERE s.room_id = $1 AND s.state <> 'ended' ORDER BY s.started_at DESC LIMIT 1",
		roomId,
	))
}

// UpdateSession applies the non-nil fields. It returns ErrNotFound when the
// session ended before the update landed.
func (db *PgWakuworkRepository) UpdateSession(ctx context.Context, params UpdateSessionParams) (Session, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE sessions SET passphrase_hash = COALESCE($2, passphrase_hash), "+
			"passphrase_required = COALESCE($3, passphrase_required), "+
			"declaration = COALESCE($4, declaration), state = COALESCE($5, state) "+
			"WHERE id = $1 AND state <> 'ended'",
		params.SessionId,
		params.PassphraseHash,
		params.PassphraseRequired,
		params.Declaration,
		params.State,
	)
	if err != nil {
		return Session{}, fmt.Errorf("update session: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return Session{}, err
	} else if n == 0 {
		return Session{}, ErrNotFound
	}

	if params.ApprovalRequired != nil {
		_, err = tx.ExecContext(ctx,
			"UPDATE rooms SET approval_required = $2, updated_at = $3 WHERE id = $1",
			params.RoomId,
			*params.ApprovalRequired,
			params.Now,
		)
		if err != nil {
			return Session{}, fmt.Errorf("update room approval: %w", err)
		}
	}

	session, err := scanSession(tx.QueryRowContext(ctx, sessionSelect+"WHERE s.id = $1", params.SessionId))
	if err != nil {
		return Session{}, err
	}

	if err := tx.Commit(); err != nil {
		return Session{}, err
	}

	return session, nil
}

func (db *PgWakuworkRepository) ToggleSessionState(ctx context.Context, sessionId int) (SessionState, error) {
	var state SessionState
	err := db.conn.QueryRowContext(ctx,
		"UPDATE sessions SET state = CASE WHEN state = 'working' THEN 'break' ELSE 'working' END "+
			"WHERE id = $1 AND state <> 'ended' RETURNING state",
		sessionId,
	).Scan(&state)

	return state, translateError(err)
}

func (db *PgWakuworkRepository) EndSession(ctx context.Context, sessionId int, endedAt time.Time) error {
	res, err := db.conn.ExecContext(ctx,
		"UPDATE sessions SET state = 'ended', ended_at = $2 WHERE id = $1 AND state <> 'ended'",
		sessionId,
		endedAt,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

func (db *PgWakuworkRepository) GetSessionCounts(ctx context.Context, sessionId int) (SessionCounts, error) {
	var c SessionCounts
	err := db.conn.QueryRowContext(ctx,
		"SELECT "+
			"(SELECT COUNT(*) FROM session_members WHERE session_id = $1), "+
			"(SELECT COUNT(*) FROM session_members WHERE session_id = $1 AND is_completed), "+
			"(SELECT COUNT(*) FROM join_requests WHERE session_id = $1 AND status = 'pending')",
		sessionId,
	).Scan(&c.Members, &c.Completed, &c.Pending)

	return c, translateError(err)
}

func (db *PgWakuworkRepository) GetMember(ctx context.Context, sessionId, userId int) (Member, error) {
	return scanMember(db.conn.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM session_members m WHERE m.session_id = $1 AND m.user_id = $2",
		sessionId,
		userId,
	))
}

func (db *PgWakuworkRepository) CountMembers(ctx context.Context, sessionId int) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM session_members WHERE session_id = $1",
		sessionId,
	).Scan(&n)

	return n, translateError(err)
}

func (db *PgWakuworkRepository) CountRoomMemberships(ctx context.Context, roomId, userId int) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM session_members m JOIN sessions s ON s.id = m.session_id "+
			"WHERE s.room_id = $1 AND m.user_id = $2",
		roomId,
		userId,
	).Scan(&n)

	return n, translateError(err)
}

func (db *PgWakuworkRepository) ListMembers(ctx context.Context, sessionId int) ([]Member, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+memberColumns+", u.id, u.external_id, u.display_name, u.nickname "+
			"FROM session_members m JOIN users u ON u.id = m.user_id "+
			"WHERE m.session_id = $1 ORDER BY m.joined_at ASC, m.id ASC",
		sessionId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]Member, 0)
	for rows.Next() {
		var u User
		m, err := scanMember(rows, &u.Id, &u.ExternalId, &u.DisplayName, &u.Nickname)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.User = u
		members = append(members, m)
	}

	return members, rows.Err()
}

func (db *PgWakuworkRepository) UpdateMemberStatus(ctx context.Context, params UpdateMemberStatusParams) error {
	res, err := db.conn.ExecContext(ctx,
		"UPDATE session_members SET category = COALESCE($3, category), "+
			"short_text = COALESCE($4, short_text), is_completed = COALESCE($5, is_completed) "+
			"WHERE session_id = $1 AND user_id = $2",
		params.SessionId,
		params.UserId,
		params.Category,
		params.ShortText,
		params.IsCompleted,
	)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return nil
}

func (db *PgWakuworkRepository) SetMemberMute(ctx context.Context, params SetMemberMuteParams) error {
	res, err := db.conn.ExecContext(ctx,
		"UPDATE session_members SET is_muted = $3, mute_expires_at = $4 WHERE session_id = $1 AND user_id = $2",
		params.SessionId,
		params.UserId,
		params.IsMuted,
		params.MuteExpiresAt,
	)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return nil
}

func (db *PgWakuworkRepository) GetJoinRequest(ctx context.Context, sessionId, userId int) (JoinRequest, error) {
	var (
		jr         JoinRequest
		resolvedAt sql.NullTime
	)
	err := db.conn.QueryRowContext(ctx,
		"SELECT id, session_id, user_id, status, is_first_visit, requested_at, resolved_at "+
			"FROM join_requests WHERE session_id = $1 AND user_id = $2",
		sessionId,
		userId,
	).Scan(
		&jr.Id,
		&jr.SessionId,
		&jr.UserId,
		&jr.Status,
		&jr.IsFirstVisit,
		&jr.RequestedAt,
		&resolvedAt,
	)
	if err != nil {
		return JoinRequest{}, translateError(err)
	}

	jr.ResolvedAt = nullTimePtr(resolvedAt)
	return jr, nil
}

func insertMember(ctx context.Context, tx *sql.Tx, params CreateMemberParams) error {
	res, err := tx.ExecContext(ctx,
		insertMemberQuery,
		params.SessionId,
		params.UserId,
		params.DisplayName,
		params.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("insert member: %w", translateError(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// already a member
		return nil
	}

	if _, err := tx.ExecContext(ctx, insertPresenceQuery, params.SessionId, params.UserId, params.JoinedAt); err != nil {
		return fmt.Errorf("insert presence: %w", err)
	}

	return nil
}

// CreateJoinRequest inserts the request and, when params.Member is set, the
// membership row in the same transaction. A duplicate (session, user)
// request surfaces as ErrUniqueViolation.
func (db *PgWakuworkRepository) CreateJoinRequest(ctx context.Context, params CreateJoinRequestParams) (JoinRequest, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return JoinRequest{}, err
	}
	defer tx.Rollback()

	jr := JoinRequest{
		SessionId:    params.SessionId,
		UserId:       params.UserId,
		Status:       params.Status,
		IsFirstVisit: params.IsFirstVisit,
		RequestedAt:  params.RequestedAt,
		ResolvedAt:   params.ResolvedAt,
	}
	err = tx.QueryRowContext(ctx,
		"INSERT INTO join_requests (session_id, user_id, status, is_first_visit, requested_at, resolved_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6) RETURNING id",
		params.SessionId,
		params.UserId,
		params.Status,
		params.IsFirstVisit,
		params.RequestedAt,
		params.ResolvedAt,
	).Scan(&jr.Id)
	if err != nil {
		return JoinRequest{}, translateError(err)
	}

	if params.Member != nil {
		if err := insertMember(ctx, tx, *params.Member); err != nil {
			return JoinRequest{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return JoinRequest{}, err
	}

	return jr, nil
}

// ResolveJoinRequest moves a pending request to its final status. Only one
// caller can win the transition; the rest get ErrNotFound.
func (db *PgWakuworkRepository) ResolveJoinRequest(ctx context.Context, params ResolveJoinRequestParams) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE join_requests SET status = $3, resolved_at = $4 "+
			"WHERE session_id = $1 AND user_id = $2 AND status = 'pending'",
		params.SessionId,
		params.UserId,
		params.Status,
		params.ResolvedAt,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	if params.Member != nil {
		if err := insertMember(ctx, tx, *params.Member); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (db *PgWakuworkRepository) ListPendingRequests(ctx context.Context, sessionId int) ([]JoinRequest, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT j.id, j.session_id, j.user_id, j.status, j.is_first_visit, j.requested_at, "+
			"u.id, u.external_id, u.display_name, u.nickname "+
			"FROM join_requests j JOIN users u ON u.id = j.user_id "+
			"WHERE j.session_id = $1 AND j.status = 'pending' ORDER BY j.requested_at ASC, j.id ASC",
		sessionId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]JoinRequest, 0)
	for rows.Next() {
		var jr JoinRequest
		if err := rows.Scan(
			&jr.Id,
			&jr.SessionId,
			&jr.UserId,
			&jr.Status,
			&jr.IsFirstVisit,
			&jr.RequestedAt,
			&jr.User.Id,
			&jr.User.ExternalId,
			&jr.User.DisplayName,
			&jr.User.Nickname,
		); err != nil {
			return nil, fmt.Errorf("scan join request: %w", err)
		}
		requests = append(requests, jr)
	}

	return requests, rows.Err()
}

func (db *PgWakuworkRepository) CreateStamp(ctx context.Context, stamp StampEvent) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO stamp_events (id, session_id, user_id, stamp_type, created_at) VALUES ($1, $2, $3, $4, $5)",
		stamp.Id,
		stamp.SessionId,
		stamp.UserId,
		stamp.StampType,
		stamp.CreatedAt,
	)

	return translateError(err)
}

func (db *PgWakuworkRepository) GetStampActivity(ctx context.Context, sessionId, userId int, since time.Time) (StampActivity, error) {
	var (
		activity StampActivity
		latest   sql.NullTime
	)
	err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*), MAX(created_at) FROM stamp_events "+
			"WHERE session_id = $1 AND user_id = $2 AND created_at >= $3",
		sessionId,
		userId,
		since,
	).Scan(&activity.Count, &latest)
	if err != nil {
		return StampActivity{}, translateError(err)
	}

	activity.LatestAt = nullTimePtr(latest)
	return activity, nil
}

func (db *PgWakuworkRepository) ListStampsAfter(ctx context.Context, sessionId int, after time.Time, limit int) ([]StampEvent, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT e.id, e.session_id, e.user_id, e.stamp_type, COALESCE(m.display_name, 'Unknown'), e.created_at "+
			"FROM stamp_events e LEFT JOIN session_members m ON m.session_id = e.session_id AND m.user_id = e.user_id "+
			"WHERE e.session_id = $1 AND e.created_at > $2 ORDER BY e.created_at ASC, e.id ASC LIMIT $3",
		sessionId,
		after,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stamps := make([]StampEvent, 0, limit)
	for rows.Next() {
		var e StampEvent
		if err := rows.Scan(&e.Id, &e.SessionId, &e.UserId, &e.StampType, &e.DisplayName, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stamp: %w", err)
		}
		e.CreatedAt = e.CreatedAt.UTC()
		stamps = append(stamps, e)
	}

	return stamps, rows.Err()
}

func (db *PgWakuworkRepository) CountStampsByType(ctx context.Context, sessionId int, since time.Time) ([]StampCount, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT stamp_type, COUNT(*), MAX(created_at) FROM stamp_events "+
			"WHERE session_id = $1 AND created_at >= $2 GROUP BY stamp_type ORDER BY stamp_type",
		sessionId,
		since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]StampCount, 0)
	for rows.Next() {
		var c StampCount
		if err := rows.Scan(&c.StampType, &c.Count, &c.LatestAt); err != nil {
			return nil, fmt.Errorf("scan stamp count: %w", err)
		}
		c.LatestAt = c.LatestAt.UTC()
		counts = append(counts, c)
	}

	return counts, rows.Err()
}

func (db *PgWakuworkRepository) DeleteStampsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM stamp_events WHERE created_at < $1", cutoff)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func (db *PgWakuworkRepository) CreateBreakMessage(ctx context.Context, msg BreakMessage) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO break_messages (id, session_id, author_id, content, created_at) VALUES ($1, $2, $3, $4, $5)",
		msg.Id,
		msg.SessionId,
		msg.AuthorId,
		msg.Content,
		msg.CreatedAt,
	)

	return translateError(err)
}

func (db *PgWakuworkRepository) GetLatestBreakMessageAt(ctx context.Context, sessionId, authorId int) (time.Time, error) {
	var createdAt time.Time
	err := db.conn.QueryRowContext(ctx,
		"SELECT created_at FROM break_messages WHERE session_id = $1 AND author_id = $2 "+
			"ORDER BY created_at DESC LIMIT 1",
		sessionId,
		authorId,
	).Scan(&createdAt)

	return createdAt.UTC(), translateError(err)
}

// ListBreakMessages returns the newest messages first. The author column is
// never selected.
func (db *PgWakuworkRepository) ListBreakMessages(ctx context.Context, sessionId, limit int) ([]BreakMessage, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT id, session_id, content, created_at FROM break_messages "+
			"WHERE session_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2",
		sessionId,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]BreakMessage, 0, limit)
	for rows.Next() {
		var msg BreakMessage
		if err := rows.Scan(&msg.Id, &msg.SessionId, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan break message: %w", err)
		}
		msg.CreatedAt = msg.CreatedAt.UTC()
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

func (db *PgWakuworkRepository) CreateSupportEvent(ctx context.Context, event SupportEvent) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO support_events (id, session_id, user_id, amount, message, created_at) VALUES ($1, $2, $3, $4, $5, $6)",
		event.Id,
		event.SessionId,
		event.UserId,
		event.Amount,
		event.Message,
		event.CreatedAt,
	)

	return translateError(err)
}

func (db *PgWakuworkRepository) ListSupportEvents(ctx context.Context, sessionId, limit int) ([]SupportEvent, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT e.id, e.session_id, e.user_id, COALESCE(m.display_name, 'Unknown'), e.amount, e.message, e.created_at "+
			"FROM support_events e LEFT JOIN session_members m ON m.session_id = e.session_id AND m.user_id = e.user_id "+
			"WHERE e.session_id = $1 ORDER BY e.created_at DESC, e.id DESC LIMIT $2",
		sessionId,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]SupportEvent, 0, limit)
	for rows.Next() {
		var e SupportEvent
		if err := rows.Scan(&e.Id, &e.SessionId, &e.UserId, &e.DisplayName, &e.Amount, &e.Message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan support event: %w", err)
		}
		e.CreatedAt = e.CreatedAt.UTC()
		events = append(events, e)
	}

	return events, rows.Err()
}

func (db *PgWakuworkRepository) GetLatestSupportEvent(ctx context.Context, sessionId int) (SupportEvent, error) {
	var e SupportEvent
	err := db.conn.QueryRowContext(ctx,
		"SELECT id, session_id, amount, message, created_at FROM support_events "+
			"WHERE session_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1",
		sessionId,
	).Scan(&e.Id, &e.SessionId, &e.Amount, &e.Message, &e.CreatedAt)
	if err != nil {
		return SupportEvent{}, translateError(err)
	}

	e.CreatedAt = e.CreatedAt.UTC()
	return e, nil
}
