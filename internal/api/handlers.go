package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/npezzotti/wakuwork/internal/circle"
	"github.com/npezzotti/wakuwork/internal/types"
)

type JoinRequest struct {
	Code       string `json:"code"`
	Passphrase string `json:"passphrase"`
}

type ApproveRequest struct {
	Code   string `json:"code"`
	UserId int    `json:"userId"`
	Action string `json:"action"`
}

type MuteRequest struct {
	Code            string `json:"code"`
	UserId          int    `json:"userId"`
	Action          string `json:"action"`
	DurationSeconds int    `json:"durationSeconds"`
}

type MemberStatusRequest struct {
	Code        string  `json:"code"`
	Category    *string `json:"category"`
	ShortText   *string `json:"shortText"`
	IsCompleted *bool   `json:"isCompleted"`
}

type StampRequest struct {
	Code      string `json:"code"`
	StampType string `json:"stampType"`
}

type BreakMessageRequest struct {
	Content string `json:"content"`
}

type SupportRequest struct {
	Code    string `json:"code"`
	Amount  int    `json:"amount"`
	Message string `json:"message"`
}

type CreateRoomRequest struct {
	Name             string  `json:"name"`
	DisplayNameMode  *string `json:"displayNameMode"`
	ApprovalRequired *bool   `json:"approvalRequired"`
}

type UpdateRoomRequest struct {
	RoomId           int     `json:"roomId"`
	DisplayNameMode  *string `json:"displayNameMode"`
	ApprovalRequired *bool   `json:"approvalRequired"`
}

type StartSessionRequest struct {
	RoomId             int     `json:"roomId"`
	Passphrase         string  `json:"passphrase"`
	PassphraseRequired *bool   `json:"passphraseRequired"`
	Declaration        *string `json:"declaration"`
}

type UpdateSessionRequest struct {
	Code               string  `json:"code"`
	ToggleState        bool    `json:"toggleState"`
	Passphrase         *string `json:"passphrase"`
	PassphraseRequired *bool   `json:"passphraseRequired"`
	ApprovalRequired   *bool   `json:"approvalRequired"`
	Declaration        *string `json:"declaration"`
	State              *string `json:"state"`
}

type EndSessionRequest struct {
	Code string `json:"code"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type ApproveResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

type SupportResponse struct {
	Success bool               `json:"success"`
	Event   types.SupportEvent `json:"event"`
}

type BreakMessageResponse struct {
	Success bool               `json:"success"`
	Message types.BreakMessage `json:"message"`
}

func (s *WakuworkApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

// writeError renders err as an ApiError. Internal faults are logged and
// returned without detail.
func (s *WakuworkApp) writeError(w http.ResponseWriter, err error) {
	errResp := toApiError(err)
	if errResp.StatusCode == http.StatusInternalServerError {
		s.log.Printf("internal error: %v", err)
	}

	s.writeJson(w, errResp.StatusCode, errResp)
}

func (s *WakuworkApp) badRequest(w http.ResponseWriter, msg string) {
	errResp := NewBadRequestError()
	if msg != "" {
		errResp.Message = msg
	}
	s.writeJson(w, errResp.StatusCode, errResp)
}

func (s *WakuworkApp) principal(w http.ResponseWriter, r *http.Request) (Principal, bool) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
	}

	return p, ok
}

func (s *WakuworkApp) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.badRequest(w, "invalid request body")
		return false
	}

	return true
}

func (s *WakuworkApp) codeParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	code := r.URL.Query().Get("code")
	if code == "" {
		s.badRequest(w, "code is required")
		return "", false
	}

	return code, true
}

func (s *WakuworkApp) healthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		s.log.Printf("health check: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *WakuworkApp) getJoinInfo(w http.ResponseWriter, r *http.Request) {
	code, ok := s.codeParam(w, r)
	if !ok {
		return
	}

	info, err := s.svc.GetJoinInfo(r.Context(), code)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, info)
}

func (s *WakuworkApp) join(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}

	var req JoinRequest
	if !s.decode(w, r, &req) {
		return
	}

	if req.Code == "" {
		s.badRequest(w, "code is required")
		return
	}

	res, err := s.svc.ProcessJoinRequest(r.Context(), req.Code, p.UserId, req.Passphrase)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, res)
}

func (s *WakuworkApp) getApprovalQueue(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}

	code, ok := s.codeParam(w, r)
	if !ok {
		return
	}

	queue, err := s.svc.GetApprovalQueue(r.Context(), p.UserId, code)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, queue)
}

func (s *WakuworkApp) resolveJoinRequest(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}

	var req ApproveRequest
	if !s.decode(w, r, &req) {
		return
	}

	if req.Code == "" || req.UserId <= 0 {
		s.badRequest(w, "code and userId are required")
		return
	}

	var (
		err    error
		status string
	)
	switch req.Action {
	case "approve":
		err = s.svc.ApproveJoinRequest(r.Context(), req.Code, req.UserId, p.UserId)
		status = "approved"
	case "reject":
		err = s.svc.RejectJoinRequest(r.Context(), req.Code, req.UserId, p.UserId)
		status = "rejected"
	default:
		s.badRequest(w, "action must be approve or reject")
		return
	}

	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, ApproveResponse{Success: true, Status: status})
}

func (s *WakuworkApp) moderateMember(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}

	var req MuteRequest
	if !s.decode(w, r, &req) {
		return
	}

	if req.Code == "" || req.UserId <= 0 {
		s.badRequest(w, "code and userId are required")
		return
	}

	var err error
	switch req.Action {
	case "mute":
		err = s.svc.MuteMember(r.Context(), p.UserId, req.Code, req.UserId, time.Duration(req.DurationSeconds)*time.Second)
	case "unmute":
		err = s.svc.UnmuteMember(r.Context(), p.UserId, req.Code, req.UserId)
	default:
		s.badRequest(w, "action must be mute or unmute")
		return
	}

	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, SuccessResponse{Success: true})
}

func (s *WakuworkApp) getSession(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}

	code, ok := s.codeParam(w, r)
	if !ok {
		return
	}

	view, err := s.svc.GetSessionView(r.Context(), code, p.UserId)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, view)
}

func (s *WakuworkApp) updateMemberStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}

	var req MemberStatusRequest
	if !s.decode(w, r, &req) {
		return
	}

	if req.Code == "" {
		s.badRequest(w, "code is required")
		return
	}

	err := s.svc.UpdateMemberStatus(r.Context(), req.Code, p.UserId, circle.MemberStatusUpdate{
		Category:    req.Category,
		ShortText:   req.ShortText,
		IsCompleted: req.IsCompleted,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	status, err := s.svc.GetMemberStatus(r.Context(), req.Code, p.UserId)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, status)
}

func (s *WakuworkApp) sendStamp(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}

	var req StampRequest
	if !s.decode(w, r, &req) {
		return
	}

	if req.Code == "" {
		s.badRequest(w, "code is required")
		return
	}

	id, err := s.svc.SendStamp(r.Context(), req.Code, p.UserId, req.StampType)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusCreated, types.SendStampResult{Success: true, StampId: id})
}

func (s *WakuworkApp) getStamps(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}

	code, ok := s.codeParam(w, r)
	if !ok {
		return
	}

	var since *time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			s.badRequest(w, "since must be an RFC 3339 timestamp")
			return
		}
		since = &t
	}

	feed, err := s.svc.GetRecentStamps(r.Context(), code, p.UserId, since)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, feed)
}

func (s *WakuworkApp) getBreakMessages(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}

	code, ok := s.codeParam(w, r)
	if !ok {
		return
	}

	msgs, err := s.svc.GetBreakMessages(r.Context(), code, p.UserId)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, types.BreakFeed{Messages: msgs})
}

func (s *WakuworkApp) postBreakMessage(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}

	code, ok := s.codeParam(w, r)
	if !ok {
		return
	}

	var req BreakMessageRequest
	if !s.decode(w, r, &req) {
		return
	}

	msg, err := s.svc.PostBreakMessage(r.Context(), code, p.UserId, req.Content)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusCreated, BreakMessageResponse{Success: true, Message: msg})
}

func (s *WakuworkApp) sendSupport(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}

	var req SupportRequest
	if !s.decode(w, r, &req) {
		return
	}

	if req.Code == "" {
		s.badRequest(w, "code is required")
		return
	}

	event, err := s.svc.SendSupport(r.Context(), req.Code, p.UserId, req.Amount, req.Message)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusCreated, SupportResponse{Success: true, Event: event})
}

func (s *WakuworkApp) getOverlay(w http.ResponseWriter, r *http.Request) {
	overlay, err := s.svc.GetOverlay(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, overlay)
}

func (s *WakuworkApp) getStreamerRoom(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}

	room, err := s.svc.GetStreamerRoom(r.Context(), p.UserId)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, room)
}

func (s *WakuworkApp) createRoom(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}

	var req CreateRoomRequest
	if !s.decode(w, r, &req) {
		return
	}

	room, err := s.svc.CreateRoom(r.Context(), p.UserId, circle.CreateRoomParams{
		Name:             req.Name,
		DisplayNameMode:  req.DisplayNameMode,
		ApprovalRequired: req.ApprovalRequired,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusCreated, types.CreateRoomResult{
		Success: true,
		RoomId:  room.Id,
		Room:    room,
	})
}

func (s *WakuworkApp) updateRoom(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}

	var req UpdateRoomRequest
	if !s.decode(w, r, &req) {
		return
	}

	if req.RoomId <= 0 {
		s.badRequest(w, "roomId is required")
		return
	}

	room, err := s.svc.UpdateRoomSettings(r.Context(), p.UserId, req.RoomId, circle.RoomSettings{
		DisplayNameMode:  req.DisplayNameMode,
		ApprovalRequired: req.ApprovalRequired,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, room)
}

func (s *WakuworkApp) startSession(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}

	var req StartSessionRequest
	if !s.decode(w, r, &req) {
		return
	}

	if req.RoomId <= 0 {
		s.badRequest(w, "roomId is required")
		return
	}

	res, err := s.svc.StartSession(r.Context(), p.UserId, req.RoomId, circle.StartSessionParams{
		Passphrase:         req.Passphrase,
		PassphraseRequired: req.PassphraseRequired,
		Declaration:        req.Declaration,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusCreated, res)
}

// updateSession either flips working/break or applies partial settings,
// depending on toggleState.
func (s *WakuworkApp) updateSession(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}

	var req UpdateSessionRequest
	if !s.decode(w, r, &req) {
		return
	}

	if req.Code == "" {
		s.badRequest(w, "code is required")
		return
	}

	if req.ToggleState {
		state, err := s.svc.ToggleSessionState(r.Context(), p.UserId, req.Code)
		if err != nil {
			s.writeError(w, err)
			return
		}

		s.writeJson(w, http.StatusOK, types.ToggleResult{Success: true, NewState: string(state)})
		return
	}

	res, err := s.svc.UpdateSessionSettings(r.Context(), p.UserId, req.Code, circle.SessionSettings{
		Passphrase:         req.Passphrase,
		PassphraseRequired: req.PassphraseRequired,
		ApprovalRequired:   req.ApprovalRequired,
		Declaration:        req.Declaration,
		State:              req.State,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, res)
}

func (s *WakuworkApp) endSession(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}

	var req EndSessionRequest
	if !s.decode(w, r, &req) {
		return
	}

	if req.Code == "" {
		s.badRequest(w, "code is required")
		return
	}

	if err := s.svc.EndSession(r.Context(), p.UserId, req.Code); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, SuccessResponse{Success: true})
}
