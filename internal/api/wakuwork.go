package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/npezzotti/wakuwork/internal/circle"
	"github.com/npezzotti/wakuwork/internal/config"
	"github.com/npezzotti/wakuwork/internal/database"
)

type WakuworkApp struct {
	log        *log.Logger
	db         database.WakuworkRepository
	svc        *circle.Service
	cfg        *config.Config
	mux        *http.Server
	signingKey []byte
}

func NewWakuworkApp(mux *http.ServeMux, logger *log.Logger, db database.WakuworkRepository, svc *circle.Service, cfg *config.Config) *WakuworkApp {
	s := &WakuworkApp{
		log:        logger,
		db:         db,
		svc:        svc,
		cfg:        cfg,
		signingKey: cfg.SigningKey,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)

	mux.HandleFunc("GET /api/join", s.getJoinInfo)
	mux.HandleFunc("POST /api/join", s.authMiddleware(s.join))
	mux.HandleFunc("GET /api/session", s.authMiddleware(s.getSession))
	mux.HandleFunc("PATCH /api/member/status", s.authMiddleware(s.updateMemberStatus))
	mux.HandleFunc("POST /api/stamp", s.authMiddleware(s.sendStamp))
	mux.HandleFunc("GET /api/stamps", s.authMiddleware(s.getStamps))
	mux.HandleFunc("GET /api/break-messages", s.authMiddleware(s.getBreakMessages))
	mux.HandleFunc("POST /api/break-messages", s.authMiddleware(s.postBreakMessage))
	mux.HandleFunc("POST /api/support", s.authMiddleware(s.sendSupport))
	mux.HandleFunc("GET /api/overlay", noStore(s.getOverlay))

	mux.HandleFunc("GET /api/approve", s.streamerOnly(s.getApprovalQueue))
	mux.HandleFunc("POST /api/approve", s.streamerOnly(s.resolveJoinRequest))
	mux.HandleFunc("POST /api/moderation/mute", s.streamerOnly(s.moderateMember))
	mux.HandleFunc("GET /api/streamer/room", s.streamerOnly(s.getStreamerRoom))
	mux.HandleFunc("POST /api/streamer/room", s.streamerOnly(s.createRoom))
	mux.HandleFunc("PATCH /api/streamer/room", s.streamerOnly(s.updateRoom))
	mux.HandleFunc("POST /api/streamer/session", s.streamerOnly(s.startSession))
	mux.HandleFunc("PATCH /api/streamer/session", s.streamerOnly(s.updateSession))
	mux.HandleFunc("POST /api/streamer/session/end", s.streamerOnly(s.endSession))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "Authorization"}),
		handlers.AllowCredentials(),
	)(mux)

	h = handlers.LoggingHandler(logger.Writer(), h)
	h = s.errorHandler(h)

	s.mux = &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	return s
}

func (s *WakuworkApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *WakuworkApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
