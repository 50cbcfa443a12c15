package api

import (
	"fmt"
	"net/http"
)

func (s *WakuworkApp) errorHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				var panicError error
				switch e := err.(type) {
				case error:
					panicError = e
				default:
					panicError = fmt.Errorf("%v", e)
				}
				s.log.Printf("panic: %v", panicError)
				errResp := NewInternalServerError(panicError)
				w.Header().Set("Connection", "close")
				s.writeJson(w, errResp.StatusCode, errResp)
				return
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// authMiddleware verifies the caller's token and syncs the user record
// before handing the request on with a Principal in its context.
func (s *WakuworkApp) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := tokenFromRequest(r)
		if !ok {
			errResp := NewUnauthorizedError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		externalId, name, err := s.extractIdentity(tokenString)
		if err != nil {
			s.log.Printf("failed to extract identity from token: %v", err)
			errResp := NewUnauthorizedError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		user, err := s.svc.EnsureUser(r.Context(), externalId, name)
		if err != nil {
			s.writeError(w, err)
			return
		}

		ctx := WithPrincipal(r.Context(), Principal{
			UserId:     user.Id,
			ExternalId: user.ExternalId,
			Name:       user.DisplayName,
			IsStreamer: s.cfg.IsStreamer(user.ExternalId),
		})
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")

		next(w, r.WithContext(ctx))
	}
}

// streamerOnly admits authenticated callers on the streamer allowlist.
func (s *WakuworkApp) streamerOnly(next http.HandlerFunc) http.HandlerFunc {
	return s.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFrom(r.Context())
		if !ok || !p.IsStreamer {
			errResp := NewForbiddenError()
			errResp.Message = "streamer access required"
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		next(w, r)
	})
}

func noStore(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next(w, r)
	}
}
