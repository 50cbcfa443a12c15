package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
)

const (
	defaultJwtExpiration = time.Hour * 24
	tokenCookieKey       = "token"

	subjectClaim = "sub"
	nameClaim    = "name"
	expClaim     = "exp"
)

type contextKey string

const principalKey contextKey = "principal"

// Principal is the authenticated caller of a request.
type Principal struct {
	UserId     int
	ExternalId string
	Name       string
	IsStreamer bool
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)

	return p, ok
}

// IssueToken signs a principal token for externalId. The server only
// verifies these; issuing lives here so tooling shares the claim layout.
func IssueToken(signingKey []byte, externalId, name string, exp time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		subjectClaim: externalId,
		nameClaim:    name,
		expClaim:     time.Now().Add(exp).Unix(),
	})

	return token.SignedString(signingKey)
}

func (s *WakuworkApp) verifyToken(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return token, nil
}

// extractIdentity returns the subject and display name carried by a token.
func (s *WakuworkApp) extractIdentity(tokenString string) (string, string, error) {
	token, err := s.verifyToken(tokenString)
	if err != nil {
		return "", "", fmt.Errorf("verify token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", fmt.Errorf("invalid token claims")
	}

	subject, ok := claims[subjectClaim].(string)
	if !ok || strings.TrimSpace(subject) == "" {
		return "", "", fmt.Errorf("invalid subject claim")
	}
	name, _ := claims[nameClaim].(string)

	return subject, name, nil
}

// tokenFromRequest reads the token cookie, falling back to a bearer header.
func tokenFromRequest(r *http.Request) (string, bool) {
	if c, err := r.Cookie(tokenCookieKey); err == nil && c.Value != "" {
		return c.Value, true
	}

	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") && token != "" {
			return strings.TrimSpace(token), true
		}
	}

	return "", false
}
