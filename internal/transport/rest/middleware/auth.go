package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"

	"quizroom/internal/model"
	"quizroom/internal/service"
)

type contextKey string

const identityKey contextKey = "identity"

// GuestTokenHeader carries the room-scoped token issued to guests on join
const GuestTokenHeader = "X-Guest-Token"

// AuthMiddleware resolves the caller from session and guest tokens
type AuthMiddleware struct {
	authSvc    *service.AuthService
	cookieName string
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authSvc *service.AuthService, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{authSvc: authSvc, cookieName: cookieName}
}

// Identify places the caller's identity in the request context. Missing or
// invalid tokens leave the caller anonymous; RequireUser decides whether
// that is acceptable.
func (m *AuthMiddleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id model.Identity

		if token := m.sessionToken(r); token != "" {
			user, err := m.authSvc.Authenticate(r.Context(), token)
			switch {
			case errors.Is(err, service.ErrInvalidToken):
				hlog.FromRequest(r).Debug().Err(err).Msg("ignoring invalid session token")
			case err != nil:
				hlog.FromRequest(r).Error().Err(err).Msg("failed to resolve session")
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
				return
			default:
				id = user
			}
		}

		if token := r.Header.Get(GuestTokenHeader); token != "" {
			claims, err := m.authSvc.ParseGuestToken(token)
			if err != nil {
				hlog.FromRequest(r).Debug().Err(err).Msg("ignoring invalid guest token")
			} else {
				id.GuestID = claims.ParticipantID
				id.GuestRoomID = claims.RoomID
				id.GuestName = claims.Name
			}
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequireUser rejects requests without a valid session
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !GetIdentity(r.Context()).Authenticated {
			writeJSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *AuthMiddleware) sessionToken(r *http.Request) string {
	if token := extractBearerToken(r); token != "" {
		return token
	}
	if c, err := r.Cookie(m.cookieName); err == nil {
		return c.Value
	}
	return ""
}

// WithIdentity returns a copy of ctx carrying id
func WithIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// GetIdentity extracts the caller from context. Anonymous when absent.
func GetIdentity(ctx context.Context) model.Identity {
	if v, ok := ctx.Value(identityKey).(model.Identity); ok {
		return v
	}
	return model.Identity{}
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
