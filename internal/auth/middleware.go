package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/kalori-makanan/dashboard-api/internal/keys"
	"github.com/kalori-makanan/dashboard-api/internal/usage"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	APIKeyIDKey contextKey = "api_key_id"
)

// AuthMiddleware admits requests carrying either a valid X-API-Key header or
// an auth_token JWT cookie. The API-key path is the accounting layer: every
// admitted request stamps last_used_at and appends one rate-limit log row;
// requests over the per-minute quota are rejected with 429 before logging.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. API key header
		secret := r.Header.Get("X-API-Key")
		if secret != "" {
			key, err := h.keys.FindBySecret(r.Context(), secret)
			switch {
			case err == nil:
				if !key.IsActive {
					http.Error(w, "Unauthorized: API key is disabled", http.StatusUnauthorized)
					return
				}

				count, err := h.usage.MinuteCount(r.Context(), key.ID)
				if err != nil {
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}
				if count >= usage.LimitPerMinute {
					http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
					return
				}

				// A request that cannot be logged is not admitted.
				if err := h.usage.Record(r.Context(), key.ID, r.URL.Path); err != nil {
					h.log.WithError(err).Error("Failed to record request")
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}

				ctx := context.WithValue(r.Context(), UserIDKey, key.UserID)
				ctx = context.WithValue(ctx, APIKeyIDKey, key.ID)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			case errors.Is(err, keys.ErrNotFoundOrUnauthorized):
				// Unknown key: fall through to the cookie session.
			default:
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
		}

		// 2. Fallback to JWT cookie
		cookie, err := r.Cookie("auth_token")
		if err != nil {
			if err == http.ErrNoCookie {
				http.Error(w, "Unauthorized: No token found", http.StatusUnauthorized)
				return
			}
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}

		userID, exp, err := h.parseToken(cookie.Value)
		if err != nil {
			http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
			return
		}

		// Sliding session: refresh the token once it is past the halfway
		// point of its duration.
		if !exp.IsZero() && time.Until(exp) < TokenDuration/2 {
			if newToken, terr := h.GenerateToken(userID); terr == nil {
				http.SetCookie(w, &http.Cookie{
					Name:     "auth_token",
					Value:    newToken,
					Expires:  time.Now().Add(TokenDuration),
					HttpOnly: true,
					Path:     "/",
				})
			}
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
