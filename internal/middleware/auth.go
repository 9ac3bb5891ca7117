// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/auratrack/auratrack-api/internal/authz"
	"github.com/auratrack/auratrack-api/internal/core"
)

const ClaimsKey contextKey = "jwt_claims"

type TokenVerifier interface {
	VerifyAccessToken(
		ctx context.Context,
		token string,
	) (*AccessTokenClaims, error)
}

type AccessTokenClaims struct {
	UserID    string
	Email     string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

// Identify resolves the caller once per request. A missing, expired,
// revoked or malformed token leaves the request anonymous; each operation
// decides for itself whether that is acceptable.
func Identify(
	verifier TokenVerifier,
	cookieName string,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r, cookieName)

			if token != "" {
				claims, err := verifier.VerifyAccessToken(r.Context(), token)
				if err == nil {
					r = r.WithContext(withClaims(r.Context(), claims))
				} else {
					slog.DebugContext(r.Context(), "session token rejected",
						"request_id", GetRequestID(r.Context()),
						"error", err,
					)
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin guards plain REST routes mounted next to the GraphQL
// endpoint. It must run after Identify.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := authz.FromContext(r.Context())
		if err := authz.Authorize(id, authz.RoleAdmin); err != nil {
			core.JSONError(w, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ExtractToken prefers the session cookie and falls back to a bearer
// header for non-browser clients.
func ExtractToken(r *http.Request, cookieName string) string {
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			return c.Value
		}
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func withClaims(ctx context.Context, claims *AccessTokenClaims) context.Context {
	ctx = authz.WithIdentity(ctx, &authz.Identity{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	})
	return context.WithValue(ctx, ClaimsKey, claims)
}

func GetClaims(ctx context.Context) *AccessTokenClaims {
	if claims, ok := ctx.Value(ClaimsKey).(*AccessTokenClaims); ok {
		return claims
	}
	return nil
}
