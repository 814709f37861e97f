package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"substrate/internal/ratelimit"
	"substrate/pkg/auth"
)

// Authenticate validates the bearer token on every request, injects the
// resulting auth.UserContext into request context, and applies a per-user
// LLM-quota rate limit ahead of any handler that might call out to a
// collaborator. guard may be nil, in which case rate limiting is skipped —
// useful for tests that construct a router without a configured Guard.
func Authenticate(validator *auth.JWTValidator, guard *ratelimit.Guard, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				respondUnauthorized(w, r, logger, "missing authentication token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				respondUnauthorized(w, r, logger, err.Error())
				return
			}

			if guard != nil {
				allowed, err := guard.AllowUser(r.Context(), ratelimit.QuotaLLM, claims.UserID)
				if err != nil {
					respondError(w, logger, http.StatusInternalServerError, "rate limit check failed")
					return
				}
				if !allowed {
					respondError(w, logger, http.StatusTooManyRequests, "rate limit exceeded")
					return
				}
			}

			userCtx := &auth.UserContext{
				UserID:   claims.UserID,
				TenantID: claims.TenantID,
				Email:    claims.Email,
				Roles:    claims.Roles,
				ClientID: claims.ClientID,
			}
			ctx := auth.SetUserInContext(r.Context(), userCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose authenticated user lacks role.
func RequireRole(role string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userCtx, err := auth.GetUserFromContext(r.Context())
			if err != nil {
				respondUnauthorized(w, r, logger, "unauthorized")
				return
			}
			for _, have := range userCtx.Roles {
				if have == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			respondError(w, logger, http.StatusForbidden, "missing required role: "+role)
		})
	}
}

func extractToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer"))
}

func getClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func respondUnauthorized(w http.ResponseWriter, r *http.Request, logger *zap.Logger, reason string) {
	logger.Debug("authentication failed", zap.String("reason", reason), zap.String("client_ip", getClientIP(r)))
	respondError(w, logger, http.StatusUnauthorized, "unauthorized: "+reason)
}

func respondError(w http.ResponseWriter, logger *zap.Logger, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"error": true, "message": message, "code": status,
	}); err != nil {
		logger.Error("failed to encode error response", zap.Error(err))
	}
}
