package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"arbor/pkg/auth"
)

// Authenticate validates the bearer token on every request and puts
// the caller's identity into the request context. Rate limiting runs
// per client IP before validation and per user after it.
func Authenticate(jwtService *auth.JWTService, requestsPerMinute int, logger *zap.Logger) func(next http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	var ipLimiter *auth.IPRateLimiter
	var userLimiter *auth.UserRateLimiter
	if requestsPerMinute > 0 {
		ipLimiter = auth.NewIPRateLimiter(requestsPerMinute)
		userLimiter = auth.NewUserRateLimiter(requestsPerMinute * 2)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ipLimiter != nil {
				allowed, _ := ipLimiter.Allow(r.Context(), getClientIP(r))
				if !allowed {
					respondWithError(w, http.StatusTooManyRequests, "Rate limit exceeded")
					return
				}
			}

			token := extractToken(r)
			if token == "" {
				respondUnauthorized(w, "Missing authentication token")
				return
			}

			claims, err := jwtService.ValidateToken(token)
			if err != nil {
				logger.Warn("invalid token",
					zap.Error(err),
					zap.String("path", r.URL.Path),
				)
				switch {
				case errors.Is(err, auth.ErrExpiredToken):
					respondUnauthorized(w, "Token has expired")
				case errors.Is(err, auth.ErrInvalidSignature):
					respondUnauthorized(w, "Invalid token signature")
				default:
					respondUnauthorized(w, "Invalid token")
				}
				return
			}

			if userLimiter != nil {
				allowed, _ := userLimiter.Allow(r.Context(), claims.UserID)
				if !allowed {
					respondWithError(w, http.StatusTooManyRequests, "User rate limit exceeded")
					return
				}
			}

			userCtx := &auth.UserContext{
				UserID:   claims.UserID,
				Username: claims.Username,
				Role:     claims.Role,
			}
			ctx := auth.SetUserInContext(r.Context(), userCtx)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated callers whose role is not in the
// allowed set
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := auth.GetUserFromContext(r.Context())
			if err != nil {
				respondUnauthorized(w, "Unauthorized")
				return
			}

			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			respondWithError(w, http.StatusForbidden, "Insufficient permissions")
		})
	}
}

// extractToken pulls the JWT from the Authorization header or the
// auth_token cookie
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
		return authHeader
	}

	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}
	return ""
}

// getClientIP extracts the client IP address
func getClientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}

	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return xri
	}

	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}

// respondUnauthorized sends an unauthorized response
func respondUnauthorized(w http.ResponseWriter, message string) {
	respondWithError(w, http.StatusUnauthorized, message)
}

// respondWithError sends an error response with a specific status code
func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"message": message,
		"code":    code,
	})
}
