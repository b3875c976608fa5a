package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/civicpulse/grievance-server/internal/auth"
	"github.com/civicpulse/grievance-server/internal/models"
	"go.uber.org/zap"
)

// TokenVerifier checks a bearer token. *auth.Codec implements it.
type TokenVerifier interface {
	Verify(token string, now time.Time) (models.Principal, error)
}

// Authenticate resolves the request principal from the Authorization header.
// Paths under an exempt prefix skip token checks. A missing or invalid token
// never rejects the request here: it continues anonymous and Authorize
// decides. The failure kind only reaches the debug log.
func Authenticate(verifier TokenVerifier, exemptPrefixes []string, logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range exemptPrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			tokenStr, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				logger.Debugw("No bearer token", "path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}

			principal, err := verifier.Verify(tokenStr, time.Now())
			if err != nil {
				logger.Debugw("Rejected bearer token",
					"path", r.URL.Path,
					"reason", tokenFailure(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}

// Authorize enforces the route policy against the principal Authenticate
// attached (if any).
func Authorize(policy *auth.Policy, logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var principal *models.Principal
			if p, ok := auth.PrincipalFrom(r.Context()); ok {
				principal = &p
			}

			switch policy.Evaluate(r.Method, r.URL.Path, principal) {
			case auth.Unauthenticated:
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			case auth.Forbidden:
				logger.Infow("Forbidden request",
					"method", r.Method,
					"path", r.URL.Path,
					"role", principal.Role,
				)
				writeError(w, http.StatusForbidden, "Access denied")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func tokenFailure(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpired):
		return "expired"
	case errors.Is(err, auth.ErrInvalidSignature):
		return "invalid_signature"
	default:
		return "malformed"
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + message + `"}`))
}
