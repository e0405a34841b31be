package jwtverify

import (
	"context"
	"net/http"
	"strings"

	commonerrors "github.com/devnla/backend-express/internal/common/errors"
	commonhttp "github.com/devnla/backend-express/internal/common/http"
	"github.com/devnla/backend-express/internal/common/logger"
)

type Verifier interface {
	VerifyToken(token string) (Claims, error)
}

type contextKey string

const claimsKey contextKey = "jwt_claims"

func Middleware(verifier Verifier, log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("Authorization")
			scheme, tokenString, found := strings.Cut(raw, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tokenString) == "" {
				log.WithFields(r.Context(), logger.Fields{
					"path":   r.URL.Path,
					"action": "jwt_missing_authorization",
				}).Warn("jwt auth failed: missing or invalid authorization header")
				commonhttp.HandleError(w, r, commonerrors.ErrMissingAuthorization, log)
				return
			}

			claims, err := verifier.VerifyToken(strings.TrimSpace(tokenString))
			if err != nil {
				log.WithFields(r.Context(), logger.Fields{
					"path":   r.URL.Path,
					"action": "jwt_verification_failed",
				}).Warnf("jwt auth failed: %v", err)
				commonhttp.HandleError(w, r, err, log)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func FromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(Claims)
	return claims, ok
}
