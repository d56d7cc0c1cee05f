package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/honeynil/BrrowMarketplace/internal/infrastructure/redis"
	pkgerrors "github.com/honeynil/BrrowMarketplace/pkg/errors"
)

type contextKey struct{}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}

// ErrorWriter renders an authentication failure in the API's error envelope.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

func AuthMiddleware(redisClient redis.RedisClient, issuer *TokenIssuer, writeError ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, r, fmt.Errorf("%w: authorization header missing", pkgerrors.ErrUnauthorized))
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeError(w, r, fmt.Errorf("%w: invalid authorization header", pkgerrors.ErrUnauthorized))
				return
			}

			tokenStr := parts[1]
			claims, err := issuer.ValidateJWT(tokenStr)
			if err != nil {
				slog.Warn("invalid token", "error", err)
				writeError(w, r, fmt.Errorf("%w: invalid token", pkgerrors.ErrUnauthorized))
				return
			}

			// Logout deletes the stored token, so a valid signature is not enough.
			storedToken, err := redisClient.Get(r.Context(), redis.TokenKey(claims.Subject))
			if err != nil || storedToken != tokenStr {
				slog.Error("invalid or revoked token", "user_id", claims.Subject, "error", err)
				writeError(w, r, fmt.Errorf("%w: invalid or revoked token", pkgerrors.ErrUnauthorized))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.Subject)))
		})
	}
}
