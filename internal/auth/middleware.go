package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/BaamPark/WebLabelMV/internal/apperr"
	"github.com/BaamPark/WebLabelMV/internal/models"
	"go.uber.org/zap"
)

type contextKey struct{}

type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}

// Middleware resolves the bearer token to a user before next runs. Requests
// without a usable token are rejected with 403.
func Middleware(issuer *Issuer, users UserLookup, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				reject(w, "Token is missing")
				return
			}

			userID, err := issuer.Parse(raw)
			if err != nil {
				logger.Debug("rejecting token", zap.Error(err))
				reject(w, "Token is invalid")
				return
			}

			if _, err := users.GetUserByID(r.Context(), userID); err != nil {
				if !errors.Is(err, apperr.ErrNotFound) {
					logger.Error("failed to look up token user", zap.String("user_id", userID), zap.Error(err))
				}
				reject(w, "Token is invalid")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func reject(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
