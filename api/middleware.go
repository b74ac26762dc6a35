package api

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/casedock/casedock-api/apperrors"
	"github.com/casedock/casedock-api/config"
	"github.com/casedock/casedock-api/databases"
)

// MiddlewareDB holds what the auth middleware needs to resolve a session
type MiddlewareDB struct {
	DB       databases.UserDatabase
	Sessions *SessionManager
}

// Middleware resolves the session cookie to a user and puts it on the request
// context. Requests without a live session are rejected with 401.
func (m MiddlewareDB) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := m.Sessions.TokenFrom(r)
		if err != nil {
			config.ErrorResponse(w, err)
			return
		}

		ctx, cancel := WithQueryTimeout(r.Context())
		defer cancel()

		userID, err := m.Sessions.Resolve(ctx, token)
		if err != nil {
			zap.S().Debugw("unauthorized", "url", r.URL.Path, "error", err)
			config.ErrorResponse(w, err)
			return
		}
		user, err := m.DB.FindOne(ctx, bson.M{"_id": userID})
		if err != nil {
			if databases.IsNoDocuments(err) {
				config.ErrorResponse(w, apperrors.ErrUserNotFound)
				return
			}
			config.ErrorResponse(w, apperrors.Internal(err))
			return
		}

		zap.S().Debugw("user authenticated", "userId", user.ID.Hex())
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}
