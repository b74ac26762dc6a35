package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/casedock/casedock-api/apperrors"
	"github.com/casedock/casedock-api/config"
)

// SessionManager issues and resolves the signed session tokens carried in the
// auth cookie. Tokens expire after TTL and can be revoked before that.
type SessionManager struct {
	Secret     []byte
	Issuer     string
	TTL        time.Duration
	CookieName string
	Secure     bool
	Revoker    TokenRevoker
	Now        func() time.Time
}

// NewSessionManager builds a SessionManager from the config
func NewSessionManager(conf *config.Config, revoker TokenRevoker) *SessionManager {
	if revoker == nil {
		revoker = NewMemoryRevoker()
	}
	return &SessionManager{
		Secret:     []byte(conf.JWTSecret),
		Issuer:     conf.JWTIssuer,
		TTL:        conf.SessionTTL,
		CookieName: conf.CookieName,
		Secure:     conf.CookieSecure,
		Revoker:    revoker,
		Now:        time.Now,
	}
}

func (s *SessionManager) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Issue signs a new token for userID and returns it with its expiry
func (s *SessionManager) Issue(userID primitive.ObjectID) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.TTL)
	claims := jwt.RegisteredClaims{
		Subject:   userID.Hex(),
		Issuer:    s.Issuer,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

// parse verifies signature, issuer and expiry
func (s *SessionManager) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}
	if claims.ID == "" {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}

// Resolve returns the user id a live token was issued for
func (s *SessionManager) Resolve(ctx context.Context, token string) (primitive.ObjectID, error) {
	claims, err := s.parse(token)
	if err != nil {
		return primitive.NilObjectID, err
	}
	revoked, err := s.Revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return primitive.NilObjectID, apperrors.Internal(err)
	}
	if revoked {
		return primitive.NilObjectID, apperrors.ErrInvalidToken
	}
	id, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return primitive.NilObjectID, apperrors.ErrInvalidToken
	}
	return id, nil
}

// Revoke invalidates token until it would have expired. Tokens that no longer
// verify are already unusable and are ignored.
func (s *SessionManager) Revoke(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return nil
	}
	return s.Revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// TokenFrom reads the session token from the auth cookie
func (s *SessionManager) TokenFrom(r *http.Request) (string, error) {
	c, err := r.Cookie(s.CookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", apperrors.ErrUnauthenticated
		}
		return "", apperrors.ErrInvalidToken
	}
	if c.Value == "" {
		return "", apperrors.ErrUnauthenticated
	}
	return c.Value, nil
}

// SetCookie delivers token in an HTTP-only cookie
func (s *SessionManager) SetCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(expires.Sub(s.now()).Seconds()),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the auth cookie on the client
func (s *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
