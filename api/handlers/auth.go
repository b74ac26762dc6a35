package handlers

import (
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/casedock/casedock-api/api"
	"github.com/casedock/casedock-api/apperrors"
	"github.com/casedock/casedock-api/config"
	"github.com/casedock/casedock-api/databases"
	"github.com/casedock/casedock-api/models"
	"github.com/casedock/casedock-api/sanitize"
)

// Auth exported for testing purposes
type Auth struct {
	DB       databases.UserDatabase
	Sessions *api.SessionManager
}

type signupRequest struct {
	FullName         models.FullName `json:"fullName"`
	Email            string          `json:"email"`
	EnrollmentNumber string          `json:"enrollmentNumber"`
	Password         string          `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileResponse struct {
	Message string              `json:"message"`
	Data    models.UserProfile `json:"data"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignupHandler creates a user
func (a Auth) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		config.ErrorResponse(w, err)
		return
	}

	now := time.Now().UTC()
	user := models.User{
		ID: primitive.NewObjectID(),
		FullName: models.FullName{
			FirstName: sanitize.Text(req.FullName.FirstName),
			LastName:  sanitize.Text(req.FullName.LastName),
		},
		Email:            normalizeEmail(req.Email),
		EnrollmentNumber: sanitize.Text(req.EnrollmentNumber),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if user.FullName.FirstName == "" || user.FullName.LastName == "" || user.Email == "" ||
		user.EnrollmentNumber == "" || req.Password == "" {
		config.ErrorResponse(w, apperrors.Validation("All fields are required"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	_, err := a.DB.FindOne(ctx, bson.M{"email": user.Email})
	if err == nil {
		config.ErrorResponse(w, apperrors.ErrEmailTaken)
		return
	}
	if !databases.IsNoDocuments(err) {
		config.ErrorResponse(w, apperrors.Internal(err))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorResponse(w, apperrors.Validation("Invalid password"))
		return
	}
	user.Password = string(hash)

	if _, err := a.DB.InsertOne(ctx, user); err != nil {
		if databases.IsDuplicateKey(err) {
			config.ErrorResponse(w, apperrors.ErrEmailTaken)
			return
		}
		config.ErrorResponse(w, apperrors.Internal(err))
		return
	}

	zap.S().Infow("user signed up", "userId", user.ID.Hex())
	api.WriteJSON(w, http.StatusCreated, profileResponse{Message: "User created successfully", Data: user.Profile()})
}

// LoginHandler checks the credentials and sets the session cookie
func (a Auth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		config.ErrorResponse(w, err)
		return
	}
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		config.ErrorResponse(w, apperrors.Validation("All fields are required"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := a.DB.FindOne(ctx, bson.M{"email": email})
	if err != nil {
		if databases.IsNoDocuments(err) {
			config.ErrorResponse(w, apperrors.ErrInvalidCredentials)
			return
		}
		config.ErrorResponse(w, apperrors.Internal(err))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		config.ErrorResponse(w, apperrors.ErrInvalidCredentials)
		return
	}

	token, expires, err := a.Sessions.Issue(user.ID)
	if err != nil {
		config.ErrorResponse(w, apperrors.Internal(err))
		return
	}
	a.Sessions.SetCookie(w, token, expires)
	api.WriteJSON(w, http.StatusOK, profileResponse{Message: "Login successful", Data: user.Profile()})
}

// MeHandler returns the profile of the signed in user
func (a Auth) MeHandler(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, profileResponse{Message: "User found", Data: user.Profile()})
}

// LogoutHandler revokes the session token, if any, and clears the cookie
func (a Auth) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if token, err := a.Sessions.TokenFrom(r); err == nil {
		if err := a.Sessions.Revoke(r.Context(), token); err != nil {
			config.ErrorResponse(w, apperrors.Internal(err))
			return
		}
	}
	a.Sessions.ClearCookie(w)
	message(w, http.StatusOK, "Logout successful")
}
