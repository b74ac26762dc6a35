package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/casedock/casedock-api/api"
	"github.com/casedock/casedock-api/apperrors"
	"github.com/casedock/casedock-api/models"
)

// currentUser is the user put on the context by the auth middleware
func currentUser(r *http.Request) (*models.User, error) {
	u, ok := api.UserFromContext(r.Context())
	if !ok {
		return nil, apperrors.ErrUnauthenticated
	}
	return u, nil
}

// objectIDVar parses the route variable name as an ObjectID
func objectIDVar(r *http.Request, name, label string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)[name])
	if err != nil {
		return primitive.NilObjectID, apperrors.Validation("Invalid " + label)
	}
	return id, nil
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return apperrors.Validation("Invalid request body")
	}
	return nil
}

// message is the body of responses that carry only a message
func message(w http.ResponseWriter, status int, msg string) {
	api.WriteJSON(w, status, models.MessageResponse{Message: msg})
}
