package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/casedock/casedock-api/config"
	"github.com/casedock/casedock-api/models"
)

// New creates a new mux router with the health check and the request logging
// and timeout middleware installed
func New(timeout time.Duration) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestLogger)
	if timeout > 0 {
		r.Use(TimeoutMiddleware(timeout))
	}
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	return r
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, models.HealthCheckResponse{Alive: true})
}

// WriteJSON marshals v and writes it with the given status
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
