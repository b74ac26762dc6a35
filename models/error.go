package models

// MessageResponse is the body of every error response and of mutations that
// return nothing else
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthCheckResponse returns the health check response duh
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}
