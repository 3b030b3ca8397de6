// Package handlers implements the keyword-tracker HTTP API. Probe handlers
// are plain echo handlers; everything under /api/v1 is registered through huma.
package handlers

// StatusResponse is the liveness probe body.
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// ReadyResponse is the readiness probe body. Checks maps each dependency to
// "ok" or a short failure description.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
