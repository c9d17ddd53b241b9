package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/topicless/hub/internal/middleware"
	"github.com/topicless/hub/internal/models"
)

const cookieMaxAge = 30 * 24 * 60 * 60

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// GetUserFromContext returns the authenticated user, or nil.
func GetUserFromContext(ctx context.Context) *models.User {
	return middleware.UserFromContext(ctx)
}

func parsePathID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(r.PathValue(name))
}
