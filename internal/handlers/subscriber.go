package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/topicless/hub/internal/services"
)

type SubscriberHandler struct {
	subscribers services.SubscriberServiceInterface
}

func NewSubscriberHandler(subscribers services.SubscriberServiceInterface) *SubscriberHandler {
	return &SubscriberHandler{subscribers: subscribers}
}

type SubscribeRequest struct {
	Email string `json:"email"`
}

func (h *SubscriberHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.subscribers.Subscribe(r.Context(), req.Email)
	if errors.Is(err, services.ErrInvalidEmail) {
		writeError(w, http.StatusBadRequest, "Invalid email address")
		return
	}
	if errors.Is(err, services.ErrAlreadySubscribed) {
		writeError(w, http.StatusConflict, "Already subscribed")
		return
	}
	if err != nil {
		log.Printf("Error subscribing: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusAccepted, MessageResponse{Message: "Check your inbox to confirm"})
}

func (h *SubscriberHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "Missing token")
		return
	}

	err := h.subscribers.Confirm(r.Context(), token)
	if errors.Is(err, services.ErrInvalidToken) {
		writeError(w, http.StatusBadRequest, "Invalid or expired token")
		return
	}
	if err != nil {
		log.Printf("Error confirming subscription: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Subscription confirmed"})
}

func (h *SubscriberHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.subscribers.Unsubscribe(r.Context(), req.Email)
	if errors.Is(err, services.ErrInvalidEmail) {
		writeError(w, http.StatusBadRequest, "Invalid email address")
		return
	}
	if err != nil {
		log.Printf("Error unsubscribing: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Unsubscribed"})
}

// Count is public so the landing page can show community size.
func (h *SubscriberHandler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.subscribers.Count(r.Context())
	if err != nil {
		log.Printf("Error counting subscribers: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, count)
}
