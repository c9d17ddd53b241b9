package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/topicless/hub/internal/services"
)

// OGImageHandler renders share cards for link previews.
type OGImageHandler struct {
	polls services.PollServiceInterface
}

func NewOGImageHandler(polls services.PollServiceInterface) *OGImageHandler {
	return &OGImageHandler{polls: polls}
}

// Poll serves GET /og/polls/{id}.png.
func (h *OGImageHandler) Poll(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSuffix(r.PathValue("id"), ".png")
	pollID, err := uuid.Parse(raw)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	poll, err := h.polls.Get(r.Context(), pollID)
	if errors.Is(err, services.ErrPollNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		log.Printf("Error loading poll for share image: %v", err)
		http.Error(w, "Failed to render image", http.StatusInternalServerError)
		return
	}

	data, err := services.RenderPollPNG(*poll)
	if err != nil {
		log.Printf("Error rendering share image: %v", err)
		http.Error(w, "Failed to render image", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	// Counts move, so cache briefly.
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
