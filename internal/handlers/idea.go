package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/topicless/hub/internal/services"
)

type IdeaHandler struct {
	ideas services.IdeaServiceInterface
}

func NewIdeaHandler(ideas services.IdeaServiceInterface) *IdeaHandler {
	return &IdeaHandler{ideas: ideas}
}

type CreateIdeaRequest struct {
	Text string `json:"text"`
}

func (h *IdeaHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req CreateIdeaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	idea, err := h.ideas.Create(r.Context(), user.ID, req.Text)
	if errors.Is(err, services.ErrEmptyText) {
		writeError(w, http.StatusBadRequest, "Idea text is required")
		return
	}
	if errors.Is(err, services.ErrIdeaExistsToday) {
		writeError(w, http.StatusConflict, "You already shared an idea today")
		return
	}
	if err != nil {
		log.Printf("Error creating idea: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, idea)
}

// List accepts ?sort=latest|popular.
func (h *IdeaHandler) List(w http.ResponseWriter, r *http.Request) {
	order := services.IdeaSort(r.URL.Query().Get("sort"))
	ideas, err := h.ideas.List(r.Context(), order)
	if errors.Is(err, services.ErrUnknownIdeaSort) {
		writeError(w, http.StatusBadRequest, "Unknown sort order")
		return
	}
	if err != nil {
		log.Printf("Error listing ideas: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, ideas)
}

func (h *IdeaHandler) Random(w http.ResponseWriter, r *http.Request) {
	idea, err := h.ideas.Random(r.Context())
	if errors.Is(err, services.ErrNoIdeas) {
		writeError(w, http.StatusNotFound, "No ideas yet")
		return
	}
	if err != nil {
		log.Printf("Error picking random idea: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, idea)
}

func (h *IdeaHandler) ToggleReaction(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	ideaID, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid idea ID")
		return
	}

	var req ToggleReactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	active, err := h.ideas.ToggleReaction(r.Context(), ideaID, user.ID, req.Tag)
	if errors.Is(err, services.ErrIdeaReactionType) {
		writeError(w, http.StatusBadRequest, "Unknown reaction")
		return
	}
	if errors.Is(err, services.ErrIdeaNotFound) {
		writeError(w, http.StatusNotFound, "Idea not found")
		return
	}
	if err != nil {
		log.Printf("Error toggling idea reaction: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, ToggleReactionResponse{Active: active})
}

func (h *IdeaHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.ideas.Leaderboard(r.Context())
	if err != nil {
		log.Printf("Error building leaderboard: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *IdeaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	ideaID, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid idea ID")
		return
	}

	err = h.ideas.Delete(r.Context(), ideaID, user.ID, user.IsAdmin)
	if errors.Is(err, services.ErrIdeaNotFound) {
		writeError(w, http.StatusNotFound, "Idea not found")
		return
	}
	if errors.Is(err, services.ErrNotIdeaAuthor) {
		writeError(w, http.StatusForbidden, "Only the author can delete this idea")
		return
	}
	if err != nil {
		log.Printf("Error deleting idea: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Idea deleted"})
}
