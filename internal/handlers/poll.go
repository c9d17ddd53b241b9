package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/topicless/hub/internal/models"
	"github.com/topicless/hub/internal/services"
)

type PollHandler struct {
	polls services.PollServiceInterface
}

func NewPollHandler(polls services.PollServiceInterface) *PollHandler {
	return &PollHandler{polls: polls}
}

type CreatePollRequest struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	GifURL   *string  `json:"gif_url,omitempty"`
}

type VoteRequest struct {
	OptionID uuid.UUID `json:"option_id"`
}

type PollListResponse struct {
	Polls []models.Poll `json:"polls"`
	// UserVotes maps poll id to the caller's chosen option, when signed in.
	UserVotes map[uuid.UUID]uuid.UUID `json:"user_votes,omitempty"`
}

func (h *PollHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req CreatePollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	poll, err := h.polls.Create(r.Context(), user.ID, models.CreatePollParams{
		Question: req.Question,
		Options:  req.Options,
		GifURL:   req.GifURL,
	})
	switch {
	case errors.Is(err, services.ErrTooFewOptions):
		writeError(w, http.StatusBadRequest, "A poll needs at least two options")
		return
	case errors.Is(err, services.ErrTooManyOptions):
		writeError(w, http.StatusBadRequest, "Too many options")
		return
	case errors.Is(err, services.ErrEmptyPollOption):
		writeError(w, http.StatusBadRequest, "Poll question is required")
		return
	case err != nil:
		log.Printf("Error creating poll: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, poll)
}

func (h *PollHandler) List(w http.ResponseWriter, r *http.Request) {
	polls, err := h.polls.List(r.Context())
	if err != nil {
		log.Printf("Error listing polls: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	resp := PollListResponse{Polls: polls}
	if user := GetUserFromContext(r.Context()); user != nil {
		votes, err := h.polls.UserVotes(r.Context(), user.ID)
		if err != nil {
			log.Printf("Error listing user votes: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		resp.UserVotes = votes
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *PollHandler) Get(w http.ResponseWriter, r *http.Request) {
	pollID, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid poll ID")
		return
	}

	poll, err := h.polls.Get(r.Context(), pollID)
	if errors.Is(err, services.ErrPollNotFound) {
		writeError(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		log.Printf("Error getting poll: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, poll)
}

// Vote applies the caller's choice and returns the refreshed poll so the
// client can render the new counts without a second round trip.
func (h *PollHandler) Vote(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	pollID, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid poll ID")
		return
	}

	var req VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	poll, err := h.polls.Vote(r.Context(), pollID, user.ID, req.OptionID)
	if errors.Is(err, services.ErrPollNotFound) {
		writeError(w, http.StatusNotFound, "Poll not found")
		return
	}
	if errors.Is(err, services.ErrInvalidOption) {
		writeError(w, http.StatusBadRequest, "Option does not belong to this poll")
		return
	}
	if err != nil {
		log.Printf("Error voting on poll: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, poll)
}

// Votes returns the caller's current choice per poll.
func (h *PollHandler) Votes(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	votes, err := h.polls.UserVotes(r.Context(), user.ID)
	if err != nil {
		log.Printf("Error listing user votes: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, votes)
}

func (h *PollHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	pollID, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid poll ID")
		return
	}

	err = h.polls.Delete(r.Context(), pollID, user.ID, user.IsAdmin)
	if errors.Is(err, services.ErrPollNotFound) {
		writeError(w, http.StatusNotFound, "Poll not found")
		return
	}
	if errors.Is(err, services.ErrNotPollAuthor) {
		writeError(w, http.StatusForbidden, "Only the author can delete this poll")
		return
	}
	if err != nil {
		log.Printf("Error deleting poll: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Poll deleted"})
}
