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

type WyrHandler struct {
	wyr services.WyrServiceInterface
}

func NewWyrHandler(wyr services.WyrServiceInterface) *WyrHandler {
	return &WyrHandler{wyr: wyr}
}

type CreateWyrRequest struct {
	OptionA string `json:"option_a"`
	OptionB string `json:"option_b"`
}

type WyrVoteRequest struct {
	Choice models.WyrChoice `json:"choice"`
}

type WyrCommentRequest struct {
	Text string `json:"text"`
}

type WyrListResponse struct {
	Questions []models.WyrQuestion `json:"questions"`
	// UserVotes maps question id to the caller's side, when signed in.
	UserVotes map[uuid.UUID]models.WyrChoice `json:"user_votes,omitempty"`
}

func (h *WyrHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req CreateWyrRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	question, err := h.wyr.Create(r.Context(), user.ID, req.OptionA, req.OptionB)
	if errors.Is(err, services.ErrMissingOption) {
		writeError(w, http.StatusBadRequest, "Both options are required")
		return
	}
	if errors.Is(err, services.ErrIdenticalOption) {
		writeError(w, http.StatusBadRequest, "Options must differ")
		return
	}
	if err != nil {
		log.Printf("Error creating would-you-rather: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, question)
}

func (h *WyrHandler) List(w http.ResponseWriter, r *http.Request) {
	questions, err := h.wyr.List(r.Context())
	if err != nil {
		log.Printf("Error listing would-you-rathers: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	resp := WyrListResponse{Questions: questions}
	if user := GetUserFromContext(r.Context()); user != nil {
		votes, err := h.wyr.UserVotes(r.Context(), user.ID)
		if err != nil {
			log.Printf("Error listing user votes: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		resp.UserVotes = votes
	}

	writeJSON(w, http.StatusOK, resp)
}

// Votes returns the caller's current side per question.
func (h *WyrHandler) Votes(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	votes, err := h.wyr.UserVotes(r.Context(), user.ID)
	if err != nil {
		log.Printf("Error listing user votes: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, votes)
}

func (h *WyrHandler) Vote(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	questionID, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid question ID")
		return
	}

	var req WyrVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	question, err := h.wyr.Vote(r.Context(), questionID, user.ID, req.Choice)
	if errors.Is(err, services.ErrInvalidChoice) {
		writeError(w, http.StatusBadRequest, "Choice must be A or B")
		return
	}
	if errors.Is(err, services.ErrWyrNotFound) {
		writeError(w, http.StatusNotFound, "Question not found")
		return
	}
	if err != nil {
		log.Printf("Error voting: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, question)
}

func (h *WyrHandler) Comment(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	questionID, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid question ID")
		return
	}

	var req WyrCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	comment, err := h.wyr.Comment(r.Context(), questionID, user.ID, req.Text)
	if errors.Is(err, services.ErrEmptyText) {
		writeError(w, http.StatusBadRequest, "Comment text is required")
		return
	}
	if errors.Is(err, services.ErrWyrNotFound) {
		writeError(w, http.StatusNotFound, "Question not found")
		return
	}
	if errors.Is(err, services.ErrVoteRequired) {
		writeError(w, http.StatusForbidden, "Vote before commenting")
		return
	}
	if err != nil {
		log.Printf("Error commenting: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, comment)
}

func (h *WyrHandler) Comments(w http.ResponseWriter, r *http.Request) {
	questionID, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid question ID")
		return
	}

	comments, err := h.wyr.Comments(r.Context(), questionID)
	if err != nil {
		log.Printf("Error listing comments: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (h *WyrHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	questionID, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid question ID")
		return
	}

	err = h.wyr.Delete(r.Context(), questionID, user.ID, user.IsAdmin)
	if errors.Is(err, services.ErrWyrNotFound) {
		writeError(w, http.StatusNotFound, "Question not found")
		return
	}
	if errors.Is(err, services.ErrNotWyrAuthor) {
		writeError(w, http.StatusForbidden, "Only the author can delete this question")
		return
	}
	if err != nil {
		log.Printf("Error deleting question: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Question deleted"})
}
