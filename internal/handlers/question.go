package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/topicless/hub/internal/models"
	"github.com/topicless/hub/internal/services"
)

type QuestionHandler struct {
	questions services.QuestionServiceInterface
}

func NewQuestionHandler(questions services.QuestionServiceInterface) *QuestionHandler {
	return &QuestionHandler{questions: questions}
}

type CreateQuestionRequest struct {
	Text string `json:"text"`
}

type AnswerRequest struct {
	Text      string `json:"text"`
	Anonymous bool   `json:"anonymous"`
}

type ToggleReactionRequest struct {
	Tag string `json:"tag"`
}

type ToggleReactionResponse struct {
	Active bool `json:"active"`
}

func (h *QuestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req CreateQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	question, err := h.questions.Create(r.Context(), user.ID, req.Text)
	if errors.Is(err, services.ErrEmptyText) {
		writeError(w, http.StatusBadRequest, "Question text is required")
		return
	}
	if err != nil {
		log.Printf("Error creating question: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, question)
}

func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	questions, err := h.questions.List(r.Context())
	if err != nil {
		log.Printf("Error listing questions: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (h *QuestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	questionID, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid question ID")
		return
	}

	question, err := h.questions.Get(r.Context(), questionID)
	if errors.Is(err, services.ErrQuestionNotFound) {
		writeError(w, http.StatusNotFound, "Question not found")
		return
	}
	if err != nil {
		log.Printf("Error getting question: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	answers, err := h.questions.Answers(r.Context(), questionID)
	if err != nil {
		log.Printf("Error listing answers: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Question *models.Question `json:"question"`
		Answers  []models.Answer  `json:"answers"`
	}{Question: question, Answers: answers})
}

func (h *QuestionHandler) Answer(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	questionID, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid question ID")
		return
	}

	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	answer, err := h.questions.Answer(r.Context(), questionID, user.ID, req.Text, req.Anonymous)
	if errors.Is(err, services.ErrEmptyText) {
		writeError(w, http.StatusBadRequest, "Answer text is required")
		return
	}
	if errors.Is(err, services.ErrQuestionNotFound) {
		writeError(w, http.StatusNotFound, "Question not found")
		return
	}
	if err != nil {
		log.Printf("Error creating answer: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, answer)
}

func (h *QuestionHandler) ToggleReaction(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	answerID, err := parsePathID(r, "answerID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid answer ID")
		return
	}

	var req ToggleReactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	active, err := h.questions.ToggleReaction(r.Context(), answerID, user.ID, req.Tag)
	if errors.Is(err, services.ErrUnknownReaction) {
		writeError(w, http.StatusBadRequest, "Unknown reaction")
		return
	}
	if errors.Is(err, services.ErrAnswerNotFound) {
		writeError(w, http.StatusNotFound, "Answer not found")
		return
	}
	if err != nil {
		log.Printf("Error toggling reaction: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, ToggleReactionResponse{Active: active})
}

func (h *QuestionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	questionID, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid question ID")
		return
	}

	err = h.questions.Delete(r.Context(), questionID, user.ID, user.IsAdmin)
	if errors.Is(err, services.ErrQuestionNotFound) {
		writeError(w, http.StatusNotFound, "Question not found")
		return
	}
	if errors.Is(err, services.ErrNotQuestionAuthor) {
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
