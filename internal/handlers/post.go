package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/topicless/hub/internal/models"
	"github.com/topicless/hub/internal/services"
)

// PostHandler serves admin announcements. Reads are public; writes sit
// behind the admin middleware.
type PostHandler struct {
	posts services.PostServiceInterface
}

func NewPostHandler(posts services.PostServiceInterface) *PostHandler {
	return &PostHandler{posts: posts}
}

type PostRequest struct {
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	YoutubeURL *string `json:"youtube_url,omitempty"`
	ImageURL   *string `json:"image_url,omitempty"`
	Featured   bool    `json:"featured"`
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req PostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	post, err := h.posts.Create(r.Context(), user.ID, models.CreateAdminPostParams{
		Title:      req.Title,
		Content:    req.Content,
		YoutubeURL: req.YoutubeURL,
		ImageURL:   req.ImageURL,
		Featured:   req.Featured,
	})
	if errors.Is(err, services.ErrMissingTitle) || errors.Is(err, services.ErrMissingBody) {
		writeError(w, http.StatusBadRequest, "Title and content are required")
		return
	}
	if err != nil {
		log.Printf("Error creating post: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.List(r.Context())
	if err != nil {
		log.Printf("Error listing posts: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	postID, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	post, err := h.posts.Get(r.Context(), postID)
	if errors.Is(err, services.ErrPostNotFound) {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		log.Printf("Error getting post: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *PostHandler) Featured(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.Featured(r.Context())
	if errors.Is(err, services.ErrNoFeatured) {
		writeError(w, http.StatusNotFound, "No featured post")
		return
	}
	if err != nil {
		log.Printf("Error getting featured post: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	postID, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	var req PostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	post, err := h.posts.Update(r.Context(), postID, models.CreateAdminPostParams{
		Title:      req.Title,
		Content:    req.Content,
		YoutubeURL: req.YoutubeURL,
		ImageURL:   req.ImageURL,
		Featured:   req.Featured,
	})
	if errors.Is(err, services.ErrPostNotFound) {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	if errors.Is(err, services.ErrEmptyPostEdit) {
		writeError(w, http.StatusBadRequest, "Nothing to update")
		return
	}
	if err != nil {
		log.Printf("Error updating post: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	postID, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	err = h.posts.Delete(r.Context(), postID)
	if errors.Is(err, services.ErrPostNotFound) {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		log.Printf("Error deleting post: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Post deleted"})
}
