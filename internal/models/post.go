package models

import (
	"time"

	"github.com/google/uuid"
)

type AdminPost struct {
	ID         uuid.UUID  `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	YoutubeURL *string    `json:"youtube_url,omitempty"`
	ImageURL   *string    `json:"image_url,omitempty"`
	AuthorID   uuid.UUID  `json:"author_id"`
	AuthorName string     `json:"author_name"`
	Featured   bool       `json:"featured"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

type CreateAdminPostParams struct {
	Title      string
	Content    string
	YoutubeURL *string
	ImageURL   *string
	Featured   bool
}
