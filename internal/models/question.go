package models

import (
	"time"

	"github.com/google/uuid"
)

// AllowedAnswerReactions are the reaction tags an answer accepts.
var AllowedAnswerReactions = []string{"🔥", "❤️", "😆"}

type Question struct {
	ID          uuid.UUID  `json:"id"`
	Text        string     `json:"text"`
	AuthorID    uuid.UUID  `json:"author_id"`
	AuthorName  string     `json:"author_name"`
	AnswerCount int        `json:"answer_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

type Answer struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	Text       string    `json:"text"`
	AuthorID   uuid.UUID `json:"author_id"`
	// AuthorName is "Anonymous" when the answer was posted anonymously.
	AuthorName string    `json:"author_name"`
	Anonymous  bool      `json:"anonymous"`
	CreatedAt  time.Time `json:"created_at"`
	// Reactions maps a tag to the ids of users who toggled it on.
	Reactions map[string][]uuid.UUID `json:"reactions"`
}

type ReactionSummary struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}
