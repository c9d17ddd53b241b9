package models

import (
	"time"

	"github.com/google/uuid"
)

type WyrChoice string

const (
	WyrChoiceA WyrChoice = "A"
	WyrChoiceB WyrChoice = "B"
)

func (c WyrChoice) Valid() bool {
	return c == WyrChoiceA || c == WyrChoiceB
}

type WyrQuestion struct {
	ID         uuid.UUID  `json:"id"`
	OptionA    string     `json:"option_a"`
	OptionB    string     `json:"option_b"`
	AuthorID   uuid.UUID  `json:"author_id"`
	AuthorName string     `json:"author_name"`
	VotesA     int        `json:"votes_a"`
	VotesB     int        `json:"votes_b"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

type WyrVote struct {
	QuestionID uuid.UUID `json:"question_id"`
	UserID     uuid.UUID `json:"user_id"`
	Choice     WyrChoice `json:"choice"`
	CreatedAt  time.Time `json:"created_at"`
}

type WyrComment struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	Text       string    `json:"text"`
	AuthorID   uuid.UUID `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Choice     WyrChoice `json:"choice"`
	CreatedAt  time.Time `json:"created_at"`
}
