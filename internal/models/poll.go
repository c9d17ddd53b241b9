package models

import (
	"time"

	"github.com/google/uuid"
)

type Poll struct {
	ID         uuid.UUID    `json:"id"`
	Question   string       `json:"question"`
	Options    []PollOption `json:"options"`
	AuthorID   uuid.UUID    `json:"author_id"`
	AuthorName string       `json:"author_name"`
	GifURL     *string      `json:"gif_url,omitempty"`
	VoteCount  int          `json:"vote_count"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  *time.Time   `json:"updated_at,omitempty"`
}

type PollOption struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	VoteCount int       `json:"vote_count"`
}

// PollVote is a user's current choice on a poll. At most one exists
// per (poll, user); a new vote supersedes the previous one.
type PollVote struct {
	PollID    uuid.UUID `json:"poll_id"`
	OptionID  uuid.UUID `json:"option_id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type CreatePollParams struct {
	Question string
	Options  []string
	GifURL   *string
}
