package models

import (
	"time"

	"github.com/google/uuid"
)

// AllowedIdeaReactions are the reaction tags an idea accepts.
var AllowedIdeaReactions = []string{"🔥", "💭"}

type Idea struct {
	ID         uuid.UUID `json:"id"`
	Text       string    `json:"text"`
	AuthorID   uuid.UUID `json:"author_id"`
	AuthorName string    `json:"author_name"`
	// Date is the submission day in YYYY-MM-DD form; one idea per author per day.
	Date      string     `json:"date"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	// Reactions maps a tag to the ids of users who toggled it on.
	Reactions map[string][]uuid.UUID `json:"reactions"`
}

// ReactionCount is the total membership across all of an idea's tags.
func (i Idea) ReactionCount() int {
	total := 0
	for _, users := range i.Reactions {
		total += len(users)
	}
	return total
}

type LeaderboardEntry struct {
	AuthorID   uuid.UUID `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Score      int       `json:"score"`
}
