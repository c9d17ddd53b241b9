package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	DisplayName    string     `json:"display_name"`
	PhotoURL       *string    `json:"photo_url,omitempty"`
	IsAdmin        bool       `json:"is_admin"`
	StreakCount    int        `json:"streak_count"`
	LastActiveDate *time.Time `json:"last_active_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type CreateUserParams struct {
	Email        string
	PasswordHash string
	DisplayName  string
	PhotoURL     *string
}
