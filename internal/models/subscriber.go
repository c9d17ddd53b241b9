package models

import (
	"time"

	"github.com/google/uuid"
)

type Subscriber struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Confirmed   bool       `json:"confirmed"`
	CreatedAt   time.Time  `json:"created_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
}

type SubscriberCount struct {
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}
