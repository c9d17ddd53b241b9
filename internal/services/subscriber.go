package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/topicless/hub/internal/models"
)

var (
	ErrAlreadySubscribed = errors.New("email already subscribed")
	ErrInvalidToken      = errors.New("invalid confirmation token")
	ErrInvalidEmail      = errors.New("invalid email address")
)

type SubscriberService struct {
	db      DB
	email   EmailSender
	baseURL string
}

func NewSubscriberService(db DB, email EmailSender, baseURL string) *SubscriberService {
	return &SubscriberService{db: db, email: email, baseURL: baseURL}
}

// Subscribe stores a pending subscription and mails a confirmation link.
// Only the SHA-256 of the token is stored; the raw token exists only in
// the email.
func (s *SubscriberService) Subscribe(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}

	token, tokenHash, err := newConfirmToken()
	if err != nil {
		return fmt.Errorf("generating confirm token: %w", err)
	}

	var confirmed bool
	err = s.db.QueryRow(ctx,
		`INSERT INTO subscribers (email, confirm_token_hash)
		 VALUES ($1, $2)
		 ON CONFLICT (email) DO UPDATE
		   SET confirm_token_hash = CASE WHEN subscribers.confirmed THEN subscribers.confirm_token_hash ELSE $2 END
		 RETURNING confirmed`,
		email, tokenHash,
	).Scan(&confirmed)
	if err != nil {
		return fmt.Errorf("storing subscriber: %w", err)
	}
	if confirmed {
		return ErrAlreadySubscribed
	}

	link := fmt.Sprintf("%s/api/subscribers/confirm?token=%s", s.baseURL, token)
	body := fmt.Sprintf(`<p>Confirm your subscription to the weekly digest:</p><p><a href="%s">Confirm</a></p>`, link)
	if err := s.email.Send(ctx, email, "Confirm your subscription", body); err != nil {
		return fmt.Errorf("sending confirmation: %w", err)
	}
	return nil
}

// Confirm marks the subscription matching the token as confirmed.
func (s *SubscriberService) Confirm(ctx context.Context, token string) error {
	sum := sha256.Sum256([]byte(token))
	tokenHash := hex.EncodeToString(sum[:])

	result, err := s.db.Exec(ctx,
		`UPDATE subscribers
		 SET confirmed = TRUE, confirmed_at = NOW(), confirm_token_hash = NULL
		 WHERE confirm_token_hash = $1 AND NOT confirmed`,
		tokenHash,
	)
	if err != nil {
		return fmt.Errorf("confirming subscriber: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrInvalidToken
	}
	return nil
}

// Unsubscribe drops the subscription if present. Unknown emails succeed
// so the endpoint does not leak membership.
func (s *SubscriberService) Unsubscribe(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM subscribers WHERE email = $1`, email); err != nil {
		return fmt.Errorf("removing subscriber: %w", err)
	}
	return nil
}

// Count returns the number of confirmed subscribers.
func (s *SubscriberService) Count(ctx context.Context) (*models.SubscriberCount, error) {
	count := &models.SubscriberCount{UpdatedAt: time.Now().UTC()}
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM subscribers WHERE confirmed`,
	).Scan(&count.Count)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("counting subscribers: %w", err)
	}
	return count, nil
}

func newConfirmToken() (token, tokenHash string, err error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(raw)
	sum := sha256.Sum256([]byte(token))
	return token, hex.EncodeToString(sum[:]), nil
}
