package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionNotFound    = errors.New("session not found")
)

const (
	sessionKeyPrefix = "session:"
	sessionTTL       = 30 * 24 * time.Hour
)

// AuthService owns password hashing and Redis-backed sessions.
type AuthService struct {
	db    DBConn
	redis RedisClient
}

func NewAuthService(db DBConn, redis RedisClient) *AuthService {
	return &AuthService{db: db, redis: redis}
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

func (s *AuthService) VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// CreateSession stores an opaque token for the user and returns it.
func (s *AuthService) CreateSession(ctx context.Context, userID uuid.UUID) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	token := hex.EncodeToString(buf)

	if err := s.redis.Set(ctx, sessionKeyPrefix+token, userID.String(), sessionTTL); err != nil {
		return "", fmt.Errorf("storing session: %w", err)
	}
	return token, nil
}

// ValidateSession resolves a token to a user id and slides the expiry.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, ErrSessionNotFound
	}

	value, err := s.redis.Get(ctx, sessionKeyPrefix+token)
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrSessionNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("reading session: %w", err)
	}

	userID, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, ErrSessionNotFound
	}

	if err := s.redis.Expire(ctx, sessionKeyPrefix+token, sessionTTL); err != nil {
		return uuid.Nil, fmt.Errorf("refreshing session: %w", err)
	}
	return userID, nil
}

func (s *AuthService) DeleteSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.redis.Del(ctx, sessionKeyPrefix+token); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}
