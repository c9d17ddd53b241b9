package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/topicless/hub/internal/models"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
)

const userColumns = `id, email, password_hash, display_name, photo_url, is_admin, streak_count, last_active_date, created_at, updated_at`

type UserService struct {
	db DBConn
}

func NewUserService(db DBConn) *UserService {
	return &UserService{db: db}
}

func scanUser(row Row) (*models.User, error) {
	user := &models.User{}
	var passwordHash *string
	err := row.Scan(&user.ID, &user.Email, &passwordHash, &user.DisplayName, &user.PhotoURL,
		&user.IsAdmin, &user.StreakCount, &user.LastActiveDate, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if passwordHash != nil {
		user.PasswordHash = *passwordHash
	}
	return user, nil
}

func (s *UserService) Create(ctx context.Context, params models.CreateUserParams) (*models.User, error) {
	var exists bool
	err := s.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)", params.Email).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking email existence: %w", err)
	}
	if exists {
		return nil, ErrEmailAlreadyExists
	}

	var passwordHash *string
	if params.PasswordHash != "" {
		passwordHash = &params.PasswordHash
	}

	user, err := scanUser(s.db.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, display_name, photo_url)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+userColumns,
		params.Email, passwordHash, params.DisplayName, params.PhotoURL,
	))
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by id: %w", err)
	}
	return user, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return user, nil
}

func (s *UserService) UpdateDisplayName(ctx context.Context, userID uuid.UUID, displayName string) error {
	result, err := s.db.Exec(ctx,
		`UPDATE users SET display_name = $1, updated_at = NOW() WHERE id = $2`,
		displayName, userID,
	)
	if err != nil {
		return fmt.Errorf("updating display name: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// RecordActivity advances the daily streak: consecutive days increment it,
// a gap resets it to 1, a repeat visit on the same day leaves it alone.
func (s *UserService) RecordActivity(ctx context.Context, userID uuid.UUID, day time.Time) error {
	date := day.Format("2006-01-02")
	_, err := s.db.Exec(ctx,
		`UPDATE users SET
		    streak_count = CASE
		        WHEN last_active_date = $2::date THEN streak_count
		        WHEN last_active_date = $2::date - 1 THEN streak_count + 1
		        ELSE 1
		    END,
		    last_active_date = $2::date,
		    updated_at = NOW()
		 WHERE id = $1`,
		userID, date,
	)
	if err != nil {
		return fmt.Errorf("recording activity: %w", err)
	}
	return nil
}
