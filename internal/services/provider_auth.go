package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/topicless/hub/internal/models"
)

var (
	ErrInvalidProviderClaims   = errors.New("invalid provider claims")
	ErrProviderEmailUnverified = errors.New("provider email not verified")
)

// ProviderAuthService resolves OIDC identities to local users, creating
// the user on first sign-in the way the hub provisions Google accounts.
type ProviderAuthService struct {
	db DB
}

func NewProviderAuthService(db DB) *ProviderAuthService {
	return &ProviderAuthService{db: db}
}

func (s *ProviderAuthService) FindOrCreateUser(ctx context.Context, claims IdentityClaims) (*models.User, error) {
	provider := strings.TrimSpace(string(claims.Provider))
	subject := strings.TrimSpace(claims.Subject)
	if provider == "" || subject == "" {
		return nil, ErrInvalidProviderClaims
	}

	user, err := s.getUserByProviderSubject(ctx, claims.Provider, subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	email := normalizeEmail(claims.Email)
	if email == "" || !claims.EmailVerified {
		return nil, ErrProviderEmailUnverified
	}

	// Existing email/password account: link the identity to it.
	user, err = s.getUserByEmail(ctx, email)
	if err == nil {
		if err := s.linkIdentity(ctx, user.ID, claims.Provider, subject, email); err != nil {
			return nil, err
		}
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	return s.createFromClaims(ctx, claims, email)
}

func (s *ProviderAuthService) createFromClaims(ctx context.Context, claims IdentityClaims, email string) (*models.User, error) {
	displayName := strings.TrimSpace(claims.Name)
	if displayName == "" {
		displayName = "Anonymous"
	}
	var photoURL *string
	if picture := strings.TrimSpace(claims.Picture); picture != "" {
		photoURL = &picture
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning provider signup: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	user, err := scanUser(tx.QueryRow(ctx,
		`INSERT INTO users (email, display_name, photo_url)
		 VALUES ($1, $2, $3)
		 RETURNING `+userColumns,
		email, displayName, photoURL,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("creating provider user: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO provider_identities (provider, subject, user_id, email)
		 VALUES ($1, $2, $3, $4)`,
		claims.Provider, claims.Subject, user.ID, email,
	)
	if err != nil {
		return nil, fmt.Errorf("linking provider identity: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing provider signup: %w", err)
	}
	return user, nil
}

func (s *ProviderAuthService) linkIdentity(ctx context.Context, userID uuid.UUID, provider Provider, subject, email string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO provider_identities (provider, subject, user_id, email)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (provider, subject) DO NOTHING`,
		provider, subject, userID, email,
	)
	if err != nil {
		return fmt.Errorf("linking provider identity: %w", err)
	}
	return nil
}

func (s *ProviderAuthService) getUserByProviderSubject(ctx context.Context, provider Provider, subject string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRow(ctx,
		`SELECT u.`+strings.ReplaceAll(userColumns, ", ", ", u.")+`
		 FROM users u
		 JOIN provider_identities pi ON pi.user_id = u.id
		 WHERE pi.provider = $1 AND pi.subject = $2`,
		provider, subject,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by provider subject: %w", err)
	}
	return user, nil
}

func (s *ProviderAuthService) getUserByEmail(ctx context.Context, email string) (*models.User, error) {
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

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
