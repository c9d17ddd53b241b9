package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/topicless/hub/internal/models"
)

var (
	ErrPostNotFound  = errors.New("post not found")
	ErrMissingTitle  = errors.New("title is required")
	ErrMissingBody   = errors.New("content is required")
	ErrNoFeatured    = errors.New("no featured post")
	ErrEmptyPostEdit = errors.New("nothing to update")
)

// PostService manages announcements written by admins. Authorization is
// enforced at the route layer; the service assumes the caller is allowed.
type PostService struct {
	db DB
}

func NewPostService(db DB) *PostService {
	return &PostService{db: db}
}

func (s *PostService) Create(ctx context.Context, authorID uuid.UUID, params models.CreateAdminPostParams) (*models.AdminPost, error) {
	title := strings.TrimSpace(params.Title)
	content := strings.TrimSpace(params.Content)
	if title == "" {
		return nil, ErrMissingTitle
	}
	if content == "" {
		return nil, ErrMissingBody
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning post create: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Only one post is featured at a time.
	if params.Featured {
		if _, err := tx.Exec(ctx, `UPDATE admin_posts SET featured = FALSE WHERE featured`); err != nil {
			return nil, fmt.Errorf("clearing featured flag: %w", err)
		}
	}

	p := &models.AdminPost{
		Title:      title,
		Content:    content,
		YoutubeURL: params.YoutubeURL,
		ImageURL:   params.ImageURL,
		AuthorID:   authorID,
		Featured:   params.Featured,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO admin_posts (author_id, title, content, youtube_url, image_url, featured)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		authorID, title, content, params.YoutubeURL, params.ImageURL, params.Featured,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing post create: %w", err)
	}
	return p, nil
}

func (s *PostService) List(ctx context.Context) ([]models.AdminPost, error) {
	rows, err := s.db.Query(ctx,
		`SELECT p.id, p.title, p.content, p.youtube_url, p.image_url, p.author_id, u.display_name, p.featured, p.created_at, p.updated_at
		 FROM admin_posts p
		 JOIN users u ON u.id = p.author_id
		 ORDER BY p.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	defer rows.Close()

	posts := []models.AdminPost{}
	for rows.Next() {
		var p models.AdminPost
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.YoutubeURL, &p.ImageURL, &p.AuthorID, &p.AuthorName, &p.Featured, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return posts, nil
}

func (s *PostService) Get(ctx context.Context, postID uuid.UUID) (*models.AdminPost, error) {
	p := &models.AdminPost{}
	err := s.db.QueryRow(ctx,
		`SELECT p.id, p.title, p.content, p.youtube_url, p.image_url, p.author_id, u.display_name, p.featured, p.created_at, p.updated_at
		 FROM admin_posts p
		 JOIN users u ON u.id = p.author_id
		 WHERE p.id = $1`,
		postID,
	).Scan(&p.ID, &p.Title, &p.Content, &p.YoutubeURL, &p.ImageURL, &p.AuthorID, &p.AuthorName, &p.Featured, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting post: %w", err)
	}
	return p, nil
}

// Featured returns the pinned announcement, if any.
func (s *PostService) Featured(ctx context.Context) (*models.AdminPost, error) {
	p := &models.AdminPost{}
	err := s.db.QueryRow(ctx,
		`SELECT p.id, p.title, p.content, p.youtube_url, p.image_url, p.author_id, u.display_name, p.featured, p.created_at, p.updated_at
		 FROM admin_posts p
		 JOIN users u ON u.id = p.author_id
		 WHERE p.featured
		 ORDER BY p.created_at DESC
		 LIMIT 1`,
	).Scan(&p.ID, &p.Title, &p.Content, &p.YoutubeURL, &p.ImageURL, &p.AuthorID, &p.AuthorName, &p.Featured, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoFeatured
	}
	if err != nil {
		return nil, fmt.Errorf("getting featured post: %w", err)
	}
	return p, nil
}

func (s *PostService) Update(ctx context.Context, postID uuid.UUID, params models.CreateAdminPostParams) (*models.AdminPost, error) {
	title := strings.TrimSpace(params.Title)
	content := strings.TrimSpace(params.Content)
	if title == "" && content == "" {
		return nil, ErrEmptyPostEdit
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning post update: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if params.Featured {
		if _, err := tx.Exec(ctx, `UPDATE admin_posts SET featured = FALSE WHERE featured AND id <> $1`, postID); err != nil {
			return nil, fmt.Errorf("clearing featured flag: %w", err)
		}
	}

	result, err := tx.Exec(ctx,
		`UPDATE admin_posts
		 SET title = $2, content = $3, youtube_url = $4, image_url = $5, featured = $6, updated_at = NOW()
		 WHERE id = $1`,
		postID, title, content, params.YoutubeURL, params.ImageURL, params.Featured,
	)
	if err != nil {
		return nil, fmt.Errorf("updating post: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, ErrPostNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing post update: %w", err)
	}
	return s.Get(ctx, postID)
}

func (s *PostService) Delete(ctx context.Context, postID uuid.UUID) error {
	result, err := s.db.Exec(ctx, `DELETE FROM admin_posts WHERE id = $1`, postID)
	if err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}
