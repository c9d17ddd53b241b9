package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/topicless/hub/internal/models"
)

// Handler-facing service contracts. Handlers depend on these so tests can
// swap in fakes.

type UserServiceInterface interface {
	Create(ctx context.Context, params models.CreateUserParams) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateDisplayName(ctx context.Context, userID uuid.UUID, displayName string) error
	RecordActivity(ctx context.Context, userID uuid.UUID, day time.Time) error
}

type AuthServiceInterface interface {
	HashPassword(password string) (string, error)
	VerifyPassword(hash, password string) bool
	CreateSession(ctx context.Context, userID uuid.UUID) (string, error)
	ValidateSession(ctx context.Context, token string) (uuid.UUID, error)
	DeleteSession(ctx context.Context, token string) error
}

type ProviderAuthServiceInterface interface {
	FindOrCreateUser(ctx context.Context, claims IdentityClaims) (*models.User, error)
}

type QuestionServiceInterface interface {
	Create(ctx context.Context, authorID uuid.UUID, text string) (*models.Question, error)
	List(ctx context.Context) ([]models.Question, error)
	Get(ctx context.Context, questionID uuid.UUID) (*models.Question, error)
	Answer(ctx context.Context, questionID, authorID uuid.UUID, text string, anonymous bool) (*models.Answer, error)
	Answers(ctx context.Context, questionID uuid.UUID) ([]models.Answer, error)
	ToggleReaction(ctx context.Context, answerID, userID uuid.UUID, tag string) (bool, error)
	Delete(ctx context.Context, questionID, userID uuid.UUID, isAdmin bool) error
}

type PollServiceInterface interface {
	Create(ctx context.Context, authorID uuid.UUID, params models.CreatePollParams) (*models.Poll, error)
	List(ctx context.Context) ([]models.Poll, error)
	Get(ctx context.Context, pollID uuid.UUID) (*models.Poll, error)
	Vote(ctx context.Context, pollID, userID, optionID uuid.UUID) (*models.Poll, error)
	UserVotes(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]uuid.UUID, error)
	Delete(ctx context.Context, pollID, userID uuid.UUID, isAdmin bool) error
}

type IdeaServiceInterface interface {
	Create(ctx context.Context, authorID uuid.UUID, text string) (*models.Idea, error)
	List(ctx context.Context, order IdeaSort) ([]models.Idea, error)
	Random(ctx context.Context) (*models.Idea, error)
	ToggleReaction(ctx context.Context, ideaID, userID uuid.UUID, tag string) (bool, error)
	Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error)
	Delete(ctx context.Context, ideaID, userID uuid.UUID, isAdmin bool) error
}

type WyrServiceInterface interface {
	Create(ctx context.Context, authorID uuid.UUID, optionA, optionB string) (*models.WyrQuestion, error)
	List(ctx context.Context) ([]models.WyrQuestion, error)
	Vote(ctx context.Context, questionID, userID uuid.UUID, choice models.WyrChoice) (*models.WyrQuestion, error)
	UserVotes(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]models.WyrChoice, error)
	Comment(ctx context.Context, questionID, authorID uuid.UUID, text string) (*models.WyrComment, error)
	Comments(ctx context.Context, questionID uuid.UUID) ([]models.WyrComment, error)
	Delete(ctx context.Context, questionID, userID uuid.UUID, isAdmin bool) error
}

type PostServiceInterface interface {
	Create(ctx context.Context, authorID uuid.UUID, params models.CreateAdminPostParams) (*models.AdminPost, error)
	List(ctx context.Context) ([]models.AdminPost, error)
	Get(ctx context.Context, postID uuid.UUID) (*models.AdminPost, error)
	Featured(ctx context.Context) (*models.AdminPost, error)
	Update(ctx context.Context, postID uuid.UUID, params models.CreateAdminPostParams) (*models.AdminPost, error)
	Delete(ctx context.Context, postID uuid.UUID) error
}

type SubscriberServiceInterface interface {
	Subscribe(ctx context.Context, email string) error
	Confirm(ctx context.Context, token string) error
	Unsubscribe(ctx context.Context, email string) error
	Count(ctx context.Context) (*models.SubscriberCount, error)
}

type AccountServiceInterface interface {
	Content(ctx context.Context, userID uuid.UUID) (*AccountContent, error)
	BuildExportZip(ctx context.Context, userID uuid.UUID) ([]byte, error)
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
}
