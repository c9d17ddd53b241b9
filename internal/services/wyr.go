package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/topicless/hub/internal/models"
	"github.com/topicless/hub/internal/tally"
)

var (
	ErrWyrNotFound     = errors.New("would-you-rather question not found")
	ErrInvalidChoice   = errors.New("choice must be A or B")
	ErrVoteRequired    = errors.New("vote before commenting")
	ErrNotWyrAuthor    = errors.New("not the question author")
	ErrMissingOption   = errors.New("both options are required")
	ErrIdenticalOption = errors.New("options must differ")
)

type WyrService struct {
	db DB
}

func NewWyrService(db DB) *WyrService {
	return &WyrService{db: db}
}

func (s *WyrService) Create(ctx context.Context, authorID uuid.UUID, optionA, optionB string) (*models.WyrQuestion, error) {
	optionA = strings.TrimSpace(optionA)
	optionB = strings.TrimSpace(optionB)
	if optionA == "" || optionB == "" {
		return nil, ErrMissingOption
	}
	if strings.EqualFold(optionA, optionB) {
		return nil, ErrIdenticalOption
	}

	q := &models.WyrQuestion{OptionA: optionA, OptionB: optionB, AuthorID: authorID}
	err := s.db.QueryRow(ctx,
		`INSERT INTO wyr_questions (author_id, option_a, option_b)
		 VALUES ($1, $2, $3)
		 RETURNING id, votes_a, votes_b, created_at`,
		authorID, optionA, optionB,
	).Scan(&q.ID, &q.VotesA, &q.VotesB, &q.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating question: %w", err)
	}
	return q, nil
}

func (s *WyrService) List(ctx context.Context) ([]models.WyrQuestion, error) {
	rows, err := s.db.Query(ctx,
		`SELECT q.id, q.option_a, q.option_b, q.author_id, u.display_name, q.votes_a, q.votes_b, q.created_at, q.updated_at
		 FROM wyr_questions q
		 JOIN users u ON u.id = q.author_id
		 ORDER BY q.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing questions: %w", err)
	}
	defer rows.Close()
	return scanWyrQuestions(rows)
}

func (s *WyrService) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.WyrQuestion, error) {
	rows, err := s.db.Query(ctx,
		`SELECT q.id, q.option_a, q.option_b, q.author_id, u.display_name, q.votes_a, q.votes_b, q.created_at, q.updated_at
		 FROM wyr_questions q
		 JOIN users u ON u.id = q.author_id
		 WHERE q.author_id = $1
		 ORDER BY q.created_at DESC`,
		authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing author questions: %w", err)
	}
	defer rows.Close()
	return scanWyrQuestions(rows)
}

func scanWyrQuestions(rows Rows) ([]models.WyrQuestion, error) {
	questions := []models.WyrQuestion{}
	for rows.Next() {
		var q models.WyrQuestion
		if err := rows.Scan(&q.ID, &q.OptionA, &q.OptionB, &q.AuthorID, &q.AuthorName, &q.VotesA, &q.VotesB, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading questions: %w", err)
	}
	return questions, nil
}

func (s *WyrService) get(ctx context.Context, q DBConn, questionID uuid.UUID) (*models.WyrQuestion, error) {
	question := &models.WyrQuestion{}
	err := q.QueryRow(ctx,
		`SELECT w.id, w.option_a, w.option_b, w.author_id, u.display_name, w.votes_a, w.votes_b, w.created_at, w.updated_at
		 FROM wyr_questions w
		 JOIN users u ON u.id = w.author_id
		 WHERE w.id = $1`,
		questionID,
	).Scan(&question.ID, &question.OptionA, &question.OptionB, &question.AuthorID, &question.AuthorName,
		&question.VotesA, &question.VotesB, &question.CreatedAt, &question.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrWyrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting question: %w", err)
	}
	return question, nil
}

func (s *WyrService) Get(ctx context.Context, questionID uuid.UUID) (*models.WyrQuestion, error) {
	return s.get(ctx, s.db, questionID)
}

// Vote records the user's side. Voting the same side again is a no-op;
// switching sides moves one count across in the same transaction.
func (s *WyrService) Vote(ctx context.Context, questionID, userID uuid.UUID, choice models.WyrChoice) (*models.WyrQuestion, error) {
	if !choice.Valid() {
		return nil, ErrInvalidChoice
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning vote: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM wyr_questions WHERE id = $1)`, questionID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking question: %w", err)
	}
	if !exists {
		return nil, ErrWyrNotFound
	}

	var prev *string
	var prevChoice string
	err = tx.QueryRow(ctx,
		`SELECT choice FROM wyr_votes WHERE question_id = $1 AND user_id = $2 FOR UPDATE`,
		questionID, userID,
	).Scan(&prevChoice)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("reading previous vote: %w", err)
	}
	if err == nil {
		prev = &prevChoice
	}

	outcome := tally.ApplyChoice(prev, string(choice))
	if !outcome.Changed() {
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("committing vote: %w", err)
		}
		return s.get(ctx, s.db, questionID)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO wyr_votes (question_id, user_id, choice)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (question_id, user_id) DO UPDATE SET choice = $3, created_at = NOW()`,
		questionID, userID, string(choice),
	)
	if err != nil {
		return nil, fmt.Errorf("recording vote: %w", err)
	}

	if outcome.Decrement == "A" {
		_, err = tx.Exec(ctx,
			`UPDATE wyr_questions SET votes_a = GREATEST(votes_a - 1, 0) WHERE id = $1`, questionID)
	} else if outcome.Decrement == "B" {
		_, err = tx.Exec(ctx,
			`UPDATE wyr_questions SET votes_b = GREATEST(votes_b - 1, 0) WHERE id = $1`, questionID)
	}
	if err != nil {
		return nil, fmt.Errorf("decrementing previous side: %w", err)
	}

	if outcome.Increment == "A" {
		_, err = tx.Exec(ctx,
			`UPDATE wyr_questions SET votes_a = votes_a + 1, updated_at = NOW() WHERE id = $1`, questionID)
	} else {
		_, err = tx.Exec(ctx,
			`UPDATE wyr_questions SET votes_b = votes_b + 1, updated_at = NOW() WHERE id = $1`, questionID)
	}
	if err != nil {
		return nil, fmt.Errorf("incrementing side: %w", err)
	}

	question, err := s.get(ctx, tx, questionID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing vote: %w", err)
	}
	return question, nil
}

// UserVotes maps question ids to the side the user picked.
func (s *WyrService) UserVotes(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]models.WyrChoice, error) {
	rows, err := s.db.Query(ctx,
		`SELECT question_id, choice FROM wyr_votes WHERE user_id = $1`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing user votes: %w", err)
	}
	defer rows.Close()

	votes := map[uuid.UUID]models.WyrChoice{}
	for rows.Next() {
		var questionID uuid.UUID
		var choice string
		if err := rows.Scan(&questionID, &choice); err != nil {
			return nil, fmt.Errorf("scanning user vote: %w", err)
		}
		votes[questionID] = models.WyrChoice(choice)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing user votes: %w", err)
	}
	return votes, nil
}

// Comment posts a take on a question. The caller must have voted first;
// the comment carries the side they were on when they posted it.
func (s *WyrService) Comment(ctx context.Context, questionID, authorID uuid.UUID, text string) (*models.WyrComment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	var choice string
	err := s.db.QueryRow(ctx,
		`SELECT choice FROM wyr_votes WHERE question_id = $1 AND user_id = $2`,
		questionID, authorID,
	).Scan(&choice)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if checkErr := s.db.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM wyr_questions WHERE id = $1)`, questionID,
		).Scan(&exists); checkErr != nil {
			return nil, fmt.Errorf("checking question: %w", checkErr)
		}
		if !exists {
			return nil, ErrWyrNotFound
		}
		return nil, ErrVoteRequired
	}
	if err != nil {
		return nil, fmt.Errorf("reading voter side: %w", err)
	}

	c := &models.WyrComment{
		QuestionID: questionID,
		Text:       text,
		AuthorID:   authorID,
		Choice:     models.WyrChoice(choice),
	}
	err = s.db.QueryRow(ctx,
		`INSERT INTO wyr_comments (question_id, author_id, text, choice)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		questionID, authorID, text, choice,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating comment: %w", err)
	}

	err = s.db.QueryRow(ctx, `SELECT display_name FROM users WHERE id = $1`, authorID).Scan(&c.AuthorName)
	if err != nil {
		return nil, fmt.Errorf("getting comment author: %w", err)
	}
	return c, nil
}

// Comments returns a question's comments oldest first.
func (s *WyrService) Comments(ctx context.Context, questionID uuid.UUID) ([]models.WyrComment, error) {
	rows, err := s.db.Query(ctx,
		`SELECT c.id, c.question_id, c.text, c.author_id, u.display_name, c.choice, c.created_at
		 FROM wyr_comments c
		 JOIN users u ON u.id = c.author_id
		 WHERE c.question_id = $1
		 ORDER BY c.created_at`,
		questionID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	defer rows.Close()

	comments := []models.WyrComment{}
	for rows.Next() {
		var c models.WyrComment
		var choice string
		if err := rows.Scan(&c.ID, &c.QuestionID, &c.Text, &c.AuthorID, &c.AuthorName, &choice, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		c.Choice = models.WyrChoice(choice)
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	return comments, nil
}

// Delete removes a question along with its votes and comments.
func (s *WyrService) Delete(ctx context.Context, questionID, userID uuid.UUID, isAdmin bool) error {
	var authorID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT author_id FROM wyr_questions WHERE id = $1`, questionID).Scan(&authorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrWyrNotFound
	}
	if err != nil {
		return fmt.Errorf("getting question author: %w", err)
	}
	if authorID != userID && !isAdmin {
		return ErrNotWyrAuthor
	}

	result, err := s.db.Exec(ctx, `DELETE FROM wyr_questions WHERE id = $1`, questionID)
	if err != nil {
		return fmt.Errorf("deleting question: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrWyrNotFound
	}
	return nil
}
