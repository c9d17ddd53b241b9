package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/topicless/hub/internal/models"
)

var (
	ErrQuestionNotFound  = errors.New("question not found")
	ErrAnswerNotFound    = errors.New("answer not found")
	ErrEmptyText         = errors.New("text is empty")
	ErrUnknownReaction   = errors.New("unknown reaction tag")
	ErrNotQuestionAuthor = errors.New("not the question author")
)

type QuestionService struct {
	db DB
}

func NewQuestionService(db DB) *QuestionService {
	return &QuestionService{db: db}
}

func (s *QuestionService) Create(ctx context.Context, authorID uuid.UUID, text string) (*models.Question, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	q := &models.Question{Text: text, AuthorID: authorID}
	err := s.db.QueryRow(ctx,
		`INSERT INTO questions (author_id, text)
		 VALUES ($1, $2)
		 RETURNING id, answer_count, created_at`,
		authorID, text,
	).Scan(&q.ID, &q.AnswerCount, &q.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating question: %w", err)
	}
	return q, nil
}

func (s *QuestionService) List(ctx context.Context) ([]models.Question, error) {
	rows, err := s.db.Query(ctx,
		`SELECT q.id, q.text, q.author_id, u.display_name, q.answer_count, q.created_at, q.updated_at
		 FROM questions q
		 JOIN users u ON u.id = q.author_id
		 ORDER BY q.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing questions: %w", err)
	}
	defer rows.Close()
	return scanQuestions(rows)
}

func (s *QuestionService) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Question, error) {
	rows, err := s.db.Query(ctx,
		`SELECT q.id, q.text, q.author_id, u.display_name, q.answer_count, q.created_at, q.updated_at
		 FROM questions q
		 JOIN users u ON u.id = q.author_id
		 WHERE q.author_id = $1
		 ORDER BY q.created_at DESC`,
		authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing author questions: %w", err)
	}
	defer rows.Close()
	return scanQuestions(rows)
}

func scanQuestions(rows Rows) ([]models.Question, error) {
	questions := []models.Question{}
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.Text, &q.AuthorID, &q.AuthorName, &q.AnswerCount, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading questions: %w", err)
	}
	return questions, nil
}

func (s *QuestionService) Get(ctx context.Context, questionID uuid.UUID) (*models.Question, error) {
	q := &models.Question{}
	err := s.db.QueryRow(ctx,
		`SELECT q.id, q.text, q.author_id, u.display_name, q.answer_count, q.created_at, q.updated_at
		 FROM questions q
		 JOIN users u ON u.id = q.author_id
		 WHERE q.id = $1`,
		questionID,
	).Scan(&q.ID, &q.Text, &q.AuthorID, &q.AuthorName, &q.AnswerCount, &q.CreatedAt, &q.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting question: %w", err)
	}
	return q, nil
}

// Answer posts an answer and bumps the question's denormalized answer
// count in the same transaction.
func (s *QuestionService) Answer(ctx context.Context, questionID, authorID uuid.UUID, text string, anonymous bool) (*models.Answer, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning answer: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM questions WHERE id = $1)`, questionID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking question: %w", err)
	}
	if !exists {
		return nil, ErrQuestionNotFound
	}

	a := &models.Answer{
		QuestionID: questionID,
		Text:       text,
		AuthorID:   authorID,
		Anonymous:  anonymous,
		Reactions:  map[string][]uuid.UUID{},
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO answers (question_id, author_id, text, anonymous)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		questionID, authorID, text, anonymous,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating answer: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE questions SET answer_count = answer_count + 1, updated_at = NOW() WHERE id = $1`,
		questionID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating answer count: %w", err)
	}

	a.AuthorName = "Anonymous"
	if !anonymous {
		err = tx.QueryRow(ctx, `SELECT display_name FROM users WHERE id = $1`, authorID).Scan(&a.AuthorName)
		if err != nil {
			return nil, fmt.Errorf("getting answer author: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing answer: %w", err)
	}
	return a, nil
}

// Answers returns a question's answers oldest first, with reaction
// membership attached.
func (s *QuestionService) Answers(ctx context.Context, questionID uuid.UUID) ([]models.Answer, error) {
	rows, err := s.db.Query(ctx,
		`SELECT a.id, a.question_id, a.text, a.author_id, a.anonymous, u.display_name, a.created_at
		 FROM answers a
		 JOIN users u ON u.id = a.author_id
		 WHERE a.question_id = $1
		 ORDER BY a.created_at`,
		questionID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing answers: %w", err)
	}
	defer rows.Close()

	answers := []models.Answer{}
	index := map[uuid.UUID]int{}
	for rows.Next() {
		var a models.Answer
		var displayName string
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.Text, &a.AuthorID, &a.Anonymous, &displayName, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning answer: %w", err)
		}
		a.AuthorName = displayName
		if a.Anonymous {
			a.AuthorName = "Anonymous"
		}
		a.Reactions = map[string][]uuid.UUID{}
		index[a.ID] = len(answers)
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing answers: %w", err)
	}

	if len(answers) == 0 {
		return answers, nil
	}

	reactionRows, err := s.db.Query(ctx,
		`SELECT r.answer_id, r.tag, r.user_id
		 FROM answer_reactions r
		 JOIN answers a ON a.id = r.answer_id
		 WHERE a.question_id = $1
		 ORDER BY r.created_at`,
		questionID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing answer reactions: %w", err)
	}
	defer reactionRows.Close()

	for reactionRows.Next() {
		var answerID, userID uuid.UUID
		var tag string
		if err := reactionRows.Scan(&answerID, &tag, &userID); err != nil {
			return nil, fmt.Errorf("scanning answer reaction: %w", err)
		}
		if i, ok := index[answerID]; ok {
			answers[i].Reactions[tag] = append(answers[i].Reactions[tag], userID)
		}
	}
	if err := reactionRows.Err(); err != nil {
		return nil, fmt.Errorf("listing answer reactions: %w", err)
	}
	return answers, nil
}

// ToggleReaction flips the user's membership in an answer's reaction set
// and reports whether the reaction is now on. Counts are derived from
// set size, so a double toggle always lands back where it started.
func (s *QuestionService) ToggleReaction(ctx context.Context, answerID, userID uuid.UUID, tag string) (bool, error) {
	if !slices.Contains(models.AllowedAnswerReactions, tag) {
		return false, ErrUnknownReaction
	}

	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM answers WHERE id = $1)`, answerID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking answer: %w", err)
	}
	if !exists {
		return false, ErrAnswerNotFound
	}

	result, err := s.db.Exec(ctx,
		`DELETE FROM answer_reactions WHERE answer_id = $1 AND user_id = $2 AND tag = $3`,
		answerID, userID, tag,
	)
	if err != nil {
		return false, fmt.Errorf("removing reaction: %w", err)
	}
	if result.RowsAffected() > 0 {
		return false, nil
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO answer_reactions (answer_id, user_id, tag)
		 VALUES ($1, $2, $3)
		 ON CONFLICT DO NOTHING`,
		answerID, userID, tag,
	)
	if err != nil {
		return false, fmt.Errorf("adding reaction: %w", err)
	}
	return true, nil
}

// Delete removes a question along with its answers and their reactions.
func (s *QuestionService) Delete(ctx context.Context, questionID, userID uuid.UUID, isAdmin bool) error {
	var authorID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT author_id FROM questions WHERE id = $1`, questionID).Scan(&authorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrQuestionNotFound
	}
	if err != nil {
		return fmt.Errorf("getting question author: %w", err)
	}
	if authorID != userID && !isAdmin {
		return ErrNotQuestionAuthor
	}

	result, err := s.db.Exec(ctx, `DELETE FROM questions WHERE id = $1`, questionID)
	if err != nil {
		return fmt.Errorf("deleting question: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrQuestionNotFound
	}
	return nil
}
