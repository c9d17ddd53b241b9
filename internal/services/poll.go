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
	ErrPollNotFound    = errors.New("poll not found")
	ErrInvalidOption   = errors.New("option does not belong to poll")
	ErrTooFewOptions   = errors.New("poll needs at least two options")
	ErrTooManyOptions  = errors.New("poll has too many options")
	ErrNotPollAuthor   = errors.New("not the poll author")
	ErrEmptyPollOption = errors.New("poll option text is empty")
)

const maxPollOptions = 10

type PollService struct {
	db DB
}

func NewPollService(db DB) *PollService {
	return &PollService{db: db}
}

func (s *PollService) Create(ctx context.Context, authorID uuid.UUID, params models.CreatePollParams) (*models.Poll, error) {
	options := make([]string, 0, len(params.Options))
	for _, opt := range params.Options {
		if trimmed := strings.TrimSpace(opt); trimmed != "" {
			options = append(options, trimmed)
		}
	}
	if len(options) < 2 {
		return nil, ErrTooFewOptions
	}
	if len(options) > maxPollOptions {
		return nil, ErrTooManyOptions
	}
	question := strings.TrimSpace(params.Question)
	if question == "" {
		return nil, ErrEmptyPollOption
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning poll create: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	poll := &models.Poll{Question: question, AuthorID: authorID, GifURL: params.GifURL}
	err = tx.QueryRow(ctx,
		`INSERT INTO polls (author_id, question, gif_url)
		 VALUES ($1, $2, $3)
		 RETURNING id, vote_count, created_at`,
		authorID, question, params.GifURL,
	).Scan(&poll.ID, &poll.VoteCount, &poll.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating poll: %w", err)
	}

	for i, text := range options {
		option := models.PollOption{Text: text}
		err = tx.QueryRow(ctx,
			`INSERT INTO poll_options (poll_id, text, position)
			 VALUES ($1, $2, $3)
			 RETURNING id`,
			poll.ID, text, i,
		).Scan(&option.ID)
		if err != nil {
			return nil, fmt.Errorf("creating poll option: %w", err)
		}
		poll.Options = append(poll.Options, option)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing poll create: %w", err)
	}
	return poll, nil
}

func (s *PollService) List(ctx context.Context) ([]models.Poll, error) {
	rows, err := s.db.Query(ctx,
		`SELECT p.id, p.question, p.gif_url, p.author_id, u.display_name, p.vote_count, p.created_at, p.updated_at
		 FROM polls p
		 JOIN users u ON u.id = p.author_id
		 ORDER BY p.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing polls: %w", err)
	}
	defer rows.Close()

	polls := []models.Poll{}
	index := map[uuid.UUID]int{}
	for rows.Next() {
		var p models.Poll
		if err := rows.Scan(&p.ID, &p.Question, &p.GifURL, &p.AuthorID, &p.AuthorName, &p.VoteCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning poll: %w", err)
		}
		index[p.ID] = len(polls)
		polls = append(polls, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing polls: %w", err)
	}

	if len(polls) == 0 {
		return polls, nil
	}

	optRows, err := s.db.Query(ctx,
		`SELECT o.poll_id, o.id, o.text, o.vote_count
		 FROM poll_options o
		 JOIN polls p ON p.id = o.poll_id
		 ORDER BY o.poll_id, o.position`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing poll options: %w", err)
	}
	defer optRows.Close()

	for optRows.Next() {
		var pollID uuid.UUID
		var opt models.PollOption
		if err := optRows.Scan(&pollID, &opt.ID, &opt.Text, &opt.VoteCount); err != nil {
			return nil, fmt.Errorf("scanning poll option: %w", err)
		}
		if i, ok := index[pollID]; ok {
			polls[i].Options = append(polls[i].Options, opt)
		}
	}
	if err := optRows.Err(); err != nil {
		return nil, fmt.Errorf("listing poll options: %w", err)
	}
	return polls, nil
}

func (s *PollService) Get(ctx context.Context, pollID uuid.UUID) (*models.Poll, error) {
	return s.get(ctx, s.db, pollID)
}

func (s *PollService) get(ctx context.Context, q DBConn, pollID uuid.UUID) (*models.Poll, error) {
	p := &models.Poll{}
	err := q.QueryRow(ctx,
		`SELECT p.id, p.question, p.gif_url, p.author_id, u.display_name, p.vote_count, p.created_at, p.updated_at
		 FROM polls p
		 JOIN users u ON u.id = p.author_id
		 WHERE p.id = $1`,
		pollID,
	).Scan(&p.ID, &p.Question, &p.GifURL, &p.AuthorID, &p.AuthorName, &p.VoteCount, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPollNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting poll: %w", err)
	}

	rows, err := q.Query(ctx,
		`SELECT id, text, vote_count FROM poll_options WHERE poll_id = $1 ORDER BY position`,
		pollID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting poll options: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var opt models.PollOption
		if err := rows.Scan(&opt.ID, &opt.Text, &opt.VoteCount); err != nil {
			return nil, fmt.Errorf("scanning poll option: %w", err)
		}
		p.Options = append(p.Options, opt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("getting poll options: %w", err)
	}
	return p, nil
}

// Vote records the caller's choice and maintains the denormalized tally.
// A repeat vote for the same option is a no-op; switching moves one count
// between options inside a single transaction, so the poll's vote_count
// always equals the sum of its option counts.
func (s *PollService) Vote(ctx context.Context, pollID, userID, optionID uuid.UUID) (*models.Poll, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning vote: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM polls WHERE id = $1)`, pollID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking poll: %w", err)
	}
	if !exists {
		return nil, ErrPollNotFound
	}

	var belongs bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM poll_options WHERE id = $1 AND poll_id = $2)`,
		optionID, pollID,
	).Scan(&belongs)
	if err != nil {
		return nil, fmt.Errorf("checking option: %w", err)
	}
	if !belongs {
		return nil, ErrInvalidOption
	}

	var prev *string
	var prevOptionID uuid.UUID
	err = tx.QueryRow(ctx,
		`SELECT option_id FROM poll_votes WHERE poll_id = $1 AND user_id = $2 FOR UPDATE`,
		pollID, userID,
	).Scan(&prevOptionID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("reading previous vote: %w", err)
	}
	if err == nil {
		v := prevOptionID.String()
		prev = &v
	}

	outcome := tally.ApplyChoice(prev, optionID.String())
	if !outcome.Changed() {
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("committing vote: %w", err)
		}
		return s.get(ctx, s.db, pollID)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO poll_votes (poll_id, user_id, option_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (poll_id, user_id) DO UPDATE SET option_id = $3, created_at = NOW()`,
		pollID, userID, optionID,
	)
	if err != nil {
		return nil, fmt.Errorf("recording vote: %w", err)
	}

	if outcome.Decrement != "" {
		// Floored at zero so a stray decrement can never underflow.
		_, err = tx.Exec(ctx,
			`UPDATE poll_options SET vote_count = GREATEST(vote_count - 1, 0) WHERE id = $1`,
			prevOptionID,
		)
		if err != nil {
			return nil, fmt.Errorf("decrementing previous option: %w", err)
		}
	}
	_, err = tx.Exec(ctx,
		`UPDATE poll_options SET vote_count = vote_count + 1 WHERE id = $1`,
		optionID,
	)
	if err != nil {
		return nil, fmt.Errorf("incrementing option: %w", err)
	}

	if outcome.TotalDelta != 0 {
		_, err = tx.Exec(ctx,
			`UPDATE polls SET vote_count = vote_count + $2 WHERE id = $1`,
			pollID, outcome.TotalDelta,
		)
		if err != nil {
			return nil, fmt.Errorf("updating poll total: %w", err)
		}
	}

	poll, err := s.get(ctx, tx, pollID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing vote: %w", err)
	}
	return poll, nil
}

// UserVotes maps poll ids to the option the user currently has selected.
func (s *PollService) UserVotes(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	rows, err := s.db.Query(ctx,
		`SELECT poll_id, option_id FROM poll_votes WHERE user_id = $1`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing user votes: %w", err)
	}
	defer rows.Close()

	votes := map[uuid.UUID]uuid.UUID{}
	for rows.Next() {
		var pollID, optionID uuid.UUID
		if err := rows.Scan(&pollID, &optionID); err != nil {
			return nil, fmt.Errorf("scanning user vote: %w", err)
		}
		votes[pollID] = optionID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing user votes: %w", err)
	}
	return votes, nil
}

// Delete removes a poll. Only the author or an admin may delete; votes
// cascade with the row.
func (s *PollService) Delete(ctx context.Context, pollID, userID uuid.UUID, isAdmin bool) error {
	var authorID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT author_id FROM polls WHERE id = $1`, pollID).Scan(&authorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrPollNotFound
	}
	if err != nil {
		return fmt.Errorf("getting poll author: %w", err)
	}
	if authorID != userID && !isAdmin {
		return ErrNotPollAuthor
	}

	result, err := s.db.Exec(ctx, `DELETE FROM polls WHERE id = $1`, pollID)
	if err != nil {
		return fmt.Errorf("deleting poll: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrPollNotFound
	}
	return nil
}

func (s *PollService) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Poll, error) {
	rows, err := s.db.Query(ctx,
		`SELECT p.id, p.question, p.gif_url, p.author_id, u.display_name, p.vote_count, p.created_at, p.updated_at
		 FROM polls p
		 JOIN users u ON u.id = p.author_id
		 WHERE p.author_id = $1
		 ORDER BY p.created_at DESC`,
		authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing author polls: %w", err)
	}
	defer rows.Close()

	polls := []models.Poll{}
	for rows.Next() {
		var p models.Poll
		if err := rows.Scan(&p.ID, &p.Question, &p.GifURL, &p.AuthorID, &p.AuthorName, &p.VoteCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning poll: %w", err)
		}
		polls = append(polls, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing author polls: %w", err)
	}
	return polls, nil
}
