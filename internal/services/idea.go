package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/topicless/hub/internal/models"
	"github.com/topicless/hub/internal/tally"
)

var (
	ErrIdeaNotFound     = errors.New("idea not found")
	ErrIdeaExistsToday  = errors.New("an idea was already shared today")
	ErrNoIdeas          = errors.New("no ideas available")
	ErrNotIdeaAuthor    = errors.New("not the idea author")
	ErrUnknownIdeaSort  = errors.New("unknown sort order")
	ErrIdeaReactionType = errors.New("unknown reaction tag")
)

// IdeaSort selects the ordering for idea listings.
type IdeaSort string

const (
	IdeaSortLatest  IdeaSort = "latest"
	IdeaSortPopular IdeaSort = "popular"
)

type IdeaService struct {
	db DB
	// now is swapped out in tests to pin the submission day.
	now func() time.Time
}

func NewIdeaService(db DB) *IdeaService {
	return &IdeaService{db: db, now: time.Now}
}

// Create records one idea for the author's current day. A second idea
// on the same day is rejected.
func (s *IdeaService) Create(ctx context.Context, authorID uuid.UUID, text string) (*models.Idea, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	date := s.now().UTC().Format("2006-01-02")
	idea := &models.Idea{
		Text:      text,
		AuthorID:  authorID,
		Date:      date,
		Reactions: map[string][]uuid.UUID{},
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO ideas (author_id, text, idea_date)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		authorID, text, date,
	).Scan(&idea.ID, &idea.CreatedAt)
	if isUniqueViolation(err) {
		return nil, ErrIdeaExistsToday
	}
	if err != nil {
		return nil, fmt.Errorf("creating idea: %w", err)
	}
	return idea, nil
}

// List returns ideas with their reaction membership. Popular ordering
// ranks by total reaction count, ties broken by recency.
func (s *IdeaService) List(ctx context.Context, order IdeaSort) ([]models.Idea, error) {
	switch order {
	case IdeaSortLatest, IdeaSortPopular:
	case "":
		order = IdeaSortLatest
	default:
		return nil, ErrUnknownIdeaSort
	}

	ideas, err := s.fetch(ctx,
		`SELECT i.id, i.text, i.author_id, u.display_name, i.idea_date, i.created_at, i.updated_at
		 FROM ideas i
		 JOIN users u ON u.id = i.author_id
		 ORDER BY i.created_at DESC`,
	)
	if err != nil {
		return nil, err
	}

	if order == IdeaSortPopular {
		sort.SliceStable(ideas, func(a, b int) bool {
			return ideas[a].ReactionCount() > ideas[b].ReactionCount()
		})
	}
	return ideas, nil
}

func (s *IdeaService) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Idea, error) {
	return s.fetch(ctx,
		`SELECT i.id, i.text, i.author_id, u.display_name, i.idea_date, i.created_at, i.updated_at
		 FROM ideas i
		 JOIN users u ON u.id = i.author_id
		 WHERE i.author_id = $1
		 ORDER BY i.created_at DESC`,
		authorID,
	)
}

func (s *IdeaService) fetch(ctx context.Context, query string, args ...any) ([]models.Idea, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing ideas: %w", err)
	}
	defer rows.Close()

	ideas := []models.Idea{}
	index := map[uuid.UUID]int{}
	for rows.Next() {
		var i models.Idea
		var date time.Time
		if err := rows.Scan(&i.ID, &i.Text, &i.AuthorID, &i.AuthorName, &date, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning idea: %w", err)
		}
		i.Date = date.Format("2006-01-02")
		i.Reactions = map[string][]uuid.UUID{}
		index[i.ID] = len(ideas)
		ideas = append(ideas, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing ideas: %w", err)
	}

	if len(ideas) == 0 {
		return ideas, nil
	}

	reactionRows, err := s.db.Query(ctx,
		`SELECT idea_id, tag, user_id FROM idea_reactions ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing idea reactions: %w", err)
	}
	defer reactionRows.Close()

	for reactionRows.Next() {
		var ideaID, userID uuid.UUID
		var tag string
		if err := reactionRows.Scan(&ideaID, &tag, &userID); err != nil {
			return nil, fmt.Errorf("scanning idea reaction: %w", err)
		}
		if i, ok := index[ideaID]; ok {
			ideas[i].Reactions[tag] = append(ideas[i].Reactions[tag], userID)
		}
	}
	if err := reactionRows.Err(); err != nil {
		return nil, fmt.Errorf("listing idea reactions: %w", err)
	}
	return ideas, nil
}

// Random picks one idea uniformly at random for the spotlight slot.
func (s *IdeaService) Random(ctx context.Context) (*models.Idea, error) {
	idea := &models.Idea{Reactions: map[string][]uuid.UUID{}}
	var date time.Time
	err := s.db.QueryRow(ctx,
		`SELECT i.id, i.text, i.author_id, u.display_name, i.idea_date, i.created_at, i.updated_at
		 FROM ideas i
		 JOIN users u ON u.id = i.author_id
		 ORDER BY random()
		 LIMIT 1`,
	).Scan(&idea.ID, &idea.Text, &idea.AuthorID, &idea.AuthorName, &date, &idea.CreatedAt, &idea.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoIdeas
	}
	if err != nil {
		return nil, fmt.Errorf("picking random idea: %w", err)
	}
	idea.Date = date.Format("2006-01-02")

	rows, err := s.db.Query(ctx,
		`SELECT tag, user_id FROM idea_reactions WHERE idea_id = $1 ORDER BY created_at`,
		idea.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing idea reactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID uuid.UUID
		var tag string
		if err := rows.Scan(&tag, &userID); err != nil {
			return nil, fmt.Errorf("scanning idea reaction: %w", err)
		}
		idea.Reactions[tag] = append(idea.Reactions[tag], userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing idea reactions: %w", err)
	}
	return idea, nil
}

// ToggleReaction flips the user's membership in an idea's reaction set
// and reports whether the reaction is now on.
func (s *IdeaService) ToggleReaction(ctx context.Context, ideaID, userID uuid.UUID, tag string) (bool, error) {
	if !slices.Contains(models.AllowedIdeaReactions, tag) {
		return false, ErrIdeaReactionType
	}

	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM ideas WHERE id = $1)`, ideaID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking idea: %w", err)
	}
	if !exists {
		return false, ErrIdeaNotFound
	}

	result, err := s.db.Exec(ctx,
		`DELETE FROM idea_reactions WHERE idea_id = $1 AND user_id = $2 AND tag = $3`,
		ideaID, userID, tag,
	)
	if err != nil {
		return false, fmt.Errorf("removing reaction: %w", err)
	}
	if result.RowsAffected() > 0 {
		return false, nil
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO idea_reactions (idea_id, user_id, tag)
		 VALUES ($1, $2, $3)
		 ON CONFLICT DO NOTHING`,
		ideaID, userID, tag,
	)
	if err != nil {
		return false, fmt.Errorf("adding reaction: %w", err)
	}
	return true, nil
}

// Leaderboard ranks idea authors by lifetime reactions received and
// returns the top entries.
func (s *IdeaService) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT i.author_id, u.display_name, COUNT(r.user_id)
		 FROM ideas i
		 JOIN users u ON u.id = i.author_id
		 LEFT JOIN idea_reactions r ON r.idea_id = i.id
		 GROUP BY i.author_id, u.display_name, u.created_at
		 ORDER BY u.created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("ranking authors: %w", err)
	}
	defer rows.Close()

	scores := []tally.AuthorScore{}
	for rows.Next() {
		var authorID uuid.UUID
		var name string
		var count int
		if err := rows.Scan(&authorID, &name, &count); err != nil {
			return nil, fmt.Errorf("scanning author score: %w", err)
		}
		scores = append(scores, tally.AuthorScore{AuthorID: authorID.String(), AuthorName: name, Score: count})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ranking authors: %w", err)
	}

	entries := []models.LeaderboardEntry{}
	for _, e := range tally.RankAuthors(scores) {
		id, err := uuid.Parse(e.AuthorID)
		if err != nil {
			return nil, fmt.Errorf("parsing author id: %w", err)
		}
		entries = append(entries, models.LeaderboardEntry{
			AuthorID:   id,
			AuthorName: e.AuthorName,
			Score:      e.Score,
		})
	}
	return entries, nil
}

// Delete removes an idea and its reactions.
func (s *IdeaService) Delete(ctx context.Context, ideaID, userID uuid.UUID, isAdmin bool) error {
	var authorID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT author_id FROM ideas WHERE id = $1`, ideaID).Scan(&authorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrIdeaNotFound
	}
	if err != nil {
		return fmt.Errorf("getting idea author: %w", err)
	}
	if authorID != userID && !isAdmin {
		return ErrNotIdeaAuthor
	}

	result, err := s.db.Exec(ctx, `DELETE FROM ideas WHERE id = $1`, ideaID)
	if err != nil {
		return fmt.Errorf("deleting idea: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrIdeaNotFound
	}
	return nil
}
