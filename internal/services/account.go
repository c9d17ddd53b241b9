package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/topicless/hub/internal/models"
)

// AccountContent is everything a user has contributed, grouped by kind.
type AccountContent struct {
	Questions []models.Question    `json:"questions"`
	Polls     []models.Poll        `json:"polls"`
	Ideas     []models.Idea        `json:"ideas"`
	Wyr       []models.WyrQuestion `json:"would_you_rather"`
}

type AccountService struct {
	users     *UserService
	questions *QuestionService
	polls     *PollService
	ideas     *IdeaService
	wyr       *WyrService
}

func NewAccountService(users *UserService, questions *QuestionService, polls *PollService, ideas *IdeaService, wyr *WyrService) *AccountService {
	return &AccountService{users: users, questions: questions, polls: polls, ideas: ideas, wyr: wyr}
}

// Content gathers the user's own posts across every feature.
func (s *AccountService) Content(ctx context.Context, userID uuid.UUID) (*AccountContent, error) {
	questions, err := s.questions.ListByAuthor(ctx, userID)
	if err != nil {
		return nil, err
	}
	polls, err := s.polls.ListByAuthor(ctx, userID)
	if err != nil {
		return nil, err
	}
	ideas, err := s.ideas.ListByAuthor(ctx, userID)
	if err != nil {
		return nil, err
	}
	wyr, err := s.wyr.ListByAuthor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &AccountContent{Questions: questions, Polls: polls, Ideas: ideas, Wyr: wyr}, nil
}

// BuildExportZip bundles the user's profile and contributions as CSVs.
func (s *AccountService) BuildExportZip(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user for export: %w", err)
	}

	content, err := s.Content(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load content for export: %w", err)
	}

	var buf bytes.Buffer
	zipWriter := zip.NewWriter(&buf)

	if err := writeExportReadme(zipWriter, time.Now().UTC()); err != nil {
		return nil, err
	}

	if err := writeCSVFile(zipWriter, "user.csv",
		[]string{"id", "email", "display_name", "streak_count", "created_at"},
		[][]string{{
			user.ID.String(),
			user.Email,
			user.DisplayName,
			strconv.Itoa(user.StreakCount),
			user.CreatedAt.UTC().Format(time.RFC3339),
		}},
	); err != nil {
		return nil, err
	}

	questionRows := make([][]string, 0, len(content.Questions))
	for _, q := range content.Questions {
		questionRows = append(questionRows, []string{
			q.ID.String(), q.Text, strconv.Itoa(q.AnswerCount), q.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	if err := writeCSVFile(zipWriter, "questions.csv",
		[]string{"id", "text", "answer_count", "created_at"}, questionRows); err != nil {
		return nil, err
	}

	pollRows := make([][]string, 0, len(content.Polls))
	for _, p := range content.Polls {
		pollRows = append(pollRows, []string{
			p.ID.String(), p.Question, strconv.Itoa(p.VoteCount), p.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	if err := writeCSVFile(zipWriter, "polls.csv",
		[]string{"id", "question", "vote_count", "created_at"}, pollRows); err != nil {
		return nil, err
	}

	ideaRows := make([][]string, 0, len(content.Ideas))
	for _, i := range content.Ideas {
		ideaRows = append(ideaRows, []string{
			i.ID.String(), i.Text, i.Date, strconv.Itoa(i.ReactionCount()), i.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	if err := writeCSVFile(zipWriter, "ideas.csv",
		[]string{"id", "text", "date", "reactions", "created_at"}, ideaRows); err != nil {
		return nil, err
	}

	wyrRows := make([][]string, 0, len(content.Wyr))
	for _, w := range content.Wyr {
		wyrRows = append(wyrRows, []string{
			w.ID.String(), w.OptionA, w.OptionB, strconv.Itoa(w.VotesA), strconv.Itoa(w.VotesB), w.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	if err := writeCSVFile(zipWriter, "would_you_rather.csv",
		[]string{"id", "option_a", "option_b", "votes_a", "votes_b", "created_at"}, wyrRows); err != nil {
		return nil, err
	}

	if err := zipWriter.Close(); err != nil {
		return nil, fmt.Errorf("close export zip: %w", err)
	}
	return buf.Bytes(), nil
}

// DeleteAccount removes the user. Contributions, votes and reactions go
// with the row via cascading foreign keys, and the tallies they backed
// disappear with their subjects.
func (s *AccountService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	result, err := s.users.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func writeExportReadme(zw *zip.Writer, now time.Time) error {
	w, err := zw.Create("README.txt")
	if err != nil {
		return fmt.Errorf("create export readme: %w", err)
	}
	text := fmt.Sprintf("Topicless Hub account export\nGenerated: %s\n\nEach CSV holds one kind of contribution.\n", now.Format(time.RFC3339))
	if _, err := io.WriteString(w, text); err != nil {
		return fmt.Errorf("write export readme: %w", err)
	}
	return nil
}

func writeCSVFile(zw *zip.Writer, name string, header []string, rows [][]string) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write %s header: %w", name, err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write %s row: %w", name, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", name, err)
	}
	return nil
}
