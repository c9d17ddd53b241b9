package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestQuestionService_Answer_BumpsAnswerCount(t *testing.T) {
	questionID := uuid.New()
	var bumped bool
	tx := &fakeTx{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			switch {
			case strings.Contains(sql, "SELECT EXISTS"):
				return rowFromValues(true)
			case strings.Contains(sql, "INSERT INTO answers"):
				return rowFromValues(uuid.New(), time.Now())
			case strings.Contains(sql, "FROM users"):
				return rowFromValues("sam")
			}
			t.Fatalf("unexpected query sql: %q", sql)
			return rowFromValues()
		},
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			if !strings.Contains(sql, "answer_count = answer_count + 1") {
				t.Fatalf("unexpected sql: %q", sql)
			}
			bumped = true
			return fakeCommandTag{rowsAffected: 1}, nil
		},
	}
	db := &fakeDB{BeginFunc: func(ctx context.Context) (Tx, error) { return tx, nil }}

	svc := NewQuestionService(db)
	a, err := svc.Answer(context.Background(), questionID, uuid.New(), "just start", false)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if !bumped {
		t.Fatal("expected answer_count bump")
	}
	if a.AuthorName != "sam" {
		t.Fatalf("expected author name sam, got %q", a.AuthorName)
	}
	if !tx.committed {
		t.Fatal("expected commit")
	}
}

func TestQuestionService_Answer_AnonymousHidesAuthor(t *testing.T) {
	tx := &fakeTx{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			switch {
			case strings.Contains(sql, "SELECT EXISTS"):
				return rowFromValues(true)
			case strings.Contains(sql, "INSERT INTO answers"):
				return rowFromValues(uuid.New(), time.Now())
			case strings.Contains(sql, "FROM users"):
				t.Fatal("anonymous answer must not look up the author name")
			}
			return rowFromValues()
		},
	}
	db := &fakeDB{BeginFunc: func(ctx context.Context) (Tx, error) { return tx, nil }}

	svc := NewQuestionService(db)
	a, err := svc.Answer(context.Background(), uuid.New(), uuid.New(), "just start", true)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if a.AuthorName != "Anonymous" {
		t.Fatalf("expected Anonymous, got %q", a.AuthorName)
	}
}

func TestQuestionService_Answer_UnknownQuestion(t *testing.T) {
	tx := &fakeTx{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues(false)
		},
	}
	db := &fakeDB{BeginFunc: func(ctx context.Context) (Tx, error) { return tx, nil }}

	svc := NewQuestionService(db)
	_, err := svc.Answer(context.Background(), uuid.New(), uuid.New(), "hm", false)
	if !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
	if !tx.rolledBack {
		t.Fatal("expected rollback")
	}
}

func TestQuestionService_ToggleReaction_UnknownTag(t *testing.T) {
	svc := NewQuestionService(&fakeDB{})
	if _, err := svc.ToggleReaction(context.Background(), uuid.New(), uuid.New(), "👎"); !errors.Is(err, ErrUnknownReaction) {
		t.Fatalf("expected ErrUnknownReaction, got %v", err)
	}
}

func TestQuestionService_ToggleReaction_OnThenOff(t *testing.T) {
	member := false
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues(true)
		},
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			if strings.Contains(sql, "DELETE FROM answer_reactions") {
				if member {
					member = false
					return fakeCommandTag{rowsAffected: 1}, nil
				}
				return fakeCommandTag{}, nil
			}
			member = true
			return fakeCommandTag{rowsAffected: 1}, nil
		},
	}
	svc := NewQuestionService(db)

	on, err := svc.ToggleReaction(context.Background(), uuid.New(), uuid.New(), "❤️")
	if err != nil || !on {
		t.Fatalf("expected toggle on, got on=%v err=%v", on, err)
	}
	on, err = svc.ToggleReaction(context.Background(), uuid.New(), uuid.New(), "❤️")
	if err != nil || on {
		t.Fatalf("expected toggle off, got on=%v err=%v", on, err)
	}
}

func TestQuestionService_Answers_GroupsReactions(t *testing.T) {
	questionID := uuid.New()
	answerID := uuid.New()
	fan := uuid.New()
	db := &fakeDB{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (Rows, error) {
			if strings.Contains(sql, "FROM answers a") {
				return &fakeRows{rows: [][]any{
					{answerID, questionID, "just start", uuid.New(), false, "sam", time.Now()},
				}}, nil
			}
			return &fakeRows{rows: [][]any{
				{answerID, "🔥", fan},
				{answerID, "😆", fan},
			}}, nil
		},
	}
	svc := NewQuestionService(db)
	answers, err := svc.Answers(context.Background(), questionID)
	if err != nil {
		t.Fatalf("answers: %v", err)
	}
	if len(answers) != 1 {
		t.Fatalf("expected one answer, got %d", len(answers))
	}
	if got := answers[0].Reactions["🔥"]; len(got) != 1 || got[0] != fan {
		t.Fatalf("expected fire reaction from %s, got %v", fan, got)
	}
	if len(answers[0].Reactions["😆"]) != 1 {
		t.Fatalf("expected laugh reaction, got %v", answers[0].Reactions)
	}
}

func TestQuestionService_Create_EmptyText(t *testing.T) {
	svc := NewQuestionService(&fakeDB{})
	if _, err := svc.Create(context.Background(), uuid.New(), "  "); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
}
