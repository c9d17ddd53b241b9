package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/topicless/hub/internal/models"
)

func wyrTx(t *testing.T, questionID uuid.UUID, prev *models.WyrChoice, execs *[]string) *fakeTx {
	t.Helper()
	return &fakeTx{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			switch {
			case strings.Contains(sql, "SELECT EXISTS"):
				return rowFromValues(true)
			case strings.Contains(sql, "FROM wyr_votes WHERE"):
				if prev == nil {
					return rowWithError(pgx.ErrNoRows)
				}
				return rowFromValues(string(*prev))
			case strings.Contains(sql, "FROM wyr_questions w"):
				return rowFromValues(questionID, "tea", "coffee", uuid.New(), "sam", 3, 4, time.Now(), nil)
			}
			t.Fatalf("unexpected query sql: %q", sql)
			return rowFromValues()
		},
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			*execs = append(*execs, sql)
			return fakeCommandTag{rowsAffected: 1}, nil
		},
	}
}

func TestWyrService_Vote_InvalidChoice(t *testing.T) {
	svc := NewWyrService(&fakeDB{})
	if _, err := svc.Vote(context.Background(), uuid.New(), uuid.New(), "C"); !errors.Is(err, ErrInvalidChoice) {
		t.Fatalf("expected ErrInvalidChoice, got %v", err)
	}
}

func TestWyrService_Vote_FirstVote(t *testing.T) {
	questionID := uuid.New()
	execs := []string{}
	tx := wyrTx(t, questionID, nil, &execs)
	db := &fakeDB{BeginFunc: func(ctx context.Context) (Tx, error) { return tx, nil }}

	svc := NewWyrService(db)
	q, err := svc.Vote(context.Background(), questionID, uuid.New(), models.WyrChoiceA)
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if q.ID != questionID {
		t.Fatalf("expected question %s, got %s", questionID, q.ID)
	}

	var sawIncrement, sawDecrement bool
	for _, sql := range execs {
		if strings.Contains(sql, "votes_a = votes_a + 1") {
			sawIncrement = true
		}
		if strings.Contains(sql, "GREATEST") {
			sawDecrement = true
		}
	}
	if !sawIncrement {
		t.Fatalf("expected side A increment, got %v", execs)
	}
	if sawDecrement {
		t.Fatal("first vote must not decrement")
	}
}

func TestWyrService_Vote_SwitchSides(t *testing.T) {
	questionID := uuid.New()
	prev := models.WyrChoiceA
	execs := []string{}
	tx := wyrTx(t, questionID, &prev, &execs)
	db := &fakeDB{BeginFunc: func(ctx context.Context) (Tx, error) { return tx, nil }}

	svc := NewWyrService(db)
	if _, err := svc.Vote(context.Background(), questionID, uuid.New(), models.WyrChoiceB); err != nil {
		t.Fatalf("vote: %v", err)
	}

	var sawDecrementA, sawIncrementB bool
	for _, sql := range execs {
		if strings.Contains(sql, "GREATEST(votes_a - 1, 0)") {
			sawDecrementA = true
		}
		if strings.Contains(sql, "votes_b = votes_b + 1") {
			sawIncrementB = true
		}
	}
	if !sawDecrementA || !sawIncrementB {
		t.Fatalf("switch must move one count from A to B, got %v", execs)
	}
}

func TestWyrService_Vote_SameSideIsNoOp(t *testing.T) {
	questionID := uuid.New()
	prev := models.WyrChoiceB
	execs := []string{}
	tx := wyrTx(t, questionID, &prev, &execs)
	db := &fakeDB{
		BeginFunc: func(ctx context.Context) (Tx, error) { return tx, nil },
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues(questionID, "tea", "coffee", uuid.New(), "sam", 3, 4, time.Now(), nil)
		},
	}

	svc := NewWyrService(db)
	if _, err := svc.Vote(context.Background(), questionID, uuid.New(), models.WyrChoiceB); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if len(execs) != 0 {
		t.Fatalf("repeat vote must not write, got %v", execs)
	}
	if !tx.committed {
		t.Fatal("expected commit")
	}
}

func TestWyrService_Comment_RequiresVote(t *testing.T) {
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			if strings.Contains(sql, "FROM wyr_votes") {
				return rowWithError(pgx.ErrNoRows)
			}
			return rowFromValues(true)
		},
	}
	svc := NewWyrService(db)
	_, err := svc.Comment(context.Background(), uuid.New(), uuid.New(), "tea, obviously")
	if !errors.Is(err, ErrVoteRequired) {
		t.Fatalf("expected ErrVoteRequired, got %v", err)
	}
}

func TestWyrService_Comment_CarriesVoterSide(t *testing.T) {
	questionID := uuid.New()
	authorID := uuid.New()
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			switch {
			case strings.Contains(sql, "FROM wyr_votes"):
				return rowFromValues("B")
			case strings.Contains(sql, "INSERT INTO wyr_comments"):
				if args[3] != "B" {
					t.Fatalf("expected comment to carry side B, got %v", args[3])
				}
				return rowFromValues(uuid.New(), time.Now())
			case strings.Contains(sql, "FROM users"):
				return rowFromValues("sam")
			}
			t.Fatalf("unexpected query sql: %q", sql)
			return rowFromValues()
		},
	}
	svc := NewWyrService(db)
	c, err := svc.Comment(context.Background(), questionID, authorID, "coffee forever")
	if err != nil {
		t.Fatalf("comment: %v", err)
	}
	if c.Choice != models.WyrChoiceB {
		t.Fatalf("expected choice B, got %s", c.Choice)
	}
	if c.AuthorName != "sam" {
		t.Fatalf("expected author name sam, got %q", c.AuthorName)
	}
}

func TestWyrService_Create_Validation(t *testing.T) {
	svc := NewWyrService(&fakeDB{})
	if _, err := svc.Create(context.Background(), uuid.New(), "tea", " "); !errors.Is(err, ErrMissingOption) {
		t.Fatalf("expected ErrMissingOption, got %v", err)
	}
	if _, err := svc.Create(context.Background(), uuid.New(), "Tea", "tea"); !errors.Is(err, ErrIdenticalOption) {
		t.Fatalf("expected ErrIdenticalOption, got %v", err)
	}
}
