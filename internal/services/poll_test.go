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

func pollTx(t *testing.T, pollID, optionID uuid.UUID, prevOption *uuid.UUID, execs *[]string) *fakeTx {
	t.Helper()
	return &fakeTx{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			switch {
			case strings.Contains(sql, "FROM polls WHERE id"):
				return rowFromValues(true)
			case strings.Contains(sql, "FROM poll_options WHERE id"):
				return rowFromValues(args[0] == optionID)
			case strings.Contains(sql, "FROM poll_votes WHERE"):
				if prevOption == nil {
					return rowWithError(pgx.ErrNoRows)
				}
				return rowFromValues(*prevOption)
			case strings.Contains(sql, "FROM polls p"):
				return rowFromValues(pollID, "Cats or dogs?", nil, uuid.New(), "sam", 2, time.Now(), nil)
			}
			t.Fatalf("unexpected query sql: %q", sql)
			return rowFromValues()
		},
		QueryFunc: func(ctx context.Context, sql string, args ...any) (Rows, error) {
			if !strings.Contains(sql, "FROM poll_options") {
				t.Fatalf("unexpected query sql: %q", sql)
			}
			return &fakeRows{rows: [][]any{
				{optionID, "Cats", 1},
				{uuid.New(), "Dogs", 1},
			}}, nil
		},
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			*execs = append(*execs, sql)
			return fakeCommandTag{rowsAffected: 1}, nil
		},
	}
}

func TestPollService_Vote_FirstVote(t *testing.T) {
	pollID := uuid.New()
	optionID := uuid.New()
	execs := []string{}
	tx := pollTx(t, pollID, optionID, nil, &execs)
	db := &fakeDB{BeginFunc: func(ctx context.Context) (Tx, error) { return tx, nil }}

	svc := NewPollService(db)
	poll, err := svc.Vote(context.Background(), pollID, uuid.New(), optionID)
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if poll.ID != pollID {
		t.Fatalf("expected poll %s, got %s", pollID, poll.ID)
	}
	if !tx.committed {
		t.Fatal("expected commit")
	}

	var sawInsert, sawIncrement, sawTotal, sawDecrement bool
	for _, sql := range execs {
		switch {
		case strings.Contains(sql, "INSERT INTO poll_votes"):
			sawInsert = true
		case strings.Contains(sql, "vote_count + 1") && strings.Contains(sql, "poll_options"):
			sawIncrement = true
		case strings.Contains(sql, "UPDATE polls SET vote_count"):
			sawTotal = true
		case strings.Contains(sql, "GREATEST"):
			sawDecrement = true
		}
	}
	if !sawInsert || !sawIncrement || !sawTotal {
		t.Fatalf("missing statement, got %v", execs)
	}
	if sawDecrement {
		t.Fatal("first vote must not decrement")
	}
}

func TestPollService_Vote_SameOptionIsNoOp(t *testing.T) {
	pollID := uuid.New()
	optionID := uuid.New()
	execs := []string{}
	tx := pollTx(t, pollID, optionID, &optionID, &execs)
	db := &fakeDB{
		BeginFunc: func(ctx context.Context) (Tx, error) { return tx, nil },
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues(pollID, "Cats or dogs?", nil, uuid.New(), "sam", 2, time.Now(), nil)
		},
		QueryFunc: func(ctx context.Context, sql string, args ...any) (Rows, error) {
			return &fakeRows{rows: [][]any{{optionID, "Cats", 2}}}, nil
		},
	}

	svc := NewPollService(db)
	if _, err := svc.Vote(context.Background(), pollID, uuid.New(), optionID); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if len(execs) != 0 {
		t.Fatalf("repeat vote must not write, got %v", execs)
	}
	if !tx.committed {
		t.Fatal("expected commit")
	}
}

func TestPollService_Vote_SwitchMovesOneCount(t *testing.T) {
	pollID := uuid.New()
	optionID := uuid.New()
	prevOption := uuid.New()
	execs := []string{}
	tx := pollTx(t, pollID, optionID, &prevOption, &execs)
	db := &fakeDB{BeginFunc: func(ctx context.Context) (Tx, error) { return tx, nil }}

	svc := NewPollService(db)
	if _, err := svc.Vote(context.Background(), pollID, uuid.New(), optionID); err != nil {
		t.Fatalf("vote: %v", err)
	}

	var sawDecrement, sawTotal bool
	for _, sql := range execs {
		if strings.Contains(sql, "GREATEST(vote_count - 1, 0)") {
			sawDecrement = true
		}
		if strings.Contains(sql, "UPDATE polls SET vote_count") {
			sawTotal = true
		}
	}
	if !sawDecrement {
		t.Fatalf("switch must decrement the previous option, got %v", execs)
	}
	if sawTotal {
		t.Fatalf("switch must not change the poll total, got %v", execs)
	}
}

func TestPollService_Vote_UnknownOption(t *testing.T) {
	pollID := uuid.New()
	execs := []string{}
	tx := pollTx(t, pollID, uuid.New(), nil, &execs)
	db := &fakeDB{BeginFunc: func(ctx context.Context) (Tx, error) { return tx, nil }}

	svc := NewPollService(db)
	_, err := svc.Vote(context.Background(), pollID, uuid.New(), uuid.New())
	if !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption, got %v", err)
	}
	if len(execs) != 0 {
		t.Fatalf("rejected vote must not write, got %v", execs)
	}
	if !tx.rolledBack {
		t.Fatal("expected rollback")
	}
}

func TestPollService_Vote_UnknownPoll(t *testing.T) {
	tx := &fakeTx{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues(false)
		},
	}
	db := &fakeDB{BeginFunc: func(ctx context.Context) (Tx, error) { return tx, nil }}

	svc := NewPollService(db)
	_, err := svc.Vote(context.Background(), uuid.New(), uuid.New(), uuid.New())
	if !errors.Is(err, ErrPollNotFound) {
		t.Fatalf("expected ErrPollNotFound, got %v", err)
	}
}

func TestPollService_Create_RequiresTwoOptions(t *testing.T) {
	svc := NewPollService(&fakeDB{})
	_, err := svc.Create(context.Background(), uuid.New(), createPollParams("Cats or dogs?", "Cats", "  "))
	if !errors.Is(err, ErrTooFewOptions) {
		t.Fatalf("expected ErrTooFewOptions, got %v", err)
	}
}

func TestPollService_Create_TooManyOptions(t *testing.T) {
	options := make([]string, maxPollOptions+1)
	for i := range options {
		options[i] = "option"
	}
	svc := NewPollService(&fakeDB{})
	_, err := svc.Create(context.Background(), uuid.New(), createPollParams("Pick one", options...))
	if !errors.Is(err, ErrTooManyOptions) {
		t.Fatalf("expected ErrTooManyOptions, got %v", err)
	}
}

func TestPollService_Delete_NotAuthor(t *testing.T) {
	authorID := uuid.New()
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues(authorID)
		},
	}
	svc := NewPollService(db)
	err := svc.Delete(context.Background(), uuid.New(), uuid.New(), false)
	if !errors.Is(err, ErrNotPollAuthor) {
		t.Fatalf("expected ErrNotPollAuthor, got %v", err)
	}
}

func TestPollService_Delete_AdminOverride(t *testing.T) {
	authorID := uuid.New()
	var deleted bool
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues(authorID)
		},
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			deleted = true
			return fakeCommandTag{rowsAffected: 1}, nil
		},
	}
	svc := NewPollService(db)
	if err := svc.Delete(context.Background(), uuid.New(), uuid.New(), true); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted {
		t.Fatal("expected delete to run")
	}
}

func createPollParams(question string, options ...string) (p models.CreatePollParams) {
	p.Question = question
	p.Options = options
	return p
}
