package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

type captureSender struct {
	to      string
	subject string
	body    string
	err     error
}

func (c *captureSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	c.to = to
	c.subject = subject
	c.body = htmlBody
	return c.err
}

func TestSubscriberService_Subscribe_StoresHashNotToken(t *testing.T) {
	var storedHash string
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			storedHash = args[1].(string)
			return rowFromValues(false)
		},
	}
	sender := &captureSender{}
	svc := NewSubscriberService(db, sender, "https://hub.example.com")

	if err := svc.Subscribe(context.Background(), "Pat@Example.com "); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if sender.to != "pat@example.com" {
		t.Fatalf("expected normalized recipient, got %q", sender.to)
	}

	idx := strings.Index(sender.body, "token=")
	if idx < 0 {
		t.Fatalf("expected token in body, got %q", sender.body)
	}
	token := sender.body[idx+len("token="):]
	token = token[:strings.IndexAny(token, `"`)]

	sum := sha256.Sum256([]byte(token))
	if storedHash != hex.EncodeToString(sum[:]) {
		t.Fatal("stored hash must be the SHA-256 of the mailed token")
	}
	if strings.Contains(storedHash, token) {
		t.Fatal("raw token must not be stored")
	}
}

func TestSubscriberService_Subscribe_AlreadyConfirmed(t *testing.T) {
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues(true)
		},
	}
	sender := &captureSender{}
	svc := NewSubscriberService(db, sender, "https://hub.example.com")

	err := svc.Subscribe(context.Background(), "pat@example.com")
	if !errors.Is(err, ErrAlreadySubscribed) {
		t.Fatalf("expected ErrAlreadySubscribed, got %v", err)
	}
	if sender.to != "" {
		t.Fatal("confirmed subscriber must not be re-mailed")
	}
}

func TestSubscriberService_Subscribe_InvalidEmail(t *testing.T) {
	svc := NewSubscriberService(&fakeDB{}, &captureSender{}, "https://hub.example.com")
	if err := svc.Subscribe(context.Background(), "not an email"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestSubscriberService_Confirm(t *testing.T) {
	var gotHash string
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			gotHash = args[0].(string)
			return fakeCommandTag{rowsAffected: 1}, nil
		},
	}
	svc := NewSubscriberService(db, &captureSender{}, "https://hub.example.com")

	if err := svc.Confirm(context.Background(), "rawtoken"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	sum := sha256.Sum256([]byte("rawtoken"))
	if gotHash != hex.EncodeToString(sum[:]) {
		t.Fatal("confirm must match on the token hash")
	}
}

func TestSubscriberService_Confirm_UnknownToken(t *testing.T) {
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			return fakeCommandTag{}, nil
		},
	}
	svc := NewSubscriberService(db, &captureSender{}, "https://hub.example.com")
	if err := svc.Confirm(context.Background(), "bogus"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSubscriberService_Count(t *testing.T) {
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			if !strings.Contains(sql, "WHERE confirmed") {
				t.Fatalf("count must only include confirmed subscribers: %q", sql)
			}
			return rowFromValues(42)
		},
	}
	svc := NewSubscriberService(db, &captureSender{}, "https://hub.example.com")
	count, err := svc.Count(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count.Count != 42 {
		t.Fatalf("expected 42, got %d", count.Count)
	}
}
