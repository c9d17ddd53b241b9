package handlers

import (
	"bytes"
	"context"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/topicless/hub/internal/models"
	"github.com/topicless/hub/internal/services"
	"github.com/topicless/hub/internal/testutil"
)

func TestOGImageHandler_Poll(t *testing.T) {
	pollID := testutil.RandomUUID()
	handler := NewOGImageHandler(&mockPollService{
		GetFunc: func(ctx context.Context, gotID uuid.UUID) (*models.Poll, error) {
			if gotID != pollID {
				t.Fatalf("unexpected poll id %s", gotID)
			}
			return &models.Poll{
				ID:       pollID,
				Question: "Tabs or spaces?",
				Options: []models.PollOption{
					{ID: testutil.RandomUUID(), Text: "Tabs", VoteCount: 3},
					{ID: testutil.RandomUUID(), Text: "Spaces", VoteCount: 7},
				},
				VoteCount: 10,
			}, nil
		},
	})

	req := testutil.NewTestRequest(http.MethodGet, "/og/polls/"+pollID.String()+".png", nil)
	req.SetPathValue("id", pollID.String()+".png")
	rr := httptest.NewRecorder()

	handler.Poll(rr, req)
	testutil.AssertStatusCode(t, rr, http.StatusOK)

	if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected image/png, got %q", ct)
	}
	if cc := rr.Header().Get("Cache-Control"); cc == "" {
		t.Fatal("expected a Cache-Control header")
	}
	if _, err := png.Decode(bytes.NewReader(rr.Body.Bytes())); err != nil {
		t.Fatalf("response is not a decodable PNG: %v", err)
	}
}

func TestOGImageHandler_Poll_NotFound(t *testing.T) {
	pollID := testutil.RandomUUID()
	handler := NewOGImageHandler(&mockPollService{
		GetFunc: func(ctx context.Context, gotID uuid.UUID) (*models.Poll, error) {
			return nil, services.ErrPollNotFound
		},
	})

	req := testutil.NewTestRequest(http.MethodGet, "/og/polls/"+pollID.String()+".png", nil)
	req.SetPathValue("id", pollID.String()+".png")
	rr := httptest.NewRecorder()

	handler.Poll(rr, req)
	testutil.AssertStatusCode(t, rr, http.StatusNotFound)
}
