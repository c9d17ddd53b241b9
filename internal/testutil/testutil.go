// Package testutil holds small helpers shared by handler tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

// NewTestRequest builds a plain request for handler tests.
func NewTestRequest(method, target string, body io.Reader) *http.Request {
	return httptest.NewRequest(method, target, body)
}

// NewTestRequestWithJSON builds a request with the payload marshalled as
// a JSON body.
func NewTestRequestWithJSON(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// ParseJSONResponse decodes a JSON object body.
func ParseJSONResponse(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("parse response: %v (body: %s)", err, body)
	}
	return parsed
}

// AssertStatusCode fails the test when the recorded status differs.
func AssertStatusCode(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("expected status %d, got %d (body: %s)", want, rr.Code, rr.Body.String())
	}
}

// AssertJSONContains fails the test when the body's key differs from want.
func AssertJSONContains(t *testing.T, body []byte, key string, want any) {
	t.Helper()
	parsed := ParseJSONResponse(t, body)
	got, ok := parsed[key]
	if !ok {
		t.Fatalf("expected key %q in response (body: %s)", key, body)
	}
	if got != want {
		t.Fatalf("expected %q=%v, got %v", key, want, got)
	}
}

func RandomUUID() uuid.UUID {
	return uuid.New()
}

func RandomEmail() string {
	return fmt.Sprintf("user-%s@example.com", uuid.NewString()[:8])
}
