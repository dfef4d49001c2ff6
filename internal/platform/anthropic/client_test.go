package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fid098/ICHack-26-Security-Game/internal/platform/logger"
)

func testClient(t *testing.T, cfg Config) Client {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	c, err := New(log, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_RequiresAPIKey(t *testing.T) {
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	if _, err := New(log, Config{}); err == nil || !strings.Contains(err.Error(), "ANTHROPIC_API_KEY") {
		t.Fatalf("expected missing-key error, got %v", err)
	}
}

func TestGenerateText_JoinsContentBlocks(t *testing.T) {
	var gotReq messagesRequest
	var gotKey, gotVersion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path: %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(messagesResponse{Content: []contentBlock{
			{Type: "text", Text: "first block"},
			{Type: "text", Text: "second block"},
		}})
	}))
	defer srv.Close()

	c := testClient(t, Config{APIKey: "k", BaseURL: srv.URL, Model: "test-model", Version: "2023-06-01"})

	text, err := c.GenerateText(context.Background(), "system prompt", "user prompt", 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "first block\nsecond block" {
		t.Fatalf("unexpected text: %q", text)
	}
	if gotKey != "k" || gotVersion != "2023-06-01" {
		t.Fatalf("unexpected headers: key=%q version=%q", gotKey, gotVersion)
	}
	if gotReq.Model != "test-model" || gotReq.MaxTokens != 500 || gotReq.System != "system prompt" {
		t.Fatalf("unexpected request: %+v", gotReq)
	}
	if len(gotReq.Messages) != 1 || gotReq.Messages[0].Role != "user" || gotReq.Messages[0].Content != "user prompt" {
		t.Fatalf("unexpected messages: %+v", gotReq.Messages)
	}
}

func TestGenerateText_DefaultsMaxTokens(t *testing.T) {
	var gotReq messagesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(messagesResponse{Content: []contentBlock{{Type: "text", Text: "ok"}}})
	}))
	defer srv.Close()

	c := testClient(t, Config{APIKey: "k", BaseURL: srv.URL})
	if _, err := c.GenerateText(context.Background(), "", "hi", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotReq.MaxTokens != 1024 {
		t.Fatalf("expected default max tokens, got %d", gotReq.MaxTokens)
	}
}

func TestGenerateText_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"type":"rate_limit_error"}}`))
	}))
	defer srv.Close()

	c := testClient(t, Config{APIKey: "k", BaseURL: srv.URL})

	_, err := c.GenerateText(context.Background(), "", "hi", 100)
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("unexpected status: %d", httpErr.StatusCode)
	}
	if !strings.Contains(err.Error(), "rate_limit_error") {
		t.Fatalf("expected body in message, got %q", err.Error())
	}
}

func TestGenerateText_ConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := testClient(t, Config{APIKey: "k", BaseURL: srv.URL})

	_, err := c.GenerateText(context.Background(), "", "hi", 100)
	if err == nil || !strings.Contains(err.Error(), "connection failed") {
		t.Fatalf("expected connection failure, got %v", err)
	}
}

func TestGenerateText_UnexpectedShapeReturnsRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[]}`))
	}))
	defer srv.Close()

	c := testClient(t, Config{APIKey: "k", BaseURL: srv.URL})

	text, err := c.GenerateText(context.Background(), "", "hi", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != `{"content":[]}` {
		t.Fatalf("expected raw body passthrough, got %q", text)
	}
}
