package openaichat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stewardai/adaptive-rag/internal/core/domain"
	"github.com/stewardai/adaptive-rag/internal/infrastructure/resilience"
)

func completionBody(content string) string {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return string(body)
}

func newTestClient(url string, maxRetries int) *Client {
	return NewWithOptions(url, "test-key", "test-model", maxRetries, Options{
		Timeout:     2 * time.Second,
		BackoffStep: time.Millisecond,
		Executor: resilience.NewExecutor(resilience.Config{
			RetryMaxAttempts: maxRetries,
			RetryBackoffStep: time.Millisecond,
			RetryMaxBackoff:  time.Millisecond,
			BreakerEnabled:   false,
		}),
	})
}

func TestCompleteRetriesRateLimitThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token")
		}
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody("hello")))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 2)
	content, err := client.Complete(context.Background(), []domain.ChatMessage{domain.UserMessage("hi")}, 0.1)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if content != "hello" {
		t.Fatalf("unexpected content %q", content)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected one retry after 429, got %d calls", calls.Load())
	}
}

func TestCompleteDoesNotRetryServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 3)
	_, err := client.Complete(context.Background(), []domain.ChatMessage{domain.UserMessage("hi")}, 0.1)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("non-429 failures must not be retried, got %d calls", calls.Load())
	}
}

func TestCompleteMissingAPIKeyFailsWithoutRequest(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := NewWithOptions(server.URL, "", "test-model", 2, Options{})
	_, err := client.Complete(context.Background(), []domain.ChatMessage{domain.UserMessage("hi")}, 0.1)
	if !domain.IsKind(err, domain.ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("missing key must not hit the network")
	}
}

func TestCompleteRejectsEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 1)
	if _, err := client.Complete(context.Background(), []domain.ChatMessage{domain.UserMessage("hi")}, 0.1); err == nil {
		t.Fatalf("expected error for empty choices")
	}
}
