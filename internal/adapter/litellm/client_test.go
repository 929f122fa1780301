package litellm_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/inkpress-ai/inkpress/internal/adapter/litellm"
	"github.com/inkpress-ai/inkpress/internal/port/provider"
	"github.com/inkpress-ai/inkpress/internal/resilience"
)

const completionBody = `{
	"choices": [{"message": {"role": "assistant", "content": "generated text"}}],
	"usage": {"prompt_tokens": 40, "completion_tokens": 80, "total_tokens": 120}
}`

func TestGenerateReadsTextAndCost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Fatalf("unexpected auth: %q", auth)
		}

		w.Header().Set("x-litellm-response-cost", "0.0042")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	defer srv.Close()

	client := litellm.NewClient(srv.URL, "test-key")
	res, err := client.Generate(context.Background(), provider.Request{
		Prompt: "write something",
		Model:  "openai/gpt-4o-mini",
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if res.Text != "generated text" {
		t.Fatalf("expected generated text, got %q", res.Text)
	}
	if res.TokensUsed != 120 {
		t.Fatalf("expected 120 tokens, got %d", res.TokensUsed)
	}
	if res.CostUSD != 0.0042 {
		t.Fatalf("expected cost 0.0042, got %f", res.CostUSD)
	}
}

func TestGenerateMissingCostHeaderIsZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(completionBody))
	}))
	defer srv.Close()

	client := litellm.NewClient(srv.URL, "")
	res, err := client.Generate(context.Background(), provider.Request{Prompt: "p", Model: "m"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if res.CostUSD != 0 {
		t.Fatalf("expected zero cost without header, got %f", res.CostUSD)
	}
}

func TestGenerateRateLimitIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := litellm.NewClient(srv.URL, "")
	_, err := client.Generate(context.Background(), provider.Request{Prompt: "p", Model: "m"})
	if !provider.IsTransient(err) {
		t.Fatalf("expected transient error for 429, got %v", err)
	}
}

func TestGenerateBadRequestIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"unknown model"}`))
	}))
	defer srv.Close()

	client := litellm.NewClient(srv.URL, "")
	_, err := client.Generate(context.Background(), provider.Request{Prompt: "p", Model: "m"})
	if err == nil {
		t.Fatal("expected error for 400")
	}
	if provider.IsTransient(err) {
		t.Fatalf("400 must not be retryable, got %v", err)
	}
}

func TestGenerateCancelledContextPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(50 * time.Millisecond)
		_, _ = w.Write([]byte(completionBody))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := litellm.NewClient(srv.URL, "")
	_, err := client.Generate(ctx, provider.Request{Prompt: "p", Model: "m"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if provider.IsTransient(err) {
		t.Fatalf("cancellation must not be retryable, got %v", err)
	}
}

func TestGenerateOpenBreakerIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := litellm.NewClient(srv.URL, "")
	client.SetBreaker(resilience.NewBreaker(1, time.Hour))

	if _, err := client.Generate(context.Background(), provider.Request{Prompt: "p", Model: "m"}); err == nil {
		t.Fatal("expected the tripping call to fail")
	}

	_, err := client.Generate(context.Background(), provider.Request{Prompt: "p", Model: "m"})
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if !provider.IsTransient(err) {
		t.Fatalf("open breaker must surface as transient, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health/liveliness" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := litellm.NewClient(srv.URL, "")
	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("Health failed: %v", err)
	}
}
