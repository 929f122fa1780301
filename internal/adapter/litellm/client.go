// Package litellm implements the generation provider port using the
// LiteLLM proxy's OpenAI-compatible completion API. A single proxy fronts
// every configured backend, so one client serves all model identifiers.
package litellm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/inkpress-ai/inkpress/internal/port/provider"
	"github.com/inkpress-ai/inkpress/internal/resilience"
)

// costHeader carries the proxy-computed cost of a completion in USD.
const costHeader = "x-litellm-response-cost"

// Client talks to the LiteLLM proxy completion API.
type Client struct {
	baseURL    string
	masterKey  string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates a new LiteLLM completion client. Per-call deadlines come
// from the request context, so the underlying http.Client carries no
// timeout of its own.
func NewClient(baseURL, masterKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		masterKey:  masterKey,
		httpClient: &http.Client{},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing completion calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Generate sends one completion request and returns the text plus the cost
// side channel. Timeouts, rate limits, and 5xx responses are surfaced as
// transient errors so the phase executor can retry them in place.
func (c *Client) Generate(ctx context.Context, req provider.Request) (*provider.Result, error) {
	body, err := json.Marshal(chatRequest{
		Model:     req.Model,
		Messages:  []chatMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	var result *provider.Result
	call := func() error {
		httpReq, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
		if reqErr != nil {
			return fmt.Errorf("create request: %w", reqErr)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if c.masterKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+c.masterKey)
		}

		resp, doErr := c.httpClient.Do(httpReq)
		if doErr != nil {
			return classifyTransportError(doErr)
		}
		defer func() { _ = resp.Body.Close() }()

		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
		if readErr != nil {
			return provider.Transient(fmt.Errorf("read response: %w", readErr))
		}

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("completion %s: status %d: %s", req.Model, resp.StatusCode, truncate(respBody, 256))
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return provider.Transient(err)
			}
			return err
		}

		var parsed chatResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return fmt.Errorf("unmarshal completion response: %w", err)
		}
		if len(parsed.Choices) == 0 {
			return fmt.Errorf("completion %s: empty choices", req.Model)
		}

		result = &provider.Result{
			Text:       parsed.Choices[0].Message.Content,
			TokensUsed: parsed.Usage.TotalTokens,
			CostUSD:    parseCost(resp.Header.Get(costHeader)),
		}
		return nil
	}

	if c.breaker != nil {
		err = c.breaker.Execute(call)
		if errors.Is(err, resilience.ErrCircuitOpen) {
			// An open breaker means the proxy is struggling, not that the
			// article is unservable. Let the retry backoff ride it out.
			err = provider.Transient(err)
		}
	} else {
		err = call()
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Health checks if the proxy is reachable.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health/liveliness", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("litellm health: status %d", resp.StatusCode)
	}
	return nil
}

// classifyTransportError marks timeouts and connection failures transient;
// context cancellation passes through untouched so aborts stay aborts.
func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return provider.Transient(err)
}

func parseCost(s string) float64 {
	if s == "" {
		return 0
	}
	cost, err := strconv.ParseFloat(s, 64)
	if err != nil || cost < 0 {
		return 0
	}
	return cost
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
