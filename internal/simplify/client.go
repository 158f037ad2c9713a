// Package simplify turns redacted document text into a plain-language
// explanation via the Groq chat completions API.
package simplify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/klarpost/klarpost/internal/domain"
	"github.com/klarpost/klarpost/internal/observability"
)

const (
	groqURL      = "https://api.groq.com/openai/v1/chat/completions"
	defaultModel = "llama-3.3-70b-versatile"

	maxRetries     = 3
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
)

// Client calls the chat completions API.
type Client struct {
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	httpClient  *http.Client
	logger      *observability.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, for compatible gateways and tests.
// An empty url keeps the default.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithTemperature overrides the sampling temperature. Non-positive values
// keep the default.
func WithTemperature(t float64) Option {
	return func(c *Client) {
		if t > 0 {
			c.temperature = t
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a simplification client. An empty model selects the
// default.
func NewClient(apiKey, model string, logger *observability.Logger, opts ...Option) *Client {
	if model == "" {
		model = defaultModel
	}
	if logger == nil {
		logger = observability.Nop()
	}
	c := &Client{
		apiKey:      apiKey,
		model:       model,
		baseURL:     groqURL,
		temperature: 0.2,
		httpClient:  &http.Client{Timeout: 90 * time.Second},
		logger:      logger.WithComponent("simplify"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// message is one chat message.
type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// request is the chat completions request body.
type request struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

// response is the chat completions response body.
type response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Simplify sends the redacted text and returns the plain-language rendition
// in the target language. The input must already be redacted; this client
// never sees raw personal data.
func (c *Client) Simplify(ctx context.Context, redactedText, targetLanguage string) (string, error) {
	if !c.Configured() {
		return "", domain.ConfigurationMissingError("the transformation backend is not configured", nil)
	}

	body, err := json.Marshal(request{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(targetLanguage, redactedText)},
		},
	})
	if err != nil {
		return "", domain.UpstreamUnavailableError("failed to build the request", err)
	}

	resp, err := c.retryWithBackoff(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		return c.httpClient.Do(req)
	})
	if err != nil {
		return "", domain.UpstreamUnavailableError("the transformation backend could not be reached", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.logger.WithContext(ctx).Warn().
			Int("status", resp.StatusCode).
			Str("body", string(payload)).
			Msg("transformation backend returned an error")
		return "", domain.UpstreamUnavailableError(
			fmt.Sprintf("the transformation backend returned status %d", resp.StatusCode), nil)
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", domain.UpstreamUnavailableError("the transformation backend sent an unreadable response", err)
	}

	if len(parsed.Choices) == 0 {
		return "", domain.UpstreamUnavailableError("the transformation backend returned no result", nil)
	}
	out := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if out == "" {
		return "", domain.UpstreamUnavailableError("the transformation backend returned an empty result", nil)
	}
	return out, nil
}

// shouldRetry reports whether a status code is worth retrying.
func shouldRetry(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// calculateBackoff returns the exponential backoff for an attempt, capped.
func calculateBackoff(attempt int) time.Duration {
	backoff := float64(initialBackoff) * math.Pow(2, float64(attempt))
	if backoff > float64(maxBackoff) {
		backoff = float64(maxBackoff)
	}
	return time.Duration(backoff)
}

// retryWithBackoff wraps an HTTP request with retry on transient statuses.
func (c *Client) retryWithBackoff(ctx context.Context, reqFunc func() (*http.Response, error)) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		resp, err := reqFunc()
		if err != nil {
			lastErr = err
		} else if !shouldRetry(resp.StatusCode) {
			return resp, nil
		} else {
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp.Body.Close()
		}

		if attempt == maxRetries {
			break
		}

		backoff := calculateBackoff(attempt)
		c.logger.WithContext(ctx).Debug().
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(lastErr).
			Msg("retrying transformation request")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries+1, lastErr)
}
