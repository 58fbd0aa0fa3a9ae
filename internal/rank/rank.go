// Package rank is the optional relevance-ranking and summarization
// capability. It speaks the Ollama generate API over plain HTTP. The client
// is injected into the query engine, which attempts one bounded
// initialization and falls back to deterministic keyword scoring when the
// capability cannot serve a call. An error from this package never reaches
// a caller of the query API.
package rank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	DefaultTimeout = 30 * time.Second

	// probeTimeout bounds the availability check so a dead endpoint cannot
	// stall the first enhanced query.
	probeTimeout = 5 * time.Second
)

// Ranker is the capability contract the query engine consumes. Initialize is
// attempted once; IsAvailable reports the cached outcome. The three call
// methods may fail at any time and callers must tolerate that.
type Ranker interface {
	Initialize(ctx context.Context) error
	IsAvailable() bool
	Rank(ctx context.Context, query string, candidates []string) ([]float64, error)
	Summarize(ctx context.Context, text string) (string, error)
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client talks to an Ollama-compatible server.
type Client struct {
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *http.Client

	initialized bool
	available   bool
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the server URL.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithModel sets the generation model.
func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

// WithTimeout sets the per-request timeout for the call methods.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// NewClient creates a Client. No network traffic happens until Initialize.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient = &http.Client{Timeout: c.timeout}
	return c
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// BaseURL returns the configured server URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Initialize probes the server's tag listing once. The outcome is cached:
// repeated calls return the cached state without touching the network again.
func (c *Client) Initialize(ctx context.Context) error {
	if c.initialized {
		if c.available {
			return nil
		}
		return fmt.Errorf("ranking endpoint %s marked unavailable", c.baseURL)
	}
	c.initialized = true

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("building probe request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("probing %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("probing %s: status %d", c.baseURL, resp.StatusCode)
	}
	c.available = true
	return nil
}

// IsAvailable reports the cached probe outcome. False before Initialize.
func (c *Client) IsAvailable() bool {
	return c.initialized && c.available
}

// generateRequest is the body for /api/generate.
type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

// generateResponse is the non-streaming response from /api/generate.
type generateResponse struct {
	Response string `json:"response"`
}

// generate runs one non-streaming completion.
func (c *Client) generate(ctx context.Context, prompt, format string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Format: format,
	})
	if err != nil {
		return "", fmt.Errorf("encoding generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("generate returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding generate response: %w", err)
	}
	return out.Response, nil
}

// Rank scores candidates for relevance to query. The model is asked for a
// JSON object carrying one score per candidate; a malformed or short answer
// is an error and the caller falls back to keyword scoring.
func (c *Client) Rank(ctx context.Context, query string, candidates []string) ([]float64, error) {
	if len(candidates) == 0 {
		return []float64{}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Score each candidate for relevance to the query %q on a 0 to 1 scale.\n", query)
	b.WriteString("Respond with a JSON object of the form {\"scores\": [..]} holding exactly one number per candidate, in order.\n")
	for i, cand := range candidates {
		fmt.Fprintf(&b, "%d. %s\n", i+1, cand)
	}

	raw, err := c.generate(ctx, b.String(), "json")
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Scores []float64 `json:"scores"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parsing rank response: %w", err)
	}
	if len(parsed.Scores) != len(candidates) {
		return nil, fmt.Errorf("rank response carried %d scores for %d candidates", len(parsed.Scores), len(candidates))
	}
	for i, s := range parsed.Scores {
		if s < 0 {
			parsed.Scores[i] = 0
		}
		if s > 1 {
			parsed.Scores[i] = 1
		}
	}
	return parsed.Scores, nil
}

// Summarize produces a short prose summary of text.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	prompt := "Summarize the following code in two sentences, plain prose, no markdown:\n\n" + text
	out, err := c.generate(ctx, prompt, "")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Generate runs a free-form completion.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := c.generate(ctx, prompt, "")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Disabled is the off-switch Ranker: never available, never touches the
// network. Useful as an injected value when enhanced ranking is configured
// off, and in tests that force the deterministic path.
type Disabled struct{}

func (Disabled) Initialize(ctx context.Context) error { return nil }
func (Disabled) IsAvailable() bool                    { return false }

func (Disabled) Rank(ctx context.Context, query string, candidates []string) ([]float64, error) {
	return nil, fmt.Errorf("ranking disabled")
}

func (Disabled) Summarize(ctx context.Context, text string) (string, error) {
	return "", fmt.Errorf("ranking disabled")
}

func (Disabled) Generate(ctx context.Context, prompt string) (string, error) {
	return "", fmt.Errorf("ranking disabled")
}
