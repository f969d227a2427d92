package reasoning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kingrea/groundwork/internal/logging"
	"github.com/kingrea/groundwork/internal/plan"
)

// Client calls an OpenAI-compatible chat-completions endpoint and implements
// Engine. Each stage sends one request; there are no automatic retries.
type Client struct {
	baseURL          string
	apiKey           string
	model            string
	clarityThreshold int
	httpClient       *http.Client
	log              *logging.Logger
}

// ClientOption customizes a Client during construction.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client (used by tests).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger attaches a diagnostic logger for request tracing.
func WithLogger(log *logging.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient builds a reasoning client. The clarity threshold is the rating
// at or above which an idea counts as clear enough to summarize.
func NewClient(baseURL, apiKey, model string, timeout time.Duration, clarityThreshold int, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("reasoning: base url is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("reasoning: api key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("reasoning: model is required")
	}
	client := &Client{
		baseURL:          baseURL,
		apiKey:           apiKey,
		model:            model,
		clarityThreshold: clarityThreshold,
		httpClient:       &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// AssessClarity rates the idea and flags whether it is clear enough.
func (c *Client) AssessClarity(ctx context.Context, idea string) (plan.ClarityReport, error) {
	raw, err := c.complete(ctx, "clarity", clarityPrompt(idea))
	if err != nil {
		return plan.ClarityReport{}, err
	}
	report, err := decodeClarity(raw)
	if err != nil {
		return plan.ClarityReport{}, err
	}
	report.Sufficient = report.Rating >= c.clarityThreshold
	return report, nil
}

// Summarize produces the confirmed project summary.
func (c *Client) Summarize(ctx context.Context, idea string) (plan.Summary, error) {
	raw, err := c.complete(ctx, "summary", summaryPrompt(idea))
	if err != nil {
		return plan.Summary{}, err
	}
	return decodeSummary(raw)
}

// Evaluate scores all candidates in one call.
func (c *Client) Evaluate(ctx context.Context, summary plan.Summary, candidates []plan.Candidate) ([]plan.Evaluation, plan.Selection, error) {
	if len(candidates) == 0 {
		return nil, plan.Selection{}, fmt.Errorf("reasoning: no candidates to evaluate")
	}
	raw, err := c.complete(ctx, "evaluation", evaluationPrompt(summary, candidates))
	if err != nil {
		return nil, plan.Selection{}, err
	}
	return decodeEvaluations(raw, len(candidates))
}

// DraftPlan produces the structured implementation plan.
func (c *Client) DraftPlan(ctx context.Context, req PlanRequest) (plan.Plan, error) {
	raw, err := c.complete(ctx, "plan", planPrompt(req))
	if err != nil {
		return plan.Plan{}, err
	}
	return decodePlan(raw)
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *formatSpec   `json:"response_format,omitempty"`
	Temperature    float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type formatSpec struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// complete sends one chat-completions request and returns the assistant text.
func (c *Client) complete(ctx context.Context, stage, prompt string) (string, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: &formatSpec{Type: "json_object"},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("reasoning: encode request: %w", err)
	}

	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("reasoning: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Printf("reasoning %s request failed: %v", stage, err)
		return "", fmt.Errorf("reasoning: %s request: %w", stage, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reasoning: read %s response: %w", stage, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Printf("reasoning %s returned status %d: %s", stage, resp.StatusCode, truncateForLog(data))
		return "", fmt.Errorf("reasoning: %s request returned status %d", stage, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", decodeErr(string(data), fmt.Errorf("unrecognized completion envelope: %w", err))
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("reasoning: %s request rejected: %s", stage, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", decodeErr(string(data), fmt.Errorf("completion has no choices"))
	}
	c.log.Printf("reasoning %s completed in %s", stage, time.Since(started).Round(time.Millisecond))
	return parsed.Choices[0].Message.Content, nil
}

func truncateForLog(data []byte) string {
	const limit = 300
	if len(data) <= limit {
		return string(data)
	}
	return string(data[:limit]) + "..."
}
