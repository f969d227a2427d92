package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kingrea/groundwork/internal/logging"
	"github.com/kingrea/groundwork/internal/plan"
)

const descriptionCap = 200

// TavilyClient implements Engine against the Tavily search API, filtered to
// repository-hosting domains.
type TavilyClient struct {
	baseURL    string
	apiKey     string
	maxResults int
	domains    []string
	httpClient *http.Client
	scraper    *Scraper
	log        *logging.Logger
}

// TavilyOption customizes a TavilyClient during construction.
type TavilyOption func(*TavilyClient)

// WithHTTPClient overrides the HTTP client (used by tests).
func WithHTTPClient(hc *http.Client) TavilyOption {
	return func(c *TavilyClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithScraper attaches a repository-page scraper for metadata enrichment.
// Without one, candidates carry empty metadata.
func WithScraper(s *Scraper) TavilyOption {
	return func(c *TavilyClient) {
		c.scraper = s
	}
}

// WithLogger attaches a diagnostic logger for request tracing.
func WithLogger(log *logging.Logger) TavilyOption {
	return func(c *TavilyClient) {
		c.log = log
	}
}

// NewTavilyClient builds a search client.
func NewTavilyClient(baseURL, apiKey string, maxResults int, domains []string, timeout time.Duration, opts ...TavilyOption) (*TavilyClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("search: base url is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("search: api key is required")
	}
	if maxResults < 1 {
		return nil, fmt.Errorf("search: max results must be positive")
	}
	client := &TavilyClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		maxResults: maxResults,
		domains:    append([]string{}, domains...),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type searchRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	MaxResults     int      `json:"max_results"`
}

type rawResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

type searchResponse struct {
	Results []rawResult `json:"results"`
}

// Search asks the collaborator for candidate repositories. Zero results is a
// normal outcome: an empty slice with a nil error. A failed request gets one
// degraded retry with a simplified query before the error surfaces; that is
// a single in-call fallback, not a stage retry.
func (c *TavilyClient) Search(ctx context.Context, query string) ([]plan.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search: query is required")
	}

	results, err := c.request(ctx, query+" GitHub repository", "advanced")
	if err != nil {
		c.log.Printf("search request failed, retrying simplified: %v", err)
		results, err = c.request(ctx, simplifyQuery(query), "basic")
		if err != nil {
			return nil, err
		}
	}

	candidates := make([]plan.Candidate, 0, len(results))
	for _, r := range results {
		if !c.domainAllowed(r.URL) {
			continue
		}
		candidate := plan.Candidate{
			Title:       strings.TrimSpace(r.Title),
			URL:         r.URL,
			Description: truncateDescription(r.Content),
			Rank:        len(candidates) + 1,
		}
		if c.scraper != nil {
			// Metadata is best-effort; a failed scrape never fails discovery.
			candidate.Metadata = c.scraper.RepoMetadata(ctx, r.URL)
		}
		candidates = append(candidates, candidate)
		if len(candidates) == c.maxResults {
			break
		}
	}
	c.log.Printf("search %q returned %d candidate(s)", query, len(candidates))
	return candidates, nil
}

func (c *TavilyClient) request(ctx context.Context, query, depth string) ([]rawResult, error) {
	payload := searchRequest{
		APIKey:         c.apiKey,
		Query:          query,
		SearchDepth:    depth,
		IncludeDomains: c.domains,
		MaxResults:     c.maxResults,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("search: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("search: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("search: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("search: request returned status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, &DecodeError{Raw: string(data), Err: err}
	}
	return parsed.Results, nil
}

func (c *TavilyClient) domainAllowed(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	for _, domain := range c.domains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

func truncateDescription(content string) string {
	content = strings.TrimSpace(content)
	if len(content) <= descriptionCap {
		return content
	}
	return strings.TrimSpace(truncateAt(content, descriptionCap)) + "..."
}
