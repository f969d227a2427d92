package search

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/kingrea/groundwork/internal/logging"
	"github.com/kingrea/groundwork/internal/plan"
)

const readmeCap = 500

// Scraper pulls best-effort metadata (stars, forks, languages, README
// excerpt) from a candidate's repository page. Every failure degrades to
// empty metadata; the scraper never returns an error to its caller.
type Scraper struct {
	httpClient *http.Client
	log        *logging.Logger
}

// NewScraper builds a repository-page scraper.
func NewScraper(timeout time.Duration, log *logging.Logger) *Scraper {
	return &Scraper{
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// RepoMetadata fetches and parses the repository page at the given URL.
func (s *Scraper) RepoMetadata(ctx context.Context, repoURL string) plan.CandidateMetadata {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, repoURL, nil)
	if err != nil {
		return plan.CandidateMetadata{}
	}
	req.Header.Set("Accept", "text/html")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.log.Printf("scrape %s failed: %v", repoURL, err)
		return plan.CandidateMetadata{}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		s.log.Printf("scrape %s returned status %d", repoURL, resp.StatusCode)
		return plan.CandidateMetadata{}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		s.log.Printf("scrape %s parse failed: %v", repoURL, err)
		return plan.CandidateMetadata{}
	}
	return extractMetadata(doc)
}

// extractMetadata reads the counters, language sidebar, and README excerpt
// out of a parsed repository page.
func extractMetadata(doc *goquery.Document) plan.CandidateMetadata {
	meta := plan.CandidateMetadata{
		Stars: counterValue(doc, "#repo-stars-counter-star"),
		Forks: counterValue(doc, "#repo-network-counter"),
	}

	seen := map[string]bool{}
	doc.Find(`a[href*="search?l="] span`).Each(func(_ int, sel *goquery.Selection) {
		name := strings.TrimSpace(sel.Text())
		if name == "" || strings.HasSuffix(name, "%") || seen[name] {
			return
		}
		seen[name] = true
		meta.Languages = append(meta.Languages, name)
	})

	if article := doc.Find("article").First(); article.Length() > 0 {
		text := strings.Join(strings.Fields(article.Text()), " ")
		if len(text) > readmeCap {
			text = strings.TrimSpace(truncateAt(text, readmeCap)) + "..."
		}
		meta.Readme = text
	}
	return meta
}

// counterValue parses a GitHub-style counter element, preferring the title
// attribute which carries the exact count.
func counterValue(doc *goquery.Document, selector string) int {
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return 0
	}
	if title, ok := sel.Attr("title"); ok {
		if n, err := parseHumanCount(title); err == nil {
			return n
		}
	}
	n, err := parseHumanCount(sel.Text())
	if err != nil {
		return 0
	}
	return n
}

// parseHumanCount understands both exact counts ("1,234") and the abbreviated
// display form ("1.2k", "3.4m").
func parseHumanCount(value string) (int, error) {
	value = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(value, ",", "")))
	if value == "" {
		return 0, fmt.Errorf("empty count")
	}
	multiplier := 1.0
	switch {
	case strings.HasSuffix(value, "k"):
		multiplier = 1_000
		value = strings.TrimSuffix(value, "k")
	case strings.HasSuffix(value, "m"):
		multiplier = 1_000_000
		value = strings.TrimSuffix(value, "m")
	}
	n, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	return int(n * multiplier), nil
}
