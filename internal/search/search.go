// Package search talks to the search collaborator and enriches its results.
// Discovery is the only stage that uses it: derive a query from the confirmed
// summary, ask for candidate repositories, and scrape best-effort metadata
// from each repository page.
package search

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kingrea/groundwork/internal/plan"
)

// Engine is the narrow capability the pipeline depends on. Test doubles
// implement it deterministically.
type Engine interface {
	Search(ctx context.Context, query string) ([]plan.Candidate, error)
}

// DecodeError reports a search response that could not be mapped into the
// expected shape. Raw preserves the payload text for inspection.
type DecodeError struct {
	Raw string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("search: decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Query length caps applied while building up the derived query. Each
// addition is skipped rather than truncated when it would blow the cap.
const (
	purposeCap  = 400
	platformCap = 450
	techCap     = 500
	maxTechTerm = 3
)

// DeriveQuery builds a deterministic search query from a confirmed summary.
// Identical summaries always derive identical queries.
func DeriveQuery(summary plan.Summary) string {
	query := strings.TrimSpace(summary.Topic)
	query = strings.TrimSpace(truncateAt(query, purposeCap))

	if platform := strings.TrimSpace(summary.Platform); platform != "" {
		appended := query + " for " + platform
		if len(appended) <= platformCap {
			query = appended
		}
	}

	if len(summary.TechStack) > 0 {
		terms := summary.TechStack
		if len(terms) > maxTechTerm {
			terms = terms[:maxTechTerm]
		}
		appended := query + " using " + strings.Join(terms, " ")
		if len(appended) <= techCap {
			query = appended
		}
	}

	return query
}

// simplifyQuery reduces a query to its first few words for the degraded
// retry after a failed search request.
func simplifyQuery(query string) string {
	words := strings.Fields(query)
	if len(words) > 10 {
		words = words[:10]
	}
	return strings.Join(words, " ")
}

// truncateAt cuts s to at most limit bytes, backing up so a multibyte rune
// is never split.
func truncateAt(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
