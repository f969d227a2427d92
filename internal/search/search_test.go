package search

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/kingrea/groundwork/internal/plan"
)

func TestDeriveQueryBuildsFromSummary(t *testing.T) {
	summary := plan.Summary{
		Topic:     "personal expense tracking app",
		Platform:  "web",
		TechStack: []string{"Go", "SQLite", "HTMX", "Docker"},
	}
	got := DeriveQuery(summary)
	want := "personal expense tracking app for web using Go SQLite HTMX"
	if got != want {
		t.Fatalf("DeriveQuery = %q, want %q", got, want)
	}
}

func TestDeriveQueryIsDeterministic(t *testing.T) {
	summary := plan.Summary{Topic: "notes app", Platform: "cli"}
	first := DeriveQuery(summary)
	second := DeriveQuery(summary)
	if first != second {
		t.Fatalf("same summary derived different queries: %q vs %q", first, second)
	}
}

func TestDeriveQuerySkipsAdditionsOverCap(t *testing.T) {
	long := strings.Repeat("tracker ", 60) // ~480 chars, over the platform cap
	summary := plan.Summary{
		Topic:     long,
		Platform:  "web",
		TechStack: []string{"Go"},
	}
	got := DeriveQuery(summary)
	if strings.Contains(got, " for web") {
		t.Fatalf("platform appended despite cap: %q", got)
	}
	if len(got) > purposeCap {
		t.Fatalf("purpose not capped: %d chars", len(got))
	}
}

func TestDeriveQueryCapsOnRuneBoundaries(t *testing.T) {
	summary := plan.Summary{Topic: strings.Repeat("ü", purposeCap)}
	got := DeriveQuery(summary)
	if !utf8.ValidString(got) {
		t.Fatalf("derived query is invalid UTF-8: %q", got)
	}
	if len(got) > purposeCap {
		t.Fatalf("purpose not capped: %d bytes", len(got))
	}
}

func TestSimplifyQueryTakesFirstTenWords(t *testing.T) {
	query := "one two three four five six seven eight nine ten eleven twelve"
	got := simplifyQuery(query)
	if got != "one two three four five six seven eight nine ten" {
		t.Fatalf("simplifyQuery = %q", got)
	}
	if simplifyQuery("short query") != "short query" {
		t.Fatalf("short queries must pass through unchanged")
	}
}
