package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kingrea/groundwork/internal/workspace"
)

func TestInitCreatesLayoutAndDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	if err := Init(dir); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}

	ws := workspace.New(dir, "")
	if _, err := os.Stat(ws.LogsPath()); err != nil {
		t.Fatalf("expected logs dir to exist: %v", err)
	}
	data, err := os.ReadFile(ws.ConfigPath())
	if err != nil {
		t.Fatalf("expected default config to exist: %v", err)
	}
	if !strings.Contains(string(data), "clarity_threshold: 8") {
		t.Fatalf("default config missing clarity threshold, got:\n%s", data)
	}

	// Init must not clobber an edited config.
	if err := os.WriteFile(ws.ConfigPath(), []byte("version: 1\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	if err := Init(dir); err != nil {
		t.Fatalf("second Init returned error: %v", err)
	}
	data, _ = os.ReadFile(ws.ConfigPath())
	if strings.Contains(string(data), "clarity_threshold") {
		t.Fatalf("second Init overwrote the existing config")
	}
}

func TestNewUsesDefaultsWhenConfigMissing(t *testing.T) {
	cfg, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if cfg.Project.Reasoning.ClarityThreshold != 8 {
		t.Fatalf("expected default clarity threshold 8, got %d", cfg.Project.Reasoning.ClarityThreshold)
	}
	if cfg.Project.Reasoning.MaxClarityRounds != 5 {
		t.Fatalf("expected default round cap 5, got %d", cfg.Project.Reasoning.MaxClarityRounds)
	}
	if cfg.Project.Search.MaxResults != 5 {
		t.Fatalf("expected default max results 5, got %d", cfg.Project.Search.MaxResults)
	}
	if got := cfg.Project.Search.Domains; len(got) != 1 || got[0] != "github.com" {
		t.Fatalf("expected default domains [github.com], got %v", got)
	}
}

func TestNewParsesAndNormalizesConfig(t *testing.T) {
	dir := t.TempDir()
	if err := Init(dir); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	ws := workspace.New(dir, "")
	content := `version: 1
output:
  dir: docs/plan
reasoning:
  base_url: https://api.example.com/v1/
  model: test-model
  clarity_threshold: 6
search:
  domains:
    - " GitHub.com "
`
	if err := os.WriteFile(ws.ConfigPath(), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := New(dir)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if cfg.Project.Reasoning.BaseURL != "https://api.example.com/v1" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Project.Reasoning.BaseURL)
	}
	if cfg.Project.Reasoning.ClarityThreshold != 6 {
		t.Fatalf("expected threshold 6, got %d", cfg.Project.Reasoning.ClarityThreshold)
	}
	if got := cfg.Project.Search.Domains; len(got) != 1 || got[0] != "github.com" {
		t.Fatalf("expected normalized domains, got %v", got)
	}
	if got := cfg.Workspace().OutputDir(); got != filepath.Join(dir, "docs", "plan") {
		t.Fatalf("expected output dir under project, got %q", got)
	}
}

func TestNewRejectsOutOfRangeKnobs(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"threshold", "reasoning:\n  clarity_threshold: 11\n", "clarity_threshold"},
		{"rounds", "reasoning:\n  max_clarity_rounds: 12\n", "max_clarity_rounds"},
		{"results", "search:\n  max_results: 50\n", "max_results"},
		{"timeout", "search:\n  timeout_seconds: -1\n", "timeout_seconds"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := Init(dir); err != nil {
				t.Fatalf("Init returned error: %v", err)
			}
			ws := workspace.New(dir, "")
			if err := os.WriteFile(ws.ConfigPath(), []byte("version: 1\n"+tc.body), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, err := New(dir)
			if err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestCredentialLookupOrder(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "fallback-key")
	t.Setenv("MODEL_API_KEY", "last-key")
	t.Setenv("TAVILY_API_KEY", "")

	cfg := &Config{ProjectDir: t.TempDir(), Project: defaultProjectConfig()}
	key, ok := cfg.ReasoningAPIKey()
	if !ok || key != "fallback-key" {
		t.Fatalf("expected OPENAI_API_KEY fallback, got %q ok=%v", key, ok)
	}
	if _, ok := cfg.SearchAPIKey(); ok {
		t.Fatalf("expected missing search credential")
	}

	t.Setenv("DEEPSEEK_API_KEY", "primary-key")
	key, _ = cfg.ReasoningAPIKey()
	if key != "primary-key" {
		t.Fatalf("expected DEEPSEEK_API_KEY to win, got %q", key)
	}
}
