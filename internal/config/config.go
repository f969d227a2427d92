// internal/config/config.go
//
// This package handles configuration and the .groundwork directory structure.
// Every project that uses Groundwork gets a .groundwork/ folder created in
// its root holding the config file and logs. Credentials never live in the
// config file; they come from the environment (optionally via a .env file).

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/groundwork/internal/workspace"
)

const defaultConfigYAML = `# groundwork project configuration
version: 1

# Where emitted plan documents are written, relative to the project directory.
output:
  dir: plan

# Reasoning collaborator (OpenAI-compatible chat completions endpoint).
reasoning:
  base_url: https://api.deepseek.com/v1
  model: deepseek-chat
  timeout_seconds: 90
  # Clarity rating (1-10) at or above which the clarify loop ends.
  clarity_threshold: 8
  # Hard bound on clarification rounds before summarizing anyway.
  max_clarity_rounds: 5

# Search collaborator (Tavily).
search:
  base_url: https://api.tavily.com
  max_results: 5
  timeout_seconds: 15
  domains:
    - github.com
`

// Environment variables consulted for collaborator credentials, in order.
var (
	reasoningKeyVars = []string{"DEEPSEEK_API_KEY", "OPENAI_API_KEY", "MODEL_API_KEY"}
	searchKeyVars    = []string{"TAVILY_API_KEY"}
)

// OutputConfig controls where emitted documents land.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// ReasoningConfig holds the reasoning collaborator knobs.
type ReasoningConfig struct {
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	TimeoutSeconds   int    `yaml:"timeout_seconds"`
	ClarityThreshold int    `yaml:"clarity_threshold"`
	MaxClarityRounds int    `yaml:"max_clarity_rounds"`
}

// SearchConfig holds the search collaborator knobs.
type SearchConfig struct {
	BaseURL        string   `yaml:"base_url"`
	MaxResults     int      `yaml:"max_results"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	Domains        []string `yaml:"domains"`
}

// ProjectConfig models .groundwork/config.yaml.
type ProjectConfig struct {
	Version   int             `yaml:"version"`
	Output    OutputConfig    `yaml:"output"`
	Reasoning ReasoningConfig `yaml:"reasoning"`
	Search    SearchConfig    `yaml:"search"`
}

// Config holds the runtime configuration for Groundwork.
type Config struct {
	// ProjectDir is the directory where the user ran `groundwork` from.
	ProjectDir string

	Project ProjectConfig
}

// Init creates the .groundwork directory structure in the given project
// directory and writes the commented default config if none exists. This is
// called before the TUI starts up.
func Init(projectDir string) error {
	ws := workspace.New(projectDir, "")
	dirs := []string{ws.Dir(), ws.LogsPath()}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureConfigFile(ws.ConfigPath())
}

// New loads the runtime configuration for a project directory. A missing
// config file yields the defaults; a present file is parsed, normalized, and
// validated. A .env file in the project root is loaded into the process
// environment first so credentials can live next to the project.
func New(projectDir string) (*Config, error) {
	ws := workspace.New(projectDir, "")
	if _, err := os.Stat(ws.EnvPath()); err == nil {
		// Existing environment variables win over .env entries.
		_ = godotenv.Load(ws.EnvPath())
	}

	cfg := &Config{
		ProjectDir: projectDir,
		Project:    defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(ws.ConfigPath()); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Workspace builds the path resolver for this configuration.
func (c *Config) Workspace() *workspace.Workspace {
	return workspace.New(c.ProjectDir, c.Project.Output.Dir)
}

// ReasoningAPIKey resolves the reasoning collaborator credential from the
// environment. ok is false when no known variable is set.
func (c *Config) ReasoningAPIKey() (string, bool) {
	return firstEnv(reasoningKeyVars)
}

// SearchAPIKey resolves the search collaborator credential from the
// environment.
func (c *Config) SearchAPIKey() (string, bool) {
	return firstEnv(searchKeyVars)
}

func firstEnv(names []string) (string, bool) {
	for _, name := range names {
		if value := strings.TrimSpace(os.Getenv(name)); value != "" {
			return value, true
		}
	}
	return "", false
}

func (c *Config) loadProjectConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	var cfg ProjectConfig
	cfg.applyDefaults()
	return cfg
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.Output.Dir == "" {
		pc.Output.Dir = workspace.DefaultOutputDir
	}
	if pc.Reasoning.BaseURL == "" {
		pc.Reasoning.BaseURL = "https://api.deepseek.com/v1"
	}
	if pc.Reasoning.Model == "" {
		pc.Reasoning.Model = "deepseek-chat"
	}
	if pc.Reasoning.TimeoutSeconds == 0 {
		pc.Reasoning.TimeoutSeconds = 90
	}
	if pc.Reasoning.ClarityThreshold == 0 {
		pc.Reasoning.ClarityThreshold = 8
	}
	if pc.Reasoning.MaxClarityRounds == 0 {
		pc.Reasoning.MaxClarityRounds = 5
	}
	if pc.Search.BaseURL == "" {
		pc.Search.BaseURL = "https://api.tavily.com"
	}
	if pc.Search.MaxResults == 0 {
		pc.Search.MaxResults = 5
	}
	if pc.Search.TimeoutSeconds == 0 {
		pc.Search.TimeoutSeconds = 15
	}
	if len(pc.Search.Domains) == 0 {
		pc.Search.Domains = []string{"github.com"}
	}
}

func (pc *ProjectConfig) normalize() {
	pc.Output.Dir = strings.TrimSpace(pc.Output.Dir)
	pc.Reasoning.BaseURL = strings.TrimRight(strings.TrimSpace(pc.Reasoning.BaseURL), "/")
	pc.Reasoning.Model = strings.TrimSpace(pc.Reasoning.Model)
	pc.Search.BaseURL = strings.TrimRight(strings.TrimSpace(pc.Search.BaseURL), "/")
	domains := make([]string, 0, len(pc.Search.Domains))
	for _, d := range pc.Search.Domains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			domains = append(domains, d)
		}
	}
	pc.Search.Domains = domains
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("version must be >= 1")
	}
	if pc.Reasoning.BaseURL == "" {
		return fmt.Errorf("reasoning.base_url is required")
	}
	if pc.Reasoning.Model == "" {
		return fmt.Errorf("reasoning.model is required")
	}
	if pc.Reasoning.TimeoutSeconds <= 0 {
		return fmt.Errorf("reasoning.timeout_seconds must be positive")
	}
	if pc.Reasoning.ClarityThreshold < 1 || pc.Reasoning.ClarityThreshold > 10 {
		return fmt.Errorf("reasoning.clarity_threshold must be between 1 and 10")
	}
	if pc.Reasoning.MaxClarityRounds < 1 || pc.Reasoning.MaxClarityRounds > 10 {
		return fmt.Errorf("reasoning.max_clarity_rounds must be between 1 and 10")
	}
	if pc.Search.BaseURL == "" {
		return fmt.Errorf("search.base_url is required")
	}
	if pc.Search.MaxResults < 1 || pc.Search.MaxResults > 10 {
		return fmt.Errorf("search.max_results must be between 1 and 10")
	}
	if pc.Search.TimeoutSeconds <= 0 {
		return fmt.Errorf("search.timeout_seconds must be positive")
	}
	if len(pc.Search.Domains) == 0 {
		return fmt.Errorf("search.domains must name at least one domain")
	}
	return nil
}

func ensureConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
