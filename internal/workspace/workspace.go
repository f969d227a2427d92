// internal/workspace/workspace.go
//
// Defines the on-disk layout Groundwork owns inside a project directory.
// Internal state (config, logs) lives under .groundwork/; emitted plan
// documents live in the configured output directory.

package workspace

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Directory and file names within the project directory.
const (
	InternalDir      = ".groundwork"
	LogsDir          = "logs"
	ConfigFile       = "config.yaml"
	DefaultOutputDir = "plan"
	StepsDir         = "steps"
	PlanFile         = "implementation-plan.md"
	LogbookFile      = "logbook.log"
	DebugLogFile     = "groundwork.log"
	EnvFile          = ".env"
)

// Workspace resolves every path Groundwork reads or writes. No other
// component builds output paths by hand.
type Workspace struct {
	projectDir string
	outputDir  string
}

// New creates a workspace rooted at the project directory. outputDir may be
// relative (resolved against the project dir) or absolute; empty falls back
// to the default.
func New(projectDir, outputDir string) *Workspace {
	if strings.TrimSpace(outputDir) == "" {
		outputDir = DefaultOutputDir
	}
	return &Workspace{projectDir: projectDir, outputDir: outputDir}
}

// ProjectDir returns the project root.
func (w *Workspace) ProjectDir() string {
	return w.projectDir
}

// Dir returns the internal state directory (.groundwork).
func (w *Workspace) Dir() string {
	return filepath.Join(w.projectDir, InternalDir)
}

// LogsPath returns the log directory inside the internal dir.
func (w *Workspace) LogsPath() string {
	return filepath.Join(w.Dir(), LogsDir)
}

// ConfigPath returns the config file location.
func (w *Workspace) ConfigPath() string {
	return filepath.Join(w.Dir(), ConfigFile)
}

// LogbookPath returns the run journal location.
func (w *Workspace) LogbookPath() string {
	return filepath.Join(w.LogsPath(), LogbookFile)
}

// DebugLogPath returns the diagnostic log location.
func (w *Workspace) DebugLogPath() string {
	return filepath.Join(w.LogsPath(), DebugLogFile)
}

// EnvPath returns the optional .env file location in the project root.
func (w *Workspace) EnvPath() string {
	return filepath.Join(w.projectDir, EnvFile)
}

// OutputDir returns the emitted-document root.
func (w *Workspace) OutputDir() string {
	if filepath.IsAbs(w.outputDir) {
		return w.outputDir
	}
	return filepath.Join(w.projectDir, w.outputDir)
}

// PlanDocPath returns the aggregate implementation-plan document location.
func (w *Workspace) PlanDocPath() string {
	return filepath.Join(w.OutputDir(), PlanFile)
}

// StepsPath returns the per-step document directory.
func (w *Workspace) StepsPath() string {
	return filepath.Join(w.OutputDir(), StepsDir)
}

// StepDocPath joins a step filename into the steps directory.
func (w *Workspace) StepDocPath(fileName string) string {
	return filepath.Join(w.StepsPath(), fileName)
}

// EnsureLayout creates the directory tree Groundwork needs.
func (w *Workspace) EnsureLayout() error {
	dirs := []string{
		w.Dir(),
		w.LogsPath(),
		w.OutputDir(),
		w.StepsPath(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// ClearEmitted removes the aggregate document and every step document so a
// fresh emission never merges with stale output. The directories survive.
func (w *Workspace) ClearEmitted() error {
	if err := os.Remove(w.PlanDocPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.RemoveAll(w.StepsPath()); err != nil {
		return err
	}
	return os.MkdirAll(w.StepsPath(), 0o755)
}

// HasEmitted reports whether an aggregate document from a previous emission
// exists.
func (w *Workspace) HasEmitted() bool {
	info, err := os.Stat(w.PlanDocPath())
	return err == nil && !info.IsDir()
}
