// Package artifact defines the filesystem-level contracts for the documents
// Groundwork emits. Each artifact has a stable identifier, kind, and a
// resolver that maps to the actual path within the project's output tree.

package artifact

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/kingrea/groundwork/internal/plan"
	"github.com/kingrea/groundwork/internal/workspace"
)

// Kind captures the storage shape for an artifact.
type Kind string

const (
	// KindDocument represents a markdown document with YAML frontmatter.
	KindDocument Kind = "document"
	// KindDirectory represents a directory that must exist.
	KindDirectory Kind = "directory"
)

// PathResolver returns the fully-qualified path to an artifact inside the
// project workspace.
type PathResolver func(*workspace.Workspace) string

// ArtifactRef declares a stable identifier and metadata for an artifact.
type ArtifactRef struct {
	ID          string
	Name        string
	Description string
	Kind        Kind
	path        PathResolver
}

// Path resolves the artifact path for the provided workspace.
func (r ArtifactRef) Path(ws *workspace.Workspace) string {
	if ws == nil || r.path == nil {
		return ""
	}
	return filepath.Clean(r.path(ws))
}

// Validate ensures the reference is well-formed.
func (r ArtifactRef) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("artifact: id is required")
	}
	if r.Kind == "" {
		return fmt.Errorf("artifact: kind is required for %s", r.ID)
	}
	if r.path == nil {
		return fmt.Errorf("artifact: path resolver missing for %s", r.ID)
	}
	return nil
}

// Metadata captures provenance stored inside artifact frontmatter.
type Metadata struct {
	ArtifactID string
	StageID    string
	Version    string
	RunID      string
	CreatedAt  time.Time
	Notes      map[string]string
}

// WithDefaults ensures metadata carries the artifact ID and a timestamp.
func (m Metadata) WithDefaults(ref ArtifactRef, now time.Time) Metadata {
	clone := m
	if clone.ArtifactID == "" {
		clone.ArtifactID = ref.ID
	}
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = now.UTC()
	} else {
		clone.CreatedAt = clone.CreatedAt.UTC()
	}
	return clone
}

// ValidateFor ensures metadata matches the artifact contract.
func (m Metadata) ValidateFor(ref ArtifactRef) error {
	if m.ArtifactID != ref.ID {
		return fmt.Errorf("artifact: metadata id %s does not match ref %s", m.ArtifactID, ref.ID)
	}
	if m.StageID == "" {
		return fmt.Errorf("artifact: stage id is required for %s", ref.ID)
	}
	if m.Version == "" {
		return fmt.Errorf("artifact: version is required for %s", ref.ID)
	}
	return nil
}

// State captures the readiness of an artifact on disk.
type State string

const (
	StateMissing State = "missing"
	StateReady   State = "ready"
	StateInvalid State = "invalid"
	StateError   State = "error"
)

// CheckResult captures Store.Check results.
type CheckResult struct {
	Ref      ArtifactRef
	Path     string
	State    State
	Metadata *Metadata
	Err      error
}

// newDocRef creates a markdown document reference helper.
func newDocRef(id, name, desc string, resolver PathResolver) ArtifactRef {
	return ArtifactRef{
		ID:          id,
		Name:        name,
		Description: desc,
		Kind:        KindDocument,
		path:        resolver,
	}
}

// newDirectoryRef creates a directory reference helper.
func newDirectoryRef(id, name, desc string, resolver PathResolver) ArtifactRef {
	return ArtifactRef{
		ID:          id,
		Name:        name,
		Description: desc,
		Kind:        KindDirectory,
		path:        resolver,
	}
}

// Canonical artifact references for a plan emission.
var (
	PlanDoc = newDocRef("implementation-plan", "Implementation Plan",
		"Aggregate document covering the whole generated plan",
		func(ws *workspace.Workspace) string { return ws.PlanDocPath() })
	StepsDir = newDirectoryRef("steps-dir", "Step Documents Directory",
		"Directory holding one document per plan step",
		func(ws *workspace.Workspace) string { return ws.StepsPath() })
)

// StepDoc builds the reference for one step document. The index is the
// step's global 1-based position; the filename keeps step order under
// lexicographic sort.
func StepDoc(index int, title string) ArtifactRef {
	fileName := plan.StepFileName(index, title)
	return newDocRef(
		fmt.Sprintf("step-%02d", index),
		fmt.Sprintf("Step %d Document", index),
		"Standalone rendering of one plan step",
		func(ws *workspace.Workspace) string { return ws.StepDocPath(fileName) },
	)
}
