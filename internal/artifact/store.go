package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/kingrea/groundwork/internal/workspace"
)

// Store manages artifact IO rooted at the project workspace.
type Store struct {
	workspace *workspace.Workspace
	now       func() time.Time
}

// StoreOption customizes a Store during construction.
type StoreOption func(*Store)

// WithClock overrides the clock used for metadata timestamps.
func WithClock(clock func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = clock
	}
}

// NewStore builds a store for a workspace.
func NewStore(ws *workspace.Workspace, opts ...StoreOption) *Store {
	store := &Store{
		workspace: ws,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Check inspects the artifact on disk and returns its status and metadata.
func (s *Store) Check(ref ArtifactRef) (CheckResult, error) {
	path := ref.Path(s.workspace)
	if path == "" {
		err := fmt.Errorf("artifact: %s path could not be resolved", ref.ID)
		return CheckResult{Ref: ref, Path: path, State: StateError, Err: err}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return CheckResult{Ref: ref, Path: path, State: StateMissing}, nil
		}
		return CheckResult{Ref: ref, Path: path, State: StateError, Err: err}, err
	}
	switch ref.Kind {
	case KindDirectory:
		if !info.IsDir() {
			return invalidResult(ref, path, fmt.Errorf("artifact: expected directory"))
		}
		return CheckResult{Ref: ref, Path: path, State: StateReady}, nil
	default:
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return CheckResult{Ref: ref, Path: path, State: StateError, Err: readErr}, readErr
		}
		meta, _, metaErr := ParseFrontMatter(data)
		if metaErr != nil {
			return invalidResult(ref, path, metaErr)
		}
		if meta.ArtifactID != ref.ID {
			return invalidResult(ref, path, fmt.Errorf("artifact: metadata id %s does not match %s", meta.ArtifactID, ref.ID))
		}
		return CheckResult{Ref: ref, Path: path, State: StateReady, Metadata: &meta}, nil
	}
}

// Write persists the artifact contents and metadata based on its kind.
func (s *Store) Write(ref ArtifactRef, body []byte, meta Metadata) error {
	path := ref.Path(s.workspace)
	if path == "" {
		return fmt.Errorf("artifact: %s path could not be resolved", ref.ID)
	}
	switch ref.Kind {
	case KindDirectory:
		return os.MkdirAll(path, 0o755)
	default:
		return s.writeDocument(path, ref, body, meta)
	}
}

// ReadBody returns the document body with its frontmatter stripped.
func (s *Store) ReadBody(ref ArtifactRef) ([]byte, error) {
	path := ref.Path(s.workspace)
	if path == "" {
		return nil, fmt.Errorf("artifact: %s path could not be resolved", ref.ID)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	_, body, err := ParseFrontMatter(data)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (s *Store) writeDocument(path string, ref ArtifactRef, body []byte, meta Metadata) error {
	if body == nil {
		body = []byte{}
	}
	prepared := meta.WithDefaults(ref, s.now())
	if err := prepared.ValidateFor(ref); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	content, err := WriteFrontMatter(prepared, body)
	if err != nil {
		return err
	}
	return os.WriteFile(path, content, 0o644)
}

func invalidResult(ref ArtifactRef, path string, err error) (CheckResult, error) {
	return CheckResult{Ref: ref, Path: path, State: StateInvalid, Err: err}, err
}
