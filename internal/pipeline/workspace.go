package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Workspace is the scoped temporary directory one pipeline run emits
// intermediate files into. Each run owns exactly one; it never outlives the
// run, including on error paths.
type Workspace struct {
	id   string
	root string
}

// NewWorkspace creates a uniquely named workspace under the system temp dir.
func NewWorkspace() (*Workspace, error) {
	id := uuid.NewString()
	root := filepath.Join(os.TempDir(), "vpipe-"+id)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{id: id, root: root}, nil
}

// ID returns the run identifier the workspace was named after.
func (w *Workspace) ID() string {
	return w.id
}

// Root returns the workspace directory.
func (w *Workspace) Root() string {
	return w.root
}

// Path joins name onto the workspace root.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.root, name)
}

// Subdir creates and returns a named directory inside the workspace.
func (w *Workspace) Subdir(name string) (string, error) {
	dir := filepath.Join(w.root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create workspace subdir: %w", err)
	}
	return dir, nil
}

// Remove deletes the workspace and everything in it.
func (w *Workspace) Remove() error {
	if w == nil || w.root == "" {
		return nil
	}
	return os.RemoveAll(w.root)
}
