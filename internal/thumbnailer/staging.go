package thumbnailer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Staging hands out per-invocation scratch directories below a root.
type Staging struct {
	root string
}

// NewStaging returns a Staging rooted at root, or at a thumbflow directory in
// the OS temp dir when root is empty.
func NewStaging(root string) *Staging {
	if root == "" {
		root = filepath.Join(os.TempDir(), "thumbflow")
	}
	return &Staging{root: root}
}

// Root is the directory all workspaces live under.
func (s *Staging) Root() string {
	return s.root
}

// Workspace reserves a fresh directory name. Nothing is created until Prepare.
func (s *Staging) Workspace() *Workspace {
	return &Workspace{dir: filepath.Join(s.root, uuid.NewString())}
}

// Workspace is the scratch area of a single pipeline run.
type Workspace struct {
	dir string
}

func (w *Workspace) Dir() string {
	return w.dir
}

// Prepare creates the parent directories of both local files.
func (w *Workspace) Prepare(paths AssetPathSet) error {
	for _, p := range []string{paths.LocalSourcePath, paths.LocalThumbnailPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("create staging dir: %w", err)
		}
	}
	return nil
}

// Release removes the workspace and everything staged in it. It is safe to
// call on a workspace that was never prepared.
func (w *Workspace) Release() error {
	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("remove staging dir: %w", err)
	}
	return nil
}
