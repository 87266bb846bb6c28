// Package tracker answers file-tracking queries against the project's git
// index. Tracked status gates which files may enter the editable group.
package tracker

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/go-git/go-git/v5"

	"workbench/internal/fragment"
)

// Repo reads tracked files from a git repository's index.
type Repo struct {
	repo *git.Repository
}

// Open opens the repository at root.
func Open(root string) (*Repo, error) {
	repo, err := git.PlainOpen(root)
	if err != nil {
		return nil, fmt.Errorf("open repository at %s: %w", root, err)
	}
	return &Repo{repo: repo}, nil
}

// IsTracked reports whether the path is in the git index.
func (r *Repo) IsTracked(path fragment.FileRef) (bool, error) {
	idx, err := r.repo.Storer.Index()
	if err != nil {
		return false, fmt.Errorf("read git index: %w", err)
	}
	want := filepath.ToSlash(string(path))
	for _, entry := range idx.Entries {
		if entry.Name == want {
			return true, nil
		}
	}
	return false, nil
}

// AllFiles returns every tracked path, sorted, for selection dialogs.
func (r *Repo) AllFiles() ([]fragment.FileRef, error) {
	idx, err := r.repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("read git index: %w", err)
	}
	files := make([]fragment.FileRef, 0, len(idx.Entries))
	for _, entry := range idx.Entries {
		files = append(files, fragment.FileRef(entry.Name))
	}
	sort.Slice(files, func(i, j int) bool { return files[i] < files[j] })
	return files, nil
}

// Static is a fixed tracked-file set, used in tests and when no repository
// exists.
type Static struct {
	files map[fragment.FileRef]bool
}

// NewStatic creates a Static tracker over the given paths.
func NewStatic(paths ...fragment.FileRef) *Static {
	files := make(map[fragment.FileRef]bool, len(paths))
	for _, p := range paths {
		files[p] = true
	}
	return &Static{files: files}
}

// IsTracked reports membership in the fixed set.
func (s *Static) IsTracked(path fragment.FileRef) (bool, error) {
	return s.files[path], nil
}

// AllFiles returns the fixed set, sorted.
func (s *Static) AllFiles() ([]fragment.FileRef, error) {
	files := make([]fragment.FileRef, 0, len(s.files))
	for f := range s.files {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i] < files[j] })
	return files, nil
}
