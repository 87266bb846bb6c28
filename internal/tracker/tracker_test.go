package tracker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workbench/internal/fragment"
)

func TestStatic_IsTracked(t *testing.T) {
	s := NewStatic("main.go", "internal/a.go")

	ok, err := s.IsTracked("main.go")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.IsTracked("other.go")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStatic_AllFilesSorted(t *testing.T) {
	s := NewStatic("z.go", "a.go", "m.go")

	files, err := s.AllFiles()

	require.NoError(t, err)
	assert.Equal(t, []fragment.FileRef{"a.go", "m.go", "z.go"}, files)
}

func TestStatic_Empty(t *testing.T) {
	s := NewStatic()

	ok, err := s.IsTracked("anything")
	require.NoError(t, err)
	assert.False(t, ok)

	files, err := s.AllFiles()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestOpen_NoRepository(t *testing.T) {
	_, err := Open(t.TempDir())

	assert.Error(t, err)
}

// initRepo creates a repository with one staged file.
func initRepo(t *testing.T) (string, *Repo) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "internal"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "internal", "tracked.go"), []byte("package internal\n"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("internal/tracked.go")
	require.NoError(t, err)

	opened, err := Open(dir)
	require.NoError(t, err)
	return dir, opened
}

func TestRepo_IsTracked(t *testing.T) {
	dir, repo := initRepo(t)

	ok, err := repo.IsTracked("internal/tracked.go")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "loose.go"), []byte("package main\n"), 0o644))
	ok, err = repo.IsTracked("loose.go")
	require.NoError(t, err)
	assert.False(t, ok, "files on disk but not in the index are untracked")
}

func TestRepo_AllFiles(t *testing.T) {
	_, repo := initRepo(t)

	files, err := repo.AllFiles()

	require.NoError(t, err)
	assert.Equal(t, []fragment.FileRef{"internal/tracked.go"}, files)
}
