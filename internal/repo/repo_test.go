package repo

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initTestRepo initializes a real git repository in a temp dir and opens a
// facade over it. Tests that need the git binary skip when it is absent.
func initTestRepo(t *testing.T) *Repository {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := t.TempDir()
	for _, args := range [][]string{
		{"init", "."},
		{"config", "user.email", "keel@example.com"},
		{"config", "user.name", "Keel Test"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}

	r, err := Open(dir, Options{})
	require.NoError(t, err)
	return r
}

func TestFindRoot(t *testing.T) {
	r := initTestRepo(t)

	nested := filepath.Join(r.Root(), "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	root, err := FindRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, r.Root(), root)

	_, err = FindRoot(t.TempDir())
	require.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	r := initTestRepo(t)

	rev, err := r.WriteFile("a/b.txt", []byte("hello"), "")
	require.NoError(t, err)
	require.NotEmpty(t, rev)

	content, err := r.ShowFile("a/b.txt", "HEAD")
	require.NoError(t, err)
	assert.Equal(t, "hello", content)

	current, err := r.CurrentCommit()
	require.NoError(t, err)
	assert.Equal(t, rev, current)

	dirty, err := r.IsDirty()
	require.NoError(t, err)
	assert.False(t, dirty)

	// Overwriting advances the revision.
	rev2, err := r.WriteFile("a/b.txt", []byte("hello again"), "second write")
	require.NoError(t, err)
	assert.NotEqual(t, rev, rev2)
}

func TestRemoveFile(t *testing.T) {
	r := initTestRepo(t)

	_, err := r.WriteFile("a/b.txt", []byte("hello"), "")
	require.NoError(t, err)

	_, err = r.RemoveFile("a/b.txt", "", false, false)
	require.NoError(t, err)

	dirty, err := r.IsDirty()
	require.NoError(t, err)
	assert.False(t, dirty)

	entries, err := r.ListDirectory(".", "HEAD")
	require.NoError(t, err)
	assert.NotContains(t, entries, "a")
}

func TestRenameFile(t *testing.T) {
	r := initTestRepo(t)

	_, err := r.WriteFile("a/b.txt", []byte("hello"), "")
	require.NoError(t, err)

	rev, err := r.RenameFile("a/b.txt", "a/c.txt", "", false)
	require.NoError(t, err)

	entries, err := r.ListDirectory("a", "HEAD")
	require.NoError(t, err)
	assert.Contains(t, entries, "a/c.txt")
	assert.NotContains(t, entries, "a/b.txt")

	// The rename commit references both paths.
	detail, err := r.ShowCommit(rev)
	require.NoError(t, err)
	assert.Contains(t, detail, "b.txt")
	assert.Contains(t, detail, "c.txt")
}

func TestLog(t *testing.T) {
	r := initTestRepo(t)

	_, err := r.WriteFile("one.txt", []byte("1"), "first")
	require.NoError(t, err)
	_, err = r.WriteFile("two.txt", []byte("2"), "second")
	require.NoError(t, err)
	_, err = r.WriteFile("three.txt", []byte("3"), "third")
	require.NoError(t, err)

	entries, err := r.Log(0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Contains(t, entries[0], "third")

	limited, err := r.Log(1, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Contains(t, limited[0], "second")
}

func TestStatus(t *testing.T) {
	r := initTestRepo(t)

	_, err := r.WriteFile("tracked.txt", []byte("x"), "")
	require.NoError(t, err)

	entries, err := r.Status()
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, os.WriteFile(r.ResolveFullPath("new.txt"), []byte("y"), 0644))

	entries, err = r.Status()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "new.txt", entries[0].File)
	assert.False(t, entries[0].Renamed())

	dirty, err := r.IsDirty()
	require.NoError(t, err)
	assert.True(t, dirty)
}

func TestCurrentBranch(t *testing.T) {
	r := initTestRepo(t)

	_, err := r.WriteFile("a.txt", []byte("x"), "")
	require.NoError(t, err)

	branch, err := r.CurrentBranch()
	require.NoError(t, err)
	assert.NotEmpty(t, branch)
}

func TestCurrentCommitUnborn(t *testing.T) {
	r := initTestRepo(t)

	// No commits yet: the history pointer cannot be resolved.
	_, err := r.CurrentCommit()
	require.Error(t, err)
}

func TestWriteFileEmptyPath(t *testing.T) {
	r := initTestRepo(t)

	_, err := r.WriteFile("", []byte("x"), "")
	require.Error(t, err)
}
