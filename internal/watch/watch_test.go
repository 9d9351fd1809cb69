package watch

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keel/internal/repo"
)

func watchedRepo(t *testing.T) *repo.Repository {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := t.TempDir()
	cmd := exec.Command("git", "init", ".")
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git init: %s", out)

	r, err := repo.Open(dir, repo.Options{})
	require.NoError(t, err)
	return r
}

func TestWatcherReportsNewFile(t *testing.T) {
	r := watchedRepo(t)

	w, err := New(r, nil)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Start())

	require.NoError(t, os.WriteFile(filepath.Join(r.Root(), "new.txt"), []byte("x"), 0644))

	select {
	case entries := <-w.Events():
		require.Len(t, entries, 1)
		assert.Equal(t, "new.txt", entries[0].File)
	case <-time.After(5 * time.Second):
		t.Fatal("no status snapshot delivered")
	}
}

func TestWatcherIgnoresMetadataDir(t *testing.T) {
	r := watchedRepo(t)

	w, err := New(r, nil)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Start())

	// Churn inside .git must not produce a snapshot.
	require.NoError(t, os.WriteFile(filepath.Join(r.Root(), ".git", "scratch"), []byte("x"), 0644))

	select {
	case entries := <-w.Events():
		t.Fatalf("unexpected snapshot: %v", entries)
	case <-time.After(time.Second):
	}
}
