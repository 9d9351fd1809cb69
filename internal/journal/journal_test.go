package journal

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndList(t *testing.T) {
	store := setupStore(t)

	base := time.Now()
	for i, op := range []string{"write", "remove", "transaction"} {
		err := store.Record(Entry{
			Op:    op,
			Time:  base.Add(time.Duration(i) * time.Second),
			Paths: []string{"a.txt"},
		})
		require.NoError(t, err)
	}

	entries, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Chronological order, IDs filled in.
	assert.Equal(t, "write", entries[0].Op)
	assert.Equal(t, "remove", entries[1].Op)
	assert.Equal(t, "transaction", entries[2].Op)
	for _, e := range entries {
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, []string{"a.txt"}, e.Paths)
	}
}

func TestListLimit(t *testing.T) {
	store := setupStore(t)

	base := time.Now()
	for i := 0; i < 5; i++ {
		err := store.Record(Entry{
			Op:       "write",
			Time:     base.Add(time.Duration(i) * time.Second),
			Revision: strings.Repeat("a", i+1),
		})
		require.NoError(t, err)
	}

	entries, err := store.List(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// The most recent two.
	assert.Equal(t, strings.Repeat("a", 4), entries[0].Revision)
	assert.Equal(t, strings.Repeat("a", 5), entries[1].Revision)
}

func TestLargeOutputRoundTrip(t *testing.T) {
	store := setupStore(t)

	// Big enough to cross the compression threshold.
	output := strings.Repeat("diff --git a/file b/file\n", 500)
	err := store.Record(Entry{Op: "transaction", Output: output})
	require.NoError(t, err)

	entries, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, output, entries[0].Output)
}

func TestEmptyList(t *testing.T) {
	store := setupStore(t)

	entries, err := store.List(0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
