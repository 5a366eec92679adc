package activity

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogReadSearch(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	entries, err := Read(10)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, Log("node.add", "Default", "id=1"))
	require.NoError(t, Logf("edge.add", "Default", "%d -> %d", 1, 2))
	require.NoError(t, Log("tree.new", "Rust", ""))

	entries, err = Read(0)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	entries, err = Read(2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	found, err := Search("rust", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "tree.new", found[0].Action)

	found, err = Search("1 -> 2", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)

	require.NoError(t, Clear())
	require.NoError(t, Clear())
	entries, err = Read(0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestJournalOrderingAndBadLines(t *testing.T) {
	j := &Journal{Path: filepath.Join(t.TempDir(), "nested", "log.jsonl")}
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, j.Append(Entry{Timestamp: base.Add(time.Hour), Action: "later"}))
	require.NoError(t, j.Append(Entry{Timestamp: base, Action: "earlier"}))

	f, err := os.OpenFile(j.Path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("not json\n\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	entries, err := j.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "later", entries[0].Action)
	assert.Equal(t, "earlier", entries[1].Action)

	require.NoError(t, j.Truncate())
	entries, err = j.Entries()
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestEntryMatches(t *testing.T) {
	e := Entry{Action: "node-add", Tree: "Languages", Details: "Go"}
	assert.True(t, e.Matches("LANG"))
	assert.True(t, e.Matches("go"))
	assert.False(t, e.Matches("rust"))
}
