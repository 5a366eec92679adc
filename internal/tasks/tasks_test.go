package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc = `---
skilltree-id: 3
---
# Learn Go

- [x] Tour of Go
- [ ] Effective Go
  - [x] Formatting
  -[ ] Commentary
	* [X] Names
- plain bullet
* [ ]   Concurrency
`

func TestParse(t *testing.T) {
	ts := Parse(doc)
	require.Len(t, ts, 6)

	assert.Equal(t, "Tour of Go", ts[0].Text)
	assert.True(t, ts[0].Completed)
	assert.Equal(t, 5, ts[0].Line)

	assert.Equal(t, "Commentary", ts[3].Text, "no space before the bracket")
	assert.False(t, ts[3].Completed)

	assert.True(t, ts[4].Completed, "uppercase X counts")
	assert.Equal(t, 2, ts[4].Indent, "tab counts as two spaces")

	assert.Equal(t, "Concurrency", ts[5].Text)
	for i, tk := range ts {
		assert.Equal(t, i, tk.Index)
	}
}

func TestParseHierarchy(t *testing.T) {
	ts := Parse(doc)

	assert.True(t, ts[0].Root())
	assert.True(t, ts[1].Root())
	assert.Equal(t, []int{2, 3, 4}, ts[1].Children)
	assert.Equal(t, 1, ts[2].Parent)
	assert.Equal(t, 1, ts[4].Parent, "same indent as siblings, not nested under them")
	assert.True(t, ts[5].Root())
}

func TestBuildForestDeepNesting(t *testing.T) {
	ts := BuildForest([]Task{
		{Indent: 0}, {Indent: 2}, {Indent: 4}, {Indent: 2}, {Indent: 0},
	})
	assert.Equal(t, -1, ts[0].Parent)
	assert.Equal(t, 0, ts[1].Parent)
	assert.Equal(t, 1, ts[2].Parent)
	assert.Equal(t, 0, ts[3].Parent)
	assert.Equal(t, -1, ts[4].Parent)
	assert.Equal(t, []int{1, 3}, ts[0].Children)
}

func TestParseCRLF(t *testing.T) {
	ts := Parse("- [x] one\r\n- [ ] two\r\n")
	require.Len(t, ts, 2)
	assert.Equal(t, "one", ts[0].Text)
	assert.False(t, ts[1].Completed)
}

func TestCountAndAllDone(t *testing.T) {
	assert.False(t, AllDone(nil))
	done, total := Count(Parse(doc))
	assert.Equal(t, 3, done)
	assert.Equal(t, 6, total)
	assert.True(t, AllDone(Parse("- [x] a\n- [x] b")))
}

func TestToggle(t *testing.T) {
	out, done, err := Toggle(doc, 6)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Contains(t, out, "- [x] Effective Go")

	back, done, err := Toggle(out, 6)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, doc, back)
}

func TestToggleErrors(t *testing.T) {
	_, _, err := Toggle(doc, 0)
	assert.Error(t, err)
	_, _, err = Toggle(doc, 500)
	assert.Error(t, err)
}

func TestCache(t *testing.T) {
	c := NewCache()
	_, _, ok := c.Progress(1)
	assert.False(t, ok)

	c.Set(1, Parse("- [x] a\n- [ ] b"))
	done, total, ok := c.Progress(1)
	assert.True(t, ok)
	assert.Equal(t, 1, done)
	assert.Equal(t, 2, total)

	original, _ := c.Get(1)
	require.True(t, c.SetCompleted(1, 1, true))
	assert.False(t, original[1].Completed, "cached list is replaced, not mutated")
	done, _, _ = c.Progress(1)
	assert.Equal(t, 2, done)

	c.Rekey(1, 5)
	assert.False(t, c.Has(1))
	assert.True(t, c.Has(5))
	assert.False(t, c.SetCompleted(5, 9, true))
}
