package tasks

import "github.com/msalah0e/skilltree/internal/graph"

// Cache holds the last task list read for each node. Lists are replaced
// wholesale on every read; the last write for a node wins.
type Cache struct {
	lists graph.Keyed[[]Task]
}

func NewCache() *Cache { return &Cache{} }

func (c *Cache) Get(id int) ([]Task, bool) { return c.lists.Get(id) }
func (c *Cache) Set(id int, ts []Task)     { c.lists.Set(id, ts) }
func (c *Cache) Delete(id int)             { c.lists.Delete(id) }
func (c *Cache) Rekey(oldID, newID int)    { c.lists.Rekey(oldID, newID) }
func (c *Cache) Clear()                    { c.lists.Clear() }
func (c *Cache) Keys() []int               { return c.lists.Keys() }

// Has reports whether the node has at least one cached task.
func (c *Cache) Has(id int) bool {
	ts, ok := c.lists.Get(id)
	return ok && len(ts) > 0
}

// Progress implements rules.Progress.
func (c *Cache) Progress(id int) (int, int, bool) {
	ts, ok := c.lists.Get(id)
	if !ok {
		return 0, 0, false
	}
	done, total := Count(ts)
	return done, total, true
}

// SetCompleted updates one cached task without waiting for the document to
// be re-read. The list is copied, not mutated in place.
func (c *Cache) SetCompleted(id, index int, completed bool) bool {
	ts, ok := c.lists.Get(id)
	if !ok || index < 0 || index >= len(ts) {
		return false
	}
	next := make([]Task, len(ts))
	copy(next, ts)
	next[index].Completed = completed
	c.lists.Set(id, next)
	return true
}
