package graph

import "sort"

// Keyed is a per-node cache keyed by node id. Node ids can be reassigned, so
// every cache that follows nodes must be moved with Rekey rather than
// copied.
//
// The zero value is ready to use. Keyed is not safe for concurrent use.
type Keyed[T any] struct {
	m map[int]T
}

func NewKeyed[T any]() *Keyed[T] {
	return &Keyed[T]{m: make(map[int]T)}
}

func (k *Keyed[T]) Get(id int) (T, bool) {
	v, ok := k.m[id]
	return v, ok
}

func (k *Keyed[T]) Set(id int, v T) {
	if k.m == nil {
		k.m = make(map[int]T)
	}
	k.m[id] = v
}

func (k *Keyed[T]) Has(id int) bool {
	_, ok := k.m[id]
	return ok
}

func (k *Keyed[T]) Delete(id int) { delete(k.m, id) }

func (k *Keyed[T]) Len() int { return len(k.m) }

// Clear drops every entry.
func (k *Keyed[T]) Clear() { k.m = make(map[int]T) }

// Rekey moves the entry for oldID to newID, replacing whatever newID held.
// It reports whether oldID had an entry.
func (k *Keyed[T]) Rekey(oldID, newID int) bool {
	v, ok := k.m[oldID]
	if !ok || oldID == newID {
		return ok
	}
	delete(k.m, oldID)
	k.m[newID] = v
	return true
}

// Keys returns the ids in ascending order.
func (k *Keyed[T]) Keys() []int {
	ids := make([]int, 0, len(k.m))
	for id := range k.m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
