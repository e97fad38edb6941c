package dashboard

import (
	"sort"
	"sync"
)

// collection holds the in-memory records of one store collection.
// Callers take mu themselves: RLock for reads, Lock for the whole of a mutation including its flush,
// so writes to one collection are serialized and reach the backend in the order they were applied.
type collection[T any] struct {
	mu    sync.RWMutex
	name  string
	items map[int64]T
	idOf  func(T) int64
	// top is the largest id handed out or loaded since the last reset.
	top int64
}

func newCollection[T any](name string, idOf func(T) int64, records []T) *collection[T] {
	c := &collection[T]{name: name, idOf: idOf}
	c.reset(records)
	return c
}

// nextID returns an id strictly greater than every id in the collection (1 when empty).
// Ids of deleted records are not handed out again while the process runs.
func (c *collection[T]) nextID() int64 {
	return c.top + 1
}

func (c *collection[T]) get(id int64) (T, bool) {
	r, ok := c.items[id]
	return r, ok
}

func (c *collection[T]) put(r T) {
	id := c.idOf(r)
	c.items[id] = r
	if id > c.top {
		c.top = id
	}
}

func (c *collection[T]) remove(id int64) bool {
	if _, ok := c.items[id]; !ok {
		return false
	}
	delete(c.items, id)
	return true
}

// all returns a copy of every record sorted by id.
func (c *collection[T]) all() []T {
	out := make([]T, 0, len(c.items))
	for _, r := range c.items {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return c.idOf(out[i]) < c.idOf(out[j]) })
	return out
}

func (c *collection[T]) size() int { return len(c.items) }

func (c *collection[T]) reset(records []T) {
	c.items = make(map[int64]T, len(records))
	c.top = 0
	for _, r := range records {
		c.put(r)
	}
}
