package shared

import "github.com/google/uuid"

// Record is an entity that can be deep-copied into an independent value
type Record[T any] interface {
	GetID() uuid.UUID
	Clone() T
}

// Collection is an insertion-ordered set of records keyed by id.
// It is not safe for concurrent use; callers serialize access.
type Collection[T Record[T]] struct {
	byID  map[uuid.UUID]T
	order []uuid.UUID
}

// NewCollection creates an empty collection
func NewCollection[T Record[T]]() *Collection[T] {
	return &Collection[T]{byID: make(map[uuid.UUID]T)}
}

// Put inserts or replaces a record, keeping its original position on replace
func (c *Collection[T]) Put(record T) {
	id := record.GetID()
	if _, ok := c.byID[id]; !ok {
		c.order = append(c.order, id)
	}
	c.byID[id] = record
}

// Get returns the record with the given id
func (c *Collection[T]) Get(id uuid.UUID) (T, bool) {
	r, ok := c.byID[id]
	return r, ok
}

// Has reports whether id is present
func (c *Collection[T]) Has(id uuid.UUID) bool {
	_, ok := c.byID[id]
	return ok
}

// Remove deletes a record. Returns false if it was absent.
func (c *Collection[T]) Remove(id uuid.UUID) bool {
	if _, ok := c.byID[id]; !ok {
		return false
	}
	delete(c.byID, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of records
func (c *Collection[T]) Len() int {
	return len(c.order)
}

// All returns records in insertion order
func (c *Collection[T]) All() []T {
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Filter returns records matching pred in insertion order
func (c *Collection[T]) Filter(pred func(T) bool) []T {
	out := make([]T, 0)
	for _, id := range c.order {
		if r := c.byID[id]; pred(r) {
			out = append(out, r)
		}
	}
	return out
}

// Clone deep-copies every record
func (c *Collection[T]) Clone() *Collection[T] {
	out := &Collection[T]{
		byID:  make(map[uuid.UUID]T, len(c.byID)),
		order: make([]uuid.UUID, len(c.order)),
	}
	copy(out.order, c.order)
	for id, r := range c.byID {
		out.byID[id] = r.Clone()
	}
	return out
}
