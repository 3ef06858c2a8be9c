// Package registry provides the in-memory record collections backing a
// single user's store. Collections are insertion-ordered and keyed by
// record ID. They perform no locking of their own; the owning store
// serializes access.
package registry

// Record is any entity that can live in a Collection.
type Record interface {
	RecordID() string
}

// Collection is an insertion-ordered set of records keyed by ID.
type Collection[T Record] struct {
	order []string
	items map[string]T
}

// New creates an empty collection.
func New[T Record]() *Collection[T] {
	return &Collection[T]{
		items: make(map[string]T),
	}
}

// FindByID looks up a record by ID.
func (c *Collection[T]) FindByID(id string) (T, bool) {
	rec, ok := c.items[id]
	return rec, ok
}

// Insert adds a record. Inserting an ID that already exists replaces
// the stored record but keeps its original position.
func (c *Collection[T]) Insert(rec T) {
	id := rec.RecordID()
	if _, exists := c.items[id]; !exists {
		c.order = append(c.order, id)
	}
	c.items[id] = rec
}

// Replace swaps the stored record for one with the same ID. Returns
// false if no record with that ID exists.
func (c *Collection[T]) Replace(rec T) bool {
	id := rec.RecordID()
	if _, exists := c.items[id]; !exists {
		return false
	}
	c.items[id] = rec
	return true
}

// Remove deletes a record by ID. Returns false if absent.
func (c *Collection[T]) Remove(id string) bool {
	if _, exists := c.items[id]; !exists {
		return false
	}
	delete(c.items, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// List returns all records in insertion order.
func (c *Collection[T]) List() []T {
	out := make([]T, 0, len(c.items))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out
}

// Len returns the number of records.
func (c *Collection[T]) Len() int {
	return len(c.items)
}
