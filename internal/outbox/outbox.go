// Package outbox buffers records dirtied by ledger mutations until a
// flush mirrors them to the remote document store. Mutations never
// wait on the mirror; the outbox decouples the two.
package outbox

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Pusher mirrors dirty records for a user: records are upserted,
// deleted ids removed. Implemented by the mirror client; mocked in
// tests.
type Pusher interface {
	Push(ctx context.Context, userID, collection string, records []interface{}, deleted []string) error
}

// entry is one dirty record awaiting flush
type entry struct {
	collection string
	id         string
	record     interface{}
	deleted    bool
}

// Outbox accumulates dirty records, keeping only the latest version of
// each (collection, id) pair. A delete supersedes a pending upsert and
// vice versa.
type Outbox struct {
	mu      sync.Mutex
	userID  string
	entries map[string]*entry // "collection/id" -> latest
}

// New creates an outbox for a user.
func New(userID string) *Outbox {
	return &Outbox{
		userID:  userID,
		entries: make(map[string]*entry),
	}
}

// Enqueue records a dirty record, replacing any pending version.
func (o *Outbox) Enqueue(collection, id string, record interface{}) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.entries[collection+"/"+id] = &entry{
		collection: collection,
		id:         id,
		record:     record,
	}
}

// EnqueueDelete records a deletion, replacing any pending upsert.
func (o *Outbox) EnqueueDelete(collection, id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.entries[collection+"/"+id] = &entry{
		collection: collection,
		id:         id,
		deleted:    true,
	}
}

// Len returns the number of pending entries.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.entries)
}

// Flush pushes pending entries grouped by collection. Collections that
// push successfully are cleared; a failed collection keeps its entries
// queued for the next flush. Returns the first push error encountered.
func (o *Outbox) Flush(ctx context.Context, pusher Pusher) error {
	o.mu.Lock()
	byCollection := make(map[string][]*entry)
	for _, e := range o.entries {
		byCollection[e.collection] = append(byCollection[e.collection], e)
	}
	o.mu.Unlock()

	// Stable collection order keeps flush behavior deterministic
	collections := make([]string, 0, len(byCollection))
	for name := range byCollection {
		collections = append(collections, name)
	}
	sort.Strings(collections)

	var firstErr error
	for _, name := range collections {
		group := byCollection[name]
		var records []interface{}
		var deleted []string
		for _, e := range group {
			if e.deleted {
				deleted = append(deleted, e.id)
			} else {
				records = append(records, e.record)
			}
		}

		if err := pusher.Push(ctx, o.userID, name, records, deleted); err != nil {
			if firstErr == nil {
				firstErr = errors.Wrapf(err, "failed to mirror collection %s", name)
			}
			continue
		}

		o.mu.Lock()
		for _, e := range group {
			key := e.collection + "/" + e.id
			// Only clear if the record was not re-dirtied mid-flush
			if cur, ok := o.entries[key]; ok && cur == e {
				delete(o.entries, key)
			}
		}
		o.mu.Unlock()
	}

	return firstErr
}
