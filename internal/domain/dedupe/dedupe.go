// Package dedupe tracks mutation update IDs for idempotent replay handling.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// defaultMaxSize bounds the tracker when no option says otherwise.
const defaultMaxSize = 100000

// Deduper records seen update IDs. Weight and threshold writes are not
// idempotent (re-applying the same percentage rescales the vector again),
// so a replayed mutation must be answered from the current state instead of
// being applied twice.
type Deduper interface {
	// SeenAndRecord atomically checks whether id was seen and records it if
	// not. It returns true when id was already seen.
	// This is the ONLY method for deduplication - thread-safe and atomic.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an ID from the seen list, allowing it to be retried.
	// Use it when an update was recorded but its mutation failed to apply.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// node is a single entry in the eviction list.
type node struct {
	id   string
	next *node
}

// reset clears the node state for reuse.
func (n *node) reset() {
	n.id = ""
	n.next = nil
}

// inMemoryDeduper implements Deduper with an in-memory linked list and LIFO
// eviction. Bounded mode (maxSize > 0) evicts the oldest entry through the
// list and recycles nodes via sync.Pool; unbounded mode (maxSize <= 0) keeps
// a plain map with no eviction.
type inMemoryDeduper struct {
	mu       sync.RWMutex
	seen     map[string]*node // id -> node pointer in bounded mode, nil when unbounded
	head     *node            // most recently recorded entry
	maxSize  int              // 0 or negative means unbounded
	size     atomic.Int64
	nodePool sync.Pool
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]*node)

	if d.maxSize > 0 {
		d.nodePool = sync.Pool{
			New: func() interface{} {
				return &node{}
			},
		}
	}

	return d
}

// SeenAndRecord atomically checks if id was seen and records it if not.
// Returns true if id was already seen, false if it was newly recorded.
func (d *inMemoryDeduper) SeenAndRecord(ctx context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return true
	}

	if d.maxSize > 0 {
		if len(d.seen) >= d.maxSize {
			d.evictOldest()
		}

		n := d.nodePool.Get().(*node)
		n.id = id
		n.next = d.head

		d.head = n
		d.seen[id] = n
	} else {
		d.seen[id] = nil
	}
	d.size.Add(1)
	return false
}

// Unrecord removes an ID from the seen list, allowing it to be retried.
func (d *inMemoryDeduper) Unrecord(ctx context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.maxSize > 0 {
		node, exists := d.seen[id]
		if !exists {
			return
		}
		delete(d.seen, id)

		if d.head == node {
			d.head = node.next
		} else {
			current := d.head
			for current != nil && current.next != node {
				current = current.next
			}
			if current != nil {
				current.next = node.next
			}
		}

		node.reset()
		d.nodePool.Put(node)

		d.size.Add(-1)
	} else if _, exists := d.seen[id]; exists {
		delete(d.seen, id)
		d.size.Add(-1)
	}
}

// evictOldest removes the oldest entry, the tail of the list.
// Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	if len(d.seen) == 0 || d.head == nil {
		return
	}

	var prev *node
	current := d.head

	if current.next == nil {
		delete(d.seen, current.id)
		current.reset()
		d.nodePool.Put(current)
		d.head = nil
		d.size.Add(-1)
		return
	}

	for current.next != nil {
		prev = current
		current = current.next
	}

	if prev != nil {
		prev.next = nil
		delete(d.seen, current.id)
		current.reset()
		d.nodePool.Put(current)
		d.size.Add(-1)
	}
}

// Size returns the current number of tracked update IDs.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
