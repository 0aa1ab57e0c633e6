// Package dedupe tracks fetch jobs that are queued or running so an identical
// job is not queued twice.
package dedupe

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Deduper records in-flight keys.
type Deduper interface {
	// SeenAndRecord atomically checks if key is in flight and records it if not.
	// Returns true if key was already recorded, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord releases key once its job has finished or was never queued.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

// Key joins parts into a dedupe key.
func Key(parts ...string) string {
	return strings.Join(parts, "|")
}

type entry struct {
	key string
	at  time.Time
}

// inFlight keeps keys in insertion order so the oldest can be evicted when
// the set is full. A key older than ttl counts as released.
type inFlight struct {
	mu      sync.Mutex
	keys    map[string]*list.Element
	order   *list.List
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	size    atomic.Int64
}

// NewInMemoryDeduper creates an in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inFlight{
		maxSize: 1024,
		ttl:     10 * time.Minute,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.keys = make(map[string]*list.Element)
	d.order = list.New()
	return d
}

func (d *inFlight) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if el, ok := d.keys[key]; ok {
		if d.ttl <= 0 || now.Sub(el.Value.(*entry).at) < d.ttl {
			return true
		}
		d.remove(el)
	}

	if d.maxSize > 0 && len(d.keys) >= d.maxSize {
		d.remove(d.order.Front())
	}
	d.keys[key] = d.order.PushBack(&entry{key: key, at: now})
	d.size.Add(1)
	return false
}

func (d *inFlight) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.keys[key]; ok {
		d.remove(el)
	}
}

// remove must be called with d.mu held.
func (d *inFlight) remove(el *list.Element) {
	if el == nil {
		return
	}
	delete(d.keys, el.Value.(*entry).key)
	d.order.Remove(el)
	d.size.Add(-1)
}

func (d *inFlight) Size() int64 {
	return d.size.Load()
}
