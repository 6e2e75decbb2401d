package event

import (
	"cmp"
	"container/heap"
	"iter"
	"slices"
	"sort"
	"sync"
)

// DefaultPriority priority used when Attach is called without WithPriority
const DefaultPriority = 0

// listenerEntry 监听器条目
type listenerEntry struct {
	priority int    // smaller runs earlier
	sequence uint64 // attach order, breaks priority ties
	listener Listener
}

func compareEntries(a, b listenerEntry) int {
	if c := cmp.Compare(a.priority, b.priority); c != 0 {
		return c
	}
	return cmp.Compare(a.sequence, b.sequence)
}

// entryHeap min-heap on (priority, sequence)
type entryHeap []listenerEntry

func (h entryHeap) Len() int           { return len(h) }
func (h entryHeap) Less(i, j int) bool { return compareEntries(h[i], h[j]) < 0 }
func (h entryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)        { *h = append(*h, x.(listenerEntry)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// listenerQueue 单个事件名下的监听器
type listenerQueue struct {
	entries entryHeap
	dirty   bool
	sorted  []Listener // immutable once published, replaced on rebuild
}

func (q *listenerQueue) rebuild() {
	entries := slices.Clone(q.entries)
	slices.SortFunc(entries, compareEntries)

	sorted := make([]Listener, len(entries))
	for i, e := range entries {
		sorted[i] = e.listener
	}
	q.sorted = sorted
	q.dirty = false
}

// AttachOption 注册选项
type AttachOption func(*listenerEntry)

// WithPriority sets the priority. The smaller the number, the earlier the listener runs.
func WithPriority(priority int) AttachOption {
	return func(e *listenerEntry) {
		e.priority = priority
	}
}

// RegistryOption Registry 构造选项
type RegistryOption func(*Registry)

// WithRegistryDefaultPriority overrides DefaultPriority for this registry
func WithRegistryDefaultPriority(priority int) RegistryOption {
	return func(r *Registry) {
		r.defaultPriority = priority
	}
}

// Registry priority-ordered listener registry
//
// Attach is O(log n). The sorted view of a name is rebuilt on the first read
// after a write and shared by every dispatch until the next write.
type Registry struct {
	mu              sync.RWMutex
	queues          map[string]*listenerQueue
	sequence        uint64
	count           int
	defaultPriority int
}

// NewRegistry creates an empty registry
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		queues:          make(map[string]*listenerQueue),
		defaultPriority: DefaultPriority,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultPriority returns the priority applied when none is given
func (r *Registry) DefaultPriority() int {
	return r.defaultPriority
}

// Attach registers listener under name
func (r *Registry) Attach(name string, listener Listener, opts ...AttachOption) error {
	if name == "" {
		return ErrInvalidEventName
	}
	if isNilListener(listener) {
		return ErrNilListener.WithData("event", name)
	}

	entry := listenerEntry{
		priority: r.defaultPriority,
		listener: listener,
	}
	for _, opt := range opts {
		opt(&entry)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sequence++
	entry.sequence = r.sequence

	q, ok := r.queues[name]
	if !ok {
		q = &listenerQueue{}
		r.queues[name] = q
	}
	heap.Push(&q.entries, entry)
	q.dirty = true
	r.count++

	return nil
}

// Has reports whether at least one listener is attached to name
func (r *Registry) Has(name string) bool {
	return r.Len(name) > 0
}

// Len 指定事件的监听器数量
func (r *Registry) Len(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if q, ok := r.queues[name]; ok {
		return len(q.entries)
	}
	return 0
}

// Count 所有事件的监听器总数
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// Names returns the names that have listeners, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.queues))
	for name := range r.queues {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// List yields the listeners of name in execution order.
// The order is fixed when List is called; the sequence can be ranged over again.
func (r *Registry) List(name string) iter.Seq[Listener] {
	snapshot := r.snapshot(name)
	return func(yield func(Listener) bool) {
		for _, l := range snapshot {
			if !yield(l) {
				return
			}
		}
	}
}

// snapshot returns the sorted view of name. The slice must not be modified.
func (r *Registry) snapshot(name string) []Listener {
	r.mu.RLock()
	q, ok := r.queues[name]
	if !ok {
		r.mu.RUnlock()
		return nil
	}
	if !q.dirty {
		sorted := q.sorted
		r.mu.RUnlock()
		return sorted
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// another reader may have rebuilt it in between
	if q.dirty {
		q.rebuild()
	}
	return q.sorted
}
