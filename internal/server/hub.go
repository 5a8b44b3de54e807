package server

import (
	"sort"
	"sync"

	"wingetbridge/pkg/manager"
)

// maxRetained bounds how many completed operations the hub remembers.
const maxRetained = 200

// Tracked is one operation started through the API together with every
// event it produced, so late subscribers can replay from the start.
type Tracked struct {
	op *manager.Operation

	mu     sync.Mutex
	events []manager.Event
	notify chan struct{}
}

func newTracked() *Tracked {
	return &Tracked{notify: make(chan struct{})}
}

// add appends an event and wakes every waiting subscriber.
func (t *Tracked) add(e manager.Event) {
	t.mu.Lock()
	t.events = append(t.events, e)
	close(t.notify)
	t.notify = make(chan struct{})
	t.mu.Unlock()
}

// since returns the events from index i on and a channel closed on the
// next add.
func (t *Tracked) since(i int) ([]manager.Event, <-chan struct{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i >= len(t.events) {
		return nil, t.notify
	}
	out := make([]manager.Event, len(t.events)-i)
	copy(out, t.events[i:])
	return out, t.notify
}

// OperationView is the JSON form of a tracked operation.
type OperationView struct {
	ID      string          `json:"id"`
	Intent  manager.Intent  `json:"intent"`
	Package manager.Package `json:"package"`
	State   string          `json:"state"`
	Events  int             `json:"events"`
	Result  *manager.Result `json:"result,omitempty"`
}

// View snapshots the operation.
func (t *Tracked) View() OperationView {
	t.mu.Lock()
	n := len(t.events)
	t.mu.Unlock()

	v := OperationView{
		ID:      t.op.ID(),
		Intent:  t.op.Intent(),
		Package: t.op.Package(),
		State:   t.op.State().String(),
		Events:  n,
	}
	if res, ok := t.op.Result(); ok {
		v.Result = &res
	}
	return v
}

// Hub keeps the operations started through the API. Operations run
// concurrently, one process each.
type Hub struct {
	mu     sync.RWMutex
	ops    map[string]*Tracked
	order  []string
	onDone []func(manager.Result)
}

// NewHub creates an empty hub. Each onDone hook runs once per completed
// operation on the hub's watcher goroutine.
func NewHub(onDone ...func(manager.Result)) *Hub {
	return &Hub{
		ops:    make(map[string]*Tracked),
		onDone: onDone,
	}
}

// Start runs start with a progress function that records events, then
// tracks the returned operation.
func (h *Hub) Start(start func(progress manager.ProgressFunc) (*manager.Operation, error), onDone ...func(manager.Result)) (*Tracked, error) {
	t := newTracked()
	op, err := start(t.add)
	if err != nil {
		return nil, err
	}
	t.op = op

	h.mu.Lock()
	h.ops[op.ID()] = t
	h.order = append(h.order, op.ID())
	h.evictLocked()
	h.mu.Unlock()

	go func() {
		res := op.Wait()
		for _, fn := range h.onDone {
			fn(res)
		}
		for _, fn := range onDone {
			fn(res)
		}
	}()
	return t, nil
}

// evictLocked drops the oldest completed operations past maxRetained.
func (h *Hub) evictLocked() {
	for len(h.order) > maxRetained {
		evicted := false
		for i, id := range h.order {
			if _, done := h.ops[id].op.Result(); done {
				delete(h.ops, id)
				h.order = append(h.order[:i], h.order[i+1:]...)
				evicted = true
				break
			}
		}
		if !evicted {
			return
		}
	}
}

// Get returns a tracked operation by id.
func (h *Hub) Get(id string) (*Tracked, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	t, ok := h.ops[id]
	return t, ok
}

// List returns every tracked operation, newest first.
func (h *Hub) List() []OperationView {
	h.mu.RLock()
	ts := make([]*Tracked, 0, len(h.order))
	for _, id := range h.order {
		ts = append(ts, h.ops[id])
	}
	h.mu.RUnlock()

	views := make([]OperationView, 0, len(ts))
	for i := len(ts) - 1; i >= 0; i-- {
		views = append(views, ts[i].View())
	}
	return views
}

// Running returns the ids of operations that have not completed, sorted.
func (h *Hub) Running() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var ids []string
	for id, t := range h.ops {
		if _, done := t.op.Result(); !done {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// CancelAll cancels every running operation.
func (h *Hub) CancelAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, t := range h.ops {
		t.op.Cancel()
	}
}
