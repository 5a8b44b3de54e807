package manager

import (
	"sync/atomic"
)

// SourceRegistry caches the repositories a manager exposes. Writers replace
// the whole set at once, so a reader always sees one complete generation.
// A returned snapshot may be stale after the next Replace; compare
// Generation to detect that.
type SourceRegistry struct {
	current atomic.Pointer[sourceSet]
}

type sourceSet struct {
	generation uint64
	sources    []ManagerSource
	byName     map[string]int
}

// NewSourceRegistry creates an empty registry at generation 0.
func NewSourceRegistry() *SourceRegistry {
	r := &SourceRegistry{}
	r.current.Store(&sourceSet{byName: map[string]int{}})
	return r
}

// Replace swaps in a new set of sources. Later duplicates of a name are
// dropped. It returns the new generation.
func (r *SourceRegistry) Replace(sources []ManagerSource) uint64 {
	next := &sourceSet{
		sources: make([]ManagerSource, 0, len(sources)),
		byName:  make(map[string]int, len(sources)),
	}
	for _, s := range sources {
		if s.Name == "" {
			continue
		}
		if _, dup := next.byName[s.Name]; dup {
			continue
		}
		next.byName[s.Name] = len(next.sources)
		next.sources = append(next.sources, s)
	}

	for {
		old := r.current.Load()
		next.generation = old.generation + 1
		if r.current.CompareAndSwap(old, next) {
			return next.generation
		}
	}
}

// Snapshot returns a copy of the current sources in registration order.
func (r *SourceRegistry) Snapshot() []ManagerSource {
	set := r.current.Load()
	out := make([]ManagerSource, len(set.sources))
	copy(out, set.sources)
	return out
}

// Names returns the source names in registration order.
func (r *SourceRegistry) Names() []string {
	set := r.current.Load()
	names := make([]string, len(set.sources))
	for i, s := range set.sources {
		names[i] = s.Name
	}
	return names
}

// Lookup finds a source by name.
func (r *SourceRegistry) Lookup(name string) (ManagerSource, bool) {
	set := r.current.Load()
	i, ok := set.byName[name]
	if !ok {
		return ManagerSource{}, false
	}
	return set.sources[i], true
}

// Len returns the number of registered sources.
func (r *SourceRegistry) Len() int {
	return len(r.current.Load().sources)
}

// Generation increases by one on every Replace.
func (r *SourceRegistry) Generation() uint64 {
	return r.current.Load().generation
}
