package safe

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// Registry is a process-wide directory of named string-keyed maps. Each
// variable lives in exactly one map at a time; the registry only hands
// out map ownership, it performs no binding logic.
type Registry struct {
	maps *xsync.MapOf[string, *Map[string]]
}

func NewRegistry() *Registry {
	return &Registry{
		maps: xsync.NewMapOf[string, *Map[string]](),
	}
}

// Open returns the map registered under name, creating it on first use.
func (r *Registry) Open(name string) *Map[string] {
	m, _ := r.maps.LoadOrCompute(name, func() *Map[string] {
		return NewMap[string]()
	})
	return m
}

// Lookup returns the map registered under name without creating it.
func (r *Registry) Lookup(name string) (*Map[string], bool) {
	return r.maps.Load(name)
}

// Drop unregisters the map under name. Existing references stay usable;
// the registry simply forgets the name.
func (r *Registry) Drop(name string) {
	r.maps.Delete(name)
}

// Range calls f for every registered map until f returns false.
func (r *Registry) Range(f func(name string, m *Map[string]) bool) {
	r.maps.Range(f)
}

// Len reports the number of registered maps.
func (r *Registry) Len() int {
	return r.maps.Size()
}
