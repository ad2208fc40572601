package safe

import (
	sharedvar "github.com/YagoMello/shared-var"
)

// View is a thread-safe live handle on one variable. Every access takes
// the owning map's lock: shared for reads, exclusive for writes and
// re-targeting. The underlying subscription keeps the cached pointer
// valid across group changes exactly like sharedvar.View.
type View[T any, K comparable] struct {
	s    *Map[K]
	view *sharedvar.View[T, K]
}

// NewView creates or reuses the variable at key and returns an attached
// thread-safe view. A differently-typed variable at key is overwritten,
// matching sharedvar.NewView.
func NewView[T any, K comparable](s *Map[K], key K, defaultValue T) *View[T, K] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &View[T, K]{
		s:    s,
		view: sharedvar.NewView(s.mp, key, defaultValue),
	}
}

// Get returns the current value.
func (v *View[T, K]) Get() T {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	return v.view.Get()
}

// Set writes value through the cached pointer.
func (v *View[T, K]) Set(value T) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.view.Set(value)
}

// Key returns the key this view targets.
func (v *View[T, K]) Key() K {
	return v.view.Key()
}

// IsEmpty reports whether the view is detached.
func (v *View[T, K]) IsEmpty() bool {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	return v.view.IsEmpty()
}

// Clone returns an independently subscribed view on the same variable.
func (v *View[T, K]) Clone() *View[T, K] {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return &View[T, K]{s: v.s, view: v.view.Clone()}
}

// Detach unsubscribes and empties the view.
func (v *View[T, K]) Detach() {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.view.Detach()
}
