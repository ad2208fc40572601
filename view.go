package sharedvar

// View is a live handle on one variable. It caches the backing pointer for
// direct access and subscribes its cache slot as an observer, so the
// engine rewrites the slot whenever a bind, unbind or remove relocates the
// variable's backing. Reads and writes through an attached view therefore
// always see the variable's current group.
//
// A View must not be copied by value: the record stores the address of the
// view's cache slot, which has to stay put for as long as the view is
// subscribed. Use Clone to obtain an independent, separately subscribed
// handle, and Detach before discarding a view that may outlive its map.
type View[T any, K comparable] struct {
	// data holds the *T cache slot; the record writes through &data on
	// every relocation.
	data any
	m    *Map[K]
	key  K
}

// NewView creates or reuses the variable at key and returns an attached
// view on it.
//
// A variable of a different type at the same key is overwritten: a view
// must never come back dangling. An existing same-typed variable is
// reused and its value kept.
func NewView[T any, K comparable](m *Map[K], key K, defaultValue T) *View[T, K] {
	v := &View[T, K]{}
	rec, _ := Create[T](m, key, defaultValue, true)
	v.attach(m, rec)
	return v
}

// Init re-targets the view: it creates or reuses the variable at key,
// unsubscribing from the previous target first. Fails with
// ErrTypeMismatch, leaving the view empty, if the key holds a
// differently-typed variable.
func (v *View[T, K]) Init(m *Map[K], key K, defaultValue T) error {
	rec, err := Create[T](m, key, defaultValue, false)
	if err != nil {
		v.Detach()
		return err
	}
	v.attach(m, rec)
	return nil
}

// Clone returns a new view on the same variable, subscribed independently.
func (v *View[T, K]) Clone() *View[T, K] {
	c := &View[T, K]{}
	if v.data == nil {
		return c
	}
	if rec, ok := v.m.Find(v.key); ok {
		c.attach(v.m, rec)
	}
	return c
}

// Detach unsubscribes the view and empties it. Safe to call on an empty
// view, and the only legal way to release the observer slot before the
// view goes away.
func (v *View[T, K]) Detach() {
	if v.data == nil {
		return
	}
	if rec, ok := v.m.Find(v.key); ok {
		delete(rec.observers, &v.data)
	}
	v.data = nil
	v.m = nil
	var zero K
	v.key = zero
}

// Get returns the current value. The view must be attached.
func (v *View[T, K]) Get() T {
	return *(v.data.(*T))
}

// Set writes value through the cached pointer, without looking the record
// up again. The view must be attached.
func (v *View[T, K]) Set(value T) {
	*(v.data.(*T)) = value
}

// Ptr returns the cached backing pointer, or nil for an empty view. The
// pointer stays valid across group changes for as long as the view is
// attached.
func (v *View[T, K]) Ptr() *T {
	if v.data == nil {
		return nil
	}
	return v.data.(*T)
}

// Key returns the key this view targets.
func (v *View[T, K]) Key() K { return v.key }

// IsEmpty reports whether the view is detached from any variable.
func (v *View[T, K]) IsEmpty() bool { return v.data == nil }

func (v *View[T, K]) attach(m *Map[K], rec *Record[K]) {
	v.Detach()
	v.data = rec.data
	v.m = m
	v.key = rec.key
	rec.observers[&v.data] = struct{}{}
}
