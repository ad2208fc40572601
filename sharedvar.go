// Package sharedvar is a type-erased, key-addressed variable store with
// binding: two independently created variables can be made to share one
// backing allocation, so a write through either is observed through both,
// and can later be split apart again while keeping the last shared value.
//
// The package-level functions (Create, Bind, Unbind, Remove, ...) form the
// binding engine and operate on a Map. The Map itself is a dumb container;
// all topology logic lives in the engine. Views (view.go) are live handles
// that stay valid while groups merge and split underneath them.
//
// A Map is single-threaded. The safe subpackage wraps it with one
// reader/writer lock for concurrent use.
package sharedvar

import (
	"log/slog"
	"reflect"
	"sync/atomic"

	"github.com/cespare/xxhash"

	"github.com/YagoMello/shared-var/utils"
)

// allocator returns a fresh *T, copy-initialized from src (another *T of
// the same type) when src is non-nil. Captured at creation time, since the
// engine cannot name the concrete type once the value is boxed.
type allocator func(src any) any

// copier assigns *src to *dst, both *T of the same type.
type copier func(dst, src any)

// Record describes one named variable: its backing allocation, type tag,
// group identity, direct links and observer slots. Records are owned by
// the Map and always addressed by pointer.
type Record[K comparable] struct {
	key     K
	groupID K

	// data holds a *T shared by every record currently in the group.
	// Two records are in the same group iff their data is identical.
	data any

	typ   reflect.Type
	token uint64

	alloc allocator
	copy  copier

	// links is the symmetric bind adjacency, distinct from group
	// co-membership: transitively connected records share a group
	// without a direct link.
	links map[K]struct{}

	// observers are addresses of view-owned cache slots. Whenever data
	// is replaced, the new value is written through every slot.
	observers map[*any]struct{}
}

// Key returns the variable name.
func (r *Record[K]) Key() K { return r.key }

// GroupID reports the record's current group identity. It is bookkeeping
// only; the authoritative sharing relation is backing identity, see
// SharesBackingWith.
func (r *Record[K]) GroupID() K { return r.groupID }

// Type reports the stored value type.
func (r *Record[K]) Type() reflect.Type { return r.typ }

// TypeToken is a stable per-type identifier derived from the type name,
// meant for display and metrics.
func (r *Record[K]) TypeToken() uint64 { return r.token }

// Links returns a copy of the set of keys this record is directly bound to.
func (r *Record[K]) Links() []K {
	out := make([]K, 0, len(r.links))
	for k := range r.links {
		out = append(out, k)
	}
	return out
}

// SharesBackingWith reports whether both records currently read and write
// the same allocation.
func (r *Record[K]) SharesBackingWith(other *Record[K]) bool {
	return other != nil && r.data == other.data
}

// notifyObservers republishes the current backing pointer into every
// subscribed view slot.
func (r *Record[K]) notifyObservers() {
	for slot := range r.observers {
		*slot = r.data
	}
}

func typeFor[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func typeToken(t reflect.Type) uint64 {
	return xxhash.Sum64String(t.PkgPath() + "/" + t.String())
}

func allocatorFor[T any]() allocator {
	return func(src any) any {
		var v T
		if src != nil {
			v = *(src.(*T))
		}
		return &v
	}
}

func copierFor[T any]() copier {
	return func(dst, src any) {
		*(dst.(*T)) = *(src.(*T))
	}
}

// Options configure a Map.
type Options struct {
	Logger utils.Logger
}

// Stats counts engine operations on a map. Counters only grow; gauges are
// derived on demand, see Map.StatsSnapshot.
type Stats struct {
	Creates atomic.Uint64
	Binds   atomic.Uint64
	Merges  atomic.Uint64
	Unbinds atomic.Uint64
	Removes atomic.Uint64
	Rehomes atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of the map's counters and derived
// gauges, in plain integers.
type StatsSnapshot struct {
	Vars        int
	Groups      int
	LinkEntries int
	Observers   int

	Creates uint64
	Binds   uint64
	Merges  uint64
	Unbinds uint64
	Removes uint64
	Rehomes uint64
}

// Map associates keys with variable records and owns every record in it.
// It provides only primitive container operations; binding logic is in the
// package-level engine functions. Not safe for concurrent use, see the
// safe subpackage.
type Map[K comparable] struct {
	vars  map[K]*Record[K]
	log   utils.Logger
	stats Stats
}

// NewMap returns an empty map with the default logger.
func NewMap[K comparable]() *Map[K] {
	return NewMapWithOptions[K](Options{})
}

// NewMapWithOptions returns an empty map using the supplied options.
func NewMapWithOptions[K comparable](opts Options) *Map[K] {
	if opts.Logger == nil {
		opts.Logger = utils.NewDefaultLogger(slog.LevelInfo)
	}
	return &Map[K]{
		vars: make(map[K]*Record[K]),
		log:  opts.Logger,
	}
}

// Find returns the record stored at key.
func (m *Map[K]) Find(key K) (*Record[K], bool) {
	rec, ok := m.vars[key]
	return rec, ok
}

// ContainsKey reports whether any record exists at key, regardless of type.
func (m *Map[K]) ContainsKey(key K) bool {
	_, ok := m.vars[key]
	return ok
}

// Size reports the number of records.
func (m *Map[K]) Size() int { return len(m.vars) }

// Clear drops every record. Views attached to dropped records keep their
// last backing and read it until re-initialized.
func (m *Map[K]) Clear() {
	m.vars = make(map[K]*Record[K])
}

// Erase removes the record at key without any unlinking; it is the raw
// container primitive. Use Remove to delete a variable properly.
func (m *Map[K]) Erase(key K) {
	delete(m.vars, key)
}

// Range calls f for every record until f returns false. Iteration order is
// unspecified.
func (m *Map[K]) Range(f func(key K, rec *Record[K]) bool) {
	for k, rec := range m.vars {
		if !f(k, rec) {
			return
		}
	}
}

// Stats exposes the operation counters.
func (m *Map[K]) Stats() *Stats { return &m.stats }

// StatsSnapshot derives the current gauges (distinct groups by backing
// identity, directed link entries, subscribed observer slots) and copies
// the counters.
func (m *Map[K]) StatsSnapshot() StatsSnapshot {
	snap := StatsSnapshot{
		Vars:    len(m.vars),
		Creates: m.stats.Creates.Load(),
		Binds:   m.stats.Binds.Load(),
		Merges:  m.stats.Merges.Load(),
		Unbinds: m.stats.Unbinds.Load(),
		Removes: m.stats.Removes.Load(),
		Rehomes: m.stats.Rehomes.Load(),
	}
	groups := make(map[any]struct{}, len(m.vars))
	for _, rec := range m.vars {
		groups[rec.data] = struct{}{}
		snap.LinkEntries += len(rec.links)
		snap.Observers += len(rec.observers)
	}
	snap.Groups = len(groups)
	return snap
}
