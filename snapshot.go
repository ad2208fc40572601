package sharedvar

import (
	"reflect"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// snapshotEntry holds a private copy of one variable's value plus the
// capabilities needed to recreate or re-assign it later.
type snapshotEntry[K comparable] struct {
	key   K
	data  any // private *T copy, never aliased by the map
	typ   reflect.Type
	token uint64
	alloc allocator
	copy  copier
}

// Snapshot is a value-only capture of a whole map. It records no link
// topology: restoring recreates values, not sharing.
type Snapshot[K comparable] struct {
	ID      string
	TakenAt time.Time

	entries []snapshotEntry[K]
}

// TakeSnapshot clones every variable's current value into a new snapshot.
// The clones are private allocations, so later mutations of the map do not
// leak into the snapshot.
func TakeSnapshot[K comparable](m *Map[K]) *Snapshot[K] {
	snap := &Snapshot[K]{
		ID:      uuid.NewString(),
		TakenAt: time.Now(),
		entries: make([]snapshotEntry[K], 0, m.Size()),
	}
	m.Range(func(key K, rec *Record[K]) bool {
		snap.entries = append(snap.entries, snapshotEntry[K]{
			key:   key,
			data:  rec.alloc(rec.data),
			typ:   rec.typ,
			token: rec.token,
			alloc: rec.alloc,
			copy:  rec.copy,
		})
		return true
	})
	return snap
}

// Len reports the number of captured variables.
func (s *Snapshot[K]) Len() int { return len(s.entries) }

// Keys returns the captured keys.
func (s *Snapshot[K]) Keys() []K {
	out := make([]K, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.key)
	}
	return out
}

// Restore copies the captured values back into m. Missing keys are
// recreated as independent singleton variables; existing same-typed keys
// are assigned in place, keeping their current links and sharing. A key
// that now holds a different type is removed and recreated when overwrite
// is set, otherwise skipped.
//
// Link topology is never restored, only values.
func (s *Snapshot[K]) Restore(m *Map[K], overwrite bool) {
	for _, e := range s.entries {
		rec, ok := m.vars[e.key]
		if ok && rec.typ == e.typ {
			rec.copy(rec.data, e.data)
			continue
		}
		if ok {
			if !overwrite {
				m.log.Warn("snapshot restore: type mismatch, skipping", "key", e.key)
				continue
			}
			detachNodes(m, rec, true)
			m.stats.Removes.Add(1)
		}
		m.vars[e.key] = &Record[K]{
			key:       e.key,
			groupID:   e.key,
			data:      e.alloc(e.data),
			typ:       e.typ,
			token:     e.token,
			alloc:     e.alloc,
			copy:      e.copy,
			links:     make(map[K]struct{}),
			observers: make(map[*any]struct{}),
		}
		m.stats.Creates.Add(1)
	}
	m.log.Debug("snapshot restored", "id", s.ID, "vars", len(s.entries))
}

// History keeps the most recent snapshots, evicting the oldest once depth
// is exceeded.
type History[K comparable] struct {
	cache *lru.Cache[string, *Snapshot[K]]
}

// NewHistory returns a history bounded to depth snapshots.
func NewHistory[K comparable](depth int) (*History[K], error) {
	cache, err := lru.New[string, *Snapshot[K]](depth)
	if err != nil {
		return nil, err
	}
	return &History[K]{cache: cache}, nil
}

// Put stores a snapshot under its ID.
func (h *History[K]) Put(s *Snapshot[K]) {
	h.cache.Add(s.ID, s)
}

// Get looks a snapshot up by ID.
func (h *History[K]) Get(id string) (*Snapshot[K], bool) {
	return h.cache.Get(id)
}

// Latest returns the most recently stored snapshot.
func (h *History[K]) Latest() (*Snapshot[K], bool) {
	keys := h.cache.Keys()
	if len(keys) == 0 {
		return nil, false
	}
	return h.cache.Peek(keys[len(keys)-1])
}

// IDs lists the retained snapshot ids, oldest first.
func (h *History[K]) IDs() []string {
	return h.cache.Keys()
}

// Len reports the number of retained snapshots.
func (h *History[K]) Len() int { return h.cache.Len() }
