package sharedvar

import "fmt"

// BindResult describes which path Bind took.
type BindResult uint8

const (
	// BindFailedMissingVar: neither key exists, there is nothing to bind.
	BindFailedMissingVar BindResult = iota
	// BindFailedTypeMismatch: both exist but store different types.
	BindFailedTypeMismatch
	// BindCreatedLeft: the left key was created as a reference to the right.
	BindCreatedLeft
	// BindCreatedRight: the right key was created as a reference to the left.
	BindCreatedRight
	// BindMerged: both existed; the left group was propagated over the
	// right subtree and a link was added.
	BindMerged
)

// Ok reports whether the bind changed state.
func (r BindResult) Ok() bool { return r >= BindCreatedLeft }

func (r BindResult) String() string {
	switch r {
	case BindFailedMissingVar:
		return "failed: missing var"
	case BindFailedTypeMismatch:
		return "failed: type mismatch"
	case BindCreatedLeft:
		return "created left"
	case BindCreatedRight:
		return "created right"
	case BindMerged:
		return "merged"
	default:
		return fmt.Sprintf("BindResult(%d)", uint8(r))
	}
}

// ExistsState is the tri-state answer of Exists.
type ExistsState uint8

const (
	VarMissing ExistsState = iota
	VarTypeDiffers
	VarSameType
)

// Create stores a new variable of type T at key, initialized with
// defaultValue, and returns its record.
//
// If the key already holds a variable of the same type, that record is
// returned and its value is left unchanged. If the types differ, Create
// fails with ErrTypeMismatch unless overwrite is set, in which case the
// existing variable is removed (unlinking it from all partners) and the
// creation is retried.
func Create[T any, K comparable](m *Map[K], key K, defaultValue T, overwrite bool) (*Record[K], error) {
	if rec, ok := m.vars[key]; ok {
		if rec.typ == typeFor[T]() {
			return rec, nil
		}
		if !overwrite {
			m.log.Warn("create: type mismatch", "key", key, "stored", rec.typ.String(), "requested", typeFor[T]().String())
			return nil, ErrTypeMismatch
		}
		detachNodes(m, rec, true)
		m.stats.Removes.Add(1)
		return Create[T](m, key, defaultValue, overwrite)
	}

	v := defaultValue
	typ := typeFor[T]()
	rec := &Record[K]{
		key:       key,
		groupID:   key, // unique key doubles as the fresh group id
		data:      &v,
		typ:       typ,
		token:     typeToken(typ),
		alloc:     allocatorFor[T](),
		copy:      copierFor[T](),
		links:     make(map[K]struct{}),
		observers: make(map[*any]struct{}),
	}
	m.vars[key] = rec
	m.stats.Creates.Add(1)
	m.log.Debug("create", "key", key, "type", typ.String())
	return rec, nil
}

// Copy duplicates the value (never the links) of srcKey into destKey
// within one map. See CopyBetween.
func Copy[K comparable](m *Map[K], srcKey, destKey K, overwrite bool) (*Record[K], error) {
	return CopyBetween(m, m, srcKey, destKey, overwrite)
}

// CopyBetween duplicates the value of srcKey in src into destKey in dest.
// A missing destination is created as an independent variable with a fresh
// copy of the source value and no links. An existing same-typed destination
// is assigned in place. A differently-typed destination fails with
// ErrTypeMismatch unless overwrite is set, in which case it is removed and
// the copy retried.
func CopyBetween[K comparable](src, dest *Map[K], srcKey, destKey K, overwrite bool) (*Record[K], error) {
	srcRec, ok := src.vars[srcKey]
	if !ok {
		return nil, ErrMissingVar
	}

	destRec, ok := dest.vars[destKey]
	if !ok {
		rec := &Record[K]{
			key:       destKey,
			groupID:   destKey,
			data:      srcRec.alloc(srcRec.data),
			typ:       srcRec.typ,
			token:     srcRec.token,
			alloc:     srcRec.alloc,
			copy:      srcRec.copy,
			links:     make(map[K]struct{}),
			observers: make(map[*any]struct{}),
		}
		dest.vars[destKey] = rec
		dest.stats.Creates.Add(1)
		dest.log.Debug("copy: created", "src", srcKey, "dest", destKey)
		return rec, nil
	}

	if destRec.typ == srcRec.typ {
		destRec.copy(destRec.data, srcRec.data)
		return destRec, nil
	}
	if !overwrite {
		dest.log.Warn("copy: type mismatch", "src", srcKey, "dest", destKey)
		return nil, ErrTypeMismatch
	}
	detachNodes(dest, destRec, true)
	dest.stats.Removes.Add(1)
	return CopyBetween(src, dest, srcKey, destKey, overwrite)
}

// Bind connects two variables so they share the same backing.
//
// If only one key exists, the other is created as a reference to it (same
// group, same backing). If both exist and the types match, the left
// operand's group takes over: the right record and everything reachable
// from it through links adopt the left backing, then a symmetric link is
// added. Rebinding an already-linked pair is harmless.
func Bind[K comparable](m *Map[K], left, right K) BindResult {
	recL, okL := m.vars[left]
	recR, okR := m.vars[right]

	switch {
	case !okL && !okR:
		m.log.Warn("bind: neither var exists", "left", left, "right", right)
		return BindFailedMissingVar

	case !okL:
		makeReference(m, recR, left)
		m.stats.Binds.Add(1)
		m.log.Debug("bind: created left from right", "left", left, "right", right)
		return BindCreatedLeft

	case !okR:
		makeReference(m, recL, right)
		m.stats.Binds.Add(1)
		m.log.Debug("bind: created right from left", "left", left, "right", right)
		return BindCreatedRight

	default:
		if recL.typ != recR.typ {
			m.log.Warn("bind: type mismatch", "left", left, "right", right)
			return BindFailedTypeMismatch
		}
		propagateGroup(m, recR, recL)
		linkVars(recL, recR)
		m.stats.Binds.Add(1)
		m.stats.Merges.Add(1)
		m.log.Debug("bind: merged", "left", left, "right", right, "group", recL.groupID)
		return BindMerged
	}
}

// Unbind removes the direct link between key1 and key2 and splits one of
// them out into a fresh group, preserving the shared value on both sides.
//
// The record whose group id differs from its own key is the one re-homed;
// if the second operand is such a non-anchor it is preferred, otherwise
// the first operand is re-homed. A no-op if either key is absent or the
// two records are not actually linked.
func Unbind[K comparable](m *Map[K], key1, key2 K) {
	rec1, ok1 := m.vars[key1]
	rec2, ok2 := m.vars[key2]
	if !ok1 || !ok2 {
		return
	}

	_, linked12 := rec1.links[key2]
	_, linked21 := rec2.links[key1]
	if !linked12 && !linked21 {
		// Not linked, or a corrupted one-sided state already degraded
		// to nothing. Refuse to guess.
		return
	}

	delete(rec1.links, key2)
	delete(rec2.links, key1)

	if rec2.groupID != rec2.key {
		rehome(m, rec2)
	} else {
		rehome(m, rec1)
	}
	m.stats.Unbinds.Add(1)
	m.log.Debug("unbind", "key1", key1, "key2", key2)
}

// UnbindAll forces every variable into its own singleton group, allocating
// a private copy of its current value, and clears all links. O(n)
// allocations.
func UnbindAll[K comparable](m *Map[K]) {
	for _, rec := range m.vars {
		rec.groupID = rec.key
		allocateAndNotify(rec)
		clear(rec.links)
	}
	m.stats.Unbinds.Add(1)
	m.log.Debug("unbind all", "vars", len(m.vars))
}

// Remove deletes the variable at key, detaching it from all partners and
// re-splitting whatever part of its group is left disconnected. A no-op if
// the key is absent.
func Remove[K comparable](m *Map[K], key K) {
	rec, ok := m.vars[key]
	if !ok {
		return
	}
	detachNodes(m, rec, true)
	m.stats.Removes.Add(1)
	m.log.Debug("remove", "key", key)
}

// RemoveAll deletes every variable.
func RemoveAll[K comparable](m *Map[K]) {
	m.Clear()
}

// Isolate breaks all of the variable's links, the same way Remove does,
// but keeps the variable itself, re-homed into its own singleton group.
func Isolate[K comparable](m *Map[K], key K) {
	rec, ok := m.vars[key]
	if !ok {
		return
	}
	detachNodes(m, rec, false)
	m.log.Debug("isolate", "key", key)
}

// Exists reports whether key holds a variable and whether its type is T.
func Exists[T any, K comparable](m *Map[K], key K) ExistsState {
	rec, ok := m.vars[key]
	if !ok {
		return VarMissing
	}
	if rec.typ == typeFor[T]() {
		return VarSameType
	}
	return VarTypeDiffers
}

// Contains reports whether key holds a variable of exactly type T.
func Contains[T any, K comparable](m *Map[K], key K) bool {
	return Exists[T](m, key) == VarSameType
}

// GetPtr returns the live backing pointer for key, or nil if the key is
// absent or holds a different type.
//
// The pointer is invalidated by any subsequent bind, unbind or remove that
// touches the variable's group. Use a View to hold a pointer across group
// changes.
func GetPtr[T any, K comparable](m *Map[K], key K) *T {
	rec, ok := m.vars[key]
	if !ok {
		return nil
	}
	p, _ := rec.data.(*T)
	return p
}

// Get returns a copy of the value at key, or the zero value if the key is
// absent or holds a different type.
func Get[T any, K comparable](m *Map[K], key K) T {
	if p := GetPtr[T](m, key); p != nil {
		return *p
	}
	var zero T
	return zero
}

// Set assigns value to the variable at key. A no-op if the key is absent
// or holds a different type.
func Set[T any, K comparable](m *Map[K], key K, value T) {
	if p := GetPtr[T](m, key); p != nil {
		*p = value
	}
}

// AutoGet returns the live backing pointer for key, creating the variable
// with a zero value if it is absent. It panics only when creation itself
// failed, which means the key holds a differently-typed variable.
func AutoGet[T any, K comparable](m *Map[K], key K) *T {
	if p := GetPtr[T](m, key); p != nil {
		return p
	}
	var zero T
	rec, err := Create[T](m, key, zero, false)
	if err != nil {
		panic(fmt.Sprintf("sharedvar: auto get failed to create var %v: %v", key, err))
	}
	return rec.data.(*T)
}

// ---- internal topology helpers ----

// makeReference inserts a new record at refKey sharing src's group,
// backing and capabilities, and links the two.
func makeReference[K comparable](m *Map[K], src *Record[K], refKey K) {
	rec := &Record[K]{
		key:       refKey,
		groupID:   src.groupID,
		data:      src.data,
		typ:       src.typ,
		token:     src.token,
		alloc:     src.alloc,
		copy:      src.copy,
		links:     map[K]struct{}{src.key: {}},
		observers: make(map[*any]struct{}),
	}
	m.vars[refKey] = rec
	src.links[refKey] = struct{}{}
}

// linkVars records the symmetric link between two records.
func linkVars[K comparable](rec1, rec2 *Record[K]) {
	rec1.links[rec2.key] = struct{}{}
	rec2.links[rec1.key] = struct{}{}
}

// propagateGroup overwrites src's group id and backing onto dest and
// recursively onto everything reachable from dest through links. The group
// comparison doubles as the visited check, so cycles terminate.
func propagateGroup[K comparable](m *Map[K], dest, src *Record[K]) {
	if src.groupID == dest.groupID {
		return
	}
	dest.groupID = src.groupID
	dest.data = src.data
	dest.notifyObservers()
	for k := range dest.links {
		if nbr, ok := m.vars[k]; ok {
			propagateGroup(m, nbr, src)
		}
	}
}

// autopropagate pushes rec's (freshly assigned) group onto its remaining
// neighbors. Used after a re-home to claim exactly the split-off subtree:
// propagation stops at any record whose group already differs from the one
// being displaced.
func autopropagate[K comparable](m *Map[K], rec *Record[K]) {
	for k := range rec.links {
		if nbr, ok := m.vars[k]; ok {
			propagateGroup(m, nbr, rec)
		}
	}
}

// allocateAndNotify replaces rec's backing with a fresh allocation
// copy-initialized from the current value, and republishes the pointer to
// all observers.
func allocateAndNotify[K comparable](rec *Record[K]) {
	rec.data = rec.alloc(rec.data)
	rec.notifyObservers()
}

// rehome moves rec into its own fresh singleton group and propagates the
// new group over the subtree still linked to it.
func rehome[K comparable](m *Map[K], rec *Record[K]) {
	rec.groupID = rec.key
	allocateAndNotify(rec)
	autopropagate(m, rec)
	m.stats.Rehomes.Add(1)
}

// detachNodes disconnects rec from its neighbors and re-splits the
// leftover group. When removeNode is set the record itself is erased;
// otherwise it is kept, re-homed into its own group with its links
// cleared.
func detachNodes[K comparable](m *Map[K], rec *Record[K], removeNode bool) {
	// Drop the back-references first so propagation never walks into
	// the detached node.
	for k := range rec.links {
		if nbr, ok := m.vars[k]; ok {
			delete(nbr.links, rec.key)
		}
	}

	// Re-home one neighbor per disconnected branch. A neighbor whose
	// group already equals its own key anchors a branch that is solved;
	// a neighbor still showing the old group starts a new one.
	for k := range rec.links {
		nbr, ok := m.vars[k]
		if !ok || nbr == rec {
			continue
		}
		if nbr.groupID == nbr.key {
			continue
		}
		if nbr.groupID == rec.groupID {
			nbr.groupID = nbr.key
			allocateAndNotify(nbr)
			autopropagate(m, nbr)
			m.stats.Rehomes.Add(1)
		}
	}

	if removeNode {
		delete(m.vars, rec.key)
		return
	}

	// The old group may still be in use by a branch that kept it, so
	// the kept node moves out into a fresh one.
	rec.groupID = rec.key
	allocateAndNotify(rec)
	clear(rec.links)
	m.stats.Rehomes.Add(1)
}
