// Package safe wraps a sharedvar.Map with a single reader/writer lock.
//
// Every mutating engine call holds the exclusive lock for its full
// duration; pure lookups hold the shared lock. There is deliberately no
// finer-grained locking: group propagation touches a dynamically
// discovered set of records, so per-record locks cannot bound the
// critical section.
package safe

import (
	"io"
	"sync"

	sharedvar "github.com/YagoMello/shared-var"
)

// Map is a thread-safe shared-variable map.
type Map[K comparable] struct {
	mu sync.RWMutex
	mp *sharedvar.Map[K]
}

// NewMap returns an empty thread-safe map with default options.
func NewMap[K comparable]() *Map[K] {
	return &Map[K]{mp: sharedvar.NewMap[K]()}
}

// NewMapWithOptions returns an empty thread-safe map using the supplied
// options.
func NewMapWithOptions[K comparable](opts sharedvar.Options) *Map[K] {
	return &Map[K]{mp: sharedvar.NewMapWithOptions[K](opts)}
}

// ReadLocked runs f with the shared lock held. f must not retain the map
// or any pointer obtained through it past the call.
func (s *Map[K]) ReadLocked(f func(m *sharedvar.Map[K])) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f(s.mp)
}

// WriteLocked runs f with the exclusive lock held. Same retention rule as
// ReadLocked.
func (s *Map[K]) WriteLocked(f func(m *sharedvar.Map[K])) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(s.mp)
}

// Size reports the number of variables.
func (s *Map[K]) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mp.Size()
}

// ContainsKey reports whether any variable exists at key.
func (s *Map[K]) ContainsKey(key K) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mp.ContainsKey(key)
}

// StatsSnapshot derives the map's gauges and counters under the shared
// lock. Suitable as the snapshot function of sharedvar.NewCollector.
func (s *Map[K]) StatsSnapshot() sharedvar.StatsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mp.StatsSnapshot()
}

// Dump writes the map's debug listing under the shared lock.
func (s *Map[K]) Dump(w io.Writer, comment string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sharedvar.Dump(w, s.mp, comment)
}

// Create stores a new variable of type T at key. See sharedvar.Create.
func Create[T any, K comparable](s *Map[K], key K, defaultValue T, overwrite bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := sharedvar.Create[T](s.mp, key, defaultValue, overwrite)
	return err
}

// Copy duplicates the value of srcKey into destKey. See sharedvar.Copy.
func Copy[K comparable](s *Map[K], srcKey, destKey K, overwrite bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := sharedvar.Copy(s.mp, srcKey, destKey, overwrite)
	return err
}

// Bind connects two variables. See sharedvar.Bind.
func Bind[K comparable](s *Map[K], left, right K) sharedvar.BindResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sharedvar.Bind(s.mp, left, right)
}

// Unbind disconnects two variables. See sharedvar.Unbind.
func Unbind[K comparable](s *Map[K], key1, key2 K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sharedvar.Unbind(s.mp, key1, key2)
}

// UnbindAll splits every variable into its own group.
func UnbindAll[K comparable](s *Map[K]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sharedvar.UnbindAll(s.mp)
}

// Remove deletes a variable. See sharedvar.Remove.
func Remove[K comparable](s *Map[K], key K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sharedvar.Remove(s.mp, key)
}

// RemoveAll deletes every variable.
func RemoveAll[K comparable](s *Map[K]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sharedvar.RemoveAll(s.mp)
}

// Isolate breaks all of a variable's links, keeping the variable.
func Isolate[K comparable](s *Map[K], key K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sharedvar.Isolate(s.mp, key)
}

// Exists reports presence and type agreement for key.
func Exists[T any, K comparable](s *Map[K], key K) sharedvar.ExistsState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sharedvar.Exists[T](s.mp, key)
}

// Contains reports whether key holds a variable of exactly type T.
func Contains[T any, K comparable](s *Map[K], key K) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sharedvar.Contains[T](s.mp, key)
}

// Get returns a copy of the value at key, or the zero value.
func Get[T any, K comparable](s *Map[K], key K) T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sharedvar.Get[T](s.mp, key)
}

// Set assigns value to the variable at key. Value writes race with
// concurrent readers of the same backing, so Set takes the exclusive lock.
func Set[T any, K comparable](s *Map[K], key K, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sharedvar.Set(s.mp, key, value)
}

// TakeSnapshot captures a value-only snapshot under the shared lock.
func TakeSnapshot[K comparable](s *Map[K]) *sharedvar.Snapshot[K] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sharedvar.TakeSnapshot(s.mp)
}

// RestoreSnapshot copies snapshot values back under the exclusive lock.
func RestoreSnapshot[K comparable](s *Map[K], snap *sharedvar.Snapshot[K], overwrite bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap.Restore(s.mp, overwrite)
}
