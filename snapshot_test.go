package sharedvar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRestoreValues(t *testing.T) {
	m := NewMap[string]()
	_, _ = Create(m, "a", 1, false)
	_, _ = Create(m, "s", "before", false)

	snap := TakeSnapshot(m)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, 2, snap.Len())
	assert.ElementsMatch(t, []string{"a", "s"}, snap.Keys())

	Set(m, "a", 2)
	Set(m, "s", "after")

	snap.Restore(m, false)
	assert.Equal(t, 1, Get[int](m, "a"))
	assert.Equal(t, "before", Get[string](m, "s"))
}

func TestSnapshotIsImmuneToLaterMutation(t *testing.T) {
	m := NewMap[string]()
	_, _ = Create(m, "a", 10, false)

	snap := TakeSnapshot(m)
	Set(m, "a", 99)
	Remove(m, "a")

	snap.Restore(m, false)
	assert.Equal(t, 10, Get[int](m, "a"))
}

func TestSnapshotRecreatesMissingKeysWithoutLinks(t *testing.T) {
	m := NewMap[string]()
	_, _ = Create(m, "a", 1, false)
	require.Equal(t, BindCreatedRight, Bind(m, "a", "b"))
	Set(m, "a", 5)

	snap := TakeSnapshot(m)
	RemoveAll(m)
	snap.Restore(m, false)

	// Values come back; the bind topology does not.
	assert.Equal(t, 5, Get[int](m, "a"))
	assert.Equal(t, 5, Get[int](m, "b"))
	assert.NotSame(t, GetPtr[int](m, "a"), GetPtr[int](m, "b"))
	recA, _ := m.Find("a")
	assert.Empty(t, recA.Links())

	Set(m, "a", 6)
	assert.Equal(t, 5, Get[int](m, "b"))
}

func TestSnapshotRestoreKeepsExistingSharing(t *testing.T) {
	m := NewMap[string]()
	_, _ = Create(m, "a", 1, false)
	require.Equal(t, BindCreatedRight, Bind(m, "a", "b"))

	snap := TakeSnapshot(m)
	Set(m, "a", 9)
	snap.Restore(m, false)

	// In-place assignment: both read the restored value and remain bound.
	assert.Equal(t, 1, Get[int](m, "a"))
	assert.Equal(t, 1, Get[int](m, "b"))
	assert.Same(t, GetPtr[int](m, "a"), GetPtr[int](m, "b"))
}

func TestSnapshotRestoreTypeMismatch(t *testing.T) {
	m := NewMap[string]()
	_, _ = Create(m, "a", 1, false)
	snap := TakeSnapshot(m)

	_, err := Create(m, "a", "replaced", true)
	require.NoError(t, err)

	// Without overwrite the mismatched key is skipped.
	snap.Restore(m, false)
	assert.Equal(t, "replaced", Get[string](m, "a"))

	// With overwrite it is recreated at the snapshot value and type.
	snap.Restore(m, true)
	assert.Equal(t, 1, Get[int](m, "a"))
	assert.False(t, Contains[string](m, "a"))
}

func TestHistory(t *testing.T) {
	m := NewMap[string]()
	_, _ = Create(m, "a", 1, false)

	h, err := NewHistory[string](2)
	require.NoError(t, err)

	s1 := TakeSnapshot(m)
	Set(m, "a", 2)
	s2 := TakeSnapshot(m)
	h.Put(s1)
	h.Put(s2)

	latest, ok := h.Latest()
	require.True(t, ok)
	assert.Equal(t, s2.ID, latest.ID)

	got, ok := h.Get(s2.ID)
	require.True(t, ok)
	assert.Equal(t, s2.ID, got.ID)

	// Depth two: a third snapshot evicts the oldest.
	Set(m, "a", 3)
	s3 := TakeSnapshot(m)
	h.Put(s3)
	assert.Equal(t, 2, h.Len())
	_, ok = h.Get(s1.ID)
	assert.False(t, ok)
	assert.Len(t, h.IDs(), 2)
}
