package sharedvar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewReadsAndWrites(t *testing.T) {
	m := NewMap[string]()
	v := NewView(m, "a", 10)

	assert.False(t, v.IsEmpty())
	assert.Equal(t, "a", v.Key())
	assert.Equal(t, 10, v.Get())

	v.Set(11)
	assert.Equal(t, 11, Get[int](m, "a"))

	// Writes on the map side show up through the view.
	Set(m, "a", 12)
	assert.Equal(t, 12, v.Get())
	assert.Same(t, GetPtr[int](m, "a"), v.Ptr())
}

func TestViewReusesExistingVar(t *testing.T) {
	m := NewMap[string]()
	_, _ = Create(m, "a", 5, false)

	// Same type: the existing value is kept, the default is ignored.
	v := NewView(m, "a", 99)
	assert.Equal(t, 5, v.Get())

	// Different type: NewView must never dangle, so it overwrites.
	w := NewView(m, "a", "text")
	assert.Equal(t, "text", w.Get())
	assert.False(t, Contains[int](m, "a"))
}

func TestViewLivenessAcrossMerge(t *testing.T) {
	m := NewMap[string]()
	v := NewView(m, "a", 1.0)
	_, _ = Create(m, "b", 2.0, false)

	// The merge reassigns a's backing to b's group (left operand wins).
	require.Equal(t, BindMerged, Bind(m, "b", "a"))

	assert.Equal(t, 2.0, v.Get())
	assert.Same(t, GetPtr[float64](m, "b"), v.Ptr())

	// Writing through the stale-looking view reaches the merged group.
	v.Set(3.0)
	assert.Equal(t, 3.0, Get[float64](m, "b"))
}

func TestViewLivenessAcrossUnbind(t *testing.T) {
	m := NewMap[string]()
	_, _ = Create(m, "a", 0, false)
	require.Equal(t, BindCreatedRight, Bind(m, "a", "b"))
	v := NewView(m, "b", 0)
	Set(m, "a", 5)
	require.Equal(t, 5, v.Get())

	// b is the non-anchor, so it gets the fresh backing.
	Unbind(m, "a", "b")

	assert.Equal(t, 5, v.Get())
	assert.Same(t, GetPtr[int](m, "b"), v.Ptr())
	assert.NotSame(t, GetPtr[int](m, "a"), v.Ptr())

	v.Set(6)
	assert.Equal(t, 6, Get[int](m, "b"))
	assert.Equal(t, 5, Get[int](m, "a"))
}

func TestViewLivenessAcrossNeighborRemove(t *testing.T) {
	m := NewMap[string]()
	_, _ = Create(m, "hub", 0, false)
	require.Equal(t, BindCreatedRight, Bind(m, "hub", "spoke"))
	v := NewView(m, "spoke", 0)
	Set(m, "hub", 42)

	Remove(m, "hub")

	assert.Equal(t, 42, v.Get())
	assert.Same(t, GetPtr[int](m, "spoke"), v.Ptr())
}

func TestViewCloneIsIndependentlySubscribed(t *testing.T) {
	m := NewMap[string]()
	v := NewView(m, "a", 1)
	c := v.Clone()

	v.Detach()
	assert.True(t, v.IsEmpty())
	assert.Nil(t, v.Ptr())

	// The clone keeps receiving relocations after the original is gone.
	_, _ = Create(m, "b", 2, false)
	require.Equal(t, BindMerged, Bind(m, "b", "a"))
	assert.Equal(t, 2, c.Get())
	assert.Same(t, GetPtr[int](m, "a"), c.Ptr())
}

func TestViewCloneOfEmptyView(t *testing.T) {
	v := &View[int, string]{}
	c := v.Clone()
	assert.True(t, c.IsEmpty())
}

func TestViewInit(t *testing.T) {
	m := NewMap[string]()
	v := NewView(m, "a", 1)

	// Re-target to another key; the old subscription is released.
	recA, _ := m.Find("a")
	require.NoError(t, v.Init(m, "b", 2))
	assert.Equal(t, 2, v.Get())
	assert.Equal(t, "b", v.Key())
	assert.Equal(t, 0, len(recA.observers))

	// Init refuses a differently-typed key and empties the view.
	_, _ = Create(m, "s", "text", false)
	assert.ErrorIs(t, v.Init(m, "s", 0), ErrTypeMismatch)
	assert.True(t, v.IsEmpty())
}

func TestViewDetachOnRemovedVar(t *testing.T) {
	m := NewMap[string]()
	v := NewView(m, "a", 7)
	Remove(m, "a")

	// The backing outlives the record; the view still reads the last
	// value and can detach cleanly.
	assert.Equal(t, 7, v.Get())
	v.Detach()
	assert.True(t, v.IsEmpty())
}

func TestViewObserverAccounting(t *testing.T) {
	m := NewMap[string]()
	v1 := NewView(m, "a", 1)
	v2 := NewView(m, "a", 1)
	rec, _ := m.Find("a")
	assert.Equal(t, 2, len(rec.observers))

	v1.Detach()
	assert.Equal(t, 1, len(rec.observers))
	v2.Detach()
	assert.Equal(t, 0, len(rec.observers))
}
