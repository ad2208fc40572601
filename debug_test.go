package sharedvar

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDump(t *testing.T) {
	m := NewMap[string]()
	_, _ = Create(m, "num", 42, false)
	_, _ = Create(m, "txt", "hello", false)
	_, _ = Create(m, "odd", struct{ x int }{1}, false)

	var buf bytes.Buffer
	Dump(&buf, m, "state:")
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "state:\n"))
	assert.Contains(t, out, "num:")
	assert.Contains(t, out, "42")
	assert.Contains(t, out, `"hello"`)
	assert.Contains(t, out, "group=num")
	assert.Contains(t, out, "type=int")
	assert.Contains(t, out, "[unknown type]")

	// Sorted by key, so the order is stable.
	assert.Less(t, strings.Index(out, "num:"), strings.Index(out, "odd:"))
	assert.Less(t, strings.Index(out, "odd:"), strings.Index(out, "txt:"))
}

func TestDumpSharedGroup(t *testing.T) {
	m := NewMap[string]()
	_, _ = Create(m, "a", 1.5, false)
	require.Equal(t, BindCreatedRight, Bind(m, "a", "b"))

	var buf bytes.Buffer
	Dump(&buf, m, "")
	out := buf.String()

	// Both lines carry the shared group id.
	assert.Equal(t, 2, strings.Count(out, "group=a"))
}

func TestDumpTypeToken(t *testing.T) {
	m := NewMap[string]()
	_, _ = Create(m, "a", 1, false)
	_, _ = Create(m, "b", 2, false)
	_, _ = Create(m, "s", "text", false)

	recA, _ := m.Find("a")
	recB, _ := m.Find("b")
	recS, _ := m.Find("s")

	// Same type, same token; different type, different token.
	assert.Equal(t, recA.TypeToken(), recB.TypeToken())
	assert.NotEqual(t, recA.TypeToken(), recS.TypeToken())

	var buf bytes.Buffer
	Dump(&buf, m, "")
	out := buf.String()

	assert.Contains(t, out, fmt.Sprintf("token=%x", recA.TypeToken()))
	assert.Contains(t, out, fmt.Sprintf("token=%x", recS.TypeToken()))
	// Both ints render the shared token.
	assert.Equal(t, 2, strings.Count(out, fmt.Sprintf("token=%x", recA.TypeToken())))
}

func TestDumpVar(t *testing.T) {
	m := NewMap[string]()
	_, _ = Create(m, "a", true, false)

	var buf bytes.Buffer
	assert.True(t, DumpVar(&buf, m, "a"))
	assert.Contains(t, buf.String(), "true")

	assert.False(t, DumpVar(&buf, m, "missing"))
}
