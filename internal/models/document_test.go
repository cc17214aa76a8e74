package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_SetAndGet(t *testing.T) {
	d := NewDocument()
	d.Set("name", "France")

	val, ok := d.Get("name")
	require.True(t, ok)
	assert.Equal(t, "France", val)
}

func TestDocument_GetMissing(t *testing.T) {
	d := NewDocument()
	val, ok := d.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestDocument_IntKeyWidths(t *testing.T) {
	d := NewDocument()
	d.Set(int64(42), "a")

	val, ok := d.Get(42)
	require.True(t, ok)
	assert.Equal(t, "a", val)

	d.Set(42, "b")
	assert.Equal(t, 1, d.Len())
	val, _ = d.Get(int64(42))
	assert.Equal(t, "b", val)
}

func TestDocument_Delete(t *testing.T) {
	d := NewDocument()
	d.Set("a", 1)
	d.Set("b", 2)
	d.Delete("a")

	assert.False(t, d.Contains("a"))
	assert.True(t, d.Contains("b"))
	assert.Equal(t, 1, d.Len())
	assert.Equal(t, []any{"b"}, d.Keys())
}

func TestDocument_DeleteMissingIsNoop(t *testing.T) {
	d := NewDocument()
	d.Set("a", 1)
	d.Delete("b")
	assert.Equal(t, 1, d.Len())
}

func TestDocument_KeysInsertionOrder(t *testing.T) {
	d := NewDocument()
	d.Set("z", 1)
	d.Set("a", 2)
	d.Set(5, 3)
	d.Set("z", 4)

	assert.Equal(t, []any{"z", "a", 5}, d.Keys())
}

func TestDocument_RangeStops(t *testing.T) {
	d := NewDocument()
	d.Set("a", 1)
	d.Set("b", 2)
	d.Set("c", 3)

	var visited []any
	d.Range(func(key, _ any) bool {
		visited = append(visited, key)
		return len(visited) < 2
	})
	assert.Equal(t, []any{"a", "b"}, visited)
}
