package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coronabot/internal/errs"
)

func TestEncodeKey_Types(t *testing.T) {
	cases := []struct {
		key  any
		want string
	}{
		{"corona", "corona"},
		{5, "(int)5"},
		{int64(712), "(int)712"},
		{2.5, "(float)2.5"},
		{"(int)5", `\(int)5`},
		{"(float)1", `\(float)1`},
		{`\already`, `\\already`},
	}
	for _, c := range cases {
		got, err := EncodeKey(c.key)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}
}

func TestEncodeKey_UnsupportedType(t *testing.T) {
	_, err := EncodeKey(true)
	assert.Error(t, err)
}

func TestDecodeKey_RoundTrip(t *testing.T) {
	keys := []any{"corona", 5, 2.5, "(int)5", `\weird`, "(float)x"}
	for _, key := range keys {
		encoded, err := EncodeKey(key)
		require.NoError(t, err)
		assert.Equal(t, key, DecodeKey(encoded), "key %v", key)
	}
}

func TestDecodeKey_MalformedNumberStaysString(t *testing.T) {
	assert.Equal(t, "(int)abc", DecodeKey("(int)abc"))
}

func TestEncode_NestedRoundTrip(t *testing.T) {
	inner := NewDocument()
	inner.Set(1, "one")
	inner.Set(2.5, "two and a half")

	middle := NewDocument()
	middle.Set("inner", inner)
	middle.Set("list", []any{int64(1), "two", 3.0})

	doc := NewDocument()
	doc.Set("corona", middle)
	doc.Set(712, "guild")

	encoded, err := Encode(doc)
	require.NoError(t, err)

	decoded := Decode(encoded)
	val, ok := decoded.Get(712)
	require.True(t, ok)
	assert.Equal(t, "guild", val)

	middleDecoded, ok := decoded.Get("corona")
	require.True(t, ok)
	innerDecoded, ok := middleDecoded.(*Document).Get("inner")
	require.True(t, ok)

	one, ok := innerDecoded.(*Document).Get(1)
	require.True(t, ok)
	assert.Equal(t, "one", one)
	half, ok := innerDecoded.(*Document).Get(2.5)
	require.True(t, ok)
	assert.Equal(t, "two and a half", half)
}

func TestEncode_SelfReferenceFails(t *testing.T) {
	doc := NewDocument()
	doc.Set("self", doc)

	_, err := Encode(doc)
	require.Error(t, err)
	assert.Equal(t, errs.CircularReference, errs.KindOf(err))
}

func TestEncode_IndirectCycleFails(t *testing.T) {
	a := NewDocument()
	b := NewDocument()
	a.Set("b", b)
	b.Set("a", a)

	root := NewDocument()
	root.Set("root", a)

	_, err := Encode(root)
	require.Error(t, err)
	assert.Equal(t, errs.CircularReference, errs.KindOf(err))
}

func TestEncode_CycleThroughSliceFails(t *testing.T) {
	doc := NewDocument()
	list := make([]any, 1)
	list[0] = doc
	doc.Set("list", list)

	_, err := Encode(doc)
	require.Error(t, err)
	assert.Equal(t, errs.CircularReference, errs.KindOf(err))
}

func TestEncode_SharedSubtreeAllowed(t *testing.T) {
	shared := NewDocument()
	shared.Set("x", 1)

	doc := NewDocument()
	doc.Set("a", shared)
	doc.Set("b", shared)

	_, err := Encode(doc)
	assert.NoError(t, err)
}

func TestEncode_LiteralEncodedStringKeyNoCollision(t *testing.T) {
	doc := NewDocument()
	doc.Set("(int)5", "literal")
	doc.Set(5, "numeric")

	encoded, err := Encode(doc)
	require.NoError(t, err)

	decoded := Decode(encoded)
	literal, ok := decoded.Get("(int)5")
	require.True(t, ok)
	assert.Equal(t, "literal", literal)
	numeric, ok := decoded.Get(5)
	require.True(t, ok)
	assert.Equal(t, "numeric", numeric)
}
