package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_Scalars(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want string
	}{
		{"string", String("hello"), `"hello"`},
		{"empty string", String(""), `""`},
		{"int", Int(42), "42"},
		{"negative", Int(-600), "-600"},
		{"min int64", Int(-9223372036854775808), "-9223372036854775808"},
		{"true", Bool(true), "true"},
		{"false", Bool(false), "false"},
		{"empty array", Array{}, "[]"},
		{"empty object", Object{}, "{}"},
		{"array", Array{Int(1), String("a"), Bool(false)}, `[1,"a",false]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonical_SortsKeysRecursively(t *testing.T) {
	obj := Object{
		"position": Object{"y": Int(2), "x": Int(1)},
		"id":       String("s1"),
		"type":     String("sound"),
	}

	got, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"s1","position":{"x":1,"y":2},"type":"sound"}`, string(got))
}

func TestMarshalCanonical_UTF16KeyOrder(t *testing.T) {
	// U+1F600 encodes as surrogates 0xD83D 0xDE00, which sort before U+E000.
	obj := Object{"\uE000": Int(1), "\U0001F600": Int(2)}

	got, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"\uE000\":1}", string(got))
}

func TestMarshalCanonical_Escaping(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`say "hi"`, `"say \"hi\""`},
		{`a\b`, `"a\\b"`},
		{"line\nbreak", `"line\nbreak"`},
		{"tab\there", `"tab\there"`},
		{"\x01", `"\u0001"`},
		{"\x1f", `"\u001f"`},
		{"<&>", `"<&>"`},
		{"\u2028", "\"\u2028\""},
	}

	for _, tt := range tests {
		got, err := MarshalCanonical(String(tt.in))
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(got), "input %q", tt.in)
	}
}

func TestMarshalCanonical_NFC(t *testing.T) {
	decomposed := "e\u0301"
	composed := "\u00e9"

	a, err := MarshalCanonical(Object{decomposed: String(decomposed)})
	require.NoError(t, err)
	b, err := MarshalCanonical(Object{composed: String(composed)})
	require.NoError(t, err)

	assert.Equal(t, string(b), string(a))
	assert.Equal(t, "{\"\u00e9\":\"\u00e9\"}", string(a))
}

func TestMarshalCanonical_RejectsNil(t *testing.T) {
	_, err := MarshalCanonical(nil)
	assert.Error(t, err)

	_, err = MarshalCanonical(Object{"k": nil})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"k"`)

	_, err = MarshalCanonical(Array{Int(1), nil})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[1]")
}

func TestStrings(t *testing.T) {
	assert.Equal(t, Array{String("a"), String("b")}, Strings("a", "b"))
	assert.Equal(t, Array{}, Strings())
}

func TestSortedKeys(t *testing.T) {
	obj := Object{"b": Int(1), "a": Int(2), "aa": Int(3)}
	assert.Equal(t, []string{"a", "aa", "b"}, obj.SortedKeys())
	assert.Empty(t, Object{}.SortedKeys())
}
