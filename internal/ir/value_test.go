package ir

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Value
	}{
		{"string", `"GATA3"`, String("GATA3")},
		{"int", `7`, Int(7)},
		{"float", `0.25`, Float(0.25)},
		{"exponent", `1e2`, Float(100)},
		{"bool", `false`, Bool(false)},
		{"array", `[1, 2.5]`, Array{Int(1), Float(2.5)}},
		{"object", `{"gene": "ESR1"}`, Object{"gene": String("ESR1")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := UnmarshalValue([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestUnmarshalValue_RejectsNull(t *testing.T) {
	_, err := UnmarshalValue([]byte(`null`))
	assert.Error(t, err)

	_, err = UnmarshalValue([]byte(`{"a": null}`))
	assert.Error(t, err)
}

func TestFromAny(t *testing.T) {
	v, err := FromAny(3)
	require.NoError(t, err)
	assert.Equal(t, Int(3), v)

	v, err = FromAny(float32(0.5))
	require.NoError(t, err)
	assert.Equal(t, Float(0.5), v)

	v, err = FromAny([]float64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, Array{Float(1), Float(2)}, v)

	_, err = FromAny(math.Inf(-1))
	assert.Error(t, err)

	_, err = FromAny(uint64(math.MaxUint64))
	assert.Error(t, err)

	_, err = FromAny(make(chan int))
	assert.Error(t, err)
}

func TestMarshalValue_ObjectSorted(t *testing.T) {
	obj := NewObject(O("z", Int(1)), O("a", Floats([]float64{0.5})))
	b, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":[0.5],"z":1}`, string(b))
	assert.Equal(t, `{"a":[0.5],"z":1}`, string(b))
}

func TestAsFloatAndAsString(t *testing.T) {
	f, ok := AsFloat(Int(4))
	assert.True(t, ok)
	assert.Equal(t, 4.0, f)

	_, ok = AsFloat(String("4"))
	assert.False(t, ok)

	s, ok := AsString(String("PTEN"))
	assert.True(t, ok)
	assert.Equal(t, "PTEN", s)
}

func TestFormatAndTypeName(t *testing.T) {
	assert.Equal(t, "ESR1", Format(String("ESR1")))
	assert.Equal(t, "0.05", Format(Float(0.05)))
	assert.Equal(t, "float", TypeName(Float(1)))
	assert.Equal(t, "nil", TypeName(nil))
}

func TestSortedKeys_UTF16Order(t *testing.T) {
	// U+10000 encodes as a surrogate pair (0xD800...) which sorts before U+FFFD
	// in UTF-16 but after it in UTF-8.
	obj := Object{"\uFFFD": Int(1), "\U00010000": Int(2)}
	assert.Equal(t, []string{"\U00010000", "\uFFFD"}, obj.SortedKeys())
}
