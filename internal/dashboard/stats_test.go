package dashboard

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiveNumber(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want Summary
	}{
		{"single", []float64{4}, Summary{N: 1, Min: 4, Lower: 4, Median: 4, Upper: 4, Max: 4}},
		{"two", []float64{3, 1}, Summary{N: 2, Min: 1, Lower: 1, Median: 2, Upper: 3, Max: 3}},
		{"five", []float64{5, 3, 1, 4, 2}, Summary{N: 5, Min: 1, Lower: 2, Median: 3, Upper: 4, Max: 5}},
		{"six", []float64{6, 1, 5, 2, 4, 3}, Summary{N: 6, Min: 1, Lower: 2, Median: 3.5, Upper: 5, Max: 6}},
		{"seven", []float64{1, 2, 3, 4, 5, 6, 7}, Summary{N: 7, Min: 1, Lower: 2.5, Median: 4, Upper: 5.5, Max: 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FiveNumber(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFiveNumber_DoesNotSortInput(t *testing.T) {
	in := []float64{3, 1, 2}
	_, err := FiveNumber(in)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1, 2}, in)
}

func TestFiveNumber_Empty(t *testing.T) {
	_, err := FiveNumber(nil)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestWelchTest(t *testing.T) {
	w, err := WelchTest([]float64{1, 2, 3, 4, 5}, []float64{2, 4, 6, 8, 10})
	require.NoError(t, err)

	assert.InDelta(t, -3.0, w.MeanDiff, 1e-12)
	assert.InDelta(t, -3/math.Sqrt(2.5), w.T, 1e-9)
	assert.InDelta(t, 6.25/1.0625, w.DF, 1e-9)
	assert.Greater(t, w.P, 0.10)
	assert.Less(t, w.P, 0.12)
}

func TestWelchTest_Symmetric(t *testing.T) {
	a := []float64{6.2, 5.8, 7.1, 6.5}
	b := []float64{11.8, 12.4, 10.9}

	ab, err := WelchTest(a, b)
	require.NoError(t, err)
	ba, err := WelchTest(b, a)
	require.NoError(t, err)

	assert.InDelta(t, -ab.T, ba.T, 1e-12)
	assert.InDelta(t, ab.DF, ba.DF, 1e-12)
	assert.InDelta(t, ab.P, ba.P, 1e-12)
}

func TestWelchTest_Errors(t *testing.T) {
	_, err := WelchTest([]float64{1}, []float64{1, 2})
	assert.ErrorContains(t, err, "at least 2 values")

	_, err = WelchTest([]float64{1, 1}, []float64{2, 2})
	assert.ErrorContains(t, err, "constant")
}
