package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinMaxNorm_Spread(t *testing.T) {
	out := minMaxNorm([]float64{10000, 20000, 30000})
	require.Len(t, out, 3)
	assert.Equal(t, 0.0, out[0])
	assert.Equal(t, 0.5, out[1])
	assert.Equal(t, 1.0, out[2])
}

func TestMinMaxNorm_AllEqual(t *testing.T) {
	out := minMaxNorm([]float64{42, 42, 42})
	for _, v := range out {
		assert.Equal(t, 0.5, v)
	}
}

func TestMinMaxNorm_AllMissing(t *testing.T) {
	nan := math.NaN()
	out := minMaxNorm([]float64{nan, nan})
	for _, v := range out {
		assert.Equal(t, 0.5, v)
	}
}

func TestMinMaxNorm_MissingImputedAfterScaling(t *testing.T) {
	out := minMaxNorm([]float64{0, math.NaN(), 100})
	assert.Equal(t, 0.0, out[0])
	assert.Equal(t, 0.5, out[1], "missing value gets the neutral midpoint, not a scaled zero")
	assert.Equal(t, 1.0, out[2])
}

func TestMinMaxNorm_Empty(t *testing.T) {
	assert.Empty(t, minMaxNorm(nil))
}

func TestMeanValid(t *testing.T) {
	assert.Equal(t, 2.0, meanValid([]float64{1, math.NaN(), 3}))
	assert.True(t, math.IsNaN(meanValid([]float64{math.NaN()})))
	assert.True(t, math.IsNaN(meanValid(nil)))
}

func TestMedianValid_OddAndEven(t *testing.T) {
	assert.Equal(t, 2.0, medianValid([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, medianValid([]float64{4, 1, 2, 3}))
	assert.Equal(t, 5.0, medianValid([]float64{math.NaN(), 5}))
	assert.True(t, math.IsNaN(medianValid([]float64{math.NaN()})))
}

func TestFillMissing(t *testing.T) {
	out := fillMissing([]float64{1, math.NaN(), 3}, 9)
	assert.Equal(t, []float64{1, 9, 3}, out)
}
