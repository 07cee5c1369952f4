package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanAndPopStd(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	assert.InDelta(t, 5.0, Mean(values), 1e-9)
	assert.InDelta(t, 2.0, PopStd(values), 1e-9)
}

func TestQuantileLinearInterpolation(t *testing.T) {
	values := []float64{1, 2, 3, 4}

	// Matches numpy's default linear method.
	assert.InDelta(t, 2.5, Quantile(values, 0.5), 1e-9)
	assert.InDelta(t, 3.85, Quantile(values, 0.95), 1e-9)
}

func TestQuantileDoesNotReorderInput(t *testing.T) {
	values := []float64{9, 1, 5}
	_ = Quantile(values, 0.5)

	assert.Equal(t, []float64{9, 1, 5}, values)
}

func TestIQRBounds(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}

	lower, upper, iqr := IQRBounds(values)
	assert.InDelta(t, 5.0, iqr, 1e-9)
	assert.InDelta(t, -4.0, lower, 1e-9)
	assert.InDelta(t, 16.0, upper, 1e-9)
}

func TestMinMax(t *testing.T) {
	values := []float64{3.5, -1, 42}

	assert.Equal(t, -1.0, Min(values))
	assert.Equal(t, 42.0, Max(values))
}
