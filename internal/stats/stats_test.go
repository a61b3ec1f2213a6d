package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert.Zero(t, Mean(nil))
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-12)
	assert.InDelta(t, 2.3333, Mean([]float64{1, 2, 4}), 1e-4)
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want float64
	}{
		{"empty", nil, 0},
		{"odd", []float64{3, 1, 2}, 2},
		{"even", []float64{4, 1, 3, 2}, 2.5},
		{"single", []float64{7}, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Median(tt.in), 1e-12)
		})
	}
}

func TestModeTieBreaksOnFirstEncountered(t *testing.T) {
	// 2 and 5 both appear twice; 2 reaches that count first.
	assert.Equal(t, 2.0, Mode([]float64{2, 5, 5, 2, 9}))
	assert.Equal(t, 5.0, Mode([]float64{5, 2, 2, 5, 9}))
}

func TestLabelModeTieBreaksOnFirstEncountered(t *testing.T) {
	assert.Equal(t, "x", LabelMode([]string{"x", "y", "y", "x"}))
	assert.Equal(t, "y", LabelMode([]string{"y", "x", "x", "y"}))
	assert.Equal(t, "", LabelMode(nil))
}

func TestQuantile(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 1, Quantile(x, 0), 1e-12)
	assert.InDelta(t, 3, Quantile(x, 0.5), 1e-12)
	assert.InDelta(t, 5, Quantile(x, 1), 1e-12)
	assert.InDelta(t, 2, Quantile(x, 0.25), 1e-12)
	// Interpolated between order statistics.
	assert.InDelta(t, 1.4, Quantile(x, 0.1), 1e-12)
}

func TestVarianceAndStd(t *testing.T) {
	assert.Zero(t, Variance(nil))
	assert.InDelta(t, 1.0, Variance([]float64{1, 3, 1, 3, 1, 3, 1, 3}), 1e-12)
	assert.InDelta(t, 1.0, Variance([]float64{1, 3}), 1e-12)
	assert.InDelta(t, 1.0, Std([]float64{1, 3}), 1e-12)
}

func TestMinMax(t *testing.T) {
	lo, hi := MinMax([]float64{3, 1, 4, 1, 5})
	assert.Equal(t, 1.0, lo)
	assert.Equal(t, 5.0, hi)
	lo, hi = MinMax(nil)
	assert.Zero(t, lo)
	assert.Zero(t, hi)
}
