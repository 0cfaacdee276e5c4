package aggregate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{name: "empty", values: nil, want: 0},
		{name: "odd", values: []float64{100, 102, 98, 101, 99}, want: 100},
		{name: "even", values: []float64{4, 1, 3, 2}, want: 2.5},
		{name: "single", values: []float64{7}, want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Median(tt.values); got != tt.want {
				t.Errorf("Median() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMedian_DoesNotReorderInput(t *testing.T) {
	in := []float64{3, 1, 2}
	Median(in)
	assert.Equal(t, []float64{3, 1, 2}, in)
}

func TestStdDev(t *testing.T) {
	assert.Equal(t, 0.0, StdDev([]float64{42}))
	assert.InDelta(t, math.Sqrt(2.5), StdDev([]float64{100, 102, 98, 101, 99}), 1e-9)
}

func TestFilterRange(t *testing.T) {
	got := FilterRange([]float64{100, 101, 102, 15000, 99, -1, 0, math.NaN(), math.Inf(1)}, 0, 10000)
	assert.Equal(t, []float64{100, 101, 102, 99}, got)

	assert.Len(t, FilterRange([]float64{1, 1e9}, 0, 0), 2, "zero max disables the upper bound")
}

func TestFilterOutliers(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   []float64
	}{
		{
			name:   "iqr drops high point",
			values: []float64{100, 101, 102, 103, 104, 200},
			want:   []float64{100, 101, 102, 103, 104},
		},
		{
			name:   "too few to judge",
			values: []float64{1, 1000, 5},
			want:   []float64{1, 1000, 5},
		},
		{
			name:   "flat quartiles fall back to median band",
			values: []float64{5, 5, 50, 5, 5},
			want:   []float64{5, 5, 5, 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterOutliers(tt.values, 1.5))
		})
	}
}

func TestTrimmedMean(t *testing.T) {
	assert.Equal(t, 3.0, TrimmedMean([]float64{1, 2, 3, 4, 100}, 0.2))
	assert.Equal(t, 22.0, TrimmedMean([]float64{1, 2, 3, 4, 100}, 0), "no trim is the plain mean")
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, 0.0, Confidence(0, 0))
	assert.Equal(t, 1.0, Confidence(50, 0))
	assert.Equal(t, 0.5, Confidence(5, 0))
	assert.InDelta(t, 0.5, Confidence(10, 0.2), 1e-9)

	assert.Less(t, Confidence(10, 0.5), Confidence(10, 0.1), "more dispersion, less confidence")
}

func TestSummarize(t *testing.T) {
	st, err := Summarize([]float64{100, 102, 98, 101, 99}, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 100.0, st.Median)
	assert.Equal(t, 100.0, st.Mean)
	assert.Equal(t, 98.0, st.Min)
	assert.Equal(t, 102.0, st.Max)
	assert.Equal(t, 5, st.Samples)
	assert.Equal(t, 0, st.Discarded)
	assert.Greater(t, st.Confidence, 0.0)
	assert.LessOrEqual(t, st.Confidence, 1.0)
	assert.InDelta(t, math.Sqrt(2.5)/100, st.CV(), 1e-12)
}

func TestSummarize_DropsOutOfRangeAndOutliers(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxValue = 10000

	st, err := Summarize([]float64{100, 101, 102, 15000, 99}, opts)
	require.NoError(t, err)
	assert.Equal(t, 4, st.Samples)
	assert.Equal(t, 1, st.Discarded)
	assert.Equal(t, 102.0, st.Max)
}

func TestSummarize_InsufficientSamples(t *testing.T) {
	st, err := Summarize([]float64{100}, DefaultOptions())
	assert.Nil(t, st)
	assert.ErrorIs(t, err, ErrInsufficientSamples)

	_, err = Summarize([]float64{-5, 0, 100, 101}, DefaultOptions())
	assert.ErrorIs(t, err, ErrInsufficientSamples)
}
