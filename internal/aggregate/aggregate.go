// Package aggregate reduces price samples taken from individual trades to a
// single robust estimate.
package aggregate

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// ErrInsufficientSamples is returned when fewer samples than required survive filtering
var ErrInsufficientSamples = errors.New("insufficient samples")

// Options controls Summarize. A zero MaxValue disables the upper bound.
type Options struct {
	MinSamples    int
	MinValue      float64
	MaxValue      float64
	IQRMultiplier float64
}

// DefaultOptions keeps positive values and drops points beyond 1.5 IQR
func DefaultOptions() Options {
	return Options{
		MinSamples:    3,
		IQRMultiplier: 1.5,
	}
}

// Stats describes the samples retained after filtering
type Stats struct {
	Median     float64
	Mean       float64
	StdDev     float64
	Min        float64
	Max        float64
	Samples    int
	Discarded  int
	Confidence float64
}

// CV is the coefficient of variation, 0 when the mean is 0
func (s *Stats) CV() float64 {
	if s.Mean == 0 {
		return 0
	}
	return s.StdDev / s.Mean
}

func sorted(values []float64) []float64 {
	s := slices.Clone(values)
	slices.Sort(s)
	return s
}

// Median returns 0 for an empty slice
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	s := sorted(values)
	if n%2 == 0 {
		return (s[n/2-1] + s[n/2]) / 2
	}
	return s[n/2]
}

func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev is the sample standard deviation (n-1). It is 0 below two samples.
func StdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	mean := Mean(values)
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return math.Sqrt(sq / float64(n-1))
}

// FilterRange keeps finite values with min < v and, when max > 0, v <= max
func FilterRange(values []float64, min, max float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= min {
			continue
		}
		if max > 0 && v > max {
			continue
		}
		out = append(out, v)
	}
	return out
}

// FilterOutliers drops values outside [Q1-k*IQR, Q3+k*IQR]. With fewer than
// four values nothing is dropped. When the quartiles coincide, values outside
// half to double the median are dropped instead.
func FilterOutliers(values []float64, k float64) []float64 {
	if len(values) < 4 {
		return slices.Clone(values)
	}

	s := sorted(values)
	n := len(s)
	q1, q3 := s[n/4], s[n*3/4]
	iqr := q3 - q1

	lower, upper := q1-k*iqr, q3+k*iqr
	if iqr == 0 {
		mid := Median(s)
		lower, upper = mid*0.5, mid*2
	}

	out := make([]float64, 0, n)
	for _, v := range values {
		if v >= lower && v <= upper {
			out = append(out, v)
		}
	}
	return out
}

// TrimmedMean drops the lowest and highest trim share of values before
// averaging. trim must be in [0, 0.5).
func TrimmedMean(values []float64, trim float64) float64 {
	if len(values) < 3 || trim <= 0 || trim >= 0.5 {
		return Mean(values)
	}
	s := sorted(values)
	cut := int(float64(len(s)) * trim)
	return Mean(s[cut : len(s)-cut])
}

// Confidence grows with the sample count up to ten samples and shrinks with dispersion
func Confidence(samples int, cv float64) float64 {
	if samples <= 0 {
		return 0
	}
	sampleFactor := math.Min(1, float64(samples)/10)
	return sampleFactor / (1 + math.Abs(cv)*5)
}

// Summarize filters values by range and IQR and describes what remains
func Summarize(values []float64, opts Options) (*Stats, error) {
	if opts.IQRMultiplier <= 0 {
		opts.IQRMultiplier = 1.5
	}
	if opts.MinSamples <= 0 {
		opts.MinSamples = 1
	}

	kept := FilterOutliers(FilterRange(values, opts.MinValue, opts.MaxValue), opts.IQRMultiplier)
	if len(kept) < opts.MinSamples {
		return nil, fmt.Errorf("%w: %d of %d samples usable, need %d", ErrInsufficientSamples, len(kept), len(values), opts.MinSamples)
	}

	st := &Stats{
		Median:    Median(kept),
		Mean:      Mean(kept),
		StdDev:    StdDev(kept),
		Min:       slices.Min(kept),
		Max:       slices.Max(kept),
		Samples:   len(kept),
		Discarded: len(values) - len(kept),
	}
	st.Confidence = Confidence(st.Samples, st.CV())
	return st, nil
}
