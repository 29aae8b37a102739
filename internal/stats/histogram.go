// Package stats implements the histogram and moment statistics kernel that
// every downstream thresholding and tiling stage is built on: percentile,
// mean, and population standard deviation over pixel streams carrying an
// explicit validity mask, plus the binned histogram construction used by
// the Kittler-Illingworth optimizer.
package stats

import "math"

// Histogram builds a fixed-width binned histogram of values over [min, max].
// Values outside the range, and values marked invalid, are discarded rather
// than clamped into the edge bins. Bins are left-closed/right-open except
// the last bin, which is closed on both ends so max itself falls into it.
//
// valid may be nil, in which case every value is treated as valid.
func Histogram(values []float64, valid []bool, numBins int, min, max float64) []float64 {
	counts := make([]float64, numBins)
	if numBins <= 0 || max <= min {
		return counts
	}
	width := (max - min) / float64(numBins)

	for i, v := range values {
		if valid != nil && !valid[i] {
			continue
		}
		if v < min || v > max {
			continue
		}
		bin := int((v - min) / width)
		if bin >= numBins {
			bin = numBins - 1 // value == max falls into the last, closed bin
		}
		if bin < 0 {
			bin = 0
		}
		counts[bin]++
	}
	return counts
}

// Normalize rescales counts so they sum to 1, returning a new slice. A
// histogram with zero total mass is returned unchanged (all zero).
func Normalize(counts []float64) []float64 {
	var total float64
	for _, c := range counts {
		total += c
	}
	out := make([]float64, len(counts))
	if total <= 0 {
		return out
	}
	for i, c := range counts {
		out[i] = c / total
	}
	return out
}

// Percentile returns the smallest bin index b such that the cumulative mass
// through b is at least p (p in [0, 1]) of the histogram's total mass. It
// returns (0, false) for an empty or all-zero histogram.
func Percentile(hist []float64, p float64) (int, bool) {
	var total float64
	for _, c := range hist {
		total += c
	}
	if total <= 0 {
		return 0, false
	}
	target := p * total
	var cum float64
	for i, c := range hist {
		cum += c
		if cum >= target {
			return i, true
		}
	}
	return len(hist) - 1, true
}

// BinValue maps a histogram bin index back to the value domain, returning
// the left edge of the bin's interval (min + i*width).
func BinValue(min, max float64, numBins, i int) float64 {
	width := (max - min) / float64(numBins)
	return min + float64(i)*width
}

// BinWidth returns the width of a single histogram bin.
func BinWidth(min, max float64, numBins int) float64 {
	return (max - min) / float64(numBins)
}

// Mean returns the arithmetic mean of the valid values, and false if there
// are none. valid may be nil, in which case every value is treated as
// valid.
func Mean(values []float64, valid []bool) (float64, bool) {
	var sum float64
	var n int
	for i, v := range values {
		if valid != nil && !valid[i] {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// StdDev returns the population standard deviation (divide by N, not N-1)
// of the valid values, and false if there are none. valid may be nil.
func StdDev(values []float64, valid []bool) (float64, bool) {
	mean, ok := Mean(values, valid)
	if !ok {
		return 0, false
	}
	var sumSq float64
	var n int
	for i, v := range values {
		if valid != nil && !valid[i] {
			continue
		}
		d := v - mean
		sumSq += d * d
		n++
	}
	if n == 0 {
		return 0, false
	}
	return math.Sqrt(sumSq / float64(n)), true
}

// ValidFraction returns the fraction of entries in valid that are true.
// An empty slice reports a fraction of 0.
func ValidFraction(valid []bool) float64 {
	if len(valid) == 0 {
		return 0
	}
	var n int
	for _, ok := range valid {
		if ok {
			n++
		}
	}
	return float64(n) / float64(len(valid))
}
