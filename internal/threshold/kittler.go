// Package threshold implements the Kittler-Illingworth minimum-error
// histogram thresholding optimizer and the global threshold aggregator that
// runs it over a set of selected tiles and reduces the per-tile results to
// a single scene threshold.
package threshold

import "math"

// Fail is the sentinel J-value returned for a candidate split that cannot
// be evaluated (one of the two partitions has zero mass or zero variance).
// It is never a valid minimum, since every real split is finite.
const Fail = math.MaxFloat64

// Result is the outcome of running the optimizer over one histogram.
type Result struct {
	// SplitBin is the argmin bin index t* in [1, len(hist)-1).
	SplitBin int
	// Threshold is the split value in the histogram's value domain:
	// min + width*(SplitBin - 0.5).
	Threshold float64
	// J is the minimum-error criterion at SplitBin.
	J float64
	// Ok is false if every candidate split failed (e.g. the histogram is
	// too sparse or unimodal in a degenerate way).
	Ok bool
}

// Optimize evaluates Kittler-Illingworth's minimum-error criterion J(t) for
// every candidate split bin t in [1, len(hist)-1) and returns the argmin.
//
// hist need not be pre-normalized; it is normalized internally so the
// result is unaffected by the overall sample count (only relative bin
// masses matter), up to bin-width/2 as documented by the Kittler-
// Illingworth threshold-invariance property.
func Optimize(hist []float64, min, max float64) Result {
	K := len(hist)
	if K < 2 {
		return Result{}
	}

	var total float64
	for _, c := range hist {
		total += c
	}
	if total <= 0 {
		return Result{}
	}

	h := make([]float64, K)
	for i, c := range hist {
		h[i] = c / total
	}

	width := (max - min) / float64(K)
	v := func(i int) float64 { return min + float64(i)*width }

	bestJ := Fail
	bestT := -1

	// Running prefix sums avoid recomputing P1/mu1/sigma1 from scratch for
	// every candidate split.
	var p1, s1, sq1 float64 // P1, sum(h*v), sum(h*v^2) over [0, t]
	var totalS, totalSq float64
	for i := 0; i < K; i++ {
		totalS += h[i] * v(i)
		totalSq += h[i] * v(i) * v(i)
	}

	p1, s1, sq1 = h[0], h[0]*v(0), h[0]*v(0)*v(0)
	for t := 1; t < K-1; t++ {
		p1 += h[t]
		s1 += h[t] * v(t)
		sq1 += h[t] * v(t) * v(t)

		p2 := 1 - p1
		if p1 <= 0 || p2 <= 0 {
			continue
		}

		mu1 := s1 / p1
		mu2 := (totalS - s1) / p2

		var1 := sq1/p1 - mu1*mu1
		var2 := (totalSq-sq1)/p2 - mu2*mu2
		if var1 <= 0 || var2 <= 0 {
			continue
		}

		j := 1 + 2*(p1*math.Log(math.Sqrt(var1))+p2*math.Log(math.Sqrt(var2))) -
			2*(p1*math.Log(p1)+p2*math.Log(p2))

		if j < bestJ {
			bestJ = j
			bestT = t
		}
	}

	if bestT < 0 {
		return Result{}
	}

	return Result{
		SplitBin:  bestT,
		Threshold: min + width*(float64(bestT)-0.5),
		J:         bestJ,
		Ok:        true,
	}
}
