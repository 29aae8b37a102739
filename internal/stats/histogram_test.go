package stats

import (
	"math"
	"testing"
)

func TestHistogramBasic(t *testing.T) {
	values := []float64{0, 1, 2, 3, 9, 10, -1, 11}
	counts := Histogram(values, nil, 10, 0, 10)

	// -1 and 11 fall outside [0, 10] and are discarded.
	var total float64
	for _, c := range counts {
		total += c
	}
	if total != 6 {
		t.Fatalf("total = %v, want 6 (two out-of-range values discarded)", total)
	}

	// The value exactly at max (10) must land in the last, closed bin.
	if counts[9] != 2 { // values 9 and 10 both map to bin 9
		t.Errorf("counts[9] = %v, want 2", counts[9])
	}
}

func TestHistogramRespectsValidMask(t *testing.T) {
	values := []float64{1, 2, 3, 4}
	valid := []bool{true, false, true, false}
	counts := Histogram(values, valid, 4, 0, 4)

	var total float64
	for _, c := range counts {
		total += c
	}
	if total != 2 {
		t.Fatalf("total = %v, want 2 valid samples counted", total)
	}
}

func TestNormalizeSumsToOne(t *testing.T) {
	counts := []float64{1, 2, 3, 4}
	norm := Normalize(counts)
	var sum float64
	for _, v := range norm {
		sum += v
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Errorf("sum = %v, want 1", sum)
	}
}

func TestNormalizeEmptyHistogram(t *testing.T) {
	counts := []float64{0, 0, 0}
	norm := Normalize(counts)
	for _, v := range norm {
		if v != 0 {
			t.Fatalf("expected all-zero normalization of empty histogram, got %v", norm)
		}
	}
}

func TestPercentile(t *testing.T) {
	// 10 equal-mass bins; the 50th percentile should land near the middle.
	hist := make([]float64, 10)
	for i := range hist {
		hist[i] = 1
	}
	idx, ok := Percentile(hist, 0.5)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if idx < 4 || idx > 5 {
		t.Errorf("50th percentile bin = %d, want ~4-5", idx)
	}
}

func TestPercentileEmptyHistogram(t *testing.T) {
	hist := make([]float64, 10)
	_, ok := Percentile(hist, 0.95)
	if ok {
		t.Fatal("expected ok=false for all-zero histogram")
	}
}

func TestMeanAndStdDevPopulation(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	mean, ok := Mean(values, nil)
	if !ok || math.Abs(mean-5) > 1e-9 {
		t.Fatalf("mean = %v, ok=%v, want 5", mean, ok)
	}
	sd, ok := StdDev(values, nil)
	if !ok || math.Abs(sd-2) > 1e-9 {
		t.Fatalf("stddev = %v, ok=%v, want 2 (population formula)", sd, ok)
	}
}

func TestMeanAllInvalidReturnsFalse(t *testing.T) {
	values := []float64{1, 2, 3}
	valid := []bool{false, false, false}
	if _, ok := Mean(values, valid); ok {
		t.Error("expected ok=false when all samples invalid")
	}
	if _, ok := StdDev(values, valid); ok {
		t.Error("expected ok=false when all samples invalid")
	}
}

func TestMeanEmptyInput(t *testing.T) {
	if _, ok := Mean(nil, nil); ok {
		t.Error("expected ok=false for empty input")
	}
}

func TestIdenticalQuadrantsProduceZeroStdDev(t *testing.T) {
	// A tile whose sub-tile means are all identical must have stddev exactly 0.
	means := []float64{42.0, 42.0, 42.0, 42.0}
	sd, ok := StdDev(means, nil)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if sd != 0 {
		t.Errorf("stddev = %v, want exactly 0", sd)
	}
}

func TestValidFraction(t *testing.T) {
	valid := []bool{true, true, false, true}
	if f := ValidFraction(valid); math.Abs(f-0.75) > 1e-12 {
		t.Errorf("ValidFraction = %v, want 0.75", f)
	}
	if f := ValidFraction(nil); f != 0 {
		t.Errorf("ValidFraction(nil) = %v, want 0", f)
	}
}
