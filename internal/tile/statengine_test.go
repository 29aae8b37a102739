package tile

import (
	"context"
	"testing"
)

// constSource returns a fully-valid constant value for any window.
type constSource struct {
	value float64
}

func (s constSource) ReadWindow(roi ROI) ([]float64, []bool, error) {
	n := roi.Width * roi.Height
	values := make([]float64, n)
	valid := make([]bool, n)
	for i := range values {
		values[i] = s.value
		valid[i] = true
	}
	return values, valid, nil
}

// sparseSource reports a quadrant-dependent valid fraction, used to exercise
// the MIN_PERCENT_VALID rejection path.
type sparseSource struct {
	value        float64
	validFraction float64
}

func (s sparseSource) ReadWindow(roi ROI) ([]float64, []bool, error) {
	n := roi.Width * roi.Height
	values := make([]float64, n)
	valid := make([]bool, n)
	validCount := int(float64(n) * s.validFraction)
	for i := range values {
		values[i] = s.value
		valid[i] = i < validCount
	}
	return values, valid, nil
}

func TestEngineIdenticalQuadrantsZeroStdDev(t *testing.T) {
	grid := Divide(ROI{X: 0, Y: 0, Width: 256, Height: 256}, 256, true)
	src := constSource{value: 42}

	table, err := Engine{}.Compute(context.Background(), grid, src)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	mean, ok := table.Mean(0, 0)
	if !ok || mean != 42 {
		t.Fatalf("mean = %v, ok=%v, want 42", mean, ok)
	}
	sd, ok := table.StdDev(0, 0)
	if !ok || sd != 0 {
		t.Fatalf("stddev = %v, ok=%v, want exactly 0", sd, ok)
	}
}

func TestEngineRejectsLowValidityQuadrants(t *testing.T) {
	grid := Divide(ROI{X: 0, Y: 0, Width: 256, Height: 256}, 256, true)
	src := sparseSource{value: 10, validFraction: 0.5} // below default 0.9 cutoff

	table, err := Engine{}.Compute(context.Background(), grid, src)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if _, ok := table.Mean(0, 0); ok {
		t.Error("expected tile to be marked invalid when all quadrants fail the valid-fraction cutoff")
	}
}

func TestEngineMarksNonPositiveMeanInvalid(t *testing.T) {
	grid := Divide(ROI{X: 0, Y: 0, Width: 256, Height: 256}, 256, true)
	src := constSource{value: -5}

	table, err := Engine{}.Compute(context.Background(), grid, src)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if _, ok := table.Mean(0, 0); ok {
		t.Error("expected non-positive tile mean to be marked invalid")
	}
}

func TestEngineWritesEveryTileExactlyOnce(t *testing.T) {
	grid := Divide(ROI{X: 0, Y: 0, Width: 1024, Height: 1024}, 256, true)
	src := constSource{value: 7}

	table, err := Engine{Concurrency: 4}.Compute(context.Background(), grid, src)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	for r := 0; r < table.Rows(); r++ {
		for c := 0; c < table.Cols(); c++ {
			if mean, ok := table.Mean(r, c); !ok || mean != 7 {
				t.Fatalf("table[%d][%d] = %v, ok=%v, want 7/true", r, c, mean, ok)
			}
		}
	}
}
