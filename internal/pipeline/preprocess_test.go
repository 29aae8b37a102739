package pipeline

import "testing"

func TestMedian3x3InteriorPixel(t *testing.T) {
	// 3x3 window of distinct values; median of 1..9 is 5.
	values := []float64{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}
	valid := make([]bool, len(values))
	for i := range valid {
		valid[i] = true
	}

	out, outValid := median3x3(values, valid, 3, 3)

	if !outValid[4] {
		t.Fatal("center pixel should be valid")
	}
	if out[4] != 5 {
		t.Errorf("median(4) = %v, want 5", out[4])
	}
}

func TestMedian3x3EdgesAlwaysInvalid(t *testing.T) {
	values := make([]float64, 9)
	valid := make([]bool, 9)
	for i := range valid {
		valid[i] = true
	}

	_, outValid := median3x3(values, valid, 3, 3)

	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			i := y*3 + x
			isCenter := x == 1 && y == 1
			if outValid[i] != isCenter {
				t.Errorf("outValid[%d,%d] = %v, want %v", x, y, outValid[i], isCenter)
			}
		}
	}
}

func TestMedian3x3PropagatesNeighborInvalidity(t *testing.T) {
	values := make([]float64, 25) // 5x5
	valid := make([]bool, 25)
	for i := range valid {
		valid[i] = true
	}
	// Invalidate one neighbor of the interior pixel at (2,2) -> index 12.
	valid[1*5+2] = false // the "up" neighbor

	out, outValid := median3x3(values, valid, 5, 5)

	if outValid[12] {
		t.Fatal("pixel with an invalid neighbor should be invalid")
	}
	if out[12] != 0 {
		t.Errorf("out[12] = %v, want 0 for an invalid pixel", out[12])
	}
}
