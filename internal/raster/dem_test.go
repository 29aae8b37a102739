package raster

import (
	"math"
	"testing"
)

func TestDNToDBZeroIsInvalid(t *testing.T) {
	if _, ok := DNToDB(0, true); ok {
		t.Error("DN=0 must be treated as invalid regardless of nodata declaration")
	}
	if _, ok := DNToDB(-5, true); ok {
		t.Error("negative DN must be invalid")
	}
	db, ok := DNToDB(100, true)
	if !ok || math.Abs(db-20) > 1e-9 {
		t.Errorf("DNToDB(100) = %v, ok=%v, want 20", db, ok)
	}
}

func TestRescaleLinear(t *testing.T) {
	v := RescaleLinear(17.5, 0, 35, 0, 400)
	if math.Abs(v-200) > 1e-9 {
		t.Errorf("RescaleLinear(17.5) = %v, want 200 (midpoint)", v)
	}
}

func TestSlopeFlatTerrainIsZero(t *testing.T) {
	width, height := 5, 5
	dem := make([]float64, width*height)
	valid := make([]bool, width*height)
	for i := range dem {
		dem[i] = 100 // perfectly flat
		valid[i] = true
	}
	slope, slopeValid := SlopeDegrees(dem, valid, width, height, 10, 10)
	if !slopeValid[2*width+2] {
		t.Fatal("expected interior pixel to be valid")
	}
	if math.Abs(slope[2*width+2]) > 1e-9 {
		t.Errorf("slope on flat terrain = %v, want 0", slope[2*width+2])
	}
}

func TestSlopeEdgePixelsInvalid(t *testing.T) {
	width, height := 4, 4
	dem := make([]float64, width*height)
	valid := make([]bool, width*height)
	for i := range valid {
		valid[i] = true
	}
	_, slopeValid := SlopeDegrees(dem, valid, width, height, 1, 1)
	if slopeValid[0] {
		t.Error("corner pixel should be invalid (no centered difference available)")
	}
}

func TestMetersPerPixel(t *testing.T) {
	geo := Georeference{Transform: GeoTransform{0, 10, 0, 0, 0, -10}}
	x, y := MetersPerPixel(geo)
	if x != 10 || y != 10 {
		t.Errorf("MetersPerPixel = (%v, %v), want (10, 10)", x, y)
	}
}
