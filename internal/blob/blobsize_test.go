package blob

import (
	"context"
	"testing"

	"github.com/smartinis/floodmap/internal/tile"
)

// gridMask is an in-memory boolean raster used as both MaskSource and the
// recording BlockWriter destination in tests.
type gridMask struct {
	width, height int
	water         []bool
	valid         []bool
}

func newGridMask(width, height int) *gridMask {
	return &gridMask{
		width: width, height: height,
		water: make([]bool, width*height),
		valid: make([]bool, width*height),
	}
}

func (m *gridMask) set(x, y int, water bool) {
	i := y*m.width + x
	m.water[i] = water
	m.valid[i] = true
}

func (m *gridMask) ReadMask(roi tile.ROI) ([]bool, []bool, error) {
	water := make([]bool, roi.Width*roi.Height)
	valid := make([]bool, roi.Width*roi.Height)
	for y := 0; y < roi.Height; y++ {
		for x := 0; x < roi.Width; x++ {
			sx, sy := roi.X+x, roi.Y+y
			si := sy*m.width + sx
			di := y*roi.Width + x
			water[di] = m.water[si]
			valid[di] = m.valid[si]
		}
	}
	return water, valid, nil
}

type recordingWriter struct {
	sizes [][]uint32 // one slice per WriteBlock call, same order pixels were emitted
	rois  []tile.ROI
}

func (w *recordingWriter) WriteBlock(roi tile.ROI, sizes []uint32, valid []bool) error {
	cp := make([]uint32, len(sizes))
	copy(cp, sizes)
	w.sizes = append(w.sizes, cp)
	w.rois = append(w.rois, roi)
	return nil
}

func TestBlobSizerSingleComponentFullyContained(t *testing.T) {
	mask := newGridMask(64, 64)
	// A 3x3 water square, fully inside one tile, far from any halo boundary.
	for y := 10; y < 13; y++ {
		for x := 10; x < 13; x++ {
			mask.set(x, y, true)
		}
	}

	w := &recordingWriter{}
	bounds := tile.ROI{X: 0, Y: 0, Width: 64, Height: 64}
	sizer := Sizer{TileSize: 64, Halo: 16, MaxBlobSize: 1000}
	if err := sizer.Compute(context.Background(), bounds, mask, w); err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if len(w.sizes) != 1 {
		t.Fatalf("expected 1 tile write, got %d", len(w.sizes))
	}
	sizes := w.sizes[0]
	roi := w.rois[0]
	var total uint32
	for y := 10; y < 13; y++ {
		for x := 10; x < 13; x++ {
			idx := (y-roi.Y)*roi.Width + (x - roi.X)
			if sizes[idx] != 9 {
				t.Errorf("sizes[%d,%d] = %d, want 9", x, y, sizes[idx])
			}
			total += sizes[idx]
		}
	}
}

func TestBlobSizerClampsToMax(t *testing.T) {
	mask := newGridMask(32, 32)
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			mask.set(x, y, true)
		}
	}

	w := &recordingWriter{}
	bounds := tile.ROI{X: 0, Y: 0, Width: 32, Height: 32}
	sizer := Sizer{TileSize: 32, Halo: 8, MaxBlobSize: 100}
	if err := sizer.Compute(context.Background(), bounds, mask, w); err != nil {
		t.Fatalf("Compute: %v", err)
	}

	for _, sizes := range w.sizes {
		for _, s := range sizes {
			if s > 100 {
				t.Fatalf("size %d exceeds MaxBlobSize 100", s)
			}
		}
	}
}

func TestBlobSizerNonWaterPixelsAreZero(t *testing.T) {
	mask := newGridMask(16, 16)
	mask.set(5, 5, true)

	w := &recordingWriter{}
	bounds := tile.ROI{X: 0, Y: 0, Width: 16, Height: 16}
	sizer := Sizer{TileSize: 16, Halo: 4, MaxBlobSize: 100}
	if err := sizer.Compute(context.Background(), bounds, mask, w); err != nil {
		t.Fatalf("Compute: %v", err)
	}

	roi := w.rois[0]
	sizes := w.sizes[0]
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			idx := (y-roi.Y)*roi.Width + (x - roi.X)
			if x == 5 && y == 5 {
				continue
			}
			if sizes[idx] != 0 {
				t.Fatalf("non-water pixel (%d,%d) = %d, want 0", x, y, sizes[idx])
			}
		}
	}
}
