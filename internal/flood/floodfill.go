package flood

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/smartinis/floodmap/internal/tile"
)

// Classified pixel values (§3 "Classified output").
const (
	NODATA = 0
	LAND   = 1
	WATER  = 255
)

// FinalFloodThresholdDefault and WaterGrowThresholdDefault are the seed and
// grow thresholds of §6.
const (
	FinalFloodThresholdDefault = 0.60
	WaterGrowThresholdDefault  = 0.45
)

// TileExpandDefault mirrors blob.TileExpandDefault; duplicated here so this
// package has no dependency on internal/blob for a single constant.
const TileExpandDefault = 256

// DefuzzedSource reads the fused fuzzy score and its validity mask for an
// ROI.
type DefuzzedSource interface {
	ReadDefuzzed(roi tile.ROI) (values []float64, valid []bool, err error)
}

// ClassifiedWriter accepts a block-aligned write of classified pixels.
type ClassifiedWriter interface {
	WriteBlock(roi tile.ROI, classes []uint8) error
}

// Stage runs the two-level flood fill (§4.I).
type Stage struct {
	TileSize  int
	Halo      int
	High, Low float64 // seed and grow thresholds

	Concurrency int
}

// Compute seeds and grows the water mask tile-by-tile, each within its own
// expanded halo (§4.I step 3, §9 tile-expansion approximation), and writes
// the NODATA/LAND/WATER classification.
func (s Stage) Compute(ctx context.Context, bounds tile.ROI, src DefuzzedSource, dst ClassifiedWriter) error {
	halo := s.Halo
	if halo <= 0 {
		halo = TileExpandDefault
	}
	tileSize := s.TileSize
	if tileSize <= 0 {
		tileSize = 512
	}
	high := s.High
	if high <= 0 {
		high = FinalFloodThresholdDefault
	}
	low := s.Low
	if low <= 0 {
		low = WaterGrowThresholdDefault
	}
	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	grid := tile.Divide(bounds, tileSize, true)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for r := 0; r < grid.Rows(); r++ {
		for c := 0; c < grid.Cols(); c++ {
			roi := grid[r][c]
			g.Go(func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				return computeTile(roi, bounds, halo, high, low, src, dst)
			})
		}
	}
	return g.Wait()
}

func computeTile(roi, bounds tile.ROI, halo int, high, low float64, src DefuzzedSource, dst ClassifiedWriter) error {
	expanded := tile.Expand(roi, halo, bounds)

	values, valid, err := src.ReadDefuzzed(expanded)
	if err != nil {
		return err
	}

	water := growFromSeeds(values, valid, expanded.Width, expanded.Height, high, low)

	out := make([]uint8, roi.Width*roi.Height)
	for y := 0; y < roi.Height; y++ {
		for x := 0; x < roi.Width; x++ {
			ex := roi.X + x - expanded.X
			ey := roi.Y + y - expanded.Y
			srcIdx := ey*expanded.Width + ex
			dstIdx := y*roi.Width + x

			switch {
			case !valid[srcIdx]:
				out[dstIdx] = NODATA
			case water[srcIdx]:
				out[dstIdx] = WATER
			default:
				out[dstIdx] = LAND
			}
		}
	}
	return dst.WriteBlock(roi, out)
}

// growFromSeeds seeds at pixels >= high and grows 4-connectedly through
// pixels >= low (§4.I steps 1-2).
func growFromSeeds(values []float64, valid []bool, width, height int, high, low float64) []bool {
	n := width * height
	water := make([]bool, n)
	queue := make([]int, 0, n/4)

	for i := 0; i < n; i++ {
		if valid[i] && values[i] >= high {
			water[i] = true
			queue = append(queue, i)
		}
	}

	for len(queue) > 0 {
		idx := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		x := idx % width
		y := idx / width

		for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			nx, ny := x+d[0], y+d[1]
			if nx < 0 || nx >= width || ny < 0 || ny >= height {
				continue
			}
			nIdx := ny*width + nx
			if water[nIdx] || !valid[nIdx] || values[nIdx] < low {
				continue
			}
			water[nIdx] = true
			queue = append(queue, nIdx)
		}
	}

	return water
}
