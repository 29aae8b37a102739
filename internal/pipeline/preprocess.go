package pipeline

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/smartinis/floodmap/internal/raster"
	"github.com/smartinis/floodmap/internal/tile"
)

// medianHalo is the one-pixel halo a 3x3 median filter needs around every
// tile; small enough that, unlike the blob/flood tile-expansion halo, it
// introduces no cross-tile approximation (every output pixel's full 3x3
// neighborhood is available, except on the raster's own outer border,
// where pixels come out invalid).
const medianHalo = 1

// Preprocess converts src's raw DN raster to the rescaled dB processing
// domain and writes it to dst: DN->dB, 3x3 median filter, then linear
// rescale into [cfg.ProcMin, cfg.ProcMax] from [cfg.GlobalMinDB,
// cfg.GlobalMaxDB] (§4.J step 1).
func Preprocess(ctx context.Context, src, dst *raster.Dataset, cfg Config) error {
	bounds := src.Bounds()
	tileSize := cfg.TileSize
	if tileSize <= 0 {
		tileSize = 512
	}
	concurrency := cfg.Concurrency
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
				return preprocessTile(roi, bounds, src, dst, cfg)
			})
		}
	}
	return g.Wait()
}

func preprocessTile(roi, bounds tile.ROI, src, dst *raster.Dataset, cfg Config) error {
	expanded := tile.Expand(roi, medianHalo, bounds)

	dn, dnValid, err := src.ReadWindow(expanded)
	if err != nil {
		return err
	}

	db := make([]float64, len(dn))
	dbValid := make([]bool, len(dn))
	for i, v := range dn {
		db[i], dbValid[i] = raster.DNToDB(v, dnValid[i])
	}

	filtered, filteredValid := median3x3(db, dbValid, expanded.Width, expanded.Height)

	out := make([]float64, roi.Width*roi.Height)
	outValid := make([]bool, roi.Width*roi.Height)
	for y := 0; y < roi.Height; y++ {
		for x := 0; x < roi.Width; x++ {
			ex := roi.X + x - expanded.X
			ey := roi.Y + y - expanded.Y
			srcIdx := ey*expanded.Width + ex
			dstIdx := y*roi.Width + x

			if !filteredValid[srcIdx] {
				continue
			}
			out[dstIdx] = raster.RescaleLinear(filtered[srcIdx], cfg.GlobalMinDB, cfg.GlobalMaxDB, cfg.ProcMin, cfg.ProcMax)
			outValid[dstIdx] = true
		}
	}
	return dst.WriteBlock(roi, out, outValid)
}

// median3x3 applies a 3x3 median filter over a window, marking a pixel
// invalid if it or any neighbor contributing to its window is invalid or
// outside the window bounds (edge pixels of the window are therefore
// invalid, which is why callers expand by medianHalo before reading).
func median3x3(values []float64, valid []bool, width, height int) ([]float64, []bool) {
	out := make([]float64, len(values))
	outValid := make([]bool, len(values))

	var window [9]float64
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			n := 0
			ok := true
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					ni := (y+dy)*width + (x + dx)
					if !valid[ni] {
						ok = false
						break
					}
					window[n] = values[ni]
					n++
				}
				if !ok {
					break
				}
			}
			if !ok {
				continue
			}
			sort.Float64s(window[:n])
			out[i] = window[n/2]
			outValid[i] = true
		}
	}
	return out, outValid
}
