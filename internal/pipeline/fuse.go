package pipeline

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/smartinis/floodmap/internal/flood"
	"github.com/smartinis/floodmap/internal/fuzzy"
	"github.com/smartinis/floodmap/internal/raster"
	"github.com/smartinis/floodmap/internal/tile"
)

// FuzzyParams collects the four channels' membership-function parameters
// (§4.J): backscatter is derived from the aggregated threshold, elevation
// and blob size are derived at runtime from DEM statistics and pixel
// resolution, and slope is the fixed (0deg, 15deg) the spec names.
type FuzzyParams struct {
	BackscatterLow, BackscatterHigh float64
	ElevationLow, ElevationHigh     float64
	SlopeLow, SlopeHigh             float64
	BlobLow, BlobHigh               float64
}

// FuseChannels evaluates the four fuzzy channels per-pixel and writes their
// veto-mean to dst as the defuzzed score the flood-fill stage consumes
// (§4.I). slope/slopeValid are precomputed over the full bounds (slope
// needs whole-raster edge handling unlike the other three window-readable
// channels).
func FuseChannels(ctx context.Context, bounds tile.ROI, cfg Config, params FuzzyParams,
	backscatter, dem, blobSizes *raster.Dataset, slope []float64, slopeValid []bool, dst *raster.Dataset) error {

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
				return fuseTile(roi, bounds, params, backscatter, dem, blobSizes, slope, slopeValid, dst)
			})
		}
	}
	return g.Wait()
}

func fuseTile(roi, bounds tile.ROI, params FuzzyParams, backscatter, dem, blobSizes *raster.Dataset,
	slope []float64, slopeValid []bool, dst *raster.Dataset) error {

	bs, bsValid, err := backscatter.ReadWindow(roi)
	if err != nil {
		return err
	}
	elev, elevValid, err := dem.ReadWindow(roi)
	if err != nil {
		return err
	}
	blob, blobValid, err := blobSizes.ReadWindow(roi)
	if err != nil {
		return err
	}

	out := make([]float64, roi.Width*roi.Height)
	outValid := make([]bool, roi.Width*roi.Height)

	for y := 0; y < roi.Height; y++ {
		for x := 0; x < roi.Width; x++ {
			i := y*roi.Width + x
			gx := roi.X + x - bounds.X
			gy := roi.Y + y - bounds.Y
			si := gy*bounds.Width + gx

			bsVal, bsOk := fuzzy.Z(bs[i], bsValid[i], params.BackscatterLow, params.BackscatterHigh)
			elevVal, elevOk := fuzzy.Z(elev[i], elevValid[i], params.ElevationLow, params.ElevationHigh)
			var slopeVal float64
			var slopeOk bool
			if si >= 0 && si < len(slope) {
				slopeVal, slopeOk = fuzzy.Z(slope[si], slopeValid[si], params.SlopeLow, params.SlopeHigh)
			}
			blobVal, blobOk := fuzzy.S(blob[i], blobValid[i], params.BlobLow, params.BlobHigh)

			channels := [flood.NumChannels]float64{bsVal, elevVal, slopeVal, blobVal}
			valid := [flood.NumChannels]bool{bsOk, elevOk, slopeOk, blobOk}

			score, ok := flood.Defuzz(channels, valid)
			out[i] = score
			outValid[i] = ok
		}
	}
	return dst.WriteBlock(roi, out, outValid)
}
