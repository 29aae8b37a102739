package pipeline

import (
	"context"
	"runtime"

	"github.com/airbusgeo/godal"
	"golang.org/x/sync/errgroup"

	"github.com/smartinis/floodmap/internal/raster"
	"github.com/smartinis/floodmap/internal/scratch"
	"github.com/smartinis/floodmap/internal/tile"
)

// writeTileTable dumps one cell-per-tile diagnostic raster (tile_means.tif,
// tile_stddevs.tif, §6) at coarse (tile-sized) resolution.
func writeTileTable(store *scratch.Store, name string, table *tile.Table, get func(r, c int) (float64, bool),
	georef raster.Georeference, tileSize int) error {

	rows, cols := table.Rows(), table.Cols()
	coarse := raster.Georeference{
		Transform: raster.GeoTransform{
			georef.Transform[0], georef.Transform[1] * float64(tileSize), georef.Transform[2],
			georef.Transform[3], georef.Transform[4], georef.Transform[5] * float64(tileSize),
		},
		EPSG: georef.EPSG,
	}

	ds, err := raster.Create(store.Path(name), cols, rows, coarse, -9999, godal.Float64)
	if err != nil {
		return err
	}
	defer ds.Close()

	values := make([]float64, rows*cols)
	valid := make([]bool, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v, ok := get(r, c)
			i := r*cols + c
			values[i] = v
			valid[i] = ok
		}
	}
	return ds.WriteBlock(tile.ROI{X: 0, Y: 0, Width: cols, Height: rows}, values, valid)
}

// writeTileMask dumps a full-resolution binary raster marking which tile
// ROIs were kept (initial_kept_tiles.tif, final_kept_tiles.tif, §6).
func writeTileMask(store *scratch.Store, name string, bounds tile.ROI, georef raster.Georeference, rois []tile.ROI) error {
	ds, err := raster.Create(store.Path(name), bounds.Width, bounds.Height, georef, 0, godal.Byte)
	if err != nil {
		return err
	}
	defer ds.Close()

	values := make([]float64, bounds.Width*bounds.Height)
	valid := make([]bool, len(values))
	for i := range valid {
		valid[i] = true
	}
	for _, roi := range rois {
		for y := roi.Y; y < roi.Y+roi.Height; y++ {
			for x := roi.X; x < roi.X+roi.Width; x++ {
				gx, gy := x-bounds.X, y-bounds.Y
				if gx < 0 || gx >= bounds.Width || gy < 0 || gy >= bounds.Height {
					continue
				}
				values[gy*bounds.Width+gx] = 1
			}
		}
	}
	return ds.WriteBlock(bounds, values, valid)
}

// thresholdMask writes the initial water/land classification (§4.J
// "initial water mask"): a pixel is water (1) when its preprocessed value
// is below the aggregated threshold (SAR water returns darker than land),
// land (0) otherwise; invalid pixels stay invalid.
func thresholdMask(ctx context.Context, bounds tile.ROI, cfg Config, src *raster.Dataset, threshold float64, dst *raster.Dataset) error {
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
				values, valid, err := src.ReadWindow(roi)
				if err != nil {
					return err
				}
				out := make([]float64, len(values))
				for i, v := range values {
					if valid[i] && v < threshold {
						out[i] = 1
					}
				}
				return dst.WriteBlock(roi, out, valid)
			})
		}
	}
	return g.Wait()
}
