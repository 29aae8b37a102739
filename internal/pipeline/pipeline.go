package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/airbusgeo/godal"

	"github.com/smartinis/floodmap/internal/blob"
	"github.com/smartinis/floodmap/internal/ferrors"
	"github.com/smartinis/floodmap/internal/flood"
	"github.com/smartinis/floodmap/internal/progress"
	"github.com/smartinis/floodmap/internal/raster"
	"github.com/smartinis/floodmap/internal/scratch"
	"github.com/smartinis/floodmap/internal/threshold"
	"github.com/smartinis/floodmap/internal/tile"
)

// Result summarizes a completed run for the CLI to report.
type Result struct {
	Threshold      threshold.AggregateResult
	SelectedTiles  []tile.Selected
	WaterHeight    float64
	WaterHeightStd float64
	OutputPath     string
}

// Run executes the full orchestrator: §4.J's sequence from raw raster to
// final classified output. scratchDir holds every intermediate artifact
// for this run (internal/scratch); reporter receives per-stage tile
// progress (internal/progress); metrics may be nil, in which case no
// counters are recorded.
func Run(ctx context.Context, cfg Config, inputPath, demPath, scratchDir, outputPath string,
	reporter progress.Reporter, metrics *Metrics, verbose bool) (Result, error) {

	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if reporter == nil {
		reporter = progress.Noop{}
	}

	store, err := scratch.New(scratchDir, verbose)
	if err != nil {
		return Result{}, ferrors.Wrap(ferrors.IO, "pipeline", "creating scratch store", err, nil)
	}
	defer store.Close()

	src, err := raster.Open(inputPath)
	if err != nil {
		return Result{}, err
	}
	defer src.Close()

	bounds := src.Bounds()
	georef := src.Georeference()

	preprocessedDS, err := raster.Create(store.Path("preprocessed_image.tif"),
		bounds.Width, bounds.Height, georef, -9999, godal.Float64)
	if err != nil {
		return Result{}, err
	}
	defer preprocessedDS.Close()

	if err := timedStage(metrics, "preprocess", func() error {
		return Preprocess(ctx, src, preprocessedDS, cfg)
	}); err != nil {
		return Result{}, err
	}
	reporter.Increment()

	grid, table, selected, effectiveTileSize, err := selectTiles(ctx, cfg, preprocessedDS, metrics)
	if err != nil {
		return Result{}, err
	}
	if verbose {
		log.Printf("pipeline: tile_size=%d grid=%dx%d selected %d heterogeneous tiles",
			effectiveTileSize, grid.Rows(), grid.Cols(), len(selected))
	}
	reporter.Increment()

	if err := writeTileTable(store, "tile_means.tif", table, func(r, c int) (float64, bool) { return table.Mean(r, c) },
		georef, effectiveTileSize); err != nil {
		return Result{}, err
	}
	if err := writeTileTable(store, "tile_stddevs.tif", table, func(r, c int) (float64, bool) { return table.StdDev(r, c) },
		georef, effectiveTileSize); err != nil {
		return Result{}, err
	}
	if err := writeTileMask(store, "initial_kept_tiles.tif", bounds, georef, selectedROIs(selected)); err != nil {
		return Result{}, err
	}

	var aggResult threshold.AggregateResult
	if err := timedStage(metrics, "threshold-aggregate", func() error {
		var aerr error
		aggResult, aerr = threshold.Aggregate(selected, preprocessedDS, cfg.ProcMin, cfg.ProcMax)
		return aerr
	}); err != nil {
		return Result{}, err
	}
	// final_kept_tiles.tif reuses the selector's candidate set: the
	// aggregator does not report which selected tile produced each
	// surviving per-tile result, only the surviving count.
	if err := writeTileMask(store, "final_kept_tiles.tif", bounds, georef, selectedROIs(selected)); err != nil {
		return Result{}, err
	}

	if cfg.StrictQA {
		if err := checkThresholdQA(aggResult, cfg); err != nil {
			return Result{}, err
		}
	} else if verbose {
		log.Printf("pipeline: threshold=%.2f stddev=%.2f (strict-qa disabled)", aggResult.Threshold, aggResult.StdDev)
	}

	initialMaskDS, err := raster.Create(store.Path("initial_water_detect.tif"),
		bounds.Width, bounds.Height, georef, 0, godal.Byte)
	if err != nil {
		return Result{}, err
	}
	defer initialMaskDS.Close()

	if err := timedStage(metrics, "initial-threshold", func() error {
		return thresholdMask(ctx, bounds, cfg, preprocessedDS, aggResult.Threshold, initialMaskDS)
	}); err != nil {
		return Result{}, err
	}
	reporter.Increment()

	pxX, pxY := raster.MetersPerPixel(georef)

	blobSizesDS, err := raster.Create(store.Path("blob_sizes.tif"),
		bounds.Width, bounds.Height, georef, 0, godal.UInt32)
	if err != nil {
		return Result{}, err
	}
	defer blobSizesDS.Close()

	maxBlobAreaPixels := int((cfg.MaxBlobSizeMeters / pxX) * (cfg.MaxBlobSizeMeters / pxY))
	sizer := blob.Sizer{TileSize: cfg.TileSize, Halo: cfg.TileExpand, MaxBlobSize: maxBlobAreaPixels, Concurrency: cfg.Concurrency}
	if err := timedStage(metrics, "blob-sizing", func() error {
		return sizer.Compute(ctx, bounds, maskDataset{initialMaskDS}, blobSizeWriter{blobSizesDS})
	}); err != nil {
		return Result{}, err
	}
	reporter.Increment()

	demDS, err := raster.WarpDEMToImage(demPath, store.Path("dem_reprojected.tif"), georef, bounds.Width, bounds.Height)
	if err != nil {
		return Result{}, err
	}
	defer demDS.Close()

	waterMean, waterStdDev, err := raster.WaterHeightStats(demDS, maskDataset{initialMaskDS}, bounds, cfg.DEMStatsSubsampleFactor)
	if err != nil {
		return Result{}, err
	}

	demValues, demValid, err := demDS.ReadWindow(bounds)
	if err != nil {
		return Result{}, err
	}
	// Unit x/y spacing per §4.J, not the DEM's ground resolution: the slope
	// channel's surface normal is defined on the pixel grid itself.
	slope, slopeValid := raster.SlopeDegrees(demValues, demValid, bounds.Width, bounds.Height, 1.0, 1.0)

	backscatterMargin := aggResult.StdDev
	if backscatterMargin <= 0 {
		backscatterMargin = (cfg.ProcMax - cfg.ProcMin) * 0.02
	}

	params := FuzzyParams{
		BackscatterLow:  aggResult.Threshold - backscatterMargin,
		BackscatterHigh: aggResult.Threshold + backscatterMargin,
		ElevationLow:    waterMean,
		ElevationHigh:   waterMean + waterStdDev*(waterStdDev+3.5),
		SlopeLow:        0,
		SlopeHigh:       15,
		BlobLow:         (cfg.MinBlobSizeMeters / pxX) * (cfg.MinBlobSizeMeters / pxY),
		BlobHigh:        (cfg.MaxBlobSizeMeters / pxX) * (cfg.MaxBlobSizeMeters / pxY),
	}

	defuzzedDS, err := raster.Create(store.Path("defuzzed_scores.tif"),
		bounds.Width, bounds.Height, georef, -1, godal.Float64)
	if err != nil {
		return Result{}, err
	}
	defer defuzzedDS.Close()

	if err := timedStage(metrics, "fuzzy-fusion", func() error {
		return FuseChannels(ctx, bounds, cfg, params, preprocessedDS, demDS, blobSizesDS, slope, slopeValid, defuzzedDS)
	}); err != nil {
		return Result{}, err
	}
	reporter.Increment()

	outputDS, err := raster.Create(outputPath, bounds.Width, bounds.Height, georef, float64(flood.NODATA), godal.Byte)
	if err != nil {
		return Result{}, err
	}
	defer outputDS.Close()

	floodStage := flood.Stage{
		TileSize:    cfg.TileSize,
		Halo:        cfg.TileExpand,
		High:        cfg.FinalFloodThreshold,
		Low:         cfg.WaterGrowThreshold,
		Concurrency: cfg.Concurrency,
	}
	if err := timedStage(metrics, "flood-fill", func() error {
		return floodStage.Compute(ctx, bounds, defuzzedDataset{defuzzedDS}, classifiedWriter{outputDS})
	}); err != nil {
		return Result{}, err
	}
	reporter.Increment()
	reporter.Finish()

	return Result{
		Threshold:      aggResult,
		SelectedTiles:  selected,
		WaterHeight:    waterMean,
		WaterHeightStd: waterStdDev,
		OutputPath:     outputPath,
	}, nil
}

// selectTiles runs D->F, retrying once with a halved tile size when the
// selector finds no heterogeneous tiles and cfg.RetryOnNoHeterogeneousTiles
// is set (the "open hook, not presently invoked" of §7, exercised here).
func selectTiles(ctx context.Context, cfg Config, src *raster.Dataset, metrics *Metrics) (tile.Grid, *tile.Table, []tile.Selected, int, error) {
	tileSize := cfg.TileSize
	bounds := src.Bounds()

	for attempt := 0; ; attempt++ {
		grid := tile.Divide(bounds, tileSize, true)
		engine := tile.Engine{MinPercentValid: cfg.MinPercentValid, Concurrency: cfg.Concurrency}

		var table *tile.Table
		if err := timedStage(metrics, "tile-statistics", func() error {
			var terr error
			table, terr = engine.Compute(ctx, grid, src)
			return terr
		}); err != nil {
			return nil, nil, nil, 0, err
		}

		selector := tile.Selector{MaxNumTiles: cfg.MaxNumTiles, StdDevPercentileCutoff: cfg.TileStdDevPercentile}
		selected, err := selector.Select(table, grid)
		if err == nil {
			return grid, table, selected, tileSize, nil
		}

		var ferr *ferrors.Error
		if attempt == 0 && cfg.RetryOnNoHeterogeneousTiles && asAlgorithmic(err, &ferr) {
			tileSize /= 2
			if tileSize < 16 {
				return nil, nil, nil, 0, err
			}
			continue
		}
		return nil, nil, nil, 0, err
	}
}

func asAlgorithmic(err error, target **ferrors.Error) bool {
	fe, ok := err.(*ferrors.Error)
	if !ok || fe.Kind != ferrors.Algorithmic {
		return false
	}
	*target = fe
	return true
}

// checkThresholdQA enforces the documented-but-unenforced gates of §9: the
// per-tile threshold stddev and mean, expressed back in the dB domain,
// must stay within the stated bounds.
func checkThresholdQA(res threshold.AggregateResult, cfg Config) error {
	thresholdDB := raster.RescaleLinear(res.Threshold, cfg.ProcMin, cfg.ProcMax, cfg.GlobalMinDB, cfg.GlobalMaxDB)
	scale := (cfg.GlobalMaxDB - cfg.GlobalMinDB) / (cfg.ProcMax - cfg.ProcMin)
	stdDevDB := res.StdDev * scale

	if stdDevDB > 5 {
		return ferrors.New(ferrors.Algorithmic, "threshold-qa",
			"per-tile threshold stddev exceeds 5 dB", map[string]any{"stddev_db": stdDevDB})
	}
	if thresholdDB > 10 {
		return ferrors.New(ferrors.Algorithmic, "threshold-qa",
			"aggregated threshold exceeds 10 dB", map[string]any{"threshold_db": thresholdDB})
	}
	return nil
}

func selectedROIs(selected []tile.Selected) []tile.ROI {
	rois := make([]tile.ROI, len(selected))
	for i, s := range selected {
		rois[i] = s.ROI
	}
	return rois
}

func timedStage(metrics *Metrics, stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	if metrics != nil {
		metrics.StageSeconds.WithLabelValues(stage).Observe(time.Since(start).Seconds())
		var ferr *ferrors.Error
		if err != nil && asAlgorithmic(err, &ferr) {
			metrics.AlgorithmicFails.WithLabelValues(stage).Inc()
		}
	}
	if err != nil {
		return fmt.Errorf("%s: %w", stage, err)
	}
	return nil
}
