package threshold

import (
	"github.com/smartinis/floodmap/internal/ferrors"
	"github.com/smartinis/floodmap/internal/stats"
	"github.com/smartinis/floodmap/internal/tile"
)

// AggregatorHistogramBins is the bin count used for each tile's histogram
// (§4.G: "255-bin histogram").
const AggregatorHistogramBins = 255

// WindowSource reads a pixel window and its validity mask; satisfied by
// internal/raster's dataset adapter.
type WindowSource interface {
	ReadWindow(roi tile.ROI) (values []float64, valid []bool, err error)
}

// AggregateResult is the global threshold aggregator's output (§4.G).
type AggregateResult struct {
	// Threshold is the arithmetic mean of the per-tile thresholds.
	Threshold float64
	// PerTile holds the Kittler-Illingworth result for every tile that
	// succeeded, in the same order as the selected tiles that produced
	// them.
	PerTile []Result
	// StdDev is the population stddev of the per-tile thresholds, surfaced
	// as a diagnostic only — it does not by itself reject the result
	// (§4.G, §9 threshold-quality gates left as a diagnostic hook).
	StdDev float64
}

// Aggregate runs the Kittler-Illingworth optimizer on each selected tile's
// histogram (restricted to the tile ROI, spanning [globalMin, globalMax])
// and reduces the per-tile thresholds to a single scene threshold.
func Aggregate(selected []tile.Selected, src WindowSource, globalMin, globalMax float64) (AggregateResult, error) {
	var thresholds []float64
	var perTile []Result

	for _, sel := range selected {
		values, valid, err := src.ReadWindow(sel.ROI)
		if err != nil {
			return AggregateResult{}, ferrors.Wrap(ferrors.IO, "threshold-aggregator",
				"reading tile window", err, map[string]any{"roi": sel.ROI.String()})
		}

		hist := stats.Histogram(values, valid, AggregatorHistogramBins, globalMin, globalMax)
		res := Optimize(hist, globalMin, globalMax)
		if !res.Ok {
			continue // this tile's contribution is dropped, not fatal by itself
		}
		thresholds = append(thresholds, res.Threshold)
		perTile = append(perTile, res)
	}

	if len(thresholds) == 0 {
		return AggregateResult{}, ferrors.New(ferrors.Algorithmic, "threshold-aggregator",
			"all selected tiles failed Kittler-Illingworth optimization", nil)
	}

	mean, _ := stats.Mean(thresholds, nil)
	sd, _ := stats.StdDev(thresholds, nil)

	return AggregateResult{
		Threshold: mean,
		PerTile:   perTile,
		StdDev:    sd,
	}, nil
}
