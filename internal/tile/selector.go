package tile

import (
	"sort"

	"github.com/smartinis/floodmap/internal/ferrors"
	"github.com/smartinis/floodmap/internal/stats"
)

// MaxNumTilesDefault bounds the number of tiles the selector returns
// (§6 MAX_NUM_TILES).
const MaxNumTilesDefault = 5

// StdDevPercentileCutoffDefault is the percentile used to derive the
// stddev cutoff (§6 TILE_STDDEV_PERCENTILE_CUTOFF).
const StdDevPercentileCutoffDefault = 0.95

// stdDevHistogramBins is the bin count used to approximate the stddev
// percentile cutoff (§4.F step 2: "via 255-bin histogram").
const stdDevHistogramBins = 255

// Selected is one tile chosen as heterogeneous, carrying its grid position
// (needed to recover its ROI) alongside the stats that qualified it.
type Selected struct {
	Row, Col     int
	ROI          ROI
	Mean, StdDev float64
}

// Selector picks up to MaxNumTiles tiles with above-cutoff stddev and
// below-global-mean brightness (§4.F).
type Selector struct {
	MaxNumTiles           int
	StdDevPercentileCutoff float64
}

// Select runs the selection algorithm over a filled statistics table and
// its originating grid. It returns a *ferrors.Error of kind Algorithmic if
// no tile survives the stddev/mean filter.
func (s Selector) Select(table *Table, grid Grid) ([]Selected, error) {
	maxTiles := s.MaxNumTiles
	if maxTiles <= 0 {
		maxTiles = MaxNumTilesDefault
	}
	cutoffPercentile := s.StdDevPercentileCutoff
	if cutoffPercentile <= 0 {
		cutoffPercentile = StdDevPercentileCutoffDefault
	}

	var means, stddevs []float64
	var rows, cols []int
	for r := 0; r < table.Rows(); r++ {
		for c := 0; c < table.Cols(); c++ {
			mean, ok := table.Mean(r, c)
			if !ok {
				continue
			}
			sd, _ := table.StdDev(r, c)
			means = append(means, mean)
			stddevs = append(stddevs, sd)
			rows = append(rows, r)
			cols = append(cols, c)
		}
	}

	globalMean, ok := stats.Mean(means, nil)
	if !ok {
		return nil, ferrors.New(ferrors.Algorithmic, "tile-selector",
			"no valid tiles to select from", nil)
	}

	cutoff, ok := stdDevCutoff(stddevs, cutoffPercentile)
	if !ok {
		return nil, ferrors.New(ferrors.Algorithmic, "tile-selector",
			"no valid tiles to select from", nil)
	}

	var candidates []Selected
	for i := range means {
		if stddevs[i] > cutoff && means[i] < globalMean {
			candidates = append(candidates, Selected{
				Row: rows[i], Col: cols[i],
				ROI:    grid[rows[i]][cols[i]],
				Mean:   means[i],
				StdDev: stddevs[i],
			})
		}
	}

	if len(candidates) == 0 {
		return nil, ferrors.New(ferrors.Algorithmic, "tile-selector",
			"no heterogeneous tiles", map[string]any{
				"global_mean":  globalMean,
				"stddev_cutoff": cutoff,
			})
	}

	if len(candidates) <= maxTiles {
		return candidates, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].StdDev < candidates[j].StdDev
	})
	return candidates[len(candidates)-maxTiles:], nil
}

// stdDevCutoff computes the stddev cutoff as the value at the given
// percentile over a 255-bin histogram spanning [min(stddevs), max(stddevs)]
// (§4.F step 2).
func stdDevCutoff(stddevs []float64, percentile float64) (float64, bool) {
	if len(stddevs) == 0 {
		return 0, false
	}
	min, max := stddevs[0], stddevs[0]
	for _, v := range stddevs {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max <= min {
		return max, true
	}

	hist := stats.Histogram(stddevs, nil, stdDevHistogramBins, min, max)
	bin, ok := stats.Percentile(hist, percentile)
	if !ok {
		return 0, false
	}
	return stats.BinValue(min, max, stdDevHistogramBins, bin), true
}
