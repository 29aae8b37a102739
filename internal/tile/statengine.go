package tile

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/smartinis/floodmap/internal/stats"
)

// MinPercentValidDefault is the default fraction of valid pixels a quadrant
// must have to be kept (§6 MIN_PERCENT_VALID).
const MinPercentValidDefault = 0.9

// WindowSource reads a window of pixel values and their validity mask from
// the preprocessed raster. It is the minimal interface the statistics
// engine needs; internal/raster's dataset adapter satisfies it.
type WindowSource interface {
	ReadWindow(roi ROI) (values []float64, valid []bool, err error)
}

// Table is the tile statistics table of §3: two parallel rasters of size
// (rows, cols) holding per-tile mean-of-sub-means and stddev-of-sub-means,
// indexed consistently as Table[row][col] — row being the tile's Y index,
// col its X index — everywhere in this package and in Selector (§9 open
// question on axis order resolved this way).
type Table struct {
	rows, cols  int
	mean        []float64
	meanValid   []bool
	stddev      []float64
	stddevValid []bool
}

// NewTable allocates an all-invalid table of the given shape.
func NewTable(rows, cols int) *Table {
	n := rows * cols
	return &Table{
		rows:        rows,
		cols:        cols,
		mean:        make([]float64, n),
		meanValid:   make([]bool, n),
		stddev:      make([]float64, n),
		stddevValid: make([]bool, n),
	}
}

func (t *Table) index(row, col int) int { return row*t.cols + col }

// Rows returns the number of tile rows.
func (t *Table) Rows() int { return t.rows }

// Cols returns the number of tile columns.
func (t *Table) Cols() int { return t.cols }

// Mean returns the tile's mean-of-sub-means and whether it is valid.
func (t *Table) Mean(row, col int) (float64, bool) {
	i := t.index(row, col)
	return t.mean[i], t.meanValid[i]
}

// StdDev returns the tile's stddev-of-sub-means and whether it is valid.
func (t *Table) StdDev(row, col int) (float64, bool) {
	i := t.index(row, col)
	return t.stddev[i], t.stddevValid[i]
}

// set writes both outputs for a tile. Each (row, col) is written exactly
// once by a single goroutine, so concurrent calls for distinct cells need
// no synchronization (§5 "tile statistics writes are position-addressed").
func (t *Table) set(row, col int, mean, stddev float64, valid bool) {
	i := t.index(row, col)
	t.mean[i] = mean
	t.meanValid[i] = valid
	t.stddev[i] = stddev
	t.stddevValid[i] = valid
}

// Engine computes per-tile mean and stddev-of-sub-tile-means under a
// minimum-valid-fraction constraint (§4.E).
type Engine struct {
	// MinPercentValid is the fraction of valid pixels a quadrant needs to
	// be kept (default MinPercentValidDefault).
	MinPercentValid float64
	// Concurrency bounds the number of tiles processed at once. Zero means
	// runtime.NumCPU().
	Concurrency int
}

// Compute runs the engine over every tile in grid, reading pixel windows
// from src, and returns the filled statistics table. It blocks until every
// tile has been written exactly once (§4.E "blocking bulk operation").
func (e Engine) Compute(ctx context.Context, grid Grid, src WindowSource) (*Table, error) {
	minValid := e.MinPercentValid
	if minValid <= 0 {
		minValid = MinPercentValidDefault
	}
	concurrency := e.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	table := NewTable(grid.Rows(), grid.Cols())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for r := 0; r < grid.Rows(); r++ {
		for c := 0; c < grid.Cols(); c++ {
			r, c := r, c
			g.Go(func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				mean, stddev, valid, err := computeTileStats(grid[r][c], src, minValid)
				if err != nil {
					return err
				}
				table.set(r, c, mean, stddev, valid)
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return table, nil
}

// computeTileStats implements the per-tile algorithm of §4.E steps 1-5.
func computeTileStats(roi ROI, src WindowSource, minValid float64) (mean, stddev float64, valid bool, err error) {
	quadrants := Quadrants(roi)

	var quadrantMeans []float64
	for _, q := range quadrants {
		if q.Empty() {
			continue
		}
		values, validMask, err := src.ReadWindow(q)
		if err != nil {
			return 0, 0, false, err
		}
		if stats.ValidFraction(validMask) < minValid {
			continue
		}
		qMean, ok := stats.Mean(values, validMask)
		if !ok {
			continue
		}
		quadrantMeans = append(quadrantMeans, qMean)
	}

	if len(quadrantMeans) == 0 {
		return 0, 0, false, nil
	}

	tileMean, _ := stats.Mean(quadrantMeans, nil)
	tileStdDev, _ := stats.StdDev(quadrantMeans, nil)

	if tileMean <= 0 {
		return 0, 0, false, nil
	}
	return tileMean, tileStdDev, true, nil
}
