package tile

import (
	"errors"
	"testing"

	"github.com/smartinis/floodmap/internal/ferrors"
)

func buildTable(rows, cols int, means, stddevs [][]float64, valid [][]bool) *Table {
	table := NewTable(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if valid[r][c] {
				table.set(r, c, means[r][c], stddevs[r][c], true)
			}
		}
	}
	return table
}

func uniformGrid(rows, cols, size int) Grid {
	return Divide(ROI{X: 0, Y: 0, Width: cols * size, Height: rows * size}, size, true)
}

func TestSelectorPicksHeterogeneousBelowMeanTiles(t *testing.T) {
	// 2x2 grid: one tile high-stddev/low-mean (candidate), rest homogeneous.
	means := [][]float64{{100, 100}, {100, 10}}
	stddevs := [][]float64{{1, 1}, {1, 50}}
	valid := [][]bool{{true, true}, {true, true}}

	table := buildTable(2, 2, means, stddevs, valid)
	grid := uniformGrid(2, 2, 16)

	got, err := Selector{}.Select(table, grid)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(got) != 1 || got[0].Row != 1 || got[0].Col != 1 {
		t.Fatalf("got %+v, want the single (1,1) candidate", got)
	}
}

func TestSelectorNoHeterogeneousTilesIsAlgorithmicError(t *testing.T) {
	// Checkerboard scenario: high stddev everywhere, but no tile mean is
	// below the (equal) global mean, so the candidate set is empty.
	means := [][]float64{{100, 100}, {100, 100}}
	stddevs := [][]float64{{50, 50}, {50, 50}}
	valid := [][]bool{{true, true}, {true, true}}

	table := buildTable(2, 2, means, stddevs, valid)
	grid := uniformGrid(2, 2, 16)

	_, err := Selector{}.Select(table, grid)
	if err == nil {
		t.Fatal("expected an error when the candidate set is empty")
	}
	var ferr *ferrors.Error
	if !errors.As(err, &ferr) || ferr.Kind != ferrors.Algorithmic {
		t.Fatalf("err = %v, want *ferrors.Error of kind Algorithmic", err)
	}
}

func TestSelectorCapsAtMaxTilesKeepingHighestStdDev(t *testing.T) {
	rows, cols := 1, 9
	means := make([][]float64, rows)
	stddevs := make([][]float64, rows)
	valid := make([][]bool, rows)
	means[0] = make([]float64, cols)
	stddevs[0] = make([]float64, cols)
	valid[0] = make([]bool, cols)
	for c := 0; c < 8; c++ {
		means[0][c] = 10 // below the global mean of 120 computed below
		stddevs[0][c] = float64(c + 1)
		valid[0][c] = true
	}
	// One bright, low-stddev tile lifts the global mean to (8*10+1000)/9 =
	// 120 and sets the stddev cutoff to its own 0.5, so it is not a
	// candidate itself while all 8 dark tiles are.
	means[0][8] = 1000
	stddevs[0][8] = 0.5
	valid[0][8] = true

	table := buildTable(rows, cols, means, stddevs, valid)
	grid := uniformGrid(rows, cols, 16)

	got, err := Selector{MaxNumTiles: 5, StdDevPercentileCutoff: 0.01}.Select(table, grid)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("len(got) = %d, want 5 (MAX_NUM_TILES cap)", len(got))
	}
	// The kept tiles must be the 5 highest-stddev ones: columns 3..7 (stddev 4..8).
	for _, s := range got {
		if s.StdDev < 4 {
			t.Errorf("kept tile with stddev %v, want only the top-5 highest stddev tiles", s.StdDev)
		}
	}
}
