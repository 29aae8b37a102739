// Command floodinfo inspects a raster and prints its tile grid and the
// heterogeneous tiles the selector would pick for thresholding, without
// running the full pipeline, mirroring the teacher's cmd/coginfo.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/smartinis/floodmap/internal/pipeline"
	"github.com/smartinis/floodmap/internal/raster"
	"github.com/smartinis/floodmap/internal/tile"
)

func main() {
	var tileSize int
	var minPercentValid float64
	var maxNumTiles int
	var stdDevCutoff float64

	flag.IntVar(&tileSize, "tile-size", 512, "Grid stride for statistics")
	flag.Float64Var(&minPercentValid, "min-percent-valid", 0.9, "Minimum valid-pixel fraction per quadrant")
	flag.IntVar(&maxNumTiles, "max-num-tiles", 5, "Maximum number of heterogeneous tiles to select")
	flag.Float64Var(&stdDevCutoff, "stddev-percentile-cutoff", 0.95, "Tile stddev percentile cutoff")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: floodinfo [flags] <input.tif>\n\n")
		fmt.Fprintf(os.Stderr, "Inspect a raster's tile grid and heterogeneous-tile selection.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		flag.Usage()
		os.Exit(1)
	}

	ds, err := raster.Open(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %s: %v\n", args[0], err)
		os.Exit(1)
	}
	defer ds.Close()

	bounds := ds.Bounds()
	georef := ds.Georeference()

	fmt.Printf("File: %s\n", args[0])
	fmt.Printf("Size: %d x %d\n", bounds.Width, bounds.Height)
	fmt.Printf("EPSG: %d\n", georef.EPSG)
	fmt.Printf("GeoTransform: %v\n", georef.Transform)

	grid := tile.Divide(bounds, tileSize, true)
	fmt.Printf("\nTile grid: %d rows x %d cols (tile_size=%d)\n", grid.Rows(), grid.Cols(), tileSize)
	fmt.Printf("Total tiles: %d\n", grid.Rows()*grid.Cols())

	engine := tile.Engine{MinPercentValid: minPercentValid}
	table, err := engine.Compute(context.Background(), grid, ds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing tile statistics: %v\n", err)
		os.Exit(1)
	}

	selector := tile.Selector{MaxNumTiles: maxNumTiles, StdDevPercentileCutoff: stdDevCutoff}
	selected, err := selector.Select(table, grid)
	if err != nil {
		fmt.Printf("\nTile selection: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nCandidate heterogeneous tiles: %d\n", len(selected))
	for _, s := range selected {
		fmt.Printf("  (row=%d, col=%d) %s mean=%.2f stddev=%.2f\n", s.Row, s.Col, s.ROI, s.Mean, s.StdDev)
	}

	cfg := pipeline.DefaultConfig()
	cfg.TileSize = tileSize
	if err := cfg.Validate(); err != nil {
		fmt.Printf("\nConfig warning: %v\n", err)
	}
}
