// Package tile partitions a raster's bounding box into a fixed-size grid of
// tile ROIs, runs the tiled statistics engine over them in parallel, and
// selects the high-heterogeneity tiles the global threshold is built from.
package tile

import "fmt"

// ROI is an axis-aligned integer bounding box in raster pixel coordinates.
type ROI struct {
	X, Y          int
	Width, Height int
}

// Empty reports whether the ROI has a zero or negative width or height.
func (r ROI) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// String renders the ROI as "(x,y)+wxh" for log messages.
func (r ROI) String() string {
	return fmt.Sprintf("(%d,%d)+%dx%d", r.X, r.Y, r.Width, r.Height)
}

// Grid is a row-major partition of an image ROI into fixed-size tiles.
// Grid[r][c] is the tile at row r, column c; its origin in raster pixel
// coordinates is (image.X + c*size, image.Y + r*size).
type Grid [][]ROI

// Rows returns the number of tile rows.
func (g Grid) Rows() int { return len(g) }

// Cols returns the number of tile columns, or 0 for an empty grid.
func (g Grid) Cols() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// Divide partitions image into a row-major grid of size x size tiles.
//
// If includePartials is true, edge tiles are kept and clipped to the image
// extent (so they may be narrower/shorter than size); if false, a trailing
// partial row or column is dropped entirely.
func Divide(image ROI, size int, includePartials bool) Grid {
	if size <= 0 || image.Empty() {
		return nil
	}

	cols := image.Width / size
	if image.Width%size != 0 {
		cols++
	}
	rows := image.Height / size
	if image.Height%size != 0 {
		rows++
	}
	if !includePartials {
		if image.Width%size != 0 {
			cols--
		}
		if image.Height%size != 0 {
			rows--
		}
	}
	if rows <= 0 || cols <= 0 {
		return nil
	}

	grid := make(Grid, rows)
	for r := 0; r < rows; r++ {
		row := make([]ROI, cols)
		for c := 0; c < cols; c++ {
			x := image.X + c*size
			y := image.Y + r*size
			w := size
			h := size
			if x+w > image.X+image.Width {
				w = image.X + image.Width - x
			}
			if y+h > image.Y+image.Height {
				h = image.Y + image.Height - y
			}
			row[c] = ROI{X: x, Y: y, Width: w, Height: h}
		}
		grid[r] = row
	}
	return grid
}

// Quadrants splits a tile ROI into four equal (integer half-dimension)
// quadrants, used by the tiled statistics engine (§4.E). Odd widths and
// heights give the extra column/row to the right/bottom quadrants.
func Quadrants(roi ROI) [4]ROI {
	hw := roi.Width / 2
	hh := roi.Height / 2
	return [4]ROI{
		{X: roi.X, Y: roi.Y, Width: hw, Height: hh},                           // top-left
		{X: roi.X + hw, Y: roi.Y, Width: roi.Width - hw, Height: hh},          // top-right
		{X: roi.X, Y: roi.Y + hh, Width: hw, Height: roi.Height - hh},         // bottom-left
		{X: roi.X + hw, Y: roi.Y + hh, Width: roi.Width - hw, Height: roi.Height - hh}, // bottom-right
	}
}

// Expand grows roi by halo pixels in every direction, clamped to bounds.
// Used by the blob-sizer and flood-fill tile-expansion approximation
// (§4.H, §4.I, §9 "tile-expansion approximation").
func Expand(roi ROI, halo int, bounds ROI) ROI {
	x0 := roi.X - halo
	y0 := roi.Y - halo
	x1 := roi.X + roi.Width + halo
	y1 := roi.Y + roi.Height + halo

	if x0 < bounds.X {
		x0 = bounds.X
	}
	if y0 < bounds.Y {
		y0 = bounds.Y
	}
	if x1 > bounds.X+bounds.Width {
		x1 = bounds.X + bounds.Width
	}
	if y1 > bounds.Y+bounds.Height {
		y1 = bounds.Y + bounds.Height
	}
	return ROI{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}
