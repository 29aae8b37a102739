// Package blob implements the connected-component blob sizer (§4.H): each
// water pixel is replaced by the (clamped) pixel count of the 4-connected
// component it belongs to, using a tile-expansion halo so tiles can be
// sized independently without a cross-tile merge pass.
package blob

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/smartinis/floodmap/internal/tile"
)

// TileExpandDefault is the default halo width in pixels (§6 TILE_EXPAND).
const TileExpandDefault = 256

// MaskSource reads a binary water mask and validity mask for an ROI.
type MaskSource interface {
	ReadMask(roi tile.ROI) (water []bool, valid []bool, err error)
}

// BlockWriter accepts a block-aligned write of clamped blob sizes. Pixels
// outside the water mask, or invalid, hold 0.
type BlockWriter interface {
	WriteBlock(roi tile.ROI, sizes []uint32, valid []bool) error
}

// Sizer computes per-pixel connected-component sizes over a binary water
// mask, tile-parallel with a halo-expansion approximation (§4.H, §9).
type Sizer struct {
	// TileSize is the base (non-expanded) tile stride.
	TileSize int
	// Halo is the expansion applied to each tile before labeling
	// components (default TileExpandDefault).
	Halo int
	// MaxBlobSize clamps reported component sizes.
	MaxBlobSize int
	// Concurrency bounds the number of tiles processed at once. Zero means
	// runtime.NumCPU().
	Concurrency int
}

// Compute labels connected components tile-by-tile (each within its own
// expanded halo) and writes clamped sizes to dst.
func (s Sizer) Compute(ctx context.Context, bounds tile.ROI, src MaskSource, dst BlockWriter) error {
	halo := s.Halo
	if halo <= 0 {
		halo = TileExpandDefault
	}
	tileSize := s.TileSize
	if tileSize <= 0 {
		tileSize = 512
	}
	concurrency := s.Concurrency
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
				return s.computeTile(roi, bounds, halo, src, dst)
			})
		}
	}
	return g.Wait()
}

// computeTile sizes the components touching roi by labeling within an
// expanded window, then emits only the pixels inside roi itself (§4.H
// "components that touch the halo boundary are sized only within the
// expanded tile; this is the documented approximation").
func (s Sizer) computeTile(roi, bounds tile.ROI, halo int, src MaskSource, dst BlockWriter) error {
	expanded := tile.Expand(roi, halo, bounds)

	water, valid, err := src.ReadMask(expanded)
	if err != nil {
		return err
	}

	sizes := labelComponentSizes(water, valid, expanded.Width, expanded.Height, s.MaxBlobSize)

	out := make([]uint32, roi.Width*roi.Height)
	outValid := make([]bool, roi.Width*roi.Height)
	for y := 0; y < roi.Height; y++ {
		for x := 0; x < roi.Width; x++ {
			ex := roi.X + x - expanded.X
			ey := roi.Y + y - expanded.Y
			srcIdx := ey*expanded.Width + ex
			dstIdx := y*roi.Width + x
			if !valid[srcIdx] {
				outValid[dstIdx] = false
				continue
			}
			outValid[dstIdx] = true
			out[dstIdx] = sizes[srcIdx]
		}
	}
	return dst.WriteBlock(roi, out, outValid)
}

// labelComponentSizes runs 4-connected component labeling over a window and
// returns, for every pixel, the clamped size of its component (0 for
// non-water or invalid pixels).
func labelComponentSizes(water, valid []bool, width, height, maxBlobSize int) []uint32 {
	n := width * height
	labels := make([]int32, n)
	for i := range labels {
		labels[i] = -1
	}

	var componentSizes []int
	var stack []int

	for start := 0; start < n; start++ {
		if labels[start] != -1 || !water[start] || !valid[start] {
			continue
		}

		label := int32(len(componentSizes))
		count := 0
		stack = stack[:0]
		stack = append(stack, start)
		labels[start] = label

		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			count++

			x := idx % width
			y := idx / width

			for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || nx >= width || ny < 0 || ny >= height {
					continue
				}
				nIdx := ny*width + nx
				if labels[nIdx] != -1 || !water[nIdx] || !valid[nIdx] {
					continue
				}
				labels[nIdx] = label
				stack = append(stack, nIdx)
			}
		}
		componentSizes = append(componentSizes, count)
	}

	sizes := make([]uint32, n)
	for i, l := range labels {
		if l < 0 {
			continue
		}
		size := componentSizes[l]
		if size > maxBlobSize {
			size = maxBlobSize
		}
		sizes[i] = uint32(size)
	}
	return sizes
}
