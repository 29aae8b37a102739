package raster

import (
	"math"
	"strconv"

	"github.com/airbusgeo/godal"

	"github.com/smartinis/floodmap/internal/ferrors"
	"github.com/smartinis/floodmap/internal/stats"
	"github.com/smartinis/floodmap/internal/tile"
)

// DEMNoDataDefault is the DEM nodata sentinel used when the source raster
// does not declare one (§6).
const DEMNoDataDefault = -3.4028234663852886e+38

// WarpDEMToImage reprojects demPath into the preprocessed image's pixel
// grid (same width, height, and georeference), writing the result as a
// scratch raster at outPath, and returns it opened for reading. This is
// the "reproject DEM into preprocessed-image coordinate space" step of
// §4.J, implemented via godal's Warp (the out-of-scope reprojection
// collaborator; the core only ever sees the resulting Dataset through the
// WindowReader interface).
func WarpDEMToImage(demPath, outPath string, target Georeference, width, height int) (*Dataset, error) {
	src, err := godal.Open(demPath)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.Input, "raster", "opening DEM", err,
			map[string]any{"path": demPath})
	}
	defer src.Close()

	// Target extent from the image's affine transform, assuming a north-up,
	// non-rotated grid (as MetersPerPixel does).
	gt := target.Transform
	xMin, yMax := gt[0], gt[3]
	xMax, yMin := gt[0]+float64(width)*gt[1], gt[3]+float64(height)*gt[5]
	ftoa := func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
	opts := []string{
		"-te", ftoa(xMin), ftoa(yMin), ftoa(xMax), ftoa(yMax),
		"-ts", itoa(width), itoa(height),
		"-r", "bilinear",
	}
	if target.EPSG != 0 {
		opts = append(opts, "-t_srs", "EPSG:"+itoa(target.EPSG))
	}
	warped, err := src.Warp(outPath, opts)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.IO, "raster", "reprojecting DEM", err,
			map[string]any{"dem": demPath, "out": outPath})
	}
	warped.Close()

	return Open(outPath)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// WaterHeightStats computes the mean and population stddev of DEM values
// under the initial water mask, subsampled by sampleEvery pixels in both
// dimensions (§4.J "downsampled 10x"; §9 resolves the source's swapped
// mean/stddev naming — this function returns them in the corrected order).
func WaterHeightStats(dem WindowReader, water MaskReader, bounds tile.ROI, sampleEvery int) (meanHeight, stddevHeight float64, err error) {
	if sampleEvery <= 0 {
		sampleEvery = 1
	}

	var heights []float64
	for y := bounds.Y; y < bounds.Y+bounds.Height; y += sampleEvery {
		roi := tile.ROI{X: bounds.X, Y: y, Width: bounds.Width, Height: 1}
		demValues, demValid, derr := dem.ReadWindow(roi)
		if derr != nil {
			return 0, 0, derr
		}
		waterMask, waterValid, werr := water.ReadMask(roi)
		if werr != nil {
			return 0, 0, werr
		}
		for x := 0; x < bounds.Width; x += sampleEvery {
			if !demValid[x] || !waterValid[x] || !waterMask[x] {
				continue
			}
			heights = append(heights, demValues[x])
		}
	}

	mean, ok := stats.Mean(heights, nil)
	if !ok {
		return 0, 0, ferrors.New(ferrors.Algorithmic, "dem-stats",
			"no valid DEM samples under the initial water mask", nil)
	}
	sd, _ := stats.StdDev(heights, nil)
	return mean, sd, nil
}

// MaskReader reads a binary mask and its validity for an ROI; satisfied by
// internal/blob's consumers and reused here for DEM water-height sampling.
type MaskReader interface {
	ReadMask(roi tile.ROI) (mask []bool, valid []bool, err error)
}

// SlopeDegrees computes the terrain slope angle (degrees from horizontal,
// 0 on flat terrain) for
// every interior pixel of a DEM window using unit x/y pixel spacing: the
// surface normal n = (-dz/dx, -dz/dy, 1) via central differences, and
// slope = acos(|n . z-hat|) * 180/pi (§4.J). Edge pixels, where a centered
// difference is unavailable, are marked invalid.
func SlopeDegrees(dem []float64, valid []bool, width, height int, pixelSizeX, pixelSizeY float64) ([]float64, []bool) {
	slope := make([]float64, width*height)
	slopeValid := make([]bool, width*height)

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			left, right := i-1, i+1
			up, down := i-width, i+width

			if !valid[i] || !valid[left] || !valid[right] || !valid[up] || !valid[down] {
				continue
			}

			dzdx := (dem[right] - dem[left]) / (2 * pixelSizeX)
			dzdy := (dem[down] - dem[up]) / (2 * pixelSizeY)

			nx, ny, nz := -dzdx, -dzdy, 1.0
			norm := math.Sqrt(nx*nx + ny*ny + nz*nz)
			cosAngle := math.Abs(nz / norm)
			if cosAngle > 1 {
				cosAngle = 1
			}

			slope[i] = math.Acos(cosAngle) * 180 / math.Pi
			slopeValid[i] = true
		}
	}
	return slope, slopeValid
}

// MetersPerPixel derives the ground resolution from a georeference's
// affine transform, assuming a non-rotated grid.
func MetersPerPixel(geo Georeference) (x, y float64) {
	return math.Abs(geo.Transform[1]), math.Abs(geo.Transform[5])
}
