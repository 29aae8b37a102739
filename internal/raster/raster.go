// Package raster is the external-collaborator boundary of spec.md §1: it
// owns georeferenced raster I/O, reprojection, and coordinate transforms so
// the core pipeline (internal/stats, threshold, tile, blob, flood) can stay
// free of any raster I/O library and consume only the small windowed-read
// and block-write interfaces each stage already defines for itself.
//
// The concrete implementation wraps github.com/airbusgeo/godal, following
// the geotransform and band-read conventions of Klaus-Tockloth's
// dtm-elevation-service.
package raster

import "github.com/smartinis/floodmap/internal/tile"

// GeoTransform is GDAL's six-parameter affine transform:
//
//	X = GT[0] + col*GT[1] + row*GT[2]
//	Y = GT[3] + col*GT[4] + row*GT[5]
type GeoTransform [6]float64

// ColRowToCoord maps a pixel (col, row) to CRS coordinates.
func (gt GeoTransform) ColRowToCoord(col, row float64) (x, y float64) {
	x = gt[0] + col*gt[1] + row*gt[2]
	y = gt[3] + col*gt[4] + row*gt[5]
	return
}

// Georeference bundles a raster's affine transform and spatial reference
// identifier.
type Georeference struct {
	Transform GeoTransform
	EPSG      int
}

// WindowReader performs a windowed read of float64 pixel values and their
// validity mask from a raster, honoring nodata. Every stage in the core
// pipeline that reads pixels depends only on this interface (or a narrower
// one shaped like it), never on a concrete raster library.
type WindowReader interface {
	ReadWindow(roi tile.ROI) (values []float64, valid []bool, err error)
}

// BlockWriter performs a block-aligned write of float64 pixel values and
// their validity mask to a raster.
type BlockWriter interface {
	WriteBlock(roi tile.ROI, values []float64, valid []bool) error
	Close() error
}

// Transform maps between the preprocessed SAR image's pixel grid and the
// DEM's pixel grid. spec.md §4.J requires the DEM to be reprojected into
// the preprocessed-image coordinate space before the elevation and slope
// channels are evaluated. No type in this package implements it: the
// pipeline instead warps the whole DEM onto the image grid with
// WarpDEMToImage (godal Warp) and reads the result as a Dataset.
type Transform interface {
	// ImageToDEM maps an (x, y) pixel coordinate in the preprocessed image
	// to the corresponding (col, row) pixel coordinate in the DEM.
	ImageToDEM(x, y float64) (col, row float64)
}
