package raster

import (
	"math"

	"github.com/airbusgeo/godal"

	"github.com/smartinis/floodmap/internal/ferrors"
	"github.com/smartinis/floodmap/internal/tile"
)

// Dataset wraps a single-band godal raster opened for reading, exposing the
// windowed-read contract the core pipeline stages consume.
type Dataset struct {
	ds     *godal.Dataset
	band   godal.Band
	nodata float64
	hasNo  bool
	geo    Georeference
	width  int
	height int
}

// Open opens path (any GDAL-readable raster) and returns a single-band
// Dataset over its first band. Returns a *ferrors.Error of kind Input if
// the file is unreadable or carries no georeference.
func Open(path string) (*Dataset, error) {
	ds, err := godal.Open(path)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.Input, "raster", "opening raster", err,
			map[string]any{"path": path})
	}

	gt, err := ds.GeoTransform()
	if err != nil {
		ds.Close()
		return nil, ferrors.Wrap(ferrors.Input, "raster", "missing georeference", err,
			map[string]any{"path": path})
	}

	bands := ds.Bands()
	if len(bands) == 0 {
		ds.Close()
		return nil, ferrors.New(ferrors.Input, "raster", "no raster bands found",
			map[string]any{"path": path})
	}
	band := bands[0]

	structure := ds.Structure()

	epsg := 0
	if srs := ds.SpatialRef(); srs != nil {
		epsg, _ = srs.AuthorityCode()
		srs.Close()
	}

	nodata, hasNo := band.NoData()

	return &Dataset{
		ds:     ds,
		band:   band,
		nodata: nodata,
		hasNo:  hasNo,
		geo:    Georeference{Transform: GeoTransform(gt), EPSG: epsg},
		width:  structure.SizeX,
		height: structure.SizeY,
	}, nil
}

// Close releases the underlying GDAL dataset handle.
func (d *Dataset) Close() error {
	d.ds.Close()
	return nil
}

// Bounds returns the full raster extent as an ROI in pixel coordinates.
func (d *Dataset) Bounds() tile.ROI {
	return tile.ROI{X: 0, Y: 0, Width: d.width, Height: d.height}
}

// Georeference returns the raster's affine transform and EPSG code.
func (d *Dataset) Georeference() Georeference { return d.geo }

// ReadWindow reads a float64 window and validity mask, honoring nodata and
// clipping the ROI to the raster extent (an ROI that extends past the edge
// reads only its in-bounds portion and marks the rest invalid).
func (d *Dataset) ReadWindow(roi tile.ROI) ([]float64, []bool, error) {
	n := roi.Width * roi.Height
	values := make([]float64, n)
	valid := make([]bool, n)

	clipped := tile.Expand(roi, 0, d.Bounds()) // clamps to [0, width) x [0, height)
	if clipped.Empty() {
		return values, valid, nil
	}

	buf := make([]float64, clipped.Width*clipped.Height)
	if err := d.band.Read(clipped.X, clipped.Y, buf, clipped.Width, clipped.Height); err != nil {
		return nil, nil, ferrors.Wrap(ferrors.IO, "raster", "reading raster window", err,
			map[string]any{"roi": roi.String()})
	}

	for y := 0; y < clipped.Height; y++ {
		for x := 0; x < clipped.Width; x++ {
			srcIdx := y*clipped.Width + x
			dstX := clipped.X + x - roi.X
			dstY := clipped.Y + y - roi.Y
			if dstX < 0 || dstX >= roi.Width || dstY < 0 || dstY >= roi.Height {
				continue
			}
			dstIdx := dstY*roi.Width + dstX
			v := buf[srcIdx]
			if d.hasNo && v == d.nodata {
				continue
			}
			values[dstIdx] = v
			valid[dstIdx] = true
		}
	}
	return values, valid, nil
}

// WriteBlock writes a block-aligned float64 window, encoding invalid
// pixels with the dataset's nodata value (or 0 if none is set).
func (d *Dataset) WriteBlock(roi tile.ROI, values []float64, valid []bool) error {
	buf := make([]float64, roi.Width*roi.Height)
	fill := 0.0
	if d.hasNo {
		fill = d.nodata
	}
	for i, v := range values {
		if valid[i] {
			buf[i] = v
		} else {
			buf[i] = fill
		}
	}
	if err := d.band.Write(roi.X, roi.Y, buf, roi.Width, roi.Height); err != nil {
		return ferrors.Wrap(ferrors.IO, "raster", "writing raster block", err,
			map[string]any{"roi": roi.String()})
	}
	return nil
}

// Create creates a new single-band GeoTIFF of data type dtype at path with
// the given extent, georeference and nodata value, ready for block writes
// (WriteBlock takes float64 values whatever the stored type).
func Create(path string, width, height int, geo Georeference, nodata float64, dtype godal.DataType) (*Dataset, error) {
	ds, err := godal.Create(godal.GTiff, path, 1, dtype, width, height)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.IO, "raster", "creating scratch raster", err,
			map[string]any{"path": path})
	}
	if err := ds.SetGeoTransform([6]float64(geo.Transform)); err != nil {
		ds.Close()
		return nil, ferrors.Wrap(ferrors.IO, "raster", "setting georeference", err,
			map[string]any{"path": path})
	}
	band := ds.Bands()[0]
	if err := band.SetNoData(nodata); err != nil {
		ds.Close()
		return nil, ferrors.Wrap(ferrors.IO, "raster", "setting nodata", err,
			map[string]any{"path": path})
	}
	return &Dataset{
		ds: ds, band: band, nodata: nodata, hasNo: true,
		geo: geo, width: width, height: height,
	}, nil
}

// DNToDB converts DN backscatter values to decibels: 10*log10(v) for v > 0,
// invalid otherwise (§6: "Pixel values equal to 0 are treated as invalid
// when converting DN→dB, regardless of nodata declaration").
func DNToDB(dn float64, valid bool) (float64, bool) {
	if !valid || dn <= 0 {
		return 0, false
	}
	return 10 * math.Log10(dn), true
}

// RescaleLinear maps v from [srcMin, srcMax] into [dstMin, dstMax], used by
// the orchestrator to move the dB raster into the processing domain
// (§4.J: PROC_MIN=0, PROC_MAX=400 from global_min=0.0, global_max=35.0).
func RescaleLinear(v, srcMin, srcMax, dstMin, dstMax float64) float64 {
	if srcMax <= srcMin {
		return dstMin
	}
	frac := (v - srcMin) / (srcMax - srcMin)
	return dstMin + frac*(dstMax-dstMin)
}
