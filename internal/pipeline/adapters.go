package pipeline

import (
	"github.com/smartinis/floodmap/internal/raster"
	"github.com/smartinis/floodmap/internal/tile"
)

// maskDataset adapts a *raster.Dataset storing a 0/1-valued float raster to
// the binary-mask contracts that internal/blob and internal/raster's
// WaterHeightStats expect (blob.MaskSource and raster.MaskReader share the
// same ReadMask signature, so one adapter satisfies both).
type maskDataset struct {
	ds *raster.Dataset
}

func (m maskDataset) ReadMask(roi tile.ROI) ([]bool, []bool, error) {
	values, valid, err := m.ds.ReadWindow(roi)
	if err != nil {
		return nil, nil, err
	}
	mask := make([]bool, len(values))
	for i, v := range values {
		mask[i] = v > 0
	}
	return mask, valid, nil
}

// blobSizeWriter adapts a *raster.Dataset to internal/blob's BlockWriter,
// widening clamped component sizes to float64 for the dataset's write path
// (blob_sizes.tif, §6, is created as a UInt32 raster).
type blobSizeWriter struct {
	ds *raster.Dataset
}

func (w blobSizeWriter) WriteBlock(roi tile.ROI, sizes []uint32, valid []bool) error {
	values := make([]float64, len(sizes))
	for i, s := range sizes {
		values[i] = float64(s)
	}
	return w.ds.WriteBlock(roi, values, valid)
}

// defuzzedDataset adapts a *raster.Dataset to internal/flood's
// DefuzzedSource; the fused-score raster is stored and read exactly like
// any other float window.
type defuzzedDataset struct {
	ds *raster.Dataset
}

func (d defuzzedDataset) ReadDefuzzed(roi tile.ROI) ([]float64, []bool, error) {
	return d.ds.ReadWindow(roi)
}

// classifiedWriter adapts a *raster.Dataset to internal/flood's
// ClassifiedWriter, widening the NODATA/LAND/WATER enum into the
// dataset's float buffer (every classified pixel is "valid" in the
// dataset-write sense; NODATA is itself the raster's declared nodata
// value, so it round-trips correctly).
type classifiedWriter struct {
	ds *raster.Dataset
}

func (w classifiedWriter) WriteBlock(roi tile.ROI, classes []uint8) error {
	values := make([]float64, len(classes))
	valid := make([]bool, len(classes))
	for i, c := range classes {
		values[i] = float64(c)
		valid[i] = true
	}
	return w.ds.WriteBlock(roi, values, valid)
}
