// Package encode renders flooddebug preview images from scratch-raster
// pixel buffers: grayscale for continuous channels (the preprocessed
// image, the defuzzed fusion score, blob sizes), a fixed three-color image
// for the final NODATA/LAND/WATER classification, and a Terrarium-style
// elevation ramp for the reprojected DEM.
package encode

import (
	"image"
	"image/png"
	"io"
)

// WritePNG encodes img as a PNG, matching the teacher's
// png.BestSpeed-compressed tile encoding.
func WritePNG(w io.Writer, img image.Image) error {
	enc := &png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, img)
}
