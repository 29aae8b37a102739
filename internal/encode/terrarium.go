package encode

import (
	"image"
	"image/color"
	"math"
)

// ElevationImage renders a DEM window as a Terrarium-encoded RGBA image
// (flooddebug's preview for dem_reprojected.tif); invalid pixels render
// transparent.
func ElevationImage(values []float64, valid []bool, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, v := range values {
		var c color.RGBA
		if valid[i] {
			c = ElevationToTerrarium(v)
		}
		o := i * 4
		img.Pix[o+0] = c.R
		img.Pix[o+1] = c.G
		img.Pix[o+2] = c.B
		img.Pix[o+3] = c.A
	}
	return img
}

// ElevationToTerrarium converts a float64 elevation value to Terrarium RGB.
// Terrarium formula: elevation = (R * 256 + G + B / 256) - 32768
// Range: approximately -32768 to +32767.996 meters.
func ElevationToTerrarium(elevation float64) color.RGBA {
	if math.IsNaN(elevation) || math.IsInf(elevation, 0) {
		return color.RGBA{0, 0, 0, 0} // nodata → transparent
	}

	value := elevation + 32768.0

	// Clamp to valid range.
	if value < 0 {
		value = 0
	}
	if value > 65535.996 {
		value = 65535.996
	}

	// R = floor(value / 256)
	rVal := int(value / 256)
	if rVal > 255 {
		rVal = 255
	}
	if rVal < 0 {
		rVal = 0
	}

	// G = floor(value - R * 256)
	remainder := value - float64(rVal)*256.0
	gVal := int(remainder)
	if gVal > 255 {
		gVal = 255
	}
	if gVal < 0 {
		gVal = 0
	}

	// B = floor((value - R * 256 - G) * 256)
	bVal := int((remainder - float64(gVal)) * 256.0)
	if bVal > 255 {
		bVal = 255
	}
	if bVal < 0 {
		bVal = 0
	}

	return color.RGBA{R: uint8(rVal), G: uint8(gVal), B: uint8(bVal), A: 255}
}
