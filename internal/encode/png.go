package encode

import "image"

// classifiedColors maps the NODATA/LAND/WATER enum (flood.NODATA,
// flood.LAND, flood.WATER) to preview colors; duplicated here as raw
// uint8 values instead of importing internal/flood, so this package stays
// a leaf renderer with no dependency on the core pipeline.
var classifiedColors = map[uint8][3]uint8{
	0:   {20, 20, 20},    // NODATA
	1:   {139, 115, 85},  // LAND
	255: {40, 120, 220},  // WATER
}

// Grayscale renders a float64 window as an 8-bit grayscale image, linearly
// stretched between the window's own valid min and max; invalid pixels
// render black (the grayscale image has no alpha channel).
func Grayscale(values []float64, valid []bool, width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	if len(values) == 0 {
		return img
	}

	min, max := values[0], values[0]
	any := false
	for i, v := range values {
		if !valid[i] {
			continue
		}
		if !any || v < min {
			min = v
		}
		if !any || v > max {
			max = v
		}
		any = true
	}
	span := max - min
	if span <= 0 {
		span = 1
	}

	for i, v := range values {
		if !valid[i] {
			continue
		}
		frac := (v - min) / span
		img.Pix[i] = uint8(frac * 255)
	}
	return img
}

// Classified renders the NODATA/LAND/WATER enum as a fixed three-color
// RGBA preview.
func Classified(classes []uint8, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, c := range classes {
		rgb, ok := classifiedColors[c]
		if !ok {
			rgb = classifiedColors[0]
		}
		o := i * 4
		img.Pix[o+0] = rgb[0]
		img.Pix[o+1] = rgb[1]
		img.Pix[o+2] = rgb[2]
		img.Pix[o+3] = 255
	}
	return img
}
