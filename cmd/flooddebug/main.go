// Command flooddebug dumps one scratch or output raster from a pipeline
// run to a PNG preview for visual inspection, mirroring the teacher's
// cmd/debug.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/smartinis/floodmap/internal/encode"
	"github.com/smartinis/floodmap/internal/raster"
)

func main() {
	var kind, outPath string

	flag.StringVar(&kind, "kind", "grayscale", "Preview rendering: grayscale, classified, elevation")
	flag.StringVar(&outPath, "out", "", "Output PNG path (default: <input>.png)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: flooddebug [flags] <raster.tif>\n\n")
		fmt.Fprintf(os.Stderr, "Render a scratch or output raster as a PNG preview.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		flag.Usage()
		os.Exit(1)
	}
	inPath := args[0]
	if outPath == "" {
		outPath = inPath + ".png"
	}

	ds, err := raster.Open(inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %s: %v\n", inPath, err)
		os.Exit(1)
	}
	defer ds.Close()

	bounds := ds.Bounds()
	values, valid, err := ds.ReadWindow(bounds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", inPath, err)
		os.Exit(1)
	}

	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", outPath, err)
		os.Exit(1)
	}
	defer out.Close()

	switch kind {
	case "grayscale":
		err = encode.WritePNG(out, encode.Grayscale(values, valid, bounds.Width, bounds.Height))
	case "classified":
		classes := make([]uint8, len(values))
		for i, v := range values {
			classes[i] = uint8(v)
		}
		err = encode.WritePNG(out, encode.Classified(classes, bounds.Width, bounds.Height))
	case "elevation":
		err = encode.WritePNG(out, encode.ElevationImage(values, valid, bounds.Width, bounds.Height))
	default:
		fmt.Fprintf(os.Stderr, "Unknown -kind %q (supported: grayscale, classified, elevation)\n", kind)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding preview: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %s (%dx%d, kind=%s)\n", outPath, bounds.Width, bounds.Height, kind)
}
