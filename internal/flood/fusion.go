// Package flood implements the four-channel fuzzy fusion (veto mean) and
// the tile-parallel two-level flood fill that turns the fused score into a
// final NODATA/LAND/WATER classification (§4.I).
package flood

// NumChannels is the number of fuzzy channels fused per pixel: backscatter,
// elevation, slope, blob size (§4.I).
const NumChannels = 4

// Defuzz combines four fuzzy channel values into a single score as a veto
// mean: if any channel is exactly 0, the output is 0; otherwise the output
// is the arithmetic mean of the four. Invalidity of any channel propagates
// to an invalid output. The result is order-invariant: permuting channels
// does not change it, since both the veto test and the mean are symmetric
// in their inputs.
func Defuzz(channels [NumChannels]float64, valid [NumChannels]bool) (float64, bool) {
	for _, ok := range valid {
		if !ok {
			return 0, false
		}
	}
	for _, c := range channels {
		if c == 0 {
			return 0, true
		}
	}
	var sum float64
	for _, c := range channels {
		sum += c
	}
	return sum / NumChannels, true
}
