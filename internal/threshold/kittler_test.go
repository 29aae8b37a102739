package threshold

import (
	"math"
	"math/rand"
	"testing"
)

func gaussianHistogram(mu1, sigma1, mu2, sigma2 float64, numBins int, min, max float64) []float64 {
	hist := make([]float64, numBins)
	width := (max - min) / float64(numBins)
	gauss := func(x, mu, sigma float64) float64 {
		d := (x - mu) / sigma
		return math.Exp(-0.5*d*d) / (sigma * math.Sqrt(2*math.Pi))
	}
	for i := 0; i < numBins; i++ {
		x := min + (float64(i)+0.5)*width
		hist[i] = 0.5*gauss(x, mu1, sigma1) + 0.5*gauss(x, mu2, sigma2)
	}
	return hist
}

func TestOptimizeBimodalGaussianMixture(t *testing.T) {
	hist := gaussianHistogram(50, 5, 150, 5, 256, 0, 255)
	res := Optimize(hist, 0, 255)
	if !res.Ok {
		t.Fatal("expected Ok=true for a clearly bimodal histogram")
	}
	if res.Threshold < 95 || res.Threshold > 105 {
		t.Errorf("threshold = %v, want in [95, 105]", res.Threshold)
	}
}

func TestOptimizeScaleInvariantUpToBinWidthHalf(t *testing.T) {
	hist := gaussianHistogram(50, 5, 150, 5, 256, 0, 255)

	scaled := make([]float64, len(hist))
	for i, c := range hist {
		scaled[i] = c * 1000
	}

	r1 := Optimize(hist, 0, 255)
	r2 := Optimize(scaled, 0, 255)

	if !r1.Ok || !r2.Ok {
		t.Fatal("expected both to succeed")
	}
	width := 255.0 / 256.0
	if math.Abs(r1.Threshold-r2.Threshold) > width/2+1e-9 {
		t.Errorf("threshold changed under rescaling: %v vs %v (bin width %v)", r1.Threshold, r2.Threshold, width)
	}
}

func TestOptimizeEmptyHistogram(t *testing.T) {
	hist := make([]float64, 10)
	res := Optimize(hist, 0, 10)
	if res.Ok {
		t.Error("expected Ok=false for all-zero histogram")
	}
}

func TestOptimizeSingleSpikeFails(t *testing.T) {
	// All mass in one bin: every split has one side with zero variance.
	hist := make([]float64, 10)
	hist[5] = 100
	res := Optimize(hist, 0, 10)
	if res.Ok {
		t.Error("expected Ok=false when all mass sits in a single bin")
	}
}

func TestOptimizeTooFewBins(t *testing.T) {
	res := Optimize([]float64{1}, 0, 10)
	if res.Ok {
		t.Error("expected Ok=false for a histogram with fewer than 2 bins")
	}
}

func TestOptimizeDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	hist := make([]float64, 64)
	for i := range hist {
		hist[i] = rng.Float64() * 10
	}
	r1 := Optimize(hist, 0, 64)
	r2 := Optimize(hist, 0, 64)
	if r1 != r2 {
		t.Errorf("Optimize is not deterministic: %+v vs %+v", r1, r2)
	}
}
