package vision

import (
	"math/rand/v2"

	"github.com/bmharper/deskew/internal/geom"
)

// Toolkit bundles the primitives with fixed Canny thresholds and a deterministic Hough shuffle.
// It is safe for concurrent use.
type Toolkit struct {
	Seed           uint64 // Seed of the Hough point shuffle. Every call restarts from this seed.
	HoughThreshold int    // Accumulator votes needed before a line is walked
}

func NewToolkit() *Toolkit {
	return &Toolkit{
		Seed:           1,
		HoughThreshold: 10,
	}
}

func (t *Toolkit) Edges(p *Plane, sigma float64) *Mask {
	return Canny(p, sigma, CannyLow, CannyHigh)
}

func (t *Toolkit) Lines(edges *Mask, lineLength, lineGap int, thetas []float64) []geom.Segment {
	rng := rand.New(rand.NewPCG(t.Seed, t.Seed^0x9e3779b97f4a7c15))
	return ProbabilisticHough(edges, HoughParams{
		Threshold:  t.HoughThreshold,
		LineLength: lineLength,
		LineGap:    lineGap,
		Thetas:     thetas,
	}, rng)
}

func (t *Toolkit) Dilate(m *Mask, se Element) *Mask {
	return Dilate(m, se)
}

func (t *Toolkit) Threshold(p *Plane) float64 {
	return Otsu(p)
}
