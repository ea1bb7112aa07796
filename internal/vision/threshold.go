package vision

import "math"

const otsuBins = 256

// Otsu returns the threshold that maximizes the between-class variance of a 256 bin histogram
// spanning the plane's value range. Foreground is the set of values strictly above the threshold.
func Otsu(p *Plane) float64 {
	if len(p.Pix) == 0 {
		return 0
	}
	lo, hi := p.Pix[0], p.Pix[0]
	for _, v := range p.Pix {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if lo == hi {
		return lo
	}

	hist := make([]float64, otsuBins)
	scale := otsuBins / (hi - lo)
	for _, v := range p.Pix {
		bin := int((v - lo) * scale)
		if bin >= otsuBins {
			bin = otsuBins - 1
		}
		hist[bin]++
	}
	binWidth := (hi - lo) / otsuBins
	centers := make([]float64, otsuBins)
	for i := range centers {
		centers[i] = lo + (float64(i)+0.5)*binWidth
	}

	// class weights and means, from below (1) and from above (2)
	weight1 := make([]float64, otsuBins)
	mean1 := make([]float64, otsuBins)
	weight2 := make([]float64, otsuBins)
	mean2 := make([]float64, otsuBins)
	w, m := 0.0, 0.0
	for i := 0; i < otsuBins; i++ {
		w += hist[i]
		m += hist[i] * centers[i]
		weight1[i] = w
		if w > 0 {
			mean1[i] = m / w
		}
	}
	w, m = 0, 0
	for i := otsuBins - 1; i >= 0; i-- {
		w += hist[i]
		m += hist[i] * centers[i]
		weight2[i] = w
		if w > 0 {
			mean2[i] = m / w
		}
	}

	best := math.Inf(-1)
	bestIdx := 0
	for i := 0; i < otsuBins-1; i++ {
		d := mean1[i] - mean2[i+1]
		v := weight1[i] * weight2[i+1] * d * d
		if v > best {
			best = v
			bestIdx = i
		}
	}
	return centers[bestIdx]
}

// LowContrast reports whether the spread between the lower and upper percentiles of an 8-bit image
// is less than fraction of the full 0..255 range. Percentiles interpolate linearly between samples.
func LowContrast(pixels []byte, fraction, lowerPercentile, upperPercentile float64) bool {
	if len(pixels) == 0 {
		return true
	}
	var hist [256]int
	for _, v := range pixels {
		hist[v]++
	}
	lo := percentile(&hist, len(pixels), lowerPercentile)
	hi := percentile(&hist, len(pixels), upperPercentile)
	return (hi-lo)/255 < fraction
}

func percentile(hist *[256]int, n int, q float64) float64 {
	rank := q / 100 * float64(n-1)
	below := int(math.Floor(rank))
	frac := rank - float64(below)
	a := orderStatistic(hist, below)
	if frac == 0 || below+1 >= n {
		return float64(a)
	}
	b := orderStatistic(hist, below+1)
	return float64(a) + frac*float64(b-a)
}

// value of the k'th smallest sample (zero based)
func orderStatistic(hist *[256]int, k int) int {
	seen := 0
	for v, c := range hist {
		seen += c
		if seen > k {
			return v
		}
	}
	return 255
}
