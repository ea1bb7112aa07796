package vision

import "math"

// Kernel radius matches scipy's default truncate of 4 standard deviations
func gaussianKernel(sigma float64) []float64 {
	radius := int(4*sigma + 0.5)
	k := make([]float64, 2*radius+1)
	sum := 0.0
	for i := range k {
		d := float64(i - radius)
		k[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// Smooth applies a Gaussian blur with zero padding, then divides out the weight that bled
// over the image border, so that flat regions stay flat right up to the edge.
func Smooth(src *Plane, sigma float64) *Plane {
	if sigma <= 0 {
		dst := NewPlane(src.Width, src.Height)
		copy(dst.Pix, src.Pix)
		return dst
	}
	k := gaussianKernel(sigma)
	r := len(k) / 2
	w, h := src.Width, src.Height

	// in-bounds kernel weight for every column and row
	wx := borderWeights(k, w)
	wy := borderWeights(k, h)

	tmp := NewPlane(w, h)
	for y := 0; y < h; y++ {
		row := src.Pix[y*w : (y+1)*w]
		out := tmp.Pix[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			sum := 0.0
			for i, kv := range k {
				sx := x + i - r
				if sx >= 0 && sx < w {
					sum += kv * row[sx]
				}
			}
			out[x] = sum
		}
	}

	dst := NewPlane(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum := 0.0
			for i, kv := range k {
				sy := y + i - r
				if sy >= 0 && sy < h {
					sum += kv * tmp.Pix[sy*w+x]
				}
			}
			dst.Pix[y*w+x] = sum / (wx[x]*wy[y] + 1e-12)
		}
	}
	return dst
}

func borderWeights(k []float64, n int) []float64 {
	r := len(k) / 2
	out := make([]float64, n)
	for p := 0; p < n; p++ {
		for i, kv := range k {
			q := p + i - r
			if q >= 0 && q < n {
				out[p] += kv
			}
		}
	}
	return out
}
