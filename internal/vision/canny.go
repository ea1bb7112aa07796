package vision

import "math"

const (
	CannyLow  = 0.1
	CannyHigh = 0.2
)

// Canny returns the edge mask of src, smoothed with a Gaussian of the given sigma.
// Thresholds apply to the unnormalized Sobel magnitude of an image in [0,1].
// A one pixel border is never marked.
func Canny(src *Plane, sigma, low, high float64) *Mask {
	w, h := src.Width, src.Height
	edges := NewMask(w, h)
	if w < 3 || h < 3 {
		return edges
	}
	s := Smooth(src, sigma)

	at := func(x, y int) float64 {
		// reflect mode at the border, which for a one pixel overhang is a clamp
		x = min(max(x, 0), w-1)
		y = min(max(y, 0), h-1)
		return s.Pix[y*w+x]
	}

	// isobel is the derivative along y (axis 0), jsobel along x (axis 1)
	isobel := make([]float64, w*h)
	jsobel := make([]float64, w*h)
	mag := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			isobel[i] = (at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)) - (at(x-1, y-1) + 2*at(x, y-1) + at(x+1, y-1))
			jsobel[i] = (at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1)) - (at(x-1, y-1) + 2*at(x-1, y) + at(x-1, y+1))
			mag[i] = math.Hypot(isobel[i], jsobel[i])
		}
	}

	m := func(x, y int) float64 { return mag[y*w+x] }

	lowMask := NewMask(w, h)
	highMask := NewMask(w, h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			v := mag[i]
			if v < low {
				continue
			}
			gi, gj := isobel[i], jsobel[i]
			ai, aj := math.Abs(gi), math.Abs(gj)
			var plus, minus float64
			switch {
			case ((gi >= 0 && gj >= 0) || (gi <= 0 && gj <= 0)) && ai >= aj:
				// 0-45 degrees
				wt := aj / ai
				plus = m(x+1, y+1)*wt + m(x, y+1)*(1-wt)
				minus = m(x-1, y-1)*wt + m(x, y-1)*(1-wt)
			case ((gi >= 0 && gj >= 0) || (gi <= 0 && gj <= 0)) && ai <= aj:
				// 45-90 degrees
				wt := ai / aj
				plus = m(x+1, y+1)*wt + m(x+1, y)*(1-wt)
				minus = m(x-1, y-1)*wt + m(x-1, y)*(1-wt)
			case ((gi <= 0 && gj >= 0) || (gi >= 0 && gj <= 0)) && ai <= aj:
				// 90-135 degrees
				wt := ai / aj
				plus = m(x+1, y-1)*wt + m(x+1, y)*(1-wt)
				minus = m(x-1, y+1)*wt + m(x-1, y)*(1-wt)
			default:
				// 135-180 degrees
				wt := aj / ai
				plus = m(x+1, y-1)*wt + m(x, y-1)*(1-wt)
				minus = m(x-1, y+1)*wt + m(x, y+1)*(1-wt)
			}
			if plus <= v && minus <= v {
				lowMask.Bits[i] = true
				if v >= high {
					highMask.Bits[i] = true
				}
			}
		}
	}

	hysteresis(lowMask, highMask, edges)
	return edges
}

// Keep every 8-connected component of low that touches a pixel of high
func hysteresis(low, high, out *Mask) {
	w, h := low.Width, low.Height
	stack := []int{}
	for i, b := range high.Bits {
		if b && !out.Bits[i] {
			out.Bits[i] = true
			stack = append(stack, i)
		}
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			px, py := p%w, p/w
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := px+dx, py+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					q := ny*w + nx
					if low.Bits[q] && !out.Bits[q] {
						out.Bits[q] = true
						stack = append(stack, q)
					}
				}
			}
		}
	}
}
