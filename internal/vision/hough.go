package vision

import (
	"math"
	"math/rand/v2"

	"github.com/bmharper/deskew/internal/geom"
)

// HoughParams controls ProbabilisticHough
type HoughParams struct {
	Threshold  int       // Minimum accumulator votes before a line is walked
	LineLength int       // Minimum accepted extent along x or y
	LineGap    int       // Maximum run of unset pixels bridged while walking
	Thetas     []float64 // Normal angles to vote over, in radians
}

const houghShift = 16

// ProbabilisticHough finds line segments in edges using the progressive probabilistic Hough transform.
// Edge pixels are visited in an order shuffled by rng. Each visited pixel votes for every theta, and once
// a bin reaches the threshold the line through that pixel is walked in both directions. Walked pixels are
// removed from the mask, and the votes of an accepted line are withdrawn.
func ProbabilisticHough(edges *Mask, params HoughParams, rng *rand.Rand) []geom.Segment {
	w, h := edges.Width, edges.Height
	nthetas := len(params.Thetas)
	if nthetas == 0 || w == 0 || h == 0 {
		return nil
	}
	ctheta := make([]float64, nthetas)
	stheta := make([]float64, nthetas)
	for i, t := range params.Thetas {
		ctheta[i] = math.Cos(t)
		stheta[i] = math.Sin(t)
	}
	maxDistance := 2 * int(math.Ceil(math.Hypot(float64(w), float64(h))))
	offset := maxDistance / 2
	nrho := maxDistance + 1
	accum := make([]int32, nrho*nthetas)

	mask := make([]bool, len(edges.Bits))
	copy(mask, edges.Bits)

	points := make([][2]int, 0, edges.Count())
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if edges.Bits[y*w+x] {
				points = append(points, [2]int{x, y})
			}
		}
	}
	rng.Shuffle(len(points), func(i, j int) { points[i], points[j] = points[j], points[i] })

	rhoIndex := func(j, x, y int) int {
		return int(math.Round(ctheta[j]*float64(x)+stheta[j]*float64(y))) + offset
	}

	lines := []geom.Segment{}
	var lineEnd [2][2]int

	for _, pt := range points {
		x, y := pt[0], pt[1]
		if !mask[y*w+x] {
			continue
		}

		maxValue := int32(params.Threshold - 1)
		maxTheta := -1
		for j := 0; j < nthetas; j++ {
			idx := rhoIndex(j, x, y)*nthetas + j
			accum[idx]++
			if accum[idx] > maxValue {
				maxValue = accum[idx]
				maxTheta = j
			}
		}
		if maxTheta < 0 {
			continue
		}

		// walk from the point in both directions, using fixed point steps
		a := -stheta[maxTheta]
		b := ctheta[maxTheta]
		x0, y0 := x, y
		var dx0, dy0 int
		xflag := math.Abs(a) > math.Abs(b)
		if xflag {
			dx0 = 1
			if a <= 0 {
				dx0 = -1
			}
			dy0 = int(math.Round(b * (1 << houghShift) / math.Abs(a)))
			y0 = (y0 << houghShift) + (1 << (houghShift - 1))
		} else {
			dy0 = 1
			if b <= 0 {
				dy0 = -1
			}
			dx0 = int(math.Round(a * (1 << houghShift) / math.Abs(b)))
			x0 = (x0 << houghShift) + (1 << (houghShift - 1))
		}
		pos := func(px, py int) (int, int) {
			if xflag {
				return px, py >> houghShift
			}
			return px >> houghShift, py
		}

		for k := 0; k < 2; k++ {
			gap := 0
			px, py := x0, y0
			dx, dy := dx0, dy0
			if k > 0 {
				dx, dy = -dx, -dy
			}
			for {
				x1, y1 := pos(px, py)
				if x1 < 0 || x1 >= w || y1 < 0 || y1 >= h {
					break
				}
				gap++
				if mask[y1*w+x1] {
					gap = 0
					lineEnd[k] = [2]int{x1, y1}
				} else if gap > params.LineGap {
					break
				}
				px += dx
				py += dy
			}
		}

		good := abs(lineEnd[1][1]-lineEnd[0][1]) >= params.LineLength ||
			abs(lineEnd[1][0]-lineEnd[0][0]) >= params.LineLength

		// walk again, clearing the walked pixels from the mask whether or not the line was long enough.
		// Only an accepted line withdraws its votes.
		for k := 0; k < 2; k++ {
			px, py := x0, y0
			dx, dy := dx0, dy0
			if k > 0 {
				dx, dy = -dx, -dy
			}
			for {
				x1, y1 := pos(px, py)
				if mask[y1*w+x1] {
					if good {
						accum[rhoIndex(maxTheta, x1, y1)*nthetas+maxTheta]--
					}
					mask[y1*w+x1] = false
				}
				if x1 == lineEnd[k][0] && y1 == lineEnd[k][1] {
					break
				}
				px += dx
				py += dy
			}
		}

		if good {
			lines = append(lines, geom.Segment{
				X0: lineEnd[0][0], Y0: lineEnd[0][1],
				X1: lineEnd[1][0], Y1: lineEnd[1][1],
			})
		}
	}
	return lines
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
