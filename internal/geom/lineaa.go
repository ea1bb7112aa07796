package geom

import "math"

// AAPixel is one pixel of an anti-aliased line, with coverage in [0,1]
type AAPixel struct {
	X, Y  int
	Value float64
}

// LineAA rasterizes an anti-aliased line from (x0,y0) to (x1,y1).
// Pixels immediately beside the ideal line are emitted with partial coverage,
// so the result may include coordinates one pixel outside the endpoints' bounding box.
func LineAA(x0, y0, x1, y1 int) []AAPixel {
	dx := abs(x1 - x0)
	dy := abs(y1 - y0)
	err := dx - dy
	ed := 1.0
	if dx+dy != 0 {
		ed = math.Hypot(float64(dx), float64(dy))
	}
	sx := direction(x0, x1)
	sy := direction(y0, y1)

	out := []AAPixel{}
	emit := func(x, y int, coverage float64) {
		out = append(out, AAPixel{X: x, Y: y, Value: 1 - coverage})
	}

	x, y := x0, y0
	for {
		emit(x, y, math.Abs(float64(err-dx+dy))/ed)
		e := err
		xPrev := x
		if 2*e >= -dx {
			if x == x1 {
				break
			}
			if float64(e+dy) < ed {
				emit(x, y+sy, math.Abs(float64(e+dy))/ed)
			}
			err -= dy
			x += sx
		}
		if 2*e <= dy {
			if y == y1 {
				break
			}
			if float64(dx-e) < ed {
				emit(xPrev+sx, y, math.Abs(float64(dx-e))/ed)
			}
			err += dx
			y += sy
		}
	}
	return out
}
