// Package geom holds the angle conventions and small numeric helpers shared by the detectors.
//
// All angles are in degrees and describe the tilt of a rule measured counter-clockwise as displayed,
// computed from image coordinates where y grows downward.
package geom

import "math"

const (
	Deg2Rad = math.Pi / 180
	Rad2Deg = 180 / math.Pi
)

// Segment is a line segment in integer pixel coordinates
type Segment struct {
	X0, Y0 int
	X1, Y1 int
}

func (s Segment) DX() int { return s.X1 - s.X0 }
func (s Segment) DY() int { return s.Y1 - s.Y0 }

// Horizontal-leaning segments have a larger x extent than y extent
func (s Segment) Horizontal() bool {
	return abs(s.DX()) > abs(s.DY())
}

// RowAngle is the tilt of a near-horizontal segment.
// The segment direction is flipped so that it moves rightwards.
func RowAngle(s Segment) float64 {
	k := direction(s.X0, s.X1)
	return 0 - math.Atan2(float64(k*s.DY()), float64(k*s.DX()))*Rad2Deg
}

// ColumnAngle is the tilt of a near-vertical segment, relative to vertical.
// The segment direction is flipped so that it moves downwards.
func ColumnAngle(s Segment) float64 {
	k := direction(s.Y0, s.Y1)
	return 90 - math.Atan2(float64(k*s.DY()), float64(k*s.DX()))*Rad2Deg
}

// FallbackAngle classifies a segment as horizontal or vertical leaning and returns its tilt.
// A vertical-leaning segment is turned a quarter with (x, y) -> (y, -x) so that the same
// formula applies. ok is false when the raw angle is exactly zero, which carries no information.
func FallbackAngle(s Segment) (angle float64, ok bool) {
	x0, y0, x1, y1 := s.X0, s.Y0, s.X1, s.Y1
	if !s.Horizontal() {
		x0, y0, x1, y1 = s.Y0, -s.X0, s.Y1, -s.X1
	}
	k := direction(x0, x1)
	a := math.Atan2(float64(k*(y1-y0)), float64(k*(x1-x0))) * Rad2Deg
	if a == 0 {
		return 0, false
	}
	return -a, true
}

// Theta band for the line transform, in radians: count = round(2*half/step) values starting at center-half
func ThetaBand(centerDegrees, halfDegrees, stepDegrees float64) []float64 {
	n := int(math.Round(2 * halfDegrees / stepDegrees))
	thetas := make([]float64, n)
	for i := range n {
		thetas[i] = (centerDegrees - halfDegrees + float64(i)*stepDegrees) * Deg2Rad
	}
	return thetas
}

func direction(a, b int) int {
	if b > a {
		return 1
	}
	return -1
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
