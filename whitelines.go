package deskew

import (
	"github.com/bmharper/docangle"
)

// whiteLinesAngle asks docangle for a brute force estimate, which works on pages with no rules at all.
// docangle reports a clockwise rotation as positive, so the sign is flipped into our convention.
func whiteLinesAngle(r *region, params *Params) (score, angle float64) {
	p := docangle.NewWhiteLinesParams()
	p.Include90Degrees = false
	p.MinDeltaDegrees = -params.WhiteLinesMaxDegrees
	p.MaxDeltaDegrees = params.WhiteLinesMaxDegrees
	score, degrees := docangle.GetAngleWhiteLines(r.pos.docAngleImage(), p)
	return score, 0 - degrees
}
