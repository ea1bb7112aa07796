package deskew

import (
	"github.com/bmharper/deskew/internal/geom"
	"github.com/bmharper/deskew/internal/vision"
)

type axis int

const (
	rowAxis    axis = iota // Horizontal rules, found around the peak row
	columnAxis             // Vertical rules, found around the peak column
)

func (a axis) String() string {
	if a == rowAxis {
		return "row"
	}
	return "column"
}

type axisResult struct {
	angles  []float64
	peak    int64         // Ink mass at the peak row or column
	overlay *vision.Plane // Only when debugging
}

// detectAxis looks for rules in a strip around the ink peak of one axis.
// Edges are found and dilated inside the strip only, because dilation that reaches the real page
// edges creates spurious 0 and 90 degree lines.
func detectAxis(r *region, a axis, params *Params) axisResult {
	prims := params.Primitives
	pos := r.pos
	var strip *Image
	var length int
	var thetas []float64
	var peak int64
	if a == rowAxis {
		y0 := max(r.peakRow-params.WindowSize, 0)
		y1 := min(r.peakRow+params.WindowSize, pos.Height)
		strip = pos.sub(0, y0, pos.Width, y1-y0)
		length = int(float64(pos.Width) * params.StripLineFraction)
		thetas = params.rowThetas()
		peak = r.rowPeak
	} else {
		x0 := max(r.peakCol-params.WindowSize, 0)
		x1 := min(r.peakCol+params.WindowSize, pos.Width)
		strip = pos.sub(x0, 0, x1-x0, pos.Height)
		length = int(float64(pos.Height) * params.StripLineFraction)
		thetas = params.columnThetas()
		peak = r.colPeak
	}

	edges := prims.Dilate(prims.Edges(strip.plane(), params.StripSigma), vision.Cross)
	segments := prims.Lines(edges, length, params.StripLineGap, thetas)

	res := axisResult{peak: peak}
	for _, s := range segments {
		if a == rowAxis {
			res.angles = append(res.angles, geom.RowAngle(s))
		} else {
			res.angles = append(res.angles, geom.ColumnAngle(s))
		}
	}
	if params.Debug {
		res.overlay = overlay(edges, segments)
	}
	params.Log.Debug().Str("axis", a.String()).Int("segments", len(segments)).Int64("peak", peak).Msg("strip lines")
	return res
}
