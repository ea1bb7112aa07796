package deskew

import (
	"context"

	"github.com/bmharper/deskew/internal/geom"
)

// Analyze estimates the skew of one page raster.
// Low contrast pages and pages where no stage finds a line are not errors. They produce a Result with
// an empty angle. The only error is ctx being cancelled, which is checked between stages.
func Analyze(ctx context.Context, path string, page Optional[int], img *Image, params *Params) (Result, error) {
	if params == nil {
		params = NewParams()
	}
	log := params.Log
	res := Result{
		Path:   path,
		Page:   page,
		Width:  img.Width,
		Height: img.Height,
		Method: MethodNone,
	}
	log.Debug().Int("width", img.Width).Int("height", img.Height).Msg("analysing")

	r := selectRegion(img, params)
	if r == nil {
		log.Debug().Msg("low contrast - blank page?")
		res.Method = MethodLowContrast
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	debug := newDebugSink(path, page, params)

	h := detectAxis(r, rowAxis, params)
	if err := ctx.Err(); err != nil {
		return res, err
	}
	v := detectAxis(r, columnAxis, params)

	switch {
	case len(h.angles) > 0 && h.peak > v.peak:
		angle := geom.Median(h.angles)
		res.Angle = Some(angle)
		res.Variance = Some(geom.Variance(h.angles))
		res.Method = MethodRows
		debug.plane(angleTag(angle)+"_hlines", h.overlay)
		log.Debug().Float64("angle", angle).Int("lines", len(h.angles)).Msg("Hough H angle (median)")
		return res, nil
	case len(v.angles) > 0:
		angle := geom.Median(v.angles)
		res.Angle = Some(angle)
		res.Variance = Some(geom.Variance(v.angles))
		res.Method = MethodColumns
		debug.plane(angleTag(angle)+"_vlines", v.overlay)
		log.Debug().Float64("angle", angle).Int("lines", len(v.angles)).Msg("Hough V angle (median)")
		return res, nil
	}

	debug.plane("no_hlines", h.overlay)
	debug.plane("no_vlines", v.overlay)
	log.Debug().Msg("failed peak sum Hough H/V")
	if err := ctx.Err(); err != nil {
		return res, err
	}

	f := detectFallback(r, params)
	if len(f.angles) > 0 {
		angle := geom.Mean(f.angles)
		res.Angle = Some(angle)
		if len(f.angles) > 1 {
			res.Variance = Some(geom.Variance(f.angles))
		}
		res.Method = MethodFallback
		debug.plane(angleTag(angle)+"_lines_vertical", f.overlay)
		debug.mask(angleTag(angle)+"_lines_verticaldilated", f.dilated)
		log.Debug().Float64("angle", angle).Float64("median", geom.Median(f.angles)).Msg("Hough angle V (mean)")
		return res, nil
	}
	debug.mask("dilated", f.dilated)
	debug.plane("dilate_edges_grey", f.overlay)
	debug.mask("dilate_edges", f.edges)
	log.Debug().Msg("failed dilated Hough V")

	if params.WhiteLines {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		score, angle := whiteLinesAngle(r, params)
		res.Angle = Some(angle)
		res.Method = MethodWhiteLines
		log.Debug().Float64("angle", angle).Float64("score", score).Msg("white lines angle")
	}
	return res, nil
}

// AnalyzeUnit loads the raster of u and analyses it.
// A unit that cannot be loaded yields a failed Result along with the error.
func AnalyzeUnit(ctx context.Context, u Unit, params *Params) (Result, error) {
	if params == nil {
		params = NewParams()
	}
	raster, err := LoadUnit(u)
	if err != nil {
		return Result{Path: u.Path, Page: u.Page, Method: MethodFailed}, err
	}
	return Analyze(ctx, u.Path, u.Page, GrayFromCimg(raster.Image), params)
}
