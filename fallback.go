package deskew

import (
	"github.com/bmharper/deskew/internal/geom"
	"github.com/bmharper/deskew/internal/vision"
)

type fallbackResult struct {
	angles  []float64
	dilated *vision.Mask
	edges   *vision.Mask
	overlay *vision.Plane // Only when debugging
}

// detectFallback runs when neither strip found a rule. It dilates the whole (downsampled) page hard
// enough to fuse the ink into blobs whose outlines follow the margins, and reads their edges with
// both orientation bands at once.
func detectFallback(r *region, params *Params) fallbackResult {
	prims := params.Primitives
	small := r.neg.downsample(params.FallbackScale).plane()
	t := prims.Threshold(small)
	mask := vision.NewMask(small.Width, small.Height)
	for i, v := range small.Pix {
		mask.Bits[i] = v > t
	}
	dilated := prims.Dilate(mask, vision.Rect(params.FallbackKernel, params.FallbackKernel))
	edges := prims.Edges(dilated.Plane(), params.FallbackSigma)
	length := int(float64(r.pageHeight) * params.FallbackLineFraction)
	segments := prims.Lines(edges, length, params.FallbackLineGap, params.allThetas())

	res := fallbackResult{
		dilated: dilated,
		edges:   edges,
	}
	kept := []geom.Segment{}
	for _, s := range segments {
		// A zero angle is more likely the dilation touching the crop boundary than a real rule
		if a, ok := geom.FallbackAngle(s); ok {
			res.angles = append(res.angles, a)
			kept = append(kept, s)
		}
	}
	if params.Debug {
		res.overlay = overlay(edges, kept)
	}
	params.Log.Debug().Int("segments", len(segments)).Int("kept", len(kept)).Float64("threshold", t).Msg("fallback lines")
	return res
}
