package deskew

import (
	"github.com/bmharper/cimg/v2"
	"github.com/bmharper/deskew/internal/geom"
)

// rotate turns img clockwise (as displayed) by degrees about its centre.
// The output has the same size as the input. cimg clamps samples that fall outside the source to the
// nearest edge pixel, so a scan's margin colour is carried into the exposed corners.
func rotate(img *cimg.Image, degrees float64) *cimg.Image {
	dst := cimg.NewImage(img.Width, img.Height, img.Format)
	if img.Width == 0 || img.Height == 0 {
		return dst
	}
	cimg.Rotate(img, dst, degrees*geom.Deg2Rad, nil)
	return dst
}
