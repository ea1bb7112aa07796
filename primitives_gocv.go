//go:build gocv

package deskew

import "github.com/bmharper/deskew/internal/vision"

// OpenCV edges, dilation and thresholding, with the pure Go Hough transform
func defaultPrimitives() Primitives {
	return vision.NewCVToolkit()
}
