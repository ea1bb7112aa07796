//go:build !gocv

package deskew

import "github.com/bmharper/deskew/internal/vision"

func defaultPrimitives() Primitives {
	return vision.NewToolkit()
}
