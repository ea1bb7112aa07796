package deskew

import (
	"image"

	"github.com/bmharper/cimg/v2"
	"github.com/bmharper/deskew/internal/vision"
	"github.com/bmharper/docangle"
)

// 8-bit grayscale image with stride = Width. 0 is black.
type Image struct {
	Width  int
	Height int
	Pixels []byte
}

func NewImage(width, height int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pixels: make([]byte, width*height),
	}
}

// GrayFromCimg reduces any cimg image to gray
func GrayFromCimg(src *cimg.Image) *Image {
	gray := src
	if gray.Format != cimg.PixelFormatGRAY {
		gray = src.ToGray()
	}
	dst := NewImage(gray.Width, gray.Height)
	for y := 0; y < gray.Height; y++ {
		copy(dst.Pixels[y*gray.Width:(y+1)*gray.Width], gray.Pixels[y*gray.Stride:y*gray.Stride+gray.Width])
	}
	return dst
}

// Remove margin pixels from all four edges
func (img *Image) crop(margin int) *Image {
	w := max(img.Width-2*margin, 0)
	h := max(img.Height-2*margin, 0)
	if w == 0 || h == 0 {
		return NewImage(0, 0)
	}
	return img.sub(margin, margin, w, h)
}

func (img *Image) sub(x0, y0, w, h int) *Image {
	dst := NewImage(w, h)
	for y := 0; y < h; y++ {
		start := (y0+y)*img.Width + x0
		copy(dst.Pixels[y*w:(y+1)*w], img.Pixels[start:start+w])
	}
	return dst
}

func (img *Image) invert() *Image {
	dst := NewImage(img.Width, img.Height)
	for i, v := range img.Pixels {
		dst.Pixels[i] = 255 - v
	}
	return dst
}

// Shrink by an integer factor using cimg's filtered resize
func (img *Image) downsample(factor int) *Image {
	if factor <= 1 {
		return img
	}
	w := max(img.Width/factor, 1)
	h := max(img.Height/factor, 1)
	wrapped := cimg.WrapImage(img.Width, img.Height, cimg.PixelFormatGRAY, img.Pixels)
	resized := cimg.ResizeNew(wrapped, w, h, nil)
	dst := NewImage(resized.Width, resized.Height)
	for y := 0; y < resized.Height; y++ {
		copy(dst.Pixels[y*dst.Width:(y+1)*dst.Width], resized.Pixels[y*resized.Stride:y*resized.Stride+resized.Width])
	}
	return dst
}

func (img *Image) plane() *vision.Plane {
	return vision.PlaneFromBytes(img.Width, img.Height, img.Pixels)
}

func (img *Image) docAngleImage() *docangle.Image {
	return &docangle.Image{
		Pixels: img.Pixels,
		Width:  img.Width,
		Height: img.Height,
	}
}

// Gray returns the image as a standard library gray image, sharing pixels
func (img *Image) Gray() *image.Gray {
	return &image.Gray{
		Pix:    img.Pixels,
		Stride: img.Width,
		Rect:   image.Rect(0, 0, img.Width, img.Height),
	}
}
