package deskew

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bmharper/cimg/v2"
	"github.com/bmharper/deskew/internal/geom"
	"github.com/bmharper/deskew/internal/vision"
	"github.com/stretchr/testify/require"
)

// ruledPage draws three thick horizontal rules on a white page
func ruledPage(width, height int) *cimg.Image {
	img := cimg.NewImage(width, height, cimg.PixelFormatGRAY)
	for i := range img.Pixels {
		img.Pixels[i] = 255
	}
	for _, row := range []int{height / 4, height / 2, height * 3 / 4} {
		for y := row - 1; y <= row+1; y++ {
			for x := width / 10; x < width-width/10; x++ {
				img.Pixels[y*img.Stride+x] = 0
			}
		}
	}
	return img
}

func blankPage(width, height int) *cimg.Image {
	img := cimg.NewImage(width, height, cimg.PixelFormatGRAY)
	for i := range img.Pixels {
		img.Pixels[i] = 250
	}
	return img
}

func writeImageFile(t *testing.T, dir, name string, img *cimg.Image, mime string) string {
	raw, err := EncodeRaster(img, mime, 90)
	require.NoError(t, err)
	filename := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(filename, raw, 0644))
	return filename
}

// fakePrimitives returns canned segments, chosen by the theta band being searched
type fakePrimitives struct {
	rows     []geom.Segment
	columns  []geom.Segment
	fallback []geom.Segment
	calls    int
}

func (f *fakePrimitives) Edges(p *vision.Plane, sigma float64) *vision.Mask {
	return vision.NewMask(p.Width, p.Height)
}

func (f *fakePrimitives) Lines(edges *vision.Mask, lineLength, lineGap int, thetas []float64) []geom.Segment {
	f.calls++
	switch {
	case len(thetas) > 0 && thetas[0] < -80*geom.Deg2Rad && len(thetas) < 400:
		return f.rows
	case len(thetas) < 400:
		return f.columns
	}
	return f.fallback
}

func (f *fakePrimitives) Dilate(m *vision.Mask, se vision.Element) *vision.Mask {
	return m
}

func (f *fakePrimitives) Threshold(p *vision.Plane) float64 {
	return 0.5
}
