//go:build gocv

package vision

import (
	"image"

	"gocv.io/x/gocv"
)

// CVToolkit runs edges, dilation and thresholding through OpenCV, and keeps the Hough transform of
// Toolkit, since OpenCV's HoughLinesP can't be restricted to an explicit list of angles.
// Build with -tags gocv to use it as the default.
type CVToolkit struct {
	*Toolkit
}

func NewCVToolkit() *CVToolkit {
	return &CVToolkit{Toolkit: NewToolkit()}
}

// Edges blurs p and runs cv::Canny on the 8-bit result.
// OpenCV sums absolute Sobel responses rather than taking their hypotenuse, and works on 0..255, so
// the thresholds are scaled up accordingly.
func (t *CVToolkit) Edges(p *Plane, sigma float64) *Mask {
	src, err := matFromBytes(p.Width, p.Height, p.Bytes())
	if err != nil {
		return t.Toolkit.Edges(p, sigma)
	}
	defer src.Close()
	if sigma > 0 {
		gocv.GaussianBlur(src, &src, image.Point{}, sigma, sigma, gocv.BorderReflect)
	}
	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(src, &edges, float32(CannyLow*255), float32(CannyHigh*255))
	m := maskFromMat(edges, p.Width, p.Height)
	// match Canny, which never marks the outer border
	for x := 0; x < m.Width; x++ {
		m.Set(x, 0, false)
		m.Set(x, m.Height-1, false)
	}
	for y := 0; y < m.Height; y++ {
		m.Set(0, y, false)
		m.Set(m.Width-1, y, false)
	}
	return m
}

func (t *CVToolkit) Dilate(m *Mask, se Element) *Mask {
	src, err := matFromBytes(m.Width, m.Height, maskBytes(m))
	if err != nil {
		return Dilate(m, se)
	}
	defer src.Close()
	shape := gocv.MorphRect
	if se.Cross {
		shape = gocv.MorphCross
	}
	kernel := gocv.GetStructuringElement(shape, image.Point{X: se.Width, Y: se.Height})
	defer kernel.Close()
	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Dilate(src, &dst, kernel)
	return maskFromMat(dst, m.Width, m.Height)
}

// Threshold stretches p to 0..255 before cv::threshold picks the Otsu level, and maps it back
func (t *CVToolkit) Threshold(p *Plane) float64 {
	if len(p.Pix) == 0 {
		return 0
	}
	lo, hi := p.Pix[0], p.Pix[0]
	for _, v := range p.Pix {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if lo == hi {
		return lo
	}
	stretched := make([]byte, len(p.Pix))
	for i, v := range p.Pix {
		stretched[i] = unitToByte((v - lo) / (hi - lo))
	}
	src, err := matFromBytes(p.Width, p.Height, stretched)
	if err != nil {
		return Otsu(p)
	}
	defer src.Close()
	dst := gocv.NewMat()
	defer dst.Close()
	level := gocv.Threshold(src, &dst, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	return lo + float64(level)/255*(hi-lo)
}

// 8-bit single channel Mat holding a copy of pixels, in memory owned by OpenCV
func matFromBytes(width, height int, pixels []byte) (gocv.Mat, error) {
	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8U)
	data, err := mat.DataPtrUint8()
	if err != nil {
		mat.Close()
		return gocv.Mat{}, err
	}
	copy(data, pixels)
	return mat, nil
}

func maskBytes(m *Mask) []byte {
	out := make([]byte, len(m.Bits))
	for i, b := range m.Bits {
		if b {
			out[i] = 255
		}
	}
	return out
}

func maskFromMat(mat gocv.Mat, width, height int) *Mask {
	m := NewMask(width, height)
	for i, v := range mat.ToBytes()[:width*height] {
		m.Bits[i] = v != 0
	}
	return m
}
