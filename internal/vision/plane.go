// Package vision implements the image primitives used by the skew detectors:
// Canny edges, the probabilistic Hough line transform, binary dilation, Otsu thresholding
// and a percentile contrast test. The algorithms follow scikit-image closely, so that
// thresholds tuned there carry over unchanged.
package vision

// Plane is a single channel float image with stride = Width.
// Intensities are normally in [0,1].
type Plane struct {
	Width  int
	Height int
	Pix    []float64
}

func NewPlane(width, height int) *Plane {
	return &Plane{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height),
	}
}

// PlaneFromBytes maps 8-bit samples to [0,1]
func PlaneFromBytes(width, height int, pixels []byte) *Plane {
	p := NewPlane(width, height)
	for i, v := range pixels[:width*height] {
		p.Pix[i] = float64(v) / 255
	}
	return p
}

func (p *Plane) At(x, y int) float64 {
	return p.Pix[y*p.Width+x]
}

// Bytes maps [0,1] back to 8-bit samples, clamping values outside that range
func (p *Plane) Bytes() []byte {
	out := make([]byte, len(p.Pix))
	for i, v := range p.Pix {
		out[i] = unitToByte(v)
	}
	return out
}

// Mask is a binary image with stride = Width
type Mask struct {
	Width  int
	Height int
	Bits   []bool
}

func NewMask(width, height int) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Bits:   make([]bool, width*height),
	}
}

func (m *Mask) At(x, y int) bool {
	return m.Bits[y*m.Width+x]
}

func (m *Mask) Set(x, y int, v bool) {
	m.Bits[y*m.Width+x] = v
}

func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// Plane returns 1 for set bits and 0 otherwise
func (m *Mask) Plane() *Plane {
	return m.Scaled(1)
}

// Scaled returns a plane with value v for set bits and 0 otherwise
func (m *Mask) Scaled(v float64) *Plane {
	p := NewPlane(m.Width, m.Height)
	for i, b := range m.Bits {
		if b {
			p.Pix[i] = v
		}
	}
	return p
}

func unitToByte(v float64) byte {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return byte(v*255 + 0.5)
}
