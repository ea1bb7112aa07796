package vision

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/bmharper/deskew/internal/geom"
	"github.com/stretchr/testify/require"
)

func TestCannyVerticalStep(t *testing.T) {
	p := NewPlane(40, 40)
	for y := 0; y < 40; y++ {
		for x := 20; x < 40; x++ {
			p.Pix[y*40+x] = 1
		}
	}
	edges := Canny(p, 1, CannyLow, CannyHigh)
	// the two columns either side of the step have nearly equal magnitude, and rounding decides
	// which survives non-maximum suppression
	for y := 1; y < 39; y++ {
		require.True(t, edges.At(19, y) || edges.At(20, y), "row %v", y)
	}
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			if x != 19 && x != 20 {
				require.False(t, edges.At(x, y), "x %v y %v", x, y)
			}
		}
	}
	require.GreaterOrEqual(t, edges.Count(), 38)
	require.LessOrEqual(t, edges.Count(), 2*38)
}

func TestCannyFlat(t *testing.T) {
	p := NewPlane(30, 20)
	for i := range p.Pix {
		p.Pix[i] = 0.7
	}
	require.Equal(t, 0, Canny(p, 2, CannyLow, CannyHigh).Count())
}

func lineMask(w, h int, draw func(m *Mask)) *Mask {
	m := NewMask(w, h)
	draw(m)
	return m
}

func TestHoughHorizontal(t *testing.T) {
	m := lineMask(100, 60, func(m *Mask) {
		for x := 10; x < 90; x++ {
			m.Set(x, 30, true)
		}
	})
	params := HoughParams{Threshold: 10, LineLength: 50, LineGap: 2, Thetas: geom.ThetaBand(-90, 3, 0.02)}
	lines := ProbabilisticHough(m, params, rand.New(rand.NewPCG(1, 2)))
	require.NotEmpty(t, lines)
	s := lines[0]
	require.Equal(t, 30, s.Y0)
	require.Equal(t, 30, s.Y1)
	require.GreaterOrEqual(t, abs(s.DX()), 50)

	// the horizontal band cannot see a vertical line
	v := lineMask(100, 60, func(m *Mask) {
		for y := 5; y < 55; y++ {
			m.Set(50, y, true)
		}
	})
	params.LineLength = 40
	require.Empty(t, ProbabilisticHough(v, params, rand.New(rand.NewPCG(1, 2))))

	params.Thetas = geom.ThetaBand(0, 3, 0.02)
	lines = ProbabilisticHough(v, params, rand.New(rand.NewPCG(1, 2)))
	require.NotEmpty(t, lines)
	require.Equal(t, 50, lines[0].X0)
	require.Equal(t, 50, lines[0].X1)
	require.GreaterOrEqual(t, abs(lines[0].DY()), 40)
}

func TestHoughTooShort(t *testing.T) {
	m := lineMask(100, 60, func(m *Mask) {
		for x := 10; x < 40; x++ {
			m.Set(x, 30, true)
		}
	})
	params := HoughParams{Threshold: 10, LineLength: 50, LineGap: 2, Thetas: geom.ThetaBand(-90, 3, 0.02)}
	require.Empty(t, ProbabilisticHough(m, params, rand.New(rand.NewPCG(1, 2))))
}

func TestDilate(t *testing.T) {
	single := func() *Mask {
		m := NewMask(12, 12)
		m.Set(5, 5, true)
		return m
	}
	cross := Dilate(single(), Cross)
	require.Equal(t, 5, cross.Count())
	require.True(t, cross.At(5, 4))
	require.False(t, cross.At(4, 4))

	require.Equal(t, 9, Dilate(single(), Rect(3, 3)).Count())

	even := Dilate(single(), Rect(4, 4))
	require.Equal(t, 16, even.Count())
	require.True(t, even.At(3, 3))
	require.True(t, even.At(6, 6))
	require.False(t, even.At(7, 7))
	require.False(t, even.At(2, 2))

	// clipped at the border
	corner := NewMask(10, 10)
	corner.Set(0, 0, true)
	require.Equal(t, 4, Dilate(corner, Rect(3, 3)).Count())
}

func TestOtsu(t *testing.T) {
	p := NewPlane(20, 10)
	for i := range p.Pix {
		if i < 100 {
			p.Pix[i] = 0.2
		} else {
			p.Pix[i] = 0.8
		}
	}
	th := Otsu(p)
	require.Greater(t, th, 0.2)
	require.Less(t, th, 0.8)
	above := 0
	for _, v := range p.Pix {
		if v > th {
			above++
		}
	}
	require.Equal(t, 100, above)

	flat := NewPlane(4, 4)
	require.Equal(t, 0.0, Otsu(flat))
}

func TestLowContrast(t *testing.T) {
	cases := []struct {
		name   string
		pixels func(i int) byte
		low    bool
	}{
		{"flat", func(i int) byte { return 128 }, true},
		{"narrow", func(i int) byte { return byte(100 + i%11) }, true},
		{"halves", func(i int) byte {
			if i < 500 {
				return 0
			}
			return 255
		}, false},
		{"ramp", func(i int) byte { return byte(i % 256) }, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			pix := make([]byte, 1000)
			for i := range pix {
				pix[i] = c.pixels(i)
			}
			require.Equal(t, c.low, LowContrast(pix, 0.05, 1, 99))
		})
	}
}

func TestPercentile(t *testing.T) {
	var hist [256]int
	for v := 0; v < 100; v++ {
		hist[v]++
	}
	require.InDelta(t, 0.99, percentile(&hist, 100, 1), 1e-9)
	require.InDelta(t, 98.01, percentile(&hist, 100, 99), 1e-9)
	require.InDelta(t, 49.5, percentile(&hist, 100, 50), 1e-9)
}

func TestSmoothKeepsFlatBorders(t *testing.T) {
	p := NewPlane(15, 9)
	for i := range p.Pix {
		p.Pix[i] = 0.5
	}
	s := Smooth(p, 2)
	for _, v := range s.Pix {
		require.InDelta(t, 0.5, v, 1e-9)
	}
}

// inOrder makes rand.Shuffle keep its input order, so points are visited in row major order
type inOrder struct{}

func (inOrder) Uint64() uint64 { return math.MaxUint64 }

func TestHoughRejectedStubIsCleared(t *testing.T) {
	m := lineMask(100, 60, func(m *Mask) {
		// a vertical stub ending on row 30
		for y := 10; y <= 30; y++ {
			m.Set(61, y, true)
		}
		// a row that only reaches 50 pixels by bridging to the bottom of the stub
		for x := 10; x <= 59; x++ {
			m.Set(x, 30, true)
		}
	})
	// vertical first, so ties between the bands walk vertically
	thetas := []float64{0, -math.Pi / 2}
	params := HoughParams{Threshold: 1, LineLength: 50, LineGap: 1, Thetas: thetas}

	// The stub is walked first and rejected. Its pixels leave the mask with it, so the row can no
	// longer borrow the stub's bottom pixel.
	require.Empty(t, ProbabilisticHough(m, params, rand.New(inOrder{})))

	params.LineLength = 48
	lines := ProbabilisticHough(m, params, rand.New(inOrder{}))
	require.Len(t, lines, 1)
	require.Equal(t, 30, lines[0].Y0)
	require.Equal(t, 30, lines[0].Y1)
	require.Equal(t, 48, abs(lines[0].DX()))
}
