//go:build gocv

package vision

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCVDilateMatchesPure(t *testing.T) {
	m := NewMask(40, 30)
	m.Set(20, 15, true)
	m.Set(5, 5, true)
	cv := NewCVToolkit()
	for _, se := range []Element{Cross, Rect(7, 7), Rect(5, 3)} {
		require.Equal(t, Dilate(m, se).Bits, cv.Dilate(m, se).Bits, "%+v", se)
	}
}

func TestCVThresholdSplitsTwoLevels(t *testing.T) {
	p := NewPlane(20, 20)
	for i := range p.Pix {
		p.Pix[i] = 0.2
		if i%2 == 0 {
			p.Pix[i] = 0.8
		}
	}
	level := NewCVToolkit().Threshold(p)
	require.Greater(t, level, 0.2)
	require.Less(t, level, 0.8)
}

func TestCVEdgesOfVerticalStep(t *testing.T) {
	p := NewPlane(40, 40)
	for y := 0; y < 40; y++ {
		for x := 20; x < 40; x++ {
			p.Pix[y*40+x] = 1
		}
	}
	edges := NewCVToolkit().Edges(p, 1)
	require.NotZero(t, edges.Count())
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			if edges.At(x, y) {
				require.InDelta(t, 19.5, float64(x), 1.5, "x %v y %v", x, y)
			}
		}
	}
}
