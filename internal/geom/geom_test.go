package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRowAngle(t *testing.T) {
	cases := []struct {
		name string
		seg  Segment
		want float64
	}{
		{"flat", Segment{0, 10, 100, 10}, 0},
		{"rising", Segment{0, 10, 100, 9}, math.Atan2(1, 100) * Rad2Deg},
		{"falling", Segment{0, 10, 100, 11}, -math.Atan2(1, 100) * Rad2Deg},
		{"reversed rising", Segment{100, 9, 0, 10}, math.Atan2(1, 100) * Rad2Deg},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.InDelta(t, c.want, RowAngle(c.seg), 1e-9)
		})
	}
}

func TestColumnAngle(t *testing.T) {
	// Top leaning left when moving down-right: content turned counter-clockwise
	s := Segment{X0: 10, Y0: 0, X1: 11, Y1: 100}
	require.InDelta(t, math.Atan2(1, 100)*Rad2Deg, ColumnAngle(s), 1e-9)
	require.InDelta(t, ColumnAngle(s), ColumnAngle(Segment{11, 100, 10, 0}), 1e-9)
	require.InDelta(t, 0, ColumnAngle(Segment{5, 0, 5, 50}), 1e-9)
}

func TestFallbackAngleMatchesAxisConventions(t *testing.T) {
	h := Segment{0, 10, 100, 11}
	a, ok := FallbackAngle(h)
	require.True(t, ok)
	require.InDelta(t, RowAngle(h), a, 1e-9)

	v := Segment{10, 0, 11, 100}
	a, ok = FallbackAngle(v)
	require.True(t, ok)
	require.InDelta(t, ColumnAngle(v), a, 1e-9)

	_, ok = FallbackAngle(Segment{0, 5, 80, 5})
	require.False(t, ok)
	_, ok = FallbackAngle(Segment{5, 0, 5, 80})
	require.False(t, ok)
}

func TestThetaBand(t *testing.T) {
	band := ThetaBand(-90, 3, 0.02)
	require.Len(t, band, 300)
	require.InDelta(t, -93*Deg2Rad, band[0], 1e-12)
	require.Less(t, band[len(band)-1], -87*Deg2Rad)
}

func TestLineAA(t *testing.T) {
	px := LineAA(0, 0, 4, 0)
	require.Len(t, px, 5)
	for i, p := range px {
		require.Equal(t, i, p.X)
		require.Equal(t, 0, p.Y)
		require.InDelta(t, 1, p.Value, 1e-9)
	}

	px = LineAA(0, 0, 10, 3)
	require.Equal(t, AAPixel{0, 0, 1}, px[0])
	reached := false
	for _, p := range px {
		require.GreaterOrEqual(t, p.Value, 0.0)
		require.LessOrEqual(t, p.Value, 1.0)
		if p.X == 10 && p.Y == 3 {
			reached = true
		}
	}
	require.True(t, reached)
}

func TestStats(t *testing.T) {
	require.Equal(t, 2.0, Median([]float64{3, 1, 2}))
	require.Equal(t, 2.5, Median([]float64{4, 1, 3, 2}))
	require.Equal(t, 2.5, Mean([]float64{1, 2, 3, 4}))
	require.InDelta(t, 1.25, Variance([]float64{1, 2, 3, 4}), 1e-12)
	require.Equal(t, 0.0, Variance([]float64{7}))
	require.True(t, math.IsNaN(Median(nil)))
}
