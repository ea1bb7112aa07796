package deskew

import (
	"context"
	"math"
	"testing"

	"github.com/bmharper/cimg/v2"
	"github.com/bmharper/deskew/internal/geom"
	"github.com/stretchr/testify/require"
)

func analyzePage(t *testing.T, params *Params, page Optional[int], img *cimg.Image) Result {
	res, err := Analyze(context.Background(), "page.png", page, GrayFromCimg(img), params)
	require.NoError(t, err)
	return res
}

func TestLowContrastKeepsDimensions(t *testing.T) {
	blank := blankPage(300, 200)
	res := analyzePage(t, NewParams(), None[int](), blank)
	require.True(t, res.Undetermined())
	require.False(t, res.Variance.Valid())
	require.Equal(t, MethodLowContrast, res.Method)
	require.Equal(t, 300, res.Width)
	require.Equal(t, 200, res.Height)
}

func TestRowMedianOfInjectedSegments(t *testing.T) {
	fake := &fakePrimitives{
		rows: []geom.Segment{
			{X0: 0, Y0: 0, X1: 1000, Y1: -17},
			{X0: 0, Y0: 0, X1: 1000, Y1: -18},
			{X0: 0, Y0: 0, X1: 1000, Y1: -16},
		},
		columns: []geom.Segment{{X0: 0, Y0: 0, X1: 2, Y1: 500}},
	}
	params := NewParams()
	params.Primitives = fake
	page := ruledPage(500, 400)
	res := analyzePage(t, params, Some(2), page)
	require.Equal(t, MethodRows, res.Method)
	angle, ok := res.Angle.Get()
	require.True(t, ok)
	require.InDelta(t, math.Atan(17.0/1000)*geom.Rad2Deg, angle, 1e-9)
	require.InDelta(t, 1.0, angle, 0.1)
	variance, ok := res.Variance.Get()
	require.True(t, ok)
	require.Greater(t, variance, 0.0)
	require.Equal(t, 2, res.Page.OrElse(0))
}

func TestSingleSegmentHasZeroVariance(t *testing.T) {
	fake := &fakePrimitives{rows: []geom.Segment{{X0: 10, Y0: 50, X1: 400, Y1: 50}}}
	params := NewParams()
	params.Primitives = fake
	page := ruledPage(500, 400)
	res := analyzePage(t, params, None[int](), page)
	require.Equal(t, MethodRows, res.Method)
	require.Equal(t, 0.0, res.Angle.OrElse(99))
	require.Equal(t, 0.0, res.Variance.OrElse(99))
}

func TestColumnsWhenNoRows(t *testing.T) {
	fake := &fakePrimitives{columns: []geom.Segment{{X0: 100, Y0: 0, X1: 110, Y1: 400}}}
	params := NewParams()
	params.Primitives = fake
	page := ruledPage(500, 400)
	res := analyzePage(t, params, None[int](), page)
	require.Equal(t, MethodColumns, res.Method)
	require.InDelta(t, geom.ColumnAngle(fake.columns[0]), res.Angle.OrElse(99), 1e-12)
}

func TestFallbackMean(t *testing.T) {
	fake := &fakePrimitives{
		fallback: []geom.Segment{
			{X0: 10, Y0: 0, X1: 0, Y1: 500},
			{X0: 20, Y0: 0, X1: 0, Y1: 500},
			{X0: 0, Y0: 100, X1: 500, Y1: 100}, // zero angle, ignored
		},
	}
	params := NewParams()
	params.Primitives = fake
	page := ruledPage(500, 400)
	res := analyzePage(t, params, None[int](), page)
	require.Equal(t, MethodFallback, res.Method)
	a0, _ := geom.FallbackAngle(fake.fallback[0])
	a1, _ := geom.FallbackAngle(fake.fallback[1])
	require.InDelta(t, (a0+a1)/2, res.Angle.OrElse(99), 1e-12)
	require.True(t, res.Variance.Valid())
	require.Equal(t, 3, fake.calls)
}

func TestNothingFound(t *testing.T) {
	params := NewParams()
	params.Primitives = &fakePrimitives{}
	page := ruledPage(500, 400)
	res := analyzePage(t, params, None[int](), page)
	require.Equal(t, MethodNone, res.Method)
	require.True(t, res.Undetermined())
	require.False(t, res.Variance.Valid())
	require.Equal(t, 500, res.Width)
}

func TestCancelledBetweenStages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	params := NewParams()
	params.Primitives = &fakePrimitives{}
	page := ruledPage(500, 400)
	_, err := Analyze(ctx, "page.png", None[int](), GrayFromCimg(page), params)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSyntheticRuleRoundTrip(t *testing.T) {
	page := ruledPage(600, 400)
	// lean the rules 2 degrees counter-clockwise
	tilted := rotate(page, -2)
	params := NewParams()

	res, err := Analyze(context.Background(), "tilted.png", None[int](), GrayFromCimg(tilted), params)
	require.NoError(t, err)
	require.Equal(t, MethodRows, res.Method)
	angle, ok := res.Angle.Get()
	require.True(t, ok)
	require.InDelta(t, 2, angle, 0.5)

	straight, err := Straighten(tilted, angle, nil)
	require.NoError(t, err)
	res, err = Analyze(context.Background(), "straight.png", None[int](), GrayFromCimg(straight), params)
	require.NoError(t, err)
	require.Less(t, math.Abs(res.Angle.OrElse(0)), 0.5)
}
