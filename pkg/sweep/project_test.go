package sweep

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestCalibration(t *testing.T) *Calibration {
	t.Helper()
	c, err := NewCalibration(DefaultCalibrationParams(), 500, Size{Width: 1920, Height: 1080}, 1280)
	require.NoError(t, err)
	return c
}

func rectFromProjection(p ProjectedRectangle, anchor int) Rectangle {
	return Rectangle{
		TopLeft:     Point{X: p.Left, Y: p.Top},
		BottomRight: Point{X: p.Right, Y: p.Bottom},
		AnchorFrame: anchor,
		Category:    p.Category,
	}
}

func requireNear(t *testing.T, expected Rectangle, actual ProjectedRectangle, tolerance int) {
	t.Helper()
	require.InDelta(t, expected.TopLeft.X, actual.Left, float64(tolerance))
	require.InDelta(t, expected.TopLeft.Y, actual.Top, float64(tolerance))
	require.InDelta(t, expected.BottomRight.X, actual.Right, float64(tolerance))
	require.InDelta(t, expected.BottomRight.Y, actual.Bottom, float64(tolerance))
}

func TestProjectSameFrame(t *testing.T) {
	c := newTestCalibration(t)
	r := Rectangle{TopLeft: Point{800, 400}, BottomRight: Point{900, 500}, AnchorFrame: 100}
	p := Project(r, 100, c, SpaceSource)
	require.Equal(t, SpaceSource, p.Space)
	require.Equal(t, [4]int{800, 400, 900, 500}, p.BBox())
}

func TestProjectPreservesSize(t *testing.T) {
	c := newTestCalibration(t)
	r := Rectangle{TopLeft: Point{300, 200}, BottomRight: Point{420, 290}, AnchorFrame: 40, Category: CategoryAlternate}
	for target := 0; target < 500; target += 37 {
		p := Project(r, target, c, SpaceSource)
		require.Equal(t, 120, p.Right-p.Left)
		require.Equal(t, 90, p.Bottom-p.Top)
		require.Equal(t, CategoryAlternate, p.Category)
	}
}

func TestProjectDirection(t *testing.T) {
	// A positive angle delta rotates the center toward smaller x
	c := newTestCalibration(t)
	r := Rectangle{TopLeft: Point{800, 400}, BottomRight: Point{900, 500}, AnchorFrame: 100}
	later := Project(r, 110, c, SpaceSource)
	earlier := Project(r, 90, c, SpaceSource)
	require.Less(t, later.Left, 800)
	require.Greater(t, earlier.Left, 800)
}

func TestProjectRoundTrip(t *testing.T) {
	c := newTestCalibration(t)
	rects := []Rectangle{
		{TopLeft: Point{800, 400}, BottomRight: Point{900, 500}, AnchorFrame: 100},
		{TopLeft: Point{100, 700}, BottomRight: Point{260, 800}, AnchorFrame: 250},
		{TopLeft: Point{1500, 50}, BottomRight: Point{1700, 200}, AnchorFrame: 0},
	}
	for _, r := range rects {
		for _, target := range []int{r.AnchorFrame + 1, r.AnchorFrame + 7, r.AnchorFrame + 20} {
			forward := Project(r, target, c, SpaceSource)
			back := Project(rectFromProjection(forward, target), r.AnchorFrame, c, SpaceSource)
			requireNear(t, r, back, 1)
		}
	}
}

func TestProjectSingularAngle(t *testing.T) {
	c := newTestCalibration(t)
	// Center x is exactly halfW, so gamma0 is zero
	r := Rectangle{TopLeft: Point{910, 400}, BottomRight: Point{1010, 500}, AnchorFrame: 100}
	same := Project(r, 100, c, SpaceSource)
	require.Equal(t, [4]int{910, 400, 1010, 500}, same.BBox())

	moved := Project(r, 110, c, SpaceSource)
	require.Less(t, moved.Left, 910)
	require.True(t, IsVisible(moved, c.SourceSize()))

	back := Project(rectFromProjection(moved, 110), 100, c, SpaceSource)
	requireNear(t, r, back, 1)
}

func TestDisplayProjectionIsScaledSource(t *testing.T) {
	c := newTestCalibration(t)
	r := Rectangle{TopLeft: Point{800, 400}, BottomRight: Point{900, 500}, AnchorFrame: 100}
	src := Project(r, 130, c, SpaceSource)
	disp := Project(r, 130, c, SpaceDisplay)
	scaled, err := c.Scale(src)
	require.NoError(t, err)
	require.Equal(t, scaled, disp)
	require.Equal(t, SpaceDisplay, disp.Space)
}

func TestScaleRejectsWrongSpace(t *testing.T) {
	c := newTestCalibration(t)
	p := ProjectedRectangle{Left: 2, Top: 2, Right: 30, Bottom: 30, Space: SpaceDisplay}
	_, err := c.Scale(p)
	require.Error(t, err)

	src, err := c.Unscale(p)
	require.NoError(t, err)
	require.Equal(t, SpaceSource, src.Space)
	_, err = c.Unscale(src)
	require.Error(t, err)
	require.Equal(t, ProjectedRectangle{Left: 3, Top: 3, Right: 45, Bottom: 45, Space: SpaceSource}, src)
}

func TestIsVisible(t *testing.T) {
	dims := Size{Width: 100, Height: 50}
	require.True(t, IsVisible(ProjectedRectangle{Left: 1, Top: 1, Right: 99, Bottom: 49}, dims))
	require.False(t, IsVisible(ProjectedRectangle{Left: 0, Top: 1, Right: 99, Bottom: 49}, dims))
	require.False(t, IsVisible(ProjectedRectangle{Left: 1, Top: 0, Right: 99, Bottom: 49}, dims))
	require.False(t, IsVisible(ProjectedRectangle{Left: 1, Top: 1, Right: 100, Bottom: 49}, dims))
	require.False(t, IsVisible(ProjectedRectangle{Left: 1, Top: 1, Right: 99, Bottom: 50}, dims))
	require.False(t, IsVisible(ProjectedRectangle{Left: -20, Top: 10, Right: -5, Bottom: 20}, dims))
}

func TestIsVisibleShrinkNeverRevives(t *testing.T) {
	rects := []ProjectedRectangle{}
	for l := -10; l < 120; l += 13 {
		for tp := -10; tp < 80; tp += 11 {
			rects = append(rects, ProjectedRectangle{Left: l, Top: tp, Right: l + 25, Bottom: tp + 15})
		}
	}
	for _, r := range rects {
		wasVisible := IsVisible(r, Size{Width: 120, Height: 80})
		for w := 120; w > 0; w -= 7 {
			for h := 80; h > 0; h -= 9 {
				if IsVisible(r, Size{Width: w, Height: h}) {
					require.True(t, wasVisible, "rect %v became visible after shrinking to %vx%v", r, w, h)
				}
			}
		}
	}
}

func TestCullDropsWholeRectangles(t *testing.T) {
	dims := Size{Width: 100, Height: 100}
	in := []ProjectedRectangle{
		{Left: 10, Top: 10, Right: 20, Bottom: 20},
		{Left: 90, Top: 10, Right: 110, Bottom: 20},
		{Left: 30, Top: 30, Right: 40, Bottom: 40},
	}
	out := Cull(in, dims)
	require.Equal(t, []ProjectedRectangle{in[0], in[2]}, out)
}
