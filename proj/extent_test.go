package proj

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtent(t *testing.T) {
	e := NewExtent(-180, -90, 180, 90)
	assert.Equal(t, 360.0, e.Width())
	assert.Equal(t, 180.0, e.Height())

	cx, cy := e.Center()
	assert.Equal(t, 0.0, cx)
	assert.Equal(t, 0.0, cy)

	assert.True(t, e.Contains(180, 90))
	assert.False(t, e.Contains(181, 0))
	assert.True(t, e.Intersects(NewExtent(170, 80, 200, 100)))
	assert.False(t, e.Intersects(NewExtent(180, 0, 200, 10)), "touching edges do not overlap")
	assert.False(t, e.IsEmpty())
	assert.True(t, NewExtent(1, 1, 1, 2).IsEmpty())
}

func TestExtentBound(t *testing.T) {
	b := PolarWindow.Bound()
	assert.Equal(t, orb.Point{-4350000, -4350000}, b.Min)
	assert.Equal(t, PolarWindow, ExtentFromBound(b))
}

func TestExtentString(t *testing.T) {
	assert.Equal(t, "-180,-90,180,90", LonLatExtent.String())
	assert.Equal(t, "-4350000,-4350000,8350000,8350000", PolarWindow.String())
	assert.Equal(t, "0.5,-1.25,2,3", NewExtent(0.5, -1.25, 2, 3).String())
}

func TestParseExtent(t *testing.T) {
	e, err := ParseExtent("-180, -90,180,90")
	require.NoError(t, err)
	assert.Equal(t, LonLatExtent, e)

	_, err = ParseExtent("1,2,3")
	assert.Error(t, err)
	_, err = ParseExtent("1,2,x,4")
	assert.Error(t, err)
	_, err = ParseExtent("3,0,1,4")
	assert.Error(t, err)
	_, err = ParseExtent("0,4,1,3")
	assert.Error(t, err)
}
