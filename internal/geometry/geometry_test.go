package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStringRoundTrip(t *testing.T) {
	cases := []Geometry{
		{X: 0, Y: 0, Width: 1, Height: 1},
		{X: -1920, Y: -1080, Width: 1920, Height: 1080},
		{X: 2560, Y: 0, Width: 3840, Height: 2160},
		{X: 13, Y: 37, Width: 640, Height: 480},
	}
	for _, want := range cases {
		got, err := Parse(want.String())
		require.NoError(t, err, "round-tripping %s", want)
		assert.Equal(t, want, got)
	}
}

func TestNewRejectsNonPositiveDimensions(t *testing.T) {
	for _, dims := range [][2]int32{{0, 100}, {100, 0}, {-1, 100}, {100, -1}, {0, 0}} {
		_, err := New(0, 0, dims[0], dims[1])
		assert.Error(t, err, "width=%d height=%d", dims[0], dims[1])
	}
}

func TestParseErrors(t *testing.T) {
	bad := []string{
		"",
		"   ",
		"1920x1080",
		"0,0",
		"0,0 1920x1080 extra",
		"0;0 1920x1080",
		"0,0 1920by1080",
		"a,b 10x10",
		"0,0 10xb",
		"0,0 0x100",
		"0,0 100x-5",
	}
	for _, s := range bad {
		_, err := Parse(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestParseTrimsWhitespace(t *testing.T) {
	got, err := Parse("  10,20 30x40\n")
	require.NoError(t, err)
	assert.Equal(t, Geometry{X: 10, Y: 20, Width: 30, Height: 40}, got)
}

func TestCloseToProperties(t *testing.T) {
	a := Geometry{X: 0, Y: 0, Width: 1920, Height: 1080}
	b := Geometry{X: 1, Y: -1, Width: 1919, Height: 1081}
	c := Geometry{X: 2, Y: 0, Width: 1920, Height: 1080}

	assert.True(t, a.CloseTo(a), "reflexive")
	assert.True(t, a.CloseTo(b) && b.CloseTo(a), "symmetric")
	assert.False(t, a.CloseTo(c), "x differs by 2")
	assert.False(t, a.CloseTo(Geometry{X: 0, Y: 0, Width: 1922, Height: 1080}), "width differs by 2")
}

func TestIntersect(t *testing.T) {
	a := Geometry{X: 0, Y: 0, Width: 100, Height: 100}

	got, ok := a.Intersect(Geometry{X: 50, Y: 50, Width: 100, Height: 100})
	require.True(t, ok)
	assert.Equal(t, Geometry{X: 50, Y: 50, Width: 50, Height: 50}, got)

	_, ok = a.Intersect(Geometry{X: 100, Y: 0, Width: 10, Height: 10})
	assert.False(t, ok, "touching edges do not overlap")

	_, ok = a.Intersect(Geometry{X: 500, Y: 500, Width: 10, Height: 10})
	assert.False(t, ok)
}

func TestContains(t *testing.T) {
	g := Geometry{X: 10, Y: 10, Width: 20, Height: 20}
	assert.True(t, g.Contains(10, 10))
	assert.True(t, g.Contains(29, 29))
	assert.False(t, g.Contains(30, 10))
	assert.False(t, g.Contains(9, 10))
}
