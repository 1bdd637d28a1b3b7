package selector

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shikoucore/hyprshot/internal/compositor"
	"github.com/shikoucore/hyprshot/internal/geometry"
)

func stubSlurp(t *testing.T, fn func(args []string, stdin string) (string, error)) {
	t.Helper()
	orig := runSlurp
	runSlurp = fn
	t.Cleanup(func() { runSlurp = orig })
}

func TestSelectRegionParsesOutput(t *testing.T) {
	stubSlurp(t, func(args []string, stdin string) (string, error) {
		assert.Equal(t, []string{"-d"}, args)
		assert.Empty(t, stdin)
		return "10,20 300x400\n", nil
	})

	g, err := SelectRegion()
	require.NoError(t, err)
	assert.Equal(t, geometry.Geometry{X: 10, Y: 20, Width: 300, Height: 400}, g)
}

func TestSelectOutputUsesOutputMode(t *testing.T) {
	stubSlurp(t, func(args []string, stdin string) (string, error) {
		assert.Equal(t, []string{"-or"}, args)
		return "0,0 1920x1080", nil
	})

	g, err := SelectOutput()
	require.NoError(t, err)
	assert.Equal(t, geometry.Geometry{X: 0, Y: 0, Width: 1920, Height: 1080}, g)
}

func TestSelectWindowFeedsBoxes(t *testing.T) {
	var gotStdin string
	stubSlurp(t, func(args []string, stdin string) (string, error) {
		assert.Equal(t, []string{"-r"}, args)
		gotStdin = stdin
		return "5,5 100x100", nil
	})

	boxes := []compositor.WindowBox{
		{Geometry: geometry.Geometry{X: 5, Y: 5, Width: 100, Height: 100}, Title: "editor"},
		{Geometry: geometry.Geometry{X: 200, Y: 0, Width: 640, Height: 480}, Title: "browser"},
	}
	_, err := SelectWindow(boxes)
	require.NoError(t, err)
	assert.Equal(t, "5,5 100x100 editor\n200,0 640x480 browser", gotStdin)
}

func TestSelectWindowWithoutBoxes(t *testing.T) {
	_, err := SelectWindow(nil)
	assert.Error(t, err)
}

func TestSelectionEmptyOutput(t *testing.T) {
	stubSlurp(t, func(args []string, stdin string) (string, error) {
		return "  \n", nil
	})
	_, err := SelectRegion()
	assert.Error(t, err)
}

func TestSelectionCancelled(t *testing.T) {
	stubSlurp(t, func(args []string, stdin string) (string, error) {
		return "", errors.New("selection cancelled")
	})
	_, err := SelectRegion()
	assert.Error(t, err)
}
