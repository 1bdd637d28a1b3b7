package freeze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shikoucore/hyprshot/internal/capture"
	"github.com/shikoucore/hyprshot/internal/geometry"
	"github.com/shikoucore/hyprshot/internal/wayland"
)

func namedDesc(name string, x, y, w, h int32) *wayland.OutputDescriptor {
	return &wayland.OutputDescriptor{
		Name: name, HasName: true,
		LogicalX: x, LogicalY: y, HasLogicalPos: true,
		LogicalWidth: w, LogicalHeight: h, HasLogicalSize: true,
	}
}

func frameFor(name string, x, y, w, h int32) *capture.Frame {
	return &capture.Frame{
		Output: capture.Output{Name: name, Geometry: geometry.Geometry{X: x, Y: y, Width: w, Height: h}},
	}
}

func TestMatchByExactName(t *testing.T) {
	descs := []*wayland.OutputDescriptor{namedDesc("DP-1", 0, 0, 1920, 1080)}
	frames := []*capture.Frame{frameFor("DP-1", 0, 0, 1920, 1080)}

	got := MatchCaptures(descs, frames, "")
	assert.Equal(t, map[int]int{0: 0}, got)
}

func TestMatchByGeometryWhenNameMissing(t *testing.T) {
	// Descriptor without a name, logical geometry derived from a 4K mode
	// at scale 2.
	desc := &wayland.OutputDescriptor{
		PixelWidth: 3840, PixelHeight: 2160, HasMode: true,
		Scale: 2, HasScale: true,
	}
	frames := []*capture.Frame{frameFor("HDMI-A-1", 0, 0, 1920, 1080)}

	got := MatchCaptures([]*wayland.OutputDescriptor{desc}, frames, "")
	assert.Equal(t, map[int]int{0: 0}, got)
}

func TestExactNameOutranksGeometry(t *testing.T) {
	// Both descriptors sit at identical geometry; only the name can
	// disambiguate. The named match must win regardless of order.
	descs := []*wayland.OutputDescriptor{
		namedDesc("DP-2", 0, 0, 1920, 1080),
		namedDesc("DP-1", 0, 0, 1920, 1080),
	}
	frames := []*capture.Frame{
		frameFor("DP-1", 0, 0, 1920, 1080),
		frameFor("DP-2", 0, 0, 1920, 1080),
	}

	got := MatchCaptures(descs, frames, "")
	assert.Equal(t, map[int]int{0: 1, 1: 0}, got)
}

func TestMatchIsDeterministic(t *testing.T) {
	descs := []*wayland.OutputDescriptor{
		namedDesc("A", 0, 0, 100, 100),
		namedDesc("B", 100, 0, 100, 100),
		namedDesc("C", 200, 0, 100, 100),
	}
	frames := []*capture.Frame{
		frameFor("X", 200, 0, 100, 100),
		frameFor("B", 100, 0, 100, 100),
		frameFor("Y", 500, 500, 10, 10),
	}

	first := MatchCaptures(descs, frames, "")
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, MatchCaptures(descs, frames, ""))
	}
	// B pairs by name, C pairs by geometry, A takes the leftover frame.
	assert.Equal(t, map[int]int{1: 1, 2: 0, 0: 2}, first)
}

func TestMatchSelectedFallsBackToFirstDescriptor(t *testing.T) {
	descs := []*wayland.OutputDescriptor{
		namedDesc("eDP-1", 0, 0, 1920, 1080),
	}
	// The capture channel reports a different name and disagreeing
	// geometry.
	frames := []*capture.Frame{frameFor("LVDS-1", 0, 0, 1280, 720)}

	got := MatchCaptures(descs, frames, "LVDS-1")
	assert.Equal(t, map[int]int{0: 0}, got)
}

func TestMatchEmptyInputsIsEmptyNonNil(t *testing.T) {
	got := MatchCaptures(nil, nil, "")
	require.NotNil(t, got)
	assert.Empty(t, got)

	got = MatchCaptures(nil, nil, "DP-1")
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMatchMoreDescriptorsThanFrames(t *testing.T) {
	descs := []*wayland.OutputDescriptor{
		namedDesc("A", 0, 0, 100, 100),
		namedDesc("B", 100, 0, 100, 100),
	}
	frames := []*capture.Frame{frameFor("B", 100, 0, 100, 100)}

	got := MatchCaptures(descs, frames, "")
	assert.Equal(t, map[int]int{1: 0}, got, "descriptor A stays unmatched")
}

func TestResolveByName(t *testing.T) {
	descs := []*wayland.OutputDescriptor{
		namedDesc("DP-1", 0, 0, 1920, 1080),
		namedDesc("DP-2", 1920, 0, 2560, 1440),
	}

	d, err := ResolveByName(descs, "DP-2")
	require.NoError(t, err)
	assert.Equal(t, "DP-2", d.Name)

	_, err = ResolveByName(descs, "HDMI-A-1")
	assert.Error(t, err)
}
