package capture

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rajveermalviya/go-wayland/wayland/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shikoucore/hyprshot/internal/geometry"
)

type fakeSource struct {
	outputs []Output
	fill    map[string][4]byte
	err     error
}

func (f *fakeSource) Outputs() ([]Output, error) {
	return f.outputs, f.err
}

func (f *fakeSource) CaptureOutput(name string) (*Frame, error) {
	for _, out := range f.outputs {
		if out.Name != name {
			continue
		}
		w, h := out.PixelWidth, out.PixelHeight
		data := make([]byte, w*h*4)
		px := f.fill[name]
		for i := int32(0); i < w*h; i++ {
			copy(data[i*4:], px[:])
		}
		return &Frame{Output: out, Width: w, Height: h, Stride: w * 4, Data: data}, nil
	}
	return nil, fmt.Errorf("no output named %q", name)
}

func (f *fakeSource) Close() error { return nil }

func TestCaptureRegionSpanningTwoOutputs(t *testing.T) {
	src := &fakeSource{
		outputs: []Output{
			{Name: "DP-1", Geometry: geometry.Geometry{X: 0, Y: 0, Width: 100, Height: 100}, Scale: 1, PixelWidth: 100, PixelHeight: 100},
			{Name: "DP-2", Geometry: geometry.Geometry{X: 100, Y: 0, Width: 100, Height: 100}, Scale: 1, PixelWidth: 100, PixelHeight: 100},
		},
		fill: map[string][4]byte{
			"DP-1": {0x11, 0x11, 0x11, 0xff},
			"DP-2": {0x22, 0x22, 0x22, 0xff},
		},
	}

	region := geometry.Geometry{X: 90, Y: 10, Width: 20, Height: 20}
	img, err := CaptureRegion(src, region)
	require.NoError(t, err)
	require.Equal(t, 20, img.Rect.Dx())
	require.Equal(t, 20, img.Rect.Dy())

	left := img.RGBAAt(0, 0)
	right := img.RGBAAt(19, 0)
	assert.EqualValues(t, 0x11, left.R, "left half comes from DP-1")
	assert.EqualValues(t, 0x22, right.R, "right half comes from DP-2")
}

func TestCaptureRegionScaledOutput(t *testing.T) {
	src := &fakeSource{
		outputs: []Output{
			{Name: "eDP-1", Geometry: geometry.Geometry{X: 0, Y: 0, Width: 50, Height: 50}, Scale: 2, PixelWidth: 100, PixelHeight: 100},
		},
		fill: map[string][4]byte{"eDP-1": {0xaa, 0xbb, 0xcc, 0xff}},
	}

	img, err := CaptureRegion(src, geometry.Geometry{X: 10, Y: 10, Width: 30, Height: 30})
	require.NoError(t, err)
	assert.Equal(t, 30, img.Rect.Dx())
	px := img.RGBAAt(15, 15)
	assert.EqualValues(t, 0xaa, px.R)
	assert.EqualValues(t, 0xff, px.A)
}

func TestCaptureRegionOutsideAllOutputs(t *testing.T) {
	src := &fakeSource{
		outputs: []Output{
			{Name: "DP-1", Geometry: geometry.Geometry{X: 0, Y: 0, Width: 100, Height: 100}, Scale: 1, PixelWidth: 100, PixelHeight: 100},
		},
	}
	_, err := CaptureRegion(src, geometry.Geometry{X: 500, Y: 500, Width: 10, Height: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not intersect")
}

func TestIsMissingScreencopy(t *testing.T) {
	assert.True(t, IsMissingScreencopy(ErrMissingScreencopy))
	assert.True(t, IsMissingScreencopy(fmt.Errorf("bind: %w", ErrMissingScreencopy)))
	assert.True(t, IsMissingScreencopy(errors.New("compositor doesn't support wlr-screencopy-unstable-v1")))
	assert.True(t, IsMissingScreencopy(errors.New("missing protocol: ZWLR_SCREENCOPY_MANAGER_V1")))
	assert.False(t, IsMissingScreencopy(nil))
	assert.False(t, IsMissingScreencopy(errors.New("connection refused")))
}

func TestToRGBAFormats(t *testing.T) {
	// One pixel stored as little-endian ARGB, in memory B,G,R,A.
	argb := []byte{0x01, 0x02, 0x03, 0x80}
	got := toRGBA(argb, uint32(client.ShmFormatArgb8888), 1, 1, 4, false)
	assert.Equal(t, []byte{0x03, 0x02, 0x01, 0x80}, got)

	xrgb := []byte{0x01, 0x02, 0x03, 0x00}
	got = toRGBA(xrgb, uint32(client.ShmFormatXrgb8888), 1, 1, 4, false)
	assert.Equal(t, []byte{0x03, 0x02, 0x01, 0xff}, got, "padding byte becomes opaque alpha")

	abgr := []byte{0x01, 0x02, 0x03, 0x80}
	got = toRGBA(abgr, uint32(client.ShmFormatAbgr8888), 1, 1, 4, false)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x80}, got)
}

func TestToRGBAYInverted(t *testing.T) {
	// Two rows of one Abgr8888 pixel each, bottom-up delivery.
	data := []byte{
		0x10, 0x10, 0x10, 0xff,
		0x20, 0x20, 0x20, 0xff,
	}
	got := toRGBA(data, uint32(client.ShmFormatAbgr8888), 1, 2, 4, true)
	assert.EqualValues(t, 0x20, got[0], "last delivered row renders first")
	assert.EqualValues(t, 0x10, got[4])
}
