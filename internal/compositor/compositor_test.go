package compositor

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shikoucore/hyprshot/internal/geometry"
)

// fakeIPC routes "binary args" strings to canned JSON.
func fakeIPC(t *testing.T, responses map[string]string) {
	t.Helper()
	orig := commandOutput
	commandOutput = func(_ context.Context, name string, args ...string) ([]byte, error) {
		key := name + " " + strings.Join(args, " ")
		resp, ok := responses[key]
		if !ok {
			return nil, fmt.Errorf("%s: command not found", key)
		}
		return []byte(resp), nil
	}
	t.Cleanup(func() { commandOutput = orig })
}

const hyprMonitorsJSON = `[
	{"name":"DP-1","x":0,"y":0,"width":3840,"height":2160,"scale":2.0,"activeWorkspace":{"id":1}},
	{"name":"DP-2","x":1920,"y":0,"width":1920,"height":1080,"scale":1.0,"activeWorkspace":{"id":2}}
]`

func TestActiveOutputGeometryHyprland(t *testing.T) {
	fakeIPC(t, map[string]string{
		"hyprctl activeworkspace -j": `{"id":1}`,
		"hyprctl monitors -j":        hyprMonitorsJSON,
	})

	g, err := ActiveOutputGeometry()
	require.NoError(t, err)
	assert.Equal(t, geometry.Geometry{X: 0, Y: 0, Width: 1920, Height: 1080}, g,
		"pixel size divided by scale")
}

func TestActiveOutputGeometryFallsBackToSway(t *testing.T) {
	fakeIPC(t, map[string]string{
		"swaymsg -t get_workspaces": `[{"name":"3","output":"HDMI-A-1","focused":true,"visible":true}]`,
		"swaymsg -t get_outputs":    `[{"name":"HDMI-A-1","rect":{"x":0,"y":0,"width":2560,"height":1440}}]`,
	})

	g, err := ActiveOutputGeometry()
	require.NoError(t, err)
	assert.Equal(t, geometry.Geometry{X: 0, Y: 0, Width: 2560, Height: 1440}, g)
}

func TestActiveWindowGeometryHyprland(t *testing.T) {
	fakeIPC(t, map[string]string{
		"hyprctl activewindow -j": `{"at":[100,200],"size":[800,600],"title":"editor"}`,
	})

	g, err := ActiveWindowGeometry()
	require.NoError(t, err)
	assert.Equal(t, geometry.Geometry{X: 100, Y: 200, Width: 800, Height: 600}, g)
}

func TestActiveWindowGeometrySwayFocused(t *testing.T) {
	tree := `{
		"type":"root","nodes":[
			{"type":"workspace","name":"1","nodes":[
				{"type":"con","app_id":"term","focused":false,"rect":{"x":0,"y":0,"width":100,"height":100}},
				{"type":"con","app_id":"browser","focused":true,"rect":{"x":100,"y":0,"width":640,"height":480}}
			]}
		]
	}`
	fakeIPC(t, map[string]string{
		"swaymsg -t get_tree": tree,
	})

	g, err := ActiveWindowGeometry()
	require.NoError(t, err)
	assert.Equal(t, geometry.Geometry{X: 100, Y: 0, Width: 640, Height: 480}, g)
}

func TestVisibleWindowBoxesFiltersByActiveWorkspace(t *testing.T) {
	fakeIPC(t, map[string]string{
		"hyprctl monitors -j": hyprMonitorsJSON,
		"hyprctl clients -j": `[
			{"at":[10,10],"size":[300,200],"title":"on ws 1","workspace":{"id":1}},
			{"at":[50,50],"size":[300,200],"title":"on ws 12","workspace":{"id":12}},
			{"at":[0,0],"size":[0,0],"title":"degenerate","workspace":{"id":1}}
		]`,
	})

	boxes, err := VisibleWindowBoxes()
	require.NoError(t, err)
	require.Len(t, boxes, 1, "workspace 12 is not active and id matching is exact")
	assert.Equal(t, "10,10 300x200 on ws 1", boxes[0].String())
}

func TestVisibleWindowBoxesSwayTree(t *testing.T) {
	tree := `{
		"type":"root","nodes":[
			{"type":"workspace","name":"1","nodes":[
				{"type":"con","app_id":"term","rect":{"x":0,"y":0,"width":500,"height":400},"name":"shell"}
			]},
			{"type":"workspace","name":"2","nodes":[
				{"type":"con","app_id":"hidden","rect":{"x":0,"y":0,"width":500,"height":400},"name":"hidden"}
			]}
		]
	}`
	fakeIPC(t, map[string]string{
		"swaymsg -t get_workspaces": `[{"name":"1","output":"DP-1","focused":true,"visible":true},{"name":"2","output":"DP-1","visible":false}]`,
		"swaymsg -t get_tree":       tree,
	})

	boxes, err := VisibleWindowBoxes()
	require.NoError(t, err)
	require.Len(t, boxes, 1)
	assert.Equal(t, "shell", boxes[0].Title)
}

func TestTrimToMonitorCropsOverhang(t *testing.T) {
	fakeIPC(t, map[string]string{
		"hyprctl monitors -j": `[{"name":"DP-1","x":0,"y":0,"width":1920,"height":1080,"scale":1.0,"activeWorkspace":{"id":1}}]`,
	})

	g, err := TrimToMonitor(geometry.Geometry{X: 1800, Y: 1000, Width: 400, Height: 300})
	require.NoError(t, err)
	assert.Equal(t, geometry.Geometry{X: 1800, Y: 1000, Width: 120, Height: 80}, g)
}

func TestTrimToMonitorKeepsContainedSelection(t *testing.T) {
	fakeIPC(t, map[string]string{
		"hyprctl monitors -j": `[{"name":"DP-2","x":100,"y":0,"width":1920,"height":1080,"scale":1.0,"activeWorkspace":{"id":1}}]`,
	})

	g, err := TrimToMonitor(geometry.Geometry{X: 150, Y: 0, Width: 200, Height: 100})
	require.NoError(t, err)
	assert.Equal(t, geometry.Geometry{X: 150, Y: 0, Width: 200, Height: 100}, g)
}

func TestTrimToMonitorFallsBackToRawGeometry(t *testing.T) {
	fakeIPC(t, map[string]string{})

	want := geometry.Geometry{X: 5, Y: 5, Width: 50, Height: 50}
	g, err := TrimToMonitor(want)
	require.NoError(t, err)
	assert.Equal(t, want, g)
}

func TestTrimToMonitorSwayFallback(t *testing.T) {
	fakeIPC(t, map[string]string{
		"swaymsg -t get_outputs": `[{"name":"eDP-1","rect":{"x":0,"y":0,"width":1280,"height":800}}]`,
	})

	g, err := TrimToMonitor(geometry.Geometry{X: 1200, Y: 700, Width: 200, Height: 200})
	require.NoError(t, err)
	assert.Equal(t, geometry.Geometry{X: 1200, Y: 700, Width: 80, Height: 100}, g)
}
