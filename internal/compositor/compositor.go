// Package compositor answers geometry questions over the compositor's own
// IPC: hyprctl on Hyprland, swaymsg on Sway. Every query is bounded by a
// timeout and each helper falls through the dialects in order, so running
// on either compositor needs no configuration.
package compositor

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strings"
	"time"

	"github.com/shikoucore/hyprshot/internal/geometry"
	"github.com/shikoucore/hyprshot/internal/logger"
)

const ipcTimeout = 3 * time.Second

// commandOutput runs one IPC binary and returns its stdout. Replaced in
// tests with canned JSON.
var commandOutput = func(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return out, nil
}

func queryJSON(name string, args []string, out any) error {
	ctx, cancel := context.WithTimeout(context.Background(), ipcTimeout)
	defer cancel()
	raw, err := commandOutput(ctx, name, args...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse %s output: %w", name, err)
	}
	return nil
}

type hyprWorkspaceRef struct {
	ID int64 `json:"id"`
}

type hyprMonitor struct {
	Name            string           `json:"name"`
	X               int32            `json:"x"`
	Y               int32            `json:"y"`
	Width           int32            `json:"width"`
	Height          int32            `json:"height"`
	Scale           float64          `json:"scale"`
	ActiveWorkspace hyprWorkspaceRef `json:"activeWorkspace"`
}

type hyprClient struct {
	At        [2]int64         `json:"at"`
	Size      [2]int64         `json:"size"`
	Title     string           `json:"title"`
	Workspace hyprWorkspaceRef `json:"workspace"`
}

type swayRect struct {
	X      int32 `json:"x"`
	Y      int32 `json:"y"`
	Width  int32 `json:"width"`
	Height int32 `json:"height"`
}

type swayOutput struct {
	Name string   `json:"name"`
	Rect swayRect `json:"rect"`
}

type swayWorkspace struct {
	Name    string `json:"name"`
	Output  string `json:"output"`
	Focused bool   `json:"focused"`
	Visible bool   `json:"visible"`
}

type swayNode struct {
	Type             string          `json:"type"`
	Name             string          `json:"name"`
	AppID            *string         `json:"app_id"`
	WindowProperties json.RawMessage `json:"window_properties"`
	Focused          bool            `json:"focused"`
	Rect             swayRect        `json:"rect"`
	Nodes            []swayNode      `json:"nodes"`
	FloatingNodes    []swayNode      `json:"floating_nodes"`
}

var log = logger.WithComponent("compositor")

// ActiveOutputGeometry returns the logical geometry of the monitor holding
// the focused workspace. Hyprland is asked first, then Sway.
func ActiveOutputGeometry() (geometry.Geometry, error) {
	if g, err := activeOutputHyprland(); err == nil {
		return g, nil
	} else {
		log.Debug().Err(err).Msg("hyprctl active output lookup failed, trying sway")
	}
	if g, err := activeOutputSway(); err == nil {
		return g, nil
	}
	return geometry.Geometry{}, fmt.Errorf("active output is only supported on Hyprland or Sway")
}

func activeOutputHyprland() (geometry.Geometry, error) {
	var active hyprWorkspaceRef
	if err := queryJSON("hyprctl", []string{"activeworkspace", "-j"}, &active); err != nil {
		return geometry.Geometry{}, err
	}
	monitors, err := hyprlandMonitors()
	if err != nil {
		return geometry.Geometry{}, err
	}
	for _, m := range monitors {
		if m.ActiveWorkspace.ID != active.ID {
			continue
		}
		scale := m.Scale
		if scale <= 0 {
			scale = 1
		}
		return geometry.New(m.X, m.Y,
			int32(math.Round(float64(m.Width)/scale)),
			int32(math.Round(float64(m.Height)/scale)))
	}
	return geometry.Geometry{}, fmt.Errorf("no monitor holds workspace %d", active.ID)
}

func activeOutputSway() (geometry.Geometry, error) {
	var workspaces []swayWorkspace
	if err := queryJSON("swaymsg", []string{"-t", "get_workspaces"}, &workspaces); err != nil {
		return geometry.Geometry{}, err
	}
	focusedOutput := ""
	for _, w := range workspaces {
		if w.Focused {
			focusedOutput = w.Output
			break
		}
	}
	if focusedOutput == "" {
		return geometry.Geometry{}, fmt.Errorf("no focused sway workspace")
	}

	var outputs []swayOutput
	if err := queryJSON("swaymsg", []string{"-t", "get_outputs"}, &outputs); err != nil {
		return geometry.Geometry{}, err
	}
	for _, o := range outputs {
		if o.Name == focusedOutput {
			return geometry.New(o.Rect.X, o.Rect.Y, o.Rect.Width, o.Rect.Height)
		}
	}
	return geometry.Geometry{}, fmt.Errorf("focused output %q not reported by sway", focusedOutput)
}

// ActiveWindowGeometry returns the rectangle of the focused window.
func ActiveWindowGeometry() (geometry.Geometry, error) {
	if g, err := activeWindowHyprland(); err == nil {
		return g, nil
	} else {
		log.Debug().Err(err).Msg("hyprctl active window lookup failed, trying sway")
	}
	if g, err := activeWindowSway(); err == nil {
		return g, nil
	}
	return geometry.Geometry{}, fmt.Errorf("active window is only supported on Hyprland or Sway")
}

func activeWindowHyprland() (geometry.Geometry, error) {
	var win hyprClient
	if err := queryJSON("hyprctl", []string{"activewindow", "-j"}, &win); err != nil {
		return geometry.Geometry{}, err
	}
	return geometry.New(int32(win.At[0]), int32(win.At[1]), int32(win.Size[0]), int32(win.Size[1]))
}

func activeWindowSway() (geometry.Geometry, error) {
	var tree swayNode
	if err := queryJSON("swaymsg", []string{"-t", "get_tree"}, &tree); err != nil {
		return geometry.Geometry{}, err
	}
	focused := findFocusedWindow(&tree)
	if focused == nil {
		return geometry.Geometry{}, fmt.Errorf("no focused sway window")
	}
	r := focused.Rect
	return geometry.New(r.X, r.Y, r.Width, r.Height)
}

// WindowBox is one selectable window, formatted for slurp's stdin as
// "x,y WxH title".
type WindowBox struct {
	Geometry geometry.Geometry
	Title    string
}

func (b WindowBox) String() string {
	return fmt.Sprintf("%s %s", b.Geometry, b.Title)
}

// VisibleWindowBoxes lists the windows on currently visible workspaces.
func VisibleWindowBoxes() ([]WindowBox, error) {
	if boxes, err := windowBoxesHyprland(); err == nil {
		return boxes, nil
	} else {
		log.Debug().Err(err).Msg("hyprctl window listing failed, trying sway")
	}
	if boxes, err := windowBoxesSway(); err == nil {
		return boxes, nil
	}
	return nil, fmt.Errorf("window selection is only supported on Hyprland or Sway")
}

func hyprlandMonitors() ([]hyprMonitor, error) {
	var monitors []hyprMonitor
	if err := queryJSON("hyprctl", []string{"monitors", "-j"}, &monitors); err != nil {
		return nil, err
	}
	return monitors, nil
}

func windowBoxesHyprland() ([]WindowBox, error) {
	monitors, err := hyprlandMonitors()
	if err != nil {
		return nil, err
	}
	var clients []hyprClient
	if err := queryJSON("hyprctl", []string{"clients", "-j"}, &clients); err != nil {
		return nil, err
	}

	// Exact workspace id matching, not substring: "2" must not match "12".
	activeWorkspaces := map[int64]bool{}
	for _, m := range monitors {
		activeWorkspaces[m.ActiveWorkspace.ID] = true
	}

	var boxes []WindowBox
	for _, c := range clients {
		if !activeWorkspaces[c.Workspace.ID] {
			continue
		}
		g, err := geometry.New(int32(c.At[0]), int32(c.At[1]), int32(c.Size[0]), int32(c.Size[1]))
		if err != nil {
			continue
		}
		boxes = append(boxes, WindowBox{Geometry: g, Title: c.Title})
	}
	if len(boxes) == 0 {
		return nil, fmt.Errorf("no visible windows reported by hyprctl")
	}
	return boxes, nil
}

func windowBoxesSway() ([]WindowBox, error) {
	var workspaces []swayWorkspace
	if err := queryJSON("swaymsg", []string{"-t", "get_workspaces"}, &workspaces); err != nil {
		return nil, err
	}
	visible := map[string]bool{}
	for _, w := range workspaces {
		if w.Visible {
			visible[w.Name] = true
		}
	}

	var tree swayNode
	if err := queryJSON("swaymsg", []string{"-t", "get_tree"}, &tree); err != nil {
		return nil, err
	}

	var boxes []WindowBox
	collectVisibleWindows(&tree, visible, false, &boxes)
	if len(boxes) == 0 {
		return nil, fmt.Errorf("no visible windows reported by sway")
	}
	return boxes, nil
}

func collectVisibleWindows(node *swayNode, visibleWorkspaces map[string]bool, visible bool, boxes *[]WindowBox) {
	if node.Type == "workspace" {
		visible = visibleWorkspaces[node.Name]
	}
	if visible && isWindowNode(node) {
		if g, err := geometry.New(node.Rect.X, node.Rect.Y, node.Rect.Width, node.Rect.Height); err == nil {
			title := strings.ReplaceAll(node.Name, "\n", " ")
			*boxes = append(*boxes, WindowBox{Geometry: g, Title: title})
		}
	}
	for i := range node.Nodes {
		collectVisibleWindows(&node.Nodes[i], visibleWorkspaces, visible, boxes)
	}
	for i := range node.FloatingNodes {
		collectVisibleWindows(&node.FloatingNodes[i], visibleWorkspaces, visible, boxes)
	}
}

func isWindowNode(node *swayNode) bool {
	if node.Type != "con" {
		return false
	}
	return node.AppID != nil || len(node.WindowProperties) > 0
}

func findFocusedWindow(node *swayNode) *swayNode {
	if node.Focused && isWindowNode(node) {
		return node
	}
	for i := range node.Nodes {
		if found := findFocusedWindow(&node.Nodes[i]); found != nil {
			return found
		}
	}
	for i := range node.FloatingNodes {
		if found := findFocusedWindow(&node.FloatingNodes[i]); found != nil {
			return found
		}
	}
	return nil
}

// TrimToMonitor crops g to the monitor containing its origin. When neither
// IPC dialect can identify the monitor the raw geometry is returned
// unchanged; capture proceeds with whatever the selector produced.
func TrimToMonitor(g geometry.Geometry) (geometry.Geometry, error) {
	monitor, found := monitorAt(g.X, g.Y)
	if !found {
		log.Warn().Stringer("geometry", g).Msg("could not determine monitor bounds, using raw geometry")
		return g, nil
	}

	x, y := g.X, g.Y
	width, height := g.Width, g.Height
	if x+width > monitor.X+monitor.Width {
		width = monitor.X + monitor.Width - x
	}
	if y+height > monitor.Y+monitor.Height {
		height = monitor.Y + monitor.Height - y
	}
	if x < monitor.X {
		width -= monitor.X - x
		x = monitor.X
	}
	if y < monitor.Y {
		height -= monitor.Y - y
		y = monitor.Y
	}

	cropped, err := geometry.New(x, y, width, height)
	if err != nil {
		return geometry.Geometry{}, fmt.Errorf("selection lies outside monitor %s: %w", monitor, err)
	}
	return cropped, nil
}

func monitorAt(x, y int32) (geometry.Geometry, bool) {
	if monitors, err := hyprlandMonitors(); err == nil {
		for _, m := range monitors {
			g, err := geometry.New(m.X, m.Y, m.Width, m.Height)
			if err != nil {
				continue
			}
			if g.Contains(x, y) {
				return g, true
			}
		}
	}

	var outputs []swayOutput
	if err := queryJSON("swaymsg", []string{"-t", "get_outputs"}, &outputs); err == nil {
		for _, o := range outputs {
			g, err := geometry.New(o.Rect.X, o.Rect.Y, o.Rect.Width, o.Rect.Height)
			if err != nil {
				continue
			}
			if g.Contains(x, y) {
				return g, true
			}
		}
	}

	return geometry.Geometry{}, false
}
