// Package geometry provides the screen-space rectangle type shared by
// capture, selection and save. The textual form is the "x,y WxH" format
// produced by slurp and accepted by grim.
package geometry

import (
	"fmt"
	"strconv"
	"strings"
)

// Geometry is a rectangle in logical screen coordinates. Width and height
// are always strictly positive; construct values through New or Parse.
type Geometry struct {
	X      int32
	Y      int32
	Width  int32
	Height int32
}

// New validates dimensions and returns a Geometry.
func New(x, y, width, height int32) (Geometry, error) {
	if width <= 0 || height <= 0 {
		return Geometry{}, fmt.Errorf("invalid geometry dimensions: width=%d height=%d", width, height)
	}
	return Geometry{X: x, Y: y, Width: width, Height: height}, nil
}

// Parse parses the "x,y WxH" form, e.g. "1920,0 2560x1440".
func Parse(s string) (Geometry, error) {
	input := strings.TrimSpace(s)
	if input == "" {
		return Geometry{}, fmt.Errorf("invalid geometry format: empty string")
	}

	parts := strings.Fields(input)
	if len(parts) != 2 {
		return Geometry{}, fmt.Errorf("invalid geometry format: expected 'x,y WxH', got %q", input)
	}

	xy := strings.Split(parts[0], ",")
	if len(xy) != 2 {
		return Geometry{}, fmt.Errorf("invalid geometry format: expected 'x,y' coordinates, got %q", parts[0])
	}
	wh := strings.Split(parts[1], "x")
	if len(wh) != 2 {
		return Geometry{}, fmt.Errorf("invalid geometry format: expected 'WxH' dimensions, got %q", parts[1])
	}

	x, err := strconv.ParseInt(xy[0], 10, 32)
	if err != nil {
		return Geometry{}, fmt.Errorf("invalid x coordinate %q: %w", xy[0], err)
	}
	y, err := strconv.ParseInt(xy[1], 10, 32)
	if err != nil {
		return Geometry{}, fmt.Errorf("invalid y coordinate %q: %w", xy[1], err)
	}
	width, err := strconv.ParseInt(wh[0], 10, 32)
	if err != nil {
		return Geometry{}, fmt.Errorf("invalid width %q: %w", wh[0], err)
	}
	height, err := strconv.ParseInt(wh[1], 10, 32)
	if err != nil {
		return Geometry{}, fmt.Errorf("invalid height %q: %w", wh[1], err)
	}

	return New(int32(x), int32(y), int32(width), int32(height))
}

// String renders the "x,y WxH" form; Parse(g.String()) == g.
func (g Geometry) String() string {
	return fmt.Sprintf("%d,%d %dx%d", g.X, g.Y, g.Width, g.Height)
}

// Contains reports whether the point lies inside the rectangle.
func (g Geometry) Contains(x, y int32) bool {
	return x >= g.X && x < g.X+g.Width && y >= g.Y && y < g.Y+g.Height
}

// Intersect returns the overlap of two rectangles and whether it is
// non-empty.
func (g Geometry) Intersect(o Geometry) (Geometry, bool) {
	x1 := max32(g.X, o.X)
	y1 := max32(g.Y, o.Y)
	x2 := min32(g.X+g.Width, o.X+o.Width)
	y2 := min32(g.Y+g.Height, o.Y+o.Height)
	if x2 <= x1 || y2 <= y1 {
		return Geometry{}, false
	}
	return Geometry{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}, true
}

// CloseTo reports whether every component of the two rectangles differs by
// at most one. Compositors round logical sizes differently across
// protocols, so matching tolerates off-by-one.
func (g Geometry) CloseTo(o Geometry) bool {
	return close32(g.X, o.X) && close32(g.Y, o.Y) &&
		close32(g.Width, o.Width) && close32(g.Height, o.Height)
}

func close32(a, b int32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= 1
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}
