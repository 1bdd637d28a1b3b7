// Package capture grabs pixels from the compositor. The primary source is
// the wlr-screencopy protocol; frames come back as tightly packed RGBA with
// the output's logical geometry attached so callers can place them in the
// global coordinate space.
package capture

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/shikoucore/hyprshot/internal/geometry"
)

// ErrMissingScreencopy indicates the compositor does not advertise
// zwlr_screencopy_manager_v1. Screen freezing degrades gracefully on this
// error instead of failing the capture.
var ErrMissingScreencopy = errors.New("compositor does not support screencopy")

// IsMissingScreencopy reports whether err means the screencopy extension is
// unavailable. Besides the local sentinel it recognizes foreign errors that
// mention the protocol by name, since external tools word this differently.
func IsMissingScreencopy(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrMissingScreencopy) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "screencopy")
}

// Output describes one monitor as a capture target.
type Output struct {
	Name        string
	Geometry    geometry.Geometry // logical, global compositor space
	Scale       float64
	PixelWidth  int32
	PixelHeight int32
}

// Frame is one captured image. Data is RGBA, top-to-bottom, Stride bytes
// per row. Output records where the frame sits in the global space.
type Frame struct {
	Output Output
	Width  int32
	Height int32
	Stride int32
	Data   []byte
}

// Source lists outputs and captures frames from them. Implementations own
// their compositor connection.
type Source interface {
	Outputs() ([]Output, error)
	CaptureOutput(name string) (*Frame, error)
	Close() error
}

// CaptureRegion captures every output intersecting region and composes the
// overlapping parts into one logical-resolution image. Scaled outputs are
// downsampled with nearest-neighbor.
func CaptureRegion(src Source, region geometry.Geometry) (*image.RGBA, error) {
	outputs, err := src.Outputs()
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, int(region.Width), int(region.Height)))
	covered := false

	for _, out := range outputs {
		overlap, ok := region.Intersect(out.Geometry)
		if !ok {
			continue
		}
		frame, err := src.CaptureOutput(out.Name)
		if err != nil {
			return nil, fmt.Errorf("capture output %q: %w", out.Name, err)
		}
		blitFrame(img, region, frame, overlap)
		covered = true
	}

	if !covered {
		return nil, fmt.Errorf("region %s does not intersect any output", region)
	}
	return img, nil
}

// blitFrame copies the overlap rectangle out of frame into img. Frame
// pixels are addressed by mapping logical coordinates through the output's
// scale.
func blitFrame(img *image.RGBA, region geometry.Geometry, frame *Frame, overlap geometry.Geometry) {
	out := frame.Output
	scaleX := float64(frame.Width) / float64(out.Geometry.Width)
	scaleY := float64(frame.Height) / float64(out.Geometry.Height)

	for ly := int32(0); ly < overlap.Height; ly++ {
		for lx := int32(0); lx < overlap.Width; lx++ {
			srcX := int32(float64(overlap.X-out.Geometry.X+lx) * scaleX)
			srcY := int32(float64(overlap.Y-out.Geometry.Y+ly) * scaleY)
			if srcX >= frame.Width {
				srcX = frame.Width - 1
			}
			if srcY >= frame.Height {
				srcY = frame.Height - 1
			}
			si := int(srcY)*int(frame.Stride) + int(srcX)*4
			di := img.PixOffset(int(overlap.X-region.X+lx), int(overlap.Y-region.Y+ly))
			copy(img.Pix[di:di+4], frame.Data[si:si+4])
		}
	}
}
