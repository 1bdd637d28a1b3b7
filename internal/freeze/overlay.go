package freeze

import (
	"fmt"
	"math"

	"github.com/rajveermalviya/go-wayland/wayland/client"
	"github.com/rs/zerolog"

	"github.com/shikoucore/hyprshot/internal/capture"
	"github.com/shikoucore/hyprshot/internal/wayland"
	"github.com/shikoucore/hyprshot/internal/wayland/proto/layershell"
)

const overlayNamespace = "hyprshot-freeze"

// overlaySurface is one frozen output: a layer surface pinned above
// everything, showing the captured frame, with an empty input region so the
// selector underneath keeps receiving events.
type overlaySurface struct {
	layerSurface *layershell.ZwlrLayerSurfaceV1
	surface      *client.Surface
	buffer       *client.Buffer
	pool         *client.ShmPool
	shm          *wayland.ShmBuffer
	configured   bool
}

// buildOverlay freezes one output. The frame's pixels are converted into an
// ARGB shared-memory buffer; the buffer is attached only after the first
// configure is acknowledged, as the protocol requires.
func buildOverlay(conn *wayland.Client, desc *wayland.OutputDescriptor, frame *capture.Frame, log *zerolog.Logger) (*overlaySurface, error) {
	width := int(frame.Width)
	height := int(frame.Height)
	size := width * height * 4
	if len(frame.Data) != size {
		return nil, fmt.Errorf("%w: output %q announced %dx%d but carries %d bytes",
			ErrFormat, frame.Output.Name, width, height, len(frame.Data))
	}

	shmBuf, err := wayland.NewShmBuffer(size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResource, err)
	}

	ov := &overlaySurface{shm: shmBuf}
	rgbaToArgb(frame.Data, shmBuf.Data())

	ov.pool, err = conn.Shm.CreatePool(int(shmBuf.Fd()), int32(size))
	if err != nil {
		ov.destroy(log)
		return nil, fmt.Errorf("%w: create pool: %v", ErrResource, err)
	}
	ov.buffer, err = ov.pool.CreateBuffer(0, int32(width), int32(height), int32(width*4), uint32(client.ShmFormatArgb8888))
	if err != nil {
		ov.destroy(log)
		return nil, fmt.Errorf("%w: create buffer: %v", ErrResource, err)
	}

	ov.surface, err = conn.Compositor.CreateSurface()
	if err != nil {
		ov.destroy(log)
		return nil, fmt.Errorf("create surface: %w", err)
	}

	// Empty input region: pointer and keyboard pass through to the
	// selector running underneath.
	inputRegion, err := conn.Compositor.CreateRegion()
	if err != nil {
		ov.destroy(log)
		return nil, fmt.Errorf("create input region: %w", err)
	}
	if err := ov.surface.SetInputRegion(inputRegion); err != nil {
		ov.destroy(log)
		return nil, fmt.Errorf("set input region: %w", err)
	}
	_ = inputRegion.Destroy()

	ov.layerSurface, err = conn.LayerShell.GetLayerSurface(ov.surface, desc.Output, layershell.ZwlrLayerShellV1LayerOverlay, overlayNamespace)
	if err != nil {
		ov.destroy(log)
		return nil, fmt.Errorf("get layer surface: %w", err)
	}

	_ = ov.layerSurface.SetAnchor(layershell.ZwlrLayerSurfaceV1AnchorTop |
		layershell.ZwlrLayerSurfaceV1AnchorBottom |
		layershell.ZwlrLayerSurfaceV1AnchorLeft |
		layershell.ZwlrLayerSurfaceV1AnchorRight)
	_ = ov.layerSurface.SetExclusiveZone(-1)
	_ = ov.layerSurface.SetKeyboardInteractivity(layershell.ZwlrLayerSurfaceV1KeyboardInteractivityNone)

	if logical, err := desc.LogicalGeometry(); err == nil {
		_ = ov.layerSurface.SetSize(uint32(logical.Width), uint32(logical.Height))
	}

	bufferScale := int32(math.Round(desc.EffectiveScale()))
	if bufferScale < 1 {
		bufferScale = 1
	}

	closed := false
	ov.layerSurface.SetConfigureHandler(func(e layershell.ZwlrLayerSurfaceV1ConfigureEvent) {
		_ = ov.layerSurface.AckConfigure(e.Serial)
		if ov.configured {
			return
		}
		_ = ov.surface.SetBufferScale(bufferScale)
		_ = ov.surface.Attach(ov.buffer, 0, 0)
		_ = ov.surface.Damage(0, 0, int32(width), int32(height))
		_ = ov.surface.Commit()
		ov.configured = true
	})
	ov.layerSurface.SetClosedHandler(func(layershell.ZwlrLayerSurfaceV1ClosedEvent) {
		closed = true
	})

	// The initial commit has no buffer; it starts the configure sequence.
	if err := ov.surface.Commit(); err != nil {
		ov.destroy(log)
		return nil, fmt.Errorf("commit surface: %w", err)
	}

	for !ov.configured && !closed {
		if err := conn.Roundtrip(); err != nil {
			ov.destroy(log)
			return nil, fmt.Errorf("await configure: %w", err)
		}
	}
	if closed {
		ov.destroy(log)
		return nil, fmt.Errorf("compositor closed overlay for output %q", frame.Output.Name)
	}

	log.Debug().
		Str("output", frame.Output.Name).
		Int("width", width).
		Int("height", height).
		Int32("buffer_scale", bufferScale).
		Msg("overlay committed")

	return ov, nil
}

// destroy releases protocol objects in creation order, then the backing
// memory. Tolerates partially built overlays.
func (ov *overlaySurface) destroy(log *zerolog.Logger) {
	if ov.layerSurface != nil {
		if err := ov.layerSurface.Destroy(); err != nil {
			log.Debug().Err(err).Msg("destroy layer surface")
		}
		ov.layerSurface = nil
	}
	if ov.surface != nil {
		if err := ov.surface.Destroy(); err != nil {
			log.Debug().Err(err).Msg("destroy surface")
		}
		ov.surface = nil
	}
	if ov.buffer != nil {
		if err := ov.buffer.Destroy(); err != nil {
			log.Debug().Err(err).Msg("destroy buffer")
		}
		ov.buffer = nil
	}
	if ov.pool != nil {
		if err := ov.pool.Destroy(); err != nil {
			log.Debug().Err(err).Msg("destroy pool")
		}
		ov.pool = nil
	}
	if ov.shm != nil {
		if err := ov.shm.Close(); err != nil {
			log.Debug().Err(err).Msg("close shm region")
		}
		ov.shm = nil
	}
}

// rgbaToArgb rewrites R,G,B,A pixels into little-endian ARGB (B,G,R,A in
// memory), the baseline wl_shm format.
func rgbaToArgb(src, dst []byte) {
	n := len(src) / 4 * 4
	for i := 0; i < n; i += 4 {
		dst[i] = src[i+2]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i]
		dst[i+3] = src[i+3]
	}
}
