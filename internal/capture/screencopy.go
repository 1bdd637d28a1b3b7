package capture

import (
	"fmt"

	"github.com/rajveermalviya/go-wayland/wayland/client"
	"github.com/rs/zerolog"

	"github.com/shikoucore/hyprshot/internal/logger"
	"github.com/shikoucore/hyprshot/internal/wayland"
	"github.com/shikoucore/hyprshot/internal/wayland/proto/screencopy"
)

// ScreencopySource captures frames over zwlr_screencopy_manager_v1. All
// methods must be called from one goroutine; the underlying connection is
// not synchronized.
type ScreencopySource struct {
	conn     *wayland.Client
	ownsConn bool
	log      *zerolog.Logger
}

// NewScreencopySource opens its own compositor connection.
func NewScreencopySource() (*ScreencopySource, error) {
	conn, err := wayland.Connect()
	if err != nil {
		return nil, err
	}
	src, err := NewScreencopySourceFrom(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	src.ownsConn = true
	return src, nil
}

// NewScreencopySourceFrom wraps an existing connection. The caller keeps
// ownership and must close the connection itself.
func NewScreencopySourceFrom(conn *wayland.Client) (*ScreencopySource, error) {
	if conn.Screencopy == nil {
		return nil, ErrMissingScreencopy
	}
	if conn.Shm == nil {
		return nil, fmt.Errorf("compositor did not advertise wl_shm")
	}
	return &ScreencopySource{
		conn: conn,
		log:  logger.WithComponent("screencopy"),
	}, nil
}

// Outputs lists the outputs usable as capture targets. Outputs that never
// reported a mode are skipped.
func (s *ScreencopySource) Outputs() ([]Output, error) {
	descs := s.conn.Outputs()
	outputs := make([]Output, 0, len(descs))
	for _, d := range descs {
		if !d.HasMode {
			continue
		}
		geo, err := d.LogicalGeometry()
		if err != nil {
			s.log.Warn().Err(err).Str("output", d.Name).Msg("skipping output without usable geometry")
			continue
		}
		outputs = append(outputs, Output{
			Name:        d.Name,
			Geometry:    geo,
			Scale:       d.EffectiveScale(),
			PixelWidth:  d.PixelWidth,
			PixelHeight: d.PixelHeight,
		})
	}
	return outputs, nil
}

// CaptureOutput grabs one full frame of the named output.
func (s *ScreencopySource) CaptureOutput(name string) (*Frame, error) {
	desc := s.conn.FindOutput(name)
	if desc == nil {
		return nil, fmt.Errorf("no output named %q", name)
	}
	geo, err := desc.LogicalGeometry()
	if err != nil {
		return nil, err
	}

	frame, err := s.conn.Screencopy.CaptureOutput(0, desc.Output)
	if err != nil {
		return nil, fmt.Errorf("request frame for %q: %w", name, err)
	}

	var (
		shmBuf    *wayland.ShmBuffer
		pool      *client.ShmPool
		wlBuf     *client.Buffer
		format    uint32
		width     uint32
		height    uint32
		stride    uint32
		yInverted bool
		ready     bool
		failed    bool
		copyErr   error
	)

	frame.SetBufferHandler(func(e screencopy.ZwlrScreencopyFrameV1BufferEvent) {
		if !formatSupported(e.Format) {
			return
		}
		if shmBuf != nil {
			return
		}
		if e.Stride < e.Width*4 {
			copyErr = fmt.Errorf("compositor reported stride %d for width %d", e.Stride, e.Width)
			return
		}
		buf, err := wayland.NewShmBuffer(int(e.Stride * e.Height))
		if err != nil {
			copyErr = err
			return
		}
		shmBuf = buf
		format = e.Format
		width = e.Width
		height = e.Height
		stride = e.Stride
	})

	frame.SetFlagsHandler(func(e screencopy.ZwlrScreencopyFrameV1FlagsEvent) {
		yInverted = e.Flags&uint32(screencopy.ZwlrScreencopyFrameV1FlagsYInvert) != 0
	})

	frame.SetBufferDoneHandler(func(screencopy.ZwlrScreencopyFrameV1BufferDoneEvent) {
		if shmBuf == nil {
			if copyErr == nil {
				copyErr = fmt.Errorf("no supported wl_shm format offered for output %q", name)
			}
			failed = true
			return
		}
		var err error
		pool, err = s.conn.Shm.CreatePool(int(shmBuf.Fd()), int32(shmBuf.Size()))
		if err != nil {
			copyErr = fmt.Errorf("create shm pool: %w", err)
			failed = true
			return
		}
		wlBuf, err = pool.CreateBuffer(0, int32(width), int32(height), int32(stride), format)
		if err != nil {
			copyErr = fmt.Errorf("create wl_buffer: %w", err)
			failed = true
			return
		}
		if err := frame.Copy(wlBuf); err != nil {
			copyErr = fmt.Errorf("copy frame: %w", err)
			failed = true
		}
	})

	frame.SetReadyHandler(func(screencopy.ZwlrScreencopyFrameV1ReadyEvent) {
		ready = true
	})
	frame.SetFailedHandler(func(screencopy.ZwlrScreencopyFrameV1FailedEvent) {
		failed = true
	})

	for !ready && !failed {
		if err := s.conn.Context().Dispatch(); err != nil {
			cleanupFrame(frame, wlBuf, pool, shmBuf)
			return nil, fmt.Errorf("dispatch: %w", err)
		}
	}

	if failed {
		cleanupFrame(frame, wlBuf, pool, shmBuf)
		if copyErr != nil {
			return nil, copyErr
		}
		return nil, fmt.Errorf("compositor failed to capture output %q", name)
	}

	rgba := toRGBA(shmBuf.Data(), format, int(width), int(height), int(stride), yInverted)
	cleanupFrame(frame, wlBuf, pool, shmBuf)

	out := Output{
		Name:        name,
		Geometry:    geo,
		Scale:       desc.EffectiveScale(),
		PixelWidth:  desc.PixelWidth,
		PixelHeight: desc.PixelHeight,
	}
	return &Frame{
		Output: out,
		Width:  int32(width),
		Height: int32(height),
		Stride: int32(width) * 4,
		Data:   rgba,
	}, nil
}

// Close releases the connection if this source opened it.
func (s *ScreencopySource) Close() error {
	if s.ownsConn && s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	return nil
}

func cleanupFrame(frame *screencopy.ZwlrScreencopyFrameV1, wlBuf *client.Buffer, pool *client.ShmPool, shmBuf *wayland.ShmBuffer) {
	_ = frame.Destroy()
	if wlBuf != nil {
		_ = wlBuf.Destroy()
	}
	if pool != nil {
		_ = pool.Destroy()
	}
	if shmBuf != nil {
		_ = shmBuf.Close()
	}
}

func formatSupported(format uint32) bool {
	switch format {
	case uint32(client.ShmFormatArgb8888),
		uint32(client.ShmFormatXrgb8888),
		uint32(client.ShmFormatAbgr8888),
		uint32(client.ShmFormatXbgr8888):
		return true
	}
	return false
}

// toRGBA converts a 32-bit wl_shm frame into tightly packed RGBA,
// flipping rows when the compositor delivered them bottom-up. wl_shm
// formats are little-endian, so Argb8888 is B,G,R,A in memory.
func toRGBA(data []byte, format uint32, width, height, stride int, yInverted bool) []byte {
	out := make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		srcY := y
		if yInverted {
			srcY = height - 1 - y
		}
		row := data[srcY*stride:]
		for x := 0; x < width; x++ {
			s := row[x*4 : x*4+4]
			d := out[(y*width+x)*4:]
			switch format {
			case uint32(client.ShmFormatArgb8888):
				d[0], d[1], d[2], d[3] = s[2], s[1], s[0], s[3]
			case uint32(client.ShmFormatXrgb8888):
				d[0], d[1], d[2], d[3] = s[2], s[1], s[0], 0xff
			case uint32(client.ShmFormatAbgr8888):
				d[0], d[1], d[2], d[3] = s[0], s[1], s[2], s[3]
			case uint32(client.ShmFormatXbgr8888):
				d[0], d[1], d[2], d[3] = s[0], s[1], s[2], 0xff
			}
		}
	}
	return out
}
