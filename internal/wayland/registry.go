// Package wayland owns the client connection to the compositor: registry
// enumeration, protocol extension binding, output discovery and shared
// memory for wl_shm pools.
package wayland

import (
	"errors"
	"fmt"

	"github.com/rajveermalviya/go-wayland/wayland/client"
	"github.com/rs/zerolog"

	"github.com/shikoucore/hyprshot/internal/geometry"
	"github.com/shikoucore/hyprshot/internal/logger"
	"github.com/shikoucore/hyprshot/internal/wayland/proto/layershell"
	"github.com/shikoucore/hyprshot/internal/wayland/proto/screencopy"
	"github.com/shikoucore/hyprshot/internal/wayland/proto/xdgoutput"
)

// ErrConnection indicates the Wayland display could not be reached. Callers
// treat this as "not running under a Wayland session".
var ErrConnection = errors.New("wayland connection failed")

// Versions requested when binding globals. The advertised version is used
// when lower.
const (
	compositorVersion       = 5
	shmVersion              = 1
	outputVersion           = 4
	layerShellVersion       = 4
	xdgOutputManagerVersion = 3
	screencopyVersion       = 3
)

// OutputDescriptor accumulates everything the compositor reports about one
// wl_output. Fields arrive across several events, so each group carries a
// Has flag; a descriptor is usable once HasMode is set.
type OutputDescriptor struct {
	Output *client.Output

	// wl_output.geometry
	X, Y       int32
	Make       string
	Model      string
	HasPhysics bool

	// wl_output.mode, current mode only
	PixelWidth  int32
	PixelHeight int32
	HasMode     bool

	// wl_output.scale
	Scale    int32
	HasScale bool

	// wl_output.name / wl_output.description (version 4)
	Name           string
	HasName        bool
	Description    string
	HasDescription bool

	// zxdg_output_v1
	LogicalX       int32
	LogicalY       int32
	HasLogicalPos  bool
	LogicalWidth   int32
	LogicalHeight  int32
	HasLogicalSize bool
}

// LogicalGeometry returns the output's rectangle in the global compositor
// space. xdg-output values win when present; otherwise the mode size is
// divided by the integer scale.
func (d *OutputDescriptor) LogicalGeometry() (geometry.Geometry, error) {
	if d.HasLogicalPos && d.HasLogicalSize {
		return geometry.New(d.LogicalX, d.LogicalY, d.LogicalWidth, d.LogicalHeight)
	}
	if !d.HasMode {
		return geometry.Geometry{}, fmt.Errorf("output %q reported no mode", d.Name)
	}
	scale := d.Scale
	if !d.HasScale || scale <= 0 {
		scale = 1
	}
	x, y := d.X, d.Y
	if d.HasLogicalPos {
		x, y = d.LogicalX, d.LogicalY
	}
	return geometry.New(x, y, d.PixelWidth/scale, d.PixelHeight/scale)
}

// EffectiveScale returns the pixels-per-logical-unit ratio. Fractional
// scaling makes the advertised integer scale wrong, so when the mode and
// logical sizes disagree with it by more than a tenth the ratio is
// recomputed from those.
func (d *OutputDescriptor) EffectiveScale() float64 {
	advertised := float64(1)
	if d.HasScale && d.Scale > 0 {
		advertised = float64(d.Scale)
	}
	if d.HasMode && d.HasLogicalSize && d.LogicalWidth > 0 {
		ratio := float64(d.PixelWidth) / float64(d.LogicalWidth)
		if diff := ratio - advertised; diff > 0.1 || diff < -0.1 {
			return ratio
		}
	}
	return advertised
}

// Client is one connection to the compositor with the globals this program
// needs already bound. Extension fields are nil when the compositor does
// not advertise them; callers check before use.
type Client struct {
	display  *client.Display
	ctx      *client.Context
	registry *client.Registry

	Compositor       *client.Compositor
	Shm              *client.Shm
	LayerShell       *layershell.ZwlrLayerShellV1
	XdgOutputManager *xdgoutput.ZxdgOutputManagerV1
	Screencopy       *screencopy.ZwlrScreencopyManagerV1

	outputs []*OutputDescriptor
	log     *zerolog.Logger
}

// Connect dials the Wayland display named by WAYLAND_DISPLAY and binds the
// globals. Returns ErrConnection when the socket cannot be reached.
func Connect() (*Client, error) {
	display, err := client.Connect("")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	c := &Client{
		display: display,
		ctx:     display.Context(),
		log:     logger.WithComponent("wayland"),
	}

	registry, err := display.GetRegistry()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("%w: get registry: %v", ErrConnection, err)
	}
	c.registry = registry
	registry.SetGlobalHandler(c.handleGlobal)

	// First roundtrip delivers the globals, second drains the wl_output
	// events emitted in response to binding.
	if err := c.Roundtrip(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.Roundtrip(); err != nil {
		c.Close()
		return nil, err
	}

	if c.XdgOutputManager != nil {
		if err := c.requestXdgOutputs(); err != nil {
			c.Close()
			return nil, err
		}
	}

	c.log.Debug().
		Int("outputs", len(c.outputs)).
		Bool("layer_shell", c.LayerShell != nil).
		Bool("screencopy", c.Screencopy != nil).
		Bool("xdg_output", c.XdgOutputManager != nil).
		Msg("registry enumeration complete")

	return c, nil
}

func (c *Client) handleGlobal(e client.RegistryGlobalEvent) {
	switch e.Interface {
	case "wl_compositor":
		compositor := client.NewCompositor(c.ctx)
		if err := c.registry.Bind(e.Name, e.Interface, minU32(e.Version, compositorVersion), compositor); err != nil {
			c.log.Warn().Err(err).Msg("bind wl_compositor failed")
			return
		}
		c.Compositor = compositor
	case "wl_shm":
		shm := client.NewShm(c.ctx)
		if err := c.registry.Bind(e.Name, e.Interface, minU32(e.Version, shmVersion), shm); err != nil {
			c.log.Warn().Err(err).Msg("bind wl_shm failed")
			return
		}
		c.Shm = shm
	case "wl_output":
		output := client.NewOutput(c.ctx)
		if err := c.registry.Bind(e.Name, e.Interface, minU32(e.Version, outputVersion), output); err != nil {
			c.log.Warn().Err(err).Msg("bind wl_output failed")
			return
		}
		desc := &OutputDescriptor{Output: output}
		c.outputs = append(c.outputs, desc)
		c.watchOutput(output, desc)
	case layershell.ZwlrLayerShellV1InterfaceName:
		ls := layershell.NewZwlrLayerShellV1(c.ctx)
		if err := c.registry.Bind(e.Name, e.Interface, minU32(e.Version, layerShellVersion), ls); err != nil {
			c.log.Warn().Err(err).Msg("bind zwlr_layer_shell_v1 failed")
			return
		}
		c.LayerShell = ls
	case xdgoutput.ZxdgOutputManagerV1InterfaceName:
		mgr := xdgoutput.NewZxdgOutputManagerV1(c.ctx)
		if err := c.registry.Bind(e.Name, e.Interface, minU32(e.Version, xdgOutputManagerVersion), mgr); err != nil {
			c.log.Warn().Err(err).Msg("bind zxdg_output_manager_v1 failed")
			return
		}
		c.XdgOutputManager = mgr
	case screencopy.ZwlrScreencopyManagerV1InterfaceName:
		sc := screencopy.NewZwlrScreencopyManagerV1(c.ctx)
		if err := c.registry.Bind(e.Name, e.Interface, minU32(e.Version, screencopyVersion), sc); err != nil {
			c.log.Warn().Err(err).Msg("bind zwlr_screencopy_manager_v1 failed")
			return
		}
		c.Screencopy = sc
	}
}

func (c *Client) watchOutput(output *client.Output, desc *OutputDescriptor) {
	output.SetGeometryHandler(func(e client.OutputGeometryEvent) {
		desc.X = e.X
		desc.Y = e.Y
		desc.Make = e.Make
		desc.Model = e.Model
		desc.HasPhysics = true
	})
	output.SetModeHandler(func(e client.OutputModeEvent) {
		if e.Flags&uint32(client.OutputModeCurrent) == 0 {
			return
		}
		desc.PixelWidth = e.Width
		desc.PixelHeight = e.Height
		desc.HasMode = true
	})
	output.SetScaleHandler(func(e client.OutputScaleEvent) {
		desc.Scale = e.Factor
		desc.HasScale = true
	})
	output.SetNameHandler(func(e client.OutputNameEvent) {
		desc.Name = e.Name
		desc.HasName = true
	})
	output.SetDescriptionHandler(func(e client.OutputDescriptionEvent) {
		desc.Description = e.Description
		desc.HasDescription = true
	})
}

func (c *Client) requestXdgOutputs() error {
	for _, desc := range c.outputs {
		xdgOut, err := c.XdgOutputManager.GetXdgOutput(desc.Output)
		if err != nil {
			return fmt.Errorf("get xdg_output for %q: %w", desc.Name, err)
		}
		d := desc
		xdgOut.SetLogicalPositionHandler(func(e xdgoutput.ZxdgOutputV1LogicalPositionEvent) {
			d.LogicalX = e.X
			d.LogicalY = e.Y
			d.HasLogicalPos = true
		})
		xdgOut.SetLogicalSizeHandler(func(e xdgoutput.ZxdgOutputV1LogicalSizeEvent) {
			d.LogicalWidth = e.Width
			d.LogicalHeight = e.Height
			d.HasLogicalSize = true
		})
		xdgOut.SetNameHandler(func(e xdgoutput.ZxdgOutputV1NameEvent) {
			if !d.HasName {
				d.Name = e.Name
				d.HasName = true
			}
		})
	}
	return c.Roundtrip()
}

// Roundtrip blocks until the compositor has processed every request sent so
// far and all resulting events have been dispatched.
func (c *Client) Roundtrip() error {
	callback, err := c.display.Sync()
	if err != nil {
		return fmt.Errorf("display sync: %w", err)
	}
	done := false
	callback.SetDoneHandler(func(client.CallbackDoneEvent) {
		done = true
	})
	for !done {
		if err := c.ctx.Dispatch(); err != nil {
			return fmt.Errorf("dispatch: %w", err)
		}
	}
	return nil
}

// Outputs returns the discovered outputs in registry announcement order.
func (c *Client) Outputs() []*OutputDescriptor {
	return c.outputs
}

// FindOutput returns the output with the given name, or nil.
func (c *Client) FindOutput(name string) *OutputDescriptor {
	for _, d := range c.outputs {
		if d.HasName && d.Name == name {
			return d
		}
	}
	return nil
}

// Context exposes the underlying event context for protocol objects created
// outside this package.
func (c *Client) Context() *client.Context {
	return c.ctx
}

// Close destroys bound globals and shuts the connection down. Safe to call
// after a partial Connect.
func (c *Client) Close() {
	if c.ctx != nil {
		if c.Screencopy != nil {
			_ = c.Screencopy.Destroy()
		}
		if c.XdgOutputManager != nil {
			_ = c.XdgOutputManager.Destroy()
		}
		if c.LayerShell != nil {
			_ = c.LayerShell.Destroy()
		}
		c.ctx.Close()
	}
	c.Screencopy = nil
	c.XdgOutputManager = nil
	c.LayerShell = nil
	c.ctx = nil
}

// ResolveOutputGeometry opens a short-lived connection to look up the
// logical geometry of a named output. Used by callers that do not hold a
// Client of their own.
func ResolveOutputGeometry(name string) (geometry.Geometry, error) {
	c, err := Connect()
	if err != nil {
		return geometry.Geometry{}, err
	}
	defer c.Close()

	desc := c.FindOutput(name)
	if desc == nil {
		return geometry.Geometry{}, fmt.Errorf("no output named %q", name)
	}
	return desc.LogicalGeometry()
}

func minU32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
