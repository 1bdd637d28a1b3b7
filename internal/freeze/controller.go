// Package freeze pins a still image of each output above the desktop while
// the user drags out a selection, so moving content does not shift under
// the cursor. Freezing is best-effort: compositors without the layer-shell
// or screencopy extensions simply capture unfrozen.
package freeze

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/shikoucore/hyprshot/internal/capture"
	"github.com/shikoucore/hyprshot/internal/logger"
	"github.com/shikoucore/hyprshot/internal/wayland"
)

// How long Start waits for the worker to report before giving up. Freeze
// must never delay a capture noticeably.
const defaultReadyTimeout = 500 * time.Millisecond

// Pause between event-drain rounds while frozen.
const dispatchInterval = 50 * time.Millisecond

type workerReport struct {
	err      error
	disabled bool
	reason   string
}

// Session is a live freeze. Stop removes every overlay and blocks until the
// worker has torn down; it is idempotent. A disabled freeze yields a no-op
// session so callers never branch.
type Session struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
	noop bool
}

// Stop signals the worker and waits for teardown to finish.
func (s *Session) Stop() error {
	if s == nil || s.noop {
		return nil
	}
	s.once.Do(func() {
		close(s.stop)
		<-s.done
	})
	return nil
}

// Controller owns freeze lifecycle. The zero value is not usable; construct
// with NewController.
type Controller struct {
	source       capture.Source
	connect      func() (*wayland.Client, error)
	runWorker    func(selectedOutput string, debug bool, report chan<- workerReport, stop <-chan struct{})
	readyTimeout time.Duration
	log          *zerolog.Logger
}

// NewController returns a Controller that captures frames over screencopy
// on its own compositor connection.
func NewController() *Controller {
	c := &Controller{
		connect:      wayland.Connect,
		readyTimeout: defaultReadyTimeout,
		log:          logger.WithComponent("freeze"),
	}
	c.runWorker = c.freezeWorker
	return c
}

// Start freezes the screen and blocks until the worker reports, bounded by
// the ready timeout. A missing extension yields a no-op session and no
// error. On timeout the half-started worker is stopped before returning so
// no overlay outlives the failed Start.
func (c *Controller) Start(selectedOutput string, debug bool) (*Session, error) {
	report := make(chan workerReport, 1)
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		c.runWorker(selectedOutput, debug, report, stop)
	}()

	select {
	case r := <-report:
		if r.err != nil {
			close(stop)
			<-done
			return nil, r.err
		}
		if r.disabled {
			<-done
			c.log.Info().Str("reason", r.reason).Msg("screen freeze disabled")
			return &Session{noop: true}, nil
		}
		return &Session{stop: stop, done: done}, nil
	case <-time.After(c.readyTimeout):
		close(stop)
		<-done
		return nil, ErrTimeout
	}
}

// freezeWorker runs on its own goroutine: capture frames, match them to
// outputs, commit overlays, then drain events until stopped. It reports
// exactly once.
func (c *Controller) freezeWorker(selectedOutput string, debug bool, report chan<- workerReport, stop <-chan struct{}) {
	conn, err := c.connect()
	if err != nil {
		report <- workerReport{err: err}
		return
	}
	defer conn.Close()

	if conn.LayerShell == nil {
		report <- workerReport{disabled: true, reason: "compositor does not support zwlr_layer_shell_v1"}
		return
	}

	src := c.source
	if src == nil {
		created, err := capture.NewScreencopySource()
		if err != nil {
			if capture.IsMissingScreencopy(err) {
				report <- workerReport{disabled: true, reason: err.Error()}
				return
			}
			report <- workerReport{err: err}
			return
		}
		src = created
		defer created.Close()
	}

	frames, err := c.captureFrames(src, selectedOutput)
	if err != nil {
		if capture.IsMissingScreencopy(err) {
			report <- workerReport{disabled: true, reason: err.Error()}
			return
		}
		report <- workerReport{err: err}
		return
	}

	descs := conn.Outputs()
	matched := MatchCaptures(descs, frames, selectedOutput)
	if len(matched) == 0 {
		report <- workerReport{err: ErrNoMatch}
		return
	}

	if debug {
		for di, fi := range matched {
			c.log.Debug().
				Str("output", descs[di].Name).
				Str("frame", frames[fi].Output.Name).
				Msg("matched frame to output")
		}
	}

	overlays := c.buildOverlays(conn, descs, frames, matched)
	if len(overlays) == 0 {
		report <- workerReport{err: fmt.Errorf("%w: every overlay failed to build", ErrNoMatch)}
		return
	}
	defer func() {
		for _, ov := range overlays {
			ov.destroy(c.log)
		}
	}()

	report <- workerReport{}

	// Frozen. Keep servicing the connection so configure acknowledgments
	// and frame callbacks are answered until the caller stops us.
	for {
		select {
		case <-stop:
			return
		default:
		}
		if err := conn.Roundtrip(); err != nil {
			c.log.Warn().Err(err).Msg("freeze dispatch failed, tearing down")
			return
		}
		time.Sleep(dispatchInterval)
	}
}

func (c *Controller) captureFrames(src capture.Source, selectedOutput string) ([]*capture.Frame, error) {
	if selectedOutput != "" {
		frame, err := src.CaptureOutput(selectedOutput)
		if err != nil {
			return nil, err
		}
		return []*capture.Frame{frame}, nil
	}

	outputs, err := src.Outputs()
	if err != nil {
		return nil, err
	}
	frames := make([]*capture.Frame, 0, len(outputs))
	var lastErr error
	for _, out := range outputs {
		frame, err := src.CaptureOutput(out.Name)
		if err != nil {
			c.log.Warn().Err(err).Str("output", out.Name).Msg("skipping output, capture failed")
			lastErr = err
			continue
		}
		frames = append(frames, frame)
	}
	if len(frames) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, fmt.Errorf("capture source reported no outputs")
	}
	return frames, nil
}

// buildOverlays commits one overlay per matched pair, in descriptor
// enumeration order. A failure on one output skips only that output.
func (c *Controller) buildOverlays(conn *wayland.Client, descs []*wayland.OutputDescriptor, frames []*capture.Frame, matched map[int]int) []*overlaySurface {
	order := make([]int, 0, len(matched))
	for di := range matched {
		order = append(order, di)
	}
	sort.Ints(order)

	overlays := make([]*overlaySurface, 0, len(order))
	for _, di := range order {
		frame := frames[matched[di]]
		ov, err := buildOverlay(conn, descs[di], frame, c.log)
		if err != nil {
			c.log.Warn().Err(err).Str("output", frame.Output.Name).Msg("overlay failed, output stays unfrozen")
			continue
		}
		overlays = append(overlays, ov)
	}
	return overlays
}
