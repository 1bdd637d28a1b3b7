package freeze

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shikoucore/hyprshot/internal/capture"
	"github.com/shikoucore/hyprshot/internal/logger"
	"github.com/shikoucore/hyprshot/internal/wayland"
	"github.com/shikoucore/hyprshot/internal/wayland/proto/layershell"
)

type stubSource struct {
	outputs    []capture.Output
	outputsErr error
	captureErr error
}

func (s *stubSource) Outputs() ([]capture.Output, error) {
	return s.outputs, s.outputsErr
}

func (s *stubSource) CaptureOutput(name string) (*capture.Frame, error) {
	return nil, s.captureErr
}

func (s *stubSource) Close() error { return nil }

func testController() *Controller {
	return &Controller{
		readyTimeout: 200 * time.Millisecond,
		log:          logger.WithComponent("freeze-test"),
	}
}

func TestStartDisabledWithoutLayerShell(t *testing.T) {
	c := testController()
	c.connect = func() (*wayland.Client, error) {
		return &wayland.Client{}, nil
	}
	c.runWorker = c.freezeWorker

	session, err := c.Start("", false)
	require.NoError(t, err, "a missing extension is not an error")
	require.NotNil(t, session)
	assert.NoError(t, session.Stop())
	assert.NoError(t, session.Stop(), "stopping a no-op session twice")
}

func TestStartDisabledWhenScreencopyUnsupported(t *testing.T) {
	c := testController()
	c.connect = func() (*wayland.Client, error) {
		return &wayland.Client{LayerShell: &layershell.ZwlrLayerShellV1{}}, nil
	}
	c.source = &stubSource{
		outputsErr: errors.New("compositor doesn't support wlr-screencopy"),
	}
	c.runWorker = c.freezeWorker

	session, err := c.Start("", false)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.NoError(t, session.Stop())
}

func TestStartDisabledWhenSelectedCaptureFailsWithScreencopy(t *testing.T) {
	c := testController()
	c.connect = func() (*wayland.Client, error) {
		return &wayland.Client{LayerShell: &layershell.ZwlrLayerShellV1{}}, nil
	}
	c.source = &stubSource{
		captureErr: errors.New("screencopy protocol not available"),
	}
	c.runWorker = c.freezeWorker

	session, err := c.Start("DP-1", false)
	require.NoError(t, err)
	assert.NoError(t, session.Stop())
}

func TestStartFailsOnOtherCaptureError(t *testing.T) {
	c := testController()
	c.connect = func() (*wayland.Client, error) {
		return &wayland.Client{LayerShell: &layershell.ZwlrLayerShellV1{}}, nil
	}
	c.source = &stubSource{
		outputsErr: errors.New("shm pool exhausted"),
	}
	c.runWorker = c.freezeWorker

	_, err := c.Start("", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shm pool exhausted")
}

func TestStartFailsWithNoMatch(t *testing.T) {
	c := testController()
	c.connect = func() (*wayland.Client, error) {
		// Connection with layer shell but zero outputs discovered.
		return &wayland.Client{LayerShell: &layershell.ZwlrLayerShellV1{}}, nil
	}
	c.source = &stubSource{
		outputs: []capture.Output{},
	}
	c.runWorker = c.freezeWorker

	_, err := c.Start("", false)
	require.Error(t, err)
}

func TestStartTimesOutAndStopsWorker(t *testing.T) {
	c := testController()
	c.readyTimeout = 30 * time.Millisecond

	stopped := make(chan struct{})
	c.runWorker = func(selectedOutput string, debug bool, report chan<- workerReport, stop <-chan struct{}) {
		<-stop
		close(stopped)
	}

	_, err := c.Start("", false)
	require.ErrorIs(t, err, ErrTimeout)

	select {
	case <-stopped:
	default:
		t.Fatal("worker was not stopped after timeout")
	}
}

func TestStartReadyAndStopIsIdempotent(t *testing.T) {
	c := testController()

	tornDown := false
	c.runWorker = func(selectedOutput string, debug bool, report chan<- workerReport, stop <-chan struct{}) {
		report <- workerReport{}
		<-stop
		tornDown = true
	}

	session, err := c.Start("", false)
	require.NoError(t, err)
	require.NotNil(t, session)

	require.NoError(t, session.Stop())
	assert.True(t, tornDown, "stop waits for worker teardown")
	require.NoError(t, session.Stop(), "second stop is a no-op")
}

func TestStartPropagatesWorkerError(t *testing.T) {
	c := testController()

	wantErr := errors.New("registry bind failed")
	c.runWorker = func(selectedOutput string, debug bool, report chan<- workerReport, stop <-chan struct{}) {
		report <- workerReport{err: wantErr}
	}

	_, err := c.Start("", false)
	require.ErrorIs(t, err, wantErr)
}
