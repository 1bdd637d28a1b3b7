// Package save encodes captured images and delivers them: file on disk,
// clipboard via wl-copy, raw PNG on stdout, optional post-command and a
// desktop notification.
package save

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/shikoucore/hyprshot/internal/logger"
	"github.com/shikoucore/hyprshot/internal/notify"
)

const clipboardTimeout = 5 * time.Second

var log = logger.WithComponent("save")

// Seams for tests; the defaults shell out and talk to D-Bus.
var (
	copyToClipboard  = wlCopy
	sendNotification = notify.Send
)

// Options controls where a screenshot goes. Path is the full target file
// path; ignored for Raw and ClipboardOnly.
type Options struct {
	Path          string
	ClipboardOnly bool
	Raw           bool
	RawWriter     io.Writer
	Command       []string
	Silent        bool
	NotifTimeout  int32
}

// Screenshot encodes img as PNG and delivers it per opts. Clipboard
// failures alongside a successful file write are logged, not fatal; in
// clipboard-only mode they are the whole job and so propagate.
func Screenshot(img image.Image, opts Options) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	data := buf.Bytes()

	if opts.Raw {
		w := opts.RawWriter
		if w == nil {
			w = os.Stdout
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("write raw image: %w", err)
		}
		return nil
	}

	if opts.ClipboardOnly {
		if err := copyToClipboard(data); err != nil {
			return err
		}
		notifyResult(opts, "Image copied to the clipboard")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create screenshot directory: %w", err)
	}
	if err := os.WriteFile(opts.Path, data, 0o644); err != nil {
		return fmt.Errorf("save screenshot to %q: %w", opts.Path, err)
	}

	if err := copyToClipboard(data); err != nil {
		log.Warn().Err(err).Msg("failed to copy screenshot to clipboard")
	}

	if len(opts.Command) > 0 {
		if err := runPostCommand(opts.Command, opts.Path); err != nil {
			return err
		}
	}

	notifyResult(opts, fmt.Sprintf("Image saved in <i>%s</i> and copied to the clipboard.", opts.Path))
	return nil
}

func notifyResult(opts Options, message string) {
	if opts.Silent {
		return
	}
	if err := sendNotification("Screenshot saved", message, opts.Path, opts.NotifTimeout); err != nil {
		log.Warn().Err(err).Msg("failed to show notification")
	}
}

// NotifyHint shows a usage hint, e.g. when region selection is cancelled.
func NotifyHint(summary, body string, timeout int32) {
	if err := sendNotification(summary, body, "", timeout); err != nil {
		log.Warn().Err(err).Msg("failed to show notification")
	}
}

func wlCopy(data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), clipboardTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "wl-copy", "--type", "image/png")
	cmd.Stdin = bytes.NewReader(data)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("wl-copy: %w", err)
	}
	return nil
}

func runPostCommand(command []string, path string) error {
	args := append(append([]string{}, command[1:]...), path)
	cmd := exec.Command(command[0], args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command %q failed: %w", command[0], err)
	}
	return nil
}
