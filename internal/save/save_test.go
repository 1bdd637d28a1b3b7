package save

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 0x33, A: 0xff})
		}
	}
	return img
}

func stubDelivery(t *testing.T) (clipboard *[][]byte, notifications *[]string) {
	t.Helper()
	var copies [][]byte
	var notes []string

	origCopy, origNotify := copyToClipboard, sendNotification
	copyToClipboard = func(data []byte) error {
		copies = append(copies, data)
		return nil
	}
	sendNotification = func(summary, body, icon string, timeout int32) error {
		notes = append(notes, body)
		return nil
	}
	t.Cleanup(func() {
		copyToClipboard, sendNotification = origCopy, origNotify
	})
	return &copies, &notes
}

func TestScreenshotWritesFileAndClipboard(t *testing.T) {
	copies, notes := stubDelivery(t)
	path := filepath.Join(t.TempDir(), "shots", "out.png")

	err := Screenshot(testImage(), Options{Path: path})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 4, decoded.Bounds().Dx())

	require.Len(t, *copies, 1)
	assert.Equal(t, data, (*copies)[0])

	require.Len(t, *notes, 1)
	assert.Contains(t, (*notes)[0], path)
}

func TestScreenshotClipboardOnly(t *testing.T) {
	copies, notes := stubDelivery(t)

	err := Screenshot(testImage(), Options{ClipboardOnly: true, Path: "ignored.png"})
	require.NoError(t, err)

	assert.Len(t, *copies, 1)
	assert.NoFileExists(t, "ignored.png")
	require.Len(t, *notes, 1)
	assert.Equal(t, "Image copied to the clipboard", (*notes)[0])
}

func TestScreenshotClipboardOnlyPropagatesFailure(t *testing.T) {
	stubDelivery(t)
	copyToClipboard = func([]byte) error { return errors.New("wl-copy missing") }

	err := Screenshot(testImage(), Options{ClipboardOnly: true})
	require.Error(t, err)
}

func TestScreenshotRawWritesPNGToWriter(t *testing.T) {
	copies, notes := stubDelivery(t)

	var out bytes.Buffer
	err := Screenshot(testImage(), Options{Raw: true, RawWriter: &out})
	require.NoError(t, err)

	_, err = png.Decode(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	assert.Empty(t, *copies, "raw mode skips the clipboard")
	assert.Empty(t, *notes, "raw mode skips notifications")
}

func TestScreenshotSilentSkipsNotification(t *testing.T) {
	_, notes := stubDelivery(t)
	path := filepath.Join(t.TempDir(), "out.png")

	err := Screenshot(testImage(), Options{Path: path, Silent: true})
	require.NoError(t, err)
	assert.Empty(t, *notes)
}

func TestScreenshotClipboardFailureIsNonFatalWhenSaved(t *testing.T) {
	stubDelivery(t)
	copyToClipboard = func([]byte) error { return errors.New("no wayland clipboard") }
	path := filepath.Join(t.TempDir(), "out.png")

	err := Screenshot(testImage(), Options{Path: path, Silent: true})
	require.NoError(t, err)
	assert.FileExists(t, path)
}
