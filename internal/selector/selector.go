// Package selector drives slurp, the interactive region picker. slurp
// prints one "x,y WxH" line on stdout and exits non-zero when the user
// cancels.
package selector

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/shikoucore/hyprshot/internal/compositor"
	"github.com/shikoucore/hyprshot/internal/geometry"
)

// runSlurp executes the picker. Replaced in tests.
var runSlurp = func(args []string, stdin string) (string, error) {
	cmd := exec.Command("slurp", args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(errOut.String())
		if msg != "" {
			return "", fmt.Errorf("slurp: %s", msg)
		}
		return "", fmt.Errorf("slurp: %w", err)
	}
	return out.String(), nil
}

func selection(args []string, stdin string) (geometry.Geometry, error) {
	out, err := runSlurp(args, stdin)
	if err != nil {
		return geometry.Geometry{}, err
	}
	trimmed := strings.TrimSpace(out)
	if trimmed == "" {
		return geometry.Geometry{}, fmt.Errorf("slurp returned empty geometry")
	}
	return geometry.Parse(trimmed)
}

// SelectOutput lets the user click a whole output.
func SelectOutput() (geometry.Geometry, error) {
	return selection([]string{"-or"}, "")
}

// SelectRegion lets the user drag out a free rectangle.
func SelectRegion() (geometry.Geometry, error) {
	return selection([]string{"-d"}, "")
}

// SelectWindow lets the user pick one of the given windows. slurp snaps to
// the boxes supplied on stdin.
func SelectWindow(boxes []compositor.WindowBox) (geometry.Geometry, error) {
	if len(boxes) == 0 {
		return geometry.Geometry{}, fmt.Errorf("no windows to choose from")
	}
	lines := make([]string, len(boxes))
	for i, b := range boxes {
		lines[i] = b.String()
	}
	return selection([]string{"-r"}, strings.Join(lines, "\n"))
}
