package freeze

import (
	"fmt"

	"github.com/shikoucore/hyprshot/internal/capture"
	"github.com/shikoucore/hyprshot/internal/wayland"
)

// Output identity is not guaranteed to agree between the capture channel
// and the registry, so frames are paired with descriptors through an
// ordered list of strategies: exact name, then geometry closeness, then a
// positional fallback. The list is explicit so the tie-break policy stays
// auditable.

type matchStrategy struct {
	name  string
	match func(d *wayland.OutputDescriptor, f *capture.Frame) bool
}

var matchStrategies = []matchStrategy{
	{name: "exact-name", match: matchExactName},
	{name: "geometry-close", match: matchGeometryClose},
}

func matchExactName(d *wayland.OutputDescriptor, f *capture.Frame) bool {
	return d.HasName && f.Output.Name != "" && d.Name == f.Output.Name
}

func matchGeometryClose(d *wayland.OutputDescriptor, f *capture.Frame) bool {
	geo, err := d.LogicalGeometry()
	if err != nil {
		return false
	}
	return geo.CloseTo(f.Output.Geometry)
}

// ResolveByName returns the descriptor with exactly the given name.
func ResolveByName(descs []*wayland.OutputDescriptor, name string) (*wayland.OutputDescriptor, error) {
	for _, d := range descs {
		if d.HasName && d.Name == name {
			return d, nil
		}
	}
	return nil, fmt.Errorf("output %q not found", name)
}

// MatchCaptures pairs captured frames with output descriptors and returns a
// descriptor-index to frame-index mapping. Each frame is consumed at most
// once. An empty map is a valid result; the caller decides whether that is
// fatal.
//
// When selectedName is set only that output is considered: its frame is
// located by name, then matched against descriptors strategy by strategy,
// falling back to the first descriptor when nothing agrees.
//
// Otherwise matching is two-pass greedy across all outputs, exact names
// first and geometry closeness on the remainder, with leftover frames
// handed to still-unmatched descriptors in enumeration order.
func MatchCaptures(descs []*wayland.OutputDescriptor, frames []*capture.Frame, selectedName string) map[int]int {
	if selectedName != "" {
		return matchSelected(descs, frames, selectedName)
	}
	return matchAll(descs, frames)
}

func matchSelected(descs []*wayland.OutputDescriptor, frames []*capture.Frame, selectedName string) map[int]int {
	matched := map[int]int{}
	if len(frames) == 0 || len(descs) == 0 {
		return matched
	}

	frameIdx := 0
	for i, f := range frames {
		if f.Output.Name == selectedName {
			frameIdx = i
			break
		}
	}
	frame := frames[frameIdx]

	for _, strat := range matchStrategies {
		for di, d := range descs {
			if strat.match(d, frame) {
				matched[di] = frameIdx
				return matched
			}
		}
	}

	// Names and geometry disagree across the two channels. Pairing with
	// the first descriptor keeps single-output sessions working.
	matched[0] = frameIdx
	return matched
}

func matchAll(descs []*wayland.OutputDescriptor, frames []*capture.Frame) map[int]int {
	matched := map[int]int{}
	usedFrames := make([]bool, len(frames))

	for _, strat := range matchStrategies {
		for di, d := range descs {
			if _, ok := matched[di]; ok {
				continue
			}
			for fi, f := range frames {
				if usedFrames[fi] {
					continue
				}
				if strat.match(d, f) {
					matched[di] = fi
					usedFrames[fi] = true
					break
				}
			}
		}
	}

	// Leftover frames go to unmatched descriptors in enumeration order.
	fi := 0
	for di := range descs {
		if _, ok := matched[di]; ok {
			continue
		}
		for fi < len(frames) && usedFrames[fi] {
			fi++
		}
		if fi >= len(frames) {
			break
		}
		matched[di] = fi
		usedFrames[fi] = true
	}

	return matched
}
