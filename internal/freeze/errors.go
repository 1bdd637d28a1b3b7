package freeze

import "errors"

// Session-level and per-output failure classes. Per-output errors are
// logged and the output skipped; only whole-session errors reach callers
// of Controller.Start.
var (
	// ErrMissingExtension : layer-shell or screencopy absent. Maps to the
	// Disabled outcome, never a hard failure.
	ErrMissingExtension = errors.New("compositor extension unavailable")

	// ErrResource : shared-memory allocation or mapping failed. Fatal for
	// one output only.
	ErrResource = errors.New("shared memory resource failure")

	// ErrFormat : captured pixel data does not match the announced
	// dimensions. Fatal for one output only.
	ErrFormat = errors.New("captured frame format mismatch")

	// ErrNoMatch : no frame could be paired with any output. Fatal for the
	// session.
	ErrNoMatch = errors.New("no output matched a captured frame")

	// ErrTimeout : the freeze worker did not report readiness within the
	// startup bound.
	ErrTimeout = errors.New("freeze startup timed out")
)
