package core

import (
	"image"
	"time"

	"github.com/istale/auto-click-system/pkg/flow"
)

// Screen captures the current display contents. Implementations wrap the
// platform capture backend; pkg/driver/mock provides an in-memory one for
// tests and dry runs.
type Screen interface {
	// Capture grabs a full frame in pixel coordinates.
	Capture() (image.Image, error)

	// Bounds returns the current screen geometry in pixels.
	Bounds() image.Rectangle
}

// Input injects pointer and keyboard actions. Exactly one Input owner may be
// active system-wide at a time; callers enforce that, not implementations.
type Input interface {
	// Click presses a pointer button at an absolute pixel coordinate.
	Click(p flow.Point, button flow.MouseButton, clicks int) error

	// TypeText types literal text with a per-character interval.
	TypeText(text string, interval time.Duration) error

	// Hotkey presses the keys of a chord in order and releases them in
	// reverse order.
	Hotkey(keys []string) error
}
