// Package preview produces fixed-size inspection thumbnails around recorded
// clicks. Previews are diagnostic only and carry no coordinate-resolution
// authority.
package preview

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/istale/auto-click-system/pkg/flow"
)

// DefaultSize is the preview edge length in pixels.
const DefaultSize = 30

// Crop cuts a size×size box centered on click out of frame. When the
// centered box would cross a frame edge, it is shifted the minimum amount
// needed to stay fully inside; it is never resized or padded, so
// |box.center - click| is minimized subject to the box being in-bounds.
func Crop(frame image.Image, click flow.Point, size int) (*image.RGBA, error) {
	if size <= 0 {
		return nil, fmt.Errorf("preview size must be > 0, got %d", size)
	}
	fb := frame.Bounds()
	if fb.Dx() < size || fb.Dy() < size {
		return nil, fmt.Errorf("frame %dx%d smaller than preview size %d", fb.Dx(), fb.Dy(), size)
	}

	left := clamp(click.X-size/2, fb.Min.X, fb.Max.X-size)
	top := clamp(click.Y-size/2, fb.Min.Y, fb.Max.Y-size)

	out := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(out, out.Bounds(), frame, image.Pt(left, top), draw.Src)
	return out, nil
}

// Box returns the source rectangle Crop would copy from, without copying.
// Useful for tests and diagnostics.
func Box(frame image.Rectangle, click flow.Point, size int) image.Rectangle {
	left := clamp(click.X-size/2, frame.Min.X, frame.Max.X-size)
	top := clamp(click.Y-size/2, frame.Min.Y, frame.Max.Y-size)
	return image.Rect(left, top, left+size, top+size)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
