package core

import (
	"github.com/istale/auto-click-system/pkg/flow"
)

// Bounds is a located region in screen pixel coordinates.
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// TopLeft returns the region's top-left corner.
func (b Bounds) TopLeft() flow.Point { return flow.Point{X: b.X, Y: b.Y} }

// Center returns the center point of the bounds.
func (b Bounds) Center() (int, int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Contains checks if a point is within the bounds.
func (b Bounds) Contains(x, y int) bool {
	return x >= b.X && x < b.X+b.Width && y >= b.Y && y < b.Y+b.Height
}

// ResolveAnchorClick recovers the screen-absolute anchor click point from a
// located anchor box: box.topLeft + anchor.click_in_image.
func ResolveAnchorClick(box Bounds, clickInImage flow.Point) flow.Point {
	return box.TopLeft().Add(clickInImage)
}

// ResolveStep turns a recorded anchor-relative offset into an absolute screen
// coordinate: anchor_click_xy + offset. Pure integer arithmetic; capture
// pixel space and injection pixel space are the same space.
func ResolveStep(anchorClick, offset flow.Point) flow.Point {
	return anchorClick.Add(offset)
}
