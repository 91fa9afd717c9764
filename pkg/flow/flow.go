package flow

// Point is a pixel coordinate or pixel offset. Capture pixel space and
// input-injection pixel space are identical by design; no rescaling stage
// exists anywhere in this module.
type Point struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// Add returns the component-wise sum p+q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns the component-wise difference p-q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Rect is a pixel rectangle, used for the anchor capture region.
type Rect struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	W int `yaml:"w"`
	H int `yaml:"h"`
}

// Anchor references the template image a flow's coordinates are resolved
// against. Created once per flow and immutable afterwards; owned exclusively
// by its Flow.
type Anchor struct {
	// Image is the template path relative to the project directory,
	// e.g. "anchors/step1_anchor.png".
	Image string `yaml:"image"`
	// ClickInImage is the originally-clicked point relative to the
	// template's top-left corner.
	ClickInImage Point `yaml:"click_in_image"`
	// CaptureRect is the screen region the template was cropped from at
	// record time. Informational; replay never consults it.
	CaptureRect *Rect `yaml:"capture_rect,omitempty"`
	// Confidence and Grayscale override the project-global matcher
	// settings when set.
	Confidence *float64 `yaml:"confidence,omitempty"`
	Grayscale  *bool    `yaml:"grayscale,omitempty"`
}

// Window holds optional window-match criteria. Focus management is out of
// scope; the criteria are persisted for external tooling.
type Window struct {
	TitleContains string `yaml:"title_contains,omitempty"`
}

// Flow is one anchor plus its ordered list of steps. Steps are always
// interpreted relative to this flow's own anchor; cross-flow coordinate
// reuse is undefined.
type Flow struct {
	ID     string  `yaml:"id"`
	Title  string  `yaml:"title"`
	Window *Window `yaml:"window,omitempty"`
	Anchor *Anchor `yaml:"anchor"`
	Steps  []Step  `yaml:"-"`
}

// ClickSteps returns the click steps in order. Handy for tooling.
func (f *Flow) ClickSteps() []*ClickStep {
	var out []*ClickStep
	for _, s := range f.Steps {
		if c, ok := s.(*ClickStep); ok {
			out = append(out, c)
		}
	}
	return out
}
