// Package locator finds an anchor template inside a full-frame screen
// capture using normalized template correlation at 1:1 scale. Scale-invariant
// matching is out of scope. The locator never retries; retry/backoff is
// layered by the executor.
package locator

import (
	"image"
	"math"

	"github.com/istale/auto-click-system/pkg/core"
)

// Options control a single locate call.
type Options struct {
	// Confidence is the minimum correlation score in [0,1]; a best match
	// below it is reported as low_confidence_match, never returned as a
	// result.
	Confidence float64
	// Grayscale matches on luminance instead of RGB.
	Grayscale bool
	// LastKnown, when set, breaks ties among equally-scored candidates in
	// favor of the one closest to it. Without it the first candidate in
	// row-major scan order wins.
	LastKnown *core.Bounds
}

// Match is a successful locate result.
type Match struct {
	Bounds core.Bounds
	Score  float64
}

// scoreEps treats correlation scores within this distance as equal for
// tie-breaking.
const scoreEps = 1e-9

// Locate runs a single best-match search of template over frame.
func Locate(frame, template image.Image, opts Options) (*Match, error) {
	fb := frame.Bounds()
	tb := template.Bounds()
	fw, fh := fb.Dx(), fb.Dy()
	tw, th := tb.Dx(), tb.Dy()

	if tw == 0 || th == 0 || tw > fw || th > fh {
		return nil, core.ErrAnchorNotFound.WithDetails(map[string]interface{}{
			"frame":    []int{fw, fh},
			"template": []int{tw, th},
		}).WithMessage("anchor template does not fit inside the frame")
	}

	framePlanes := planes(frame, opts.Grayscale)
	tmplPlanes := planes(template, opts.Grayscale)

	tmplMean := mean(tmplPlanes, 0, 0, tw, tw, th)
	tmplVar := variance(tmplPlanes, 0, 0, tw, tw, th, tmplMean)

	var (
		bestScore = math.Inf(-1)
		bestX     int
		bestY     int
		found     bool
	)

	for y := 0; y <= fh-th; y++ {
		for x := 0; x <= fw-tw; x++ {
			s := correlate(framePlanes, tmplPlanes, x, y, fw, tw, th, tmplMean, tmplVar)
			switch {
			case !found || s > bestScore+scoreEps:
				bestScore, bestX, bestY = s, x, y
				found = true
			case opts.LastKnown != nil && math.Abs(s-bestScore) <= scoreEps:
				if closerToLastKnown(x, y, bestX, bestY, tw, th, *opts.LastKnown, fb) {
					bestX, bestY = x, y
				}
			}
		}
	}

	bounds := core.Bounds{
		X:      fb.Min.X + bestX,
		Y:      fb.Min.Y + bestY,
		Width:  tw,
		Height: th,
	}

	if !found || bestScore < opts.Confidence {
		return nil, core.ErrLowConfidenceMatch.WithDetails(map[string]interface{}{
			"score":      bestScore,
			"confidence": opts.Confidence,
			"bounds":     bounds,
		})
	}

	return &Match{Bounds: bounds, Score: bestScore}, nil
}

// closerToLastKnown reports whether candidate (x,y) is nearer to last's
// center than the current best (bx,by).
func closerToLastKnown(x, y, bx, by, tw, th int, last core.Bounds, fb image.Rectangle) bool {
	lcx, lcy := last.Center()
	lcx -= fb.Min.X
	lcy -= fb.Min.Y
	cand := sqDist(x+tw/2, y+th/2, lcx, lcy)
	cur := sqDist(bx+tw/2, by+th/2, lcx, lcy)
	return cand < cur
}

func sqDist(x1, y1, x2, y2 int) int {
	dx, dy := x1-x2, y1-y2
	return dx*dx + dy*dy
}

// planes converts an image into float64 channel planes in row-major order:
// one luminance plane in grayscale mode, three RGB planes otherwise.
func planes(img image.Image, grayscale bool) [][]float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if grayscale {
		p := make([]float64, w*h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				p[y*w+x] = 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(bl>>8)
			}
		}
		return [][]float64{p}
	}

	rp := make([]float64, w*h)
	gp := make([]float64, w*h)
	bp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			rp[y*w+x] = float64(r >> 8)
			gp[y*w+x] = float64(g >> 8)
			bp[y*w+x] = float64(bl >> 8)
		}
	}
	return [][]float64{rp, gp, bp}
}

// mean averages a w×h window at (x,y) across all planes. stride is the
// plane's row width.
func mean(pl [][]float64, x, y, stride, w, h int) float64 {
	var sum float64
	for _, p := range pl {
		for dy := 0; dy < h; dy++ {
			row := (y+dy)*stride + x
			for dx := 0; dx < w; dx++ {
				sum += p[row+dx]
			}
		}
	}
	return sum / float64(len(pl)*w*h)
}

func variance(pl [][]float64, x, y, stride, w, h int, m float64) float64 {
	var sum float64
	for _, p := range pl {
		for dy := 0; dy < h; dy++ {
			row := (y+dy)*stride + x
			for dx := 0; dx < w; dx++ {
				d := p[row+dx] - m
				sum += d * d
			}
		}
	}
	return sum
}

// correlate computes the zero-mean normalized cross-correlation of the
// template against the frame window at (x,y). Windows with zero variance on
// either side score 0 (correlation undefined).
func correlate(fp, tp [][]float64, x, y, fstride, tw, th int, tmplMean, tmplVar float64) float64 {
	if tmplVar == 0 {
		return 0
	}

	winMean := mean(fp, x, y, fstride, tw, th)

	var cross, winVar float64
	for i := range fp {
		f := fp[i]
		t := tp[i]
		for dy := 0; dy < th; dy++ {
			frow := (y+dy)*fstride + x
			trow := dy * tw
			for dx := 0; dx < tw; dx++ {
				df := f[frow+dx] - winMean
				dt := t[trow+dx] - tmplMean
				cross += df * dt
				winVar += df * df
			}
		}
	}

	if winVar == 0 {
		return 0
	}
	return cross / math.Sqrt(winVar*tmplVar)
}
