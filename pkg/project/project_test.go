package project

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/istale/auto-click-system/pkg/flow"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	return img
}

func TestCreateAndReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "proj")
	p, err := Create(dir, "Invoices")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	for _, sub := range []string{AnchorsDir, PreviewsDir} {
		if _, err := os.Stat(filepath.Join(dir, sub)); err != nil {
			t.Errorf("expected %s directory: %v", sub, err)
		}
	}

	p2, err := Open(dir)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if p2.Doc.Meta.Name != "Invoices" {
		t.Errorf("expected name Invoices, got %q", p2.Doc.Meta.Name)
	}
	if p2.Doc.Global.Confidence != DefaultConfidence {
		t.Errorf("expected default confidence, got %v", p2.Doc.Global.Confidence)
	}
	if !p2.Doc.Global.Grayscale {
		t.Error("expected grayscale default true")
	}
	if p.Doc.Meta.CreatedUTC == "" {
		t.Error("expected created_utc to be set")
	}
}

func TestRoundTrip_FlowWithSteps(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "proj")
	p, err := Create(dir, "rt")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	p.AddFlow(&flow.Flow{
		ID:     "f1",
		Title:  "First",
		Anchor: &flow.Anchor{Image: AnchorPath("f1"), ClickInImage: flow.Point{X: 3, Y: 4}},
		Steps: []flow.Step{
			&flow.ClickStep{
				BaseStep: flow.BaseStep{Action: flow.StepClick, DelayS: 2},
				Offset:   flow.Point{X: 50, Y: 10},
				Button:   flow.ButtonLeft,
				Clicks:   1,
			},
			&flow.TypeStep{
				BaseStep: flow.BaseStep{Action: flow.StepType, DelayS: 2},
				Text:     "hello",
			},
		},
	})
	if err := p.Save(); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	p2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	f, ok := p2.Flow("f1")
	if !ok {
		t.Fatal("flow f1 lost on round trip")
	}
	if len(f.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(f.Steps))
	}
	click := f.Steps[0].(*flow.ClickStep)
	if click.Offset != (flow.Point{X: 50, Y: 10}) {
		t.Errorf("offset lost: %+v", click.Offset)
	}
}

func TestOpen_AppliesDefaultsToSparseFile(t *testing.T) {
	dir := t.TempDir()
	minimal := []byte("version: 0\nmeta:\n  name: sparse\nflows: []\n")
	if err := os.WriteFile(filepath.Join(dir, FlowFileName), minimal, 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := Open(dir)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if p.Doc.Global.Confidence != DefaultConfidence || !p.Doc.Global.Grayscale {
		t.Errorf("expected matcher defaults, got %+v", p.Doc.Global)
	}
	if p.Doc.Meta.DefaultDelayS != flow.DefaultDelaySeconds {
		t.Errorf("expected default delay, got %v", p.Doc.Meta.DefaultDelayS)
	}
}

func TestAssetPaths(t *testing.T) {
	if got := AnchorPath("ab12"); got != "anchors/ab12_anchor.png" {
		t.Errorf("unexpected anchor path %q", got)
	}
	if got := PreviewPath("ab12", 7); got != "previews/ab12_step0007.png" {
		t.Errorf("unexpected preview path %q", got)
	}
}

func TestSavePreviewAndLoadAnchor(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "proj")
	p, err := Create(dir, "assets")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	rel, err := p.SavePreview("f1", 1, testImage(30, 30))
	if err != nil {
		t.Fatalf("save preview failed: %v", err)
	}
	if rel != "previews/f1_step0001.png" {
		t.Errorf("unexpected preview path %q", rel)
	}
	if _, err := os.Stat(p.Abs(rel)); err != nil {
		t.Errorf("preview not on disk: %v", err)
	}

	if err := p.SavePNG(AnchorPath("f1"), testImage(40, 40)); err != nil {
		t.Fatalf("save anchor failed: %v", err)
	}
	f := &flow.Flow{ID: "f1", Anchor: &flow.Anchor{Image: AnchorPath("f1")}}
	img, err := p.LoadAnchorImage(f)
	if err != nil {
		t.Fatalf("load anchor failed: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 40 {
		t.Errorf("anchor dimensions lost: %v", img.Bounds())
	}
}

func TestMatcherOptions_Overrides(t *testing.T) {
	p := &Project{Doc: &Document{Global: Settings{Confidence: 0.9, Grayscale: true}}}

	plain := &flow.Flow{Anchor: &flow.Anchor{Image: "a.png"}}
	opts := p.MatcherOptions(plain)
	if opts.Confidence != 0.9 || !opts.Grayscale {
		t.Errorf("expected global settings, got %+v", opts)
	}

	conf := 0.75
	gray := false
	override := &flow.Flow{Anchor: &flow.Anchor{Image: "a.png", Confidence: &conf, Grayscale: &gray}}
	opts = p.MatcherOptions(override)
	if opts.Confidence != 0.75 || opts.Grayscale {
		t.Errorf("expected per-anchor overrides, got %+v", opts)
	}
}
