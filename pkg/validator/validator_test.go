package validator

import (
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/istale/auto-click-system/pkg/flow"
	"github.com/istale/auto-click-system/pkg/project"
)

func testProject(t *testing.T) *project.Project {
	t.Helper()
	p, err := project.Create(filepath.Join(t.TempDir(), "proj"), "test")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	return p
}

func saveAnchor(t *testing.T, p *project.Project, flowID string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * y), A: 255})
		}
	}
	rel := project.AnchorPath(flowID)
	if err := p.SavePNG(rel, img); err != nil {
		t.Fatalf("save anchor failed: %v", err)
	}
	return rel
}

func addFlow(p *project.Project, id, anchorImage string) *flow.Flow {
	f := &flow.Flow{
		ID:     id,
		Anchor: &flow.Anchor{Image: anchorImage, ClickInImage: flow.Point{X: 5, Y: 5}},
		Steps: []flow.Step{
			&flow.ClickStep{
				BaseStep: flow.BaseStep{Action: flow.StepClick, DelayS: 2},
				Offset:   flow.Point{X: 1, Y: 1},
				Button:   flow.ButtonLeft,
				Clicks:   1,
			},
		},
	}
	p.AddFlow(f)
	return f
}

func TestValidate_CleanProject(t *testing.T) {
	p := testProject(t)
	addFlow(p, "f1", saveAnchor(t, p, "f1"))

	result := Validate(p)
	if !result.IsValid() {
		t.Fatalf("expected valid project, got %v", result.Issues)
	}
}

func TestValidate_MissingAnchorFile(t *testing.T) {
	p := testProject(t)
	addFlow(p, "f1", project.AnchorPath("f1")) // never written

	result := Validate(p)
	if result.IsValid() {
		t.Fatal("expected a blocking issue for the missing anchor image")
	}
	if !strings.Contains(result.Errors()[0].Error(), "not found") {
		t.Errorf("unexpected issue: %v", result.Errors()[0])
	}
}

func TestValidate_DuplicateFlowIDs(t *testing.T) {
	p := testProject(t)
	addFlow(p, "dup", saveAnchor(t, p, "dup"))
	addFlow(p, "dup", project.AnchorPath("dup"))

	result := Validate(p)
	if result.IsValid() {
		t.Fatal("expected duplicate id issue")
	}
	found := false
	for _, issue := range result.Errors() {
		if strings.Contains(issue.Error(), "duplicate") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected duplicate id message, got %v", result.Issues)
	}
}

func TestValidate_MissingPreviewIsWarning(t *testing.T) {
	p := testProject(t)
	f := addFlow(p, "f1", saveAnchor(t, p, "f1"))
	f.Steps[0].(*flow.ClickStep).Preview = "previews/f1_step0001.png" // never written

	result := Validate(p)
	if !result.IsValid() {
		t.Fatalf("missing preview must not block replay: %v", result.Errors())
	}
	if len(result.Issues) != 1 || !result.Issues[0].Warning {
		t.Errorf("expected exactly one warning, got %v", result.Issues)
	}
}

func TestValidate_StructuralFlowErrors(t *testing.T) {
	p := testProject(t)
	f := addFlow(p, "f1", saveAnchor(t, p, "f1"))
	f.Steps[0].(*flow.ClickStep).Clicks = 9

	result := Validate(p)
	if result.IsValid() {
		t.Fatal("expected step validation to surface")
	}
	if !strings.Contains(result.Errors()[0].Error(), "clicks") {
		t.Errorf("unexpected issue: %v", result.Errors()[0])
	}
}

func TestValidate_BadGlobalConfidence(t *testing.T) {
	p := testProject(t)
	p.Doc.Global.Confidence = 1.2

	result := Validate(p)
	if result.IsValid() {
		t.Fatal("expected global confidence issue")
	}
}
