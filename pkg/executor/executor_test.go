package executor

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"

	"github.com/istale/auto-click-system/pkg/core"
	"github.com/istale/auto-click-system/pkg/driver/mock"
	"github.com/istale/auto-click-system/pkg/flow"
	"github.com/istale/auto-click-system/pkg/locator"
)

// fakeAnchors serves a fixed template and matcher options.
type fakeAnchors struct {
	template image.Image
	opts     locator.Options
	loadErr  error
}

func (f *fakeAnchors) LoadAnchorImage(*flow.Flow) (image.Image, error) {
	return f.template, f.loadErr
}

func (f *fakeAnchors) MatcherOptions(*flow.Flow) locator.Options {
	return f.opts
}

// checkerTemplate builds a pattern only an exact copy matches.
func checkerTemplate(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
			} else {
				img.Set(x, y, color.RGBA{A: 255})
			}
		}
	}
	return img
}

func grayFrame(w, h int) *image.RGBA {
	frame := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(frame, frame.Bounds(), image.NewUniform(color.RGBA{R: 128, G: 128, B: 128, A: 255}), image.Point{}, draw.Src)
	return frame
}

// testRig wires a 200x120 screen with the anchor template drawn at
// (100,50), so the anchor click resolves to (120,70).
func testRig(input *mock.Input, cfg Config) (*Executor, *mock.Screen) {
	template := checkerTemplate(40)
	screen := mock.NewScreen(grayFrame(200, 120))
	screen.Embed(template, image.Pt(100, 50))

	anchors := &fakeAnchors{
		template: template,
		opts:     locator.Options{Confidence: 0.9, Grayscale: true},
	}
	return New(screen, input, anchors, cfg), screen
}

func clickStep(dx, dy int) *flow.ClickStep {
	return &flow.ClickStep{
		BaseStep: flow.BaseStep{Action: flow.StepClick},
		Offset:   flow.Point{X: dx, Y: dy},
		Button:   flow.ButtonLeft,
		Clicks:   1,
	}
}

func testFlow(steps ...flow.Step) *flow.Flow {
	return &flow.Flow{
		ID:     "f1",
		Anchor: &flow.Anchor{Image: "anchors/f1_anchor.png", ClickInImage: flow.Point{X: 20, Y: 20}},
		Steps:  steps,
	}
}

func TestRunFlow_ResolvesAgainstAnchor(t *testing.T) {
	input := mock.NewInput(mock.Config{})
	exec, _ := testRig(input, Config{})

	result := exec.RunFlow(context.Background(), testFlow(clickStep(50, 10)))
	if result.Status != core.StatusPassed {
		t.Fatalf("expected passed, got %s (%s)", result.Status, result.Error)
	}

	if result.Anchor == nil {
		t.Fatal("expected anchor match info")
	}
	if result.Anchor.AnchorClick != (flow.Point{X: 120, Y: 70}) {
		t.Errorf("expected anchor click (120,70), got %+v", result.Anchor.AnchorClick)
	}
	if result.Anchor.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", result.Anchor.Attempts)
	}

	if len(input.Calls) != 1 {
		t.Fatalf("expected 1 input call, got %d", len(input.Calls))
	}
	if input.Calls[0].Point != (flow.Point{X: 170, Y: 80}) {
		t.Errorf("expected click at (170,80), got %+v", input.Calls[0].Point)
	}
}

func TestRunFlow_AllStepKinds(t *testing.T) {
	input := mock.NewInput(mock.Config{})
	exec, _ := testRig(input, Config{})

	f := testFlow(
		clickStep(0, 0),
		&flow.TypeStep{BaseStep: flow.BaseStep{Action: flow.StepType}, Text: "hi", IntervalS: 0.001},
		&flow.HotkeyStep{BaseStep: flow.BaseStep{Action: flow.StepHotkey}, Keys: []string{"ctrl", "s"}},
		&flow.WaitStep{BaseStep: flow.BaseStep{Action: flow.StepWait}, Seconds: 0.001},
	)

	result := exec.RunFlow(context.Background(), f)
	if result.Status != core.StatusPassed {
		t.Fatalf("expected passed, got %s (%s)", result.Status, result.Error)
	}
	passed, failed, skipped := result.Counts()
	if passed != 4 || failed != 0 || skipped != 0 {
		t.Errorf("expected 4/0/0, got %d/%d/%d", passed, failed, skipped)
	}

	// Wait steps touch no input.
	if len(input.Calls) != 3 {
		t.Fatalf("expected 3 input calls, got %d", len(input.Calls))
	}
	if input.Calls[1].Kind != flow.StepType || input.Calls[1].Text != "hi" {
		t.Errorf("unexpected type call: %+v", input.Calls[1])
	}
	if input.Calls[2].Kind != flow.StepHotkey {
		t.Errorf("unexpected hotkey call: %+v", input.Calls[2])
	}
}

func TestRunFlow_RetryExhaustion(t *testing.T) {
	input := mock.NewInput(mock.Config{})
	template := checkerTemplate(40)
	screen := mock.NewScreen(grayFrame(200, 120)) // template never drawn
	anchors := &fakeAnchors{
		template: template,
		opts:     locator.Options{Confidence: 0.9, Grayscale: true},
	}
	exec := New(screen, input, anchors, Config{
		Retry: RetryPolicy{MaxAttempts: 4},
	})

	result := exec.RunFlow(context.Background(), testFlow(clickStep(1, 1)))
	if result.Status != core.StatusFailed {
		t.Fatalf("expected failed, got %s", result.Status)
	}
	if screen.CaptureCount() != 4 {
		t.Errorf("expected exactly 4 capture attempts, got %d", screen.CaptureCount())
	}
	if len(input.Calls) != 0 {
		t.Errorf("no input may be injected without a located anchor")
	}

	passed, failed, skipped := result.Counts()
	if passed != 0 || failed != 0 || skipped != 1 {
		t.Errorf("expected 0/0/1, got %d/%d/%d", passed, failed, skipped)
	}
}

func TestRunFlow_AbortPolicy(t *testing.T) {
	input := mock.NewInput(mock.Config{FailOnCall: 2})
	exec, _ := testRig(input, Config{OnFailure: PolicyAbort})

	f := testFlow(clickStep(1, 1), clickStep(2, 2), clickStep(3, 3), clickStep(4, 4))
	result := exec.RunFlow(context.Background(), f)

	if result.Status != core.StatusFailed {
		t.Fatalf("expected failed, got %s", result.Status)
	}
	if result.FailedStep != 1 {
		t.Errorf("expected failed step index 1, got %d", result.FailedStep)
	}

	wantStatuses := []core.StepStatus{core.StatusPassed, core.StatusFailed, core.StatusSkipped, core.StatusSkipped}
	for i, want := range wantStatuses {
		if result.Steps[i].Status != want {
			t.Errorf("step %d: expected %s, got %s", i, want, result.Steps[i].Status)
		}
	}
	if result.Steps[1].Category != core.ErrCategoryInjection {
		t.Errorf("expected injection category, got %s", result.Steps[1].Category)
	}
}

func TestRunFlow_SkipPolicy(t *testing.T) {
	input := mock.NewInput(mock.Config{FailOnCall: 2})
	exec, _ := testRig(input, Config{OnFailure: PolicySkip})

	f := testFlow(clickStep(1, 1), clickStep(2, 2), clickStep(3, 3), clickStep(4, 4))
	result := exec.RunFlow(context.Background(), f)

	if result.Status != core.StatusFailed {
		t.Fatalf("a flow with any failed step must fail, got %s", result.Status)
	}
	passed, failed, skipped := result.Counts()
	if passed != 3 || failed != 1 || skipped != 0 {
		t.Errorf("expected 3/1/0, got %d/%d/%d", passed, failed, skipped)
	}
}

func TestRunFlow_OutOfBounds(t *testing.T) {
	input := mock.NewInput(mock.Config{})
	exec, _ := testRig(input, Config{})

	result := exec.RunFlow(context.Background(), testFlow(clickStep(5000, 5000)))
	if result.Status != core.StatusFailed {
		t.Fatalf("expected failed, got %s", result.Status)
	}
	sr := result.Steps[0]
	if sr.Category != core.ErrCategoryResolve {
		t.Errorf("expected resolve category, got %s", sr.Category)
	}
	if sr.Target == nil || sr.Target.X != 5120 {
		t.Errorf("expected the offending target to be recorded, got %+v", sr.Target)
	}
	if !strings.Contains(sr.Error, "outside the screen") {
		t.Errorf("unexpected error message: %q", sr.Error)
	}
	if len(input.Calls) != 0 {
		t.Error("out of bounds click must not reach the input backend")
	}
}

func TestRunFlow_DryRun(t *testing.T) {
	input := mock.NewInput(mock.Config{})
	exec, _ := testRig(input, Config{DryRun: true})

	result := exec.RunFlow(context.Background(), testFlow(clickStep(50, 10)))
	if result.Status != core.StatusPassed {
		t.Fatalf("expected passed, got %s (%s)", result.Status, result.Error)
	}
	if result.Steps[0].Target == nil || *result.Steps[0].Target != (flow.Point{X: 170, Y: 80}) {
		t.Errorf("dry run must still resolve coordinates, got %+v", result.Steps[0].Target)
	}
	if len(input.Calls) != 0 {
		t.Error("dry run must not inject input")
	}
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	input := mock.NewInput(mock.Config{})
	exec, _ := testRig(input, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := exec.Run(ctx, []*flow.Flow{testFlow(clickStep(1, 1)), testFlow(clickStep(2, 2))})
	for i, fr := range results {
		if fr.Status != core.StatusSkipped {
			t.Errorf("flow %d: expected skipped, got %s", i, fr.Status)
		}
	}
	if len(input.Calls) != 0 {
		t.Error("cancelled run must not inject input")
	}
}

func TestRunFlow_MissingAnchor(t *testing.T) {
	input := mock.NewInput(mock.Config{})
	exec, _ := testRig(input, Config{})

	f := testFlow(clickStep(1, 1))
	f.Anchor = nil
	result := exec.RunFlow(context.Background(), f)
	if result.Status != core.StatusFailed {
		t.Fatalf("expected failed, got %s", result.Status)
	}
	if !strings.Contains(result.Error, "missing anchor") {
		t.Errorf("unexpected error: %q", result.Error)
	}
	if len(result.Steps) != 1 || result.Steps[0].Status != core.StatusSkipped {
		t.Errorf("validation failure must skip all steps: %+v", result.Steps)
	}
}
