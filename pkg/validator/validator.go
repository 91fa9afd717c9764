// Package validator checks a flow project before replay: the document must
// parse, every flow must be structurally valid, and every referenced asset
// must exist on disk.
package validator

import (
	"fmt"
	"os"

	"github.com/istale/auto-click-system/pkg/flow"
	"github.com/istale/auto-click-system/pkg/project"
)

// Issue is one validation finding.
type Issue struct {
	FlowID  string
	Message string
	Warning bool // warnings do not block replay
}

func (i *Issue) Error() string {
	if i.FlowID == "" {
		return i.Message
	}
	return fmt.Sprintf("flow %s: %s", i.FlowID, i.Message)
}

// Result contains all findings for a project.
type Result struct {
	Issues []*Issue
}

// IsValid returns true when no blocking issues were found.
func (r *Result) IsValid() bool {
	for _, i := range r.Issues {
		if !i.Warning {
			return false
		}
	}
	return true
}

// Errors returns the blocking issues.
func (r *Result) Errors() []*Issue {
	var out []*Issue
	for _, i := range r.Issues {
		if !i.Warning {
			out = append(out, i)
		}
	}
	return out
}

func (r *Result) add(flowID, format string, args ...interface{}) {
	r.Issues = append(r.Issues, &Issue{FlowID: flowID, Message: fmt.Sprintf(format, args...)})
}

func (r *Result) warn(flowID, format string, args ...interface{}) {
	r.Issues = append(r.Issues, &Issue{FlowID: flowID, Message: fmt.Sprintf(format, args...), Warning: true})
}

// Validate checks the whole project.
func Validate(p *project.Project) *Result {
	result := &Result{}

	if p.Doc.Global.Confidence < 0 || p.Doc.Global.Confidence > 1 {
		result.add("", "global confidence must be within [0,1], got %v", p.Doc.Global.Confidence)
	}

	seen := make(map[string]bool)
	for _, f := range p.Doc.Flows {
		if seen[f.ID] {
			result.add(f.ID, "duplicate flow id")
		}
		seen[f.ID] = true

		for _, err := range flow.Validate(f) {
			result.add(f.ID, "%v", err)
		}
		checkAssets(p, f, result)
	}

	return result
}

// checkAssets verifies that the anchor template and step previews exist.
// A missing anchor blocks replay; a missing preview is cosmetic.
func checkAssets(p *project.Project, f *flow.Flow, result *Result) {
	if f.Anchor != nil && f.Anchor.Image != "" {
		if _, err := os.Stat(p.Abs(f.Anchor.Image)); err != nil {
			result.add(f.ID, "anchor image %s not found", f.Anchor.Image)
		}
	}

	for i, cs := range f.ClickSteps() {
		if cs.Preview == "" {
			continue
		}
		if _, err := os.Stat(p.Abs(cs.Preview)); err != nil {
			result.warn(f.ID, "preview %s for click %d not found", cs.Preview, i+1)
		}
	}
}
