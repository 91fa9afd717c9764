// Package report writes a JSON summary of a replay run next to the project.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/istale/auto-click-system/pkg/core"
)

// FileName is the report file written into the output directory.
const FileName = "report.json"

// Summary aggregates flow outcomes for one run.
type Summary struct {
	Project      string `json:"project"`
	GeneratedUTC string `json:"generatedUtc"`
	DurationMs   int64  `json:"durationMs"`

	TotalFlows  int `json:"totalFlows"`
	PassedFlows int `json:"passedFlows"`
	FailedFlows int `json:"failedFlows"`

	Flows []FlowEntry `json:"flows"`
}

// FlowEntry is the per-flow section of the report.
type FlowEntry struct {
	FlowID     string            `json:"flowId"`
	Title      string            `json:"title,omitempty"`
	Status     string            `json:"status"`
	DurationMs int64             `json:"durationMs"`
	Anchor     *core.AnchorMatch `json:"anchor,omitempty"`
	Error      string            `json:"error,omitempty"`
	FailedStep int               `json:"failedStep"`
	Steps      []StepEntry       `json:"steps"`
}

// StepEntry is the per-step section of the report.
type StepEntry struct {
	Index      int         `json:"index"`
	Action     string      `json:"action"`
	Status     string      `json:"status"`
	Category   string      `json:"errorCategory,omitempty"`
	DurationMs int64       `json:"durationMs"`
	Target     interface{} `json:"target,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Build converts executor results into a report summary.
func Build(projectName string, results []core.FlowResult) *Summary {
	s := &Summary{
		Project:      projectName,
		GeneratedUTC: time.Now().UTC().Format(time.RFC3339),
		TotalFlows:   len(results),
		Flows:        make([]FlowEntry, 0, len(results)),
	}

	for _, fr := range results {
		s.DurationMs += fr.Duration.Milliseconds()
		switch fr.Status {
		case core.StatusPassed:
			s.PassedFlows++
		default:
			s.FailedFlows++
		}

		entry := FlowEntry{
			FlowID:     fr.FlowID,
			Title:      fr.Title,
			Status:     fr.Status.String(),
			DurationMs: fr.Duration.Milliseconds(),
			Anchor:     fr.Anchor,
			Error:      fr.Error,
			FailedStep: fr.FailedStep,
			Steps:      make([]StepEntry, 0, len(fr.Steps)),
		}
		for _, sr := range fr.Steps {
			se := StepEntry{
				Index:      sr.Index,
				Action:     string(sr.Action),
				Status:     sr.Status.String(),
				DurationMs: sr.Duration.Milliseconds(),
				Error:      sr.Error,
			}
			if sr.Category != core.ErrCategoryNone {
				se.Category = sr.Category.String()
			}
			if sr.Target != nil {
				se.Target = map[string]int{"x": sr.Target.X, "y": sr.Target.Y}
			}
			entry.Steps = append(entry.Steps, se)
		}
		s.Flows = append(s.Flows, entry)
	}

	return s
}

// Write serializes the summary to dir/report.json.
func Write(dir string, s *Summary) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report dir: %w", err)
	}
	path := filepath.Join(dir, FileName)

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
