package flow

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseError reports a malformed flow definition with location info.
type ParseError struct {
	FlowID  string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	where := e.FlowID
	if where == "" {
		where = "flow"
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d): %s", where, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", where, e.Message)
}

// rawFlow mirrors Flow with steps left as raw nodes for variant dispatch.
type rawFlow struct {
	ID     string      `yaml:"id"`
	Title  string      `yaml:"title"`
	Window *Window     `yaml:"window"`
	Anchor *Anchor     `yaml:"anchor"`
	Steps  []yaml.Node `yaml:"steps"`
}

// UnmarshalYAML decodes a flow mapping, dispatching each steps entry on its
// action tag.
func (f *Flow) UnmarshalYAML(node *yaml.Node) error {
	var raw rawFlow
	if err := node.Decode(&raw); err != nil {
		return &ParseError{Line: node.Line, Message: err.Error()}
	}

	f.ID = raw.ID
	f.Title = raw.Title
	f.Window = raw.Window
	f.Anchor = raw.Anchor
	f.Steps = nil

	for i := range raw.Steps {
		step, err := parseStep(&raw.Steps[i], raw.ID, i)
		if err != nil {
			return err
		}
		f.Steps = append(f.Steps, step)
	}
	return nil
}

// MarshalYAML emits the flow including its step list.
func (f Flow) MarshalYAML() (interface{}, error) {
	out := struct {
		ID     string  `yaml:"id"`
		Title  string  `yaml:"title"`
		Window *Window `yaml:"window,omitempty"`
		Anchor *Anchor `yaml:"anchor"`
		Steps  []Step  `yaml:"steps"`
	}{
		ID:     f.ID,
		Title:  f.Title,
		Window: f.Window,
		Anchor: f.Anchor,
		Steps:  f.Steps,
	}
	return out, nil
}

func parseStep(node *yaml.Node, flowID string, idx int) (Step, error) {
	if node.Kind != yaml.MappingNode {
		return nil, &ParseError{
			FlowID:  flowID,
			Line:    node.Line,
			Message: fmt.Sprintf("step %d must be a mapping", idx+1),
		}
	}

	var tag struct {
		Action string `yaml:"action"`
	}
	if err := node.Decode(&tag); err != nil {
		return nil, &ParseError{FlowID: flowID, Line: node.Line, Message: err.Error()}
	}

	switch StepKind(tag.Action) {
	case StepClick:
		return decodeClick(node, flowID)
	case StepType:
		return decodeType(node, flowID)
	case StepHotkey:
		return decodeHotkey(node, flowID)
	case StepWait:
		return decodeWait(node, flowID)
	default:
		return nil, &ParseError{
			FlowID:  flowID,
			Line:    node.Line,
			Message: fmt.Sprintf("step %d: unknown action %q", idx+1, tag.Action),
		}
	}
}

func decodeClick(node *yaml.Node, flowID string) (Step, error) {
	var raw struct {
		Offset  *Point   `yaml:"offset"`
		Button  string   `yaml:"button"`
		Clicks  *int     `yaml:"clicks"`
		DelayS  *float64 `yaml:"delay_s"`
		Preview string   `yaml:"preview"`
	}
	if err := node.Decode(&raw); err != nil {
		return nil, &ParseError{FlowID: flowID, Line: node.Line, Message: err.Error()}
	}
	if raw.Offset == nil {
		return nil, &ParseError{FlowID: flowID, Line: node.Line, Message: "click step requires offset"}
	}
	button, err := ParseButton(raw.Button)
	if err != nil {
		return nil, &ParseError{FlowID: flowID, Line: node.Line, Message: err.Error()}
	}

	s := &ClickStep{
		BaseStep: BaseStep{Action: StepClick, DelayS: defaultFloat(raw.DelayS, DefaultDelaySeconds)},
		Offset:   *raw.Offset,
		Button:   button,
		Clicks:   defaultInt(raw.Clicks, DefaultClicks),
		Preview:  raw.Preview,
	}
	return s, nil
}

func decodeType(node *yaml.Node, flowID string) (Step, error) {
	var raw struct {
		Text      *string  `yaml:"text"`
		IntervalS *float64 `yaml:"interval_s"`
		DelayS    *float64 `yaml:"delay_s"`
	}
	if err := node.Decode(&raw); err != nil {
		return nil, &ParseError{FlowID: flowID, Line: node.Line, Message: err.Error()}
	}
	if raw.Text == nil {
		return nil, &ParseError{FlowID: flowID, Line: node.Line, Message: "type step requires text"}
	}

	s := &TypeStep{
		BaseStep:  BaseStep{Action: StepType, DelayS: defaultFloat(raw.DelayS, DefaultDelaySeconds)},
		Text:      *raw.Text,
		IntervalS: defaultFloat(raw.IntervalS, DefaultTypeIntervalS),
	}
	return s, nil
}

func decodeHotkey(node *yaml.Node, flowID string) (Step, error) {
	var raw struct {
		Keys   []string `yaml:"keys"`
		DelayS *float64 `yaml:"delay_s"`
	}
	if err := node.Decode(&raw); err != nil {
		return nil, &ParseError{FlowID: flowID, Line: node.Line, Message: err.Error()}
	}

	s := &HotkeyStep{
		BaseStep: BaseStep{Action: StepHotkey, DelayS: defaultFloat(raw.DelayS, DefaultDelaySeconds)},
		Keys:     raw.Keys,
	}
	return s, nil
}

func decodeWait(node *yaml.Node, flowID string) (Step, error) {
	var raw struct {
		Seconds float64 `yaml:"seconds"`
	}
	if err := node.Decode(&raw); err != nil {
		return nil, &ParseError{FlowID: flowID, Line: node.Line, Message: err.Error()}
	}

	s := &WaitStep{
		BaseStep: BaseStep{Action: StepWait},
		Seconds:  raw.Seconds,
	}
	return s, nil
}

func defaultFloat(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func defaultInt(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
