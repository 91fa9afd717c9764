// Package project handles the on-disk flow package: flow.yaml plus the
// anchors/ and previews/ asset directories. Reading and writing this format
// is a thin field mapping; no replay logic lives here.
package project

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/istale/auto-click-system/pkg/flow"
	"github.com/istale/auto-click-system/pkg/locator"
)

// On-disk layout constants.
const (
	FlowFileName = "flow.yaml"
	AnchorsDir   = "anchors"
	PreviewsDir  = "previews"
)

// Matcher defaults.
const (
	DefaultConfidence = 0.9
	DefaultGrayscale  = true
)

// Meta describes a flow package.
type Meta struct {
	Name          string  `yaml:"name"`
	CreatedUTC    string  `yaml:"created_utc"`
	DefaultDelayS float64 `yaml:"default_delay_s"`
}

// Settings are the global matcher settings consumed by the anchor locator.
type Settings struct {
	Confidence float64 `yaml:"confidence"`
	Grayscale  bool    `yaml:"grayscale"`
}

// UnmarshalYAML applies defaults for absent fields.
func (s *Settings) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Confidence *float64 `yaml:"confidence"`
		Grayscale  *bool    `yaml:"grayscale"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	s.Confidence = DefaultConfidence
	if raw.Confidence != nil {
		s.Confidence = *raw.Confidence
	}
	s.Grayscale = DefaultGrayscale
	if raw.Grayscale != nil {
		s.Grayscale = *raw.Grayscale
	}
	return nil
}

// Document is the flow.yaml root.
type Document struct {
	Version int          `yaml:"version"`
	Meta    Meta         `yaml:"meta"`
	Global  Settings     `yaml:"global"`
	Flows   []*flow.Flow `yaml:"flows"`
}

// Project is an opened flow package directory.
type Project struct {
	Dir string
	Doc *Document
}

// Open reads an existing project directory.
func Open(dir string) (*Project, error) {
	path := filepath.Join(dir, FlowFileName)
	data, err := os.ReadFile(path) //#nosec G304 -- path is user-provided project dir
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	doc := Document{
		Meta:   Meta{DefaultDelayS: flow.DefaultDelaySeconds},
		Global: Settings{Confidence: DefaultConfidence, Grayscale: DefaultGrayscale},
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return &Project{Dir: dir, Doc: &doc}, nil
}

// Create initializes a new project directory with an empty document and the
// asset subdirectories.
func Create(dir, name string) (*Project, error) {
	for _, d := range []string{dir, filepath.Join(dir, AnchorsDir), filepath.Join(dir, PreviewsDir)} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", d, err)
		}
	}

	p := &Project{
		Dir: dir,
		Doc: &Document{
			Version: 0,
			Meta: Meta{
				Name:          name,
				CreatedUTC:    time.Now().UTC().Format("2006-01-02T15:04:05Z"),
				DefaultDelayS: flow.DefaultDelaySeconds,
			},
			Global: Settings{Confidence: DefaultConfidence, Grayscale: DefaultGrayscale},
			Flows:  []*flow.Flow{},
		},
	}
	if err := p.Save(); err != nil {
		return nil, err
	}
	return p, nil
}

// Save writes flow.yaml back to disk.
func (p *Project) Save() error {
	data, err := yaml.Marshal(p.Doc)
	if err != nil {
		return fmt.Errorf("failed to serialize flow.yaml: %w", err)
	}
	path := filepath.Join(p.Dir, FlowFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Flow returns the flow with the given id.
func (p *Project) Flow(id string) (*flow.Flow, bool) {
	for _, f := range p.Doc.Flows {
		if f.ID == id {
			return f, true
		}
	}
	return nil, false
}

// AddFlow appends a flow to the document.
func (p *Project) AddFlow(f *flow.Flow) {
	p.Doc.Flows = append(p.Doc.Flows, f)
}

// Abs resolves a project-relative asset path.
func (p *Project) Abs(rel string) string {
	return filepath.Join(p.Dir, filepath.FromSlash(rel))
}

// AnchorPath returns the project-relative anchor image path for a flow.
func AnchorPath(flowID string) string {
	return fmt.Sprintf("%s/%s_anchor.png", AnchorsDir, flowID)
}

// PreviewPath returns the project-relative preview path for a 1-based step
// number.
func PreviewPath(flowID string, stepNum int) string {
	return fmt.Sprintf("%s/%s_step%04d.png", PreviewsDir, flowID, stepNum)
}

// MatcherOptions merges the global matcher settings with any per-anchor
// overrides.
func (p *Project) MatcherOptions(f *flow.Flow) locator.Options {
	opts := locator.Options{
		Confidence: p.Doc.Global.Confidence,
		Grayscale:  p.Doc.Global.Grayscale,
	}
	if f.Anchor != nil {
		if f.Anchor.Confidence != nil {
			opts.Confidence = *f.Anchor.Confidence
		}
		if f.Anchor.Grayscale != nil {
			opts.Grayscale = *f.Anchor.Grayscale
		}
	}
	return opts
}

// LoadAnchorImage reads a flow's anchor template from disk.
func (p *Project) LoadAnchorImage(f *flow.Flow) (image.Image, error) {
	if f.Anchor == nil || f.Anchor.Image == "" {
		return nil, fmt.Errorf("flow %s has no anchor image", f.ID)
	}
	path := p.Abs(f.Anchor.Image)
	fd, err := os.Open(path) //#nosec G304 -- path comes from the project file
	if err != nil {
		return nil, fmt.Errorf("failed to open anchor image %s: %w", path, err)
	}
	defer fd.Close()

	img, err := png.Decode(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to decode anchor image %s: %w", path, err)
	}
	return img, nil
}

// SavePNG writes an image to a project-relative path, creating parent
// directories as needed.
func (p *Project) SavePNG(rel string, img image.Image) error {
	path := p.Abs(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	fd, err := os.Create(path) //#nosec G304 -- path derives from the project dir
	if err != nil {
		return err
	}
	defer fd.Close()

	if err := png.Encode(fd, img); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}

// SavePreview writes a step preview and returns its project-relative path.
// stepNum is 1-based.
func (p *Project) SavePreview(flowID string, stepNum int, img image.Image) (string, error) {
	rel := PreviewPath(flowID, stepNum)
	if err := p.SavePNG(rel, img); err != nil {
		return "", err
	}
	return rel, nil
}
