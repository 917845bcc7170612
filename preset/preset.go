// Package preset holds named generation settings that pre-fill pipeline
// options, loadable from YAML files alongside a set of built-ins.
package preset

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/GACLove/ComfyUI-Lightx2vWrapper/lightx2v"
	"github.com/GACLove/ComfyUI-Lightx2vWrapper/workflow"
)

// Preset is a named bundle of generation settings. Zero-valued fields
// fall back to the pipeline defaults when applied.
type Preset struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	Task lightx2v.Task `yaml:"task"`

	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	NumFrames int `yaml:"num_frames"`

	Steps    int     `yaml:"steps"`
	Shift    float64 `yaml:"shift,omitempty"`
	CFGScale float64 `yaml:"cfg_scale,omitempty"`

	Precision lightx2v.Precision     `yaml:"precision,omitempty"`
	Attention lightx2v.AttentionType `yaml:"attention,omitempty"`

	TeaCache *lightx2v.TeaCacheSettings `yaml:"teacache,omitempty"`
}

func (p *Preset) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("preset has no name")
	}
	if err := p.Task.Validate(); err != nil {
		return fmt.Errorf("preset %s: %w", p.Name, err)
	}
	if p.Width%8 != 0 || p.Height%8 != 0 {
		return fmt.Errorf("preset %s: resolution %dx%d not divisible by 8", p.Name, p.Width, p.Height)
	}
	if p.NumFrames > 0 && (p.NumFrames-1)%4 != 0 {
		return fmt.Errorf("preset %s: num_frames %d must be 4n+1", p.Name, p.NumFrames)
	}
	if p.Precision != "" {
		if err := p.Precision.Validate(); err != nil {
			return fmt.Errorf("preset %s: %w", p.Name, err)
		}
	}
	if p.Attention != "" {
		if err := p.Attention.Validate(); err != nil {
			return fmt.Errorf("preset %s: %w", p.Name, err)
		}
	}
	if p.TeaCache != nil {
		if err := p.TeaCache.Validate(); err != nil {
			return fmt.Errorf("preset %s: %w", p.Name, err)
		}
	}
	return nil
}

// Apply copies the preset's settings onto pipeline options, leaving
// fields the preset does not set untouched.
func (p *Preset) Apply(opts *workflow.PipelineOptions) {
	if p.Width > 0 {
		opts.Width = p.Width
	}
	if p.Height > 0 {
		opts.Height = p.Height
	}
	if p.NumFrames > 0 {
		opts.NumFrames = p.NumFrames
	}
	if p.Steps > 0 {
		opts.Steps = p.Steps
	}
	if p.Shift > 0 {
		opts.Shift = p.Shift
	}
	if p.CFGScale > 0 {
		opts.CFGScale = p.CFGScale
	}
	if p.Precision != "" {
		opts.Precision = p.Precision
	}
	if p.Attention != "" {
		opts.Attention = p.Attention
	}
	if p.TeaCache != nil {
		tc := *p.TeaCache
		opts.TeaCache = &tc
	}
}

// Load reads a single preset from a YAML file and validates it.
func Load(path string) (*Preset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Read(file)
}

// Read reads a single preset from YAML and validates it.
func Read(r io.Reader) (*Preset, error) {
	p := &Preset{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil {
		return nil, fmt.Errorf("decoding preset: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Save writes the preset to a YAML file.
func (p *Preset) Save(path string) error {
	if err := p.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Get resolves a name to a built-in preset, or loads it from disk when
// the name points at an existing file.
func Get(name string) (*Preset, error) {
	if p, ok := builtins[name]; ok {
		preset := p
		return &preset, nil
	}
	if _, err := os.Stat(name); err == nil {
		return Load(name)
	}
	return nil, fmt.Errorf("unknown preset %q", name)
}

// Names lists the built-in preset names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
