package attractor

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// #region template

// Template is the YAML-authored form of an attractor. Either a precomputed
// vector or an anchor text (to be embedded by the external provider) must be
// present; thresholds omitted from the file keep their defaults.
type Template struct {
	Name       string     `yaml:"name"`
	Purpose    string     `yaml:"purpose"`
	Domain     string     `yaml:"domain"`
	AnchorText string     `yaml:"anchor_text"`
	Vector     []float32  `yaml:"vector"`
	Thresholds Thresholds `yaml:"thresholds"`
}

// #endregion template

// #region load

// LoadTemplate reads and parses a PA template file.
func LoadTemplate(path string) (Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Template{}, fmt.Errorf("read template: %w", err)
	}
	return ParseTemplate(data)
}

// ParseTemplate parses YAML template bytes. Absent threshold keys fall back
// to DefaultThresholds.
func ParseTemplate(data []byte) (Template, error) {
	t := Template{Thresholds: DefaultThresholds()}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Template{}, fmt.Errorf("parse template: %w", err)
	}
	if t.Name == "" {
		return Template{}, fmt.Errorf("%w: template missing name", ErrConfigInvalid)
	}
	if t.Purpose == "" {
		return Template{}, fmt.Errorf("%w: template %q missing purpose", ErrConfigInvalid, t.Name)
	}
	if len(t.Vector) == 0 && t.AnchorText == "" {
		return Template{}, fmt.Errorf("%w: template %q needs a vector or an anchor_text", ErrConfigInvalid, t.Name)
	}
	return t, nil
}

// Build constructs the Attractor. vector overrides the template's inline
// vector; pass nil to use the inline one.
func (t Template) Build(vector []float32) (*Attractor, error) {
	vec := vector
	if vec == nil {
		vec = t.Vector
	}
	return New(t.Name, t.Purpose, t.Domain, vec, t.Thresholds)
}

// #endregion load
