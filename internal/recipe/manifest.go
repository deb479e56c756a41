// Package recipe describes which transformations a run activates.
// Manifests are configuration data only; recipe execution lives with
// the host.
package recipe

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Activation names a recipe to run together with its options.
type Activation struct {
	Name    string         `yaml:"name" json:"name"`
	Options map[string]any `yaml:"options,omitempty" json:"options,omitempty"`
}

// Manifest lists the recipe activations for a run, in order.
type Manifest struct {
	Recipes []Activation `yaml:"recipes" json:"recipes"`
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recipe manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse parses manifest YAML. Activations must be named, and names
// must be unique.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse recipe manifest: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Names returns the activation names in manifest order.
func (m *Manifest) Names() []string {
	names := make([]string, len(m.Recipes))
	for i, act := range m.Recipes {
		names[i] = act.Name
	}
	return names
}

func (m *Manifest) validate() error {
	seen := make(map[string]bool, len(m.Recipes))
	for i, act := range m.Recipes {
		if act.Name == "" {
			return fmt.Errorf("%w: entry %d", ErrUnnamedRecipe, i)
		}
		if seen[act.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateRecipe, act.Name)
		}
		seen[act.Name] = true
	}
	return nil
}
