// Package suites is the catalog of benchmark suites a run can target.
package suites

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Suite is one runnable group of benchmarks.
type Suite struct {
	ID          string `yaml:"id" json:"id"`
	Label       string `yaml:"label" json:"label"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Default     bool   `yaml:"default,omitempty" json:"default,omitempty"`
}

// Catalog is the set of known suites.
type Catalog struct {
	Suites []Suite `yaml:"suites"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return &Catalog{Suites: []Suite{
		{ID: "output", Label: "Output evaluation", Description: "Structured output and translation benchmarks", Default: true},
		{ID: "custom", Label: "Custom agents", Description: "Benchmarks for custom agent integrations"},
		{ID: "crisis", Label: "Crisis command", Description: "Multi-step crisis response scenarios"},
		{ID: "all", Label: "All suites", Description: "Every benchmark in one run"},
	}}
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suites %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("suites %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	if err := validate(&c); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &c, nil
}

func validate(c *Catalog) error {
	if len(c.Suites) == 0 {
		return fmt.Errorf("no suites defined")
	}
	seen := make(map[string]bool, len(c.Suites))
	defaults := 0
	for i := range c.Suites {
		s := &c.Suites[i]
		if s.ID == "" {
			return fmt.Errorf("suite %d: id is required", i)
		}
		if seen[s.ID] {
			return fmt.Errorf("suite %q: duplicate id", s.ID)
		}
		seen[s.ID] = true
		if s.Label == "" {
			s.Label = s.ID
		}
		if s.Default {
			defaults++
		}
	}
	if defaults > 1 {
		return fmt.Errorf("%d suites marked default, want at most one", defaults)
	}
	return nil
}

// Lookup finds a suite by id.
func (c *Catalog) Lookup(id string) (Suite, bool) {
	for _, s := range c.Suites {
		if s.ID == id {
			return s, true
		}
	}
	return Suite{}, false
}

// Resolve maps id to a suite. An empty id selects the default suite, or the
// first one when none is marked.
func (c *Catalog) Resolve(id string) (Suite, error) {
	if id == "" {
		for _, s := range c.Suites {
			if s.Default {
				return s, nil
			}
		}
		return c.Suites[0], nil
	}
	s, ok := c.Lookup(id)
	if !ok {
		return Suite{}, fmt.Errorf("unknown suite %q", id)
	}
	return s, nil
}

// IDs lists suite ids in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.Suites))
	for i, s := range c.Suites {
		ids[i] = s.ID
	}
	return ids
}
