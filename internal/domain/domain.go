// Package domain loads domain and profile configuration: which
// collectors a domain declares, the entities it tracks, and per-profile
// focus rules.
package domain

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/moltpulse/moltpulse/internal/model"
)

// Entity is a tracked company, person, or firm.
type Entity struct {
	ID     string `yaml:"id" json:"id"`
	Name   string `yaml:"name" json:"name"`
	Symbol string `yaml:"symbol,omitempty" json:"symbol,omitempty"`

	priority int
}

// CollectorDecl declares a collector the domain wants to run.
type CollectorDecl struct {
	Type string `yaml:"type" json:"type"`
}

// Publication is a cited outlet, optionally with an RSS feed.
type Publication struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url,omitempty" json:"url,omitempty"`
	Feed string `yaml:"feed,omitempty" json:"feed,omitempty"`
}

// ReportDecl declares a report type the domain supports.
type ReportDecl struct {
	Type string `yaml:"type" json:"type"`
}

// Domain is one loaded domain configuration (domain.yaml).
type Domain struct {
	Name         string              `yaml:"domain"`
	DisplayName  string              `yaml:"display_name"`
	EntityTypes  map[string][]Entity `yaml:"entity_types"`
	Collectors   []CollectorDecl     `yaml:"collectors"`
	Publications []Publication       `yaml:"publications"`
	Reports      []ReportDecl        `yaml:"reports"`

	dir string
}

// Entities returns the entities of one type.
func (d *Domain) Entities(entityType string) []Entity {
	return d.EntityTypes[entityType]
}

// ReportTypes lists the declared report types.
func (d *Domain) ReportTypes() []string {
	types := make([]string, 0, len(d.Reports))
	for _, r := range d.Reports {
		if r.Type != "" {
			types = append(types, r.Type)
		}
	}
	return types
}

// Validate returns configuration problems. Declaring two collectors
// under the same category is an error: the result map holds at most one
// result per category, so a duplicate would silently shadow its twin.
func (d *Domain) Validate() []string {
	var problems []string

	if d.Name == "" {
		problems = append(problems, "domain name is required")
	}
	if len(d.Collectors) == 0 {
		problems = append(problems, "at least one collector must be declared")
	}

	seen := make(map[string]bool)
	for _, c := range d.Collectors {
		if c.Type == "" {
			problems = append(problems, "collector declaration missing type")
			continue
		}
		if seen[c.Type] {
			problems = append(problems, fmt.Sprintf("duplicate collector type %q", c.Type))
		}
		seen[c.Type] = true
	}

	for _, p := range d.Publications {
		if p.Name == "" {
			problems = append(problems, "publication missing name")
		}
	}

	return problems
}

// List returns the domain names available under dir, sorted.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read domains dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, e.Name(), "domain.yaml")); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Load reads <dir>/<name>/domain.yaml.
func Load(dir, name string) (*Domain, error) {
	path := filepath.Join(dir, name, "domain.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("domain %q: %w", name, err)
	}

	var d Domain
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("domain %q: parse domain.yaml: %w", name, err)
	}
	if d.Name == "" {
		d.Name = name
	}
	if d.DisplayName == "" {
		d.DisplayName = d.Name
	}
	d.dir = filepath.Join(dir, name)

	return &d, nil
}

// DeclaredCategories maps the declarations to pipeline categories.
func (d *Domain) DeclaredCategories() []model.Category {
	cats := make([]model.Category, 0, len(d.Collectors))
	for _, c := range d.Collectors {
		if c.Type != "" {
			cats = append(cats, model.Category(c.Type))
		}
	}
	return cats
}
