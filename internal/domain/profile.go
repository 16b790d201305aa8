package domain

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Focus narrows an entity type to the subset a profile cares about.
type Focus struct {
	Priority1 []string `yaml:"priority_1"`
	Priority2 []string `yaml:"priority_2"`
	Exclude   []string `yaml:"exclude"`
}

// Leader is a tracked social account.
type Leader struct {
	Name   string `yaml:"name"`
	Handle string `yaml:"handle"`
}

// DeliveryConfig selects how reports are delivered.
type DeliveryConfig struct {
	Channel string             `yaml:"channel"`
	File    FileDeliveryConfig `yaml:"file"`
}

// FileDeliveryConfig configures the file channel.
type FileDeliveryConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"`
}

// Profile is a per-operator view onto a domain: focus rules, tracked
// handles, preferred publications, and delivery settings.
type Profile struct {
	Name           string              `yaml:"profile_name"`
	Focus          map[string]Focus    `yaml:"focus"`
	ThoughtLeaders []Leader            `yaml:"thought_leaders"`
	Publications   []string            `yaml:"publications"`
	Keywords       map[string][]string `yaml:"keywords"`
	Delivery       DeliveryConfig      `yaml:"delivery"`

	Domain *Domain `yaml:"-"`
}

// LoadProfile reads <domain dir>/profiles/<name>.yaml. A missing
// "default" profile falls back to an empty profile that inherits
// everything from the domain.
func LoadProfile(d *Domain, name string) (*Profile, error) {
	if name == "" {
		name = "default"
	}

	path := filepath.Join(d.dir, "profiles", name+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && name == "default" {
			return &Profile{Name: "default", Domain: d}, nil
		}
		return nil, fmt.Errorf("profile %q: %w", name, err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("profile %q: parse: %w", name, err)
	}
	if p.Name == "" {
		p.Name = name
	}
	p.Domain = d

	return &p, nil
}

// FocusedEntities returns the domain's entities of one type filtered
// and prioritized by the profile's focus rules. Without focus rules the
// domain list passes through unchanged.
func (p *Profile) FocusedEntities(entityType string) []Entity {
	entities := p.Domain.Entities(entityType)
	focus, ok := p.Focus[entityType]
	if !ok {
		return entities
	}

	inList := func(e Entity, names []string) bool {
		for _, n := range names {
			if n == e.Name || (e.Symbol != "" && n == e.Symbol) {
				return true
			}
		}
		return false
	}

	var result []Entity
	for _, e := range entities {
		if inList(e, focus.Exclude) {
			continue
		}
		switch {
		case inList(e, focus.Priority1):
			e.priority = 1
		case inList(e, focus.Priority2):
			e.priority = 2
		default:
			e.priority = 3
		}
		result = append(result, e)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].priority < result[j].priority
	})
	return result
}

// Symbols returns the stock symbols of the focused entities of one
// type, in priority order.
func (p *Profile) Symbols(entityType string) []string {
	var symbols []string
	for _, e := range p.FocusedEntities(entityType) {
		if e.Symbol != "" {
			symbols = append(symbols, e.Symbol)
		}
	}
	return symbols
}

// Handles returns the tracked social handles.
func (p *Profile) Handles() []string {
	handles := make([]string, 0, len(p.ThoughtLeaders))
	for _, l := range p.ThoughtLeaders {
		if l.Handle != "" {
			handles = append(handles, l.Handle)
		}
	}
	return handles
}

// BoostKeywords returns the profile's boost keyword list.
func (p *Profile) BoostKeywords() []string {
	return p.Keywords["boost"]
}

// SearchKeywords builds the query terms for news-style collectors:
// every focused entity name across the domain plus boost keywords.
func (p *Profile) SearchKeywords() []string {
	var keywords []string
	seen := make(map[string]bool)

	types := make([]string, 0, len(p.Domain.EntityTypes))
	for t := range p.Domain.EntityTypes {
		types = append(types, t)
	}
	sort.Strings(types)

	for _, t := range types {
		for _, e := range p.FocusedEntities(t) {
			if e.Name != "" && !seen[e.Name] {
				seen[e.Name] = true
				keywords = append(keywords, e.Name)
			}
		}
	}
	for _, k := range p.BoostKeywords() {
		if !seen[k] {
			seen[k] = true
			keywords = append(keywords, k)
		}
	}
	return keywords
}

// Feeds returns the publications to poll: the profile's subset when
// set, otherwise every domain publication with a feed URL.
func (p *Profile) Feeds() []Publication {
	wanted := make(map[string]bool, len(p.Publications))
	for _, name := range p.Publications {
		wanted[name] = true
	}

	var feeds []Publication
	for _, pub := range p.Domain.Publications {
		if pub.Feed == "" {
			continue
		}
		if len(wanted) > 0 && !wanted[pub.Name] {
			continue
		}
		feeds = append(feeds, pub)
	}
	return feeds
}

// DeliveryChannel returns the configured channel, defaulting to file.
func (p *Profile) DeliveryChannel() string {
	if p.Delivery.Channel == "" {
		return "file"
	}
	return p.Delivery.Channel
}
