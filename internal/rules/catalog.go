// Package rules loads and validates the rule catalog: questionnaire
// templates, programs with their gate rules, and badge definitions.
//
// A catalog is validated as a whole when it is loaded. Any problem is a
// configuration error and the catalog is rejected; nothing is scored
// against a partially valid rule set.
package rules

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aaltino/hubempresas-sub001/internal/badges"
	"github.com/aaltino/hubempresas-sub001/internal/gate"
	"github.com/aaltino/hubempresas-sub001/internal/scoring"
)

// ErrNotFound is returned by catalog lookups for unknown IDs.
var ErrNotFound = errors.New("not found")

// Dimension is a mentor evaluation dimension. Weight is optional; when no
// dimension of a program has a weight, dimensions weigh the same.
type Dimension struct {
	Name   string  `yaml:"name" json:"name"`
	Weight float64 `yaml:"weight,omitempty" json:"weight,omitempty"`
}

// Program is one stage of the progression. A program with a successor
// carries a passage rule; a terminal program carries maintenance
// thresholds.
type Program struct {
	ID                    string      `yaml:"id" json:"id"`
	Name                  string      `yaml:"name" json:"name"`
	Stage                 string      `yaml:"stage" json:"stage"`
	Next                  string      `yaml:"next,omitempty" json:"next,omitempty"`
	Questionnaire         string      `yaml:"questionnaire,omitempty" json:"questionnaire,omitempty"`
	Dimensions            []Dimension `yaml:"dimensions" json:"dimensions"`
	RequiredDeliverables  []string    `yaml:"required_deliverables,omitempty" json:"required_deliverables,omitempty"`
	PassageToNext         *gate.Rule  `yaml:"passage_to_next,omitempty" json:"passage_to_next,omitempty"`
	MaintenanceThresholds *gate.Rule  `yaml:"maintenance_thresholds,omitempty" json:"maintenance_thresholds,omitempty"`
}

// Source identifies the program in configuration errors.
func (p *Program) Source() string { return "program:" + p.ID }

// Terminal reports whether the program has no successor.
func (p *Program) Terminal() bool { return p.Next == "" }

// DimensionNames returns the declared dimensions in declaration order.
func (p *Program) DimensionNames() []string {
	out := make([]string, 0, len(p.Dimensions))
	for _, d := range p.Dimensions {
		out = append(out, d.Name)
	}
	return out
}

// DimensionWeights returns per-dimension weights, or nil when the program
// does not weight its dimensions.
func (p *Program) DimensionWeights() map[string]float64 {
	weighted := false
	for _, d := range p.Dimensions {
		if d.Weight != 0 {
			weighted = true
			break
		}
	}
	if !weighted {
		return nil
	}
	out := make(map[string]float64, len(p.Dimensions))
	for _, d := range p.Dimensions {
		out[d.Name] = d.Weight
	}
	return out
}

// Catalog is a validated, immutable rule set.
type Catalog struct {
	stages    []string
	templates map[string][]*scoring.Template // ascending version
	programs  map[string]*Program
	badges    map[string]badges.Badge
}

// Stages returns the full ordered stage list.
func (c *Catalog) Stages() []string {
	return append([]string(nil), c.stages...)
}

// Template returns the latest version of a template.
func (c *Catalog) Template(id string) (*scoring.Template, error) {
	versions := c.templates[id]
	if len(versions) == 0 {
		return nil, fmt.Errorf("template %q: %w", id, ErrNotFound)
	}
	return versions[len(versions)-1], nil
}

// TemplateVersion returns a specific version of a template. Responses stay
// pinned to the version they were started on.
func (c *Catalog) TemplateVersion(id string, version int) (*scoring.Template, error) {
	for _, t := range c.templates[id] {
		if t.Version == version {
			return t, nil
		}
	}
	return nil, fmt.Errorf("template %q version %d: %w", id, version, ErrNotFound)
}

// TemplateIDs returns every template ID, sorted.
func (c *Catalog) TemplateIDs() []string {
	return sortedIDs(c.templates)
}

// Program returns a program by ID.
func (c *Catalog) Program(id string) (*Program, error) {
	p, ok := c.programs[id]
	if !ok {
		return nil, fmt.Errorf("program %q: %w", id, ErrNotFound)
	}
	return p, nil
}

// ProgramIDs returns every program ID, sorted.
func (c *Catalog) ProgramIDs() []string {
	return sortedIDs(c.programs)
}

// Badge returns a badge definition by ID.
func (c *Catalog) Badge(id string) (badges.Badge, error) {
	b, ok := c.badges[id]
	if !ok {
		return badges.Badge{}, fmt.Errorf("badge %q: %w", id, ErrNotFound)
	}
	return b, nil
}

// Badges returns every badge definition sorted by ID.
func (c *Catalog) Badges() []badges.Badge {
	out := make([]badges.Badge, 0, len(c.badges))
	for _, id := range sortedIDs(c.badges) {
		out = append(out, c.badges[id])
	}
	return out
}

// ActiveBadges returns the badges eligible for automatic award.
func (c *Catalog) ActiveBadges() []badges.Badge {
	var out []badges.Badge
	for _, b := range c.Badges() {
		if b.Active {
			out = append(out, b)
		}
	}
	return out
}

// GateRule returns the rule that applies to a program: the passage rule
// when a successor exists, the maintenance thresholds otherwise.
func (c *Catalog) GateRule(programID string) (gate.Rule, gate.RuleKind, error) {
	p, err := c.Program(programID)
	if err != nil {
		return gate.Rule{}, "", err
	}
	if p.Terminal() {
		return *p.MaintenanceThresholds, gate.KindMaintenance, nil
	}
	return *p.PassageToNext, gate.KindPassage, nil
}

// View is the JSON form of a catalog.
type View struct {
	Stages    []string            `json:"stages"`
	Templates []*scoring.Template `json:"templates"`
	Programs  []*Program          `json:"programs"`
	Badges    []badges.Badge      `json:"badges"`
}

// View renders the catalog, every list in a stable order.
func (c *Catalog) View() View {
	v := View{
		Stages:    c.Stages(),
		Templates: []*scoring.Template{},
		Programs:  []*Program{},
		Badges:    c.Badges(),
	}
	for _, id := range c.TemplateIDs() {
		v.Templates = append(v.Templates, c.templates[id]...)
	}
	for _, id := range c.ProgramIDs() {
		v.Programs = append(v.Programs, c.programs[id])
	}
	return v
}

func sortedIDs[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
