package rules

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/aaltino/hubempresas-sub001/internal/badges"
	"github.com/aaltino/hubempresas-sub001/internal/scoring"
	"github.com/aaltino/hubempresas-sub001/internal/validation"
)

// File names inside a rules directory.
const (
	TemplatesFile = "templates.yaml"
	ProgramsFile  = "programs.yaml"
	BadgesFile    = "badges.yaml"
)

// Store loads catalogs.
type Store interface {
	Load(dir string) (*Catalog, error)
}

// FileStore loads a catalog from YAML files in a directory. Missing files
// count as empty; a directory with none of them is an error.
type FileStore struct{}

var _ Store = FileStore{}

// Load reads and validates the catalog in dir.
func (FileStore) Load(dir string) (*Catalog, error) {
	var files Files
	found := 0
	for name, dst := range map[string]*[]byte{
		TemplatesFile: &files.Templates,
		ProgramsFile:  &files.Programs,
		BadgesFile:    &files.Badges,
	} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		*dst = data
		found++
	}
	if found == 0 {
		return nil, fmt.Errorf("no rule files (%s, %s, %s) in %s", TemplatesFile, ProgramsFile, BadgesFile, dir)
	}
	return Parse(files)
}

// Files holds the raw YAML of a catalog.
type Files struct {
	Templates []byte
	Programs  []byte
	Badges    []byte
}

type templatesDoc struct {
	Templates []*scoring.Template `yaml:"templates"`
}

type programsDoc struct {
	Stages   []string   `yaml:"stages"`
	Programs []*Program `yaml:"programs"`
}

type badgeDoc struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Active      *bool          `yaml:"active"`
	Condition   map[string]any `yaml:"condition"`
}

type badgesDoc struct {
	Badges []badgeDoc `yaml:"badges"`
}

// Parse validates raw catalog files and builds a Catalog. Every problem in
// every file is reported in one validation.Errors.
func Parse(f Files) (*Catalog, error) {
	var errs validation.Errors
	c := &Catalog{
		templates: make(map[string][]*scoring.Template),
		programs:  make(map[string]*Program),
		badges:    make(map[string]badges.Badge),
	}

	// References into a file that failed to decode are not checked: its
	// own errors already explain the problem.
	var tdoc templatesDoc
	templatesOK := decodeFile(KindTemplates, TemplatesFile, f.Templates, &tdoc, &errs)
	if templatesOK {
		c.addTemplates(tdoc.Templates, &errs)
	}
	checkTemplates := templatesOK || len(f.Templates) == 0

	var pdoc programsDoc
	programsOK := decodeFile(KindPrograms, ProgramsFile, f.Programs, &pdoc, &errs)
	if programsOK {
		c.stages = pdoc.Stages
		c.addPrograms(pdoc.Programs, checkTemplates, &errs)
	}
	checkStages := programsOK || len(f.Programs) == 0

	var bdoc badgesDoc
	if decodeFile(KindBadges, BadgesFile, f.Badges, &bdoc, &errs) {
		c.addBadges(bdoc.Badges, checkStages, &errs)
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

// decodeFile parses, schema-checks and decodes one file. It returns false
// when the file is absent or had errors.
func decodeFile(kind, name string, data []byte, out any, errs *validation.Errors) bool {
	if len(data) == 0 {
		return false
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		errs.Addf(name, "", "parse YAML: %v", err)
		return false
	}
	if err := validateDocument(kind, name, doc); err != nil {
		errs.Merge(name, err)
		return false
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		errs.Addf(name, "", "decode: %v", err)
		return false
	}
	return true
}

func (c *Catalog) addTemplates(ts []*scoring.Template, errs *validation.Errors) {
	for _, t := range ts {
		if err := t.Validate(); err != nil {
			errs.Merge(t.Source(), err)
			continue
		}
		for _, existing := range c.templates[t.ID] {
			if existing.Version == t.Version {
				errs.Addf(t.Source(), "version", "duplicate template version")
			}
		}
		c.templates[t.ID] = append(c.templates[t.ID], t)
	}
	for id := range c.templates {
		vs := c.templates[id]
		sort.SliceStable(vs, func(i, j int) bool { return vs[i].Version < vs[j].Version })
	}
}

func (c *Catalog) addPrograms(ps []*Program, checkTemplates bool, errs *validation.Errors) {
	knownStage := make(map[string]bool, len(c.stages))
	for _, s := range c.stages {
		knownStage[s] = true
	}

	for _, p := range ps {
		if _, dup := c.programs[p.ID]; dup {
			errs.Addf(p.Source(), "id", "duplicate program id")
			continue
		}
		c.programs[p.ID] = p
	}

	for _, id := range c.ProgramIDs() {
		p := c.programs[id]
		src := p.Source()

		if !knownStage[p.Stage] {
			errs.Addf(src, "stage", "unknown stage %q", p.Stage)
		}
		if checkTemplates && p.Questionnaire != "" {
			if _, ok := c.templates[p.Questionnaire]; !ok {
				errs.Addf(src, "questionnaire", "unknown template %q", p.Questionnaire)
			}
		}
		validateDimensions(p, errs)

		switch {
		case p.Next == p.ID:
			errs.Addf(src, "next", "program cannot succeed itself")
		case p.Next != "" && c.programs[p.Next] == nil:
			errs.Addf(src, "next", "unknown successor program %q", p.Next)
		}

		dims := p.DimensionNames()
		switch {
		case p.PassageToNext != nil && p.MaintenanceThresholds != nil:
			errs.Addf(src, "", "passage_to_next and maintenance_thresholds are mutually exclusive")
		case p.Next != "" && p.PassageToNext == nil:
			errs.Addf(src, "passage_to_next", "required when the program has a successor")
		case p.Next == "" && p.MaintenanceThresholds == nil:
			errs.Addf(src, "maintenance_thresholds", "required for a terminal program")
		case p.Next != "":
			mergeRuleErrors(src, "passage_to_next", p.PassageToNext.Validate(src, dims), errs)
		default:
			mergeRuleErrors(src, "maintenance_thresholds", p.MaintenanceThresholds.Validate(src, dims), errs)
		}
	}
}

func validateDimensions(p *Program, errs *validation.Errors) {
	src := p.Source()
	seen := make(map[string]bool, len(p.Dimensions))
	weighted, sum := 0, 0.0
	for i, d := range p.Dimensions {
		if seen[d.Name] {
			errs.Addf(src, fmt.Sprintf("dimensions[%d]", i), "duplicate dimension %q", d.Name)
		}
		seen[d.Name] = true
		if d.Weight < 0 || d.Weight > 1 {
			errs.Addf(src, fmt.Sprintf("dimensions[%d].weight", i), "weight %v must be within (0,1]", d.Weight)
		}
		if d.Weight != 0 {
			weighted++
			sum += d.Weight
		}
	}
	if weighted == 0 {
		return
	}
	if weighted != len(p.Dimensions) {
		errs.Addf(src, "dimensions", "either every dimension has a weight or none does")
		return
	}
	if math.Abs(sum-1.0) > scoring.WeightEpsilon {
		errs.Addf(src, "dimensions", "dimension weights sum to %.6f, must sum to 1.0", sum)
	}
}

// mergeRuleErrors prefixes a gate rule's field paths with its key.
func mergeRuleErrors(source, key string, err error, errs *validation.Errors) {
	if err == nil {
		return
	}
	var sub validation.Errors
	if !errors.As(err, &sub) {
		errs.Merge(source, err)
		return
	}
	for _, e := range sub {
		e.Field = key + "." + e.Field
		errs.Add(e)
	}
}

func (c *Catalog) addBadges(docs []badgeDoc, checkStages bool, errs *validation.Errors) {
	knownStage := make(map[string]bool, len(c.stages))
	for _, s := range c.stages {
		knownStage[s] = true
	}

	for _, d := range docs {
		src := "badge:" + d.ID
		if _, dup := c.badges[d.ID]; dup {
			errs.Addf(src, "id", "duplicate badge id")
			continue
		}
		cond, err := badges.ParseCondition(src, d.Condition)
		if err != nil {
			errs.Merge(src, err)
			continue
		}
		if p, ok := cond.Get(badges.KindStage); ok && checkStages && !knownStage[p.Text] {
			errs.Addf(src, "condition.stage", "unknown stage %q", p.Text)
		}
		active := true
		if d.Active != nil {
			active = *d.Active
		}
		c.badges[d.ID] = badges.Badge{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			Active:      active,
			Condition:   cond,
		}
	}
}
