package scoring

import (
	"fmt"
	"math"

	"github.com/aaltino/hubempresas-sub001/internal/validation"
)

// WeightEpsilon is the tolerance when checking that block weights sum to 1.
const WeightEpsilon = 1e-9

// Question is one answerable item inside a block.
type Question struct {
	ID   string `yaml:"id" json:"id"`
	Text string `yaml:"text" json:"text"`
}

// Block is a named, weighted group of questions.
type Block struct {
	Name      string     `yaml:"name" json:"name"`
	Weight    float64    `yaml:"weight" json:"weight"`
	Questions []Question `yaml:"questions" json:"questions"`
}

// Template is an immutable, versioned questionnaire definition. A new
// version is a new Template; a loaded Template is never mutated.
type Template struct {
	ID            string  `yaml:"id" json:"id"`
	Version       int     `yaml:"version" json:"version"`
	Name          string  `yaml:"name" json:"name"`
	PassThreshold float64 `yaml:"pass_threshold" json:"pass_threshold"`
	Blocks        []Block `yaml:"blocks" json:"blocks"`
}

// Source identifies the template in configuration errors.
func (t *Template) Source() string {
	return fmt.Sprintf("template:%s@v%d", t.ID, t.Version)
}

// QuestionCount returns the total number of questions across all blocks.
func (t *Template) QuestionCount() int {
	n := 0
	for _, b := range t.Blocks {
		n += len(b.Questions)
	}
	return n
}

// Block returns the block with the given name.
func (t *Template) Block(name string) (Block, bool) {
	for _, b := range t.Blocks {
		if b.Name == name {
			return b, true
		}
	}
	return Block{}, false
}

// HasQuestion reports whether questionID belongs to any block.
func (t *Template) HasQuestion(questionID string) bool {
	for _, b := range t.Blocks {
		for _, q := range b.Questions {
			if q.ID == questionID {
				return true
			}
		}
	}
	return false
}

// Validate checks the template's structural invariants. Weights that do not
// sum to 1 are rejected, never silently renormalised.
func (t *Template) Validate() error {
	var errs validation.Errors
	src := t.Source()

	if t.ID == "" {
		errs.Addf(src, "id", "template id is required")
	}
	if t.PassThreshold <= 0 || t.PassThreshold > 1 {
		errs.Addf(src, "pass_threshold", "pass threshold %v must be in (0,1]", t.PassThreshold)
	}
	if len(t.Blocks) == 0 {
		errs.Addf(src, "blocks", "template has no blocks")
	}

	blockNames := make(map[string]bool, len(t.Blocks))
	questionIDs := make(map[string]string)
	sum := 0.0
	for i, b := range t.Blocks {
		field := fmt.Sprintf("blocks[%d]", i)
		if b.Name == "" {
			errs.Addf(src, field+".name", "block name is required")
		} else if blockNames[b.Name] {
			errs.Addf(src, field+".name", "duplicate block %q", b.Name)
		}
		blockNames[b.Name] = true

		if b.Weight <= 0 || b.Weight > 1 {
			errs.Addf(src, field+".weight", "weight %v must be in (0,1]", b.Weight)
		}
		sum += b.Weight

		if len(b.Questions) == 0 {
			errs.Addf(src, field+".questions", "block %q has no questions", b.Name)
		}
		for j, q := range b.Questions {
			qField := fmt.Sprintf("%s.questions[%d].id", field, j)
			if q.ID == "" {
				errs.Addf(src, qField, "question id is required")
				continue
			}
			if owner, dup := questionIDs[q.ID]; dup {
				errs.Addf(src, qField, "question %q already defined in block %q", q.ID, owner)
				continue
			}
			questionIDs[q.ID] = b.Name
		}
	}

	if len(t.Blocks) > 0 && math.Abs(sum-1.0) > WeightEpsilon {
		errs.Addf(src, "blocks", "block weights sum to %.12f, must sum to 1.0", sum)
	}

	return errs.Err()
}
