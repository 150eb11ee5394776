// Package gate decides whether a company may advance between program stages.
//
// Two call shapes share one inclusive comparator: the questionnaire gate
// (0-100 weighted score against a 0-1 pass threshold) and the program
// advancement gate (0-10 mentor evaluation against a GateRule). Failing a
// gate is a normal outcome reported through Result, never an error.
package gate

import (
	"fmt"
	"math"
	"sort"

	"github.com/aaltino/hubempresas-sub001/internal/validation"
)

// RuleKind tells which of a program's two rule flavours applies.
type RuleKind string

const (
	// KindPassage gates advancement to the successor program.
	KindPassage RuleKind = "passage_to_next"
	// KindMaintenance gates retention in a terminal program.
	KindMaintenance RuleKind = "maintenance_thresholds"
)

// Rule is a program's pass/maintenance threshold set.
type Rule struct {
	WeightedScoreMin float64            `yaml:"weighted_score_min" json:"weighted_score_min"`
	DimensionMins    map[string]float64 `yaml:"dimension_mins,omitempty" json:"dimension_mins,omitempty"`
	GateRequired     bool               `yaml:"gate_required" json:"gate_required"`
}

// Evaluation is a mentor evaluation on the 0-10 scale.
type Evaluation struct {
	WeightedScore   float64            `json:"weighted_score"`
	DimensionScores map[string]float64 `json:"dimension_scores"`
}

// Clause identifies one conjunct of the advancement decision.
type Clause string

const (
	ClauseWeightedScore   Clause = "weighted_score"
	ClauseDimensionMin    Clause = "dimension_min"
	ClauseDeliverableGate Clause = "deliverable_gate"
)

// ClauseFailure explains one failed conjunct so the company knows exactly
// what to fix.
type ClauseFailure struct {
	Clause    Clause  `json:"clause"`
	Dimension string  `json:"dimension,omitempty"`
	Required  float64 `json:"required,omitempty"`
	Actual    float64 `json:"actual,omitempty"`
	Missing   bool    `json:"missing,omitempty"` // dimension absent from the evaluation
}

func (f ClauseFailure) String() string {
	switch f.Clause {
	case ClauseWeightedScore:
		return fmt.Sprintf("weighted score %.2f below minimum %.2f", f.Actual, f.Required)
	case ClauseDimensionMin:
		if f.Missing {
			return fmt.Sprintf("dimension %q not evaluated (minimum %.2f)", f.Dimension, f.Required)
		}
		return fmt.Sprintf("dimension %q scored %.2f below minimum %.2f", f.Dimension, f.Actual, f.Required)
	case ClauseDeliverableGate:
		return "required deliverables not approved"
	default:
		return string(f.Clause)
	}
}

// Result is the structured outcome of the advancement gate.
type Result struct {
	Eligible      bool            `json:"eligible"`
	FailedClauses []ClauseFailure `json:"failed_clauses"`
}

// meets is the shared inclusive comparator: equality passes.
func meets(actual, minimum float64) bool {
	return actual >= minimum
}

// QuestionnairePassed applies the questionnaire gate. passThreshold is on
// the 0-1 scale and is scaled by 100 before comparison.
func QuestionnairePassed(weightedScore, passThreshold float64) bool {
	return meets(weightedScore, passThreshold*100)
}

// Evaluate applies the advancement gate. All three conjuncts are checked
// and reported independently, in a fixed order: weighted score, dimension
// minimums (sorted by dimension name), deliverable gate.
// deliverablesApproved is precomputed by the caller.
func Evaluate(eval Evaluation, rule Rule, deliverablesApproved bool) Result {
	res := Result{FailedClauses: []ClauseFailure{}}

	if !meets(eval.WeightedScore, rule.WeightedScoreMin) {
		res.FailedClauses = append(res.FailedClauses, ClauseFailure{
			Clause:   ClauseWeightedScore,
			Required: rule.WeightedScoreMin,
			Actual:   eval.WeightedScore,
		})
	}

	for _, dim := range sortedKeys(rule.DimensionMins) {
		minimum := rule.DimensionMins[dim]
		actual, ok := eval.DimensionScores[dim]
		if !ok {
			// An unevaluated dimension never passes implicitly.
			res.FailedClauses = append(res.FailedClauses, ClauseFailure{
				Clause: ClauseDimensionMin, Dimension: dim, Required: minimum, Missing: true,
			})
			continue
		}
		if !meets(actual, minimum) {
			res.FailedClauses = append(res.FailedClauses, ClauseFailure{
				Clause: ClauseDimensionMin, Dimension: dim, Required: minimum, Actual: actual,
			})
		}
	}

	if rule.GateRequired && !deliverablesApproved {
		res.FailedClauses = append(res.FailedClauses, ClauseFailure{Clause: ClauseDeliverableGate})
	}

	res.Eligible = len(res.FailedClauses) == 0
	return res
}

// Validate checks the rule against the dimensions a program declares.
// A minimum for an unknown dimension is a configuration error.
func (r Rule) Validate(source string, knownDimensions []string) error {
	var errs validation.Errors
	known := make(map[string]bool, len(knownDimensions))
	for _, d := range knownDimensions {
		known[d] = true
	}

	if r.WeightedScoreMin < 0 || r.WeightedScoreMin > 10 {
		errs.Addf(source, "weighted_score_min", "minimum %v must be within 0-10", r.WeightedScoreMin)
	}
	for _, dim := range sortedKeys(r.DimensionMins) {
		field := "dimension_mins." + dim
		if !known[dim] {
			errs.Addf(source, field, "unknown dimension %q", dim)
		}
		if v := r.DimensionMins[dim]; v < 0 || v > 10 {
			errs.Addf(source, field, "minimum %v must be within 0-10", v)
		}
	}
	return errs.Err()
}

// WeightedDimensionScore computes a 0-10 mentor weighted score from
// per-dimension scores. Weights must cover every scored dimension and sum
// to 1; a dimension without a score contributes zero.
func WeightedDimensionScore(scores, weights map[string]float64) (float64, error) {
	sum := 0.0
	for _, dim := range sortedKeys(weights) {
		sum += weights[dim]
	}
	if math.Abs(sum-1.0) > 1e-9 {
		return 0, fmt.Errorf("dimension weights sum to %.6f, must sum to 1.0", sum)
	}
	for dim := range scores {
		if _, ok := weights[dim]; !ok {
			return 0, fmt.Errorf("no weight for dimension %q", dim)
		}
	}

	total := 0.0
	for _, dim := range sortedKeys(weights) {
		total += scores[dim] * weights[dim]
	}
	return total, nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
