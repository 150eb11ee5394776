// Package actionplan finds under-performing blocks and dimensions and turns
// them into a deterministically ordered remediation plan.
//
// Identical inputs always yield an identically ordered plan, so re-scoring
// on every auto-save never shuffles the recommendations.
package actionplan

import (
	"sort"

	"github.com/aaltino/hubempresas-sub001/internal/scoring"
)

// Category says where a remediation item comes from.
type Category string

const (
	CategoryQuestion    Category = "question"
	CategoryDeliverable Category = "deliverable"
	CategoryMentorship  Category = "mentorship"
)

// Gap is a block, dimension or deliverable scoring short of its target.
// It is a computed value consumed immediately by Generate.
type Gap struct {
	Block    string   `json:"block"`
	Score    float64  `json:"score"`
	Weight   float64  `json:"weight"`
	Category Category `json:"category"`
	Target   float64  `json:"target,omitempty"`
}

// QuestionGaps returns a gap for every scored block below 100. Any
// shortfall counts, so passing companies still get suggestions. Blocks that
// are not yet scoreable produce no gap.
func QuestionGaps(t *scoring.Template, blockScores map[string]float64) []Gap {
	var gaps []Gap
	for _, b := range t.Blocks {
		score, ok := blockScores[b.Name]
		if !ok || score >= 100 {
			continue
		}
		gaps = append(gaps, Gap{Block: b.Name, Score: score, Weight: b.Weight, Category: CategoryQuestion, Target: 100})
	}
	SortGaps(gaps)
	return gaps
}

// DimensionGaps compares mentor dimension scores (0-10) with their
// minimums. Scores are reported on the 0-100 scale so they rank alongside
// block gaps. A missing dimension scores zero. weights may be nil, in which
// case every dimension weighs the same.
func DimensionGaps(scores, mins, weights map[string]float64) []Gap {
	var gaps []Gap
	dims := make([]string, 0, len(mins))
	for d := range mins {
		dims = append(dims, d)
	}
	sort.Strings(dims)

	for _, d := range dims {
		actual := scores[d]
		if actual >= mins[d] {
			continue
		}
		w := 1.0 / float64(len(mins))
		if weights != nil {
			w = weights[d]
		}
		gaps = append(gaps, Gap{
			Block:    d,
			Score:    actual * 10,
			Weight:   w,
			Category: CategoryMentorship,
			Target:   mins[d] * 10,
		})
	}
	SortGaps(gaps)
	return gaps
}

// DeliverableGaps turns pending required deliverables into gaps. A pending
// deliverable scores zero and carries the weight of a dominant item.
func DeliverableGaps(pending []string, weight float64) []Gap {
	names := append([]string(nil), pending...)
	sort.Strings(names)
	gaps := make([]Gap, 0, len(names))
	for _, n := range names {
		gaps = append(gaps, Gap{Block: n, Score: 0, Weight: weight, Category: CategoryDeliverable, Target: 100})
	}
	return gaps
}

// SortGaps orders gaps largest-impact first: descending weight, then
// ascending score. Name breaks any remaining tie.
func SortGaps(gaps []Gap) {
	sort.SliceStable(gaps, func(i, j int) bool {
		a, b := gaps[i], gaps[j]
		if a.Weight != b.Weight {
			return a.Weight > b.Weight
		}
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.Block < b.Block
	})
}
