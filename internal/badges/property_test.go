package badges

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestProperty_EmptyConditionNeverMatches(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)
	m := NewMatcher(testStages)
	unconstrained := Condition{Predicates: []Predicate{
		{Kind: KindAllStages},
		{Kind: KindNoRevisions},
	}}

	properties.Property("matches({}, ctx) is false", prop.ForAll(
		func(score float64, revisions, interviews int, canvas, mvp bool, stage string) bool {
			ctx := EventContext{
				CompanyStage:    stage,
				Score:           score,
				StagesCompleted: testStages,
				CanvasApproved:  canvas,
				MVPValidated:    mvp,
				RevisionCount:   revisions,
				Interviews:      interviews,
				Metrics:         map[string]float64{"x": score},
			}
			return !m.Matches(Condition{}, ctx) && !m.Matches(unconstrained, ctx)
		},
		gen.Float64Range(0, 100),
		gen.IntRange(0, 10),
		gen.IntRange(0, 100),
		gen.Bool(),
		gen.Bool(),
		gen.OneConstOf("ideation", "validation", "traction", ""),
	))

	properties.Property("scoreMin is an inclusive threshold", prop.ForAll(
		func(threshold, score float64) bool {
			c := Condition{Predicates: []Predicate{{Kind: KindScoreMin, Number: threshold}}}
			return m.Matches(c, EventContext{Score: score}) == (score >= threshold)
		},
		gen.Float64Range(0, 100),
		gen.Float64Range(0, 100),
	))

	properties.TestingRun(t)
}
