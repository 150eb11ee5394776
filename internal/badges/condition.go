// Package badges matches declarative badge conditions against event
// contexts and records awards idempotently.
package badges

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/aaltino/hubempresas-sub001/internal/validation"
)

// PredicateKind names one predicate of a badge condition. The set is
// closed: a key outside it is a configuration error.
type PredicateKind string

const (
	KindStage                     PredicateKind = "stage"
	KindScoreMin                  PredicateKind = "scoreMin"
	KindAllStages                 PredicateKind = "allStages"
	KindCanvasApproved            PredicateKind = "canvasApproved"
	KindNoRevisions               PredicateKind = "noRevisions"
	KindCompletionTimeHours       PredicateKind = "completionTimeHours"
	KindConsecutiveQuestionnaires PredicateKind = "consecutiveQuestionnaires"
	KindMetric                    PredicateKind = "metric"
	KindInterviews                PredicateKind = "interviews"
	KindMVPValidated              PredicateKind = "mvpValidated"
	KindGrowthMonths              PredicateKind = "growthMonths"
)

type valueType int

const (
	valueString valueType = iota
	valueNumber
	valueBool
)

func (v valueType) String() string {
	switch v {
	case valueString:
		return "a string"
	case valueNumber:
		return "a non-negative number"
	default:
		return "a boolean"
	}
}

// predicateOrder is the canonical evaluation and serialization order.
var predicateOrder = []PredicateKind{
	KindStage,
	KindScoreMin,
	KindAllStages,
	KindCanvasApproved,
	KindNoRevisions,
	KindCompletionTimeHours,
	KindConsecutiveQuestionnaires,
	KindMetric,
	KindInterviews,
	KindMVPValidated,
	KindGrowthMonths,
}

var predicateTypes = map[PredicateKind]valueType{
	KindStage:                     valueString,
	KindScoreMin:                  valueNumber,
	KindAllStages:                 valueBool,
	KindCanvasApproved:            valueBool,
	KindNoRevisions:               valueBool,
	KindCompletionTimeHours:       valueNumber,
	KindConsecutiveQuestionnaires: valueNumber,
	KindMetric:                    valueString,
	KindInterviews:                valueNumber,
	KindMVPValidated:              valueBool,
	KindGrowthMonths:              valueNumber,
}

// PredicateKinds returns every known predicate key in canonical order.
func PredicateKinds() []PredicateKind {
	return append([]PredicateKind(nil), predicateOrder...)
}

// Predicate is one typed variant of a condition. Only the field matching
// the kind's value type is meaningful.
type Predicate struct {
	Kind   PredicateKind
	Text   string
	Number float64
	Flag   bool
}

func (p Predicate) value() any {
	switch predicateTypes[p.Kind] {
	case valueString:
		return p.Text
	case valueNumber:
		return p.Number
	default:
		return p.Flag
	}
}

// Condition is a parsed badge condition: a conjunction of predicates in
// canonical order. The zero Condition is empty and never matches.
type Condition struct {
	Predicates []Predicate
}

// IsEmpty reports whether the condition has no predicates.
func (c Condition) IsEmpty() bool { return len(c.Predicates) == 0 }

// constrained reports whether p restricts anything. noRevisions and
// allStages set to false hold for every context.
func (p Predicate) constrained() bool {
	switch p.Kind {
	case KindNoRevisions, KindAllStages:
		return p.Flag
	default:
		return true
	}
}

// Unconstrained reports whether no predicate of c restricts the event
// context, so that c would hold for every event. Empty conditions are
// unconstrained.
func (c Condition) Unconstrained() bool {
	for _, p := range c.Predicates {
		if p.constrained() {
			return false
		}
	}
	return true
}

// Get returns the predicate of the given kind, if present.
func (c Condition) Get(kind PredicateKind) (Predicate, bool) {
	for _, p := range c.Predicates {
		if p.Kind == kind {
			return p, true
		}
	}
	return Predicate{}, false
}

// Map renders the condition back to its declarative key/value form.
func (c Condition) Map() map[string]any {
	out := make(map[string]any, len(c.Predicates))
	for _, p := range c.Predicates {
		out[string(p.Kind)] = p.value()
	}
	return out
}

// MarshalJSON encodes the condition as its declarative object.
func (c Condition) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Map())
}

// ParseCondition converts a declarative condition object into predicates.
// Unknown keys, wrongly typed values, negative thresholds and conditions
// made only of keys that hold for every event are reported as
// configuration errors attributed to source.
func ParseCondition(source string, raw map[string]any) (Condition, error) {
	var errs validation.Errors

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	byKind := make(map[PredicateKind]Predicate, len(raw))
	for _, k := range keys {
		kind := PredicateKind(k)
		vt, ok := predicateTypes[kind]
		if !ok {
			errs.Addf(source, "condition."+k, "unrecognized condition key %q", k)
			continue
		}
		p, err := parsePredicate(kind, vt, raw[k])
		if err != nil {
			errs.Addf(source, "condition."+k, "%v", err)
			continue
		}
		byKind[kind] = p
	}
	if err := errs.Err(); err != nil {
		return Condition{}, err
	}

	var c Condition
	for _, kind := range predicateOrder {
		if p, ok := byKind[kind]; ok {
			c.Predicates = append(c.Predicates, p)
		}
	}
	if !c.IsEmpty() && c.Unconstrained() {
		return Condition{}, validation.Newf(source, "condition",
			"condition only has keys that hold for every event; add a constraining key")
	}
	return c, nil
}

func parsePredicate(kind PredicateKind, vt valueType, v any) (Predicate, error) {
	p := Predicate{Kind: kind}
	switch vt {
	case valueString:
		s, ok := v.(string)
		if !ok || s == "" {
			return p, fmt.Errorf("must be %s, got %v", vt, v)
		}
		p.Text = s
	case valueBool:
		b, ok := v.(bool)
		if !ok {
			return p, fmt.Errorf("must be %s, got %v", vt, v)
		}
		p.Flag = b
	case valueNumber:
		n, ok := toFloat(v)
		if !ok || n < 0 {
			return p, fmt.Errorf("must be %s, got %v", vt, v)
		}
		p.Number = n
	}
	return p, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
