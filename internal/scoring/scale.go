// Package scoring turns self-assessment answers into block and overall scores.
//
// Every function here is pure: scoring the same (template, answers) pair
// twice yields bit-identical results, so it is safe to call on every
// auto-save and from concurrent goroutines.
package scoring

import (
	"fmt"
	"math"
)

// MaxScorePerQuestion is the top of the tri-state answer scale.
const MaxScorePerQuestion = 2

// AnswerValue is a single tri-state answer: 0 (no), 1 (partially), 2 (yes).
type AnswerValue int

const (
	AnswerNo      AnswerValue = 0
	AnswerPartial AnswerValue = 1
	AnswerYes     AnswerValue = 2
)

// Valid reports whether v is on the scale.
func (v AnswerValue) Valid() bool {
	return v >= AnswerNo && v <= MaxScorePerQuestion
}

// Normalize converts a validated answer into its contribution in [0,1]:
// 0, 0.5 or 1.0. Callers must only pass values for which Valid is true.
func Normalize(v AnswerValue) float64 {
	return float64(v) / MaxScorePerQuestion
}

// AnswerFromNumber converts a JSON/YAML number into an AnswerValue.
// Fractional or out-of-range numbers are rejected.
func AnswerFromNumber(n float64) (AnswerValue, error) {
	if math.IsNaN(n) || n != math.Trunc(n) {
		return 0, fmt.Errorf("answer %v is not an integer", n)
	}
	v := AnswerValue(n)
	if !v.Valid() {
		return 0, fmt.Errorf("answer %v out of range: must be 0, 1 or 2", n)
	}
	return v, nil
}
