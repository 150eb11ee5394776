package scoring

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/aaltino/hubempresas-sub001/internal/validation"
)

func init() {
	// Freeze time for deterministic tests.
	timeNow = func() time.Time {
		return time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	}
}

// --- Helpers ---

// twoBlockTemplate is the 0.6/0.4 template used throughout the scenarios.
func twoBlockTemplate() *Template {
	return &Template{
		ID:            "diagnostic",
		Version:       1,
		Name:          "Diagnostic",
		PassThreshold: 0.80,
		Blocks: []Block{
			{Name: "market", Weight: 0.6, Questions: []Question{{ID: "m1"}, {ID: "m2"}}},
			{Name: "team", Weight: 0.4, Questions: []Question{{ID: "t1"}, {ID: "t2"}}},
		},
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// --- Normalize ---

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   AnswerValue
		want float64
	}{
		{AnswerNo, 0},
		{AnswerPartial, 0.5},
		{AnswerYes, 1.0},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%d) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAnswerFromNumber(t *testing.T) {
	tests := []struct {
		in      float64
		want    AnswerValue
		wantErr bool
	}{
		{0, AnswerNo, false},
		{1, AnswerPartial, false},
		{2, AnswerYes, false},
		{3, 0, true},
		{-1, 0, true},
		{1.5, 0, true},
		{math.NaN(), 0, true},
	}
	for _, tt := range tests {
		got, err := AnswerFromNumber(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("AnswerFromNumber(%v) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("AnswerFromNumber(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

// --- Template.Validate ---

func TestValidate_AcceptsWellFormedTemplate(t *testing.T) {
	if err := twoBlockTemplate().Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidate_ToleratesFloatRounding(t *testing.T) {
	tpl := &Template{
		ID: "rounding", Version: 1, PassThreshold: 0.5,
		Blocks: []Block{
			{Name: "a", Weight: 0.1, Questions: []Question{{ID: "a1"}}},
			{Name: "b", Weight: 0.2, Questions: []Question{{ID: "b1"}}},
			{Name: "c", Weight: 0.7, Questions: []Question{{ID: "c1"}}},
		},
	}
	if err := tpl.Validate(); err != nil {
		t.Fatalf("0.1+0.2+0.7 should be accepted: %v", err)
	}
}

func TestValidate_RejectsWeightsNotSummingToOne(t *testing.T) {
	tpl := twoBlockTemplate()
	tpl.Blocks[1].Weight = 0.3

	err := tpl.Validate()
	if err == nil {
		t.Fatal("expected configuration error for weights summing to 0.9")
	}
	if !validation.IsConfigError(err) {
		t.Errorf("expected ConfigError, got %T", err)
	}
	// The template must not be renormalised as a side effect.
	if tpl.Blocks[1].Weight != 0.3 {
		t.Errorf("weight mutated to %v", tpl.Blocks[1].Weight)
	}
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	tpl := &Template{
		ID:            "broken",
		PassThreshold: 1.5,
		Blocks: []Block{
			{Name: "a", Weight: 0.5, Questions: []Question{{ID: "q1"}}},
			{Name: "a", Weight: 0.5, Questions: []Question{{ID: "q1"}}},
			{Name: "c", Weight: 0, Questions: nil},
		},
	}
	err := tpl.Validate()
	var errs validation.Errors
	if !errors.As(err, &errs) {
		t.Fatalf("expected validation.Errors, got %T", err)
	}
	// threshold, duplicate block, duplicate question, zero weight, empty block.
	if len(errs) != 5 {
		t.Errorf("got %d errors, want 5:\n%v", len(errs), err)
	}
}

// --- BlockScore / Score ---

func TestBlockScore_OnlyAnsweredQuestionsCount(t *testing.T) {
	b := Block{Name: "x", Weight: 1, Questions: []Question{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	got, ok := BlockScore(b, Answers{"a": AnswerYes})
	if !ok {
		t.Fatal("block with one answer should be scoreable")
	}
	if got != 100 {
		t.Errorf("BlockScore = %v, want 100 (unanswered questions are not penalised)", got)
	}
}

func TestBlockScore_UnansweredBlockIsUndefined(t *testing.T) {
	b := Block{Name: "x", Weight: 1, Questions: []Question{{ID: "a"}}}
	if _, ok := BlockScore(b, Answers{}); ok {
		t.Error("all-unanswered block must not be scoreable")
	}
}

func TestBlockScore_GenuineZero(t *testing.T) {
	b := Block{Name: "x", Weight: 1, Questions: []Question{{ID: "a"}}}
	got, ok := BlockScore(b, Answers{"a": AnswerNo})
	if !ok || got != 0 {
		t.Errorf("BlockScore = (%v, %v), want (0, true)", got, ok)
	}
}

func TestScore_ScenarioWeightedEightyFive(t *testing.T) {
	tpl := twoBlockTemplate()
	answers := Answers{"m1": AnswerPartial, "m2": AnswerYes, "t1": AnswerYes, "t2": AnswerYes}

	res := Score(tpl, answers)

	if res.BlockScores["market"] != 75 {
		t.Errorf("market = %v, want 75", res.BlockScores["market"])
	}
	if res.BlockScores["team"] != 100 {
		t.Errorf("team = %v, want 100", res.BlockScores["team"])
	}
	if !almostEqual(res.WeightedScore, 85) {
		t.Errorf("WeightedScore = %v, want 85", res.WeightedScore)
	}
	if res.CompletionRate != 1 || !res.Complete {
		t.Errorf("completion = (%v, %v), want (1, true)", res.CompletionRate, res.Complete)
	}
}

func TestScore_PartialRenormalisesOverScoreableBlocks(t *testing.T) {
	tpl := twoBlockTemplate()
	res := Score(tpl, Answers{"m1": AnswerPartial})

	if res.Scoreable("team") {
		t.Error("team has no answers and must not be scoreable")
	}
	// Only market is scoreable: its weight is re-normalised to 1.
	if !almostEqual(res.WeightedScore, 50) {
		t.Errorf("WeightedScore = %v, want 50", res.WeightedScore)
	}
	if res.CompletionRate != 0.25 {
		t.Errorf("CompletionRate = %v, want 0.25", res.CompletionRate)
	}
	if res.Complete {
		t.Error("partial response must not be complete")
	}
	if res.Answered["market"] != 1 || res.Answered["team"] != 0 {
		t.Errorf("Answered = %v", res.Answered)
	}
}

func TestScore_NoAnswers(t *testing.T) {
	res := Score(twoBlockTemplate(), nil)
	if res.WeightedScore != 0 || res.CompletionRate != 0 || res.Complete {
		t.Errorf("empty response = %+v", res)
	}
	if len(res.BlockScores) != 0 {
		t.Errorf("no block should be scoreable, got %v", res.BlockScores)
	}
}

func TestParseAnswers(t *testing.T) {
	tpl := twoBlockTemplate()

	got, err := ParseAnswers(tpl, map[string]float64{"m1": 2, "t2": 0})
	if err != nil {
		t.Fatalf("ParseAnswers: %v", err)
	}
	if got["m1"] != AnswerYes || got["t2"] != AnswerNo || len(got) != 2 {
		t.Errorf("ParseAnswers = %v", got)
	}

	if _, err := ParseAnswers(tpl, map[string]float64{"zz": 1}); err == nil {
		t.Error("unknown question should be rejected")
	}
	if _, err := ParseAnswers(tpl, map[string]float64{"m1": 5}); err == nil {
		t.Error("off-scale answer should be rejected")
	}
}
