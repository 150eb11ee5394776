package engine

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/aaltino/hubempresas-sub001/internal/actionplan"
	"github.com/aaltino/hubempresas-sub001/internal/badges"
	"github.com/aaltino/hubempresas-sub001/internal/gate"
	"github.com/aaltino/hubempresas-sub001/internal/logger"
	"github.com/aaltino/hubempresas-sub001/internal/scoring"
	"github.com/aaltino/hubempresas-sub001/internal/validation"
)

var fixedNow = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	e, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func observedLogger() (*logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &logger.Logger{SugaredLogger: zap.New(core).Sugar()}, logs
}

// twoBlockTemplate: market 0.6 (m1, m2), team 0.4 (t1, t2), pass at 0.80.
func twoBlockTemplate() *scoring.Template {
	return &scoring.Template{
		ID: "diag", Version: 1, PassThreshold: 0.8,
		Blocks: []scoring.Block{
			{Name: "market", Weight: 0.6, Questions: []scoring.Question{{ID: "m1"}, {ID: "m2"}}},
			{Name: "team", Weight: 0.4, Questions: []scoring.Question{{ID: "t1"}, {ID: "t2"}}},
		},
	}
}

func TestNew_RejectsInvalidPlanConfig(t *testing.T) {
	cfg := actionplan.DefaultConfig()
	cfg.MaxPerGap = 0
	if _, err := New(WithPlanConfig(cfg)); err == nil {
		t.Error("expected error")
	}
}

// --- Score ---

func TestScore_WeightedEightyFivePasses(t *testing.T) {
	e := newEngine(t)
	answers := scoring.Answers{"m1": 2, "m2": 1, "t1": 2, "t2": 2}

	res, err := e.Score(ScoreRequest{Template: twoBlockTemplate(), Answers: answers, Final: true})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if math.Abs(res.WeightedScore-85) > 1e-9 {
		t.Errorf("WeightedScore = %v, want 85", res.WeightedScore)
	}
	if res.BlockScores["market"] != 75 || res.BlockScores["team"] != 100 {
		t.Errorf("BlockScores = %v", res.BlockScores)
	}
	if !res.IsPassed {
		t.Error("85 >= 80 must pass")
	}
	if res.CompletionRate != 1 || len(res.Warnings) != 0 {
		t.Errorf("CompletionRate = %v, Warnings = %v", res.CompletionRate, res.Warnings)
	}

	// A passing company still gets improvement suggestions for market.
	if len(res.Gaps) != 1 || res.Gaps[0].Block != "market" {
		t.Fatalf("Gaps = %+v", res.Gaps)
	}
	if len(res.ActionPlan) != 1 || res.ActionPlan[0].ItemReference != "m2" {
		t.Fatalf("ActionPlan = %+v", res.ActionPlan)
	}
	if res.ActionPlan[0].Priority != actionplan.PriorityHigh || res.ActionPlan[0].DueDate != "2026-03-09" {
		t.Errorf("item = %+v", res.ActionPlan[0])
	}
}

func TestScore_ThresholdIsInclusive(t *testing.T) {
	e := newEngine(t)
	tpl := twoBlockTemplate()
	tpl.PassThreshold = 0.85

	res, err := e.Score(ScoreRequest{Template: tpl, Answers: scoring.Answers{"m1": 2, "m2": 1, "t1": 2, "t2": 2}})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if !res.IsPassed {
		t.Errorf("score %v at threshold 85 must pass", res.WeightedScore)
	}
}

func TestScore_PartialPreviewWarns(t *testing.T) {
	e := newEngine(t)
	res, err := e.Score(ScoreRequest{Template: twoBlockTemplate(), Answers: scoring.Answers{"m1": 2, "m2": 2}})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if !reflect.DeepEqual(res.Warnings, []string{WarningIncompleteInput}) {
		t.Errorf("Warnings = %v", res.Warnings)
	}
	if res.CompletionRate != 0.5 {
		t.Errorf("CompletionRate = %v", res.CompletionRate)
	}
	if math.Abs(res.WeightedScore-100) > 1e-9 {
		t.Errorf("preview over the answered block = %v, want 100", res.WeightedScore)
	}
	if res.IsPassed {
		t.Error("a preview never passes")
	}
	if _, ok := res.BlockScores["team"]; ok {
		t.Error("unanswered block must not be scored")
	}
	if len(res.Gaps) != 0 || len(res.ActionPlan) != 0 {
		t.Errorf("gaps = %v, plan = %v", res.Gaps, res.ActionPlan)
	}
}

func TestScore_FinalRequiresFullCoverage(t *testing.T) {
	log, logs := observedLogger()
	e := newEngine(t, WithLogger(log))

	_, err := e.Score(ScoreRequest{Template: twoBlockTemplate(), Answers: scoring.Answers{"m1": 2}, Final: true})
	if !errors.Is(err, ErrIncompleteSubmission) {
		t.Fatalf("err = %v, want ErrIncompleteSubmission", err)
	}
	if logs.FilterMessage("final submission is incomplete").Len() != 1 {
		t.Error("expected a warning log")
	}
}

func TestScore_InvalidTemplateIsConfigError(t *testing.T) {
	e := newEngine(t)
	tpl := twoBlockTemplate()
	tpl.Blocks[1].Weight = 0.5

	_, err := e.Score(ScoreRequest{Template: tpl, Answers: scoring.Answers{}})
	if !validation.IsConfigError(err) {
		t.Errorf("err = %v, want configuration error", err)
	}
}

func TestScore_BadAnswersAreNotConfigErrors(t *testing.T) {
	e := newEngine(t)
	for name, answers := range map[string]scoring.Answers{
		"unknown question": {"zz": 1},
		"out of range":     {"m1": 3},
	} {
		_, err := e.Score(ScoreRequest{Template: twoBlockTemplate(), Answers: answers})
		if err == nil || validation.IsConfigError(err) {
			t.Errorf("%s: err = %v", name, err)
		}
	}
}

func TestScore_Idempotent(t *testing.T) {
	e := newEngine(t)
	req := ScoreRequest{Template: twoBlockTemplate(), Answers: scoring.Answers{"m1": 0, "m2": 1, "t1": 1}}
	a, err := e.Score(req)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := e.Score(req)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("results differ:\n%+v\n%+v", a, b)
	}
}

// --- Finalize ---

func TestFinalize_CompletesResponse(t *testing.T) {
	e := newEngine(t)
	tpl := twoBlockTemplate()
	resp := scoring.NewResponse("r1", tpl)
	for id, v := range map[string]scoring.AnswerValue{"m1": 2, "m2": 1, "t1": 2, "t2": 2} {
		if err := resp.SaveAnswer(tpl, id, v); err != nil {
			t.Fatal(err)
		}
	}

	res, err := e.Finalize(resp, tpl)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if resp.Status != scoring.StatusCompleted || resp.FinalScore == nil || *resp.FinalScore != res.WeightedScore {
		t.Errorf("response = %+v", resp)
	}
	if resp.Passed == nil || !*resp.Passed {
		t.Error("response should be marked passed")
	}

	if _, err := e.Finalize(resp, tpl); !errors.Is(err, scoring.ErrResponseCompleted) {
		t.Errorf("second Finalize err = %v", err)
	}
}

func TestFinalize_IncompleteStaysOpen(t *testing.T) {
	e := newEngine(t)
	tpl := twoBlockTemplate()
	resp := scoring.NewResponse("r1", tpl)
	_ = resp.SaveAnswer(tpl, "m1", 2)

	if _, err := e.Finalize(resp, tpl); !errors.Is(err, ErrIncompleteSubmission) {
		t.Fatalf("err = %v", err)
	}
	if resp.Status != scoring.StatusInProgress {
		t.Errorf("status = %s", resp.Status)
	}
}

// --- CheckGate ---

func TestCheckGate_DimensionBelowMinimum(t *testing.T) {
	e := newEngine(t)
	res, err := e.CheckGate(GateCheckRequest{
		WeightedScore:        7.2,
		DimensionScores:      map[string]float64{"mercado": 6.5},
		Rule:                 gate.Rule{WeightedScoreMin: 7.0, DimensionMins: map[string]float64{"mercado": 7.0}, GateRequired: true},
		DeliverablesApproved: true,
	})
	if err != nil {
		t.Fatalf("CheckGate: %v", err)
	}
	if res.Eligible {
		t.Error("must not be eligible")
	}
	if len(res.FailedClauses) != 1 || res.FailedClauses[0].Clause != gate.ClauseDimensionMin || res.FailedClauses[0].Dimension != "mercado" {
		t.Fatalf("FailedClauses = %+v", res.FailedClauses)
	}
	if len(res.ActionPlan) != 1 || res.ActionPlan[0].Category != actionplan.CategoryMentorship {
		t.Errorf("ActionPlan = %+v", res.ActionPlan)
	}
}

func TestCheckGate_PendingDeliverablesBecomeItems(t *testing.T) {
	e := newEngine(t)
	res, err := e.CheckGate(GateCheckRequest{
		WeightedScore:       8,
		Rule:                gate.Rule{WeightedScoreMin: 7, GateRequired: true},
		PendingDeliverables: []string{"pitch-deck", "canvas"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Eligible || len(res.FailedClauses) != 1 || res.FailedClauses[0].Clause != gate.ClauseDeliverableGate {
		t.Fatalf("res = %+v", res)
	}
	if len(res.ActionPlan) != 2 || res.ActionPlan[0].ItemReference != "canvas" {
		t.Fatalf("ActionPlan = %+v", res.ActionPlan)
	}
	for _, it := range res.ActionPlan {
		if it.Priority != actionplan.PriorityHigh || it.Category != actionplan.CategoryDeliverable {
			t.Errorf("item = %+v", it)
		}
	}
}

func TestCheckGate_UnknownDimensionIsConfigError(t *testing.T) {
	e := newEngine(t)
	_, err := e.CheckGate(GateCheckRequest{
		Rule:            gate.Rule{WeightedScoreMin: 7, DimensionMins: map[string]float64{"receita": 5}},
		KnownDimensions: []string{"mercado"},
	})
	if !validation.IsConfigError(err) {
		t.Errorf("err = %v, want configuration error", err)
	}
}

func TestCheckGate_Eligible(t *testing.T) {
	e := newEngine(t)
	res, err := e.CheckGate(GateCheckRequest{
		WeightedScore:        7,
		DimensionScores:      map[string]float64{"mercado": 7},
		Rule:                 gate.Rule{WeightedScoreMin: 7, DimensionMins: map[string]float64{"mercado": 7}, GateRequired: true},
		DeliverablesApproved: true,
		KnownDimensions:      []string{"mercado"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Eligible || len(res.FailedClauses) != 0 || len(res.Gaps) != 0 {
		t.Errorf("res = %+v", res)
	}
}

// --- EvaluateBadges ---

func topScoreBadge(t *testing.T) badges.Badge {
	c, err := badges.ParseCondition("badge:top-score", map[string]any{"scoreMin": 90})
	if err != nil {
		t.Fatal(err)
	}
	return badges.Badge{ID: "top-score", Active: true, Condition: c}
}

func TestEvaluateBadges_InclusiveAndIdempotent(t *testing.T) {
	log, logs := observedLogger()
	e := newEngine(t, WithLogger(log))
	ctx := context.Background()
	req := BadgeEvaluationRequest{
		CompanyID:    "acme",
		Event:        "questionnaire_completed",
		ActiveBadges: []badges.Badge{topScoreBadge(t)},
		Context:      badges.EventContext{Score: 90},
	}

	first, err := e.EvaluateBadges(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first.AwardedBadgeIDs, []string{"top-score"}) {
		t.Errorf("first = %v", first.AwardedBadgeIDs)
	}

	second, err := e.EvaluateBadges(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if len(second.AwardedBadgeIDs) != 0 {
		t.Errorf("second = %v, want none", second.AwardedBadgeIDs)
	}

	earned, err := e.CompanyBadges(ctx, "acme")
	if err != nil {
		t.Fatal(err)
	}
	if len(earned) != 1 {
		t.Errorf("earned = %d, want 1", len(earned))
	}
	if logs.FilterMessage("badge awarded").Len() != 1 {
		t.Errorf("badge awarded logs = %d", logs.FilterMessage("badge awarded").Len())
	}
}

func TestEvaluateBadges_UsesStages(t *testing.T) {
	e := newEngine(t, WithStages([]string{"ideation", "traction"}))
	c, err := badges.ParseCondition("badge:graduate", map[string]any{"allStages": true})
	if err != nil {
		t.Fatal(err)
	}
	res, err := e.EvaluateBadges(context.Background(), BadgeEvaluationRequest{
		CompanyID:    "acme",
		Event:        "stage_completed",
		ActiveBadges: []badges.Badge{{ID: "graduate", Active: true, Condition: c}},
		Context:      badges.EventContext{StagesCompleted: []string{"ideation", "traction"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res.AwardedBadgeIDs, []string{"graduate"}) {
		t.Errorf("awarded = %v", res.AwardedBadgeIDs)
	}
}
