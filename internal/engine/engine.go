// Package engine composes the scorer, gate, action-plan generator and badge
// matcher behind the three request shapes callers use: score a response,
// check a gate, evaluate badges.
//
// Scoring and gate checks are pure. Badge evaluation is the only operation
// with a side effect, delegated to a badges.Recorder.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aaltino/hubempresas-sub001/internal/actionplan"
	"github.com/aaltino/hubempresas-sub001/internal/badges"
	"github.com/aaltino/hubempresas-sub001/internal/gate"
	"github.com/aaltino/hubempresas-sub001/internal/logger"
	"github.com/aaltino/hubempresas-sub001/internal/scoring"
)

// WarningIncompleteInput flags a partial score: some questions are
// unanswered and the result is a preview.
const WarningIncompleteInput = "incomplete_input"

// ErrIncompleteSubmission is returned when a final score is requested for
// a response that does not answer every question.
var ErrIncompleteSubmission = errors.New("final submission requires every question answered")

// Engine is safe for concurrent use.
type Engine struct {
	plan    actionplan.Config
	awarder *badges.Awarder
	log     *logger.Logger
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	plan     actionplan.Config
	recorder badges.Recorder
	stages   []string
	log      *logger.Logger
	now      func() time.Time
}

// WithPlanConfig sets the action-plan thresholds and caps.
func WithPlanConfig(c actionplan.Config) Option {
	return func(o *options) { o.plan = c }
}

// WithRecorder sets where awarded badges are persisted. The default is an
// in-memory recorder.
func WithRecorder(r badges.Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithStages sets the full ordered stage list used by allStages.
func WithStages(stages []string) Option {
	return func(o *options) { o.stages = stages }
}

// WithLogger sets the logger. The default discards.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithClock sets the clock used for action-item due dates. A clock
// returning the zero time disables due dates.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New builds an Engine.
func New(opts ...Option) (*Engine, error) {
	o := options{
		plan: actionplan.DefaultConfig(),
		log:  logger.Nop(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.plan.Validate(); err != nil {
		return nil, fmt.Errorf("action plan config: %w", err)
	}
	if o.recorder == nil {
		o.recorder = badges.NewMemoryRecorder()
	}
	return &Engine{
		plan:    o.plan,
		awarder: badges.NewAwarder(badges.NewMatcher(o.stages), o.recorder),
		log:     o.log,
		now:     o.now,
	}, nil
}

// ScoreRequest asks for the score of a set of answers against a template.
type ScoreRequest struct {
	Template *scoring.Template
	Answers  scoring.Answers
	// Final marks a terminal submission. Final scores require full
	// coverage; previews are scored over the answered blocks.
	Final bool
}

// ScoreResult is the outcome of scoring. IsPassed is only true for a
// complete response that meets the pass threshold.
type ScoreResult struct {
	BlockScores    map[string]float64 `json:"block_scores"`
	WeightedScore  float64            `json:"weighted_score"`
	CompletionRate float64            `json:"completion_rate"`
	Gaps           []actionplan.Gap   `json:"gaps"`
	ActionPlan     []actionplan.Item  `json:"action_plan"`
	IsPassed       bool               `json:"is_passed"`
	Warnings       []string           `json:"warnings,omitempty"`
}

// Score scores answers, derives gaps and the action plan, and applies the
// questionnaire gate. An invalid template is a configuration error;
// missing answers are a warning unless the request is final.
func (e *Engine) Score(req ScoreRequest) (ScoreResult, error) {
	out, _, err := e.score(req)
	return out, err
}

func (e *Engine) score(req ScoreRequest) (ScoreResult, scoring.Result, error) {
	if req.Template == nil {
		return ScoreResult{}, scoring.Result{}, errors.New("template is required")
	}
	if err := req.Template.Validate(); err != nil {
		return ScoreResult{}, scoring.Result{}, err
	}
	for id, v := range req.Answers {
		if !req.Template.HasQuestion(id) {
			return ScoreResult{}, scoring.Result{}, fmt.Errorf("question %q is not part of %s", id, req.Template.Source())
		}
		if !v.Valid() {
			return ScoreResult{}, scoring.Result{}, fmt.Errorf("question %q: answer %d out of range", id, v)
		}
	}

	res := scoring.Score(req.Template, req.Answers)
	if req.Final && !res.Complete {
		e.log.Warn("final submission is incomplete",
			"template", req.Template.Source(),
			"completion_rate", res.CompletionRate,
		)
		return ScoreResult{}, res, fmt.Errorf("%w: %.0f%% answered", ErrIncompleteSubmission, res.CompletionRate*100)
	}

	gaps := actionplan.QuestionGaps(req.Template, res.BlockScores)
	out := ScoreResult{
		BlockScores:    res.BlockScores,
		WeightedScore:  res.WeightedScore,
		CompletionRate: res.CompletionRate,
		Gaps:           nonNilGaps(gaps),
		ActionPlan:     actionplan.Generate(gaps, req.Template, req.Answers, e.plan, e.now()),
		IsPassed:       res.Complete && gate.QuestionnairePassed(res.WeightedScore, req.Template.PassThreshold),
	}
	if !res.Complete {
		out.Warnings = append(out.Warnings, WarningIncompleteInput)
	}

	e.log.Debug("scored response",
		"template", req.Template.Source(),
		"weighted_score", out.WeightedScore,
		"completion_rate", out.CompletionRate,
		"passed", out.IsPassed,
		"gaps", len(out.Gaps),
	)
	return out, res, nil
}

// Finalize scores a response as a final submission and, on success, marks
// it completed with its terminal score.
func (e *Engine) Finalize(resp *scoring.Response, t *scoring.Template) (ScoreResult, error) {
	if resp.Status == scoring.StatusCompleted {
		return ScoreResult{}, scoring.ErrResponseCompleted
	}
	out, res, err := e.score(ScoreRequest{Template: t, Answers: resp.Answers, Final: true})
	if err != nil {
		return ScoreResult{}, err
	}
	if err := resp.Complete(t, res, out.IsPassed); err != nil {
		return ScoreResult{}, err
	}
	return out, nil
}

// GateCheckRequest asks whether a mentor evaluation clears a gate rule.
type GateCheckRequest struct {
	WeightedScore        float64
	DimensionScores      map[string]float64
	Rule                 gate.Rule
	DeliverablesApproved bool
	// KnownDimensions, when set, are the dimensions the program declares;
	// a rule naming any other dimension is a configuration error.
	KnownDimensions []string
	// DimensionWeights ranks dimension gaps. Nil weighs them equally.
	DimensionWeights map[string]float64
	// PendingDeliverables become deliverable gaps when the gate requires
	// approval and it is missing.
	PendingDeliverables []string
}

// GateResult is the gate outcome plus remediation for failed clauses.
type GateResult struct {
	Eligible      bool                 `json:"eligible"`
	FailedClauses []gate.ClauseFailure `json:"failed_clauses"`
	Gaps          []actionplan.Gap     `json:"gaps"`
	ActionPlan    []actionplan.Item    `json:"action_plan"`
}

// CheckGate evaluates the advancement gate. Failing is a normal outcome.
func (e *Engine) CheckGate(req GateCheckRequest) (GateResult, error) {
	if req.KnownDimensions != nil {
		if err := req.Rule.Validate("gate rule", req.KnownDimensions); err != nil {
			return GateResult{}, err
		}
	}

	res := gate.Evaluate(gate.Evaluation{
		WeightedScore:   req.WeightedScore,
		DimensionScores: req.DimensionScores,
	}, req.Rule, req.DeliverablesApproved)

	gaps := actionplan.DimensionGaps(req.DimensionScores, req.Rule.DimensionMins, req.DimensionWeights)
	if req.Rule.GateRequired && !req.DeliverablesApproved {
		gaps = append(gaps, actionplan.DeliverableGaps(req.PendingDeliverables, e.plan.DominantWeight)...)
	}
	actionplan.SortGaps(gaps)

	out := GateResult{
		Eligible:      res.Eligible,
		FailedClauses: res.FailedClauses,
		Gaps:          nonNilGaps(gaps),
		ActionPlan:    actionplan.Generate(gaps, nil, nil, e.plan, e.now()),
	}
	e.log.Debug("checked gate",
		"eligible", out.Eligible,
		"failed_clauses", len(out.FailedClauses),
	)
	return out, nil
}

// BadgeEvaluationRequest carries an event for one company.
type BadgeEvaluationRequest struct {
	CompanyID    string
	Event        string
	ActiveBadges []badges.Badge
	Context      badges.EventContext
}

// BadgeEvaluationResult lists the badges newly awarded by this event.
// Badges the company already held are not included.
type BadgeEvaluationResult struct {
	AwardedBadgeIDs []string `json:"awarded_badge_ids"`
}

// EvaluateBadges matches the event against the active badges and records
// new awards. Re-submitting an event awards nothing new and is not an
// error.
func (e *Engine) EvaluateBadges(ctx context.Context, req BadgeEvaluationRequest) (BadgeEvaluationResult, error) {
	ids, err := e.awarder.Award(ctx, req.CompanyID, req.Event, req.Context, req.ActiveBadges)
	for _, id := range ids {
		e.log.Info("badge awarded", "company_id", req.CompanyID, "badge_id", id, "event", req.Event)
	}
	if err != nil {
		e.log.Error("badge evaluation failed", "company_id", req.CompanyID, "event", req.Event, "error", err)
		return BadgeEvaluationResult{AwardedBadgeIDs: ids}, err
	}
	if len(ids) == 0 {
		e.log.Debug("no new badges", "company_id", req.CompanyID, "event", req.Event)
	}
	return BadgeEvaluationResult{AwardedBadgeIDs: ids}, nil
}

// CompanyBadges lists the badges a company has earned.
func (e *Engine) CompanyBadges(ctx context.Context, companyID string) ([]badges.CompanyBadge, error) {
	return e.awarder.Earned(ctx, companyID)
}

func nonNilGaps(g []actionplan.Gap) []actionplan.Gap {
	if g == nil {
		return []actionplan.Gap{}
	}
	return g
}
