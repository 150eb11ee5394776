package badges

// EventContext is the state a badge condition is evaluated against: the
// triggering event's outcome plus the company's cumulative progress.
type EventContext struct {
	CompanyStage              string             `json:"company_stage"`
	Score                     float64            `json:"score"`
	StagesCompleted           []string           `json:"stages_completed"`
	CanvasApproved            bool               `json:"canvas_approved"`
	MVPValidated              bool               `json:"mvp_validated"`
	RevisionCount             int                `json:"revision_count"`
	ElapsedHours              float64            `json:"elapsed_hours"`
	ConsecutiveQuestionnaires int                `json:"consecutive_questionnaires"`
	Interviews                int                `json:"interviews"`
	GrowthMonths              int                `json:"growth_months"`
	Metrics                   map[string]float64 `json:"metrics,omitempty"`
}

// evalEnv is what a comparator sees.
type evalEnv struct {
	ctx    EventContext
	stages []string
	// metric, when set, redirects the numeric threshold predicates to
	// ctx.Metrics[metric].
	metric string
}

// comparator decides a single predicate.
type comparator func(env evalEnv, p Predicate) bool

// comparators maps every predicate kind to its decision function.
var comparators = map[PredicateKind]comparator{
	KindStage:                     cmpStage,
	KindScoreMin:                  thresholdOf(func(c EventContext) float64 { return c.Score }),
	KindAllStages:                 cmpAllStages,
	KindCanvasApproved:            func(env evalEnv, p Predicate) bool { return env.ctx.CanvasApproved == p.Flag },
	KindNoRevisions:               cmpNoRevisions,
	KindCompletionTimeHours:       func(env evalEnv, p Predicate) bool { return env.ctx.ElapsedHours <= p.Number },
	KindConsecutiveQuestionnaires: thresholdOf(func(c EventContext) float64 { return float64(c.ConsecutiveQuestionnaires) }),
	KindMetric:                    cmpMetric,
	KindInterviews:                thresholdOf(func(c EventContext) float64 { return float64(c.Interviews) }),
	KindMVPValidated:              func(env evalEnv, p Predicate) bool { return env.ctx.MVPValidated == p.Flag },
	KindGrowthMonths:              thresholdOf(func(c EventContext) float64 { return float64(c.GrowthMonths) }),
}

// Matcher evaluates conditions. It holds the full ordered stage list that
// allStages is checked against.
type Matcher struct {
	stages []string
}

// NewMatcher returns a Matcher for the given ordered stage list.
func NewMatcher(stages []string) *Matcher {
	return &Matcher{stages: append([]string(nil), stages...)}
}

// Stages returns the ordered stage list.
func (m *Matcher) Stages() []string {
	return append([]string(nil), m.stages...)
}

// Matches reports whether every predicate of c holds for ctx. An empty or
// unconstrained condition never matches.
func (m *Matcher) Matches(c Condition, ctx EventContext) bool {
	if c.Unconstrained() {
		return false
	}
	env := evalEnv{ctx: ctx, stages: m.stages}
	if p, ok := c.Get(KindMetric); ok {
		env.metric = p.Text
	}
	for _, p := range c.Predicates {
		cmp, ok := comparators[p.Kind]
		if !ok || !cmp(env, p) {
			return false
		}
	}
	return true
}

func cmpStage(env evalEnv, p Predicate) bool {
	return env.ctx.CompanyStage == p.Text
}

// cmpAllStages requires every configured stage in StagesCompleted. With no
// configured stages it cannot be satisfied.
func cmpAllStages(env evalEnv, p Predicate) bool {
	if !p.Flag {
		return true
	}
	if len(env.stages) == 0 {
		return false
	}
	done := make(map[string]bool, len(env.ctx.StagesCompleted))
	for _, s := range env.ctx.StagesCompleted {
		done[s] = true
	}
	for _, s := range env.stages {
		if !done[s] {
			return false
		}
	}
	return true
}

func cmpNoRevisions(env evalEnv, p Predicate) bool {
	if !p.Flag {
		return true
	}
	return env.ctx.RevisionCount == 0
}

func cmpMetric(env evalEnv, p Predicate) bool {
	_, ok := env.ctx.Metrics[p.Text]
	return ok
}

// thresholdOf builds an inclusive >= comparator reading field, or the
// named metric when the condition is metric-parameterized.
func thresholdOf(field func(EventContext) float64) comparator {
	return func(env evalEnv, p Predicate) bool {
		actual := field(env.ctx)
		if env.metric != "" {
			v, ok := env.ctx.Metrics[env.metric]
			if !ok {
				return false
			}
			actual = v
		}
		return actual >= p.Number
	}
}
