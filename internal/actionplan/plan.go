package actionplan

import (
	"fmt"
	"sort"
	"time"

	"github.com/aaltino/hubempresas-sub001/internal/scoring"
)

// Priority ranks an action item.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Status is the lifecycle of a persisted action item. Transitions happen
// outside the generator; Generate always emits pending items.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Item is one remediation step.
type Item struct {
	Priority          Priority `json:"priority"`
	Category          Category `json:"category"`
	Block             string   `json:"block"`
	ItemReference     string   `json:"item_reference"`
	ActionDescription string   `json:"action_description"`
	DueDate           string   `json:"due_date,omitempty"`
	Status            Status   `json:"status"`
}

// Generate maps sorted gaps to action items. Question gaps expand into one
// item per weak question (worst answer first, unanswered before answered),
// capped at cfg.MaxPerGap. The whole plan is capped at cfg.MaxItems.
// When now is zero no due dates are set.
func Generate(gaps []Gap, t *scoring.Template, answers scoring.Answers, cfg Config, now time.Time) []Item {
	items := []Item{}
	for _, g := range gaps {
		priority := cfg.PriorityFor(g)
		var gapItems []Item

		switch g.Category {
		case CategoryQuestion:
			gapItems = questionItems(g, t, answers, priority)
		case CategoryDeliverable:
			gapItems = []Item{{
				Priority:          priority,
				Category:          CategoryDeliverable,
				Block:             g.Block,
				ItemReference:     g.Block,
				ActionDescription: fmt.Sprintf("Submit and get approval for deliverable %q", g.Block),
			}}
		case CategoryMentorship:
			gapItems = []Item{{
				Priority:      priority,
				Category:      CategoryMentorship,
				Block:         g.Block,
				ItemReference: g.Block,
				ActionDescription: fmt.Sprintf("Schedule mentorship on %q to raise it from %.1f to %.1f",
					g.Block, g.Score/10, g.Target/10),
			}}
		}

		if len(gapItems) > cfg.MaxPerGap {
			gapItems = gapItems[:cfg.MaxPerGap]
		}
		for i := range gapItems {
			gapItems[i].Status = StatusPending
			if d, ok := cfg.DueIn[priority]; ok && !now.IsZero() {
				gapItems[i].DueDate = now.Add(d).UTC().Format("2006-01-02")
			}
		}
		items = append(items, gapItems...)

		if cfg.MaxItems > 0 && len(items) >= cfg.MaxItems {
			return items[:cfg.MaxItems]
		}
	}
	return items
}

// questionItems picks the block's questions that are not at the top of the
// scale. Unanswered questions rank first, then by ascending answer, then by
// template order.
func questionItems(g Gap, t *scoring.Template, answers scoring.Answers, priority Priority) []Item {
	if t == nil {
		return nil
	}
	block, ok := t.Block(g.Block)
	if !ok {
		return nil
	}

	type candidate struct {
		q     scoring.Question
		rank  int // -1 unanswered, else the answer value
		order int
	}
	var cands []candidate
	for i, q := range block.Questions {
		v, answered := answers[q.ID]
		switch {
		case !answered:
			cands = append(cands, candidate{q: q, rank: -1, order: i})
		case v < scoring.MaxScorePerQuestion:
			cands = append(cands, candidate{q: q, rank: int(v), order: i})
		}
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].rank != cands[j].rank {
			return cands[i].rank < cands[j].rank
		}
		return cands[i].order < cands[j].order
	})

	items := make([]Item, 0, len(cands))
	for _, c := range cands {
		items = append(items, Item{
			Priority:          priority,
			Category:          CategoryQuestion,
			Block:             g.Block,
			ItemReference:     c.q.ID,
			ActionDescription: describeQuestion(c.q, c.rank),
		})
	}
	return items
}

func describeQuestion(q scoring.Question, rank int) string {
	subject := q.Text
	if subject == "" {
		subject = q.ID
	}
	switch rank {
	case -1:
		return fmt.Sprintf("Answer and address: %s", subject)
	case int(scoring.AnswerNo):
		return fmt.Sprintf("Start working on: %s", subject)
	default:
		return fmt.Sprintf("Complete the partial work on: %s", subject)
	}
}

// allowedTransitions is the item status state machine.
var allowedTransitions = map[Status][]Status{
	StatusPending:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

// Transition moves an item to a new status, rejecting moves the state
// machine does not allow. Completed and cancelled are terminal.
func (it *Item) Transition(to Status) error {
	for _, s := range allowedTransitions[it.Status] {
		if s == to {
			it.Status = to
			return nil
		}
	}
	return fmt.Errorf("invalid action item transition %s -> %s", it.Status, to)
}
