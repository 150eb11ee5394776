package scoring

import (
	"fmt"
	"sort"
)

// Answers maps question IDs to answers. An unanswered question is an
// absent key, never a zero value.
type Answers map[string]AnswerValue

// ParseAnswers converts raw numeric answers (as decoded from JSON or YAML)
// into Answers, rejecting unknown question IDs and off-scale values.
func ParseAnswers(t *Template, raw map[string]float64) (Answers, error) {
	out := make(Answers, len(raw))
	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if !t.HasQuestion(id) {
			return nil, fmt.Errorf("question %q is not part of %s", id, t.Source())
		}
		v, err := AnswerFromNumber(raw[id])
		if err != nil {
			return nil, fmt.Errorf("question %q: %w", id, err)
		}
		out[id] = v
	}
	return out, nil
}

// Result is the derived score of a response. It is recomputed from the
// template and answers on every request and never stored as the source of
// truth.
type Result struct {
	// BlockScores holds 0-100 scores for blocks with at least one answer.
	// Blocks with no answers are absent: "not yet scoreable" is distinct
	// from a genuine zero.
	BlockScores map[string]float64 `json:"block_scores"`
	// Answered counts answered questions per block.
	Answered map[string]int `json:"answered"`
	// WeightedScore is 0-100. For partial responses the weights of the
	// scoreable blocks are re-normalised to sum to 1.
	WeightedScore float64 `json:"weighted_score"`
	// CompletionRate is answered questions / total questions, in [0,1].
	CompletionRate float64 `json:"completion_rate"`
	// Complete is true only when every question of every block is answered.
	Complete bool `json:"complete"`
}

// Scoreable reports whether the named block has a defined score.
func (r Result) Scoreable(block string) bool {
	_, ok := r.BlockScores[block]
	return ok
}

// BlockScore scores a single block over its answered questions only.
// The second return is false when no question in the block is answered.
func BlockScore(b Block, answers Answers) (float64, bool) {
	answered := 0
	sum := 0.0
	for _, q := range b.Questions {
		v, ok := answers[q.ID]
		if !ok {
			continue
		}
		answered++
		sum += Normalize(v)
	}
	if answered == 0 {
		return 0, false
	}
	return 100 * sum / float64(answered), true
}

// Score computes block scores, the weighted score and the completion rate.
// The template must already have passed Validate.
func Score(t *Template, answers Answers) Result {
	res := Result{
		BlockScores: make(map[string]float64, len(t.Blocks)),
		Answered:    make(map[string]int, len(t.Blocks)),
	}

	total := 0
	answeredTotal := 0
	weighted := 0.0
	scoreableWeight := 0.0
	allScoreable := true

	for _, b := range t.Blocks {
		total += len(b.Questions)
		n := 0
		for _, q := range b.Questions {
			if _, ok := answers[q.ID]; ok {
				n++
			}
		}
		res.Answered[b.Name] = n
		answeredTotal += n

		score, ok := BlockScore(b, answers)
		if !ok {
			allScoreable = false
			continue
		}
		res.BlockScores[b.Name] = score
		weighted += score * b.Weight
		scoreableWeight += b.Weight
	}

	switch {
	case allScoreable:
		// Full template weights; they already sum to 1.
		res.WeightedScore = weighted
	case scoreableWeight > 0:
		res.WeightedScore = weighted / scoreableWeight
	}

	if total > 0 {
		res.CompletionRate = float64(answeredTotal) / float64(total)
	}
	res.Complete = total > 0 && answeredTotal == total
	return res
}
