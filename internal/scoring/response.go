package scoring

import (
	"errors"
	"fmt"
)

// ResponseStatus tracks the lifecycle of a questionnaire response.
type ResponseStatus string

const (
	StatusDraft      ResponseStatus = "draft"
	StatusInProgress ResponseStatus = "in_progress"
	StatusCompleted  ResponseStatus = "completed"
)

// ErrResponseCompleted is returned when mutating a completed response.
// Re-attempts start a new response.
var ErrResponseCompleted = errors.New("response is completed and immutable")

// Response is the mutable state of one attempt at a questionnaire.
type Response struct {
	ID              string         `json:"id"`
	TemplateID      string         `json:"template_id"`
	TemplateVersion int            `json:"template_version"`
	Answers         Answers        `json:"answers"`
	CurrentStep     int            `json:"current_step"`
	Status          ResponseStatus `json:"status"`
	FinalScore      *float64       `json:"final_score,omitempty"`
	Passed          *bool          `json:"passed,omitempty"`
	CreatedAt       string         `json:"created_at"`
	UpdatedAt       string         `json:"updated_at"`
	CompletedAt     string         `json:"completed_at,omitempty"`
}

// NewResponse creates an empty draft response bound to a template version.
func NewResponse(id string, t *Template) *Response {
	now := timeNow().UTC().Format("2006-01-02T15:04:05Z07:00")
	return &Response{
		ID:              id,
		TemplateID:      t.ID,
		TemplateVersion: t.Version,
		Answers:         make(Answers),
		Status:          StatusDraft,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (r *Response) checkTemplate(t *Template) error {
	if r.TemplateID != t.ID || r.TemplateVersion != t.Version {
		return fmt.Errorf("response %q belongs to template %s@v%d, not %s",
			r.ID, r.TemplateID, r.TemplateVersion, t.Source())
	}
	return nil
}

// SaveAnswer records one answer (auto-save). The first save moves a draft
// to in_progress.
func (r *Response) SaveAnswer(t *Template, questionID string, v AnswerValue) error {
	if r.Status == StatusCompleted {
		return ErrResponseCompleted
	}
	if err := r.checkTemplate(t); err != nil {
		return err
	}
	if !t.HasQuestion(questionID) {
		return fmt.Errorf("question %q is not part of %s", questionID, t.Source())
	}
	if !v.Valid() {
		return fmt.Errorf("answer %d out of range: must be 0, 1 or 2", v)
	}

	if r.Answers == nil {
		r.Answers = make(Answers)
	}
	r.Answers[questionID] = v
	r.Status = StatusInProgress
	r.UpdatedAt = timeNow().UTC().Format("2006-01-02T15:04:05Z07:00")
	return nil
}

// SetStep moves the multi-step flow cursor. Steps are block indexes.
func (r *Response) SetStep(t *Template, step int) error {
	if r.Status == StatusCompleted {
		return ErrResponseCompleted
	}
	if step < 0 || step >= len(t.Blocks) {
		return fmt.Errorf("step %d out of range [0,%d)", step, len(t.Blocks))
	}
	r.CurrentStep = step
	r.UpdatedAt = timeNow().UTC().Format("2006-01-02T15:04:05Z07:00")
	return nil
}

// Complete marks the response completed with its terminal score and gate
// outcome. Completion requires full coverage: a partial preview result is
// rejected.
func (r *Response) Complete(t *Template, res Result, passed bool) error {
	if r.Status == StatusCompleted {
		return ErrResponseCompleted
	}
	if err := r.checkTemplate(t); err != nil {
		return err
	}
	if !res.Complete {
		return fmt.Errorf("cannot complete response %q: %.0f%% of questions answered",
			r.ID, res.CompletionRate*100)
	}

	now := timeNow().UTC().Format("2006-01-02T15:04:05Z07:00")
	score := res.WeightedScore
	r.FinalScore = &score
	r.Passed = &passed
	r.Status = StatusCompleted
	r.CompletedAt = now
	r.UpdatedAt = now
	return nil
}
