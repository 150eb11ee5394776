package scoring

import (
	"errors"
	"testing"
)

func TestNewResponse_StartsAsDraft(t *testing.T) {
	r := NewResponse("r1", twoBlockTemplate())
	if r.Status != StatusDraft {
		t.Errorf("Status = %s, want draft", r.Status)
	}
	if r.TemplateID != "diagnostic" || r.TemplateVersion != 1 {
		t.Errorf("template binding = %s@v%d", r.TemplateID, r.TemplateVersion)
	}
	if r.CreatedAt != "2026-03-02T09:30:00Z" {
		t.Errorf("CreatedAt = %s", r.CreatedAt)
	}
}

func TestSaveAnswer_MovesToInProgress(t *testing.T) {
	tpl := twoBlockTemplate()
	r := NewResponse("r1", tpl)

	if err := r.SaveAnswer(tpl, "m1", AnswerYes); err != nil {
		t.Fatalf("SaveAnswer: %v", err)
	}
	if r.Status != StatusInProgress {
		t.Errorf("Status = %s, want in_progress", r.Status)
	}
	if r.Answers["m1"] != AnswerYes {
		t.Errorf("answer not recorded: %v", r.Answers)
	}
}

func TestSaveAnswer_Rejections(t *testing.T) {
	tpl := twoBlockTemplate()
	other := twoBlockTemplate()
	other.Version = 2

	tests := []struct {
		name string
		tpl  *Template
		qid  string
		v    AnswerValue
	}{
		{"unknown question", tpl, "nope", AnswerYes},
		{"off scale", tpl, "m1", AnswerValue(3)},
		{"other template version", other, "m1", AnswerYes},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResponse("r1", tpl)
			if err := r.SaveAnswer(tt.tpl, tt.qid, tt.v); err == nil {
				t.Error("expected error")
			}
			if len(r.Answers) != 0 {
				t.Errorf("rejected save must not mutate answers: %v", r.Answers)
			}
		})
	}
}

func TestSetStep(t *testing.T) {
	tpl := twoBlockTemplate()
	r := NewResponse("r1", tpl)
	if err := r.SetStep(tpl, 1); err != nil {
		t.Fatalf("SetStep(1): %v", err)
	}
	if r.CurrentStep != 1 {
		t.Errorf("CurrentStep = %d", r.CurrentStep)
	}
	if err := r.SetStep(tpl, 2); err == nil {
		t.Error("step beyond last block should fail")
	}
}

func TestComplete_RequiresFullCoverage(t *testing.T) {
	tpl := twoBlockTemplate()
	r := NewResponse("r1", tpl)
	_ = r.SaveAnswer(tpl, "m1", AnswerYes)

	if err := r.Complete(tpl, Score(tpl, r.Answers), true); err == nil {
		t.Fatal("partial response must not complete")
	}
	if r.Status == StatusCompleted {
		t.Error("status changed on rejected completion")
	}
}

func TestComplete_TerminalAndImmutable(t *testing.T) {
	tpl := twoBlockTemplate()
	r := NewResponse("r1", tpl)
	for _, q := range []string{"m1", "m2", "t1", "t2"} {
		if err := r.SaveAnswer(tpl, q, AnswerYes); err != nil {
			t.Fatalf("SaveAnswer(%s): %v", q, err)
		}
	}

	if err := r.Complete(tpl, Score(tpl, r.Answers), true); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if r.Status != StatusCompleted || r.FinalScore == nil || *r.FinalScore != 100 {
		t.Errorf("completed response = %+v", r)
	}
	if r.Passed == nil || !*r.Passed {
		t.Error("Passed should be recorded as true")
	}

	if err := r.SaveAnswer(tpl, "m1", AnswerNo); !errors.Is(err, ErrResponseCompleted) {
		t.Errorf("SaveAnswer after completion = %v, want ErrResponseCompleted", err)
	}
	if err := r.SetStep(tpl, 0); !errors.Is(err, ErrResponseCompleted) {
		t.Errorf("SetStep after completion = %v, want ErrResponseCompleted", err)
	}
	if err := r.Complete(tpl, Score(tpl, r.Answers), false); !errors.Is(err, ErrResponseCompleted) {
		t.Errorf("second Complete = %v, want ErrResponseCompleted", err)
	}
}
