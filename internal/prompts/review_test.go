package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func promptText(t *testing.T, result *mcp.GetPromptResult) string {
	t.Helper()
	if len(result.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(result.Messages))
	}
	tc, ok := result.Messages[0].Content.(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Messages[0].Content)
	}
	return tc.Text
}

func TestReviewPrompt_Definition(t *testing.T) {
	def := NewReviewPrompt().Definition()
	if def.Name != "progression-review" {
		t.Errorf("name = %q", def.Name)
	}
	if len(def.Arguments) != 2 {
		t.Fatalf("expected 2 arguments, got %d", len(def.Arguments))
	}
	if !def.Arguments[0].Required || def.Arguments[1].Required {
		t.Error("only company_id should be required")
	}
}

func TestReviewPrompt_WithTemplate(t *testing.T) {
	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"company_id": "acme", "template_id": "diagnostic"}

	result, err := NewReviewPrompt().Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := promptText(t, result)
	for _, want := range []string{"`acme`", "template `diagnostic`", "progression_gate_check", "progression_company_badges"} {
		if !strings.Contains(text, want) {
			t.Errorf("prompt missing %q:\n%s", want, text)
		}
	}
}

func TestReviewPrompt_WithoutTemplate(t *testing.T) {
	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"company_id": "acme"}

	result, err := NewReviewPrompt().Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(promptText(t, result), "Ask me which questionnaire") {
		t.Error("expected the prompt to ask for the questionnaire")
	}
}

func TestReviewPrompt_RequiresCompany(t *testing.T) {
	if _, err := NewReviewPrompt().Handle(context.Background(), mcp.GetPromptRequest{}); err == nil {
		t.Fatal("expected error without company_id")
	}
}
