// Package prompts implements MCP prompt handlers for the progression engine.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// ReviewPrompt handles the progression-review MCP prompt.
// It instructs the AI to review a company's progression with the tools.
type ReviewPrompt struct{}

// NewReviewPrompt creates a ReviewPrompt.
func NewReviewPrompt() *ReviewPrompt {
	return &ReviewPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ReviewPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("progression-review",
		mcp.WithPromptDescription(
			"Review a company's progression: score its questionnaire, check the "+
				"program gate, evaluate badges and summarise what to do next.",
		),
		mcp.WithArgument("company_id",
			mcp.ArgumentDescription("Company to review"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("template_id",
			mcp.ArgumentDescription("Questionnaire template the company answered"),
		),
	)
}

// Handle processes the progression-review prompt request.
func (p *ReviewPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	companyID := strings.TrimSpace(req.Params.Arguments["company_id"])
	if companyID == "" {
		return nil, fmt.Errorf("'company_id' is required")
	}
	templateID := strings.TrimSpace(req.Params.Arguments["template_id"])

	var b strings.Builder
	fmt.Fprintf(&b, "Please review the progression of company `%s`.\n\n", companyID)
	b.WriteString("Start with `progression_catalog` to see the stages, programs and badges in force.\n\n")
	b.WriteString("Then:\n")
	if templateID != "" {
		fmt.Fprintf(&b, "1. Score my answers with `progression_score` using template `%s`\n", templateID)
	} else {
		b.WriteString("1. Ask me which questionnaire I answered, then score it with `progression_score`\n")
	}
	b.WriteString("2. Run `progression_gate_check` for my current program with the mentor's dimension scores\n")
	fmt.Fprintf(&b, "3. Run `progression_evaluate_badges` for `%s` with what happened, then list them with `progression_company_badges`\n", companyID)
	b.WriteString("4. Summarise the blocking clauses and the top action plan items, most urgent first")

	return &mcp.GetPromptResult{
		Description: "Progression Review",
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(b.String()),
			},
		},
	}, nil
}
