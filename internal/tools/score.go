package tools

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aaltino/hubempresas-sub001/internal/engine"
	"github.com/aaltino/hubempresas-sub001/internal/scoring"
)

// ScoreTool handles the progression_score MCP tool.
type ScoreTool struct {
	catalog Catalog
	engine  *engine.Engine
}

// NewScoreTool creates a ScoreTool.
func NewScoreTool(catalog Catalog, eng *engine.Engine) *ScoreTool {
	return &ScoreTool{catalog: catalog, engine: eng}
}

// Definition returns the MCP tool definition for registration.
func (t *ScoreTool) Definition() mcp.Tool {
	return mcp.NewTool("progression_score",
		mcp.WithDescription(
			"Score questionnaire answers against a template. Returns per-block scores, "+
				"the weighted score, completion rate, gaps and a prioritised action plan. "+
				"Partial answers produce a preview; set final=true for a terminal submission, "+
				"which requires every question answered.",
		),
		mcp.WithString("template_id",
			mcp.Required(),
			mcp.Description("Questionnaire template ID"),
		),
		mcp.WithNumber("template_version",
			mcp.Description("Template version the response was started on. Defaults to the latest."),
		),
		mcp.WithString("answers",
			mcp.Required(),
			mcp.Description(`JSON object of question ID to answer (0 = no, 1 = partial, 2 = yes), e.g. {"m1": 2, "m2": 1}`),
		),
		mcp.WithBoolean("final",
			mcp.Description("Treat as final submission (requires full coverage)"),
		),
	)
}

// Handle processes the progression_score tool call.
func (t *ScoreTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templateID := req.GetString("template_id", "")
	if templateID == "" {
		return mcp.NewToolResultError("'template_id' is required"), nil
	}

	var tpl *scoring.Template
	var err error
	if v, ok := numberArg(req, "template_version"); ok {
		if v != math.Trunc(v) || v < 1 {
			return mcp.NewToolResultError(fmt.Sprintf("'template_version' must be a positive integer, got %v", v)), nil
		}
		tpl, err = t.catalog.TemplateVersion(templateID, int(v))
	} else {
		tpl, err = t.catalog.Template(templateID)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var raw map[string]float64
	if err := jsonArg(req, "answers", &raw); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	answers, err := scoring.ParseAnswers(tpl, raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := t.engine.Score(engine.ScoreRequest{
		Template: tpl,
		Answers:  answers,
		Final:    boolArg(req, "final", false),
	})
	if errors.Is(err, engine.ErrIncompleteSubmission) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("scoring %s: %w", tpl.Source(), err)
	}

	return mcp.NewToolResultText(renderScore(tpl, res)), nil
}

func renderScore(tpl *scoring.Template, res engine.ScoreResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Score: %s v%d\n\n", tpl.ID, tpl.Version)

	status := "❌ Not passed"
	switch {
	case res.IsPassed:
		status = "✅ Passed"
	case len(res.Warnings) > 0:
		status = "🔄 Preview (incomplete)"
	}
	fmt.Fprintf(&b, "**Weighted score:** %.1f / 100 (pass at %.0f)\n", res.WeightedScore, tpl.PassThreshold*100)
	fmt.Fprintf(&b, "**Completion:** %.0f%%\n", res.CompletionRate*100)
	fmt.Fprintf(&b, "**Status:** %s\n\n", status)

	b.WriteString("## Blocks\n\n")
	b.WriteString("| Block | Weight | Score |\n")
	b.WriteString("|-------|--------|-------|\n")
	for _, blk := range tpl.Blocks {
		score := "—"
		if s, ok := res.BlockScores[blk.Name]; ok {
			score = fmt.Sprintf("%.1f", s)
		}
		fmt.Fprintf(&b, "| %s | %.2f | %s |\n", blk.Name, blk.Weight, score)
	}
	b.WriteString("\n")

	writeGaps(&b, res.Gaps)
	writeActionPlan(&b, res.ActionPlan)
	return b.String()
}
