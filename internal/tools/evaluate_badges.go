package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aaltino/hubempresas-sub001/internal/badges"
	"github.com/aaltino/hubempresas-sub001/internal/engine"
)

// EvaluateBadgesTool handles the progression_evaluate_badges MCP tool.
type EvaluateBadgesTool struct {
	catalog Catalog
	engine  *engine.Engine
}

// NewEvaluateBadgesTool creates an EvaluateBadgesTool.
func NewEvaluateBadgesTool(catalog Catalog, eng *engine.Engine) *EvaluateBadgesTool {
	return &EvaluateBadgesTool{catalog: catalog, engine: eng}
}

// Definition returns the MCP tool definition for registration.
func (t *EvaluateBadgesTool) Definition() mcp.Tool {
	return mcp.NewTool("progression_evaluate_badges",
		mcp.WithDescription(
			"Evaluate every active badge against an event for a company and award the ones "+
				"whose condition matches. Safe to re-run for the same event: badges the company "+
				"already holds are skipped, never duplicated.",
		),
		mcp.WithString("company_id",
			mcp.Required(),
			mcp.Description("Company ID"),
		),
		mcp.WithString("event",
			mcp.Required(),
			mcp.Description("Name of the triggering event, e.g. questionnaire_completed"),
		),
		mcp.WithString("context",
			mcp.Required(),
			mcp.Description(
				"JSON event context: company_stage, score, stages_completed, canvas_approved, "+
					"mvp_validated, revision_count, elapsed_hours, consecutive_questionnaires, "+
					"interviews, growth_months, metrics (object of name to number)",
			),
		),
	)
}

// Handle processes the progression_evaluate_badges tool call.
func (t *EvaluateBadgesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	companyID := req.GetString("company_id", "")
	if companyID == "" {
		return mcp.NewToolResultError("'company_id' is required"), nil
	}
	event := req.GetString("event", "")
	if event == "" {
		return mcp.NewToolResultError("'event' is required"), nil
	}

	var evctx badges.EventContext
	if err := jsonArg(req, "context", &evctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := t.engine.EvaluateBadges(ctx, engine.BadgeEvaluationRequest{
		CompanyID:    companyID,
		Event:        event,
		ActiveBadges: t.catalog.ActiveBadges(),
		Context:      evctx,
	})
	if err != nil {
		return nil, fmt.Errorf("evaluating badges for %s: %w", companyID, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Badge Evaluation: %s\n\n", companyID)
	fmt.Fprintf(&b, "**Event:** %s\n\n", event)
	if len(res.AwardedBadgeIDs) == 0 {
		b.WriteString("No new badges.\n")
		return mcp.NewToolResultText(b.String()), nil
	}
	b.WriteString("## Awarded\n\n")
	for _, id := range res.AwardedBadgeIDs {
		fmt.Fprintf(&b, "- 🏅 `%s`\n", id)
	}
	return mcp.NewToolResultText(b.String()), nil
}
