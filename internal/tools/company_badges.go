package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aaltino/hubempresas-sub001/internal/engine"
)

// CompanyBadgesTool handles the progression_company_badges MCP tool.
type CompanyBadgesTool struct {
	engine *engine.Engine
}

// NewCompanyBadgesTool creates a CompanyBadgesTool.
func NewCompanyBadgesTool(eng *engine.Engine) *CompanyBadgesTool {
	return &CompanyBadgesTool{engine: eng}
}

// Definition returns the MCP tool definition for registration.
func (t *CompanyBadgesTool) Definition() mcp.Tool {
	return mcp.NewTool("progression_company_badges",
		mcp.WithDescription("List the badges a company has earned, oldest first."),
		mcp.WithString("company_id",
			mcp.Required(),
			mcp.Description("Company ID"),
		),
	)
}

// Handle processes the progression_company_badges tool call.
func (t *CompanyBadgesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	companyID := req.GetString("company_id", "")
	if companyID == "" {
		return mcp.NewToolResultError("'company_id' is required"), nil
	}

	earned, err := t.engine.CompanyBadges(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("listing badges for %s: %w", companyID, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Badges: %s\n\n", companyID)
	if len(earned) == 0 {
		b.WriteString("No badges earned yet.\n")
		return mcp.NewToolResultText(b.String()), nil
	}
	b.WriteString("| Badge | Earned | Event |\n")
	b.WriteString("|-------|--------|-------|\n")
	for _, cb := range earned {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", cb.BadgeID, cb.EarnedAt.Format("2006-01-02 15:04"), cb.EarnedByEvent)
	}
	return mcp.NewToolResultText(b.String()), nil
}
