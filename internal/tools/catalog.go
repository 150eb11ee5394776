package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aaltino/hubempresas-sub001/internal/rules"
)

// CatalogTool handles the progression_catalog MCP tool.
type CatalogTool struct {
	catalog Catalog
}

// NewCatalogTool creates a CatalogTool.
func NewCatalogTool(catalog Catalog) *CatalogTool {
	return &CatalogTool{catalog: catalog}
}

// Definition returns the MCP tool definition for registration.
func (t *CatalogTool) Definition() mcp.Tool {
	return mcp.NewTool("progression_catalog",
		mcp.WithDescription(
			"List the loaded rule catalog: stages, questionnaire templates, programs with "+
				"their gate rules, and badges.",
		),
		mcp.WithString("section",
			mcp.Description("One of: all, templates, programs, badges"),
			mcp.Enum("all", "templates", "programs", "badges"),
		),
	)
}

// Handle processes the progression_catalog tool call.
func (t *CatalogTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	section := req.GetString("section", "all")
	view := t.catalog.View()

	var b strings.Builder
	b.WriteString("# Rule Catalog\n\n")
	fmt.Fprintf(&b, "**Stages:** %s\n\n", strings.Join(view.Stages, " → "))

	switch section {
	case "all":
		writeTemplates(&b, view)
		writePrograms(&b, view)
		writeBadges(&b, view)
	case "templates":
		writeTemplates(&b, view)
	case "programs":
		writePrograms(&b, view)
	case "badges":
		writeBadges(&b, view)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown section %q: use all, templates, programs or badges", section)), nil
	}
	return mcp.NewToolResultText(b.String()), nil
}

func writeTemplates(b *strings.Builder, v rules.View) {
	b.WriteString("## Templates\n\n")
	for _, t := range v.Templates {
		fmt.Fprintf(b, "### %s v%d: %s\n\n", t.ID, t.Version, t.Name)
		fmt.Fprintf(b, "Pass threshold: %.0f%%, %d questions\n\n", t.PassThreshold*100, t.QuestionCount())
		for _, blk := range t.Blocks {
			fmt.Fprintf(b, "- %s (weight %.2f, %d questions)\n", blk.Name, blk.Weight, len(blk.Questions))
		}
		b.WriteString("\n")
	}
}

func writePrograms(b *strings.Builder, v rules.View) {
	b.WriteString("## Programs\n\n")
	for _, p := range v.Programs {
		fmt.Fprintf(b, "### %s (%s)\n\n", p.ID, p.Stage)
		fmt.Fprintf(b, "Dimensions: %s\n", strings.Join(p.DimensionNames(), ", "))
		if p.Terminal() {
			r := p.MaintenanceThresholds
			fmt.Fprintf(b, "Maintenance: weighted ≥ %.1f", r.WeightedScoreMin)
			writeMins(b, r.DimensionMins)
		} else {
			r := p.PassageToNext
			fmt.Fprintf(b, "Passage to `%s`: weighted ≥ %.1f", p.Next, r.WeightedScoreMin)
			writeMins(b, r.DimensionMins)
		}
		if len(p.RequiredDeliverables) > 0 {
			fmt.Fprintf(b, "Deliverables: %s\n", strings.Join(p.RequiredDeliverables, ", "))
		}
		b.WriteString("\n")
	}
}

func writeMins(b *strings.Builder, mins map[string]float64) {
	for _, d := range sortedKeys(mins) {
		fmt.Fprintf(b, ", %s ≥ %.1f", d, mins[d])
	}
	b.WriteString("\n")
}

func writeBadges(b *strings.Builder, v rules.View) {
	b.WriteString("## Badges\n\n")
	for _, bd := range v.Badges {
		state := ""
		if !bd.Active {
			state = " (inactive)"
		}
		values := bd.Condition.Map()
		var conds []string
		for _, p := range bd.Condition.Predicates {
			conds = append(conds, fmt.Sprintf("%s=%v", p.Kind, values[string(p.Kind)]))
		}
		fmt.Fprintf(b, "- `%s` %s%s: %s\n", bd.ID, bd.Name, state, strings.Join(conds, ", "))
	}
}
