package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aaltino/hubempresas-sub001/internal/engine"
	"github.com/aaltino/hubempresas-sub001/internal/gate"
)

// GateCheckTool handles the progression_gate_check MCP tool.
type GateCheckTool struct {
	catalog Catalog
	engine  *engine.Engine
}

// NewGateCheckTool creates a GateCheckTool.
func NewGateCheckTool(catalog Catalog, eng *engine.Engine) *GateCheckTool {
	return &GateCheckTool{catalog: catalog, engine: eng}
}

// Definition returns the MCP tool definition for registration.
func (t *GateCheckTool) Definition() mcp.Tool {
	return mcp.NewTool("progression_gate_check",
		mcp.WithDescription(
			"Check whether a mentor evaluation clears a program's gate: passage to the next "+
				"program, or maintenance thresholds for a terminal program. Reports every failed "+
				"clause (weighted score, each dimension minimum, deliverable gate) and an action plan.",
		),
		mcp.WithString("program_id",
			mcp.Required(),
			mcp.Description("Program ID"),
		),
		mcp.WithString("dimension_scores",
			mcp.Required(),
			mcp.Description(`JSON object of dimension to score (0-10), e.g. {"mercado": 6.5}`),
		),
		mcp.WithNumber("weighted_score",
			mcp.Description("Mentor weighted score (0-10). Computed from dimension scores and program weights when omitted."),
		),
		mcp.WithBoolean("deliverables_approved",
			mcp.Description("Whether every required deliverable is approved"),
		),
		mcp.WithString("pending_deliverables",
			mcp.Description("Comma-separated deliverables still pending. Defaults to the program's required deliverables when not approved."),
		),
	)
}

// Handle processes the progression_gate_check tool call.
func (t *GateCheckTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	programID := req.GetString("program_id", "")
	if programID == "" {
		return mcp.NewToolResultError("'program_id' is required"), nil
	}
	program, err := t.catalog.Program(programID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rule, kind, err := t.catalog.GateRule(programID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var scores map[string]float64
	if err := jsonArg(req, "dimension_scores", &scores); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	weighted, ok := numberArg(req, "weighted_score")
	if !ok {
		weights := program.DimensionWeights()
		if weights == nil {
			weights = equalWeights(program.DimensionNames())
		}
		weighted, err = gate.WeightedDimensionScore(scores, weights)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("cannot compute weighted score: %v", err)), nil
		}
	}

	approved := boolArg(req, "deliverables_approved", false)
	pending := splitList(req.GetString("pending_deliverables", ""))
	if !approved && len(pending) == 0 {
		pending = program.RequiredDeliverables
	}

	res, err := t.engine.CheckGate(engine.GateCheckRequest{
		WeightedScore:        weighted,
		DimensionScores:      scores,
		Rule:                 rule,
		DeliverablesApproved: approved,
		KnownDimensions:      program.DimensionNames(),
		DimensionWeights:     program.DimensionWeights(),
		PendingDeliverables:  pending,
	})
	if err != nil {
		return nil, fmt.Errorf("checking gate for %s: %w", program.Source(), err)
	}

	return mcp.NewToolResultText(renderGate(programID, kind, weighted, res)), nil
}

func equalWeights(dims []string) map[string]float64 {
	out := make(map[string]float64, len(dims))
	for _, d := range dims {
		out[d] = 1.0 / float64(len(dims))
	}
	return out
}

func renderGate(programID string, kind gate.RuleKind, weighted float64, res engine.GateResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Gate Check: %s\n\n", programID)
	fmt.Fprintf(&b, "**Rule:** %s\n", kind)
	fmt.Fprintf(&b, "**Weighted score:** %.2f / 10\n", weighted)
	if res.Eligible {
		b.WriteString("**Result:** ✅ Eligible\n\n")
	} else {
		b.WriteString("**Result:** ❌ Not eligible\n\n")
		b.WriteString("## Failed Clauses\n\n")
		for _, f := range res.FailedClauses {
			fmt.Fprintf(&b, "- `%s`: %s\n", f.Clause, f.String())
		}
		b.WriteString("\n")
	}
	writeGaps(&b, res.Gaps)
	writeActionPlan(&b, res.ActionPlan)
	return b.String()
}
