// Package tools implements the MCP tool handlers of the progression engine.
//
// Each tool receives its dependencies through its struct and exposes a
// Definition and a Handle compatible with mcp-go. User-facing problems
// (unknown IDs, malformed arguments) come back as tool errors; the Go error
// return is reserved for infrastructure failures.
package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aaltino/hubempresas-sub001/internal/actionplan"
	"github.com/aaltino/hubempresas-sub001/internal/badges"
	"github.com/aaltino/hubempresas-sub001/internal/gate"
	"github.com/aaltino/hubempresas-sub001/internal/rules"
	"github.com/aaltino/hubempresas-sub001/internal/scoring"
)

// Catalog is the read side of the rule catalog used by the tools.
// *rules.Catalog implements it.
type Catalog interface {
	Template(id string) (*scoring.Template, error)
	TemplateVersion(id string, version int) (*scoring.Template, error)
	Program(id string) (*rules.Program, error)
	GateRule(programID string) (gate.Rule, gate.RuleKind, error)
	ActiveBadges() []badges.Badge
	View() rules.View
}

var _ Catalog = (*rules.Catalog)(nil)

func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// numberArg returns a numeric argument and whether it was supplied.
func numberArg(req mcp.CallToolRequest, key string) (float64, bool) {
	switch v := req.GetArguments()[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// jsonArg decodes a JSON-encoded string argument into out, rejecting
// unknown fields. An absent or empty argument leaves out untouched.
func jsonArg(req mcp.CallToolRequest, key string, out any) error {
	raw := strings.TrimSpace(req.GetString(key, ""))
	if raw == "" {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("'%s' must be valid JSON: %w", key, err)
	}
	return nil
}

// splitList parses a comma-separated argument.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeGaps(b *strings.Builder, gaps []actionplan.Gap) {
	b.WriteString("## Gaps\n\n")
	if len(gaps) == 0 {
		b.WriteString("No gaps.\n\n")
		return
	}
	b.WriteString("| Target | Category | Score | Weight |\n")
	b.WriteString("|--------|----------|-------|--------|\n")
	for _, g := range gaps {
		fmt.Fprintf(b, "| %s | %s | %.1f | %.2f |\n", g.Block, g.Category, g.Score, g.Weight)
	}
	b.WriteString("\n")
}

func writeActionPlan(b *strings.Builder, items []actionplan.Item) {
	b.WriteString("## Action Plan\n\n")
	if len(items) == 0 {
		b.WriteString("Nothing to do.\n")
		return
	}
	for i, it := range items {
		due := ""
		if it.DueDate != "" {
			due = " (due " + it.DueDate + ")"
		}
		fmt.Fprintf(b, "%d. **[%s]** %s `%s`%s\n", i+1, it.Priority, it.ActionDescription, it.ItemReference, due)
	}
}
