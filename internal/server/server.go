// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the tools, prompts and resources that depend on
// abstractions. No business logic lives here, only wiring.
package server

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/aaltino/hubempresas-sub001/internal/badges"
	"github.com/aaltino/hubempresas-sub001/internal/config"
	"github.com/aaltino/hubempresas-sub001/internal/engine"
	"github.com/aaltino/hubempresas-sub001/internal/logger"
	"github.com/aaltino/hubempresas-sub001/internal/prompts"
	"github.com/aaltino/hubempresas-sub001/internal/resources"
	"github.com/aaltino/hubempresas-sub001/internal/rules"
	"github.com/aaltino/hubempresas-sub001/internal/store"
	"github.com/aaltino/hubempresas-sub001/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// openStore is swapped in tests.
var openStore = func(dir string) (badges.Recorder, func() error, error) {
	st, err := store.New(store.Config{DataDir: dir})
	if err != nil {
		return nil, nil, err
	}
	return st, st.Close, nil
}

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function closes the badge store's database
// connection and must be called on shutdown (typically via defer).
// It is always non-nil and safe to call even if the store failed to open.
func New(cfg config.Config, lg *logger.Logger) (*server.MCPServer, func(), error) {
	if lg == nil {
		lg = logger.Nop()
	}

	// --- Create shared dependencies ---

	catalog, err := rules.FileStore{}.Load(cfg.RulesDir)
	if err != nil {
		return nil, noop, fmt.Errorf("loading rules from %s: %w", cfg.RulesDir, err)
	}

	// Awarded badges survive restarts when the store opens. If it does
	// not, the engine keeps awards in memory for this process only.
	cleanup := noop
	var recorder badges.Recorder
	rec, closeStore, storeErr := openStore(cfg.DataDir)
	if storeErr != nil {
		lg.Warn("badge store disabled, awards will not persist", "data_dir", cfg.DataDir, "error", storeErr)
		recorder = badges.NewMemoryRecorder()
	} else {
		recorder = rec
		cleanup = func() {
			if err := closeStore(); err != nil {
				lg.Warn("badge store close failed", "error", err)
			}
		}
	}

	eng, err := engine.New(
		engine.WithPlanConfig(cfg.PlanConfig()),
		engine.WithRecorder(recorder),
		engine.WithStages(catalog.Stages()),
		engine.WithLogger(lg.With("component", "engine")),
	)
	if err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("creating engine: %w", err)
	}

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"progression",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register tools ---

	scoreTool := tools.NewScoreTool(catalog, eng)
	s.AddTool(scoreTool.Definition(), scoreTool.Handle)

	gateTool := tools.NewGateCheckTool(catalog, eng)
	s.AddTool(gateTool.Definition(), gateTool.Handle)

	evaluateTool := tools.NewEvaluateBadgesTool(catalog, eng)
	s.AddTool(evaluateTool.Definition(), evaluateTool.Handle)

	companyBadgesTool := tools.NewCompanyBadgesTool(eng)
	s.AddTool(companyBadgesTool.Definition(), companyBadgesTool.Handle)

	catalogTool := tools.NewCatalogTool(catalog)
	s.AddTool(catalogTool.Definition(), catalogTool.Handle)

	// --- Register prompts ---

	reviewPrompt := prompts.NewReviewPrompt()
	s.AddPrompt(reviewPrompt.Definition(), reviewPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(catalog)
	s.AddResource(resourceHandler.CatalogResource(), resourceHandler.HandleCatalog)

	lg.Info("progression server ready",
		"rules_dir", cfg.RulesDir,
		"templates", len(catalog.TemplateIDs()),
		"programs", len(catalog.ProgramIDs()),
		"badges", len(catalog.Badges()),
		"persistent_badges", storeErr == nil,
	)

	return s, cleanup, nil
}

// noop is a no-op cleanup function used as the default when the store
// is unavailable.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to use the progression engine.
func serverInstructions() string {
	return `You have access to a progression engine for startup incubation programs.

## WHAT IT DOES

Companies move through ordered stages (for example ideation, validation,
traction) by enrolling in programs. Each program has a questionnaire,
mentor evaluation dimensions, required deliverables and a gate that decides
whether the company may advance. Companies also earn badges when events
satisfy declarative conditions.

## TOOLS

- progression_catalog: list stages, templates, programs and badges. Call it
  first when you do not know the IDs.
- progression_score: score questionnaire answers (0 = no, 1 = partial,
  2 = yes). Partial answers give a preview flagged incomplete_input; use
  final=true only when every question is answered.
- progression_gate_check: check a mentor evaluation (dimension scores on a
  0-10 scale) against the program's passage or maintenance rule. Every
  failed clause is reported, not just the first.
- progression_evaluate_badges: evaluate active badges for a company after
  an event. Awards are idempotent: a badge is never awarded twice.
- progression_company_badges: list the badges a company has earned.

## HOW TO PRESENT RESULTS

- Lead with the verdict (passed / eligible or not).
- Then list the failed clauses or the weakest blocks.
- Finish with the top action plan items, high priority first, and their
  due dates.
- Never invent scores: only report what the tools return.`
}
