// progression: scoring and gamification rule engine for incubation programs,
// served over MCP.
//
// Usage:
//
//	progression serve            # Start MCP server (stdio transport)
//	progression validate [dir]   # Validate rule files and exit
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/aaltino/hubempresas-sub001/internal/config"
	"github.com/aaltino/hubempresas-sub001/internal/logger"
	"github.com/aaltino/hubempresas-sub001/internal/rules"
	progserver "github.com/aaltino/hubempresas-sub001/internal/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "validate":
		if err := validate(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("progression v%s\n", progserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Logs go to stderr so they don't interfere with MCP's stdio
	// transport on stdout.
	lg, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer lg.Sync()

	s, cleanup, err := progserver.New(cfg, lg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Graceful shutdown on interrupt.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, s, os.Stdin, os.Stdout)
}

// serve runs the MCP stdio transport until stdin closes or ctx is
// cancelled. Cancellation is a clean shutdown.
func serve(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s)
	if err := stdio.Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// validate loads the rule files and reports every configuration error.
func validate(args []string) error {
	dir := os.Getenv("PROGRESSION_RULES_DIR")
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" {
		dir = "rules"
	}

	catalog, err := rules.FileStore{}.Load(dir)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "✅ %s: %d stages, %d templates, %d programs, %d badges\n",
		dir,
		len(catalog.Stages()),
		len(catalog.TemplateIDs()),
		len(catalog.ProgramIDs()),
		len(catalog.Badges()),
	)
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `progression v%s: progression scoring and gamification engine

Usage:
  progression <command> [arguments]

Commands:
  serve              Start the MCP server (stdio transport)
  validate [dir]     Validate the rule files in dir (default $PROGRESSION_RULES_DIR or ./rules)
  version            Print version information
  help               Show this help message

Environment:
  PROGRESSION_DATA_DIR                 Badge database directory (default ~/.progression)
  PROGRESSION_RULES_DIR                Rule files directory (default ./rules)
  PROGRESSION_LOG_MODE                 dev or prod (default dev)
  PROGRESSION_PLAN_MAX_PER_BLOCK       Action items per gap (default 3)
  PROGRESSION_PLAN_MAX_ITEMS           Action items per plan, 0 for no cap (default 10)
  PROGRESSION_DOMINANT_WEIGHT          Block weight that forces high priority (default 0.25)
  PROGRESSION_HIGH_PRIORITY_BELOW      Gap score below which priority is high (default 50)
  PROGRESSION_MEDIUM_PRIORITY_BELOW    Gap score below which priority is medium (default 80)

Configure your AI tool to run "progression serve" as an MCP server.
`, progserver.Version)
}
