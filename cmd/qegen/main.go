// Command qegen generates a QE test-case package for a JIRA ticket by
// running the phased multi-agent orchestrator and rendering its output as
// Markdown under a per-run directory.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/codeready-toolchain/qe-agentflow/pkg/cleanup"
	"github.com/codeready-toolchain/qe-agentflow/pkg/config"
	"github.com/codeready-toolchain/qe-agentflow/pkg/hub"
	"github.com/codeready-toolchain/qe-agentflow/pkg/history"
	"github.com/codeready-toolchain/qe-agentflow/pkg/logging"
	"github.com/codeready-toolchain/qe-agentflow/pkg/masking"
	"github.com/codeready-toolchain/qe-agentflow/pkg/mcp"
	"github.com/codeready-toolchain/qe-agentflow/pkg/mcp/servers"
	"github.com/codeready-toolchain/qe-agentflow/pkg/models"
	"github.com/codeready-toolchain/qe-agentflow/pkg/orchestrator"
	"github.com/codeready-toolchain/qe-agentflow/pkg/report"
)

// Exit codes per spec §6.
const (
	exitSuccess       = 0
	exitFatalError    = 1
	exitUserInterrupt = 130
)

var (
	flagConfigDir     string
	flagOutputDir     string
	flagTargetCluster string
	flagExpectedCRDs  []string
	flagDocsRoot      string
)

func main() {
	os.Exit(run())
}

func run() int {
	root := &cobra.Command{
		Use:   "qegen <jira-ticket-id>",
		Short: "Generate QE test cases for a JIRA ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return generate(cmd.Context(), args[0])
		},
		SilenceUsage: true,
	}
	root.Flags().StringVar(&flagConfigDir, "config-dir", "", "path to MCP config file (overrides discovery)")
	root.Flags().StringVar(&flagOutputDir, "output", "./output", "root output directory for run artifacts")
	root.Flags().StringVar(&flagTargetCluster, "cluster", "", "target OpenShift cluster context for environment assessment")
	root.Flags().StringSliceVar(&flagExpectedCRDs, "expect-crd", nil, "CRD name expected to be present (repeatable)")
	root.Flags().StringVar(&flagDocsRoot, "docs-root", "./docs", "local documentation root for the docs.search fallback")

	ctx, stop := signalContext()
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, "interrupted")
			return exitUserInterrupt
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		return exitFatalError
	}
	return exitSuccess
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func generate(ctx context.Context, jiraID string) error {
	if jiraID == "" {
		return fmt.Errorf("user input error: a JIRA ticket id is required")
	}

	cfg, err := config.Initialize("qegen", flagConfigDir)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	env := logging.EnvironmentFromEnv()
	maskSvc := masking.NewMaskingService(cfg.MCPServerRegistry, masking.AlertMaskingConfig{Enabled: true, PatternGroup: "all"})
	logging.Configure(env, maskSvc)

	runID := uuid.NewString()
	timestamp := time.Now().UTC().Format("20060102-150405")
	runDir := filepath.Join(flagOutputDir, "runs", jiraID, timestamp)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return fmt.Errorf("creating run directory: %w", err)
	}

	tools := buildToolExecutor(ctx, cfg, maskSvc)
	defer tools.Close()

	h := hub.New()
	h.Start()
	defer h.Stop()

	cleanupSvc := cleanup.NewService(flagOutputDir, 0)

	gen := orchestrator.NewGenerator(orchestrator.Deps{Tools: tools, Hub: h, Cleanup: cleanupSvc})

	result := gen.Run(ctx, orchestrator.Input{
		RunID:         runID,
		JiraID:        jiraID,
		TargetCluster: flagTargetCluster,
		ExpectedCRDs:  flagExpectedCRDs,
		RunDir:        runDir,
	})

	if err := writeArtifacts(runDir, jiraID, result); err != nil {
		return fmt.Errorf("writing run artifacts: %w", err)
	}

	recordHistory(ctx, cfg, models.RunSummary{
		ID: runID, Kind: models.RunKindGenerate, Subject: jiraID,
		StartedAt: time.Now().Add(-result.ExecutionTime), FinishedAt: time.Now(),
		Success: result.Success, TestCaseCount: len(result.TestCases), RunDir: runDir,
	})

	if !result.Success {
		fmt.Fprintf(os.Stderr, "run completed with failures: %s\n", result.ErrorMessage)
	}
	slog.Info("run finished", "run_dir", runDir, "success", result.Success)
	return nil
}

func writeArtifacts(runDir, jiraID string, result models.WorkflowResult) error {
	testCases := report.RenderTestCases(jiraID, result.TestCases)
	if err := os.WriteFile(filepath.Join(runDir, "Test-Cases.md"), []byte(testCases), 0o644); err != nil {
		return err
	}
	analysis := report.RenderCompleteAnalysis(jiraID, result.AnalysisNotes, result.Staging)
	return os.WriteFile(filepath.Join(runDir, "Complete-Analysis.md"), []byte(analysis), 0o644)
}

// buildToolExecutor composes the real MCP-backed executor (when servers
// are configured) with the fallback adapters, so a run never hard-fails
// just because no MCP server was wired for one of the tools it needs.
func buildToolExecutor(ctx context.Context, cfg *config.Config, maskSvc *masking.MaskingService) *mcp.CompositeExecutor {
	// composite.Primary is declared as the agent.ToolExecutor interface; a
	// nil *mcp.ToolExecutor assigned directly into it would produce a
	// non-nil interface wrapping a nil pointer, so it's only ever assigned
	// from inside this nil check.
	composite := &mcp.CompositeExecutor{}
	if len(cfg.MCPServerRegistry.GetAll()) > 0 {
		factory := mcp.NewClientFactory(cfg.MCPServerRegistry, maskSvc)
		executor, _, err := factory.CreateToolExecutor(ctx, cfg.MCPServerRegistry.ServerIDs(), nil)
		if err != nil {
			slog.Warn("failed to initialize MCP client, falling back to direct adapters", "error", err)
		} else {
			composite.Primary = executor
		}
	}

	ghToken := mcp.GitHubToken(ctx)
	composite.Fallback = &servers.FallbackExecutor{
		GitHub:      servers.NewGitHubAdapter(ghToken),
		Jira:        servers.NewJiraAdapter(cfg.Jira.BaseURL, os.Getenv(cfg.Jira.APITokenEnv)),
		Environment: servers.NewEnvironmentAdapter(),
		Filesystem:  servers.NewFilesystemAdapter(flagDocsRoot),
	}

	return composite
}

func recordHistory(ctx context.Context, cfg *config.Config, summary models.RunSummary) {
	if !cfg.History.Enabled {
		return
	}
	store, err := history.Open(ctx, history.Config{DatabaseURL: cfg.History.DSN})
	if err != nil {
		slog.Warn("run history store unavailable, skipping record", "error", err)
		return
	}
	defer store.Close()
	if err := store.Record(ctx, summary); err != nil {
		slog.Warn("failed to record run history", "error", err)
	}
}
