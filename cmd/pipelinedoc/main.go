// Command pipelinedoc analyzes a failed Jenkins pipeline build, classifying
// every failed test and rendering a Markdown report under a per-run
// directory.
package main

import (
	"context"
	"encoding/json"
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
	"github.com/codeready-toolchain/qe-agentflow/pkg/history"
	"github.com/codeready-toolchain/qe-agentflow/pkg/logging"
	"github.com/codeready-toolchain/qe-agentflow/pkg/masking"
	"github.com/codeready-toolchain/qe-agentflow/pkg/mcp"
	"github.com/codeready-toolchain/qe-agentflow/pkg/mcp/servers"
	"github.com/codeready-toolchain/qe-agentflow/pkg/models"
	"github.com/codeready-toolchain/qe-agentflow/pkg/orchestrator"
	"github.com/codeready-toolchain/qe-agentflow/pkg/report"
)

const (
	exitSuccess       = 0
	exitFatalError    = 1
	exitUserInterrupt = 130
)

var (
	flagConfigDir string
	flagOutputDir string
)

func main() {
	os.Exit(run())
}

func run() int {
	root := &cobra.Command{
		Use:   "pipelinedoc <jenkins-build-url>",
		Short: "Analyze a failed Jenkins pipeline build",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return analyze(cmd.Context(), args[0])
		},
		SilenceUsage: true,
	}
	root.Flags().StringVar(&flagConfigDir, "config-dir", "", "path to MCP config file (overrides discovery)")
	root.Flags().StringVar(&flagOutputDir, "output", "./output", "root output directory for run artifacts")

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

func analyze(ctx context.Context, buildURL string) error {
	if buildURL == "" {
		return fmt.Errorf("user input error: a Jenkins build URL is required")
	}
	ref, err := orchestrator.ParseBuildURL(buildURL)
	if err != nil {
		return fmt.Errorf("user input error: %w", err)
	}

	cfg, err := config.Initialize("pipelinedoc", flagConfigDir)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	env := logging.EnvironmentFromEnv()
	maskSvc := masking.NewMaskingService(cfg.MCPServerRegistry, masking.AlertMaskingConfig{Enabled: true, PatternGroup: "all"})
	logging.Configure(env, maskSvc)

	runID := uuid.NewString()
	timestamp := time.Now().UTC().Format("20060102-150405")
	jobSlug := ref.JobPath
	if jobSlug == "" {
		jobSlug = "unknown-job"
	}
	runDir := filepath.Join(flagOutputDir, "runs", jobSlug, timestamp)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return fmt.Errorf("creating run directory: %w", err)
	}

	baseURL := cfg.Jenkins.BaseURL
	if baseURL == "" {
		baseURL = ref.BaseURL
	}
	tools := &mcp.CompositeExecutor{
		Fallback: &servers.FallbackExecutor{
			Jenkins: servers.NewJenkinsAdapter(baseURL, os.Getenv("JENKINS_USER"), os.Getenv("JENKINS_TOKEN")),
		},
	}
	defer tools.Close()

	cleanupSvc := cleanup.NewService(flagOutputDir, 0)
	analyzer := orchestrator.NewAnalyzer(orchestrator.AnalyzerDeps{Tools: tools, Cleanup: cleanupSvc})

	result := analyzer.Run(ctx, orchestrator.Input{RunID: runID, JenkinsURL: buildURL, RunDir: runDir})

	if err := writeArtifacts(runDir, result); err != nil {
		return fmt.Errorf("writing run artifacts: %w", err)
	}

	classification := models.Classification("")
	if len(result.Evidence.Tests) > 0 {
		classification = result.Evidence.Tests[0].Classification.Classification
	}
	recordHistory(ctx, cfg, models.RunSummary{
		ID: runID, Kind: models.RunKindAnalyze, Subject: jobSlug,
		StartedAt: time.Now().Add(-result.ExecutionTime), FinishedAt: time.Now(),
		Success: result.Success, Classification: classification, RunDir: runDir,
	})

	if !result.Success {
		fmt.Fprintf(os.Stderr, "analysis failed: %s\n", result.ErrorMessage)
	}
	slog.Info("run finished", "run_dir", runDir, "success", result.Success)
	return nil
}

func writeArtifacts(runDir string, result models.AnalysisResult) error {
	raw, err := json.MarshalIndent(result.Evidence, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(runDir, "analysis-results.json"), raw, 0o644); err != nil {
		return err
	}
	md := report.RenderAnalysisReport(result.JenkinsURL, result.BuildNumber, result.Evidence)
	return os.WriteFile(filepath.Join(runDir, "report.md"), []byte(md), 0o644)
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
