package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mohammadamin382/Benchmarks/internal/affinity"
	"github.com/mohammadamin382/Benchmarks/internal/config"
	"github.com/mohammadamin382/Benchmarks/internal/report"
	"github.com/mohammadamin382/Benchmarks/internal/scheduler"
	"github.com/mohammadamin382/Benchmarks/internal/sysinfo"
	"github.com/mohammadamin382/Benchmarks/internal/topology"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Benchmark every core with the full kernel suite",
	Long: `Run the configured workload kernels on every logical processor
concurrently, each worker pinned to its own core, and report ranked
per-core and per-kind results.`,
	RunE: runRun,
}

var (
	runDuration time.Duration
	runKernels  []string
	runPolicy   string
	runYes      bool
	runSavePath string
)

func init() {
	runCmd.Flags().DurationVar(&runDuration, "duration", 3*time.Second, "timed window per kernel")
	runCmd.Flags().StringSliceVar(&runKernels, "kernels", nil, "kernels to run (default all)")
	runCmd.Flags().StringVar(&runPolicy, "policy", "", "efficiency class policy: zero-performance or zero-efficiency")
	runCmd.Flags().BoolVarP(&runYes, "yes", "y", false, "skip the confirmation prompt")
	runCmd.Flags().StringVar(&runSavePath, "save", "", "write the run summary to this YAML file")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg.Mode = string(scheduler.ModeBenchmark)
	if cmd.Flags().Changed("duration") {
		cfg.KernelDuration = config.Duration(runDuration)
	}
	if cmd.Flags().Changed("kernels") {
		cfg.Kernels = runKernels
	}
	if cmd.Flags().Changed("policy") {
		cfg.ClassPolicy = topology.ClassPolicy(runPolicy)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	return executeRun(cmd, cfg, logger, runYes, runSavePath)
}

// executeRun is the shared body of the run and endurance commands:
// discover, confirm, schedule, aggregate, render.
func executeRun(cmd *cobra.Command, cfg *config.Config, logger *zap.Logger, yes bool, savePath string) error {
	system := sysinfo.Collect(logger)
	renderBanner(cmd.OutOrStdout(), system)

	descs, err := topology.Discover(topology.NewProber(), cfg.ClassPolicy, logger)
	if err != nil {
		return fmt.Errorf("topology discovery failed: %w", err)
	}
	renderPlan(cmd.OutOrStdout(), cfg, descs)

	if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout()) {
		fmt.Fprintln(cmd.OutOrStdout(), "aborted by user")
		return nil
	}

	engine, err := scheduler.New(logger, affinity.NewPinner(), cfg.SchedulerConfig())
	if err != nil {
		return err
	}
	var stopBar func()
	switch scheduler.Mode(cfg.Mode) {
	case scheduler.ModeBenchmark:
		engine.SetProgress(progressBar(cmd.OutOrStdout()))
	case scheduler.ModeEndurance:
		stopBar = elapsedBar(cmd.OutOrStdout(), cfg.TotalDuration.Std())
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startedAt := time.Now()
	err = engine.Run(ctx, descs)
	if stopBar != nil {
		stopBar()
	}
	if err != nil {
		return err
	}
	finishedAt := time.Now()

	rep := report.Aggregate(descs)
	renderReport(cmd.OutOrStdout(), cfg, rep)

	if savePath != "" {
		summary := report.NewRunSummary(cfg.Mode, startedAt, finishedAt, system, rep)
		if err := saveSummary(savePath, summary); err != nil {
			return err
		}
		logger.Info("run summary written",
			zap.String("path", savePath),
			zap.String("run_id", summary.RunID))
	}
	return nil
}
