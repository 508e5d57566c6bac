package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/mohammadamin382/Benchmarks/internal/config"
	"github.com/mohammadamin382/Benchmarks/internal/scheduler"
	"github.com/mohammadamin382/Benchmarks/internal/topology"
	"github.com/mohammadamin382/Benchmarks/internal/workload"
)

var enduranceCmd = &cobra.Command{
	Use:   "endurance",
	Short: "Free-run a single kernel on every core for a fixed duration",
	Long: `Run one workload kernel continuously on every logical processor for
the full duration, measuring sustained throughput under all-core load.
Useful for observing thermal throttling and sustained-clock behavior.`,
	RunE: runEndurance,
}

var (
	enduranceDuration time.Duration
	enduranceKernel   string
	endurancePolicy   string
	enduranceYes      bool
	enduranceSavePath string
)

func init() {
	enduranceCmd.Flags().DurationVar(&enduranceDuration, "duration", time.Minute, "total run length")
	enduranceCmd.Flags().StringVar(&enduranceKernel, "kernel", workload.NameMixed, "kernel to run")
	enduranceCmd.Flags().StringVar(&endurancePolicy, "policy", "", "efficiency class policy: zero-performance or zero-efficiency")
	enduranceCmd.Flags().BoolVarP(&enduranceYes, "yes", "y", false, "skip the confirmation prompt")
	enduranceCmd.Flags().StringVar(&enduranceSavePath, "save", "", "write the run summary to this YAML file")

	rootCmd.AddCommand(enduranceCmd)
}

func runEndurance(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg.Mode = string(scheduler.ModeEndurance)
	cfg.Kernels = []string{enduranceKernel}
	if cmd.Flags().Changed("duration") {
		cfg.TotalDuration = config.Duration(enduranceDuration)
	}
	if cmd.Flags().Changed("policy") {
		cfg.ClassPolicy = topology.ClassPolicy(endurancePolicy)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	return executeRun(cmd, cfg, logger, enduranceYes, enduranceSavePath)
}
