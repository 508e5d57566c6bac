package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mohammadamin382/Benchmarks/internal/config"
	"github.com/mohammadamin382/Benchmarks/internal/logging"
)

const Version = "1.0.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "corebench",
	Short: "Topology-aware per-core CPU benchmark",
	Long: `Corebench measures every logical processor in isolation. It discovers
the CPU topology, classifies hybrid cores into performance and
efficiency kinds, pins one worker thread per core, and runs a set of
synthetic workload kernels against each. Results are ranked per core
and aggregated per kind, with a P-Core to E-Core performance ratio on
hybrid parts.`,
	Version: Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.SetVersionTemplate(`Corebench {{.Version}}
Topology-aware per-core CPU benchmark
`)
}

// setup loads the configuration and builds the logger shared by all
// subcommands. Verbose forces debug logging regardless of config.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
