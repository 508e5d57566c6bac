package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mohammadamin382/Benchmarks/internal/sysinfo"
	"github.com/mohammadamin382/Benchmarks/internal/topology"
)

var topologyCmd = &cobra.Command{
	Use:   "topology",
	Short: "Show the discovered CPU topology without benchmarking",
	RunE:  runTopology,
}

var topologyPolicy string

func init() {
	topologyCmd.Flags().StringVar(&topologyPolicy, "policy", "", "efficiency class policy: zero-performance or zero-efficiency")

	rootCmd.AddCommand(topologyCmd)
}

func runTopology(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cmd.Flags().Changed("policy") {
		cfg.ClassPolicy = topology.ClassPolicy(topologyPolicy)
	}
	if !cfg.ClassPolicy.Valid() {
		return fmt.Errorf("invalid class policy %q", cfg.ClassPolicy)
	}

	renderBanner(cmd.OutOrStdout(), sysinfo.Collect(logger))

	descs, err := topology.Discover(topology.NewProber(), cfg.ClassPolicy, logger)
	if err != nil {
		return fmt.Errorf("topology discovery failed: %w", err)
	}
	renderTopology(cmd.OutOrStdout(), descs)
	return nil
}
