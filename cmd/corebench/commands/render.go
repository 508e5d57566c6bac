package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/mohammadamin382/Benchmarks/internal/config"
	"github.com/mohammadamin382/Benchmarks/internal/report"
	"github.com/mohammadamin382/Benchmarks/internal/scheduler"
	"github.com/mohammadamin382/Benchmarks/internal/sysinfo"
	"github.com/mohammadamin382/Benchmarks/internal/topology"
)

// renderBanner prints the host hardware snapshot.
func renderBanner(w io.Writer, info *sysinfo.Info) {
	fmt.Fprintln(w, "Corebench", Version)
	fmt.Fprintln(w, strings.Repeat("=", 60))
	if info.Model != "" {
		fmt.Fprintf(w, "CPU:      %s\n", info.Model)
	}
	if info.Vendor != "" {
		fmt.Fprintf(w, "Vendor:   %s\n", info.Vendor)
	}
	fmt.Fprintf(w, "Cores:    %d physical, %d logical", info.PhysicalCores, info.LogicalCores)
	if info.Hybrid {
		fmt.Fprint(w, " (hybrid)")
	}
	fmt.Fprintln(w)
	if info.TotalMemory > 0 {
		fmt.Fprintf(w, "Memory:   %s\n", humanize.IBytes(info.TotalMemory))
	}
	if info.CacheL1D > 0 || info.CacheL2 > 0 || info.CacheL3 > 0 {
		fmt.Fprintf(w, "Cache:    L1d %s / L2 %s / L3 %s\n",
			humanize.IBytes(uint64(info.CacheL1D)),
			humanize.IBytes(uint64(info.CacheL2)),
			humanize.IBytes(uint64(info.CacheL3)))
	}
	if len(info.Features) > 0 {
		fmt.Fprintf(w, "Features: %s\n", strings.Join(info.Features, " "))
	}
	fmt.Fprintln(w)
}

// renderPlan summarizes what the run is about to do.
func renderPlan(w io.Writer, cfg *config.Config, descs []*topology.CoreDescriptor) {
	perf := topology.CountKind(descs, topology.KindPerformance)
	eff := topology.CountKind(descs, topology.KindEfficiency)
	fmt.Fprintf(w, "Topology: %d cores (%d P-Core, %d E-Core)\n", len(descs), perf, eff)

	switch scheduler.Mode(cfg.Mode) {
	case scheduler.ModeEndurance:
		fmt.Fprintf(w, "Plan:     endurance, kernel %s for %s on all cores\n",
			cfg.Kernels[0], cfg.TotalDuration.Std())
	default:
		fmt.Fprintf(w, "Plan:     benchmark, kernels [%s], %s each, all cores in parallel\n",
			strings.Join(cfg.Kernels, " "), cfg.KernelDuration.Std())
	}
	fmt.Fprintln(w)
}

// confirm asks the operator to proceed. Anything but y/yes declines.
func confirm(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "Proceed? [y/N] ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// progressBar returns a progress callback drawing an in-place bar.
func progressBar(w io.Writer) scheduler.ProgressFunc {
	const width = 40
	return func(completed, total int) {
		if total == 0 {
			return
		}
		filled := completed * width / total
		bar := strings.Repeat("=", filled)
		if filled < width {
			bar += ">" + strings.Repeat(" ", width-filled-1)
		}
		fmt.Fprintf(w, "\r[%s] %d/%d cores", bar, completed, total)
		if completed == total {
			fmt.Fprintln(w)
		}
	}
}

// elapsedBarTick is how often the endurance bar redraws.
const elapsedBarTick = 100 * time.Millisecond

// elapsedBar draws an in-place wall-clock bar for endurance runs, where
// progress is elapsed time rather than completed workers. The returned
// stop function finishes the bar and waits for the drawing goroutine.
func elapsedBar(w io.Writer, total time.Duration) (stop func()) {
	const width = 40
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		start := time.Now()
		ticker := time.NewTicker(elapsedBarTick)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				fmt.Fprintf(w, "\r[%s] %s/%s\n", strings.Repeat("=", width), total, total)
				return
			case <-ticker.C:
				elapsed := time.Since(start)
				if elapsed > total {
					elapsed = total
				}
				filled := int(int64(width) * int64(elapsed) / int64(total))
				bar := strings.Repeat("=", filled)
				if filled < width {
					bar += ">" + strings.Repeat(" ", width-filled-1)
				}
				fmt.Fprintf(w, "\r[%s] %s/%s", bar, elapsed.Round(time.Second), total)
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}

// renderTopology prints one row per discovered core.
func renderTopology(w io.Writer, descs []*topology.CoreDescriptor) {
	fmt.Fprintf(w, "%-5s %-7s %-7s %-7s %-8s %s\n", "Core", "CPU", "Group", "Class", "Kind", "Mask")
	for _, d := range descs {
		fmt.Fprintf(w, "%-5d %-7d %-7d %-7d %-8s %s\n",
			d.ID, d.Selector.CPU, d.PhysicalGroup, d.EfficiencyClass, d.Kind, d.Selector)
	}
	perf := topology.CountKind(descs, topology.KindPerformance)
	eff := topology.CountKind(descs, topology.KindEfficiency)
	fmt.Fprintf(w, "\n%d cores: %d P-Core, %d E-Core\n", len(descs), perf, eff)
}

// renderReport prints the ranked per-core table, per-kind statistics,
// and the hybrid performance ratio when both kinds measured.
func renderReport(w io.Writer, cfg *config.Config, rep report.Report) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Results (ranked by composite score)")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "%-5s %-5s %-8s %-14s %s\n", "Rank", "Core", "Kind", "Score", "Detail")
	for i, core := range rep.PerCore {
		if core.Unavailable {
			fmt.Fprintf(w, "%-5s %-5d %-8s %-14s %s\n", "-", core.ID, core.Kind, "-", "unavailable")
			continue
		}
		fmt.Fprintf(w, "%-5d %-5d %-8s %-14s %s\n",
			i+1, core.ID, core.Kind, humanize.SIWithDigits(core.CompositeScore, 2, ""),
			kernelDetail(core, cfg.Kernels))
	}

	fmt.Fprintln(w)
	for _, kind := range []topology.CoreKind{topology.KindPerformance, topology.KindEfficiency} {
		stats, ok := rep.PerKind[kind]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s  avg %s  max %s  min %s  spread %.1f%%  (%d cores)\n",
			kind,
			humanize.SIWithDigits(stats.Average, 2, ""),
			humanize.SIWithDigits(stats.Max, 2, ""),
			humanize.SIWithDigits(stats.Min, 2, ""),
			stats.VariancePct,
			stats.Count)
	}

	if rep.KindRatioValid {
		fmt.Fprintf(w, "\nP-Cores are %.2fx faster than E-Cores on average\n", rep.KindRatio)
	}
	fmt.Fprintf(w, "Total system score: %s\n", humanize.SIWithDigits(rep.TotalScore, 2, ""))
}

// kernelDetail compacts a core's per-kernel throughput into one column.
func kernelDetail(core report.CoreResult, kernels []string) string {
	parts := make([]string, 0, len(kernels))
	for _, name := range kernels {
		res, ok := core.Results[name]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s/s", name, humanize.SIWithDigits(res.Throughput, 1, "")))
	}
	return strings.Join(parts, "  ")
}

// saveSummary writes the run summary as YAML, creating parent
// directories as needed.
func saveSummary(path string, summary report.RunSummary) error {
	data, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create summary directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write run summary: %w", err)
	}
	return nil
}
