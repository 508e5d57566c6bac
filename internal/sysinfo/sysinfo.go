// Package sysinfo collects a host hardware snapshot for run banners and
// report headers. Every source is best effort; a field a probe cannot
// fill stays at its zero value rather than failing the run.
package sysinfo

import (
	"runtime"
	"sort"

	"github.com/jaypipes/ghw"
	"github.com/klauspost/cpuid/v2"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"
)

// Info is a point-in-time snapshot of the host CPU and memory.
type Info struct {
	Model         string   `json:"model" yaml:"model"`
	Vendor        string   `json:"vendor" yaml:"vendor"`
	PhysicalCores int      `json:"physical_cores" yaml:"physical_cores"`
	LogicalCores  int      `json:"logical_cores" yaml:"logical_cores"`
	TotalMemory   uint64   `json:"total_memory" yaml:"total_memory"`
	CacheL1D      int      `json:"cache_l1d" yaml:"cache_l1d"`
	CacheL2       int      `json:"cache_l2" yaml:"cache_l2"`
	CacheL3       int      `json:"cache_l3" yaml:"cache_l3"`
	Hybrid        bool     `json:"hybrid" yaml:"hybrid"`
	Features      []string `json:"features,omitempty" yaml:"features,omitempty"`
}

// Interesting ISA extensions for the banner; the full cpuid feature list
// runs past a hundred entries.
var bannerFeatures = []cpuid.FeatureID{
	cpuid.SSE42,
	cpuid.AVX,
	cpuid.AVX2,
	cpuid.AVX512F,
	cpuid.FMA3,
	cpuid.AESNI,
	cpuid.SHA,
	cpuid.BMI2,
}

// Collect gathers the snapshot. It never returns an error; probes that
// fail are logged at debug and their fields left empty.
func Collect(logger *zap.Logger) *Info {
	info := &Info{
		LogicalCores: runtime.NumCPU(),
	}

	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		info.Model = infos[0].ModelName
		info.Vendor = infos[0].VendorID
	} else if err != nil {
		logger.Debug("cpu info probe failed", zap.Error(err))
	}

	if count, err := cpu.Counts(false); err == nil && count > 0 {
		info.PhysicalCores = count
	} else if err != nil {
		logger.Debug("physical core count probe failed", zap.Error(err))
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		info.TotalMemory = vm.Total
	} else {
		logger.Debug("memory probe failed", zap.Error(err))
	}

	fillFromCPUID(info)
	fillFromGHW(info, logger)

	if info.Model == "" {
		info.Model = cpuid.CPU.BrandName
	}
	if info.PhysicalCores == 0 {
		info.PhysicalCores = info.LogicalCores
	}
	return info
}

func fillFromCPUID(info *Info) {
	info.CacheL1D = cpuid.CPU.Cache.L1D
	info.CacheL2 = cpuid.CPU.Cache.L2
	info.CacheL3 = cpuid.CPU.Cache.L3
	info.Hybrid = cpuid.CPU.Supports(cpuid.HYBRID_CPU)

	for _, f := range bannerFeatures {
		if cpuid.CPU.Supports(f) {
			info.Features = append(info.Features, f.String())
		}
	}
	sort.Strings(info.Features)
}

// fillFromGHW backfills the model and physical core count from ghw,
// which reads DMI and sysfs paths gopsutil does not cover.
func fillFromGHW(info *Info, logger *zap.Logger) {
	hw, err := ghw.CPU(ghw.WithDisableWarnings())
	if err != nil {
		logger.Debug("ghw cpu probe failed", zap.Error(err))
		return
	}
	if info.Model == "" && len(hw.Processors) > 0 {
		info.Model = hw.Processors[0].Model
	}
	if info.Vendor == "" && len(hw.Processors) > 0 {
		info.Vendor = hw.Processors[0].Vendor
	}
	if info.PhysicalCores == 0 && hw.TotalCores > 0 {
		info.PhysicalCores = int(hw.TotalCores)
	}
}
