// Package scheduler drives the workload kernels across the discovered
// cores, one pinned OS thread per logical processor. The stop flag and
// the completed-worker counter are engine state handed to workers, not
// process globals; the only cross-worker coordination is those two
// atomics.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mohammadamin382/Benchmarks/internal/affinity"
	"github.com/mohammadamin382/Benchmarks/internal/topology"
	"github.com/mohammadamin382/Benchmarks/internal/workload"
)

// Scheduling error taxonomy. Bind failures are per-core and non-fatal:
// the core is reported with no measured throughput. Priority elevation
// failures are logged and otherwise ignored.
var (
	ErrAffinityBindFailed = errors.New("affinity bind failed")
	ErrPriorityElevation  = errors.New("priority elevation failed")
)

// Mode selects the scheduling policy.
type Mode string

const (
	// ModeBenchmark runs every configured kernel for a fixed duration
	// on each core, concurrently across cores.
	ModeBenchmark Mode = "benchmark"
	// ModeEndurance free-runs a single kernel on every core until the
	// coordinator raises the stop flag.
	ModeEndurance Mode = "endurance"
)

// Valid reports whether the mode is recognized.
func (m Mode) Valid() bool {
	return m == ModeBenchmark || m == ModeEndurance
}

// Config describes one engine run.
type Config struct {
	Mode Mode
	// Kernels to run. Benchmark mode runs all of them in order;
	// endurance mode uses the first entry.
	Kernels []string
	// KernelDuration is the timed window per kernel in benchmark mode.
	KernelDuration time.Duration
	// TotalDuration is the overall run length in endurance mode.
	TotalDuration time.Duration
	// ElevatePriority requests maximum thread priority, best effort.
	ElevatePriority bool
}

// ProgressFunc receives completed-worker counts while a benchmark-mode
// run is in flight. Called from the coordinator goroutine only.
type ProgressFunc func(completed, total int)

// Engine executes one run over a set of core descriptors.
type Engine struct {
	logger *zap.Logger
	pinner affinity.Pinner
	cfg    Config

	stop      atomic.Bool
	completed atomic.Int32
	progress  ProgressFunc
}

// New validates the configuration and builds an engine.
func New(logger *zap.Logger, pinner affinity.Pinner, cfg Config) (*Engine, error) {
	if !cfg.Mode.Valid() {
		return nil, fmt.Errorf("unknown scheduling mode %q", cfg.Mode)
	}
	if len(cfg.Kernels) == 0 {
		return nil, errors.New("no workload kernels configured")
	}
	if err := workload.Validate(cfg.Kernels); err != nil {
		return nil, err
	}
	switch cfg.Mode {
	case ModeBenchmark:
		if cfg.KernelDuration <= 0 {
			return nil, fmt.Errorf("kernel duration must be positive, got %s", cfg.KernelDuration)
		}
	case ModeEndurance:
		if cfg.TotalDuration <= 0 {
			return nil, fmt.Errorf("total duration must be positive, got %s", cfg.TotalDuration)
		}
	}
	return &Engine{logger: logger, pinner: pinner, cfg: cfg}, nil
}

// SetProgress installs a progress callback. Must be called before Run.
func (e *Engine) SetProgress(fn ProgressFunc) {
	e.progress = fn
}

// Run executes the configured run over the descriptors and returns
// after every worker has joined. Results land in the descriptors; a
// returned error means the run could not start at all.
func (e *Engine) Run(ctx context.Context, descs []*topology.CoreDescriptor) error {
	if len(descs) == 0 {
		return errors.New("no core descriptors to schedule")
	}

	e.stop.Store(false)
	e.completed.Store(0)

	switch e.cfg.Mode {
	case ModeBenchmark:
		return e.runBenchmark(descs)
	case ModeEndurance:
		return e.runEndurance(ctx, descs)
	default:
		return fmt.Errorf("unknown scheduling mode %q", e.cfg.Mode)
	}
}

// runBenchmark starts one worker per descriptor, each running the whole
// kernel sequence on its own pinned thread, then joins unconditionally.
func (e *Engine) runBenchmark(descs []*topology.CoreDescriptor) error {
	e.logger.Info("starting benchmark run",
		zap.Int("cores", len(descs)),
		zap.Strings("kernels", e.cfg.Kernels),
		zap.Duration("kernel_duration", e.cfg.KernelDuration))

	var wg sync.WaitGroup
	for _, desc := range descs {
		wg.Add(1)
		go func(d *topology.CoreDescriptor) {
			defer wg.Done()
			e.benchmarkWorker(d)
		}(desc)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	e.monitorProgress(done, len(descs))
	<-done

	e.logger.Info("benchmark run complete", zap.Int("cores", len(descs)))
	return nil
}

// benchmarkWorker is the per-core benchmark-mode body. Binding is the
// first action after the goroutine owns its OS thread; everything after
// a failed bind is skipped so no unpinned numbers leak into results.
func (e *Engine) benchmarkWorker(desc *topology.CoreDescriptor) {
	defer e.completed.Add(1)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := e.pinner.Pin(desc.Selector); err != nil {
		desc.Unavailable = true
		e.logger.Warn("core unavailable",
			zap.Int("core", desc.ID),
			zap.Int("cpu", desc.Selector.CPU),
			zap.Error(fmt.Errorf("%w: %v", ErrAffinityBindFailed, err)))
		return
	}
	e.elevate(desc.ID)

	kernels, err := workload.NewCatalog(e.cfg.Kernels)
	if err != nil {
		// Kernel names were validated in New; this is unreachable
		// short of catalog drift.
		desc.Unavailable = true
		e.logger.Error("kernel construction failed", zap.Int("core", desc.ID), zap.Error(err))
		return
	}

	for _, k := range kernels {
		res := k.Run(e.cfg.KernelDuration)
		desc.Results[k.Name()] = res
		e.logger.Debug("kernel finished",
			zap.Int("core", desc.ID),
			zap.String("kernel", k.Name()),
			zap.Uint64("operations", res.Operations),
			zap.Float64("ops_per_sec", res.Throughput))
	}
	desc.CompositeScore = workload.Composite(desc.Results, e.cfg.Kernels)
}

// elevate raises the calling thread's priority when configured. Failure
// only costs scheduling fairness, so it is logged at debug and ignored.
func (e *Engine) elevate(coreID int) {
	if !e.cfg.ElevatePriority {
		return
	}
	if err := e.pinner.Elevate(); err != nil {
		e.logger.Debug("thread priority unchanged",
			zap.Int("core", coreID),
			zap.Error(fmt.Errorf("%w: %v", ErrPriorityElevation, err)))
	}
}

// enduranceSlice bounds how long a worker runs between stop-flag polls,
// which in turn bounds shutdown latency.
const enduranceSlice = 100 * time.Millisecond

// runEndurance free-runs one kernel per core until the total duration
// elapses or the context is cancelled, then converts each core's
// iteration count to throughput over the shared wall-clock elapsed
// time.
func (e *Engine) runEndurance(ctx context.Context, descs []*topology.CoreDescriptor) error {
	kernelName := e.cfg.Kernels[0]
	slice := enduranceSlice
	if e.cfg.TotalDuration < 10*slice {
		slice = e.cfg.TotalDuration / 10
		if slice < time.Millisecond {
			slice = time.Millisecond
		}
	}

	e.logger.Info("starting endurance run",
		zap.Int("cores", len(descs)),
		zap.String("kernel", kernelName),
		zap.Duration("total_duration", e.cfg.TotalDuration))

	start := time.Now()

	var wg sync.WaitGroup
	for _, desc := range descs {
		wg.Add(1)
		go func(d *topology.CoreDescriptor) {
			defer wg.Done()
			e.enduranceWorker(d, kernelName, slice)
		}(desc)
	}

	timer := time.NewTimer(e.cfg.TotalDuration)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		e.logger.Warn("endurance run cancelled early", zap.Error(ctx.Err()))
	}
	e.stop.Store(true)
	wg.Wait()
	elapsed := time.Since(start)

	// Workers have joined; finalize throughput against the shared
	// elapsed time from a single thread.
	seconds := elapsed.Seconds()
	for _, desc := range descs {
		if desc.Unavailable {
			continue
		}
		res := desc.Results[kernelName]
		res.Elapsed = elapsed
		if seconds > 0 {
			res.Throughput = float64(res.Operations) / seconds
		}
		desc.Results[kernelName] = res
		desc.CompositeScore = res.Throughput
	}

	e.logger.Info("endurance run complete",
		zap.Int("cores", len(descs)),
		zap.Duration("elapsed", elapsed))
	return nil
}

// enduranceWorker accumulates completed operations in bounded slices,
// polling the stop flag between slices; it never aborts mid-slice.
func (e *Engine) enduranceWorker(desc *topology.CoreDescriptor, kernelName string, slice time.Duration) {
	defer e.completed.Add(1)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := e.pinner.Pin(desc.Selector); err != nil {
		desc.Unavailable = true
		e.logger.Warn("core unavailable",
			zap.Int("core", desc.ID),
			zap.Int("cpu", desc.Selector.CPU),
			zap.Error(fmt.Errorf("%w: %v", ErrAffinityBindFailed, err)))
		return
	}
	e.elevate(desc.ID)

	kernel, err := workload.New(kernelName)
	if err != nil {
		desc.Unavailable = true
		e.logger.Error("kernel construction failed", zap.Int("core", desc.ID), zap.Error(err))
		return
	}

	var ops, checksum uint64
	for !e.stop.Load() {
		res := kernel.Run(slice)
		ops += res.Operations
		checksum ^= res.Checksum
	}

	desc.Results[kernelName] = workload.Result{
		Workload:   kernelName,
		Operations: ops,
		Checksum:   checksum,
	}
}

// Completed returns how many workers have finished so far.
func (e *Engine) Completed() int {
	return int(e.completed.Load())
}

// monitorProgress feeds the progress callback from the completed
// counter until all workers are done, then reports the final count.
func (e *Engine) monitorProgress(done <-chan struct{}, total int) {
	if e.progress == nil {
		return
	}
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			e.progress(total, total)
			return
		case <-ticker.C:
			e.progress(e.Completed(), total)
		}
	}
}
