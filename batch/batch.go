// Package batch is the public entry point for the resize engine: the
// strategy selection between the pipeline scheduler and a simple
// worker-pool fan-out, the adaptive thread-count table, and the
// single-image resize path the worker-pool strategy drives.
package batch

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/batchresize/engine/bufpool"
	"github.com/batchresize/engine/codec"
	"github.com/batchresize/engine/config"
	"github.com/batchresize/engine/core"
	apperrors "github.com/batchresize/engine/errors"
	"github.com/batchresize/engine/iox"
	"github.com/batchresize/engine/pipeline"
	"github.com/batchresize/engine/resize/dimension"
	"github.com/batchresize/engine/resize/resample"
	"github.com/batchresize/engine/workerpool"
)

// Engine wires a codec registry, configuration, and observability
// collaborators into the Resize/ResizeCustom entry points. The zero value
// is not usable; construct one with New.
type Engine struct {
	cfg      config.Config
	registry *codec.Registry
	logger   core.Logger
	metrics  core.MetricsCollector
}

// New returns an Engine. A nil logger/metrics defaults to the engine's
// no-op implementations.
func New(cfg config.Config, logger core.Logger, metrics core.MetricsCollector) *Engine {
	if logger == nil {
		logger = core.NopLogger{}
	}
	if metrics == nil {
		metrics = core.NopMetrics{}
	}
	return &Engine{cfg: cfg, registry: codec.NewRegistry(), logger: logger, metrics: metrics}
}

// Registry exposes the bundled codec registry so callers can register a
// custom Decoder/Encoder before running a batch.
func (e *Engine) Registry() *codec.Registry { return e.registry }

// Resize builds one BatchItem per input path by joining its base name onto
// outputDir, applying request and options to all of them, then delegates to
// ResizeCustom.
func (e *Engine) Resize(inputPaths []string, outputDir string, request core.ResizeRequest, options core.BatchOptions) core.BatchResult {
	items := make([]core.BatchItem, len(inputPaths))
	for i, in := range inputPaths {
		items[i] = core.BatchItem{
			InputPath:  in,
			OutputPath: filepath.Join(outputDir, filepath.Base(in)),
			Request:    request,
		}
	}
	return e.ResizeCustom(items, options)
}

// ResizeCustom runs items to completion under options, selecting between
// the pipeline scheduler and a worker-pool fan-out.
func (e *Engine) ResizeCustom(items []core.BatchItem, options core.BatchOptions) core.BatchResult {
	if options.MaxSpeed && len(items) >= e.cfg.PipelineThreshold {
		return pipeline.New(e.cfg, e.registry, e.logger, e.metrics).Run(items)
	}
	return e.runWorkerPool(items, options)
}

// AdaptiveThreadCount implements the batch dispatcher's thread-count
// adaptation table for options.NumThreads == 0.
func AdaptiveThreadCount(size int) int {
	switch {
	case size < 5:
		return 1
	case size < 20:
		return 2
	case size < 50:
		return 4
	default:
		return 8
	}
}

func (e *Engine) runWorkerPool(items []core.BatchItem, options core.BatchOptions) core.BatchResult {
	result := core.BatchResult{Total: len(items)}
	if len(items) == 0 {
		return result
	}

	workers := options.NumThreads
	if workers <= 0 {
		workers = AdaptiveThreadCount(len(items))
	}

	pool := workerpool.New(workers, len(items))
	var resultMu sync.Mutex
	var stopped atomic.Bool
	var wg sync.WaitGroup

	wg.Add(len(items))
	for i := range items {
		item := items[i]
		pool.Enqueue(func() {
			defer wg.Done()
			if options.StopOnError && stopped.Load() {
				resultMu.Lock()
				result.FailedCount++
				result.Errors = append(result.Errors, item.InputPath+": skipped, stop_on_error set after an earlier failure")
				resultMu.Unlock()
				return
			}

			err := e.resizeOne(item)
			e.metrics.RecordItemOutcome("batch", err == nil)

			resultMu.Lock()
			if err != nil {
				result.FailedCount++
				result.Errors = append(result.Errors, item.InputPath+": "+err.Error())
				e.logger.Warn("item failed", "input", item.InputPath, "output", item.OutputPath, "err", err)
				if options.StopOnError {
					stopped.Store(true)
				}
			} else {
				result.SuccessCount++
			}
			resultMu.Unlock()
		})
	}
	wg.Wait()
	pool.Stop()

	return result
}

// resizeOne runs the single-image resize path the worker-pool strategy
// drives for one item: detect input format, solve output dimensions,
// decode with the target as a shrink-on-load hint, resample, encode,
// release buffers.
func (e *Engine) resizeOne(item core.BatchItem) error {
	if err := item.Request.Validate(); err != nil {
		return err
	}

	mf, err := iox.Open(item.InputPath)
	if err != nil {
		return err
	}
	defer mf.Close()

	raw := mf.Bytes()
	srcFormat := codec.DetectFormat(raw)
	if srcFormat == core.FormatUnknown {
		return codec.UnsupportedFormatErr("batch.resizeOne", srcFormat)
	}
	dec, ok := e.registry.DecoderFor(srcFormat)
	if !ok {
		return codec.UnsupportedFormatErr("batch.resizeOne", srcFormat)
	}
	dstFormat := codec.FormatFromExtension(item.OutputPath)
	enc, ok := e.registry.EncoderFor(dstFormat)
	if !ok {
		return codec.UnsupportedFormatErr("batch.resizeOne", dstFormat)
	}

	pool := bufpool.New(e.cfg.BufferPoolCapacity)

	hintW, hintH := 0, 0
	knownTarget := false
	if srcW, srcH, err := codec.ProbeDimensions(srcFormat, raw); err == nil {
		hintW, hintH = dimension.Solve(srcW, srcH, item.Request)
		knownTarget = true
	}

	buf, err := dec.Decode(bytes.NewReader(raw), hintW, hintH, pool)
	if err != nil {
		return err
	}

	targetW, targetH := hintW, hintH
	if !knownTarget {
		targetW, targetH = dimension.Solve(buf.Width, buf.Height, item.Request)
	}

	resized, err := resample.Resize(buf, targetW, targetH, item.Request.Filter)
	if err != nil {
		return err
	}

	f, err := os.Create(item.OutputPath)
	if err != nil {
		return apperrors.Wrap(apperrors.CategoryWrite, "batch.resizeOne", err)
	}
	defer f.Close()

	return enc.Encode(f, resized, item.Request.Quality, pool)
}
