// Package pipeline implements the three-stage decode/resize/encode
// scheduler: three pools of stage-specific workers connected by two
// bounded queues, giving the whole chain end-to-end backpressure without
// any stage ever racing ahead of what downstream stages can keep up with.
// It is the scheduling strategy batch.Engine.ResizeCustom selects for large,
// MaxSpeed-tagged batches (spec.md §4.8); for everything else the simpler
// workerpool-based fan-out in package batch is used instead.
package pipeline

import (
	"bytes"
	"os"
	"sync"
	"time"

	"github.com/batchresize/engine/bufpool"
	"github.com/batchresize/engine/codec"
	"github.com/batchresize/engine/config"
	"github.com/batchresize/engine/core"
	apperrors "github.com/batchresize/engine/errors"
	"github.com/batchresize/engine/iox"
	"github.com/batchresize/engine/queue"
	"github.com/batchresize/engine/resize/dimension"
	"github.com/batchresize/engine/resize/resample"
)

// workItem carries one BatchItem's state as it crosses the decode ->
// resize -> encode boundary. Once an error is recorded, downstream stages
// forward it unchanged rather than doing further work on it — a failed
// item still needs to reach the encode stage so it gets counted in the
// final BatchResult (spec.md §4.8: no early termination on the pipeline
// path).
type workItem struct {
	index            int
	item             core.BatchItem
	dstFormat        core.Format
	buf              *core.PixelBuffer
	targetW, targetH int
	err              error
}

// Pipeline runs a batch through the three-stage scheduler.
type Pipeline struct {
	cfg      config.Config
	registry *codec.Registry
	logger   core.Logger
	metrics  core.MetricsCollector
}

// New returns a Pipeline. A nil logger/metrics defaults to the no-op
// implementations in package core.
func New(cfg config.Config, reg *codec.Registry, logger core.Logger, metrics core.MetricsCollector) *Pipeline {
	if logger == nil {
		logger = core.NopLogger{}
	}
	if metrics == nil {
		metrics = core.NopMetrics{}
	}
	return &Pipeline{cfg: cfg, registry: reg, logger: logger, metrics: metrics}
}

// Run processes every item in items through the three-stage pipeline and
// returns the aggregated outcome. Completion order of individual items is
// not preserved; BatchResult.Errors accumulates in whatever order items
// finish the encode stage.
func (p *Pipeline) Run(items []core.BatchItem) core.BatchResult {
	result := core.BatchResult{Total: len(items)}
	if len(items) == 0 {
		return result
	}

	indices := make(chan int, len(items))
	for i := range items {
		indices <- i
	}
	close(indices)

	decodeToResize := queue.New(p.cfg.QueueCapacity)
	resizeToEncode := queue.New(p.cfg.QueueCapacity)

	var decodeWG, resizeWG, encodeWG sync.WaitGroup
	var resultMu sync.Mutex

	decodeWG.Add(p.cfg.DecodeWorkers)
	for i := 0; i < p.cfg.DecodeWorkers; i++ {
		go func() {
			defer decodeWG.Done()
			p.decodeWorker(indices, items, decodeToResize)
		}()
	}
	go func() {
		decodeWG.Wait()
		decodeToResize.SetDone()
	}()

	resizeWG.Add(p.cfg.ResizeWorkers)
	for i := 0; i < p.cfg.ResizeWorkers; i++ {
		go func() {
			defer resizeWG.Done()
			p.resizeWorker(decodeToResize, resizeToEncode)
		}()
	}
	go func() {
		resizeWG.Wait()
		resizeToEncode.SetDone()
	}()

	encodeWG.Add(p.cfg.EncodeWorkers)
	for i := 0; i < p.cfg.EncodeWorkers; i++ {
		go func() {
			defer encodeWG.Done()
			p.encodeWorker(resizeToEncode, &result, &resultMu)
		}()
	}
	encodeWG.Wait()

	return result
}

func (p *Pipeline) decodeWorker(indices <-chan int, items []core.BatchItem, out *queue.Queue) {
	pool := bufpool.New(p.cfg.BufferPoolCapacity)
	for idx := range indices {
		item := items[idx]
		start := time.Now()
		wi := p.decodeOne(idx, item, pool)
		p.metrics.RecordStageDuration("decode", time.Since(start).Seconds())
		p.metrics.RecordItemOutcome("decode", wi.err == nil)
		if wi.err != nil {
			p.logger.Warn("decode failed", "path", item.InputPath, "err", wi.err)
		}
		out.Push(wi)
	}
}

// decodeOne decodes item's source file and resolves its final output
// dimensions. The target is computed from the true source dimensions
// whenever they're known up front (the common case, via ProbeDimensions)
// so that a JPEG decode-time shrink never gets applied twice: the decoder
// is handed the already-final target as its shrink-on-load hint, and the
// resize stage just finishes the job against that same target regardless
// of how close the hinted decode landed. Only when probing fails (and the
// decoder therefore runs with no hint, at full source resolution) is the
// target computed after the fact, from the decoded buffer's own
// dimensions.
func (p *Pipeline) decodeOne(idx int, item core.BatchItem, pool *bufpool.Pool) *workItem {
	wi := &workItem{index: idx, item: item}

	if err := item.Request.Validate(); err != nil {
		wi.err = err
		return wi
	}

	mf, err := iox.Open(item.InputPath)
	if err != nil {
		wi.err = err
		return wi
	}
	defer mf.Close()

	raw := mf.Bytes()
	srcFormat := codec.DetectFormat(raw)
	if srcFormat == core.FormatUnknown {
		wi.err = codec.UnsupportedFormatErr("pipeline.decode", srcFormat)
		return wi
	}
	dec, ok := p.registry.DecoderFor(srcFormat)
	if !ok {
		wi.err = codec.UnsupportedFormatErr("pipeline.decode", srcFormat)
		return wi
	}
	wi.dstFormat = codec.FormatFromExtension(item.OutputPath)

	hintW, hintH := 0, 0
	knownTarget := false
	if srcW, srcH, err := codec.ProbeDimensions(srcFormat, raw); err == nil {
		hintW, hintH = dimension.Solve(srcW, srcH, item.Request)
		knownTarget = true
	}

	buf, err := dec.Decode(bytes.NewReader(raw), hintW, hintH, pool)
	if err != nil {
		wi.err = err
		return wi
	}
	wi.buf = buf

	if knownTarget {
		wi.targetW, wi.targetH = hintW, hintH
	} else {
		wi.targetW, wi.targetH = dimension.Solve(buf.Width, buf.Height, item.Request)
	}
	return wi
}

func (p *Pipeline) resizeWorker(in, out *queue.Queue) {
	for {
		v, ok := in.Pop()
		if !ok {
			return
		}
		wi := v.(*workItem)
		if wi.err != nil {
			out.Push(wi)
			continue
		}

		start := time.Now()
		resized, err := resample.Resize(wi.buf, wi.targetW, wi.targetH, wi.item.Request.Filter)
		p.metrics.RecordStageDuration("resize", time.Since(start).Seconds())
		p.metrics.RecordItemOutcome("resize", err == nil)

		if err != nil {
			wi.err = err
			wi.buf = nil
		} else {
			wi.buf = resized
		}
		out.Push(wi)
	}
}

func (p *Pipeline) encodeWorker(in *queue.Queue, result *core.BatchResult, mu *sync.Mutex) {
	pool := bufpool.New(p.cfg.BufferPoolCapacity)
	for {
		v, ok := in.Pop()
		if !ok {
			return
		}
		wi := v.(*workItem)
		err := wi.err
		if err == nil {
			start := time.Now()
			err = p.encodeOne(wi, pool)
			p.metrics.RecordStageDuration("encode", time.Since(start).Seconds())
		}
		p.metrics.RecordItemOutcome("encode", err == nil)

		mu.Lock()
		if err != nil {
			result.FailedCount++
			result.Errors = append(result.Errors, describeFailure(wi.item, err))
			p.logger.Warn("item failed", "input", wi.item.InputPath, "output", wi.item.OutputPath, "err", err)
		} else {
			result.SuccessCount++
		}
		mu.Unlock()
	}
}

func (p *Pipeline) encodeOne(wi *workItem, pool *bufpool.Pool) error {
	enc, ok := p.registry.EncoderFor(wi.dstFormat)
	if !ok {
		return codec.UnsupportedFormatErr("pipeline.encode", wi.dstFormat)
	}

	f, err := os.Create(wi.item.OutputPath)
	if err != nil {
		return apperrors.Wrap(apperrors.CategoryWrite, "pipeline.encode", err)
	}
	defer f.Close()

	if err := enc.Encode(f, wi.buf, wi.item.Request.Quality, pool); err != nil {
		return err
	}
	return nil
}

func describeFailure(item core.BatchItem, err error) string {
	return item.InputPath + ": " + err.Error()
}
