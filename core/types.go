// Package core holds the data model shared by every stage of the batch
// resize engine: the resize request/result types, the pixel buffer value
// that moves between pipeline stages, and the codec/observability
// collaborator interfaces the rest of the module programs against.
package core

import (
	apperrors "github.com/batchresize/engine/errors"
)

// Mode selects how a ResizeRequest's target dimensions are interpreted.
type Mode int

const (
	ScalePercent Mode = iota
	FitWidth
	FitHeight
	ExactSize
)

func (m Mode) String() string {
	switch m {
	case ScalePercent:
		return "SCALE_PERCENT"
	case FitWidth:
		return "FIT_WIDTH"
	case FitHeight:
		return "FIT_HEIGHT"
	case ExactSize:
		return "EXACT_SIZE"
	default:
		return "UNKNOWN_MODE"
	}
}

// Filter identifies a resampling kernel.
type Filter int

const (
	Mitchell Filter = iota
	CatmullRom
	Box
	Triangle
)

func (f Filter) String() string {
	switch f {
	case Mitchell:
		return "MITCHELL"
	case CatmullRom:
		return "CATMULL_ROM"
	case Box:
		return "BOX"
	case Triangle:
		return "TRIANGLE"
	default:
		return "UNKNOWN_FILTER"
	}
}

// Format identifies an image codec, detected from content or derived from
// an output file extension.
type Format string

const (
	FormatJPEG    Format = "jpeg"
	FormatPNG     Format = "png"
	FormatWebP    Format = "webp"
	FormatBMP     Format = "bmp"
	FormatUnknown Format = "unknown"
)

// ResizeRequest is an immutable per-task resize specification.
type ResizeRequest struct {
	Mode Mode

	TargetWidth  int
	TargetHeight int
	ScalePercent float64

	KeepAspectRatio bool
	Quality         int // 1-100, applies to lossy encoders
	Filter          Filter
}

// DefaultResizeRequest returns a request with KeepAspectRatio true, Quality
// 85 and Filter Mitchell; Mode is the zero value (ScalePercent) and the
// dimensions/scale are zero, so callers must still set Mode and the
// dimensions/scale relevant to it.
func DefaultResizeRequest() ResizeRequest {
	return ResizeRequest{KeepAspectRatio: true, Quality: 85, Filter: Mitchell}
}

// Validate reports whether r is well-formed, per spec.md §7's InvalidOption
// error kind.
func (r ResizeRequest) Validate() error {
	switch r.Mode {
	case ScalePercent:
		if r.ScalePercent <= 0 {
			return apperrors.New(apperrors.CategoryInvalidOption, "ResizeRequest.Validate",
				apperrors.ErrInvalidDimensions)
		}
	case FitWidth:
		if r.TargetWidth <= 0 {
			return apperrors.New(apperrors.CategoryInvalidOption, "ResizeRequest.Validate",
				apperrors.ErrInvalidDimensions)
		}
	case FitHeight:
		if r.TargetHeight <= 0 {
			return apperrors.New(apperrors.CategoryInvalidOption, "ResizeRequest.Validate",
				apperrors.ErrInvalidDimensions)
		}
	case ExactSize:
		if r.TargetWidth <= 0 || r.TargetHeight <= 0 {
			return apperrors.New(apperrors.CategoryInvalidOption, "ResizeRequest.Validate",
				apperrors.ErrInvalidDimensions)
		}
	default:
		return apperrors.New(apperrors.CategoryInvalidOption, "ResizeRequest.Validate",
			apperrors.ErrInvalidDimensions)
	}
	// Quality == 0 is accepted as "unset"; each encoder defaults it to 85
	// (matching the teacher's own quality <= 0 fallback idiom).
	if r.Quality < 0 || r.Quality > 100 {
		return apperrors.New(apperrors.CategoryInvalidOption, "ResizeRequest.Validate",
			apperrors.ErrInvalidDimensions)
	}
	return nil
}

// BatchItem is one unit of work: an input/output path pair plus the resize
// request to apply. The output path's extension determines the output
// format (see codec.FormatFromExtension).
type BatchItem struct {
	InputPath  string
	OutputPath string
	Request    ResizeRequest
}

// BatchOptions controls how a batch is scheduled.
type BatchOptions struct {
	// NumThreads is the worker count for the chosen scheduler. 0 means
	// adaptive (see batch.AdaptiveThreadCount).
	NumThreads int

	// StopOnError requests best-effort early termination on the first
	// failure. Only honored on the worker-pool scheduling path; the
	// pipeline path always completes (spec.md §4.8).
	StopOnError bool

	// MaxSpeed requests the pipeline scheduler for batches at or above the
	// pipeline threshold (spec.md §4.8 strategy selection).
	MaxSpeed bool
}

// PixelBuffer is a contiguous buffer of height*width*channels 8-bit
// samples. Exclusively owned by whichever stage currently holds it;
// ownership transfers with the value as it moves between queues.
type PixelBuffer struct {
	Pixels   []byte
	Width    int
	Height   int
	Channels int
}

// Validate reports whether the buffer's declared shape is internally
// consistent.
func (b *PixelBuffer) Validate() error {
	if b.Width <= 0 || b.Height <= 0 {
		return apperrors.New(apperrors.CategoryResize, "PixelBuffer.Validate", apperrors.ErrInvalidDimensions)
	}
	switch b.Channels {
	case 1, 2, 3, 4:
	default:
		return apperrors.New(apperrors.CategoryResize, "PixelBuffer.Validate", apperrors.ErrInvalidChannels)
	}
	want := b.Width * b.Height * b.Channels
	if len(b.Pixels) < want {
		return apperrors.New(apperrors.CategoryResize, "PixelBuffer.Validate", apperrors.ErrInvalidDimensions)
	}
	return nil
}

// BatchResult aggregates the outcome of a batch call. Exactly one outcome
// (success or a recorded error) exists per BatchItem. Errors appear in
// completion order, not input order (no stable-order guarantee is made;
// see spec.md §5).
type BatchResult struct {
	Total        int
	SuccessCount int
	FailedCount  int
	Errors       []string
}

// Logger is the minimal structured logging interface the engine programs
// against. hooks.SlogLogger is the production implementation.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)
}

// MetricsCollector receives performance observations from the pipeline and
// worker-pool schedulers. hooks.InMemoryMetrics and hooks.PrometheusMetrics
// are the bundled implementations.
type MetricsCollector interface {
	RecordStageDuration(stage string, seconds float64)
	RecordQueueDepth(queue string, depth int)
	RecordItemOutcome(stage string, ok bool)
}

// NopLogger discards everything. Used as the default when no Logger is
// attached.
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}

// NopMetrics discards everything. Used as the default when no
// MetricsCollector is attached.
type NopMetrics struct{}

func (NopMetrics) RecordStageDuration(string, float64) {}
func (NopMetrics) RecordQueueDepth(string, int)         {}
func (NopMetrics) RecordItemOutcome(string, bool)       {}
