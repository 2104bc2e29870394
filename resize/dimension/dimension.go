// Package dimension implements the pure dimension-solving function that
// turns a ResizeRequest into concrete output pixel dimensions.
package dimension

import (
	"math"

	"github.com/batchresize/engine/core"
)

// Solve computes the output (width, height) for an input image of size
// (inW, inH) under req. It never fails: malformed scale/target values
// degrade to the smallest valid output (1x1) rather than erroring, since
// the spec requires this function to be total. Use ResizeRequest.Validate
// beforehand to reject malformed requests at the option-validation
// boundary.
//
// Rounding is half-away-from-zero (standard math.Round semantics). Any
// axis that rounds to less than 1 is clamped to 1.
func Solve(inW, inH int, req core.ResizeRequest) (outW, outH int) {
	if inW < 1 {
		inW = 1
	}
	if inH < 1 {
		inH = 1
	}

	switch req.Mode {
	case core.ScalePercent:
		outW = clamp(round(float64(inW) * req.ScalePercent))
		outH = clamp(round(float64(inH) * req.ScalePercent))

	case core.FitWidth:
		outW = clamp(req.TargetWidth)
		if req.KeepAspectRatio {
			outH = clamp(round(float64(inH) * float64(outW) / float64(inW)))
		} else {
			outH = clamp(inH)
		}

	case core.FitHeight:
		outH = clamp(req.TargetHeight)
		if req.KeepAspectRatio {
			outW = clamp(round(float64(inW) * float64(outH) / float64(inH)))
		} else {
			outW = clamp(inW)
		}

	case core.ExactSize:
		if req.KeepAspectRatio {
			wRatio := float64(req.TargetWidth) / float64(inW)
			hRatio := float64(req.TargetHeight) / float64(inH)
			ratio := math.Min(wRatio, hRatio)
			outW = clamp(round(float64(inW) * ratio))
			outH = clamp(round(float64(inH) * ratio))
		} else {
			outW = clamp(req.TargetWidth)
			outH = clamp(req.TargetHeight)
		}

	default:
		outW, outH = clamp(inW), clamp(inH)
	}

	return outW, outH
}

// round implements half-away-from-zero rounding (math.Round already does
// this for float64; named here so the intent reads at the call site).
func round(v float64) int { return int(math.Round(v)) }

// clamp enforces the >= 1x1 output invariant (spec.md §3.2).
func clamp(v int) int {
	if v < 1 {
		return 1
	}
	return v
}
