package batch_test

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/batchresize/engine/batch"
	"github.com/batchresize/engine/codec"
	"github.com/batchresize/engine/config"
	"github.com/batchresize/engine/core"
)

// TestEngine_ResizeCustom_PipelineAndWorkerPoolAreByteIdentical is the
// pipeline-parity property test: the same 100-item batch run once through
// the pipeline scheduler (MaxSpeed=true) and once through the worker-pool
// scheduler (MaxSpeed=false) must report equal success/failed counts and
// produce byte-identical output per item. Every item uses a deterministic
// filter (BOX) and a lossless output format (PNG or BMP) so the two
// scheduling strategies have no room to diverge on encoder nondeterminism;
// only the scheduling path differs between the two runs.
func TestEngine_ResizeCustom_PipelineAndWorkerPoolAreByteIdentical(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "source.png")
	writeGradientPNG(t, in, 120, 90)

	const n = 100
	pipelineDir := filepath.Join(dir, "pipeline_out")
	poolDir := filepath.Join(dir, "pool_out")
	for _, d := range []string{pipelineDir, poolDir} {
		if err := os.Mkdir(d, 0o755); err != nil {
			t.Fatalf("Mkdir(%s): %v", d, err)
		}
	}

	names := make([]string, n)
	for i := 0; i < n; i++ {
		ext := ".png"
		if i%2 == 1 {
			ext = ".bmp"
		}
		names[i] = fmt.Sprintf("item_%03d%s", i, ext)
	}

	buildItems := func(outDir string) []core.BatchItem {
		items := make([]core.BatchItem, n)
		for i, name := range names {
			items[i] = core.BatchItem{
				InputPath:  in,
				OutputPath: filepath.Join(outDir, name),
				Request: core.ResizeRequest{
					Mode: core.ExactSize, TargetWidth: 40, TargetHeight: 30,
					KeepAspectRatio: false, Quality: 90, Filter: core.Box,
				},
			}
		}
		return items
	}

	cfg := config.Default()
	cfg.PipelineThreshold = 20 // n (100) clears this, so MaxSpeed=true below selects the pipeline path

	pipelineEngine := batch.New(cfg, nil, nil)
	pipelineResult := pipelineEngine.ResizeCustom(buildItems(pipelineDir), core.BatchOptions{MaxSpeed: true})

	poolEngine := batch.New(cfg, nil, nil)
	poolResult := poolEngine.ResizeCustom(buildItems(poolDir), core.BatchOptions{MaxSpeed: false})

	if pipelineResult.Total != n || poolResult.Total != n {
		t.Fatalf("Total: pipeline=%d pool=%d, want %d for both", pipelineResult.Total, poolResult.Total, n)
	}
	if pipelineResult.SuccessCount != poolResult.SuccessCount {
		t.Fatalf("SuccessCount mismatch: pipeline=%d pool=%d", pipelineResult.SuccessCount, poolResult.SuccessCount)
	}
	if pipelineResult.FailedCount != poolResult.FailedCount {
		t.Fatalf("FailedCount mismatch: pipeline=%d pool=%d", pipelineResult.FailedCount, poolResult.FailedCount)
	}
	if pipelineResult.FailedCount != 0 {
		t.Fatalf("unexpected failures: pipeline=%v pool=%v", pipelineResult.Errors, poolResult.Errors)
	}

	for _, name := range names {
		pipelineBytes, err := os.ReadFile(filepath.Join(pipelineDir, name))
		if err != nil {
			t.Fatalf("ReadFile(pipeline/%s): %v", name, err)
		}
		poolBytes, err := os.ReadFile(filepath.Join(poolDir, name))
		if err != nil {
			t.Fatalf("ReadFile(pool/%s): %v", name, err)
		}
		if !bytes.Equal(pipelineBytes, poolBytes) {
			t.Fatalf("%s: pipeline and worker-pool output differ (%d vs %d bytes)",
				name, len(pipelineBytes), len(poolBytes))
		}
	}
}

func writeGradientPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: byte(x * 255 / w), G: byte(y * 255 / h), B: 200, A: 255})
		}
	}
	buf := &core.PixelBuffer{Pixels: make([]byte, w*h*4), Width: w, Height: h, Channels: 4}
	copy(buf.Pixels, img.Pix)

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()
	if err := codec.NewPNGEncoder().Encode(f, buf, 90, nil); err != nil {
		t.Fatalf("Encode: %v", err)
	}
}
