package codec_test

import (
	"bytes"
	"testing"

	"github.com/batchresize/engine/codec"
)

func TestWebP_RoundTripPreservesShape(t *testing.T) {
	src := gradientBuffer(24, 18, 4)
	enc := codec.NewWebPEncoder()

	var buf bytes.Buffer
	if err := enc.Encode(&buf, src, 80, nil); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	dec := codec.NewWebPDecoder()
	got, err := dec.Decode(bytes.NewReader(buf.Bytes()), 0, 0, nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Width != 24 || got.Height != 18 {
		t.Fatalf("got %dx%d, want 24x18", got.Width, got.Height)
	}
}

func TestWebP_EncodeRejectsGrayscale(t *testing.T) {
	src := gradientBuffer(10, 10, 1)
	enc := codec.NewWebPEncoder()
	var buf bytes.Buffer
	if err := enc.Encode(&buf, src, 80, nil); err == nil {
		t.Fatal("expected error encoding a single-channel buffer to WebP")
	}
}

func TestWebP_EncodeRejectsGrayAlpha(t *testing.T) {
	src := gradientBuffer(10, 10, 2)
	enc := codec.NewWebPEncoder()
	var buf bytes.Buffer
	if err := enc.Encode(&buf, src, 80, nil); err == nil {
		t.Fatal("expected error encoding a 2-channel buffer to WebP")
	}
}

func TestWebP_EncodeDefaultsQualityWhenUnset(t *testing.T) {
	src := gradientBuffer(12, 12, 3)
	enc := codec.NewWebPEncoder()
	var buf bytes.Buffer
	if err := enc.Encode(&buf, src, 0, nil); err != nil {
		t.Fatalf("Encode with quality=0 should fall back to a default, got error: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected non-empty WebP output")
	}
}
