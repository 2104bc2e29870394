package codec_test

import (
	"bytes"
	"testing"

	"github.com/batchresize/engine/codec"
)

func TestJPEG_RoundTripPreservesShape(t *testing.T) {
	// JPEG is lossy, so we only assert shape and approximate color survive
	// the round trip, not byte-identity.
	src := gradientBuffer(40, 30, 3)
	enc := codec.NewJPEGEncoder()

	var buf bytes.Buffer
	if err := enc.Encode(&buf, src, 90, nil); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	dec := codec.NewJPEGDecoder()
	got, err := dec.Decode(bytes.NewReader(buf.Bytes()), 0, 0, nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Width != 40 || got.Height != 30 || got.Channels != 3 {
		t.Fatalf("got %dx%d c=%d, want 40x30 c=3", got.Width, got.Height, got.Channels)
	}
}

func TestJPEG_EncodeStripsAlphaChannel(t *testing.T) {
	src := gradientBuffer(16, 16, 4)
	enc := codec.NewJPEGEncoder()
	var buf bytes.Buffer
	if err := enc.Encode(&buf, src, 85, nil); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	dec := codec.NewJPEGDecoder()
	got, err := dec.Decode(bytes.NewReader(buf.Bytes()), 0, 0, nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Channels != 3 {
		t.Fatalf("channels = %d, want 3 (JPEG has no alpha plane)", got.Channels)
	}
}

func TestJPEG_EncodeDefaultsQualityWhenUnset(t *testing.T) {
	src := gradientBuffer(8, 8, 3)
	enc := codec.NewJPEGEncoder()
	var buf bytes.Buffer
	if err := enc.Encode(&buf, src, 0, nil); err != nil {
		t.Fatalf("Encode with quality=0 should fall back to a default, got error: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected non-empty JPEG output")
	}
}

func TestJPEG_DecodeRejectsEmptyInput(t *testing.T) {
	dec := codec.NewJPEGDecoder()
	if _, err := dec.Decode(bytes.NewReader(nil), 0, 0, nil); err == nil {
		t.Fatal("expected error decoding empty input")
	}
}

func TestJPEG_DecodeWithHintShrinksOnLoad(t *testing.T) {
	src := gradientBuffer(400, 300, 3)
	enc := codec.NewJPEGEncoder()
	var buf bytes.Buffer
	if err := enc.Encode(&buf, src, 90, nil); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	dec := codec.NewJPEGDecoder()
	got, err := dec.Decode(bytes.NewReader(buf.Bytes()), 100, 75, nil)
	if err != nil {
		t.Fatalf("Decode with hint: %v", err)
	}
	if got.Width > 400 || got.Height > 300 {
		t.Fatalf("hinted decode produced %dx%d, larger than the source", got.Width, got.Height)
	}
	if got.Channels != 3 {
		t.Fatalf("channels = %d, want 3", got.Channels)
	}
}
