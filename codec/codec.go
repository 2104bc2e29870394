// Package codec is the decode/encode adapter layer: format detection,
// per-format Decoder/Encoder implementations, and the registry the batch
// dispatcher and pipeline stages look them up through.
package codec

import (
	"bytes"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"
	"sync"

	xbmp "golang.org/x/image/bmp"
	xwebp "golang.org/x/image/webp"

	"github.com/batchresize/engine/bufpool"
	"github.com/batchresize/engine/core"
	apperrors "github.com/batchresize/engine/errors"
)

// Decoder turns encoded bytes into a PixelBuffer. hintW/hintH, when both
// positive, are a decode-time downscale hint: implementations that support
// it (JPEG, via libvips shrink-on-load) decode directly at a reduced
// resolution instead of allocating the full bitmap. Implementations that
// don't support hinting ignore it and decode at full size.
//
// pool, when non-nil, is used to acquire the backing []byte for the
// returned PixelBuffer's Pixels field instead of a fresh allocation.
type Decoder interface {
	Decode(r io.Reader, hintW, hintH int, pool *bufpool.Pool) (*core.PixelBuffer, error)
}

// Encoder serializes a PixelBuffer to w at the given quality (1-100;
// ignored by lossless-only formats like BMP, and used as a compression
// effort hint for PNG). pool, when non-nil, backs the scratch buffer used
// to convert non-4-channel PixelBuffers into the image.Image shape the
// underlying codec library expects.
type Encoder interface {
	Encode(w io.Writer, buf *core.PixelBuffer, quality int, pool *bufpool.Pool) error
}

// Registry maps core.Format to the Decoder/Encoder pair that handles it.
type Registry struct {
	mu       sync.RWMutex
	decoders map[core.Format]Decoder
	encoders map[core.Format]Encoder
}

// NewRegistry returns a Registry pre-populated with the bundled JPEG, PNG,
// WebP, and BMP codecs.
func NewRegistry() *Registry {
	r := &Registry{
		decoders: make(map[core.Format]Decoder),
		encoders: make(map[core.Format]Encoder),
	}
	r.RegisterDecoder(core.FormatJPEG, NewJPEGDecoder())
	r.RegisterEncoder(core.FormatJPEG, NewJPEGEncoder())
	r.RegisterDecoder(core.FormatPNG, NewPNGDecoder())
	r.RegisterEncoder(core.FormatPNG, NewPNGEncoder())
	r.RegisterDecoder(core.FormatWebP, NewWebPDecoder())
	r.RegisterEncoder(core.FormatWebP, NewWebPEncoder())
	r.RegisterDecoder(core.FormatBMP, NewBMPDecoder())
	r.RegisterEncoder(core.FormatBMP, NewBMPEncoder())
	return r
}

func (r *Registry) RegisterDecoder(f core.Format, d Decoder) {
	r.mu.Lock()
	r.decoders[f] = d
	r.mu.Unlock()
}

func (r *Registry) RegisterEncoder(f core.Format, e Encoder) {
	r.mu.Lock()
	r.encoders[f] = e
	r.mu.Unlock()
}

func (r *Registry) DecoderFor(f core.Format) (Decoder, bool) {
	r.mu.RLock()
	d, ok := r.decoders[f]
	r.mu.RUnlock()
	return d, ok
}

func (r *Registry) EncoderFor(f core.Format) (Encoder, bool) {
	r.mu.RLock()
	e, ok := r.encoders[f]
	r.mu.RUnlock()
	return e, ok
}

// magic byte prefixes for format sniffing (spec.md §6.1).
var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47}
	bmpMagic  = []byte{0x42, 0x4D} // "BM"
	riffMagic = []byte("RIFF")
	webpMagic = []byte("WEBP")
)

// DetectFormat sniffs the image format from its leading bytes. Returns
// FormatUnknown if none of the supported magic sequences match.
func DetectFormat(header []byte) core.Format {
	switch {
	case bytes.HasPrefix(header, jpegMagic):
		return core.FormatJPEG
	case bytes.HasPrefix(header, pngMagic):
		return core.FormatPNG
	case bytes.HasPrefix(header, bmpMagic):
		return core.FormatBMP
	case len(header) >= 12 && bytes.HasPrefix(header, riffMagic) && bytes.Equal(header[8:12], webpMagic):
		return core.FormatWebP
	default:
		return core.FormatUnknown
	}
}

// FormatFromExtension derives the output format from an output path's file
// extension. An unrecognized or missing extension defaults to JPEG
// (spec.md §6.2).
func FormatFromExtension(path string) core.Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return core.FormatJPEG
	case ".png":
		return core.FormatPNG
	case ".webp":
		return core.FormatWebP
	case ".bmp":
		return core.FormatBMP
	default:
		return core.FormatJPEG
	}
}

// ProbeDimensions reads only the header of an encoded image to recover its
// width and height without a full decode. The pipeline's decode stage uses
// this to compute a target size (via resize/dimension.Solve) before
// handing the JPEG decoder a shrink-on-load hint.
func ProbeDimensions(format core.Format, raw []byte) (w, h int, err error) {
	r := bytes.NewReader(raw)
	switch format {
	case core.FormatJPEG:
		cfg, err := jpeg.DecodeConfig(r)
		if err != nil {
			return 0, 0, apperrors.Wrap(apperrors.CategoryDecode, "codec.ProbeDimensions", err)
		}
		return cfg.Width, cfg.Height, nil
	case core.FormatPNG:
		cfg, err := png.DecodeConfig(r)
		if err != nil {
			return 0, 0, apperrors.Wrap(apperrors.CategoryDecode, "codec.ProbeDimensions", err)
		}
		return cfg.Width, cfg.Height, nil
	case core.FormatWebP:
		cfg, err := xwebp.DecodeConfig(r)
		if err != nil {
			return 0, 0, apperrors.Wrap(apperrors.CategoryDecode, "codec.ProbeDimensions", err)
		}
		return cfg.Width, cfg.Height, nil
	case core.FormatBMP:
		cfg, err := xbmp.DecodeConfig(r)
		if err != nil {
			return 0, 0, apperrors.Wrap(apperrors.CategoryDecode, "codec.ProbeDimensions", err)
		}
		return cfg.Width, cfg.Height, nil
	default:
		return 0, 0, UnsupportedFormatErr("codec.ProbeDimensions", format)
	}
}

// UnsupportedFormatErr builds the structured error returned by callers
// (batch, pipeline) when a registry lookup finds no codec for f.
func UnsupportedFormatErr(op string, f core.Format) error {
	return apperrors.New(apperrors.CategoryUnsupportedFormat, op,
		errUnsupported{format: f})
}

type errUnsupported struct{ format core.Format }

func (e errUnsupported) Error() string {
	return "unsupported image format: " + string(e.format)
}

func (e errUnsupported) Unwrap() error { return apperrors.ErrUnsupportedFormat }
