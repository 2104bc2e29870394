package codec

import (
	"bytes"
	"image/jpeg"
	"image/png"
	"io"
	"sync"

	govips "github.com/davidbyttow/govips/v2/vips"

	"github.com/batchresize/engine/bufpool"
	"github.com/batchresize/engine/core"
	apperrors "github.com/batchresize/engine/errors"
)

// vipsOnce guards libvips process-wide Startup, which must run exactly
// once regardless of how many JPEG decoders are constructed.
var vipsOnce sync.Once

func startVips() {
	vipsOnce.Do(func() {
		govips.Startup(&govips.Config{ConcurrencyLevel: 0})
	})
}

// JPEGDecoder decodes JPEG images. When a decode hint is supplied it
// shrinks on load via libvips (avoiding a full-resolution decode); without
// a hint it falls back to the standard library decoder.
type JPEGDecoder struct{}

func NewJPEGDecoder() *JPEGDecoder { return &JPEGDecoder{} }

func (d *JPEGDecoder) Decode(r io.Reader, hintW, hintH int, pool *bufpool.Pool) (*core.PixelBuffer, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "jpeg.decode", err)
	}
	if len(raw) == 0 {
		return nil, apperrors.New(apperrors.CategoryDecode, "jpeg.decode", apperrors.ErrEmptyInput)
	}

	if hintW > 0 && hintH > 0 {
		return d.decodeWithHint(raw, hintW, hintH, pool)
	}

	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "jpeg.decode", err)
	}
	return imageToPixelBuffer(img, 3, pool), nil
}

// decodeWithHint shrinks the JPEG on load via libvips's thumbnail
// operator, then round-trips the shrunk image through a lossless PNG
// export so the rest of the pipeline only ever deals with stdlib
// image.Image values. This is the only place the module calls libvips.
func (d *JPEGDecoder) decodeWithHint(raw []byte, hintW, hintH int, pool *bufpool.Pool) (*core.PixelBuffer, error) {
	startVips()

	ref, err := govips.NewThumbnailFromBuffer(raw, hintW, hintH, govips.InterestingNone)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "jpeg.decode.hint", err)
	}
	defer ref.Close()

	buf, _, err := ref.ExportPng(govips.NewPngExportParams())
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "jpeg.decode.hint.export", err)
	}

	img, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "jpeg.decode.hint.reimport", err)
	}
	return imageToPixelBuffer(img, 3, pool), nil
}

// JPEGEncoder encodes PixelBuffers to JPEG using the standard library.
type JPEGEncoder struct{}

func NewJPEGEncoder() *JPEGEncoder { return &JPEGEncoder{} }

func (e *JPEGEncoder) Encode(w io.Writer, buf *core.PixelBuffer, quality int, pool *bufpool.Pool) error {
	if err := buf.Validate(); err != nil {
		return apperrors.Wrap(apperrors.CategoryEncode, "jpeg.encode", err)
	}
	if quality <= 0 {
		quality = 85
	}
	src, srcAcquired := stripAlpha(buf, pool)
	if srcAcquired {
		defer pool.Release(src.Pixels)
	}
	img, imgAcquired := pixelBufferToNRGBA(src, pool)
	if imgAcquired {
		defer pool.Release(img.Pix)
	}
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
		return apperrors.Wrap(apperrors.CategoryEncode, "jpeg.encode", err)
	}
	return nil
}
