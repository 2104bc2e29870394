package codec

import (
	"io"

	deepwebp "github.com/deepteams/webp"
	xwebp "golang.org/x/image/webp"

	"github.com/batchresize/engine/bufpool"
	"github.com/batchresize/engine/core"
	apperrors "github.com/batchresize/engine/errors"
)

// WebPDecoder decodes WebP images via golang.org/x/image/webp (lossy and
// lossless VP8/VP8L; no animation support, matching the pipeline's
// single-frame model). The decode-time hint is not supported; hintW/hintH
// are ignored.
type WebPDecoder struct{}

func NewWebPDecoder() *WebPDecoder { return &WebPDecoder{} }

func (d *WebPDecoder) Decode(r io.Reader, _, _ int, pool *bufpool.Pool) (*core.PixelBuffer, error) {
	img, err := xwebp.Decode(r)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "webp.decode", err)
	}
	return imageToPixelBuffer(img, 4, pool), nil
}

// WebPEncoder encodes PixelBuffers to WebP using github.com/deepteams/webp,
// a pure-Go encoder (golang.org/x/image/webp only decodes). Single-channel
// (grayscale) buffers are rejected: the WebP bitstream format has no
// grayscale mode, and silently promoting to RGB would hide a caller bug
// rather than surface it.
type WebPEncoder struct{}

func NewWebPEncoder() *WebPEncoder { return &WebPEncoder{} }

func (e *WebPEncoder) Encode(w io.Writer, buf *core.PixelBuffer, quality int, pool *bufpool.Pool) error {
	if err := buf.Validate(); err != nil {
		return apperrors.Wrap(apperrors.CategoryEncode, "webp.encode", err)
	}
	if buf.Channels == 1 || buf.Channels == 2 {
		return apperrors.New(apperrors.CategoryEncode, "webp.encode", apperrors.ErrInvalidChannels)
	}
	if quality <= 0 {
		quality = 85
	}

	img, acquired := pixelBufferToNRGBA(buf, pool)
	if acquired {
		defer pool.Release(img.Pix)
	}
	opts := &deepwebp.EncoderOptions{
		Quality: float32(quality),
		Method:  4,
		Preset:  deepwebp.PresetPhoto,
	}
	if err := deepwebp.Encode(w, img, opts); err != nil {
		return apperrors.Wrap(apperrors.CategoryEncode, "webp.encode", err)
	}
	return nil
}
