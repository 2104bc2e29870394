package codec

import (
	"image"
	"image/png"
	"io"

	"github.com/batchresize/engine/bufpool"
	"github.com/batchresize/engine/core"
	apperrors "github.com/batchresize/engine/errors"
)

// PNGDecoder decodes PNG images using the standard library. PNG never
// supports the decode-time downscale hint; hintW/hintH are ignored.
type PNGDecoder struct{}

func NewPNGDecoder() *PNGDecoder { return &PNGDecoder{} }

func (d *PNGDecoder) Decode(r io.Reader, _, _ int, pool *bufpool.Pool) (*core.PixelBuffer, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "png.decode", err)
	}

	channels := 4
	if !hasAlphaChannel(img) {
		channels = 3
	}
	return imageToPixelBuffer(img, channels, pool), nil
}

// PNGEncoder encodes PixelBuffers to PNG. Quality maps onto PNG's
// compression-level knob rather than a lossy setting (PNG is always
// lossless): level = 9 - floor((quality-1)*9/99), clamped to [0,9], on the
// zlib scale where 0 is no compression and 9 is maximum compression. So
// quality=100 yields an uncompressed, fastest encode and quality=1 yields
// maximum compression effort. image/png offers four settings, so levels
// 1-3 use BestSpeed, 4-6 DefaultCompression and 7-9 BestCompression.
// quality<=0 is treated as 85.
type PNGEncoder struct{}

func NewPNGEncoder() *PNGEncoder { return &PNGEncoder{} }

func (e *PNGEncoder) Encode(w io.Writer, buf *core.PixelBuffer, quality int, pool *bufpool.Pool) error {
	if err := buf.Validate(); err != nil {
		return apperrors.Wrap(apperrors.CategoryEncode, "png.encode", err)
	}
	img, acquired := pixelBufferToNRGBA(buf, pool)
	if acquired {
		defer pool.Release(img.Pix)
	}

	enc := &png.Encoder{CompressionLevel: compressionLevelForQuality(quality)}
	if err := enc.Encode(w, img); err != nil {
		return apperrors.Wrap(apperrors.CategoryEncode, "png.encode", err)
	}
	return nil
}

func compressionLevelForQuality(quality int) png.CompressionLevel {
	if quality <= 0 {
		quality = 85
	}
	if quality > 100 {
		quality = 100
	}
	level := 9 - ((quality-1)*9)/99
	switch {
	case level <= 0:
		return png.NoCompression
	case level <= 3:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}

// hasAlphaChannel reports whether img's color model carries an alpha
// plane. image/png returns NRGBA/NRGBA64 for color types with alpha, and
// those keep their alpha plane as a 4th channel. RGBA/RGBA64 (what
// image/png returns for opaque truecolor), Paletted and Gray images decode
// as opaque 3-channel.
func hasAlphaChannel(img image.Image) bool {
	switch img.(type) {
	case *image.NRGBA, *image.NRGBA64:
		return true
	default:
		return false
	}
}
