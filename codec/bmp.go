package codec

import (
	"io"

	"golang.org/x/image/bmp"

	"github.com/batchresize/engine/bufpool"
	"github.com/batchresize/engine/core"
	apperrors "github.com/batchresize/engine/errors"
)

// BMPDecoder decodes BMP images via golang.org/x/image/bmp. BMP has no
// decode-time downscale hint; hintW/hintH are ignored.
type BMPDecoder struct{}

func NewBMPDecoder() *BMPDecoder { return &BMPDecoder{} }

func (d *BMPDecoder) Decode(r io.Reader, _, _ int, pool *bufpool.Pool) (*core.PixelBuffer, error) {
	img, err := bmp.Decode(r)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "bmp.decode", err)
	}
	return imageToPixelBuffer(img, 3, pool), nil
}

// BMPEncoder encodes PixelBuffers to BMP. BMP is always lossless; quality
// is accepted for interface symmetry and ignored.
type BMPEncoder struct{}

func NewBMPEncoder() *BMPEncoder { return &BMPEncoder{} }

func (e *BMPEncoder) Encode(w io.Writer, buf *core.PixelBuffer, _ int, pool *bufpool.Pool) error {
	if err := buf.Validate(); err != nil {
		return apperrors.Wrap(apperrors.CategoryEncode, "bmp.encode", err)
	}
	src, srcAcquired := stripAlpha(buf, pool)
	if srcAcquired {
		defer pool.Release(src.Pixels)
	}
	img, imgAcquired := pixelBufferToNRGBA(src, pool)
	if imgAcquired {
		defer pool.Release(img.Pix)
	}
	if err := bmp.Encode(w, img); err != nil {
		return apperrors.Wrap(apperrors.CategoryEncode, "bmp.encode", err)
	}
	return nil
}
